package membership

import (
	"encoding/json"

	"github.com/eventhub/eventhub-backend/internal/models"
)

// Derive fills the computed fields of a membership: end date, renewal date,
// default amount and the benefit snapshot. Callers invoke it before the first
// write and again whenever membershipType or startDate changed; edits to
// unrelated fields must not pass through here.
func Derive(m *models.Membership) error {
	plan, err := PlanFor(m.MembershipType)
	if err != nil {
		return err
	}

	m.EndDate = plan.EndDateFor(m.StartDate)
	m.RenewalDate = RenewalDateFor(m.EndDate)
	if m.Amount == 0 {
		m.Amount = plan.Price
	}
	if len(m.Benefits) == 0 {
		raw, errMarshal := json.Marshal(plan.Benefits)
		if errMarshal != nil {
			return errMarshal
		}
		m.Benefits = raw
	}
	return nil
}
