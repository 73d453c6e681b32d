package membership

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidMembershipType rejects unrecognized plan types everywhere,
// on the save path and on lookups alike.
var ErrInvalidMembershipType = errors.New("invalid membership type")

// Recognized membership types.
const (
	// TypeSixMonths is the half-year plan.
	TypeSixMonths = "6months"
	// TypeOneYear is the annual plan.
	TypeOneYear = "1year"
	// TypeTwoYears is the two-year plan.
	TypeTwoYears = "2years"
)

// Plan describes the pricing and entitlements of a membership type.
type Plan struct {
	Type          string   // Plan type key.
	Price         float64  // Default charge when the caller supplies no amount.
	DurationLabel string   // Display label, e.g. "1 Year".
	Benefits      []string // Entitlements snapshotted onto new memberships.
}

// plans is the static plan table, keyed by membership type.
var plans = map[string]Plan{
	TypeSixMonths: {
		Type:          TypeSixMonths,
		Price:         299,
		DurationLabel: "6 Months",
		Benefits: []string{
			"Access to all events",
			"Basic member support",
			"Monthly newsletter",
			"10% discount on paid events",
		},
	},
	TypeOneYear: {
		Type:          TypeOneYear,
		Price:         499,
		DurationLabel: "1 Year",
		Benefits: []string{
			"Access to all events",
			"Priority member support",
			"Monthly newsletter",
			"15% discount on paid events",
			"Access to member-only events",
			"Free workshop access",
		},
	},
	TypeTwoYears: {
		Type:          TypeTwoYears,
		Price:         899,
		DurationLabel: "2 Years",
		Benefits: []string{
			"Access to all events",
			"Premium member support",
			"Monthly newsletter",
			"25% discount on paid events",
			"Access to member-only events",
			"Free workshop access",
			"VIP event access",
			"Personal event concierge",
		},
	},
}

// planOrder fixes the listing order for the pricing endpoint.
var planOrder = []string{TypeSixMonths, TypeOneYear, TypeTwoYears}

// PlanFor returns the plan for a membership type, or ErrInvalidMembershipType.
func PlanFor(membershipType string) (Plan, error) {
	plan, ok := plans[membershipType]
	if !ok {
		return Plan{}, ErrInvalidMembershipType
	}
	return plan, nil
}

// Plans returns all plans in display order.
func Plans() []Plan {
	out := make([]Plan, 0, len(planOrder))
	for _, key := range planOrder {
		out = append(out, plans[key])
	}
	return out
}

// EndDateFor adds the plan interval to a start date using calendar arithmetic.
func (p Plan) EndDateFor(start time.Time) time.Time {
	switch p.Type {
	case TypeSixMonths:
		return start.AddDate(0, 6, 0)
	case TypeOneYear:
		return start.AddDate(1, 0, 0)
	default:
		return start.AddDate(2, 0, 0)
	}
}

// RenewalDateFor computes the reminder threshold, 30 days before expiry.
func RenewalDateFor(endDate time.Time) time.Time {
	return endDate.AddDate(0, 0, -30)
}

// TypeForDuration maps admin-facing duration strings to membership types.
func TypeForDuration(duration string) (string, error) {
	switch strings.TrimSpace(strings.ToLower(duration)) {
	case "6 months":
		return TypeSixMonths, nil
	case "1 year":
		return TypeOneYear, nil
	case "2 years":
		return TypeTwoYears, nil
	default:
		return "", ErrInvalidMembershipType
	}
}
