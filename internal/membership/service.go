package membership

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/eventhub/eventhub-backend/internal/billing"
	"github.com/eventhub/eventhub-backend/internal/gateway"
	"github.com/eventhub/eventhub-backend/internal/models"
)

// Domain precondition errors surfaced to the request boundary.
var (
	// ErrDuplicateActiveMembership rejects a purchase while another membership is active.
	ErrDuplicateActiveMembership = errors.New("user already has an active membership")
	// ErrNotFound signals the referenced membership does not exist.
	ErrNotFound = errors.New("membership not found")
)

// adminUpdateAllowlist restricts which fields an admin edit may touch.
// Anything else in the request body is dropped silently.
var adminUpdateAllowlist = map[string]string{
	"status":             "status",
	"paymentStatus":      "payment_status",
	"autoRenewal":        "auto_renewal",
	"notes":              "notes",
	"discountPercentage": "discount_percentage",
}

// Service orchestrates the membership lifecycle and its paired transactions.
type Service struct {
	db *gorm.DB
	gw *gateway.Client
}

// NewService wires the lifecycle service. The gateway may be nil.
func NewService(db *gorm.DB, gw *gateway.Client) *Service {
	return &Service{db: db, gw: gw}
}

// PurchaseInput carries the parameters for creating a membership.
type PurchaseInput struct {
	MembershipType string  // One of the recognized plan types.
	PaymentMethod  string  // card, bank_transfer, cash, online or admin.
	AutoRenewal    bool    // Renewal reminder opt-in.
	Notes          string  // Optional free-form notes.
	Amount         float64 // Zero means the plan default price.
	CreatedByID    *uint64 // Actor creating the record.
	Settled        bool    // Marks payment as captured immediately (admin path).
}

// Purchase creates a membership and its paired transaction atomically.
//
// The single-active-membership invariant is enforced inside one database
// transaction: stale date-expired rows are flipped to expired first, then the
// existence check runs, and the partial unique index on (user_id) WHERE
// status='active' backstops concurrent purchases that both pass the check.
func (s *Service) Purchase(ctx context.Context, userID uint64, in PurchaseInput) (*models.Membership, *models.Transaction, error) {
	now := time.Now().UTC()

	m := &models.Membership{
		UserID:         userID,
		MembershipType: in.MembershipType,
		StartDate:      now,
		Status:         models.MembershipStatusActive,
		PaymentStatus:  models.PaymentStatusPending,
		Amount:         in.Amount,
		PaymentMethod:  in.PaymentMethod,
		AutoRenewal:    in.AutoRenewal,
		Notes:          in.Notes,
		CreatedByID:    in.CreatedByID,
	}
	if in.Settled {
		m.PaymentStatus = models.PaymentStatusCompleted
	}
	if errDerive := Derive(m); errDerive != nil {
		return nil, nil, errDerive
	}

	t := &models.Transaction{
		UserID:        userID,
		Type:          models.TransactionTypeMembership,
		ItemType:      models.ItemTypeMembership,
		Amount:        m.Amount,
		PaymentMethod: in.PaymentMethod,
		Description:   fmt.Sprintf("%s membership purchase", in.MembershipType),
		CreatedByID:   in.CreatedByID,
	}
	if in.Settled {
		t.Status = models.TransactionStatusCompleted
	} else {
		t.Status = models.TransactionStatusPending
	}

	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errExpire := tx.Model(&models.Membership{}).
			Where("user_id = ? AND status = ? AND end_date <= ?", userID, models.MembershipStatusActive, now).
			Update("status", models.MembershipStatusExpired).Error; errExpire != nil {
			return errExpire
		}

		var existing models.Membership
		errFind := tx.Where("user_id = ? AND status = ?", userID, models.MembershipStatusActive).
			First(&existing).Error
		if errFind == nil {
			return ErrDuplicateActiveMembership
		}
		if !errors.Is(errFind, gorm.ErrRecordNotFound) {
			return errFind
		}

		if errCreate := tx.Create(m).Error; errCreate != nil {
			if isUniqueViolation(errCreate) {
				return ErrDuplicateActiveMembership
			}
			return errCreate
		}

		t.ItemID = m.ID
		billing.Normalize(t, now)
		if errCreate := tx.Create(t).Error; errCreate != nil {
			return errCreate
		}

		m.TransactionID = t.TransactionID
		return tx.Model(m).Update("transaction_id", t.TransactionID).Error
	})
	if errTx != nil {
		return nil, nil, errTx
	}

	if s.gw != nil && in.PaymentMethod == "online" && !in.Settled {
		s.captureOnline(ctx, m, t)
	}

	return m, t, nil
}

// captureOnline runs the gateway charge for an online purchase and settles
// or fails the pending transaction accordingly.
func (s *Service) captureOnline(ctx context.Context, m *models.Membership, t *models.Transaction) {
	now := time.Now().UTC()
	result, errCharge := s.gw.Charge(t.TransactionID, t.NetAmount)
	if errCharge != nil {
		t.Status = models.TransactionStatusFailed
		t.FailureReason = errCharge.Error()
		m.PaymentStatus = models.PaymentStatusFailed
	} else {
		t.Status = models.TransactionStatusCompleted
		t.PaymentGateway = gateway.GatewayName
		t.GatewayTransactionID = result.TransactionID
		t.GatewayResponse = result.RawResponse
		m.PaymentStatus = models.PaymentStatusCompleted
	}
	billing.Normalize(t, now)
	if errSave := s.db.WithContext(ctx).Save(t).Error; errSave != nil {
		return
	}
	_ = s.db.WithContext(ctx).Model(m).Update("payment_status", m.PaymentStatus).Error
}

// AdminCreate creates a settled membership on a user's behalf. Duration
// strings ("6 months", "1 year", "2 years") map onto the plan types.
func (s *Service) AdminCreate(ctx context.Context, adminID, userID uint64, duration string, amount float64) (*models.Membership, *models.Transaction, error) {
	membershipType, errType := TypeForDuration(duration)
	if errType != nil {
		return nil, nil, errType
	}

	var user models.User
	if errFind := s.db.WithContext(ctx).First(&user, userID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, nil, gorm.ErrRecordNotFound
		}
		return nil, nil, errFind
	}

	return s.Purchase(ctx, userID, PurchaseInput{
		MembershipType: membershipType,
		PaymentMethod:  "admin",
		Amount:         amount,
		CreatedByID:    &adminID,
		Settled:        true,
	})
}

// Cancel sets a membership to cancelled. The end date is kept; cancellation
// is irreversible through the API surface.
func (s *Service) Cancel(ctx context.Context, membershipID, actorID uint64) error {
	var m models.Membership
	if errFind := s.db.WithContext(ctx).First(&m, membershipID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return errFind
	}
	return s.db.WithContext(ctx).Model(&m).Updates(map[string]any{
		"status":        models.MembershipStatusCancelled,
		"updated_by_id": actorID,
	}).Error
}

// AdminUpdate applies the allowlisted fields from an admin edit request and
// returns the refreshed membership. Unknown fields are dropped, not rejected.
func (s *Service) AdminUpdate(ctx context.Context, membershipID, adminID uint64, body map[string]any) (*models.Membership, error) {
	var m models.Membership
	if errFind := s.db.WithContext(ctx).First(&m, membershipID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errFind
	}

	updates := map[string]any{}
	for field, column := range adminUpdateAllowlist {
		if value, ok := body[field]; ok {
			updates[column] = value
		}
	}
	updates["updated_by_id"] = adminID

	if errUpdate := s.db.WithContext(ctx).Model(&m).Updates(updates).Error; errUpdate != nil {
		return nil, errUpdate
	}
	if errReload := s.db.WithContext(ctx).Preload("User").First(&m, membershipID).Error; errReload != nil {
		return nil, errReload
	}
	return &m, nil
}

// Delete hard-deletes a membership and cascades to its transactions.
func (s *Service) Delete(ctx context.Context, membershipID uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.Membership
		if errFind := tx.First(&m, membershipID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return errFind
		}
		if errDel := tx.Where("item_type = ? AND item_id = ?", models.ItemTypeMembership, m.ID).
			Delete(&models.Transaction{}).Error; errDel != nil {
			return errDel
		}
		return tx.Delete(&m).Error
	})
}

// Current returns the user's active membership, honouring date-derived
// expiry: a stale active row past its end date does not count.
func (s *Service) Current(ctx context.Context, userID uint64) (*models.Membership, error) {
	var m models.Membership
	errFind := s.db.WithContext(ctx).Preload("User").
		Where("user_id = ? AND status = ? AND end_date > ?", userID, models.MembershipStatusActive, time.Now().UTC()).
		First(&m).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errFind
	}
	return &m, nil
}

// isUniqueViolation reports whether an error came from a unique index.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "duplicate key")
}
