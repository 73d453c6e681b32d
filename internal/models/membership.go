package models

import (
	"math"
	"time"

	"gorm.io/datatypes"
)

// Membership statuses.
const (
	// MembershipStatusActive marks a currently valid membership.
	MembershipStatusActive = "active"
	// MembershipStatusExpired marks a membership past its end date.
	MembershipStatusExpired = "expired"
	// MembershipStatusCancelled marks a membership cancelled by the owner or an admin.
	MembershipStatusCancelled = "cancelled"
	// MembershipStatusSuspended marks a membership suspended by an admin.
	MembershipStatusSuspended = "suspended"
)

// Payment statuses shared by memberships and event registrations.
const (
	// PaymentStatusPending means payment has not been captured yet.
	PaymentStatusPending = "pending"
	// PaymentStatusCompleted means payment was captured.
	PaymentStatusCompleted = "completed"
	// PaymentStatusFailed means payment capture failed.
	PaymentStatusFailed = "failed"
	// PaymentStatusRefunded means the payment was returned.
	PaymentStatusRefunded = "refunded"
)

// Membership is a time-bounded paid access grant owned by a user.
type Membership struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index:idx_memberships_user_status"` // Owning user.
	User   *User  `gorm:"foreignKey:UserID"`                          // Owner record.

	MembershipType string    `gorm:"type:text;not null;index"` // Plan type: 6months, 1year, 2years.
	StartDate      time.Time `gorm:"not null"`                 // Access window start.
	EndDate        time.Time `gorm:"not null;index"`           // Derived access window end.
	RenewalDate    time.Time ``                                // Derived reminder date, 30 days before end.

	Status        string `gorm:"type:text;not null;default:'active';index:idx_memberships_user_status"` // Lifecycle status.
	PaymentStatus string `gorm:"type:text;not null;default:'pending'"`                                  // Payment capture status.

	Amount        float64 `gorm:"type:decimal(15,2);not null"`          // Charged amount, defaulted by plan.
	PaymentMethod string  `gorm:"type:text;not null;default:'card'"`    // How the purchase was paid.
	TransactionID string  `gorm:"type:text;index"`                      // Back-reference to the paired transaction.
	Benefits      datatypes.JSON `gorm:"type:jsonb"`                    // Benefit snapshot taken at creation.

	DiscountPercentage float64 `gorm:"not null;default:0"`     // Admin-granted discount, 0..100.
	AutoRenewal        bool    `gorm:"not null;default:false"` // Renewal reminder opt-in.
	Notes              string  `gorm:"type:text"`              // Free-form notes, max 500 chars at the API edge.

	CreatedByID *uint64 `gorm:"index"` // Creating actor, when known.
	UpdatedByID *uint64 ``            // Last updating actor.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// IsActive reports whether the membership grants access at the given instant.
// The stored status alone is not authoritative: a date-expired row is inactive
// even while its status still reads active.
func (m *Membership) IsActive(now time.Time) bool {
	return m.Status == MembershipStatusActive && m.EndDate.After(now)
}

// IsExpiringSoon reports whether the membership ends within the next 30 days.
func (m *Membership) IsExpiringSoon(now time.Time) bool {
	return m.EndDate.After(now) && !m.EndDate.After(now.AddDate(0, 0, 30))
}

// RemainingDays returns the whole days until expiry, rounded up, clamped to 0.
func (m *Membership) RemainingDays(now time.Time) int {
	if !m.EndDate.After(now) {
		return 0
	}
	return ceilDays(m.EndDate.Sub(now))
}

// DurationDays returns the whole days covered by the access window, rounded up.
func (m *Membership) DurationDays() int {
	return ceilDays(m.EndDate.Sub(m.StartDate))
}

// ceilDays converts a duration to whole days, rounding up.
func ceilDays(d time.Duration) int {
	if d < 0 {
		d = -d
	}
	return int(math.Ceil(d.Hours() / 24))
}
