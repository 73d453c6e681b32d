package models

import (
	"time"

	"gorm.io/datatypes"
)

// Transaction types.
const (
	// TransactionTypeMembership records a membership purchase.
	TransactionTypeMembership = "membership"
	// TransactionTypeEventRegistration records a paid event registration.
	TransactionTypeEventRegistration = "event_registration"
	// TransactionTypeRefund records money returned to a user.
	TransactionTypeRefund = "refund"
	// TransactionTypeCancellation records a cancellation fee or adjustment.
	TransactionTypeCancellation = "cancellation"
)

// Transaction statuses.
const (
	// TransactionStatusPending means the transaction has not settled.
	TransactionStatusPending = "pending"
	// TransactionStatusCompleted means the transaction settled successfully.
	TransactionStatusCompleted = "completed"
	// TransactionStatusFailed means settlement failed.
	TransactionStatusFailed = "failed"
	// TransactionStatusCancelled means the transaction was voided before settling.
	TransactionStatusCancelled = "cancelled"
	// TransactionStatusRefunded means the settled amount was returned.
	TransactionStatusRefunded = "refunded"
)

// Related item kinds for the tagged transaction reference.
const (
	// ItemTypeMembership targets a membership row.
	ItemTypeMembership = "membership"
	// ItemTypeEvent targets an event row.
	ItemTypeEvent = "event"
)

// Transaction is an immutable-after-completion record of a financial event.
type Transaction struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	TransactionID string `gorm:"type:text;not null;uniqueIndex"` // Human-readable id, TXN<ms><token>.

	UserID uint64 `gorm:"not null;index:idx_transactions_user_created"` // Owning user.
	User   *User  `gorm:"foreignKey:UserID"`                            // Owner record.

	Type string `gorm:"type:text;not null;index"` // Financial event kind.

	ItemType string `gorm:"type:text;not null;index:idx_transactions_item"` // Tag of the related item: membership or event.
	ItemID   uint64 `gorm:"not null;index:idx_transactions_item"`           // Related item primary key.

	Amount   float64 `gorm:"type:decimal(15,2);not null"`      // Gross amount.
	Currency string  `gorm:"type:text;not null;default:'USD'"` // ISO currency code.

	Status        string `gorm:"type:text;not null;default:'pending';index"` // Settlement status.
	PaymentMethod string `gorm:"type:text;not null"`                         // How the payment was made.

	PaymentGateway       string         `gorm:"type:text"`  // External gateway name, when used.
	GatewayTransactionID string         `gorm:"type:text"`  // Gateway-side transaction reference.
	GatewayResponse      datatypes.JSON `gorm:"type:jsonb"` // Raw gateway response payload.

	Description string         `gorm:"type:text"`  // Human-readable purpose, max 500 chars at the API edge.
	Metadata    datatypes.JSON `gorm:"type:jsonb"` // Free-form structured metadata.

	TaxAmount     float64 `gorm:"not null;default:0"` // Tax added on top of the amount.
	TaxPercentage float64 `gorm:"not null;default:0"` // Tax rate used, informational.
	TaxType       string  `gorm:"type:text"`          // Tax regime label.

	DiscountAmount     float64 `gorm:"not null;default:0"` // Discount subtracted from the amount.
	DiscountPercentage float64 `gorm:"not null;default:0"` // Discount rate used, informational.
	CouponCode         string  `gorm:"type:text"`          // Applied coupon, if any.

	NetAmount float64 `gorm:"not null"` // Always amount + tax - discount; recomputed on every save.

	ProcessedAt   *time.Time ``                  // First time the status reached completed or failed.
	FailureReason string     `gorm:"type:text"` // Gateway or operator failure note.

	RefundID     string     `gorm:"type:text"` // REF<ms><token>; presence marks a processed refund.
	RefundAmount float64    ``                 // Amount returned, capped at net amount.
	RefundDate   *time.Time ``                 // When the refund was recorded.
	RefundReason string     `gorm:"type:text"` // Operator-supplied reason.
	RefundStatus string     `gorm:"type:text"` // pending, completed or failed.

	ReceiptNumber   string     `gorm:"type:text"` // RCP<yyyymmdd><token>, issued exactly once on completion.
	ReceiptURL      string     `gorm:"type:text"` // Optional hosted receipt location.
	ReceiptIssuedAt *time.Time ``                 // When the receipt was generated.

	Notes string `gorm:"type:text"` // Free-form notes, max 1000 chars at the API edge.

	CreatedByID *uint64 `` // Creating actor, when known.
	UpdatedByID *uint64 `` // Last updating actor.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index:idx_transactions_user_created"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"`                                     // Last update timestamp.
}
