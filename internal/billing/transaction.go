package billing

import (
	"errors"
	"time"

	"github.com/eventhub/eventhub-backend/internal/models"
)

// ErrNotRefundable rejects refunds on transactions that are not completed,
// already refunded, or zero-amount.
var ErrNotRefundable = errors.New("transaction cannot be refunded")

// Normalize computes every derived transaction field before a write.
// It is invoked by services ahead of each save so the derivations stay
// testable without touching persistence:
//
//   - a missing transaction id is generated (caller-supplied ids survive),
//   - net amount is recomputed unconditionally,
//   - a receipt is issued exactly once when the status is completed,
//   - processedAt is stamped once when the status first settles.
func Normalize(t *models.Transaction, now time.Time) {
	if t.TransactionID == "" {
		t.TransactionID = NewTransactionID(now)
	}

	t.NetAmount = t.Amount + t.TaxAmount - t.DiscountAmount

	if t.Status == models.TransactionStatusCompleted && t.ReceiptNumber == "" {
		issued := now.UTC()
		t.ReceiptNumber = NewReceiptNumber(issued)
		t.ReceiptIssuedAt = &issued
	}

	if (t.Status == models.TransactionStatusCompleted || t.Status == models.TransactionStatusFailed) && t.ProcessedAt == nil {
		processed := now.UTC()
		t.ProcessedAt = &processed
	}
}

// CanBeRefunded reports whether a refund may be processed: the transaction
// settled, no refund was recorded before, and money actually moved.
func CanBeRefunded(t *models.Transaction) bool {
	return t.Status == models.TransactionStatusCompleted &&
		t.RefundID == "" &&
		t.Amount > 0
}

// ProcessRefund stamps refund details onto the original transaction.
// A nil requested amount refunds the full net amount; an explicit amount is
// capped at the net amount so a transaction can never be over-refunded.
// The caller persists the mutated original and creates the sibling refund
// transaction; this function touches nothing but the receiver.
func ProcessRefund(t *models.Transaction, requested *float64, reason string, now time.Time) (float64, error) {
	if !CanBeRefunded(t) {
		return 0, ErrNotRefundable
	}

	amount := t.NetAmount
	if requested != nil && *requested < amount {
		amount = *requested
	}

	refundDate := now.UTC()
	t.RefundID = NewRefundID(now)
	t.RefundAmount = amount
	t.RefundDate = &refundDate
	t.RefundReason = reason
	t.RefundStatus = models.TransactionStatusPending
	return amount, nil
}

// Summary is the read-only projection exposed in lists and receipts.
type Summary struct {
	ID            string    `json:"id"`
	Amount        float64   `json:"amount"`
	NetAmount     float64   `json:"net_amount"`
	Status        string    `json:"status"`
	Type          string    `json:"type"`
	PaymentMethod string    `json:"payment_method"`
	Date          time.Time `json:"date"`
	ReceiptNumber string    `json:"receipt_number,omitempty"`
}

// Summarize builds the summary projection for a transaction.
func Summarize(t *models.Transaction) Summary {
	return Summary{
		ID:            t.TransactionID,
		Amount:        t.Amount,
		NetAmount:     t.NetAmount,
		Status:        t.Status,
		Type:          t.Type,
		PaymentMethod: t.PaymentMethod,
		Date:          t.CreatedAt,
		ReceiptNumber: t.ReceiptNumber,
	}
}
