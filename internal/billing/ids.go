package billing

import (
	"fmt"
	"time"

	"github.com/eventhub/eventhub-backend/internal/security"
)

// NewTransactionID returns a unique human-readable transaction reference,
// TXN followed by the millisecond timestamp and a 6-char random token.
func NewTransactionID(now time.Time) string {
	return fmt.Sprintf("TXN%d%s", now.UnixMilli(), security.RandomUpperToken(6))
}

// NewReceiptNumber returns a receipt reference, RCP followed by the
// YYYYMMDD date and a 4-char random token.
func NewReceiptNumber(now time.Time) string {
	return fmt.Sprintf("RCP%s%s", now.UTC().Format("20060102"), security.RandomUpperToken(4))
}

// NewRefundID returns a refund reference, REF followed by the millisecond
// timestamp and a 4-char random token.
func NewRefundID(now time.Time) string {
	return fmt.Sprintf("REF%d%s", now.UnixMilli(), security.RandomUpperToken(4))
}
