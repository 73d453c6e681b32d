package billing

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/eventhub/eventhub-backend/internal/models"
)

func TestNormalizeGeneratesReferenceOnce(t *testing.T) {
	now := time.Now().UTC()
	tr := &models.Transaction{Amount: 100, Status: models.TransactionStatusPending}

	Normalize(tr, now)
	if !strings.HasPrefix(tr.TransactionID, "TXN") {
		t.Fatalf("unexpected reference: %s", tr.TransactionID)
	}

	ref := tr.TransactionID
	Normalize(tr, now.Add(time.Hour))
	if tr.TransactionID != ref {
		t.Fatalf("reference must be stable, got %s then %s", ref, tr.TransactionID)
	}
}

func TestNormalizeRecomputesNetAmount(t *testing.T) {
	now := time.Now().UTC()
	tr := &models.Transaction{
		Amount:         100,
		TaxAmount:      10,
		DiscountAmount: 25,
		Status:         models.TransactionStatusPending,
	}
	Normalize(tr, now)
	if tr.NetAmount != 85 {
		t.Fatalf("expected net 85, got %v", tr.NetAmount)
	}

	// Large discounts may drive the net negative; the derivation does not clamp.
	tr.DiscountAmount = 150
	Normalize(tr, now)
	if tr.NetAmount != -40 {
		t.Fatalf("expected net -40, got %v", tr.NetAmount)
	}
}

func TestNormalizeIssuesReceiptExactlyOnce(t *testing.T) {
	now := time.Now().UTC()
	tr := &models.Transaction{Amount: 100, Status: models.TransactionStatusPending}

	Normalize(tr, now)
	if tr.ReceiptNumber != "" || tr.ProcessedAt != nil {
		t.Fatal("pending transaction must have no receipt or processedAt")
	}

	tr.Status = models.TransactionStatusCompleted
	Normalize(tr, now)
	if !strings.HasPrefix(tr.ReceiptNumber, "RCP") {
		t.Fatalf("expected receipt, got %q", tr.ReceiptNumber)
	}
	if tr.ProcessedAt == nil || tr.ReceiptIssuedAt == nil {
		t.Fatal("expected processedAt and receiptIssuedAt stamped")
	}

	receipt := tr.ReceiptNumber
	processed := *tr.ProcessedAt
	Normalize(tr, now.Add(48*time.Hour))
	if tr.ReceiptNumber != receipt {
		t.Fatalf("receipt must be issued once, got %s then %s", receipt, tr.ReceiptNumber)
	}
	if !tr.ProcessedAt.Equal(processed) {
		t.Fatalf("processedAt must be stamped once, got %v then %v", processed, tr.ProcessedAt)
	}
}

func TestNormalizeStampsProcessedAtOnFailure(t *testing.T) {
	now := time.Now().UTC()
	tr := &models.Transaction{Amount: 100, Status: models.TransactionStatusFailed}
	Normalize(tr, now)
	if tr.ProcessedAt == nil {
		t.Fatal("expected processedAt on failed transaction")
	}
	if tr.ReceiptNumber != "" {
		t.Fatal("failed transaction must not carry a receipt")
	}
}

func TestCanBeRefunded(t *testing.T) {
	base := models.Transaction{Amount: 100, Status: models.TransactionStatusCompleted}
	if !CanBeRefunded(&base) {
		t.Fatal("completed unrefunded transaction must be refundable")
	}

	pending := base
	pending.Status = models.TransactionStatusPending
	if CanBeRefunded(&pending) {
		t.Fatal("pending transaction must not be refundable")
	}

	refunded := base
	refunded.RefundID = "REF123"
	if CanBeRefunded(&refunded) {
		t.Fatal("already refunded transaction must not be refundable")
	}

	free := base
	free.Amount = 0
	if CanBeRefunded(&free) {
		t.Fatal("zero-amount transaction must not be refundable")
	}
}

func TestProcessRefundCapsAtNetAmount(t *testing.T) {
	now := time.Now().UTC()

	cases := []struct {
		name      string
		requested *float64
		want      float64
	}{
		{"full refund when no amount given", nil, 100},
		{"partial refund below net", ptr(30), 30},
		{"requested above net is capped", ptr(500), 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := &models.Transaction{
				Amount:    100,
				NetAmount: 100,
				Status:    models.TransactionStatusCompleted,
			}
			got, errRefund := ProcessRefund(tr, tc.requested, "customer request", now)
			if errRefund != nil {
				t.Fatalf("process refund: %v", errRefund)
			}
			if got != tc.want {
				t.Fatalf("expected refund %v, got %v", tc.want, got)
			}
			if !strings.HasPrefix(tr.RefundID, "REF") {
				t.Fatalf("unexpected refund id: %s", tr.RefundID)
			}
			if tr.Status != models.TransactionStatusCompleted {
				t.Fatalf("refund must not change the original status, got %s", tr.Status)
			}
			if tr.RefundStatus != models.TransactionStatusPending {
				t.Fatalf("expected pending refund status, got %s", tr.RefundStatus)
			}
		})
	}
}

func TestProcessRefundRejectsUnrefundable(t *testing.T) {
	now := time.Now().UTC()
	tr := &models.Transaction{Amount: 100, Status: models.TransactionStatusPending}
	if _, errRefund := ProcessRefund(tr, nil, "nope", now); !errors.Is(errRefund, ErrNotRefundable) {
		t.Fatalf("expected ErrNotRefundable, got %v", errRefund)
	}
}

func ptr(v float64) *float64 { return &v }
