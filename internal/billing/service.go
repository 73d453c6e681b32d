package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/eventhub/eventhub-backend/internal/db"
	"github.com/eventhub/eventhub-backend/internal/gateway"
	"github.com/eventhub/eventhub-backend/internal/models"
)

// ErrNotFound signals the referenced transaction does not exist.
var ErrNotFound = errors.New("transaction not found")

// adminUpdateAllowlist restricts which fields an admin edit may touch.
var adminUpdateAllowlist = map[string]string{
	"status":               "status",
	"paymentMethod":        "payment_method",
	"gatewayTransactionId": "gateway_transaction_id",
	"description":          "description",
	"notes":                "notes",
	"failureReason":        "failure_reason",
}

// Service provides transaction queries and the refund workflow.
type Service struct {
	db *gorm.DB
	gw *gateway.Client
}

// NewService wires the transaction service. The gateway may be nil.
func NewService(conn *gorm.DB, gw *gateway.Client) *Service {
	return &Service{db: conn, gw: gw}
}

// ListFilter narrows a transaction listing.
type ListFilter struct {
	UserID        *uint64    // Restrict to one user.
	Type          string     // Transaction type, empty for all.
	Status        string     // Settlement status, empty for all.
	PaymentMethod string     // Payment method, empty for all.
	From          *time.Time // Inclusive lower bound on creation time.
	To            *time.Time // Exclusive upper bound on creation time.
	Page          int        // 1-based page.
	Limit         int        // Page size.
}

func (f ListFilter) apply(q *gorm.DB) *gorm.DB {
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.PaymentMethod != "" {
		q = q.Where("payment_method = ?", f.PaymentMethod)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}
	return q
}

// List returns a page of transactions, newest first, with the total count.
func (s *Service) List(ctx context.Context, f ListFilter) ([]models.Transaction, int64, error) {
	q := f.apply(s.db.WithContext(ctx).Model(&models.Transaction{}))

	var total int64
	if errCount := q.Count(&total).Error; errCount != nil {
		return nil, 0, errCount
	}

	var items []models.Transaction
	errFind := q.Preload("User").
		Order("created_at DESC").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&items).Error
	if errFind != nil {
		return nil, 0, errFind
	}
	return items, total, nil
}

// Get loads one transaction by primary key.
func (s *Service) Get(ctx context.Context, id uint64) (*models.Transaction, error) {
	var t models.Transaction
	errFind := s.db.WithContext(ctx).Preload("User").First(&t, id).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errFind
	}
	return &t, nil
}

// GetByReference loads one transaction by its TXN reference.
func (s *Service) GetByReference(ctx context.Context, ref string) (*models.Transaction, error) {
	var t models.Transaction
	errFind := s.db.WithContext(ctx).Preload("User").
		Where("transaction_id = ?", ref).First(&t).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errFind
	}
	return &t, nil
}

// AdminUpdate applies the allowlisted fields from an admin edit and re-runs
// the derivations so a status change to completed issues the receipt.
func (s *Service) AdminUpdate(ctx context.Context, id, adminID uint64, body map[string]any) (*models.Transaction, error) {
	now := time.Now().UTC()
	var t models.Transaction

	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errFind := tx.First(&t, id).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return errFind
		}

		for field, column := range adminUpdateAllowlist {
			value, ok := body[field]
			if !ok {
				continue
			}
			str, isStr := value.(string)
			if !isStr {
				continue
			}
			switch column {
			case "status":
				t.Status = str
			case "payment_method":
				t.PaymentMethod = str
			case "gateway_transaction_id":
				t.GatewayTransactionID = str
			case "description":
				t.Description = str
			case "notes":
				t.Notes = str
			case "failure_reason":
				t.FailureReason = str
			}
		}
		t.UpdatedByID = &adminID
		Normalize(&t, now)
		return tx.Save(&t).Error
	})
	if errTx != nil {
		return nil, errTx
	}
	return &t, nil
}

// RefundResult pairs the mutated original with the sibling refund record.
type RefundResult struct {
	Original *models.Transaction // Original transaction with refund fields stamped.
	Refund   *models.Transaction // New transaction of type refund.
}

// Refund processes a full or partial refund for a settled transaction.
//
// The original keeps its completed status; the stamped RefundID is what marks
// it refunded. A sibling refund transaction mirrors the refunded amount under
// a freshly minted TXN id, with metadata linking back to the original
// transaction id and the operator's reason. When the original settled through
// the gateway the refund is forwarded there too; a gateway failure aborts
// nothing recorded yet since it runs before the database write.
func (s *Service) Refund(ctx context.Context, id, adminID uint64, requested *float64, reason string) (*RefundResult, error) {
	now := time.Now().UTC()

	var original models.Transaction
	if errFind := s.db.WithContext(ctx).First(&original, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errFind
	}

	amount, errRefund := ProcessRefund(&original, requested, reason, now)
	if errRefund != nil {
		return nil, errRefund
	}
	original.UpdatedByID = &adminID

	var gwResult *gateway.ChargeResult
	if s.gw != nil && original.GatewayTransactionID != "" {
		var errGw error
		gwResult, errGw = s.gw.Refund(original.GatewayTransactionID, original.RefundID, amount, reason)
		if errGw != nil {
			return nil, errGw
		}
		original.RefundStatus = models.TransactionStatusCompleted
	}

	meta, _ := json.Marshal(map[string]string{
		"originalTransactionId": original.TransactionID,
		"refundReason":          reason,
	})
	refund := &models.Transaction{
		UserID:        original.UserID,
		Type:          models.TransactionTypeRefund,
		ItemType:      original.ItemType,
		ItemID:        original.ItemID,
		Amount:        amount,
		Currency:      original.Currency,
		Status:        models.TransactionStatusCompleted,
		PaymentMethod: original.PaymentMethod,
		Description:   fmt.Sprintf("Refund for %s", original.TransactionID),
		Metadata:      meta,
		Notes:         reason,
		CreatedByID:   &adminID,
	}
	if gwResult != nil {
		refund.PaymentGateway = gateway.GatewayName
		refund.GatewayTransactionID = gwResult.TransactionID
		refund.GatewayResponse = gwResult.RawResponse
	}
	Normalize(refund, now)

	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errSave := tx.Save(&original).Error; errSave != nil {
			return errSave
		}
		return tx.Create(refund).Error
	})
	if errTx != nil {
		return nil, errTx
	}
	return &RefundResult{Original: &original, Refund: refund}, nil
}

// Recent returns the newest transactions, capped at limit.
func (s *Service) Recent(ctx context.Context, limit int) ([]models.Transaction, error) {
	var items []models.Transaction
	errFind := s.db.WithContext(ctx).Preload("User").
		Order("created_at DESC").Limit(limit).Find(&items).Error
	return items, errFind
}

// Pending returns unsettled transactions, oldest first so operators work the
// backlog in order.
func (s *Service) Pending(ctx context.Context) ([]models.Transaction, error) {
	var items []models.Transaction
	errFind := s.db.WithContext(ctx).Preload("User").
		Where("status = ?", models.TransactionStatusPending).
		Order("created_at ASC").Find(&items).Error
	return items, errFind
}

// StatusCount aggregates count and volume for one status.
type StatusCount struct {
	Status string  `json:"status"`
	Count  int64   `json:"count"`
	Total  float64 `json:"total"`
}

// TypeCount aggregates count and volume for one transaction type.
type TypeCount struct {
	Type  string  `json:"type"`
	Count int64   `json:"count"`
	Total float64 `json:"total"`
}

// MethodCount aggregates count and volume for one payment method.
type MethodCount struct {
	PaymentMethod string  `json:"payment_method"`
	Count         int64   `json:"count"`
	Total         float64 `json:"total"`
}

// DailyVolume aggregates count and volume for one calendar day.
type DailyVolume struct {
	Day   string  `json:"day"`
	Count int64   `json:"count"`
	Total float64 `json:"total"`
}

// Stats is the aggregate report for the admin dashboard.
type Stats struct {
	TotalCount      int64         `json:"total_count"`
	TotalVolume     float64       `json:"total_volume"`
	TotalRefunded   float64       `json:"total_refunded"`
	ByStatus        []StatusCount `json:"by_status"`
	ByType          []TypeCount   `json:"by_type"`
	ByPaymentMethod []MethodCount `json:"by_payment_method"`
	Daily           []DailyVolume `json:"daily"`
}

// signedNetExpr flips refund rows negative so volume sums stay net of money
// returned. Refund transactions record positive amounts, mirroring what was
// given back.
const signedNetExpr = "CASE WHEN type = ? THEN -net_amount ELSE net_amount END"

// ComputeStats aggregates transaction figures over an optional date range.
// Volume sums net amounts of completed transactions, with refund rows
// subtracted.
func (s *Service) ComputeStats(ctx context.Context, from, to *time.Time) (*Stats, error) {
	base := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&models.Transaction{})
		if from != nil {
			q = q.Where("created_at >= ?", *from)
		}
		if to != nil {
			q = q.Where("created_at < ?", *to)
		}
		return q
	}

	stats := &Stats{}
	if errCount := base().Count(&stats.TotalCount).Error; errCount != nil {
		return nil, errCount
	}

	row := base().Where("status = ?", models.TransactionStatusCompleted).
		Select("COALESCE(SUM("+signedNetExpr+"), 0)", models.TransactionTypeRefund).Row()
	if errScan := row.Scan(&stats.TotalVolume); errScan != nil {
		return nil, errScan
	}

	row = base().Where("refund_id <> ''").
		Select("COALESCE(SUM(refund_amount), 0)").Row()
	if errScan := row.Scan(&stats.TotalRefunded); errScan != nil {
		return nil, errScan
	}

	if errGroup := base().
		Select("status, COUNT(*) AS count, COALESCE(SUM(net_amount), 0) AS total").
		Group("status").Order("status").
		Scan(&stats.ByStatus).Error; errGroup != nil {
		return nil, errGroup
	}

	if errGroup := base().
		Select("type, COUNT(*) AS count, COALESCE(SUM(net_amount), 0) AS total").
		Group("type").Order("type").
		Scan(&stats.ByType).Error; errGroup != nil {
		return nil, errGroup
	}

	if errGroup := base().
		Select("payment_method, COUNT(*) AS count, COALESCE(SUM(net_amount), 0) AS total").
		Group("payment_method").Order("payment_method").
		Scan(&stats.ByPaymentMethod).Error; errGroup != nil {
		return nil, errGroup
	}

	dayExpr := db.DayBucketExpr(s.db, "created_at")
	if errGroup := base().
		Select(dayExpr+" AS day, COUNT(*) AS count, COALESCE(SUM("+signedNetExpr+"), 0) AS total", models.TransactionTypeRefund).
		Group(dayExpr).Order("day").
		Scan(&stats.Daily).Error; errGroup != nil {
		return nil, errGroup
	}

	return stats, nil
}
