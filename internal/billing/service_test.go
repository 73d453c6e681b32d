package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	dbpkg "github.com/eventhub/eventhub-backend/internal/db"
	"github.com/eventhub/eventhub-backend/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, errOpen := dbpkg.Open(":memory:")
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := dbpkg.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	return conn
}

func seedUser(t *testing.T, conn *gorm.DB) models.User {
	t.Helper()
	user := models.User{
		FirstName: "Pat",
		LastName:  "Member",
		Email:     "pat@example.com",
		Password:  "hash",
		Role:      models.RoleUser,
		Active:    true,
	}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
	return user
}

func seedCompletedTransaction(t *testing.T, conn *gorm.DB, userID uint64, amount float64) models.Transaction {
	t.Helper()
	now := time.Now().UTC()
	tr := models.Transaction{
		UserID:        userID,
		Type:          models.TransactionTypeMembership,
		ItemType:      models.ItemTypeMembership,
		ItemID:        1,
		Amount:        amount,
		Status:        models.TransactionStatusCompleted,
		PaymentMethod: "card",
	}
	Normalize(&tr, now)
	if errCreate := conn.Create(&tr).Error; errCreate != nil {
		t.Fatalf("create transaction: %v", errCreate)
	}
	return tr
}

func TestRefundCreatesSiblingAndKeepsOriginalStatus(t *testing.T) {
	conn := openTestDB(t)
	user := seedUser(t, conn)
	original := seedCompletedTransaction(t, conn, user.ID, 100)
	svc := NewService(conn, nil)

	result, errRefund := svc.Refund(context.Background(), original.ID, user.ID, nil, "duplicate charge")
	if errRefund != nil {
		t.Fatalf("refund: %v", errRefund)
	}

	if result.Original.Status != models.TransactionStatusCompleted {
		t.Fatalf("original status must stay completed, got %s", result.Original.Status)
	}
	if result.Original.RefundID == "" || result.Original.RefundAmount != 100 {
		t.Fatalf("expected refund stamped on original, got %q %v", result.Original.RefundID, result.Original.RefundAmount)
	}
	if result.Refund.Type != models.TransactionTypeRefund {
		t.Fatalf("expected refund type, got %s", result.Refund.Type)
	}
	if result.Refund.Amount != 100 || result.Refund.NetAmount != 100 {
		t.Fatalf("expected mirrored refund amount 100, got %v net %v", result.Refund.Amount, result.Refund.NetAmount)
	}
	if !strings.HasPrefix(result.Refund.TransactionID, "TXN") ||
		result.Refund.TransactionID == result.Original.TransactionID {
		t.Fatalf("expected a fresh TXN id on the sibling, got %s", result.Refund.TransactionID)
	}
	meta := string(result.Refund.Metadata)
	if !strings.Contains(meta, result.Original.TransactionID) || !strings.Contains(meta, "duplicate charge") {
		t.Fatalf("expected metadata linking back to the original, got %s", meta)
	}

	// A second refund on the same transaction must be rejected.
	if _, errAgain := svc.Refund(context.Background(), original.ID, user.ID, nil, "again"); !errors.Is(errAgain, ErrNotRefundable) {
		t.Fatalf("expected ErrNotRefundable, got %v", errAgain)
	}
}

func TestRefundPartialAmount(t *testing.T) {
	conn := openTestDB(t)
	user := seedUser(t, conn)
	original := seedCompletedTransaction(t, conn, user.ID, 200)
	svc := NewService(conn, nil)

	requested := 50.0
	result, errRefund := svc.Refund(context.Background(), original.ID, user.ID, &requested, "partial")
	if errRefund != nil {
		t.Fatalf("refund: %v", errRefund)
	}
	if result.Original.RefundAmount != 50 {
		t.Fatalf("expected partial refund 50, got %v", result.Original.RefundAmount)
	}
	if result.Refund.Amount != 50 {
		t.Fatalf("expected sibling amount 50, got %v", result.Refund.Amount)
	}
}

func TestRefundUnknownTransaction(t *testing.T) {
	conn := openTestDB(t)
	user := seedUser(t, conn)
	svc := NewService(conn, nil)

	if _, errRefund := svc.Refund(context.Background(), 4242, user.ID, nil, "missing"); !errors.Is(errRefund, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", errRefund)
	}
}

func TestListPaginatesNewestFirst(t *testing.T) {
	conn := openTestDB(t)
	user := seedUser(t, conn)
	svc := NewService(conn, nil)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 25; i++ {
		tr := models.Transaction{
			TransactionID: fmt.Sprintf("TXN-test-%02d", i),
			UserID:        user.ID,
			Type:          models.TransactionTypeMembership,
			ItemType:      models.ItemTypeMembership,
			ItemID:        uint64(i + 1),
			Amount:        10,
			NetAmount:     10,
			Status:        models.TransactionStatusCompleted,
			PaymentMethod: "card",
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
		}
		if errCreate := conn.Create(&tr).Error; errCreate != nil {
			t.Fatalf("seed transaction %d: %v", i, errCreate)
		}
	}

	items, total, errList := svc.List(context.Background(), ListFilter{
		UserID: &user.ID,
		Page:   2,
		Limit:  10,
	})
	if errList != nil {
		t.Fatalf("list: %v", errList)
	}
	if total != 25 {
		t.Fatalf("expected total 25, got %d", total)
	}
	if len(items) != 10 {
		t.Fatalf("expected 10 items on page 2, got %d", len(items))
	}
	if items[0].TransactionID != "TXN-test-14" {
		t.Fatalf("expected newest-first ordering, page 2 starts with %s", items[0].TransactionID)
	}
}

func TestListFiltersByStatusAndType(t *testing.T) {
	conn := openTestDB(t)
	user := seedUser(t, conn)
	svc := NewService(conn, nil)

	seedCompletedTransaction(t, conn, user.ID, 100)
	pending := models.Transaction{
		TransactionID: "TXN-pending",
		UserID:        user.ID,
		Type:          models.TransactionTypeEventRegistration,
		ItemType:      models.ItemTypeEvent,
		ItemID:        1,
		Amount:        25,
		NetAmount:     25,
		Status:        models.TransactionStatusPending,
		PaymentMethod: "card",
	}
	if errCreate := conn.Create(&pending).Error; errCreate != nil {
		t.Fatalf("seed pending: %v", errCreate)
	}

	items, total, errList := svc.List(context.Background(), ListFilter{
		Status: models.TransactionStatusPending,
		Type:   models.TransactionTypeEventRegistration,
		Page:   1,
		Limit:  10,
	})
	if errList != nil {
		t.Fatalf("list: %v", errList)
	}
	if total != 1 || len(items) != 1 || items[0].TransactionID != "TXN-pending" {
		t.Fatalf("expected only the pending event transaction, got %d items", len(items))
	}
}

func TestComputeStatsSumsCompletedVolume(t *testing.T) {
	conn := openTestDB(t)
	user := seedUser(t, conn)
	svc := NewService(conn, nil)

	seedCompletedTransaction(t, conn, user.ID, 100)
	seedCompletedTransaction(t, conn, user.ID, 200)
	failed := models.Transaction{
		TransactionID: "TXN-failed",
		UserID:        user.ID,
		Type:          models.TransactionTypeMembership,
		ItemType:      models.ItemTypeMembership,
		ItemID:        3,
		Amount:        999,
		NetAmount:     999,
		Status:        models.TransactionStatusFailed,
		PaymentMethod: "card",
	}
	if errCreate := conn.Create(&failed).Error; errCreate != nil {
		t.Fatalf("seed failed: %v", errCreate)
	}

	stats, errStats := svc.ComputeStats(context.Background(), nil, nil)
	if errStats != nil {
		t.Fatalf("stats: %v", errStats)
	}
	if stats.TotalCount != 3 {
		t.Fatalf("expected 3 transactions, got %d", stats.TotalCount)
	}
	if stats.TotalVolume != 300 {
		t.Fatalf("expected completed volume 300, got %v", stats.TotalVolume)
	}
	if len(stats.ByStatus) != 2 {
		t.Fatalf("expected 2 status buckets, got %d", len(stats.ByStatus))
	}
	if len(stats.Daily) != 1 {
		t.Fatalf("expected 1 daily bucket, got %d", len(stats.Daily))
	}
}

func TestComputeStatsSubtractsRefunds(t *testing.T) {
	conn := openTestDB(t)
	user := seedUser(t, conn)
	svc := NewService(conn, nil)

	original := seedCompletedTransaction(t, conn, user.ID, 100)
	if _, errRefund := svc.Refund(context.Background(), original.ID, user.ID, nil, "order cancelled"); errRefund != nil {
		t.Fatalf("refund: %v", errRefund)
	}

	stats, errStats := svc.ComputeStats(context.Background(), nil, nil)
	if errStats != nil {
		t.Fatalf("stats: %v", errStats)
	}
	if stats.TotalVolume != 0 {
		t.Fatalf("expected the refund to cancel the volume, got %v", stats.TotalVolume)
	}
	if stats.TotalRefunded != 100 {
		t.Fatalf("expected refunded total 100, got %v", stats.TotalRefunded)
	}
}

func TestAdminUpdateSettlingIssuesReceipt(t *testing.T) {
	conn := openTestDB(t)
	user := seedUser(t, conn)
	svc := NewService(conn, nil)

	pending := models.Transaction{
		TransactionID: "TXN-settle",
		UserID:        user.ID,
		Type:          models.TransactionTypeMembership,
		ItemType:      models.ItemTypeMembership,
		ItemID:        1,
		Amount:        100,
		NetAmount:     100,
		Status:        models.TransactionStatusPending,
		PaymentMethod: "card",
	}
	if errCreate := conn.Create(&pending).Error; errCreate != nil {
		t.Fatalf("seed pending: %v", errCreate)
	}

	updated, errUpdate := svc.AdminUpdate(context.Background(), pending.ID, user.ID, map[string]any{
		"status": models.TransactionStatusCompleted,
		"amount": 5.0,
	})
	if errUpdate != nil {
		t.Fatalf("admin update: %v", errUpdate)
	}
	if updated.Status != models.TransactionStatusCompleted {
		t.Fatalf("expected completed, got %s", updated.Status)
	}
	if updated.ReceiptNumber == "" || updated.ProcessedAt == nil {
		t.Fatal("expected receipt and processedAt after settling")
	}
	if updated.Amount != 100 {
		t.Fatalf("amount must not be editable, got %v", updated.Amount)
	}
}
