package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/eventhub/eventhub-backend/internal/billing"
	"github.com/eventhub/eventhub-backend/internal/config"
	dbpkg "github.com/eventhub/eventhub-backend/internal/db"
	"github.com/eventhub/eventhub-backend/internal/events"
	"github.com/eventhub/eventhub-backend/internal/http/api/front"
	"github.com/eventhub/eventhub-backend/internal/membership"
	"github.com/eventhub/eventhub-backend/internal/models"
	"github.com/eventhub/eventhub-backend/internal/reports"
	"github.com/eventhub/eventhub-backend/internal/security"
)

var testJWT = config.JWTConfig{Secret: "test-secret", ExpiryHours: 1}

func newTestServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	conn, errOpen := dbpkg.Open(":memory:")
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := dbpkg.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}

	engine := gin.New()
	front.RegisterFrontRoutes(engine, conn, testJWT, front.Services{
		Memberships:  membership.NewService(conn, nil),
		Transactions: billing.NewService(conn, nil),
		Events:       events.NewService(conn),
	})
	RegisterAdminRoutes(engine, conn, testJWT, Services{
		Memberships:  membership.NewService(conn, nil),
		Transactions: billing.NewService(conn, nil),
		Reports:      reports.NewService(conn),
	})
	return engine, conn
}

func seedAccount(t *testing.T, conn *gorm.DB, email, role string) (models.User, string) {
	t.Helper()
	hash, errHash := security.HashPassword("correct-horse-battery")
	if errHash != nil {
		t.Fatalf("hash password: %v", errHash)
	}
	user := models.User{
		FirstName: "Org",
		LastName:  "Admin",
		Email:     email,
		Password:  hash,
		Role:      role,
		Active:    true,
	}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
	token, errSign := security.GenerateToken(testJWT.Secret, user.ID, user.Email, user.Role, time.Hour)
	if errSign != nil {
		t.Fatalf("sign token: %v", errSign)
	}
	return user, token
}

func doJSON(t *testing.T, engine *gin.Engine, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if errEncode := json.NewEncoder(&buf).Encode(body); errEncode != nil {
			t.Fatalf("encode body: %v", errEncode)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestAdminRoutesRejectNonAdmins(t *testing.T) {
	engine, conn := newTestServer(t)
	_, memberToken := seedAccount(t, conn, "member@example.com", models.RoleUser)

	w := doJSON(t, engine, http.MethodGet, "/api/admin/memberships", memberToken, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", w.Code)
	}

	w = doJSON(t, engine, http.MethodGet, "/api/admin/memberships", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
}

func TestAdminCreatesMembershipForUser(t *testing.T) {
	engine, conn := newTestServer(t)
	_, adminToken := seedAccount(t, conn, "admin@example.com", models.RoleAdmin)
	member, _ := seedAccount(t, conn, "member@example.com", models.RoleUser)

	w := doJSON(t, engine, http.MethodPost, "/api/admin/memberships", adminToken, gin.H{
		"userId":   member.ID,
		"duration": "1 year",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Transaction struct {
			Status        string `json:"status"`
			ReceiptNumber string `json:"receipt_number"`
		} `json:"transaction"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if resp.Transaction.Status != models.TransactionStatusCompleted {
		t.Fatalf("expected settled transaction, got %s", resp.Transaction.Status)
	}
	if resp.Transaction.ReceiptNumber == "" {
		t.Fatal("expected receipt on settled transaction")
	}
}

func TestRefundEndpoint(t *testing.T) {
	engine, conn := newTestServer(t)
	_, adminToken := seedAccount(t, conn, "admin@example.com", models.RoleAdmin)
	member, _ := seedAccount(t, conn, "member@example.com", models.RoleUser)

	w := doJSON(t, engine, http.MethodPost, "/api/admin/memberships", adminToken, gin.H{
		"userId":   member.ID,
		"duration": "6 months",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("seed membership: expected 201, got %d body=%s", w.Code, w.Body.String())
	}

	var settled models.Transaction
	if errFind := conn.Where("user_id = ?", member.ID).First(&settled).Error; errFind != nil {
		t.Fatalf("find transaction: %v", errFind)
	}

	w = doJSON(t, engine, http.MethodPost, fmt.Sprintf("/api/admin/transactions/%d/refund", settled.ID), adminToken, gin.H{
		"reason": "event cancelled",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("refund: expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		OriginalTransaction struct {
			Status       string  `json:"Status"`
			RefundID     string  `json:"RefundID"`
			RefundAmount float64 `json:"RefundAmount"`
		} `json:"originalTransaction"`
		RefundTransaction struct {
			ID     string  `json:"id"`
			Amount float64 `json:"amount"`
		} `json:"refundTransaction"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if resp.OriginalTransaction.Status != models.TransactionStatusCompleted {
		t.Fatalf("original status must stay completed, got %s", resp.OriginalTransaction.Status)
	}
	if resp.OriginalTransaction.RefundID == "" || resp.OriginalTransaction.RefundAmount != 299 {
		t.Fatalf("expected full refund stamped, got %+v", resp.OriginalTransaction)
	}
	if resp.RefundTransaction.Amount != 299 {
		t.Fatalf("expected sibling amount 299, got %v", resp.RefundTransaction.Amount)
	}
	if !strings.HasPrefix(resp.RefundTransaction.ID, "TXN") {
		t.Fatalf("expected a TXN reference on the sibling, got %s", resp.RefundTransaction.ID)
	}

	// Second refund attempt must 409.
	w = doJSON(t, engine, http.MethodPost, fmt.Sprintf("/api/admin/transactions/%d/refund", settled.ID), adminToken, gin.H{
		"reason": "again",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for double refund, got %d body=%s", w.Code, w.Body.String())
	}
}

func TestTransactionStatsEndpoint(t *testing.T) {
	engine, conn := newTestServer(t)
	_, adminToken := seedAccount(t, conn, "admin@example.com", models.RoleAdmin)
	member, _ := seedAccount(t, conn, "member@example.com", models.RoleUser)

	w := doJSON(t, engine, http.MethodPost, "/api/admin/memberships", adminToken, gin.H{
		"userId":   member.ID,
		"duration": "1 year",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("seed membership: expected 201, got %d", w.Code)
	}

	w = doJSON(t, engine, http.MethodGet, "/api/admin/transactions/stats", adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats: expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Stats struct {
			TotalCount  int64   `json:"total_count"`
			TotalVolume float64 `json:"total_volume"`
		} `json:"stats"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if resp.Stats.TotalCount != 1 || resp.Stats.TotalVolume != 499 {
		t.Fatalf("unexpected stats: %+v", resp.Stats)
	}
}

func TestAdminDeactivatesUser(t *testing.T) {
	engine, conn := newTestServer(t)
	admin, adminToken := seedAccount(t, conn, "admin@example.com", models.RoleAdmin)
	member, _ := seedAccount(t, conn, "member@example.com", models.RoleUser)

	w := doJSON(t, engine, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", member.ID), adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	var reloaded models.User
	if errFind := conn.First(&reloaded, member.ID).Error; errFind != nil {
		t.Fatalf("reload user: %v", errFind)
	}
	if reloaded.Active {
		t.Fatal("expected user deactivated, row kept")
	}

	// Self-deactivation is blocked.
	w = doJSON(t, engine, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", admin.ID), adminToken, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for self-deactivation, got %d", w.Code)
	}
}

func TestDashboardReport(t *testing.T) {
	engine, conn := newTestServer(t)
	_, adminToken := seedAccount(t, conn, "admin@example.com", models.RoleAdmin)
	member, _ := seedAccount(t, conn, "member@example.com", models.RoleUser)

	w := doJSON(t, engine, http.MethodPost, "/api/admin/memberships", adminToken, gin.H{
		"userId":   member.ID,
		"duration": "1 year",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("seed membership: expected 201, got %d", w.Code)
	}

	w = doJSON(t, engine, http.MethodGet, "/api/admin/reports/dashboard", adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("dashboard: expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Dashboard struct {
			TotalUsers        int64   `json:"total_users"`
			ActiveMemberships int64   `json:"active_memberships"`
			RevenueTotal      float64 `json:"revenue_total"`
		} `json:"dashboard"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if resp.Dashboard.TotalUsers != 2 || resp.Dashboard.ActiveMemberships != 1 {
		t.Fatalf("unexpected dashboard: %+v", resp.Dashboard)
	}
	if resp.Dashboard.RevenueTotal != 499 {
		t.Fatalf("expected revenue 499, got %v", resp.Dashboard.RevenueTotal)
	}
}
