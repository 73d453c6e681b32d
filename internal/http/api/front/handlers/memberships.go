package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/eventhub/eventhub-backend/internal/billing"
	"github.com/eventhub/eventhub-backend/internal/http/api"
	"github.com/eventhub/eventhub-backend/internal/membership"
	"github.com/eventhub/eventhub-backend/internal/models"
)

// MembershipHandler serves the member-facing membership endpoints.
type MembershipHandler struct {
	db  *gorm.DB
	svc *membership.Service
}

// NewMembershipHandler constructs a MembershipHandler.
func NewMembershipHandler(db *gorm.DB, svc *membership.Service) *MembershipHandler {
	return &MembershipHandler{db: db, svc: svc}
}

// Pricing lists the available plans with prices and benefits.
func (h *MembershipHandler) Pricing(c *gin.Context) {
	api.OK(c, http.StatusOK, gin.H{"plans": membership.Plans()})
}

// purchaseRequest defines the body for buying a membership.
type purchaseRequest struct {
	MembershipType string `json:"membershipType" binding:"required,oneof=6months 1year 2years"`
	PaymentMethod  string `json:"paymentMethod" binding:"required,oneof=card bank_transfer cash online"`
	AutoRenewal    bool   `json:"autoRenewal"`
	Notes          string `json:"notes" binding:"omitempty,max=500"`
}

// Purchase buys a membership for the current user.
func (h *MembershipHandler) Purchase(c *gin.Context) {
	var body purchaseRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		api.BindingError(c, errBind)
		return
	}
	userID := getUserID(c)

	m, t, errPurchase := h.svc.Purchase(c.Request.Context(), userID, membership.PurchaseInput{
		MembershipType: body.MembershipType,
		PaymentMethod:  body.PaymentMethod,
		AutoRenewal:    body.AutoRenewal,
		Notes:          body.Notes,
		CreatedByID:    &userID,
	})
	if errPurchase != nil {
		switch {
		case errors.Is(errPurchase, membership.ErrDuplicateActiveMembership):
			api.Fail(c, http.StatusConflict, "user already has an active membership")
		case errors.Is(errPurchase, membership.ErrInvalidMembershipType):
			api.Fail(c, http.StatusBadRequest, "invalid membership type")
		default:
			api.Fail(c, http.StatusInternalServerError, "purchase failed")
		}
		return
	}
	api.OK(c, http.StatusCreated, gin.H{
		"membership":  m,
		"transaction": billing.Summarize(t),
	})
}

// Current returns the user's active membership.
func (h *MembershipHandler) Current(c *gin.Context) {
	m, errCurrent := h.svc.Current(c.Request.Context(), getUserID(c))
	if errCurrent != nil {
		if errors.Is(errCurrent, membership.ErrNotFound) {
			api.Fail(c, http.StatusNotFound, "no active membership")
			return
		}
		api.Fail(c, http.StatusInternalServerError, "query failed")
		return
	}
	api.OK(c, http.StatusOK, gin.H{"membership": m})
}

// History lists the user's memberships, newest first.
func (h *MembershipHandler) History(c *gin.Context) {
	page, limit := api.ParsePagination(c)
	userID := getUserID(c)

	q := h.db.WithContext(c.Request.Context()).Model(&models.Membership{}).
		Where("user_id = ?", userID)

	var total int64
	if errCount := q.Count(&total).Error; errCount != nil {
		api.Fail(c, http.StatusInternalServerError, "query failed")
		return
	}
	var items []models.Membership
	if errFind := q.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&items).Error; errFind != nil {
		api.Fail(c, http.StatusInternalServerError, "query failed")
		return
	}

	now := time.Now().UTC()
	memberships := make([]gin.H, 0, len(items))
	for i := range items {
		memberships = append(memberships, gin.H{
			"membership":    items[i],
			"isActive":      items[i].IsActive(now),
			"remainingDays": items[i].RemainingDays(now),
			"durationDays":  items[i].DurationDays(),
		})
	}
	api.OK(c, http.StatusOK, gin.H{
		"memberships": memberships,
		"pagination":  api.NewPagination(page, limit, total),
	})
}

// Cancel cancels one of the user's own memberships.
func (h *MembershipHandler) Cancel(c *gin.Context) {
	id, errID := api.ParseID(c, "id")
	if errID != nil {
		api.Fail(c, http.StatusBadRequest, errID.Error())
		return
	}
	userID := getUserID(c)

	var m models.Membership
	if errFind := h.db.WithContext(c.Request.Context()).First(&m, id).Error; errFind != nil {
		api.Fail(c, http.StatusNotFound, "membership not found")
		return
	}
	if m.UserID != userID {
		api.Fail(c, http.StatusForbidden, "not your membership")
		return
	}
	if m.Status == models.MembershipStatusCancelled {
		api.Fail(c, http.StatusConflict, "membership is already cancelled")
		return
	}

	if errCancel := h.svc.Cancel(c.Request.Context(), id, userID); errCancel != nil {
		api.Fail(c, http.StatusInternalServerError, "cancel failed")
		return
	}
	api.OK(c, http.StatusOK, gin.H{"message": "membership cancelled"})
}
