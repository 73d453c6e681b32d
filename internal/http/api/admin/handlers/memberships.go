package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/eventhub/eventhub-backend/internal/billing"
	"github.com/eventhub/eventhub-backend/internal/http/api"
	"github.com/eventhub/eventhub-backend/internal/membership"
	"github.com/eventhub/eventhub-backend/internal/models"
	"github.com/eventhub/eventhub-backend/internal/reports"
)

// MembershipAdminHandler serves the admin membership endpoints.
type MembershipAdminHandler struct {
	db  *gorm.DB
	svc *membership.Service
}

// NewMembershipAdminHandler constructs a MembershipAdminHandler.
func NewMembershipAdminHandler(db *gorm.DB, svc *membership.Service) *MembershipAdminHandler {
	return &MembershipAdminHandler{db: db, svc: svc}
}

// List returns memberships across all users with optional filters.
func (h *MembershipAdminHandler) List(c *gin.Context) {
	page, limit := api.ParsePagination(c)

	q := h.db.WithContext(c.Request.Context()).Model(&models.Membership{})
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if membershipType := c.Query("type"); membershipType != "" {
		q = q.Where("membership_type = ?", membershipType)
	}
	if userID := c.Query("userId"); userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if paymentStatus := c.Query("paymentStatus"); paymentStatus != "" {
		q = q.Where("payment_status = ?", paymentStatus)
	}

	var total int64
	if errCount := q.Count(&total).Error; errCount != nil {
		api.Fail(c, http.StatusInternalServerError, "query failed")
		return
	}
	var items []models.Membership
	if errFind := q.Preload("User").Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&items).Error; errFind != nil {
		api.Fail(c, http.StatusInternalServerError, "query failed")
		return
	}
	api.OK(c, http.StatusOK, gin.H{
		"memberships": items,
		"pagination":  api.NewPagination(page, limit, total),
	})
}

// Stats returns aggregate membership figures.
func (h *MembershipAdminHandler) Stats(c *gin.Context) {
	stats, errStats := reports.NewService(h.db).ComputeMembershipStats(c.Request.Context())
	if errStats != nil {
		api.Fail(c, http.StatusInternalServerError, "stats failed")
		return
	}
	api.OK(c, http.StatusOK, gin.H{"stats": stats})
}

// createMembershipRequest defines the admin creation body.
type createMembershipRequest struct {
	UserID   uint64  `json:"userId" binding:"required,gt=0"`
	Duration string  `json:"duration" binding:"required,oneof='6 months' '1 year' '2 years'"`
	Amount   float64 `json:"amount" binding:"gte=0"`
}

// Create adds a settled membership on a user's behalf.
func (h *MembershipAdminHandler) Create(c *gin.Context) {
	var body createMembershipRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		api.BindingError(c, errBind)
		return
	}

	m, t, errCreate := h.svc.AdminCreate(c.Request.Context(), getAdminID(c), body.UserID, body.Duration, body.Amount)
	if errCreate != nil {
		switch {
		case errors.Is(errCreate, gorm.ErrRecordNotFound):
			api.Fail(c, http.StatusNotFound, "user not found")
		case errors.Is(errCreate, membership.ErrDuplicateActiveMembership):
			api.Fail(c, http.StatusConflict, "user already has an active membership")
		case errors.Is(errCreate, membership.ErrInvalidMembershipType):
			api.Fail(c, http.StatusBadRequest, "invalid duration")
		default:
			api.Fail(c, http.StatusInternalServerError, "create membership failed")
		}
		return
	}
	api.OK(c, http.StatusCreated, gin.H{
		"membership":  m,
		"transaction": billing.Summarize(t),
	})
}

// Update applies the allowlisted fields from an admin edit.
func (h *MembershipAdminHandler) Update(c *gin.Context) {
	id, errID := api.ParseID(c, "id")
	if errID != nil {
		api.Fail(c, http.StatusBadRequest, errID.Error())
		return
	}
	var body map[string]any
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		api.Fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	m, errUpdate := h.svc.AdminUpdate(c.Request.Context(), id, getAdminID(c), body)
	if errUpdate != nil {
		if errors.Is(errUpdate, membership.ErrNotFound) {
			api.Fail(c, http.StatusNotFound, "membership not found")
			return
		}
		api.Fail(c, http.StatusInternalServerError, "update membership failed")
		return
	}
	api.OK(c, http.StatusOK, gin.H{"membership": m})
}

// Delete removes a membership and its paired transactions.
func (h *MembershipAdminHandler) Delete(c *gin.Context) {
	id, errID := api.ParseID(c, "id")
	if errID != nil {
		api.Fail(c, http.StatusBadRequest, errID.Error())
		return
	}
	if errDel := h.svc.Delete(c.Request.Context(), id); errDel != nil {
		if errors.Is(errDel, membership.ErrNotFound) {
			api.Fail(c, http.StatusNotFound, "membership not found")
			return
		}
		api.Fail(c, http.StatusInternalServerError, "delete membership failed")
		return
	}
	api.OK(c, http.StatusOK, gin.H{"message": "membership deleted"})
}
