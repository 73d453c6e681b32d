package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eventhub/eventhub-backend/internal/billing"
	"github.com/eventhub/eventhub-backend/internal/http/api"
)

// TransactionAdminHandler serves the admin transaction endpoints.
type TransactionAdminHandler struct {
	svc *billing.Service
}

// NewTransactionAdminHandler constructs a TransactionAdminHandler.
func NewTransactionAdminHandler(svc *billing.Service) *TransactionAdminHandler {
	return &TransactionAdminHandler{svc: svc}
}

// List returns transactions across all users with optional filters.
func (h *TransactionAdminHandler) List(c *gin.Context) {
	page, limit := api.ParsePagination(c)
	from, to, errRange := api.ParseDateRange(c)
	if errRange != nil {
		api.Fail(c, http.StatusBadRequest, errRange.Error())
		return
	}

	filter := billing.ListFilter{
		Type:          c.Query("type"),
		Status:        c.Query("status"),
		PaymentMethod: c.Query("paymentMethod"),
		From:          from,
		To:            to,
		Page:          page,
		Limit:         limit,
	}
	if raw := c.Query("userId"); raw != "" {
		userID, errParse := strconv.ParseUint(raw, 10, 64)
		if errParse != nil {
			api.Fail(c, http.StatusBadRequest, "invalid userId")
			return
		}
		filter.UserID = &userID
	}

	items, total, errList := h.svc.List(c.Request.Context(), filter)
	if errList != nil {
		api.Fail(c, http.StatusInternalServerError, "query failed")
		return
	}
	api.OK(c, http.StatusOK, gin.H{
		"transactions": items,
		"pagination":   api.NewPagination(page, limit, total),
	})
}

// Get returns one transaction with its owner.
func (h *TransactionAdminHandler) Get(c *gin.Context) {
	id, errID := api.ParseID(c, "id")
	if errID != nil {
		api.Fail(c, http.StatusBadRequest, errID.Error())
		return
	}
	t, errGet := h.svc.Get(c.Request.Context(), id)
	if errGet != nil {
		if errors.Is(errGet, billing.ErrNotFound) {
			api.Fail(c, http.StatusNotFound, "transaction not found")
			return
		}
		api.Fail(c, http.StatusInternalServerError, "query failed")
		return
	}
	api.OK(c, http.StatusOK, gin.H{"transaction": t})
}

// Update applies the allowlisted fields from an admin edit.
func (h *TransactionAdminHandler) Update(c *gin.Context) {
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

	t, errUpdate := h.svc.AdminUpdate(c.Request.Context(), id, getAdminID(c), body)
	if errUpdate != nil {
		if errors.Is(errUpdate, billing.ErrNotFound) {
			api.Fail(c, http.StatusNotFound, "transaction not found")
			return
		}
		api.Fail(c, http.StatusInternalServerError, "update transaction failed")
		return
	}
	api.OK(c, http.StatusOK, gin.H{"transaction": t})
}

// refundRequest defines the refund body. A missing amount refunds in full.
type refundRequest struct {
	Amount *float64 `json:"amount" binding:"omitempty,gt=0"`
	Reason string   `json:"reason" binding:"required,max=500"`
}

// Refund processes a full or partial refund for a settled transaction.
func (h *TransactionAdminHandler) Refund(c *gin.Context) {
	id, errID := api.ParseID(c, "id")
	if errID != nil {
		api.Fail(c, http.StatusBadRequest, errID.Error())
		return
	}
	var body refundRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		api.BindingError(c, errBind)
		return
	}

	result, errRefund := h.svc.Refund(c.Request.Context(), id, getAdminID(c), body.Amount, body.Reason)
	if errRefund != nil {
		switch {
		case errors.Is(errRefund, billing.ErrNotFound):
			api.Fail(c, http.StatusNotFound, "transaction not found")
		case errors.Is(errRefund, billing.ErrNotRefundable):
			api.Fail(c, http.StatusConflict, "transaction cannot be refunded")
		default:
			api.Fail(c, http.StatusInternalServerError, "refund failed")
		}
		return
	}
	api.OK(c, http.StatusOK, gin.H{
		"originalTransaction": result.Original,
		"refundTransaction":   billing.Summarize(result.Refund),
	})
}

// Stats returns aggregate transaction figures over an optional date range.
func (h *TransactionAdminHandler) Stats(c *gin.Context) {
	from, to, errRange := api.ParseDateRange(c)
	if errRange != nil {
		api.Fail(c, http.StatusBadRequest, errRange.Error())
		return
	}
	if from == nil {
		// Daily volume defaults to the last 30 days.
		cutoff := time.Now().UTC().AddDate(0, 0, -30)
		from = &cutoff
	}
	stats, errStats := h.svc.ComputeStats(c.Request.Context(), from, to)
	if errStats != nil {
		api.Fail(c, http.StatusInternalServerError, "stats failed")
		return
	}
	api.OK(c, http.StatusOK, gin.H{"stats": stats})
}

// Recent returns the newest transactions.
func (h *TransactionAdminHandler) Recent(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		if n, errParse := strconv.Atoi(raw); errParse == nil && n >= 1 && n <= 100 {
			limit = n
		}
	}
	items, errRecent := h.svc.Recent(c.Request.Context(), limit)
	if errRecent != nil {
		api.Fail(c, http.StatusInternalServerError, "query failed")
		return
	}
	api.OK(c, http.StatusOK, gin.H{"transactions": items})
}

// Pending returns the unsettled transaction backlog.
func (h *TransactionAdminHandler) Pending(c *gin.Context) {
	items, errPending := h.svc.Pending(c.Request.Context())
	if errPending != nil {
		api.Fail(c, http.StatusInternalServerError, "query failed")
		return
	}
	api.OK(c, http.StatusOK, gin.H{"transactions": items})
}
