package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventhub/eventhub-backend/internal/billing"
	"github.com/eventhub/eventhub-backend/internal/http/api"
)

// TransactionHandler serves the member-facing transaction history.
type TransactionHandler struct {
	svc *billing.Service
}

// NewTransactionHandler constructs a TransactionHandler.
func NewTransactionHandler(svc *billing.Service) *TransactionHandler {
	return &TransactionHandler{svc: svc}
}

// History lists the current user's transactions, newest first.
func (h *TransactionHandler) History(c *gin.Context) {
	page, limit := api.ParsePagination(c)
	from, to, errRange := api.ParseDateRange(c)
	if errRange != nil {
		api.Fail(c, http.StatusBadRequest, errRange.Error())
		return
	}
	userID := getUserID(c)

	items, total, errList := h.svc.List(c.Request.Context(), billing.ListFilter{
		UserID: &userID,
		Type:   c.Query("type"),
		Status: c.Query("status"),
		From:   from,
		To:     to,
		Page:   page,
		Limit:  limit,
	})
	if errList != nil {
		api.Fail(c, http.StatusInternalServerError, "query failed")
		return
	}

	summaries := make([]billing.Summary, 0, len(items))
	for i := range items {
		summaries = append(summaries, billing.Summarize(&items[i]))
	}
	api.OK(c, http.StatusOK, gin.H{
		"transactions": summaries,
		"pagination":   api.NewPagination(page, limit, total),
	})
}

// Get returns one of the current user's transactions by TXN reference.
func (h *TransactionHandler) Get(c *gin.Context) {
	t, errGet := h.svc.GetByReference(c.Request.Context(), c.Param("ref"))
	if errGet != nil {
		if errors.Is(errGet, billing.ErrNotFound) {
			api.Fail(c, http.StatusNotFound, "transaction not found")
			return
		}
		api.Fail(c, http.StatusInternalServerError, "query failed")
		return
	}
	if t.UserID != getUserID(c) {
		api.Fail(c, http.StatusForbidden, "not your transaction")
		return
	}
	api.OK(c, http.StatusOK, gin.H{"transaction": t})
}
