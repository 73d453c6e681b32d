package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/eventhub/eventhub-backend/internal/billing"
	"github.com/eventhub/eventhub-backend/internal/db"
	"github.com/eventhub/eventhub-backend/internal/events"
	"github.com/eventhub/eventhub-backend/internal/http/api"
	"github.com/eventhub/eventhub-backend/internal/models"
)

// EventHandler serves event browsing, management and registration.
type EventHandler struct {
	db  *gorm.DB
	svc *events.Service
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(conn *gorm.DB, svc *events.Service) *EventHandler {
	return &EventHandler{db: conn, svc: svc}
}

// List returns published public events with optional filters.
func (h *EventHandler) List(c *gin.Context) {
	page, limit := api.ParsePagination(c)

	q := h.db.WithContext(c.Request.Context()).Model(&models.Event{}).
		Where("status = ? AND is_public = ?", models.EventStatusPublished, true)
	if category := c.Query("category"); category != "" {
		q = q.Where("category = ?", category)
	}
	if city := c.Query("city"); city != "" {
		q = q.Where("venue_city = ?", city)
	}
	if eventType := c.Query("type"); eventType != "" {
		q = q.Where("event_type = ?", eventType)
	}
	if search := c.Query("search"); search != "" {
		pattern := db.NormalizeLikePattern(h.db, "%"+search+"%")
		q = q.Where(db.CaseInsensitiveLikeExpr(h.db, "title"), pattern)
	}
	if c.Query("upcoming") == "true" {
		q = q.Where("start_date > ?", time.Now().UTC())
	}
	from, to, errRange := api.ParseDateRange(c)
	if errRange != nil {
		api.Fail(c, http.StatusBadRequest, errRange.Error())
		return
	}
	if from != nil {
		q = q.Where("start_date >= ?", *from)
	}
	if to != nil {
		q = q.Where("start_date <= ?", *to)
	}

	var total int64
	if errCount := q.Count(&total).Error; errCount != nil {
		api.Fail(c, http.StatusInternalServerError, "query failed")
		return
	}
	var items []models.Event
	if errFind := q.Order("start_date ASC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&items).Error; errFind != nil {
		api.Fail(c, http.StatusInternalServerError, "query failed")
		return
	}
	api.OK(c, http.StatusOK, gin.H{
		"events":     items,
		"pagination": api.NewPagination(page, limit, total),
	})
}

// Get returns one event with its organizer.
func (h *EventHandler) Get(c *gin.Context) {
	id, errID := api.ParseID(c, "id")
	if errID != nil {
		api.Fail(c, http.StatusBadRequest, errID.Error())
		return
	}
	var event models.Event
	if errFind := h.db.WithContext(c.Request.Context()).Preload("Organizer").
		First(&event, id).Error; errFind != nil {
		api.Fail(c, http.StatusNotFound, "event not found")
		return
	}
	api.OK(c, http.StatusOK, gin.H{"event": event})
}

// eventRequest defines the body for creating or updating an event.
type eventRequest struct {
	Title           string   `json:"title" binding:"required,max=200"`
	Description     string   `json:"description" binding:"required,max=2000"`
	Category        string   `json:"category" binding:"required"`
	StartDate       string   `json:"startDate" binding:"required"`
	EndDate         string   `json:"endDate" binding:"required"`
	StartTime       string   `json:"startTime" binding:"omitempty,max=10"`
	EndTime         string   `json:"endTime" binding:"omitempty,max=10"`
	VenueName       string   `json:"venueName" binding:"omitempty,max=200"`
	VenueCity       string   `json:"venueCity" binding:"omitempty,max=100"`
	VenueAddress    string   `json:"venueAddress" binding:"omitempty,max=300"`
	RegistrationFee float64  `json:"registrationFee" binding:"gte=0"`
	MaxAttendees    int      `json:"maxAttendees" binding:"required,gt=0"`
	EventType       string   `json:"eventType" binding:"omitempty,oneof=online offline hybrid"`
	IsPublic        *bool    `json:"isPublic"`
	Tags            []string `json:"tags" binding:"omitempty,max=10"`
}

// apply copies the validated body onto an event record.
func (r eventRequest) apply(event *models.Event) error {
	start, errStart := time.Parse(time.RFC3339, r.StartDate)
	if errStart != nil {
		return errors.New("startDate must be RFC 3339")
	}
	end, errEnd := time.Parse(time.RFC3339, r.EndDate)
	if errEnd != nil {
		return errors.New("endDate must be RFC 3339")
	}
	if end.Before(start) {
		return errors.New("endDate must not be before startDate")
	}
	if !validCategory(r.Category) {
		return errors.New("unknown category")
	}

	event.Title = r.Title
	event.Description = r.Description
	event.Category = r.Category
	event.StartDate = start
	event.EndDate = end
	event.StartTime = r.StartTime
	event.EndTime = r.EndTime
	event.VenueName = r.VenueName
	event.VenueCity = r.VenueCity
	event.VenueAddress = r.VenueAddress
	event.RegistrationFee = r.RegistrationFee
	event.MaxAttendees = r.MaxAttendees
	if r.EventType != "" {
		event.EventType = r.EventType
	}
	if r.IsPublic != nil {
		event.IsPublic = *r.IsPublic
	}
	if len(r.Tags) > 0 {
		raw, _ := json.Marshal(r.Tags)
		event.Tags = raw
	}
	return nil
}

// validCategory reports whether the category is one of the known set.
func validCategory(category string) bool {
	for _, known := range models.EventCategories {
		if category == known {
			return true
		}
	}
	return false
}

// Create adds a draft event owned by the current user.
func (h *EventHandler) Create(c *gin.Context) {
	var body eventRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		api.BindingError(c, errBind)
		return
	}

	event := models.Event{
		OrganizerID: getUserID(c),
		Status:      models.EventStatusDraft,
		EventType:   "offline",
		IsPublic:    true,
	}
	if errApply := body.apply(&event); errApply != nil {
		api.Fail(c, http.StatusBadRequest, errApply.Error())
		return
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&event).Error; errCreate != nil {
		api.Fail(c, http.StatusInternalServerError, "create event failed")
		return
	}
	api.OK(c, http.StatusCreated, gin.H{"event": event})
}

// loadOwnedEvent fetches an event the current user may manage.
func (h *EventHandler) loadOwnedEvent(c *gin.Context) (*models.Event, bool) {
	id, errID := api.ParseID(c, "id")
	if errID != nil {
		api.Fail(c, http.StatusBadRequest, errID.Error())
		return nil, false
	}
	var event models.Event
	if errFind := h.db.WithContext(c.Request.Context()).First(&event, id).Error; errFind != nil {
		api.Fail(c, http.StatusNotFound, "event not found")
		return nil, false
	}
	if event.OrganizerID != getUserID(c) && c.GetString("userRole") != models.RoleAdmin {
		api.Fail(c, http.StatusForbidden, "not your event")
		return nil, false
	}
	return &event, true
}

// Update edits an event owned by the current user.
func (h *EventHandler) Update(c *gin.Context) {
	event, ok := h.loadOwnedEvent(c)
	if !ok {
		return
	}
	if (event.Status == models.EventStatusCompleted || event.Status == models.EventStatusCancelled) &&
		c.GetString("userRole") != models.RoleAdmin {
		api.Fail(c, http.StatusConflict, "completed or cancelled events cannot be edited")
		return
	}
	var body eventRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		api.BindingError(c, errBind)
		return
	}
	if errApply := body.apply(event); errApply != nil {
		api.Fail(c, http.StatusBadRequest, errApply.Error())
		return
	}
	if event.MaxAttendees < event.CurrentAttendees {
		api.Fail(c, http.StatusConflict, "maxAttendees cannot drop below current registrations")
		return
	}
	if errSave := h.db.WithContext(c.Request.Context()).Save(event).Error; errSave != nil {
		api.Fail(c, http.StatusInternalServerError, "update event failed")
		return
	}
	api.OK(c, http.StatusOK, gin.H{"event": event})
}

// Publish moves a draft event to published.
func (h *EventHandler) Publish(c *gin.Context) {
	event, ok := h.loadOwnedEvent(c)
	if !ok {
		return
	}
	if event.Status != models.EventStatusDraft {
		api.Fail(c, http.StatusConflict, "only draft events can be published")
		return
	}
	if errSave := h.db.WithContext(c.Request.Context()).Model(event).
		Update("status", models.EventStatusPublished).Error; errSave != nil {
		api.Fail(c, http.StatusInternalServerError, "publish failed")
		return
	}
	api.OK(c, http.StatusOK, gin.H{"message": "event published"})
}

// Delete removes an event with no registrations.
func (h *EventHandler) Delete(c *gin.Context) {
	event, ok := h.loadOwnedEvent(c)
	if !ok {
		return
	}
	if event.CurrentAttendees > 0 && c.GetString("userRole") != models.RoleAdmin {
		api.Fail(c, http.StatusConflict, "cannot delete an event with registrations")
		return
	}
	if errDel := h.db.WithContext(c.Request.Context()).Delete(event).Error; errDel != nil {
		api.Fail(c, http.StatusInternalServerError, "delete event failed")
		return
	}
	api.OK(c, http.StatusOK, gin.H{"message": "event deleted"})
}

// Register signs the current user up for an event.
func (h *EventHandler) Register(c *gin.Context) {
	id, errID := api.ParseID(c, "id")
	if errID != nil {
		api.Fail(c, http.StatusBadRequest, errID.Error())
		return
	}

	result, errRegister := h.svc.Register(c.Request.Context(), id, getUserID(c))
	if errRegister != nil {
		switch {
		case errors.Is(errRegister, events.ErrNotFound):
			api.Fail(c, http.StatusNotFound, "event not found")
		case errors.Is(errRegister, events.ErrNotPublished),
			errors.Is(errRegister, events.ErrEventStarted):
			api.Fail(c, http.StatusBadRequest, errRegister.Error())
		case errors.Is(errRegister, events.ErrEventFull),
			errors.Is(errRegister, events.ErrAlreadyRegistered):
			api.Fail(c, http.StatusConflict, errRegister.Error())
		default:
			api.Fail(c, http.StatusInternalServerError, "registration failed")
		}
		return
	}

	payload := gin.H{
		"registration":    result.Registration,
		"paymentRequired": result.PaymentRequired,
	}
	if result.Transaction != nil {
		payload["transaction"] = billing.Summarize(result.Transaction)
	}
	api.OK(c, http.StatusCreated, payload)
}

// Unregister removes the current user's registration.
func (h *EventHandler) Unregister(c *gin.Context) {
	id, errID := api.ParseID(c, "id")
	if errID != nil {
		api.Fail(c, http.StatusBadRequest, errID.Error())
		return
	}

	errUnregister := h.svc.Unregister(c.Request.Context(), id, getUserID(c))
	if errUnregister != nil {
		switch {
		case errors.Is(errUnregister, events.ErrNotFound):
			api.Fail(c, http.StatusNotFound, "event not found")
		case errors.Is(errUnregister, events.ErrNotRegistered):
			api.Fail(c, http.StatusConflict, "not registered for this event")
		case errors.Is(errUnregister, events.ErrTooLateToUnregister):
			api.Fail(c, http.StatusBadRequest, errUnregister.Error())
		default:
			api.Fail(c, http.StatusInternalServerError, "unregister failed")
		}
		return
	}
	api.OK(c, http.StatusOK, gin.H{"message": "registration removed"})
}

// Mine lists events the current user registered for.
func (h *EventHandler) Mine(c *gin.Context) {
	page, limit := api.ParsePagination(c)
	userID := getUserID(c)

	q := h.db.WithContext(c.Request.Context()).Model(&models.EventRegistration{}).
		Where("user_id = ?", userID)

	var total int64
	if errCount := q.Count(&total).Error; errCount != nil {
		api.Fail(c, http.StatusInternalServerError, "query failed")
		return
	}
	var items []models.EventRegistration
	if errFind := q.Preload("Event").Order("registration_date DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&items).Error; errFind != nil {
		api.Fail(c, http.StatusInternalServerError, "query failed")
		return
	}
	api.OK(c, http.StatusOK, gin.H{
		"registrations": items,
		"pagination":    api.NewPagination(page, limit, total),
	})
}
