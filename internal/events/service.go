package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/eventhub/eventhub-backend/internal/billing"
	"github.com/eventhub/eventhub-backend/internal/models"
)

// Domain precondition errors for event registration.
var (
	// ErrNotFound signals the referenced event does not exist.
	ErrNotFound = errors.New("event not found")
	// ErrNotPublished rejects registration on draft, cancelled or completed events.
	ErrNotPublished = errors.New("event is not available for registration")
	// ErrEventStarted rejects registration for events already begun.
	ErrEventStarted = errors.New("cannot register for past events")
	// ErrEventFull rejects registration once capacity is reached.
	ErrEventFull = errors.New("event is full")
	// ErrAlreadyRegistered rejects a second registration by the same user.
	ErrAlreadyRegistered = errors.New("user is already registered for this event")
	// ErrNotRegistered rejects unregistration when no registration exists.
	ErrNotRegistered = errors.New("user is not registered for this event")
	// ErrTooLateToUnregister blocks unregistration within 24 hours of the start.
	ErrTooLateToUnregister = errors.New("cannot unregister less than 24 hours before the event")
)

// Service handles event registration with capacity enforcement.
type Service struct {
	db *gorm.DB
}

// NewService wires the event registration service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// RegisterResult reports the outcome of a registration.
type RegisterResult struct {
	Registration    *models.EventRegistration // The created registration row.
	Transaction     *models.Transaction       // Pending fee transaction, nil for free events.
	PaymentRequired bool                      // Whether a fee remains to be paid.
}

// Register signs a user up for an event.
//
// Capacity is enforced with a conditional increment: the attendee counter only
// moves when it is still below the ceiling, so two concurrent registrations
// for the last seat cannot both succeed. The unique (event, user) index
// backstops double registration the same way.
func (s *Service) Register(ctx context.Context, eventID, userID uint64) (*RegisterResult, error) {
	now := time.Now().UTC()
	result := &RegisterResult{}

	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if errFind := tx.First(&event, eventID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return errFind
		}

		if event.Status != models.EventStatusPublished {
			return ErrNotPublished
		}
		if event.StartDate.Before(now) {
			return ErrEventStarted
		}

		var count int64
		if errCount := tx.Model(&models.EventRegistration{}).
			Where("event_id = ? AND user_id = ?", eventID, userID).
			Count(&count).Error; errCount != nil {
			return errCount
		}
		if count > 0 {
			return ErrAlreadyRegistered
		}

		res := tx.Model(&models.Event{}).
			Where("id = ? AND current_attendees < max_attendees", eventID).
			UpdateColumn("current_attendees", gorm.Expr("current_attendees + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrEventFull
		}

		paymentStatus := models.PaymentStatusCompleted
		if event.RegistrationFee > 0 {
			paymentStatus = models.PaymentStatusPending
		}
		reg := &models.EventRegistration{
			EventID:          eventID,
			UserID:           userID,
			RegistrationDate: now,
			PaymentStatus:    paymentStatus,
			AttendanceStatus: models.AttendanceRegistered,
		}
		if errCreate := tx.Create(reg).Error; errCreate != nil {
			return errCreate
		}
		result.Registration = reg

		if event.RegistrationFee > 0 {
			t := &models.Transaction{
				UserID:        userID,
				Type:          models.TransactionTypeEventRegistration,
				ItemType:      models.ItemTypeEvent,
				ItemID:        eventID,
				Amount:        event.RegistrationFee,
				Status:        models.TransactionStatusPending,
				PaymentMethod: "card",
				Description:   fmt.Sprintf("Registration for %s", event.Title),
			}
			billing.Normalize(t, now)
			if errCreate := tx.Create(t).Error; errCreate != nil {
				return errCreate
			}
			result.Transaction = t
			result.PaymentRequired = true
		}
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	return result, nil
}

// Unregister removes a user's registration and decrements the counter in the
// same transaction, keeping currentAttendees equal to the registration count.
func (s *Service) Unregister(ctx context.Context, eventID, userID uint64) error {
	now := time.Now().UTC()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if errFind := tx.First(&event, eventID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return errFind
		}

		if now.After(event.StartDate.AddDate(0, 0, -1)) {
			return ErrTooLateToUnregister
		}

		res := tx.Where("event_id = ? AND user_id = ?", eventID, userID).
			Delete(&models.EventRegistration{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotRegistered
		}

		return tx.Model(&models.Event{}).
			Where("id = ? AND current_attendees > 0", eventID).
			UpdateColumn("current_attendees", gorm.Expr("current_attendees - 1")).Error
	})
}
