package events

import (
	"context"
	"errors"
	"sync"
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

func seedUser(t *testing.T, conn *gorm.DB, email string) models.User {
	t.Helper()
	user := models.User{
		FirstName: "Eve",
		LastName:  "Attendee",
		Email:     email,
		Password:  "hash",
		Role:      models.RoleUser,
		Active:    true,
	}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
	return user
}

func seedEvent(t *testing.T, conn *gorm.DB, organizerID uint64, mutate func(*models.Event)) models.Event {
	t.Helper()
	now := time.Now().UTC()
	event := models.Event{
		Title:        "Spring Conference",
		Description:  "Annual gathering",
		Category:     "Conference",
		StartDate:    now.AddDate(0, 0, 14),
		EndDate:      now.AddDate(0, 0, 15),
		OrganizerID:  organizerID,
		MaxAttendees: 100,
		Status:       models.EventStatusPublished,
		EventType:    "offline",
		IsPublic:     true,
	}
	if mutate != nil {
		mutate(&event)
	}
	if errCreate := conn.Create(&event).Error; errCreate != nil {
		t.Fatalf("create event: %v", errCreate)
	}
	return event
}

func TestRegisterFreeEventCompletesImmediately(t *testing.T) {
	conn := openTestDB(t)
	organizer := seedUser(t, conn, "org@example.com")
	attendee := seedUser(t, conn, "att@example.com")
	event := seedEvent(t, conn, organizer.ID, nil)
	svc := NewService(conn)

	result, errRegister := svc.Register(context.Background(), event.ID, attendee.ID)
	if errRegister != nil {
		t.Fatalf("register: %v", errRegister)
	}
	if result.PaymentRequired || result.Transaction != nil {
		t.Fatal("free event must not require payment")
	}
	if result.Registration.PaymentStatus != models.PaymentStatusCompleted {
		t.Fatalf("expected completed payment status, got %s", result.Registration.PaymentStatus)
	}

	var reloaded models.Event
	if errFind := conn.First(&reloaded, event.ID).Error; errFind != nil {
		t.Fatalf("reload event: %v", errFind)
	}
	if reloaded.CurrentAttendees != 1 {
		t.Fatalf("expected 1 attendee, got %d", reloaded.CurrentAttendees)
	}
}

func TestRegisterPaidEventCreatesPendingTransaction(t *testing.T) {
	conn := openTestDB(t)
	organizer := seedUser(t, conn, "org@example.com")
	attendee := seedUser(t, conn, "att@example.com")
	event := seedEvent(t, conn, organizer.ID, func(e *models.Event) {
		e.RegistrationFee = 25
	})
	svc := NewService(conn)

	result, errRegister := svc.Register(context.Background(), event.ID, attendee.ID)
	if errRegister != nil {
		t.Fatalf("register: %v", errRegister)
	}
	if !result.PaymentRequired || result.Transaction == nil {
		t.Fatal("paid event must create a fee transaction")
	}
	if result.Transaction.Type != models.TransactionTypeEventRegistration {
		t.Fatalf("expected event_registration type, got %s", result.Transaction.Type)
	}
	if result.Transaction.Status != models.TransactionStatusPending {
		t.Fatalf("expected pending transaction, got %s", result.Transaction.Status)
	}
	if result.Transaction.ItemType != models.ItemTypeEvent || result.Transaction.ItemID != event.ID {
		t.Fatal("transaction must reference the event")
	}
	if result.Registration.PaymentStatus != models.PaymentStatusPending {
		t.Fatalf("expected pending registration payment, got %s", result.Registration.PaymentStatus)
	}
}

func TestRegisterPreconditions(t *testing.T) {
	conn := openTestDB(t)
	organizer := seedUser(t, conn, "org@example.com")
	attendee := seedUser(t, conn, "att@example.com")
	svc := NewService(conn)

	draft := seedEvent(t, conn, organizer.ID, func(e *models.Event) {
		e.Status = models.EventStatusDraft
	})
	if _, errRegister := svc.Register(context.Background(), draft.ID, attendee.ID); !errors.Is(errRegister, ErrNotPublished) {
		t.Fatalf("expected ErrNotPublished, got %v", errRegister)
	}

	past := seedEvent(t, conn, organizer.ID, func(e *models.Event) {
		e.StartDate = time.Now().UTC().AddDate(0, 0, -1)
		e.EndDate = time.Now().UTC()
	})
	if _, errRegister := svc.Register(context.Background(), past.ID, attendee.ID); !errors.Is(errRegister, ErrEventStarted) {
		t.Fatalf("expected ErrEventStarted, got %v", errRegister)
	}

	if _, errRegister := svc.Register(context.Background(), 9999, attendee.ID); !errors.Is(errRegister, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", errRegister)
	}

	open := seedEvent(t, conn, organizer.ID, nil)
	if _, errRegister := svc.Register(context.Background(), open.ID, attendee.ID); errRegister != nil {
		t.Fatalf("register: %v", errRegister)
	}
	if _, errRegister := svc.Register(context.Background(), open.ID, attendee.ID); !errors.Is(errRegister, ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", errRegister)
	}
}

func TestConcurrentRegistrationsRespectCapacity(t *testing.T) {
	conn := openTestDB(t)
	organizer := seedUser(t, conn, "org@example.com")
	first := seedUser(t, conn, "first@example.com")
	second := seedUser(t, conn, "second@example.com")
	event := seedEvent(t, conn, organizer.ID, func(e *models.Event) {
		e.MaxAttendees = 1
	})
	svc := NewService(conn)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for _, userID := range []uint64{first.ID, second.ID} {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			_, errRegister := svc.Register(context.Background(), event.ID, id)
			results <- errRegister
		}(userID)
	}
	wg.Wait()
	close(results)

	succeeded, full := 0, 0
	for errRegister := range results {
		switch {
		case errRegister == nil:
			succeeded++
		case errors.Is(errRegister, ErrEventFull):
			full++
		default:
			t.Fatalf("unexpected register error: %v", errRegister)
		}
	}
	if succeeded != 1 || full != 1 {
		t.Fatalf("expected one success for the last seat, got %d successes and %d full", succeeded, full)
	}

	var reloaded models.Event
	if errFind := conn.First(&reloaded, event.ID).Error; errFind != nil {
		t.Fatalf("reload event: %v", errFind)
	}
	if reloaded.CurrentAttendees != 1 {
		t.Fatalf("counter overshoot: %d attendees for capacity 1", reloaded.CurrentAttendees)
	}
}

func TestUnregisterDecrementsCounter(t *testing.T) {
	conn := openTestDB(t)
	organizer := seedUser(t, conn, "org@example.com")
	attendee := seedUser(t, conn, "att@example.com")
	event := seedEvent(t, conn, organizer.ID, nil)
	svc := NewService(conn)

	if _, errRegister := svc.Register(context.Background(), event.ID, attendee.ID); errRegister != nil {
		t.Fatalf("register: %v", errRegister)
	}
	if errUnregister := svc.Unregister(context.Background(), event.ID, attendee.ID); errUnregister != nil {
		t.Fatalf("unregister: %v", errUnregister)
	}

	var reloaded models.Event
	if errFind := conn.First(&reloaded, event.ID).Error; errFind != nil {
		t.Fatalf("reload event: %v", errFind)
	}
	if reloaded.CurrentAttendees != 0 {
		t.Fatalf("expected counter back to 0, got %d", reloaded.CurrentAttendees)
	}

	if errAgain := svc.Unregister(context.Background(), event.ID, attendee.ID); !errors.Is(errAgain, ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", errAgain)
	}
}

func TestUnregisterBlockedCloseToStart(t *testing.T) {
	conn := openTestDB(t)
	organizer := seedUser(t, conn, "org@example.com")
	attendee := seedUser(t, conn, "att@example.com")
	event := seedEvent(t, conn, organizer.ID, func(e *models.Event) {
		e.StartDate = time.Now().UTC().Add(12 * time.Hour)
		e.EndDate = time.Now().UTC().Add(20 * time.Hour)
	})
	svc := NewService(conn)

	if _, errRegister := svc.Register(context.Background(), event.ID, attendee.ID); errRegister != nil {
		t.Fatalf("register: %v", errRegister)
	}
	if errUnregister := svc.Unregister(context.Background(), event.ID, attendee.ID); !errors.Is(errUnregister, ErrTooLateToUnregister) {
		t.Fatalf("expected ErrTooLateToUnregister, got %v", errUnregister)
	}
}
