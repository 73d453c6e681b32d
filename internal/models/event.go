package models

import (
	"time"

	"gorm.io/datatypes"
)

// Event statuses.
const (
	// EventStatusDraft marks an event not yet visible to members.
	EventStatusDraft = "draft"
	// EventStatusPublished marks an event open for registration.
	EventStatusPublished = "published"
	// EventStatusCancelled marks a called-off event.
	EventStatusCancelled = "cancelled"
	// EventStatusCompleted marks a finished event.
	EventStatusCompleted = "completed"
)

// Attendance statuses for event registrations.
const (
	// AttendanceRegistered means the user signed up but the event has not run.
	AttendanceRegistered = "registered"
	// AttendanceAttended means the user showed up.
	AttendanceAttended = "attended"
	// AttendanceAbsent means the user did not show up.
	AttendanceAbsent = "absent"
)

// EventCategories lists the recognized event categories.
var EventCategories = []string{
	"Conference", "Workshop", "Seminar", "Networking",
	"Training", "Social", "Sports", "Cultural", "Other",
}

// Event is a scheduled gathering members can register for.
type Event struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Title       string `gorm:"type:text;not null"`       // Display title, max 200 chars at the API edge.
	Description string `gorm:"type:text;not null"`       // Long description, max 2000 chars at the API edge.
	Category    string `gorm:"type:text;not null;index"` // One of EventCategories.

	StartDate time.Time `gorm:"not null;index"` // Event start.
	EndDate   time.Time `gorm:"not null"`       // Event end, never before start.
	StartTime string    `gorm:"type:text"`      // Display start time, e.g. "09:00".
	EndTime   string    `gorm:"type:text"`      // Display end time.

	VenueName    string `gorm:"type:text"` // Venue display name.
	VenueCity    string `gorm:"type:text"` // Venue city, used by location filters.
	VenueAddress string `gorm:"type:text"` // Street address.

	OrganizerID uint64 `gorm:"not null;index"`         // User who owns the event.
	Organizer   *User  `gorm:"foreignKey:OrganizerID"` // Organizer record.

	RegistrationFee  float64 `gorm:"not null;default:0"` // Fee per attendee; 0 means free.
	MaxAttendees     int     `gorm:"not null"`           // Capacity ceiling.
	CurrentAttendees int     `gorm:"not null;default:0"` // Maintained by paired increment/decrement with registrations.

	Status    string `gorm:"type:text;not null;default:'draft';index"` // Lifecycle status.
	EventType string `gorm:"type:text;not null;default:'offline'"`     // online, offline or hybrid.
	IsPublic  bool   `gorm:"not null;default:true"`                    // Whether unauthenticated users may see it.

	Tags datatypes.JSON `gorm:"type:jsonb"` // Search tags.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// IsFull reports whether the event reached capacity.
func (e *Event) IsFull() bool {
	return e.CurrentAttendees >= e.MaxAttendees
}

// EventRegistration links a user to an event they signed up for.
type EventRegistration struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	EventID uint64 `gorm:"not null;uniqueIndex:idx_event_registrations_event_user"` // Registered event.
	Event   *Event `gorm:"foreignKey:EventID"`                                      // Event record.

	UserID uint64 `gorm:"not null;uniqueIndex:idx_event_registrations_event_user"` // Registered user.
	User   *User  `gorm:"foreignKey:UserID"`                                       // User record.

	RegistrationDate time.Time `gorm:"not null"`                                  // When the user signed up.
	PaymentStatus    string    `gorm:"type:text;not null;default:'pending'"`      // pending, completed or failed.
	AttendanceStatus string    `gorm:"type:text;not null;default:'registered'"` // registered, attended or absent.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
