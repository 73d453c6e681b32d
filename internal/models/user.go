package models

import "time"

// User roles.
const (
	// RoleUser is the default member role.
	RoleUser = "user"
	// RoleAdmin grants access to the admin API.
	RoleAdmin = "admin"
)

// User represents a registered account.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	FirstName string `gorm:"type:text;not null"`             // Given name.
	LastName  string `gorm:"type:text;not null"`             // Family name.
	Email     string `gorm:"type:text;not null;uniqueIndex"` // Unique login email.
	Password  string `gorm:"type:text;not null"`             // Bcrypt password hash.
	Phone     string `gorm:"type:text"`                      // Optional contact number.

	Role   string `gorm:"type:text;not null;default:'user'"` // Access role.
	Active bool   `gorm:"not null;default:true"`             // Whether the account can sign in.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// FullName returns the display name for lists and receipts.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
