package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/eventhub/eventhub-backend/internal/models"
)

// Migrate creates or updates the schema for all models.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	if errAuto := conn.AutoMigrate(
		&models.User{},
		&models.Membership{},
		&models.Transaction{},
		&models.Event{},
		&models.EventRegistration{},
	); errAuto != nil {
		return fmt.Errorf("db: auto migrate: %w", errAuto)
	}
	return applyIndexes(conn)
}

// applyIndexes creates indexes AutoMigrate cannot express.
// The partial unique index guarantees at most one active membership per user
// even under concurrent purchases.
func applyIndexes(conn *gorm.DB) error {
	stmts := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_memberships_one_active " +
			"ON memberships (user_id) WHERE status = 'active'",
	}
	for _, stmt := range stmts {
		if errExec := conn.Exec(stmt).Error; errExec != nil {
			return fmt.Errorf("db: create index: %w", errExec)
		}
	}
	return nil
}
