// Package schema owns the canonical table layout shared by PostgreSQL and
// SQLite deployments.
package schema

import (
	"fmt"

	"gorm.io/gorm"

	"salonbook/internal/domain/admin"
	"salonbook/internal/domain/booking"
	"salonbook/internal/domain/catalog"
	"salonbook/internal/domain/security"
	"salonbook/internal/domain/session"
)

// Models in dependency order.
func Models() []any {
	return []any{
		&catalog.Service{},
		&session.Session{},
		&booking.Booking{},
		&security.Event{},
		&admin.AdminUser{},
	}
}

// Migrate creates or updates every table and the indexes GORM tags cannot
// express.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec(booking.ActiveSlotIndexDDL).Error; err != nil {
		return fmt.Errorf("create active slot index: %w", err)
	}
	return nil
}
