package database

import (
	"gatepass/internal/bookings"
	"gatepass/internal/passes"
	"gatepass/internal/places"
	"gatepass/internal/users"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	// uuid_generate_v4 defaults on primary keys need the extension in place
	// before AutoMigrate creates the tables.
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return err
	}

	if err := db.AutoMigrate(
		&users.User{},
		&places.Place{},
		&bookings.Booking{},
		&passes.Pass{},
	); err != nil {
		return err
	}

	return MigrateConstraints(db)
}
