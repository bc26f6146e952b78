package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds critical database constraints for concurrency control
func MigrateConstraints(db *gorm.DB) error {
	// Two approved passes must never share a slot for the same place and day.
	err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS unique_slot_per_place_day
		ON passes (place_id, visit_date, slot_number)
		WHERE slot_number > 0 AND status IN ('PENDING', 'APPROVED');
	`).Error
	if err != nil {
		return err
	}

	// Capacity counting scans active passes per place and day.
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_passes_place_visit_status
		ON passes (place_id, visit_date, status);
	`).Error
	if err != nil {
		return err
	}

	// Settlement loads passes by booking.
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_passes_booking_id
		ON passes (booking_id);
	`).Error
	if err != nil {
		return err
	}

	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_visitor_id
		ON bookings (visitor_id);
	`).Error
	if err != nil {
		return err
	}

	return nil
}
