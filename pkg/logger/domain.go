package logger

import "log/slog"

// Package-level domain helpers on the default logger. Services call these
// directly instead of threading a logger through every constructor.

// BookingCreated logs a new booking with its pass count and total.
func BookingCreated(bookingID, placeID string, guestCount int, totalAmount int64) {
	defaultLogger.Info("Booking Created",
		slog.String("booking_id", bookingID),
		slog.String("place_id", placeID),
		slog.Int("guest_count", guestCount),
		slog.Int64("total_amount", totalAmount),
	)
}

// BookingConfirmed logs a payment confirmation.
func BookingConfirmed(bookingID, paymentStatus string, totalAmount int64) {
	defaultLogger.Info("Booking Confirmed",
		slog.String("booking_id", bookingID),
		slog.String("payment_status", paymentStatus),
		slog.Int64("total_amount", totalAmount),
	)
}

// SettlementCompleted logs the aggregate outcome of one settlement run.
func SettlementCompleted(triggerKind string, cancelled, skipped int, totalRefund int64) {
	defaultLogger.Info("Settlement Completed",
		slog.String("trigger_kind", triggerKind),
		slog.Int("cancelled_passes", cancelled),
		slog.Int("skipped_passes", skipped),
		slog.Int64("total_refund_amount", totalRefund),
	)
}

// SettlementBookingAlreadyCancelled logs a booking-level CAS loss during a
// cascade. Not an error: the booking was settled by an earlier batch.
func SettlementBookingAlreadyCancelled(bookingID string) {
	defaultLogger.Warn("Booking Already Cancelled During Settlement",
		slog.String("booking_id", bookingID),
	)
}

// PlaceCancelled logs an event-level place cancellation.
func PlaceCancelled(placeID, triggerKind string) {
	defaultLogger.Info("Place Cancelled",
		slog.String("place_id", placeID),
		slog.String("trigger_kind", triggerKind),
	)
}

// HostDisabled logs an admin host-disable action.
func HostDisabled(hostID, adminID string, placesAffected int) {
	defaultLogger.Info("Host Disabled",
		slog.String("host_id", hostID),
		slog.String("admin_id", adminID),
		slog.Int("places_affected", placesAffected),
	)
}

// PassExpirySweep logs a run of the pass expiry sweep.
func PassExpirySweep(expired int64) {
	defaultLogger.Info("Pass Expiry Sweep",
		slog.Int64("expired_passes", expired),
	)
}

// NotificationFailed logs a swallowed notification delivery failure.
func NotificationFailed(kind, recipient string, err error) {
	defaultLogger.Error("Notification Delivery Failed",
		slog.String("kind", kind),
		slog.String("recipient", recipient),
		slog.String("error", err.Error()),
	)
}
