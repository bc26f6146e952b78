package notifications

import (
	"context"
	"fmt"

	"gatepass/internal/bookings"
	"gatepass/internal/settlement"
	"gatepass/pkg/logger"
)

// Dispatcher adapts the notification service to the notifier interfaces the
// settlement and booking layers consume. Every method is fire-and-forget:
// publish failures are logged and swallowed, settlement state stays
// authoritative regardless of delivery.
type Dispatcher struct {
	service NotificationService
}

func NewDispatcher(service NotificationService) *Dispatcher {
	return &Dispatcher{service: service}
}

// VisitorRefund implements settlement.Notifier.
func (d *Dispatcher) VisitorRefund(ctx context.Context, ev settlement.VisitorRefundEvent) {
	subject := fmt.Sprintf("Your passes for %s have been cancelled", ev.PlaceName)

	notification := NewNotificationBuilder().
		WithType(NotificationTypeVisitorRefund).
		WithRecipient(ev.VisitorID, ev.VisitorEmail, ev.VisitorName).
		WithSubject(subject).
		WithBookingContext(ev.BookingID).
		WithTemplateData(map[string]interface{}{
			"PlaceName":           ev.PlaceName,
			"CancelledPassCount":  ev.CancelledPassCount,
			"RefundAmount":        ev.RefundAmount,
			"RefundAmountDisplay": formatMinorUnits(ev.RefundAmount),
			"ProcessingEstimate":  ev.ProcessingEstimate,
			"Reason":              ev.Reason,
		}).
		Build()

	if err := d.service.SendNotification(ctx, notification); err != nil {
		logger.NotificationFailed(string(NotificationTypeVisitorRefund), ev.VisitorEmail, err)
	}
}

// HostEventCancelled implements settlement.Notifier.
func (d *Dispatcher) HostEventCancelled(ctx context.Context, ev settlement.HostEventCancelledEvent) {
	subject := fmt.Sprintf("Your event %s has been cancelled", ev.PlaceName)

	notification := NewNotificationBuilder().
		WithType(NotificationTypeHostEventCancelled).
		WithRecipient(ev.HostID, ev.HostEmail, ev.HostName).
		WithSubject(subject).
		WithPlaceContext(ev.PlaceID).
		WithTemplateData(map[string]interface{}{
			"PlaceName":          ev.PlaceName,
			"CancelledPassCount": ev.CancelledPassCount,
			"TotalRefundDisplay": formatMinorUnits(ev.TotalRefundAmount),
			"Reason":             ev.Reason,
		}).
		Build()

	if err := d.service.SendNotification(ctx, notification); err != nil {
		logger.NotificationFailed(string(NotificationTypeHostEventCancelled), ev.HostEmail, err)
	}
}

// PassesConfirmed implements bookings.Notifier.
func (d *Dispatcher) PassesConfirmed(ctx context.Context, booking *bookings.Booking, placeName string, guestEmails []string) {
	subject := fmt.Sprintf("Booking %s confirmed for %s", booking.BookingRef, placeName)

	batch := make([]*EmailNotification, 0, len(guestEmails))
	for _, email := range guestEmails {
		batch = append(batch, NewNotificationBuilder().
			WithType(NotificationTypePassConfirmed).
			WithRecipient(booking.VisitorID, email, "").
			WithSubject(subject).
			WithBookingContext(booking.ID).
			WithPlaceContext(booking.PlaceID).
			WithTemplateData(map[string]interface{}{
				"BookingRef": booking.BookingRef,
				"PlaceName":  placeName,
				"VisitDate":  booking.VisitDate.Format("Monday, 2 January 2006"),
				"GuestCount": booking.GuestCount,
			}).
			Build())
	}

	if err := d.service.SendBatchNotifications(ctx, batch); err != nil {
		logger.NotificationFailed(string(NotificationTypePassConfirmed), booking.BookingRef, err)
	}
}

// HostDisabled tells a host their account was suspended.
func (d *Dispatcher) HostDisabled(ctx context.Context, hostEmail, hostName, reason string) {
	notification := NewNotificationBuilder().
		WithType(NotificationTypeHostDisabled).
		WithSubject("Your hosting privileges have been suspended").
		WithTemplateData(map[string]interface{}{
			"Reason": reason,
		}).
		Build()
	notification.RecipientEmail = hostEmail
	notification.RecipientName = hostName

	if err := d.service.SendNotification(ctx, notification); err != nil {
		logger.NotificationFailed(string(NotificationTypeHostDisabled), hostEmail, err)
	}
}

// formatMinorUnits renders an amount in minor currency units as a decimal
// string, e.g. 123456 -> "1234.56".
func formatMinorUnits(amount int64) string {
	return fmt.Sprintf("%d.%02d", amount/100, amount%100)
}
