package booking

import (
	"context"
	"time"

	"salonbook/internal/domain/catalog"
	"salonbook/internal/domain/notification"
	"salonbook/internal/domain/security"
	"salonbook/internal/domain/session"
)

type SessionStore interface {
	ResolveOrCreate(ctx context.Context, id, clientIP, userAgent string) (*session.Session, error)
	ClaimBookingAttempt(ctx context.Context, id string, observedCount int) (bool, error)
	MarkSuspicious(ctx context.Context, id string, block time.Duration) error
}

type BookingStore interface {
	IsSlotAvailable(ctx context.Context, date, hhmm string) (bool, error)
	Create(ctx context.Context, b *Booking) error
}

type ServiceLookup interface {
	GetByID(ctx context.Context, id int64) (*catalog.Service, error)
}

type EventWriter interface {
	Write(ctx context.Context, e security.Event)
}

// Notifier hands a confirmation off without waiting for delivery; done is
// called once with the outcome.
type Notifier interface {
	Dispatch(c notification.Confirmation, done func(notification.Result))
}

// Feed receives booking activity for connected admin dashboards.
type Feed interface {
	Broadcast(kind string, payload any)
}

const (
	FeedBookingCreated       = "booking_created"
	FeedBookingStatusChanged = "booking_status_changed"
	FeedBookingDeleted       = "booking_deleted"
	FeedSessionFlagged       = "session_flagged"
)
