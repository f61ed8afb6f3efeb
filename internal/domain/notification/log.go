package notification

import (
	"context"

	"github.com/rs/zerolog/log"
)

// LogDispatcher writes confirmations to the application log. It is the
// default driver for local development.
type LogDispatcher struct {
	salon Salon
}

func NewLogDispatcher(salon Salon) *LogDispatcher {
	return &LogDispatcher{salon: salon}
}

func (d *LogDispatcher) Send(_ context.Context, c Confirmation) Result {
	log.Info().
		Int64("booking_id", c.BookingID).
		Str("to", c.To).
		Str("service", c.ServiceName).
		Str("date", c.Date).
		Str("time", c.Time).
		Str("salon", d.salon.Name).
		Msg("booking confirmation")
	return ok("Confirmation logged")
}

func (d *LogDispatcher) Verify(context.Context) Result {
	return ok("Log dispatcher ready")
}
