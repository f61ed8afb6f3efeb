package notification

import (
	"context"

	"github.com/shopspring/decimal"
)

// Confirmation is everything a booking confirmation message needs.
type Confirmation struct {
	BookingID       int64           `json:"booking_id"`
	To              string          `json:"to"`
	CustomerName    string          `json:"customer_name"`
	CustomerPhone   string          `json:"customer_phone"`
	ServiceName     string          `json:"service_name"`
	ServiceDuration int             `json:"service_duration"`
	ServicePrice    decimal.Decimal `json:"service_price"`
	Date            string          `json:"date"`
	Time            string          `json:"time"`
	Notes           string          `json:"notes,omitempty"`
}

type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`

	// permanent marks a failure that a retry cannot fix.
	permanent bool
}

func ok(msg string) Result     { return Result{Success: true, Message: msg} }
func failed(msg string) Result { return Result{Success: false, Message: msg} }

func rejected(msg string) Result {
	return Result{Success: false, Message: msg, permanent: true}
}

// Salon is the contact block printed on every confirmation.
type Salon struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// Dispatcher delivers booking confirmations. Implementations report failure
// through Result and never return it as an error: delivery is best effort.
type Dispatcher interface {
	Send(ctx context.Context, c Confirmation) Result
	Verify(ctx context.Context) Result
}
