package booking

import (
	"time"

	"github.com/shopspring/decimal"

	"salonbook/internal/domain/catalog"
)

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Booking is one appointment. At most one non-cancelled booking may hold a
// given (appointment_date, appointment_time) pair; ActiveSlotIndexDDL is the
// store-level guarantee of that.
type Booking struct {
	ID              int64     `json:"id" gorm:"primaryKey"`
	CustomerName    string    `json:"customer_name" gorm:"size:100;not null"`
	CustomerPhone   string    `json:"customer_phone" gorm:"size:32;not null"`
	CustomerEmail   *string   `json:"customer_email,omitempty" gorm:"size:255"`
	ServiceID       int64     `json:"service_id" gorm:"not null;index"`
	AppointmentDate string    `json:"appointment_date" gorm:"size:10;not null;index"`
	AppointmentTime string    `json:"appointment_time" gorm:"size:5;not null"`
	Status          Status    `json:"status" gorm:"size:16;not null;default:'confirmed'"`
	Notes           *string   `json:"notes,omitempty" gorm:"type:text"`
	SessionID       string    `json:"session_id" gorm:"size:64;index"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	Service *catalog.Service `json:"-" gorm:"foreignKey:ServiceID"`
}

func (Booking) TableName() string { return "bookings" }

// ActiveSlotIndexDDL enforces slot uniqueness among non-cancelled bookings.
// The statement is valid on both PostgreSQL and SQLite.
const ActiveSlotIndexDDL = `CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_active_slot
ON bookings (appointment_date, appointment_time)
WHERE status <> 'cancelled'`

// Slot is an occupied (date, time) pair.
type Slot struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// Details is a booking joined with its localized service.
type Details struct {
	Booking
	ServiceName     string          `json:"service_name"`
	ServiceDuration int             `json:"service_duration"`
	ServicePrice    decimal.Decimal `json:"service_price"`
}

func detailsOf(b *Booking, lang string) Details {
	d := Details{Booking: *b}
	if b.Service != nil {
		d.ServiceName = b.Service.LocalizedName(lang)
		d.ServiceDuration = b.Service.Duration
		d.ServicePrice = b.Service.Price
	}
	return d
}
