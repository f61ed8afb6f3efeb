package security

import "time"

type Severity string

const (
	SeverityInfo  Severity = "INFO"
	SeverityWarn  Severity = "WARN"
	SeverityError Severity = "ERROR"
)

type EventType string

const (
	EventBookingSpam          EventType = "BOOKING_SPAM"
	EventTrollingDetected     EventType = "TROLLING_DETECTED"
	EventBookingBlocked       EventType = "BOOKING_BLOCKED"
	EventBookingCreated       EventType = "BOOKING_CREATED"
	EventBookingStatusChanged EventType = "BOOKING_STATUS_CHANGED"
	EventBookingDeleted       EventType = "BOOKING_DELETED"
	EventEmailSent            EventType = "EMAIL_SENT"
	EventLoginFailed          EventType = "LOGIN_FAILED"
	EventLoginBlocked         EventType = "LOGIN_BLOCKED"
	EventLoginSuccess         EventType = "LOGIN_SUCCESS"
	EventLoginError           EventType = "LOGIN_ERROR"
	EventAuthFailed           EventType = "AUTH_FAILED"
	EventAuthBlocked          EventType = "AUTH_BLOCKED"
)

// Event is one append-only audit record.
type Event struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	EventType EventType `json:"event_type" gorm:"size:64;not null;index"`
	SessionID *string   `json:"session_id,omitempty" gorm:"size:64;index"`
	IPAddress string    `json:"ip_address" gorm:"size:64"`
	UserAgent string    `json:"user_agent" gorm:"size:512"`
	Details   string    `json:"details" gorm:"type:text"`
	Severity  Severity  `json:"severity" gorm:"size:8;not null;default:'INFO'"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;index"`
}

func (Event) TableName() string { return "security_logs" }

// Origin identifies the client an event is about.
type Origin struct {
	SessionID string
	IPAddress string
	UserAgent string
}

// NewEvent builds an event for the given origin; an empty session id is
// stored as NULL.
func NewEvent(kind EventType, severity Severity, origin Origin, details string) Event {
	e := Event{
		EventType: kind,
		IPAddress: origin.IPAddress,
		UserAgent: origin.UserAgent,
		Details:   details,
		Severity:  severity,
	}
	if origin.SessionID != "" {
		sid := origin.SessionID
		e.SessionID = &sid
	}
	return e
}

type ListFilter struct {
	Severity  Severity
	EventType EventType
	SessionID string
	Limit     int
	Offset    int
}
