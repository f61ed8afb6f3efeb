package session

import (
	"math"
	"time"
)

// ContextKey is where HTTP middleware stores the *Session resolved for the
// current request.
const ContextKey = "session"

// Session is one browser/client tracking unit used for booking rate limits.
// IsSuspicious is sticky: nothing in the service ever clears it.
type Session struct {
	ID                 string     `json:"id" gorm:"primaryKey;size:64"`
	CreatedAt          time.Time  `json:"created_at" gorm:"not null"`
	LastActivity       time.Time  `json:"last_activity" gorm:"not null;index"`
	IPAddress          string     `json:"ip_address" gorm:"size:64"`
	UserAgent          string     `json:"user_agent" gorm:"size:512"`
	LastBookingAttempt *time.Time `json:"last_booking_attempt,omitempty"`
	BookingCount       int        `json:"booking_count" gorm:"not null;default:0"`
	IsSuspicious       bool       `json:"is_suspicious" gorm:"not null;default:false"`
	BlockedUntil       *time.Time `json:"blocked_until,omitempty"`
}

func (Session) TableName() string { return "user_sessions" }

// BlockedFor returns how long the session stays blocked, or zero.
func (s *Session) BlockedFor(now time.Time) time.Duration {
	if s.BlockedUntil == nil || !now.Before(*s.BlockedUntil) {
		return 0
	}
	return s.BlockedUntil.Sub(now)
}

// CooldownRemaining returns how long until the next booking attempt is
// allowed, or zero when the session is outside its cooldown window.
func (s *Session) CooldownRemaining(now time.Time, cooldown time.Duration) time.Duration {
	if s.LastBookingAttempt == nil {
		return 0
	}
	end := s.LastBookingAttempt.Add(cooldown)
	if !now.Before(end) {
		return 0
	}
	return end.Sub(now)
}

// Seconds rounds d up to whole seconds, the unit clients retry on.
func Seconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
