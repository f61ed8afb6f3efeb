package booking

import (
	"encoding/json"
	"strings"

	"salonbook/internal/domain/session"
)

// Candidate is a public booking submission.
type Candidate struct {
	CustomerName    string `json:"customer_name" validate:"required,min=2,max=100"`
	CustomerPhone   string `json:"customer_phone" validate:"required,phone"`
	CustomerEmail   string `json:"customer_email" validate:"omitempty,email,max=255"`
	ServiceID       int64  `json:"service_id" validate:"required,gt=0"`
	AppointmentDate string `json:"appointment_date" validate:"required,isodate"`
	AppointmentTime string `json:"appointment_time" validate:"required,hhmm"`
	Notes           string `json:"notes" validate:"max=500"`
}

func (c Candidate) normalized() Candidate {
	c.CustomerName = strings.TrimSpace(c.CustomerName)
	c.CustomerPhone = strings.TrimSpace(c.CustomerPhone)
	c.CustomerEmail = strings.TrimSpace(c.CustomerEmail)
	c.AppointmentDate = strings.TrimSpace(c.AppointmentDate)
	c.AppointmentTime = strings.TrimSpace(c.AppointmentTime)
	c.Notes = strings.TrimSpace(c.Notes)
	return c
}

// Submission is a candidate plus the client it came from.
type Submission struct {
	SessionID string
	// Session is used as-is when the caller already resolved it for this
	// request; otherwise SessionID is resolved.
	Session   *session.Session
	ClientIP  string
	UserAgent string
	Candidate Candidate
	// DecodeErrors lists fields whose JSON value had the wrong type. They
	// are reported together with the validation errors.
	DecodeErrors map[string]string
}

const invalidType = "has an invalid type"

// decodeCandidate reads a submission body field by field so one badly typed
// value does not discard the rest. A body that is not a JSON object yields an
// empty candidate.
func decodeCandidate(body []byte) (Candidate, map[string]string) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return Candidate{}, nil
	}

	var c Candidate
	bad := make(map[string]string)
	field := func(name string, dst any) {
		v, ok := raw[name]
		if !ok {
			return
		}
		if err := json.Unmarshal(v, dst); err != nil {
			bad[name] = invalidType
		}
	}
	field("customer_name", &c.CustomerName)
	field("customer_phone", &c.CustomerPhone)
	field("customer_email", &c.CustomerEmail)
	field("service_id", &c.ServiceID)
	field("appointment_date", &c.AppointmentDate)
	field("appointment_time", &c.AppointmentTime)
	field("notes", &c.Notes)

	if len(bad) == 0 {
		return c, nil
	}
	return c, bad
}

type UpdateStatusRequest struct {
	Status Status `json:"status" binding:"required"`
}

type ListResponse struct {
	Bookings []Details `json:"bookings"`
	Total    int       `json:"total"`
}
