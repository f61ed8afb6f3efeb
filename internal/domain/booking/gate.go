package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"salonbook/internal/domain/catalog"
	"salonbook/internal/domain/notification"
	"salonbook/internal/domain/security"
	"salonbook/internal/domain/session"
	"salonbook/internal/pkg/clock"
	"salonbook/internal/pkg/validator"
)

type GateConfig struct {
	Cooldown         time.Duration
	SpamThreshold    int
	TrollingBlock    time.Duration
	MaxAdvanceMonths int
	Location         *time.Location
}

// Gate is the single authority on whether a public booking may be created.
type Gate struct {
	sessions SessionStore
	bookings BookingStore
	services ServiceLookup
	events   EventWriter
	notifier Notifier
	feed     Feed
	clock    clock.Clock
	cfg      GateConfig
}

func NewGate(
	sessions SessionStore,
	bookings BookingStore,
	services ServiceLookup,
	events EventWriter,
	notifier Notifier,
	feed Feed,
	clk clock.Clock,
	cfg GateConfig,
) *Gate {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Gate{
		sessions: sessions,
		bookings: bookings,
		services: services,
		events:   events,
		notifier: notifier,
		feed:     feed,
		clock:    clk,
		cfg:      cfg,
	}
}

// Submit runs the checks in order and stops at the first refusal:
// block, cooldown, attempt accounting, field validation, contact heuristics,
// slot availability, booking window, then commit.
func (g *Gate) Submit(ctx context.Context, sub Submission) (*Booking, error) {
	now := g.clock.Now()

	sess := sub.Session
	if sess == nil {
		var err error
		sess, err = g.sessions.ResolveOrCreate(ctx, sub.SessionID, sub.ClientIP, sub.UserAgent)
		if err != nil {
			return nil, internal("resolve session", err)
		}
	}
	origin := security.Origin{SessionID: sess.ID, IPAddress: sub.ClientIP, UserAgent: sub.UserAgent}

	if blocked := sess.BlockedFor(now); blocked > 0 {
		g.events.Write(ctx, security.NewEvent(security.EventBookingBlocked, security.SeverityWarn, origin,
			fmt.Sprintf("Blocked session attempted booking, %ds remaining", session.Seconds(blocked))))
		return nil, rateLimited("Too many booking attempts. Please try again later.", session.Seconds(blocked))
	}

	if remaining := sess.CooldownRemaining(now, g.cfg.Cooldown); remaining > 0 {
		if sess.BookingCount > g.cfg.SpamThreshold {
			if err := g.sessions.MarkSuspicious(ctx, sess.ID, 0); err != nil {
				return nil, internal("flag spamming session", err)
			}
			g.events.Write(ctx, security.NewEvent(security.EventBookingSpam, security.SeverityWarn, origin,
				fmt.Sprintf("Session exceeded booking limit: %d attempts", sess.BookingCount)))
			g.broadcast(FeedSessionFlagged, map[string]any{"session_id": sess.ID, "reason": string(security.EventBookingSpam)})
		}
		return nil, rateLimited("Please wait before making another booking.", session.Seconds(remaining))
	}

	claimed, err := g.sessions.ClaimBookingAttempt(ctx, sess.ID, sess.BookingCount)
	if err != nil {
		return nil, internal("record booking attempt", err)
	}
	if !claimed {
		return nil, rateLimited("Please wait before making another booking.", session.Seconds(g.cfg.Cooldown))
	}

	cand := sub.Candidate.normalized()
	fields := validator.Validate(cand)
	for name, reason := range sub.DecodeErrors {
		if fields == nil {
			fields = make(map[string]string, len(sub.DecodeErrors))
		}
		fields[name] = reason
	}
	if len(fields) > 0 {
		return nil, invalidInput("Validation failed", fields)
	}
	cand.AppointmentTime = padClock(cand.AppointmentTime)

	svc, err := g.services.GetByID(ctx, cand.ServiceID)
	if err != nil {
		if errors.Is(err, catalog.ErrServiceNotFound) {
			return nil, invalidInput("Invalid service selected", map[string]string{"service_id": "does not exist"})
		}
		return nil, internal("lookup service", err)
	}

	if score := ScoreCandidate(cand); score.Suspicious() {
		if err := g.sessions.MarkSuspicious(ctx, sess.ID, g.cfg.TrollingBlock); err != nil {
			return nil, internal("block trolling session", err)
		}
		g.events.Write(ctx, security.NewEvent(security.EventTrollingDetected, security.SeverityWarn, origin,
			"Suspicious booking data: "+strings.Join(score.Reasons, "; ")))
		g.broadcast(FeedSessionFlagged, map[string]any{"session_id": sess.ID, "reason": string(security.EventTrollingDetected)})
		return nil, invalidInput("Please provide valid contact information.", nil)
	}

	available, err := g.bookings.IsSlotAvailable(ctx, cand.AppointmentDate, cand.AppointmentTime)
	if err != nil {
		return nil, internal("check slot", err)
	}
	if !available {
		return nil, slotTaken()
	}

	if gerr := g.checkWindow(now, cand.AppointmentDate, cand.AppointmentTime); gerr != nil {
		return nil, gerr
	}

	b := &Booking{
		CustomerName:    cand.CustomerName,
		CustomerPhone:   cand.CustomerPhone,
		CustomerEmail:   optional(cand.CustomerEmail),
		ServiceID:       svc.ID,
		AppointmentDate: cand.AppointmentDate,
		AppointmentTime: cand.AppointmentTime,
		Status:          StatusConfirmed,
		Notes:           optional(cand.Notes),
		SessionID:       sess.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := g.bookings.Create(ctx, b); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			return nil, slotTaken()
		}
		return nil, internal("create booking", err)
	}

	g.afterCommit(ctx, b, svc, origin)
	return b, nil
}

// checkWindow accepts appointments strictly after now and no later than the
// configured number of months ahead, both in salon local time.
func (g *Gate) checkWindow(now time.Time, date, hhmm string) *GateError {
	at, err := time.ParseInLocation("2006-01-02 15:04", date+" "+hhmm, g.cfg.Location)
	if err != nil {
		return invalidInput("Validation failed", map[string]string{"appointment_date": "is not a valid date"})
	}

	local := now.In(g.cfg.Location)
	if !at.After(local) {
		return invalidInput("Cannot book appointments in the past", nil)
	}
	if at.After(local.AddDate(0, g.cfg.MaxAdvanceMonths, 0)) {
		return invalidInput(fmt.Sprintf("Cannot book more than %d months in advance", g.cfg.MaxAdvanceMonths), nil)
	}
	return nil
}

func (g *Gate) afterCommit(ctx context.Context, b *Booking, svc *catalog.Service, origin security.Origin) {
	g.events.Write(ctx, security.NewEvent(security.EventBookingCreated, security.SeverityInfo, origin,
		fmt.Sprintf("Booking %d created for %s %s", b.ID, b.AppointmentDate, b.AppointmentTime)))

	b.Service = svc
	g.broadcast(FeedBookingCreated, detailsOf(b, catalog.DefaultLang))

	if b.CustomerEmail == nil || g.notifier == nil {
		return
	}

	conf := confirmationOf(b, svc)
	g.notifier.Dispatch(conf, func(res notification.Result) {
		severity := security.SeverityInfo
		if !res.Success {
			severity = security.SeverityWarn
		}
		// the request context is gone by the time delivery finishes
		g.events.Write(context.Background(), security.NewEvent(security.EventEmailSent, severity, origin,
			fmt.Sprintf("Booking %d confirmation to %s: %s", b.ID, conf.To, res.Message)))
	})
}

func (g *Gate) broadcast(kind string, payload any) {
	if g.feed == nil {
		return
	}
	g.feed.Broadcast(kind, payload)
}

func confirmationOf(b *Booking, svc *catalog.Service) notification.Confirmation {
	c := notification.Confirmation{
		BookingID:       b.ID,
		CustomerName:    b.CustomerName,
		CustomerPhone:   b.CustomerPhone,
		ServiceName:     svc.LocalizedName(catalog.DefaultLang),
		ServiceDuration: svc.Duration,
		ServicePrice:    svc.Price,
		Date:            b.AppointmentDate,
		Time:            b.AppointmentTime,
	}
	if b.CustomerEmail != nil {
		c.To = *b.CustomerEmail
	}
	if b.Notes != nil {
		c.Notes = *b.Notes
	}
	return c
}

// padClock turns an already validated H:MM into HH:MM.
func padClock(hhmm string) string {
	if len(hhmm) == 4 {
		return "0" + hhmm
	}
	return hhmm
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
