package security

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"salonbook/internal/pkg/clock"
)

// Log persists security events. Record returns store errors; Write is the
// best-effort variant used on request paths where auditing must never fail
// the request.
type Log struct {
	db    *gorm.DB
	clock clock.Clock
}

func NewLog(db *gorm.DB, clk clock.Clock) *Log {
	return &Log{db: db, clock: clk}
}

func (l *Log) Record(ctx context.Context, e Event) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = l.clock.Now()
	}
	if e.Severity == "" {
		e.Severity = SeverityInfo
	}
	if err := l.db.WithContext(ctx).Create(&e).Error; err != nil {
		return fmt.Errorf("record security event %s: %w", e.EventType, err)
	}
	return nil
}

func (l *Log) Write(ctx context.Context, e Event) {
	if err := l.Record(ctx, e); err != nil {
		log.Error().Err(err).
			Str("event_type", string(e.EventType)).
			Str("severity", string(e.Severity)).
			Msg("failed to log security event")
	}
}

func (l *Log) List(ctx context.Context, f ListFilter) ([]Event, int64, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	q := l.db.WithContext(ctx).Model(&Event{})
	if f.Severity != "" {
		q = q.Where("severity = ?", f.Severity)
	}
	if f.EventType != "" {
		q = q.Where("event_type = ?", f.EventType)
	}
	if f.SessionID != "" {
		q = q.Where("session_id = ?", f.SessionID)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []Event
	if err := q.Order("created_at DESC, id DESC").Limit(f.Limit).Offset(f.Offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
