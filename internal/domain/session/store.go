package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"salonbook/internal/database"
	"salonbook/internal/pkg/clock"
)

// Store is the durable session repository. It only holds state; callers
// decide which security events a mutation deserves.
type Store struct {
	db    *gorm.DB
	clock clock.Clock
}

func NewStore(db *gorm.DB, clk clock.Clock) *Store {
	return &Store{db: db, clock: clk}
}

func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	var sess Session
	err := s.db.WithContext(ctx).First(&sess, "id = ?", id).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &sess, nil
}

// ResolveOrCreate returns the session for id, touching its last activity and
// backfilling unknown client details. Unknown or empty ids get a brand new
// session with a server generated identifier.
func (s *Store) ResolveOrCreate(ctx context.Context, id, clientIP, userAgent string) (*Session, error) {
	now := s.clock.Now()

	if id != "" {
		sess, err := s.Get(ctx, id)
		switch {
		case err == nil:
			updates := map[string]any{"last_activity": now}
			if sess.IPAddress == "" && clientIP != "" {
				updates["ip_address"] = clientIP
				sess.IPAddress = clientIP
			}
			if sess.UserAgent == "" && userAgent != "" {
				updates["user_agent"] = userAgent
				sess.UserAgent = userAgent
			}
			if err := s.db.WithContext(ctx).Model(&Session{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return nil, fmt.Errorf("touch session: %w", err)
			}
			sess.LastActivity = now
			return sess, nil
		case err != ErrNotFound:
			return nil, err
		}
	}

	sess := &Session{
		ID:           uuid.NewString(),
		CreatedAt:    now,
		LastActivity: now,
		IPAddress:    clientIP,
		UserAgent:    userAgent,
	}
	if err := s.db.WithContext(ctx).Create(sess).Error; err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// RecordBookingAttempt stamps the attempt time and bumps the attempt counter.
func (s *Store) RecordBookingAttempt(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Model(&Session{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_booking_attempt": s.clock.Now(),
			"booking_count":        gorm.Expr("booking_count + 1"),
		})
	if res.Error != nil {
		return fmt.Errorf("record booking attempt: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ClaimBookingAttempt is RecordBookingAttempt guarded by the attempt counter
// the caller observed. It returns false when another attempt from the same
// session landed in between, so two near-simultaneous submissions cannot
// both pass the cooldown check.
func (s *Store) ClaimBookingAttempt(ctx context.Context, id string, observedCount int) (bool, error) {
	res := s.db.WithContext(ctx).Model(&Session{}).
		Where("id = ? AND booking_count = ?", id, observedCount).
		Updates(map[string]any{
			"last_booking_attempt": s.clock.Now(),
			"booking_count":        gorm.Expr("booking_count + 1"),
		})
	if res.Error != nil {
		return false, fmt.Errorf("claim booking attempt: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// MarkSuspicious flags the session. A positive block extends blocked_until to
// now+block; an existing later block is kept.
func (s *Store) MarkSuspicious(ctx context.Context, id string, block time.Duration) error {
	now := s.clock.Now()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sess Session
		if err := tx.First(&sess, "id = ?", id).Error; err != nil {
			if database.IsNotFound(err) {
				return ErrNotFound
			}
			return fmt.Errorf("load session: %w", err)
		}

		updates := map[string]any{"is_suspicious": true}
		if block > 0 {
			until := now.Add(block)
			if sess.BlockedUntil == nil || sess.BlockedUntil.Before(until) {
				updates["blocked_until"] = until
			}
		}

		if err := tx.Model(&Session{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("mark session suspicious: %w", err)
		}
		return nil
	})
}

// DeleteInactive removes sessions idle since before cutoff. Suspicious and
// currently blocked sessions are retained for the audit trail.
func (s *Store) DeleteInactive(ctx context.Context, cutoff time.Time) (int64, error) {
	now := s.clock.Now()
	res := s.db.WithContext(ctx).
		Where("last_activity < ?", cutoff).
		Where("is_suspicious = ?", false).
		Where("blocked_until IS NULL OR blocked_until < ?", now).
		Delete(&Session{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete inactive sessions: %w", res.Error)
	}
	return res.RowsAffected, nil
}
