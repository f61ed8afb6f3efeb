package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salonbook/internal/database"
	"salonbook/internal/pkg/clock"
)

func newTestStore(t *testing.T) (*Store, *clock.Fixed) {
	t.Helper()

	db, err := database.Connect(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Session{}))

	clk := clock.NewFixed(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	return NewStore(db, clk), clk
}

func TestResolveOrCreate_CreatesFreshSession(t *testing.T) {
	store, clk := newTestStore(t)
	ctx := context.Background()

	sess, err := store.ResolveOrCreate(ctx, "", "10.0.0.1", "curl/8")
	require.NoError(t, err)

	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, 0, sess.BookingCount)
	assert.False(t, sess.IsSuspicious)
	assert.Nil(t, sess.BlockedUntil)
	assert.Nil(t, sess.LastBookingAttempt)
	assert.True(t, sess.LastActivity.Equal(clk.Now()))
}

func TestResolveOrCreate_UnknownIDGetsNewIdentifier(t *testing.T) {
	store, _ := newTestStore(t)

	sess, err := store.ResolveOrCreate(context.Background(), "attacker-chosen-id", "10.0.0.1", "ua")
	require.NoError(t, err)
	assert.NotEqual(t, "attacker-chosen-id", sess.ID)
}

func TestResolveOrCreate_TouchesAndBackfills(t *testing.T) {
	store, clk := newTestStore(t)
	ctx := context.Background()

	created, err := store.ResolveOrCreate(ctx, "", "", "")
	require.NoError(t, err)

	clk.Advance(2 * time.Minute)
	again, err := store.ResolveOrCreate(ctx, created.ID, "10.0.0.9", "firefox")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	stored, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.9", stored.IPAddress)
	assert.Equal(t, "firefox", stored.UserAgent)
	assert.True(t, stored.LastActivity.Equal(clk.Now()))

	// known details are not overwritten
	_, err = store.ResolveOrCreate(ctx, created.ID, "10.0.0.10", "chrome")
	require.NoError(t, err)
	stored, err = store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.9", stored.IPAddress)
	assert.Equal(t, "firefox", stored.UserAgent)
}

func TestRecordBookingAttempt_IncrementsByOne(t *testing.T) {
	store, clk := newTestStore(t)
	ctx := context.Background()

	sess, err := store.ResolveOrCreate(ctx, "", "10.0.0.1", "ua")
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		clk.Advance(time.Second)
		require.NoError(t, store.RecordBookingAttempt(ctx, sess.ID))

		stored, err := store.Get(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, i, stored.BookingCount)
		require.NotNil(t, stored.LastBookingAttempt)
		assert.True(t, stored.LastBookingAttempt.Equal(clk.Now()))
	}
}

func TestRecordBookingAttempt_UnknownSession(t *testing.T) {
	store, _ := newTestStore(t)
	assert.ErrorIs(t, store.RecordBookingAttempt(context.Background(), "missing"), ErrNotFound)
}

func TestClaimBookingAttempt_RejectsStaleCount(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	sess, err := store.ResolveOrCreate(ctx, "", "10.0.0.1", "ua")
	require.NoError(t, err)

	ok, err := store.ClaimBookingAttempt(ctx, sess.ID, 0)
	require.NoError(t, err)
	assert.True(t, ok)

	// a second claim based on the same observation loses
	ok, err = store.ClaimBookingAttempt(ctx, sess.ID, 0)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.BookingCount)
}

func TestMarkSuspicious_NeverShortensBlock(t *testing.T) {
	store, clk := newTestStore(t)
	ctx := context.Background()

	sess, err := store.ResolveOrCreate(ctx, "", "10.0.0.1", "ua")
	require.NoError(t, err)

	require.NoError(t, store.MarkSuspicious(ctx, sess.ID, time.Hour))
	stored, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsSuspicious)
	require.NotNil(t, stored.BlockedUntil)
	longBlock := *stored.BlockedUntil
	assert.True(t, longBlock.Equal(clk.Now().Add(time.Hour)))

	require.NoError(t, store.MarkSuspicious(ctx, sess.ID, time.Minute))
	stored, err = store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.True(t, stored.BlockedUntil.Equal(longBlock))

	clk.Advance(30 * time.Minute)
	require.NoError(t, store.MarkSuspicious(ctx, sess.ID, time.Hour))
	stored, err = store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.True(t, stored.BlockedUntil.Equal(clk.Now().Add(time.Hour)))
}

func TestMarkSuspicious_FlagOnlyLeavesBlockUnset(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	sess, err := store.ResolveOrCreate(ctx, "", "10.0.0.1", "ua")
	require.NoError(t, err)

	require.NoError(t, store.MarkSuspicious(ctx, sess.ID, 0))
	stored, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsSuspicious)
	assert.Nil(t, stored.BlockedUntil)
}

func TestDeleteInactive_KeepsSuspiciousSessions(t *testing.T) {
	store, clk := newTestStore(t)
	ctx := context.Background()

	idle, err := store.ResolveOrCreate(ctx, "", "10.0.0.1", "ua")
	require.NoError(t, err)
	flagged, err := store.ResolveOrCreate(ctx, "", "10.0.0.2", "ua")
	require.NoError(t, err)
	require.NoError(t, store.MarkSuspicious(ctx, flagged.ID, 0))

	clk.Advance(48 * time.Hour)
	fresh, err := store.ResolveOrCreate(ctx, "", "10.0.0.3", "ua")
	require.NoError(t, err)

	deleted, err := store.DeleteInactive(ctx, clk.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = store.Get(ctx, idle.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, flagged.ID)
	assert.NoError(t, err)
	_, err = store.Get(ctx, fresh.ID)
	assert.NoError(t, err)
}

func TestSessionTiming(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	last := now.Add(-90 * time.Second)
	until := now.Add(10 * time.Minute)
	s := &Session{LastBookingAttempt: &last, BlockedUntil: &until}

	assert.Equal(t, 210*time.Second, s.CooldownRemaining(now, 5*time.Minute))
	assert.Equal(t, time.Duration(0), s.CooldownRemaining(now, time.Minute))
	assert.Equal(t, 10*time.Minute, s.BlockedFor(now))
	assert.Equal(t, time.Duration(0), s.BlockedFor(until))
	assert.Equal(t, 2, Seconds(1500*time.Millisecond))
	assert.Equal(t, 0, Seconds(0))
}
