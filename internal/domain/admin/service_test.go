package admin

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"salonbook/internal/domain/notification"
	"salonbook/internal/domain/security"
	"salonbook/internal/pkg/clock"
	"salonbook/internal/pkg/jwt"
)

/* ==================== MOCKS ==================== */

type MockAdminRepository struct {
	mock.Mock
}

func (m *MockAdminRepository) Create(ctx context.Context, admin *AdminUser) error {
	args := m.Called(ctx, admin)
	if admin != nil {
		admin.ID = 99
	}
	return args.Error(0)
}

func (m *MockAdminRepository) GetByID(ctx context.Context, id int64) (*AdminUser, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*AdminUser), args.Error(1)
}

func (m *MockAdminRepository) GetByUsername(ctx context.Context, username string) (*AdminUser, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*AdminUser), args.Error(1)
}

func (m *MockAdminRepository) RecordFailure(ctx context.Context, id int64, attempts int, lockedUntil *time.Time) error {
	args := m.Called(ctx, id, attempts, lockedUntil)
	return args.Error(0)
}

func (m *MockAdminRepository) RecordSuccess(ctx context.Context, id int64, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockAdminRepository) SetPassword(ctx context.Context, id int64, hash string) error {
	args := m.Called(ctx, id, hash)
	return args.Error(0)
}

type recordedEvents struct {
	mu     sync.Mutex
	events []security.Event
}

func (r *recordedEvents) Write(_ context.Context, e security.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordedEvents) types() []security.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]security.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}

type stubVerifier struct{ res notification.Result }

func (s stubVerifier) Verify(context.Context) notification.Result { return s.res }

/* ==================== HELPERS ==================== */

var testNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func hashed(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func newTestService(repo AdminRepository, events *recordedEvents) *Service {
	return NewService(repo, jwt.New("test-secret", time.Hour), events, stubVerifier{res: notification.Result{Success: true, Message: "ok"}},
		clock.NewFixed(testNow), LoginPolicy{MaxAttempts: 5, Cooldown: 15 * time.Minute})
}

/* ==================== TESTS ==================== */

func TestLogin_Success(t *testing.T) {
	repo := new(MockAdminRepository)
	events := &recordedEvents{}
	svc := newTestService(repo, events)

	admin := &AdminUser{ID: 1, Username: "naomi", PasswordHash: hashed(t, "s3cret"), FailedAttempts: 2}
	repo.On("GetByUsername", mock.Anything, "naomi").Return(admin, nil)
	repo.On("RecordSuccess", mock.Anything, int64(1), testNow).Return(nil)

	token, identity, err := svc.Login(context.Background(), "naomi", "s3cret", security.Origin{IPAddress: "1.2.3.4"})

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "naomi", identity.Username)
	assert.Equal(t, jwt.RoleAdmin, identity.Role)
	assert.Equal(t, []security.EventType{security.EventLoginSuccess}, events.types())
	repo.AssertExpectations(t)
}

func TestLogin_UnknownUser(t *testing.T) {
	repo := new(MockAdminRepository)
	events := &recordedEvents{}
	svc := newTestService(repo, events)

	repo.On("GetByUsername", mock.Anything, "ghost").Return(nil, ErrNotFound)

	_, _, err := svc.Login(context.Background(), "ghost", "x", security.Origin{})

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, []security.EventType{security.EventLoginFailed}, events.types())
}

func TestLogin_WrongPasswordCountsAttempt(t *testing.T) {
	repo := new(MockAdminRepository)
	events := &recordedEvents{}
	svc := newTestService(repo, events)

	admin := &AdminUser{ID: 1, Username: "naomi", PasswordHash: hashed(t, "s3cret"), FailedAttempts: 1}
	repo.On("GetByUsername", mock.Anything, "naomi").Return(admin, nil)
	repo.On("RecordFailure", mock.Anything, int64(1), 2, (*time.Time)(nil)).Return(nil)

	_, _, err := svc.Login(context.Background(), "naomi", "wrong", security.Origin{})

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	repo.AssertExpectations(t)
}

func TestLogin_FifthFailureLocksAccount(t *testing.T) {
	repo := new(MockAdminRepository)
	svc := newTestService(repo, &recordedEvents{})

	admin := &AdminUser{ID: 1, Username: "naomi", PasswordHash: hashed(t, "s3cret"), FailedAttempts: 4}
	repo.On("GetByUsername", mock.Anything, "naomi").Return(admin, nil)
	repo.On("RecordFailure", mock.Anything, int64(1), 5, mock.MatchedBy(func(until *time.Time) bool {
		return until != nil && until.Equal(testNow.Add(15*time.Minute))
	})).Return(nil)

	_, _, err := svc.Login(context.Background(), "naomi", "wrong", security.Origin{})

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	repo.AssertExpectations(t)
}

func TestLogin_LockedAccountRejectsEvenCorrectPassword(t *testing.T) {
	repo := new(MockAdminRepository)
	events := &recordedEvents{}
	svc := newTestService(repo, events)

	until := testNow.Add(10 * time.Minute)
	admin := &AdminUser{ID: 1, Username: "naomi", PasswordHash: hashed(t, "s3cret"), FailedAttempts: 5, LockedUntil: &until}
	repo.On("GetByUsername", mock.Anything, "naomi").Return(admin, nil)

	_, _, err := svc.Login(context.Background(), "naomi", "s3cret", security.Origin{})

	require.ErrorIs(t, err, ErrLocked)
	var locked *LockedError
	require.True(t, errors.As(err, &locked))
	assert.Equal(t, 10*time.Minute, locked.RetryAfter)
	assert.Equal(t, []security.EventType{security.EventLoginBlocked}, events.types())
	repo.AssertNotCalled(t, "RecordSuccess", mock.Anything, mock.Anything, mock.Anything)
}

func TestLogin_StoreErrorIsAudited(t *testing.T) {
	repo := new(MockAdminRepository)
	events := &recordedEvents{}
	svc := newTestService(repo, events)

	repo.On("GetByUsername", mock.Anything, "naomi").Return(nil, errors.New("db down"))

	_, _, err := svc.Login(context.Background(), "naomi", "x", security.Origin{})

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, []security.EventType{security.EventLoginError}, events.types())
}

func TestAuthenticate(t *testing.T) {
	tokens := jwt.New("test-secret", time.Hour)
	token, err := tokens.GenerateToken(1, "naomi")
	require.NoError(t, err)

	t.Run("active admin", func(t *testing.T) {
		repo := new(MockAdminRepository)
		svc := newTestService(repo, &recordedEvents{})
		repo.On("GetByID", mock.Anything, int64(1)).Return(&AdminUser{ID: 1, Username: "naomi"}, nil)

		identity, err := svc.Authenticate(context.Background(), token, security.Origin{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), identity.ID)
	})

	t.Run("deleted admin", func(t *testing.T) {
		repo := new(MockAdminRepository)
		events := &recordedEvents{}
		svc := newTestService(repo, events)
		repo.On("GetByID", mock.Anything, int64(1)).Return(nil, ErrNotFound)

		_, err := svc.Authenticate(context.Background(), token, security.Origin{})
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.Equal(t, []security.EventType{security.EventAuthFailed}, events.types())
	})

	t.Run("locked admin", func(t *testing.T) {
		repo := new(MockAdminRepository)
		events := &recordedEvents{}
		svc := newTestService(repo, events)
		until := testNow.Add(time.Minute)
		repo.On("GetByID", mock.Anything, int64(1)).Return(&AdminUser{ID: 1, Username: "naomi", LockedUntil: &until}, nil)

		_, err := svc.Authenticate(context.Background(), token, security.Origin{})
		assert.ErrorIs(t, err, ErrLocked)
		assert.Equal(t, []security.EventType{security.EventAuthBlocked}, events.types())
	})

	t.Run("garbage token", func(t *testing.T) {
		svc := newTestService(new(MockAdminRepository), &recordedEvents{})
		_, err := svc.Authenticate(context.Background(), "not-a-jwt", security.Origin{})
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestEnsureAdmin_CreatesWhenMissing(t *testing.T) {
	repo := new(MockAdminRepository)
	svc := newTestService(repo, &recordedEvents{})

	repo.On("GetByUsername", mock.Anything, "naomi").Return(nil, ErrNotFound)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*admin.AdminUser")).Return(nil)

	admin, created, err := svc.EnsureAdmin(context.Background(), "naomi", "pw", bcrypt.MinCost)

	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(99), admin.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("pw")))
}
