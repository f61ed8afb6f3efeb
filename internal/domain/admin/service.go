package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"salonbook/internal/domain/notification"
	"salonbook/internal/domain/security"
	"salonbook/internal/pkg/clock"
	"salonbook/internal/pkg/jwt"
)

type EventWriter interface {
	Write(ctx context.Context, e security.Event)
}

type Verifier interface {
	Verify(ctx context.Context) notification.Result
}

type LoginPolicy struct {
	MaxAttempts int
	Cooldown    time.Duration
}

type Service struct {
	repo     AdminRepository
	tokens   *jwt.Service
	events   EventWriter
	notifier Verifier
	clock    clock.Clock
	policy   LoginPolicy
}

func NewService(repo AdminRepository, tokens *jwt.Service, events EventWriter, notifier Verifier, clk clock.Clock, policy LoginPolicy) *Service {
	return &Service{
		repo:     repo,
		tokens:   tokens,
		events:   events,
		notifier: notifier,
		clock:    clk,
		policy:   policy,
	}
}

// Login checks the password and issues a token. Every outcome is audited.
func (s *Service) Login(ctx context.Context, username, password string, origin security.Origin) (string, *Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		s.audit(ctx, security.EventLoginFailed, security.SeverityWarn, origin, "Missing credentials")
		return "", nil, ErrInvalidCredentials
	}

	admin, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.audit(ctx, security.EventLoginFailed, security.SeverityWarn, origin, "Invalid username: "+username)
			return "", nil, ErrInvalidCredentials
		}
		s.audit(ctx, security.EventLoginError, security.SeverityError, origin, fmt.Sprintf("Login system error: %v", err))
		return "", nil, fmt.Errorf("load admin: %w", err)
	}

	now := s.clock.Now()
	if locked := admin.LockedFor(now); locked > 0 {
		s.audit(ctx, security.EventLoginBlocked, security.SeverityWarn, origin, "Account locked: "+username)
		return "", nil, &LockedError{RetryAfter: locked}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		attempts := admin.FailedAttempts + 1
		var lockUntil *time.Time
		if attempts >= s.policy.MaxAttempts {
			until := now.Add(s.policy.Cooldown)
			lockUntil = &until
		}
		if err := s.repo.RecordFailure(ctx, admin.ID, attempts, lockUntil); err != nil {
			s.audit(ctx, security.EventLoginError, security.SeverityError, origin, fmt.Sprintf("Login system error: %v", err))
			return "", nil, fmt.Errorf("record failed login: %w", err)
		}
		s.audit(ctx, security.EventLoginFailed, security.SeverityWarn, origin,
			fmt.Sprintf("Wrong password for %s. Attempts: %d", username, attempts))
		return "", nil, ErrInvalidCredentials
	}

	if err := s.repo.RecordSuccess(ctx, admin.ID, now); err != nil {
		s.audit(ctx, security.EventLoginError, security.SeverityError, origin, fmt.Sprintf("Login system error: %v", err))
		return "", nil, fmt.Errorf("record login: %w", err)
	}

	token, err := s.tokens.GenerateToken(admin.ID, admin.Username)
	if err != nil {
		s.audit(ctx, security.EventLoginError, security.SeverityError, origin, fmt.Sprintf("Login system error: %v", err))
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	s.audit(ctx, security.EventLoginSuccess, security.SeverityInfo, origin, "Successful login for "+username)
	return token, &Identity{ID: admin.ID, Username: admin.Username, Role: jwt.RoleAdmin}, nil
}

// Authenticate validates a token and re-checks that its admin still exists
// and is not locked out.
func (s *Service) Authenticate(ctx context.Context, token string, origin security.Origin) (*Identity, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		s.audit(ctx, security.EventAuthFailed, security.SeverityWarn, origin, fmt.Sprintf("Token verification failed: %v", err))
		return nil, ErrInvalidToken
	}

	admin, err := s.repo.GetByID(ctx, claims.AdminID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.audit(ctx, security.EventAuthFailed, security.SeverityWarn, origin, "Token valid but admin not found")
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("load admin: %w", err)
	}
	if admin.Username != claims.Username {
		s.audit(ctx, security.EventAuthFailed, security.SeverityWarn, origin, "Token valid but admin not found")
		return nil, ErrInvalidToken
	}

	if locked := admin.LockedFor(s.clock.Now()); locked > 0 {
		s.audit(ctx, security.EventAuthBlocked, security.SeverityWarn, origin, "Admin account locked")
		return nil, &LockedError{RetryAfter: locked}
	}

	return &Identity{ID: admin.ID, Username: admin.Username, Role: claims.Role}, nil
}

func (s *Service) TestNotifications(ctx context.Context) notification.Result {
	if s.notifier == nil {
		return notification.Result{Success: false, Message: "Notifications not configured"}
	}
	return s.notifier.Verify(ctx)
}

// EnsureAdmin creates the account or resets its password.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string, cost int) (*AdminUser, bool, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}

	existing, err := s.repo.GetByUsername(ctx, username)
	switch {
	case err == nil:
		if err := s.repo.SetPassword(ctx, existing.ID, string(hash)); err != nil {
			return nil, false, err
		}
		existing.PasswordHash = string(hash)
		return existing, false, nil
	case errors.Is(err, ErrNotFound):
		admin := &AdminUser{Username: username, PasswordHash: string(hash), CreatedAt: s.clock.Now()}
		if err := s.repo.Create(ctx, admin); err != nil {
			return nil, false, err
		}
		return admin, true, nil
	default:
		return nil, false, err
	}
}

func (s *Service) audit(ctx context.Context, kind security.EventType, sev security.Severity, origin security.Origin, details string) {
	s.events.Write(ctx, security.NewEvent(kind, sev, origin, details))
}
