package admin

import "time"

// AdminUser is a dashboard account. Repeated bad passwords lock it for a
// while; the counter is only reset by a successful login.
type AdminUser struct {
	ID             int64      `json:"id" gorm:"primaryKey"`
	Username       string     `json:"username" gorm:"size:64;uniqueIndex;not null"`
	PasswordHash   string     `json:"-" gorm:"size:255;not null"`
	FailedAttempts int        `json:"-" gorm:"not null;default:0"`
	LockedUntil    *time.Time `json:"-"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (AdminUser) TableName() string {
	return "admin_users"
}

// LockedFor returns the remaining lockout, or zero.
func (a *AdminUser) LockedFor(now time.Time) time.Duration {
	if a.LockedUntil == nil || !now.Before(*a.LockedUntil) {
		return 0
	}
	return a.LockedUntil.Sub(now)
}

// Identity is what handlers see of the authenticated admin.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}
