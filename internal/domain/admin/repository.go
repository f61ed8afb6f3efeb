package admin

import (
	"context"
	"time"

	"gorm.io/gorm"

	"salonbook/internal/database"
)

type AdminRepository interface {
	Create(ctx context.Context, admin *AdminUser) error
	GetByID(ctx context.Context, id int64) (*AdminUser, error)
	GetByUsername(ctx context.Context, username string) (*AdminUser, error)
	RecordFailure(ctx context.Context, id int64, attempts int, lockedUntil *time.Time) error
	RecordSuccess(ctx context.Context, id int64, at time.Time) error
	SetPassword(ctx context.Context, id int64, hash string) error
}

type adminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) AdminRepository {
	return &adminRepository{db: db}
}

func (r *adminRepository) Create(ctx context.Context, admin *AdminUser) error {
	return r.db.WithContext(ctx).Create(admin).Error
}

func (r *adminRepository) GetByID(ctx context.Context, id int64) (*AdminUser, error) {
	var admin AdminUser
	if err := r.db.WithContext(ctx).First(&admin, id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &admin, nil
}

func (r *adminRepository) GetByUsername(ctx context.Context, username string) (*AdminUser, error) {
	var admin AdminUser
	if err := r.db.WithContext(ctx).First(&admin, "username = ?", username).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &admin, nil
}

func (r *adminRepository) RecordFailure(ctx context.Context, id int64, attempts int, lockedUntil *time.Time) error {
	return r.db.WithContext(ctx).Model(&AdminUser{}).Where("id = ?", id).
		Updates(map[string]any{"failed_attempts": attempts, "locked_until": lockedUntil}).Error
}

func (r *adminRepository) RecordSuccess(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&AdminUser{}).Where("id = ?", id).
		Updates(map[string]any{"failed_attempts": 0, "locked_until": nil, "last_login": at}).Error
}

func (r *adminRepository) SetPassword(ctx context.Context, id int64, hash string) error {
	return r.db.WithContext(ctx).Model(&AdminUser{}).Where("id = ?", id).
		Updates(map[string]any{"password_hash": hash, "failed_attempts": 0, "locked_until": nil}).Error
}
