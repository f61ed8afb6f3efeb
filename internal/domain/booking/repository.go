package booking

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"salonbook/internal/database"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// IsSlotAvailable matches the exact (date, time) pair. Service durations are
// not taken into account.
func (r *Repository) IsSlotAvailable(ctx context.Context, date, hhmm string) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&Booking{}).
		Where("appointment_date = ? AND appointment_time = ?", date, hhmm).
		Where("status <> ?", StatusCancelled).
		Count(&cnt).Error
	if err != nil {
		return false, fmt.Errorf("check slot: %w", err)
	}
	return cnt == 0, nil
}

// OccupiedSlots lists non-cancelled slots, for one date when date is set.
func (r *Repository) OccupiedSlots(ctx context.Context, date string) ([]Slot, error) {
	q := r.db.WithContext(ctx).Model(&Booking{}).
		Select("appointment_date AS date, appointment_time AS time").
		Where("status <> ?", StatusCancelled)
	if date != "" {
		q = q.Where("appointment_date = ?", date)
	}

	slots := []Slot{}
	if err := q.Order("appointment_date, appointment_time").Scan(&slots).Error; err != nil {
		return nil, fmt.Errorf("occupied slots: %w", err)
	}
	return slots, nil
}

// Create inserts b. A unique index rejection means another request won the
// slot and is reported as ErrSlotTaken.
func (r *Repository) Create(ctx context.Context, b *Booking) error {
	if err := r.db.WithContext(ctx).Omit("Service").Create(b).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Booking, error) {
	var b Booking
	if err := r.db.WithContext(ctx).Preload("Service").First(&b, id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return &b, nil
}

type ListFilter struct {
	Date string
}

func (r *Repository) List(ctx context.Context, f ListFilter) ([]Booking, error) {
	q := r.db.WithContext(ctx).Preload("Service")
	if f.Date != "" {
		q = q.Where("appointment_date = ?", f.Date).Order("appointment_time")
	} else {
		q = q.Order("appointment_date DESC, appointment_time DESC")
	}

	var out []Booking
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return out, nil
}

// UpdateStatus sets the status of booking id. Moving a cancelled booking back
// onto a slot that has since been taken fails with ErrSlotTaken.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status Status, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&Booking{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": at})
	if res.Error != nil {
		if database.IsUniqueViolation(res.Error) {
			return ErrSlotTaken
		}
		return fmt.Errorf("update booking status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&Booking{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete booking: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
