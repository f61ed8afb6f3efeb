package catalog

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"salonbook/internal/database"
)

var ErrServiceNotFound = errors.New("service not found")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context) ([]Service, error) {
	var out []Service
	if err := r.db.WithContext(ctx).Order("name").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Service, error) {
	var s Service
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Upsert inserts services keyed by their base name, refreshing translations,
// duration and price of ones that already exist.
func (r *Repository) Upsert(ctx context.Context, services []Service) (int, error) {
	n := 0
	for i := range services {
		s := services[i]

		var existing Service
		err := r.db.WithContext(ctx).Where("name = ?", s.Name).First(&existing).Error
		switch {
		case err == nil:
			s.ID = existing.ID
			s.CreatedAt = existing.CreatedAt
			if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(&s).Error; err != nil {
				return n, err
			}
		case database.IsNotFound(err):
			if err := r.db.WithContext(ctx).Create(&s).Error; err != nil {
				return n, err
			}
		default:
			return n, err
		}
		n++
	}
	return n, nil
}
