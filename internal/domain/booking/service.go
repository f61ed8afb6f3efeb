package booking

import (
	"context"
	"fmt"

	"salonbook/internal/domain/catalog"
	"salonbook/internal/domain/security"
	"salonbook/internal/pkg/clock"
)

// Service holds the admin side of bookings: listing, status changes and
// deletion. Every mutation is audited and pushed to the live feed.
type Service struct {
	repo   *Repository
	events EventWriter
	feed   Feed
	clock  clock.Clock
}

func NewService(repo *Repository, events EventWriter, feed Feed, clk clock.Clock) *Service {
	return &Service{repo: repo, events: events, feed: feed, clock: clk}
}

func (s *Service) OccupiedSlots(ctx context.Context, date string) ([]Slot, error) {
	return s.repo.OccupiedSlots(ctx, date)
}

func (s *Service) List(ctx context.Context, date, lang string) ([]Details, error) {
	rows, err := s.repo.List(ctx, ListFilter{Date: date})
	if err != nil {
		return nil, err
	}

	lang = catalog.NormalizeLang(lang)
	out := make([]Details, 0, len(rows))
	for i := range rows {
		out = append(out, detailsOf(&rows[i], lang))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id int64, lang string) (*Details, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d := detailsOf(b, catalog.NormalizeLang(lang))
	return &d, nil
}

// UpdateStatus accepts any of the three statuses from any current status.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status Status, origin security.Origin) (*Details, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, id, status, s.clock.Now()); err != nil {
		return nil, err
	}

	s.events.Write(ctx, security.NewEvent(security.EventBookingStatusChanged, security.SeverityInfo, origin,
		fmt.Sprintf("Booking %d status %s -> %s", id, current.Status, status)))

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d := detailsOf(updated, catalog.DefaultLang)
	if s.feed != nil {
		s.feed.Broadcast(FeedBookingStatusChanged, d)
	}
	return &d, nil
}

func (s *Service) Delete(ctx context.Context, id int64, origin security.Origin) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.events.Write(ctx, security.NewEvent(security.EventBookingDeleted, security.SeverityWarn, origin,
		fmt.Sprintf("Booking %d deleted", id)))
	if s.feed != nil {
		s.feed.Broadcast(FeedBookingDeleted, map[string]any{"id": id})
	}
	return nil
}
