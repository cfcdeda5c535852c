package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hyeyeon57/portfolio-backoffice/database"
	"github.com/hyeyeon57/portfolio-backoffice/models"
)

// DedupWindow collapses repeated sightings of the same visitor on a path.
const DedupWindow = 5 * time.Second

type VisitEvent struct {
	IP        string
	UserAgent string
	Path      string
}

type VisitOutcome string

const (
	VisitStored  VisitOutcome = "stored"
	VisitDeduped VisitOutcome = "deduped"
)

type VisitorStats struct {
	Today int64 `json:"today"`
	Total int64 `json:"total"`
}

type VisitorService struct {
	store    Store
	location *time.Location
	now      func() time.Time
	logger   zerolog.Logger
}

// NewVisitorService counts "today" from midnight in loc.
func NewVisitorService(store Store, loc *time.Location) *VisitorService {
	if loc == nil {
		loc = time.UTC
	}
	return &VisitorService{
		store:    store,
		location: loc,
		now:      time.Now,
		logger:   log.With().Str("service", "visitors").Logger(),
	}
}

// Record logs a visit at the current time.
func (s *VisitorService) Record(ctx context.Context, ev VisitEvent) (*models.Visitor, VisitOutcome, error) {
	return s.RecordVisit(ctx, ev, s.now())
}

// RecordVisit stores ev at now unless the same (ip, userAgent, path) was seen
// in [now-DedupWindow, now), in which case that record's date is moved to now
// instead. Concurrent duplicates may both be stored.
func (s *VisitorService) RecordVisit(ctx context.Context, ev VisitEvent, now time.Time) (*models.Visitor, VisitOutcome, error) {
	db, err := connected(s.store)
	if err != nil {
		return nil, "", err
	}

	now = now.UTC().Truncate(time.Millisecond)
	if strings.TrimSpace(ev.Path) == "" {
		ev.Path = "/"
	}
	repo := db.VisitorRepo()

	recent, err := repo.FindRecent(ctx, ev.IP, ev.UserAgent, ev.Path, now.Add(-DedupWindow), now)
	if err != nil {
		return nil, "", databaseError(s.store, "find", "visitor", err)
	}
	if recent != nil {
		if err := repo.Touch(ctx, recent.ID, now); err != nil {
			return nil, "", databaseError(s.store, "update", "visitor", err)
		}
		recent.Date = now
		return recent, VisitDeduped, nil
	}

	visitor := &models.Visitor{
		IP:        ev.IP,
		UserAgent: ev.UserAgent,
		Path:      ev.Path,
		Date:      now,
		CreatedAt: now,
	}
	if err := repo.Add(ctx, visitor); err != nil {
		return nil, "", databaseError(s.store, "create", "visitor", err)
	}
	return visitor, VisitStored, nil
}

// Stats counts today's visits by date and by creation time and reports the
// larger of the two, since older rows may only carry one of them.
func (s *VisitorService) Stats(ctx context.Context) (VisitorStats, error) {
	db, err := connected(s.store)
	if err != nil {
		return VisitorStats{}, err
	}

	local := s.now().In(s.location)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.location).UTC()
	repo := db.VisitorRepo()

	var byDate, byCreated, total int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		byDate, err = repo.CountSince(gctx, database.ByDate, midnight)
		return err
	})
	g.Go(func() (err error) {
		byCreated, err = repo.CountSince(gctx, database.ByCreatedAt, midnight)
		return err
	})
	g.Go(func() (err error) {
		total, err = repo.Count(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return VisitorStats{}, databaseError(s.store, "count", "visitors", err)
	}

	today := byDate
	if byCreated > today {
		today = byCreated
	}
	return VisitorStats{Today: today, Total: total}, nil
}

func (s *VisitorService) List(ctx context.Context, page Page) (PageOf[models.Visitor], error) {
	db, err := connected(s.store)
	if err != nil {
		return PageOf[models.Visitor]{}, err
	}

	items, total, err := db.VisitorRepo().List(ctx, page.Offset(), page.Limit)
	if err != nil {
		return PageOf[models.Visitor]{}, databaseError(s.store, "list", "visitors", err)
	}
	return PageOf[models.Visitor]{Items: items, Total: total, Page: page.Page, Limit: page.Limit}, nil
}
