package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hyeyeon57/portfolio-backoffice/errs"
	"github.com/hyeyeon57/portfolio-backoffice/models"
)

var visit = VisitEvent{IP: "203.0.113.7", UserAgent: "Mozilla/5.0", Path: "/projects"}

func TestVisitDedupWithinWindow(t *testing.T) {
	svc := NewVisitorService(newTestStore(t), time.UTC)
	ctx := context.Background()
	t0 := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	first, outcome, err := svc.RecordVisit(ctx, visit, t0)
	require.NoError(t, err)
	require.Equal(t, VisitStored, outcome)

	second, outcome, err := svc.RecordVisit(ctx, visit, t0.Add(3*time.Second))
	require.NoError(t, err)
	require.Equal(t, VisitDeduped, outcome)
	require.Equal(t, first.ID, second.ID)

	page, err := svc.List(ctx, NewPage(1, 10))
	require.NoError(t, err)
	require.EqualValues(t, 1, page.Total)
	require.True(t, page.Items[0].Date.Equal(t0.Add(3*time.Second)))
}

func TestVisitOutsideWindowStoresNewRecord(t *testing.T) {
	svc := NewVisitorService(newTestStore(t), time.UTC)
	ctx := context.Background()
	t0 := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	_, _, err := svc.RecordVisit(ctx, visit, t0)
	require.NoError(t, err)
	_, outcome, err := svc.RecordVisit(ctx, visit, t0.Add(6*time.Second))
	require.NoError(t, err)
	require.Equal(t, VisitStored, outcome)

	page, err := svc.List(ctx, NewPage(1, 10))
	require.NoError(t, err)
	require.EqualValues(t, 2, page.Total)
	require.True(t, page.Items[0].Date.After(page.Items[1].Date))
}

func TestVisitDifferentPathIsNotDuplicate(t *testing.T) {
	svc := NewVisitorService(newTestStore(t), time.UTC)
	ctx := context.Background()
	t0 := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	_, _, err := svc.RecordVisit(ctx, visit, t0)
	require.NoError(t, err)
	other := visit
	other.Path = ""
	v, outcome, err := svc.RecordVisit(ctx, other, t0.Add(time.Second))
	require.NoError(t, err)
	require.Equal(t, VisitStored, outcome)
	require.Equal(t, "/", v.Path)
}

func TestVisitorStatsTakesLargerTodayCount(t *testing.T) {
	store := newTestStore(t)
	svc := NewVisitorService(store, time.UTC)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	repo := store.Database().VisitorRepo()
	yesterday := now.Add(-24 * time.Hour)
	// Created today with a stale logical date.
	require.NoError(t, repo.Add(ctx, &models.Visitor{IP: "a", Date: yesterday, CreatedAt: now.Add(-time.Hour)}))
	require.NoError(t, repo.Add(ctx, &models.Visitor{IP: "b", Date: now.Add(-2 * time.Hour), CreatedAt: now.Add(-2 * time.Hour)}))
	require.NoError(t, repo.Add(ctx, &models.Visitor{IP: "c", Date: yesterday, CreatedAt: yesterday}))

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, VisitorStats{Today: 2, Total: 3}, stats)
}

func TestVisitorStatsRespectsTimezone(t *testing.T) {
	store := newTestStore(t)
	seoul := time.FixedZone("KST", 9*60*60)
	svc := NewVisitorService(store, seoul)
	ctx := context.Background()
	// 00:30 in Seoul is 15:30 UTC the previous day.
	now := time.Date(2024, 6, 1, 15, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	repo := store.Database().VisitorRepo()
	require.NoError(t, repo.Add(ctx, &models.Visitor{IP: "a", Date: now.Add(-20 * time.Minute), CreatedAt: now.Add(-20 * time.Minute)}))
	require.NoError(t, repo.Add(ctx, &models.Visitor{IP: "b", Date: now.Add(-time.Hour), CreatedAt: now.Add(-time.Hour)}))

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, stats.Today)
}

func TestVisitorServiceFailsFastWhenDisconnected(t *testing.T) {
	svc := NewVisitorService(downStore{}, nil)
	ctx := context.Background()

	_, _, err := svc.Record(ctx, visit)
	require.True(t, errs.IsServiceUnavailableError(err))
	_, err = svc.Stats(ctx)
	require.True(t, errs.IsServiceUnavailableError(err))
	_, err = svc.List(ctx, NewPage(1, 1))
	require.True(t, errs.IsServiceUnavailableError(err))
}
