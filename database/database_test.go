package database

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hyeyeon57/portfolio-backoffice/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	t.Cleanup(func() { _ = closeDB(db) })
	return db
}

func seedProject(t *testing.T, repo *ProjectRepo, externalID string) *models.Project {
	t.Helper()
	p := &models.Project{ExternalID: externalID, Title: "Title " + externalID, Description: "d", Category: models.CategoryWeb}
	require.NoError(t, repo.Add(context.Background(), p))
	return p
}

func TestResolveByInternalAndExternalID(t *testing.T) {
	repo := NewProjectRepo(openTestDB(t))
	ctx := context.Background()
	p := seedProject(t, repo, "42")

	byInternal, err := repo.Resolve(ctx, p.ID.String())
	require.NoError(t, err)
	require.Equal(t, FoundByInternalID, byInternal.Outcome)
	require.Equal(t, p.ID, byInternal.Project.ID)

	byExternal, err := repo.Resolve(ctx, "42")
	require.NoError(t, err)
	require.Equal(t, FoundByExternalID, byExternal.Outcome)
	require.Equal(t, p.ID, byExternal.Project.ID)

	missing, err := repo.Resolve(ctx, "nope")
	require.NoError(t, err)
	require.False(t, missing.Found())
}

func TestResolveFallsBackWhenExternalIDLooksLikeUUID(t *testing.T) {
	repo := NewProjectRepo(openTestDB(t))
	ctx := context.Background()
	key := "0b6f3a4e-8f55-4b38-9c2e-0f4a1c9d1e11"
	p := seedProject(t, repo, key)

	lookup, err := repo.Resolve(ctx, key)
	require.NoError(t, err)
	require.Equal(t, FoundByExternalID, lookup.Outcome)
	require.Equal(t, p.ID, lookup.Project.ID)
}

func TestProjectListNewestFirst(t *testing.T) {
	db := openTestDB(t)
	repo := NewProjectRepo(db)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		p := &models.Project{ExternalID: id, Title: id, Description: "d", Category: models.CategoryApp, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		require.NoError(t, repo.Add(ctx, p))
	}

	page, total, err := repo.List(ctx, 0, 2)
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, page, 2)
	require.Equal(t, "c", page[0].ExternalID)
	require.Equal(t, "b", page[1].ExternalID)
}

func TestProjectExternalIDUnique(t *testing.T) {
	repo := NewProjectRepo(openTestDB(t))
	ctx := context.Background()
	seedProject(t, repo, "dup")

	err := repo.Add(ctx, &models.Project{ExternalID: "dup", Title: "x", Description: "d", Category: models.CategoryWeb})
	require.Error(t, err)

	exists, err := repo.ExistsByExternalID(ctx, "dup")
	require.NoError(t, err)
	require.True(t, exists)
}

func TestVisitorFindRecentWindow(t *testing.T) {
	repo := NewVisitorRepo(openTestDB(t))
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	v := &models.Visitor{IP: "1.1.1.1", UserAgent: "ua", Path: "/", Date: at, CreatedAt: at}
	require.NoError(t, repo.Add(ctx, v))

	found, err := repo.FindRecent(ctx, "1.1.1.1", "ua", "/", at.Add(-2*time.Second), at.Add(3*time.Second))
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, v.ID, found.ID)

	found, err = repo.FindRecent(ctx, "1.1.1.1", "ua", "/", at.Add(time.Second), at.Add(6*time.Second))
	require.NoError(t, err)
	require.Nil(t, found)

	found, err = repo.FindRecent(ctx, "1.1.1.1", "other", "/", at.Add(-time.Second), at.Add(time.Second))
	require.NoError(t, err)
	require.Nil(t, found)
}

func TestVisitorCountSince(t *testing.T) {
	repo := NewVisitorRepo(openTestDB(t))
	ctx := context.Background()
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Add(ctx, &models.Visitor{IP: "a", Date: day.Add(time.Hour), CreatedAt: day.Add(-time.Hour)}))
	require.NoError(t, repo.Add(ctx, &models.Visitor{IP: "b", Date: day.Add(-time.Hour), CreatedAt: day.Add(-time.Hour)}))

	byDate, err := repo.CountSince(ctx, ByDate, day)
	require.NoError(t, err)
	require.EqualValues(t, 1, byDate)

	byCreated, err := repo.CountSince(ctx, ByCreatedAt, day)
	require.NoError(t, err)
	require.EqualValues(t, 0, byCreated)
}

func TestConnectorDegradedThenRetry(t *testing.T) {
	db := openTestDB(t)
	var attempts atomic.Int32
	fail := true

	c := NewConnector(func(context.Context) (*gorm.DB, error) {
		attempts.Add(1)
		if fail {
			return nil, errors.New("dial tcp: connection refused")
		}
		return db, nil
	}, ConnectorOptions{RetryInterval: time.Minute})

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.False(t, c.EnsureConnected(context.Background()))
	require.False(t, c.IsConnected())
	require.Error(t, c.LastError())

	// Inside the retry interval no new attempt is made.
	fail = false
	require.False(t, c.EnsureConnected(context.Background()))
	require.EqualValues(t, 1, attempts.Load())

	now = now.Add(2 * time.Minute)
	require.True(t, c.EnsureConnected(context.Background()))
	require.True(t, c.IsConnected())
	require.NotNil(t, c.Database().ProjectRepo())
	require.EqualValues(t, 2, attempts.Load())
}

func TestConnectorTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	c := NewConnector(func(ctx context.Context) (*gorm.DB, error) {
		<-release
		return nil, errors.New("too late")
	}, ConnectorOptions{ConnectTimeout: 20 * time.Millisecond})

	err := c.Connect(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.False(t, c.IsConnected())
}

func TestConnectorCollapsesConcurrentAttempts(t *testing.T) {
	db := openTestDB(t)
	var attempts atomic.Int32
	gate := make(chan struct{})

	c := NewConnector(func(context.Context) (*gorm.DB, error) {
		attempts.Add(1)
		<-gate
		return db, nil
	}, ConnectorOptions{})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Connect(context.Background())
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()

	require.True(t, c.IsConnected())
	require.EqualValues(t, 1, attempts.Load())
}

func TestConnectorMarkDisconnected(t *testing.T) {
	c := NewConnectorFromDB(openTestDB(t))
	require.True(t, c.IsConnected())
	require.NoError(t, c.Ping(context.Background()))

	c.MarkDisconnected(errors.New("lost"))
	require.False(t, c.IsConnected())
	require.Nil(t, c.DB())
	require.Nil(t, c.Database().ProjectRepo())
}

func TestConnectorClosesSupersededHandles(t *testing.T) {
	dir := t.TempDir()
	var opened []*gorm.DB

	c := NewConnector(func(context.Context) (*gorm.DB, error) {
		db, err := OpenSQLite(filepath.Join(dir, "flap.db"))
		if err == nil {
			opened = append(opened, db)
		}
		return db, err
	}, ConnectorOptions{RetryInterval: time.Minute})
	t.Cleanup(func() { _ = c.Close() })

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	require.NoError(t, c.Connect(context.Background()))

	for i := 0; i < 3; i++ {
		c.MarkDisconnected(errors.New("ping failed"))
		now = now.Add(2 * time.Minute)
		require.True(t, c.EnsureConnected(context.Background()))
	}
	require.Len(t, opened, 4)

	for _, db := range opened[:3] {
		sqlDB, err := db.DB()
		require.NoError(t, err)
		require.Error(t, sqlDB.Ping(), "superseded handle should be closed")
	}
	sqlDB, err := opened[3].DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Ping())
}
