package database

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/hyeyeon57/portfolio-backoffice/models"
)

// Opener establishes a new connection to the backing store.
type Opener func(ctx context.Context) (*gorm.DB, error)

var ErrNotConnected = errors.New("database not connected")

type ConnectorOptions struct {
	// ConnectTimeout bounds a single connection attempt.
	ConnectTimeout time.Duration
	// RetryInterval is the minimum gap between failed attempts.
	RetryInterval time.Duration
	// AfterConnect runs once per established connection. Defaults to
	// models.Migrate.
	AfterConnect func(*gorm.DB) error
}

// Connector owns the process-wide database handle. The handle is established
// lazily, may drop at any time, and is observable through IsConnected.
type Connector struct {
	open  Opener
	opts  ConnectorOptions
	now   func() time.Time
	group singleflight.Group

	mu          sync.RWMutex
	db          *gorm.DB
	database    Database
	connected   bool
	lastAttempt time.Time
	lastErr     error

	logger zerolog.Logger
}

func NewConnector(open Opener, opts ConnectorOptions) *Connector {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 10 * time.Second
	}
	if opts.AfterConnect == nil {
		opts.AfterConnect = models.Migrate
	}
	return &Connector{
		open:   open,
		opts:   opts,
		now:    time.Now,
		logger: log.With().Str("component", "connector").Logger(),
	}
}

// NewConnectorFromDB wraps an already open handle. Reconnecting reuses db.
func NewConnectorFromDB(db *gorm.DB) *Connector {
	c := NewConnector(func(context.Context) (*gorm.DB, error) { return db, nil }, ConnectorOptions{})
	c.setConnected(db)
	return c
}

func (c *Connector) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Database returns the repositories bound to the current handle. The zero
// Database is returned while disconnected.
func (c *Connector) Database() Database {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.database
}

// DB returns the current handle, or nil while disconnected.
func (c *Connector) DB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.connected {
		return nil
	}
	return c.db
}

func (c *Connector) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Connect performs one bounded connection attempt. Concurrent callers share
// the same attempt.
func (c *Connector) Connect(ctx context.Context) error {
	if c.IsConnected() {
		return nil
	}

	_, err, _ := c.group.Do("connect", func() (interface{}, error) {
		if c.IsConnected() {
			return nil, nil
		}
		c.mu.Lock()
		c.lastAttempt = c.now()
		c.mu.Unlock()

		db, err := c.openWithTimeout(ctx)
		if err == nil {
			err = c.opts.AfterConnect(db)
		}
		if err != nil {
			c.mu.Lock()
			c.lastErr = err
			c.mu.Unlock()
			c.logger.Error().Err(err).Msg("database connection failed, running degraded")
			return nil, err
		}

		c.setConnected(db)
		c.logger.Info().Msg("database connected")
		return nil, nil
	})
	return err
}

// EnsureConnected attempts a connection if the store is down and the retry
// interval since the last attempt has elapsed. It reports the resulting state.
func (c *Connector) EnsureConnected(ctx context.Context) bool {
	if c.IsConnected() {
		return true
	}

	c.mu.RLock()
	wait := !c.lastAttempt.IsZero() && c.now().Sub(c.lastAttempt) < c.opts.RetryInterval
	c.mu.RUnlock()
	if wait {
		return false
	}

	return c.Connect(ctx) == nil
}

func (c *Connector) openWithTimeout(ctx context.Context) (*gorm.DB, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.ConnectTimeout)
	defer cancel()

	type result struct {
		db  *gorm.DB
		err error
	}
	done := make(chan result, 1)
	go func() {
		db, err := c.open(ctx)
		done <- result{db, err}
	}()

	select {
	case r := <-done:
		return r.db, r.err
	case <-ctx.Done():
		// Close a handle that arrives after we gave up on it.
		go func() {
			if r := <-done; r.err == nil && r.db != nil {
				closeDB(r.db)
			}
		}()
		return nil, ctx.Err()
	}
}

// setConnected installs db and closes the handle it replaces, if any.
func (c *Connector) setConnected(db *gorm.DB) {
	c.mu.Lock()
	previous := c.db
	c.db = db
	c.database = New(db)
	c.connected = true
	c.lastErr = nil
	c.mu.Unlock()

	if previous != nil && previous != db {
		if err := closeDB(previous); err != nil {
			c.logger.Warn().Err(err).Msg("failed to close superseded database handle")
		}
	}
}

// MarkDisconnected flips the observable state. The stale handle is kept until
// the next successful connection replaces and closes it.
func (c *Connector) MarkDisconnected(cause error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connected {
		c.logger.Warn().Err(cause).Msg("database marked disconnected")
	}
	c.connected = false
	c.database = Database{}
	c.lastErr = cause
}

// Ping checks the live handle and marks the connector disconnected when it
// fails.
func (c *Connector) Ping(ctx context.Context) error {
	db := c.DB()
	if db == nil {
		return ErrNotConnected
	}
	sqlDB, err := db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		c.MarkDisconnected(err)
	}
	return err
}

// Watch pings on every tick until ctx is done, reconnecting when down.
func (c *Connector) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.IsConnected() {
				pingCtx, cancel := context.WithTimeout(ctx, c.opts.ConnectTimeout)
				_ = c.Ping(pingCtx)
				cancel()
				continue
			}
			c.EnsureConnected(ctx)
		}
	}
}

func (c *Connector) Close() error {
	c.mu.Lock()
	db := c.db
	c.db = nil
	c.database = Database{}
	c.connected = false
	c.mu.Unlock()

	if db == nil {
		return nil
	}
	return closeDB(db)
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
