package services

import (
	"github.com/hyeyeon57/portfolio-backoffice/database"
	"github.com/hyeyeon57/portfolio-backoffice/errs"
)

// Store is the connectivity-aware view of the database that services use.
// database.Connector implements it.
type Store interface {
	IsConnected() bool
	Database() database.Database
	MarkDisconnected(cause error)
}

// connected fails fast with 503 while the store is down. It is checked on
// every call because the connection may drop between calls.
func connected(store Store) (database.Database, error) {
	if store == nil || !store.IsConnected() {
		return database.Database{}, errs.NewServiceUnavailableError("database")
	}
	return store.Database(), nil
}

// databaseError classifies a failed query. A lost connection also marks the
// store down so the next request goes through the reconnect path.
func databaseError(store Store, op, entity string, err error) *errs.ApiErr {
	dbErr := errs.NewDatabaseError(op, entity, err)
	if errs.IsDatabaseConnectionError(dbErr) && store != nil {
		store.MarkDisconnected(err)
	}
	return dbErr
}

const (
	DefaultPage  = 1
	DefaultLimit = 50
	MaxLimit     = 500
)

// Page is a normalized page request.
type Page struct {
	Page  int
	Limit int
}

// NewPage clamps page and limit to sane values.
func NewPage(page, limit int) Page {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Page{Page: page, Limit: limit}
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// PageOf is one page of records with the total across all pages.
type PageOf[T any] struct {
	Items []T
	Total int64
	Page  int
	Limit int
}
