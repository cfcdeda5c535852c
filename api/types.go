package api

import (
	"time"

	"github.com/hyeyeon57/portfolio-backoffice/auth"
	"github.com/hyeyeon57/portfolio-backoffice/database"
	"github.com/hyeyeon57/portfolio-backoffice/services"
	"github.com/hyeyeon57/portfolio-backoffice/storage"
)

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	authHandler    authHandler
	projectHandler projectHandler
	visitorHandler visitorHandler
	contactHandler contactHandler
	migrateHandler migrateHandler
	adminHandler   adminHandler
}

// Dependencies are the process-wide objects the router is built from.
type Dependencies struct {
	Connector *database.Connector
	Files     storage.Storage
	Verifier  *auth.Verifier
	Guard     auth.Guard
	Notifier  services.ContactNotifier
	Assets    AssetLocator
	// StatsLocation is the zone "today" is counted in.
	StatsLocation *time.Location
}
