package api

import (
	"time"

	"github.com/hyeyeon57/portfolio-backoffice/config"
	"github.com/hyeyeon57/portfolio-backoffice/services"
)

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(deps Dependencies, cfg map[string]string, startupTime time.Time) *routeHandlers {
	publicBaseURL := config.GetString(cfg, "PUBLIC_BASE_URL", "")
	maxUploadBytes := int64(config.GetInt(cfg, "MAX_UPLOAD_MB", 50)) << 20

	projects := services.NewProjectService(deps.Connector, deps.Files, publicBaseURL)
	visitors := services.NewVisitorService(deps.Connector, deps.StatsLocation)
	contacts := services.NewContactService(deps.Connector, deps.Notifier)
	migration := services.NewMigrationRunner(deps.Connector)

	return &routeHandlers{
		authHandler:    newAuthHandler(deps.Verifier, deps.Guard),
		projectHandler: newProjectHandler(projects, maxUploadBytes),
		visitorHandler: newVisitorHandler(visitors),
		contactHandler: newContactHandler(contacts),
		migrateHandler: newMigrateHandler(migration, config.GetString(cfg, "MIGRATION_CATALOG_PATH", "")),
		adminHandler:   newAdminHandler(deps.Assets, deps.Guard, deps.Connector, startupTime),
	}
}
