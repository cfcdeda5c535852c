package api

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyeyeon57/portfolio-backoffice/services"
)

type migrateHandler struct {
	responder   Responder
	logger      zerolog.Logger
	runner      *services.MigrationRunner
	catalogPath string
}

func newMigrateHandler(runner *services.MigrationRunner, catalogPath string) migrateHandler {
	logger := log.With().Str("handlerName", "migrateHandler").Logger()

	return migrateHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		runner:      runner,
		catalogPath: catalogPath,
	}
}

// migrateProjects upserts the project catalog by external id
// @Router /api/migrate/projects [post]
func (h migrateHandler) migrateProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		catalog, err := services.LoadCatalog(h.catalogPath)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		report, err := h.runner.Run(r.Context(), catalog)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		username, _ := ctxGetUsername(r.Context())
		h.logger.Info().Str("username", username).Stringer("report", report).Msg("catalog migrated")
		h.responder.WriteSuccess(w, nil, envelope{
			"message": "Migration complete",
			"added":   report.Added,
			"updated": report.Updated,
			"skipped": report.Skipped,
			"total":   report.Total,
		})
	}
}
