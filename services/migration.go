package services

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/hyeyeon57/portfolio-backoffice/errs"
)

//go:embed catalog/projects.json
var builtinCatalog []byte

// MigrationReport counts the outcome of one catalog run.
type MigrationReport struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Total   int `json:"total"`
}

type MigrationRunner struct {
	store  Store
	logger zerolog.Logger
}

func NewMigrationRunner(store Store) *MigrationRunner {
	return &MigrationRunner{
		store:  store,
		logger: log.With().Str("service", "migration").Logger(),
	}
}

// LoadCatalog reads seeds from path, or the built-in catalog when path is
// empty. Files ending in .yaml or .yml are read as YAML, anything else as
// JSON.
func LoadCatalog(path string) ([]ProjectInput, error) {
	data := builtinCatalog
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, errs.NewConfigError("MIGRATION_CATALOG_PATH", err)
		}
	}

	var seeds []ProjectInput
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &seeds); err != nil {
			return nil, errs.NewInvalidConfigError("MIGRATION_CATALOG_PATH", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&seeds); err != nil {
			return nil, errs.NewInvalidConfigError("MIGRATION_CATALOG_PATH", err)
		}
	}
	return seeds, nil
}

// Run upserts every seed by external id. A failing seed is counted as
// skipped and the run continues; writes are not wrapped in a transaction.
func (m *MigrationRunner) Run(ctx context.Context, catalog []ProjectInput) (MigrationReport, error) {
	db, err := connected(m.store)
	if err != nil {
		return MigrationReport{}, err
	}

	report := MigrationReport{Total: len(catalog)}
	repo := db.ProjectRepo()

	for i, seed := range catalog {
		id := strings.TrimSpace(seed.externalID())
		logger := m.logger.With().Int("index", i).Str("id", id).Logger()

		if id == "" {
			logger.Warn().Msg("seed has no id, skipped")
			report.Skipped++
			continue
		}

		existing, err := repo.FindByExternalID(ctx, id)
		switch {
		case err == nil:
			seed.applyContent(existing)
			if seed.Images != nil {
				existing.Images = datatypes.JSONSlice[string](*seed.Images)
			}
			if err := repo.Update(ctx, existing); err != nil {
				logger.Error().Err(err).Msg("failed to update project")
				report.Skipped++
				continue
			}
			logger.Debug().Msg("project updated")
			report.Updated++
		case errors.Is(err, gorm.ErrRecordNotFound):
			project := seed.newProject()
			project.ExternalID = id
			if err := repo.Add(ctx, project); err != nil {
				logger.Error().Err(err).Msg("failed to add project")
				report.Skipped++
				continue
			}
			logger.Debug().Msg("project added")
			report.Added++
		default:
			logger.Error().Err(err).Msg("failed to look up project")
			report.Skipped++
		}
	}

	m.logger.Info().
		Int("added", report.Added).
		Int("updated", report.Updated).
		Int("skipped", report.Skipped).
		Int("total", report.Total).
		Msg("project migration finished")
	return report, nil
}

func (r MigrationReport) String() string {
	return fmt.Sprintf("added=%d updated=%d skipped=%d total=%d", r.Added, r.Updated, r.Skipped, r.Total)
}
