package database

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hyeyeon57/portfolio-backoffice/models"
)

type ProjectRepo struct {
	db *gorm.DB
}

func NewProjectRepo(db *gorm.DB) *ProjectRepo {
	return &ProjectRepo{db}
}

// LookupOutcome records which key resolved a project.
type LookupOutcome int

const (
	NotFound LookupOutcome = iota
	FoundByInternalID
	FoundByExternalID
)

func (o LookupOutcome) String() string {
	switch o {
	case FoundByInternalID:
		return "internal_id"
	case FoundByExternalID:
		return "external_id"
	default:
		return "not_found"
	}
}

type Lookup struct {
	Project *models.Project
	Outcome LookupOutcome
}

func (l Lookup) Found() bool {
	return l.Outcome != NotFound
}

// List returns a page of projects, newest first, and the total count.
func (r *ProjectRepo) List(ctx context.Context, offset, limit int) ([]models.Project, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Project{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	projects := []models.Project{}
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&projects).Error
	return projects, total, err
}

func (r *ProjectRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Project{}).Count(&total).Error
	return total, err
}

// FindByID returns gorm.ErrRecordNotFound when no row matches.
func (r *ProjectRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).First(&project, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// FindByExternalID returns gorm.ErrRecordNotFound when no row matches.
func (r *ProjectRepo) FindByExternalID(ctx context.Context, externalID string) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).First(&project, "external_id = ?", externalID).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *ProjectRepo) ExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("external_id = ?", externalID).
		Count(&n).Error
	return n > 0, err
}

// Resolve looks key up as an internal id first and falls back to the external
// id. A key that is not a UUID skips the first step; a miss on either step is
// not an error.
func (r *ProjectRepo) Resolve(ctx context.Context, key string) (Lookup, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Lookup{Outcome: NotFound}, nil
	}

	if id, err := uuid.Parse(key); err == nil {
		project, err := r.FindByID(ctx, id)
		switch {
		case err == nil:
			return Lookup{Project: project, Outcome: FoundByInternalID}, nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return Lookup{}, err
		}
	}

	project, err := r.FindByExternalID(ctx, key)
	switch {
	case err == nil:
		return Lookup{Project: project, Outcome: FoundByExternalID}, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return Lookup{Outcome: NotFound}, nil
	default:
		return Lookup{}, err
	}
}

// Add inserts a new project into the database
func (r *ProjectRepo) Add(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

// Update writes every column of an existing project.
func (r *ProjectRepo) Update(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Save(project).Error
}

// Delete removes a project by internal id and reports whether a row existed.
func (r *ProjectRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.Project{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}
