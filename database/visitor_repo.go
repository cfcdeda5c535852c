package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hyeyeon57/portfolio-backoffice/models"
)

type VisitorRepo struct {
	db *gorm.DB
}

func NewVisitorRepo(db *gorm.DB) *VisitorRepo {
	return &VisitorRepo{db}
}

// TimeField selects which timestamp a count is taken over.
type TimeField string

const (
	ByDate      TimeField = "date"
	ByCreatedAt TimeField = "created_at"
)

// FindRecent returns the latest visit for the triple whose date falls in
// [from, to), or nil when there is none.
func (r *VisitorRepo) FindRecent(ctx context.Context, ip, userAgent, path string, from, to time.Time) (*models.Visitor, error) {
	var found []models.Visitor
	err := r.db.WithContext(ctx).
		Where("ip = ? AND user_agent = ? AND path = ?", ip, userAgent, path).
		Where("date >= ? AND date < ?", from, to).
		Order("date DESC").
		Limit(1).
		Find(&found).Error
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return &found[0], nil
}

func (r *VisitorRepo) Add(ctx context.Context, visitor *models.Visitor) error {
	return r.db.WithContext(ctx).Create(visitor).Error
}

// Touch moves a visit's date forward to at.
func (r *VisitorRepo) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Visitor{}).
		Where("id = ?", id).
		Update("date", at).Error
}

// List returns a page of visits, most recent sighting first.
func (r *VisitorRepo) List(ctx context.Context, offset, limit int) ([]models.Visitor, int64, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	visitors := []models.Visitor{}
	err = r.db.WithContext(ctx).
		Order("date DESC").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&visitors).Error
	return visitors, total, err
}

func (r *VisitorRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Visitor{}).Count(&total).Error
	return total, err
}

// CountSince counts visits whose field is at or after since.
func (r *VisitorRepo) CountSince(ctx context.Context, field TimeField, since time.Time) (int64, error) {
	column := ByDate
	if field == ByCreatedAt {
		column = ByCreatedAt
	}

	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Visitor{}).
		Where(string(column)+" >= ?", since).
		Count(&n).Error
	return n, err
}
