package database

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hyeyeon57/portfolio-backoffice/models"
)

type ContactRepo struct {
	db *gorm.DB
}

func NewContactRepo(db *gorm.DB) *ContactRepo {
	return &ContactRepo{db}
}

func (r *ContactRepo) List(ctx context.Context, offset, limit int) ([]models.Contact, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Contact{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	contacts := []models.Contact{}
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&contacts).Error
	return contacts, total, err
}

// FindByID returns gorm.ErrRecordNotFound when no row matches.
func (r *ContactRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Contact, error) {
	var contact models.Contact
	if err := r.db.WithContext(ctx).First(&contact, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &contact, nil
}

func (r *ContactRepo) Add(ctx context.Context, contact *models.Contact) error {
	return r.db.WithContext(ctx).Create(contact).Error
}

func (r *ContactRepo) Update(ctx context.Context, contact *models.Contact) error {
	return r.db.WithContext(ctx).Save(contact).Error
}

func (r *ContactRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.Contact{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}
