package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Visitor is one logged page view. Date is the most recent sighting and may
// be refreshed by deduplication; CreatedAt is set once.
type Visitor struct {
	ID        uuid.UUID `json:"_id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	IP        string    `json:"ip" db:"ip" gorm:"column:ip;type:text;index:idx_visitors_identity,priority:1"`
	UserAgent string    `json:"userAgent" db:"user_agent" gorm:"type:text;index:idx_visitors_identity,priority:2"`
	Path      string    `json:"path" db:"path" gorm:"type:text;not null;default:'/';index:idx_visitors_identity,priority:3"`
	Date      time.Time `json:"date" db:"date" gorm:"not null;index"`
	CreatedAt time.Time `json:"createdAt" db:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

func (v *Visitor) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.Path == "" {
		v.Path = "/"
	}
	return nil
}
