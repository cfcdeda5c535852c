package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Category string

const (
	CategoryNew       Category = "new"
	CategoryRenewal   Category = "renewal"
	CategoryApp       Category = "app"
	CategoryWeb       Category = "web"
	CategoryProposal  Category = "proposal"
	CategoryUsability Category = "usability"
)

var Categories = []Category{
	CategoryNew, CategoryRenewal, CategoryApp, CategoryWeb, CategoryProposal, CategoryUsability,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Project is a portfolio entry. ExternalID is the stable identifier exposed
// as "id"; the database identity is exposed as "_id".
type Project struct {
	ID              uuid.UUID                   `json:"_id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	ExternalID      string                      `json:"id" db:"external_id" gorm:"column:external_id;type:text;not null;uniqueIndex"`
	Title           string                      `json:"title" db:"title" gorm:"type:text;not null"`
	Subtitle        string                      `json:"subtitle,omitempty" db:"subtitle" gorm:"type:text"`
	Description     string                      `json:"description" db:"description" gorm:"type:text;not null"`
	FullDescription string                      `json:"fullDescription,omitempty" db:"full_description" gorm:"type:text"`
	Image           string                      `json:"image,omitempty" db:"image" gorm:"type:text"`
	Images          datatypes.JSONSlice[string] `json:"images" db:"images"`
	Tags            datatypes.JSONSlice[string] `json:"tags" db:"tags"`
	Category        Category                    `json:"category" db:"category" gorm:"type:text;not null"`
	Date            string                      `json:"date,omitempty" db:"date" gorm:"type:text"`
	Role            string                      `json:"role,omitempty" db:"role" gorm:"type:text"`
	Duration        string                      `json:"duration,omitempty" db:"duration" gorm:"type:text"`
	Team            string                      `json:"team,omitempty" db:"team" gorm:"type:text"`
	Achievements    datatypes.JSONSlice[string] `json:"achievements" db:"achievements"`
	Link            string                      `json:"link,omitempty" db:"link" gorm:"type:text"`
	Featured        bool                        `json:"featured" db:"featured" gorm:"not null;default:false"`
	CreatedAt       time.Time                   `json:"createdAt" db:"created_at" gorm:"index"`
	UpdatedAt       time.Time                   `json:"updatedAt" db:"updated_at"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *Project) BeforeSave(tx *gorm.DB) error {
	p.Normalize()
	return p.Validate()
}

// Normalize trims text fields and replaces nil sequences with empty ones so
// they persist and serialize as [] rather than null.
func (p *Project) Normalize() {
	p.ExternalID = strings.TrimSpace(p.ExternalID)
	p.Title = strings.TrimSpace(p.Title)
	p.Subtitle = strings.TrimSpace(p.Subtitle)
	p.Category = Category(strings.TrimSpace(string(p.Category)))
	if p.Images == nil {
		p.Images = datatypes.JSONSlice[string]{}
	}
	if p.Tags == nil {
		p.Tags = datatypes.JSONSlice[string]{}
	}
	if p.Achievements == nil {
		p.Achievements = datatypes.JSONSlice[string]{}
	}
}

func (p *Project) Validate() error {
	verr := &ValidationError{Model: "Project"}
	verr.require("id", p.ExternalID)
	verr.require("title", p.Title)
	verr.require("description", p.Description)
	verr.require("category", string(p.Category))
	if p.Category != "" && !p.Category.Valid() {
		verr.invalid("category", fmt.Sprintf("%q is not one of %v", p.Category, Categories))
	}
	if verr.empty() {
		return nil
	}
	return verr
}
