package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Contact is a message submitted through the public contact form.
type Contact struct {
	ID        uuid.UUID `json:"_id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	Name      string    `json:"name" db:"name" gorm:"type:text;not null"`
	Email     string    `json:"email" db:"email" gorm:"type:text;not null"`
	Message   string    `json:"message" db:"message" gorm:"type:text;not null"`
	Read      bool      `json:"read" db:"read" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"createdAt" db:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

func (c *Contact) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (c *Contact) BeforeSave(tx *gorm.DB) error {
	return c.Validate()
}

func (c *Contact) Validate() error {
	verr := &ValidationError{Model: "Contact"}
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	verr.require("name", c.Name)
	verr.require("email", c.Email)
	verr.require("message", c.Message)
	if verr.empty() {
		return nil
	}
	return verr
}
