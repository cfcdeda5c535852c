package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"gorm.io/datatypes"

	"github.com/hyeyeon57/portfolio-backoffice/models"
)

// FlexString accepts a JSON string or number.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = FlexString(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number: %w", err)
	}
	*s = FlexString(n.String())
	return nil
}

// ProjectInput carries the fields a client supplied. Nil means absent.
type ProjectInput struct {
	ExternalID      *FlexString `json:"id" yaml:"id"`
	Title           *string     `json:"title" yaml:"title"`
	Subtitle        *string     `json:"subtitle" yaml:"subtitle"`
	Description     *string     `json:"description" yaml:"description"`
	FullDescription *string     `json:"fullDescription" yaml:"fullDescription"`
	Image           *string     `json:"image" yaml:"image"`
	Images          *[]string   `json:"images" yaml:"images"`
	Tags            *[]string   `json:"tags" yaml:"tags"`
	Category        *string     `json:"category" yaml:"category"`
	Date            *string     `json:"date" yaml:"date"`
	Role            *string     `json:"role" yaml:"role"`
	Duration        *string     `json:"duration" yaml:"duration"`
	Team            *string     `json:"team" yaml:"team"`
	Achievements    *[]string   `json:"achievements" yaml:"achievements"`
	Link            *string     `json:"link" yaml:"link"`
	Featured        *bool       `json:"featured" yaml:"featured"`
}

// DecodeProjectInput reads a JSON object; unknown fields are ignored.
func DecodeProjectInput(r io.Reader) (ProjectInput, error) {
	var in ProjectInput
	err := json.NewDecoder(r).Decode(&in)
	return in, err
}

func (in ProjectInput) externalID() string {
	if in.ExternalID == nil {
		return ""
	}
	return string(*in.ExternalID)
}

// applyContent copies every supplied field except the external id and the
// image sequence onto p.
func (in ProjectInput) applyContent(p *models.Project) {
	setString(&p.Title, in.Title)
	setString(&p.Subtitle, in.Subtitle)
	setString(&p.Description, in.Description)
	setString(&p.FullDescription, in.FullDescription)
	setString(&p.Image, in.Image)
	setString(&p.Date, in.Date)
	setString(&p.Role, in.Role)
	setString(&p.Duration, in.Duration)
	setString(&p.Team, in.Team)
	setString(&p.Link, in.Link)
	if in.Category != nil {
		p.Category = models.Category(*in.Category)
	}
	if in.Tags != nil {
		p.Tags = datatypes.JSONSlice[string](*in.Tags)
	}
	if in.Achievements != nil {
		p.Achievements = datatypes.JSONSlice[string](*in.Achievements)
	}
	if in.Featured != nil {
		p.Featured = *in.Featured
	}
}

// newProject builds a record from a create payload.
func (in ProjectInput) newProject() *models.Project {
	p := &models.Project{ExternalID: in.externalID()}
	in.applyContent(p)
	if in.Images != nil {
		p.Images = datatypes.JSONSlice[string](*in.Images)
	}
	return p
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
