package models

import (
	"fmt"
	"strings"
)

// ValidationError is returned from model hooks when a record cannot be
// persisted. Missing lists absent required fields; Invalid maps a field to
// the reason its value was rejected.
type ValidationError struct {
	Model   string
	Missing []string
	Invalid map[string]string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required field: "+strings.Join(e.Missing, ", "))
	}
	for field, reason := range e.Invalid {
		parts = append(parts, fmt.Sprintf("invalid %s: %s", field, reason))
	}
	return fmt.Sprintf("%s validation failed: %s", e.Model, strings.Join(parts, "; "))
}

func (e *ValidationError) empty() bool {
	return len(e.Missing) == 0 && len(e.Invalid) == 0
}

func (e *ValidationError) require(field, value string) {
	if strings.TrimSpace(value) == "" {
		e.Missing = append(e.Missing, field)
	}
}

func (e *ValidationError) invalid(field, reason string) {
	if e.Invalid == nil {
		e.Invalid = make(map[string]string)
	}
	e.Invalid[field] = reason
}
