package board

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mr1hm/go-community-alerts/internal/models"
)

const (
	ReasonMissing = "missing"
	ReasonInvalid = "invalid"
)

type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError is returned when a draft cannot be admitted to the board.
// It is always recoverable: the submitter corrects the draft and resubmits.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	var missing, invalid []string
	for _, f := range e.Fields {
		if f.Reason == ReasonInvalid {
			invalid = append(invalid, f.Field)
		} else {
			missing = append(missing, f.Field)
		}
	}

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing required field: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "invalid value: "+strings.Join(invalid, ", "))
	}
	return strings.Join(parts, "; ")
}

// Missing returns the names of required fields that were empty.
func (e *ValidationError) Missing() []string {
	var out []string
	for _, f := range e.Fields {
		if f.Reason == ReasonMissing {
			out = append(out, f.Field)
		}
	}
	return out
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validate checks the required fields of a draft and returns it normalized:
// text trimmed and severity defaulted to medium.
func Validate(d models.Draft) (models.Draft, error) {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.Location = strings.TrimSpace(d.Location)
	d.Category = models.Category(strings.TrimSpace(string(d.Category)))
	d.Severity = models.Severity(strings.TrimSpace(string(d.Severity)))

	var fields []FieldError
	if d.Title == "" {
		fields = append(fields, FieldError{Field: "title", Reason: ReasonMissing})
	}
	if d.Description == "" {
		fields = append(fields, FieldError{Field: "description", Reason: ReasonMissing})
	}
	switch {
	case d.Category == "":
		fields = append(fields, FieldError{Field: "category", Reason: ReasonMissing})
	case !d.Category.Valid():
		fields = append(fields, FieldError{Field: "category", Reason: ReasonInvalid})
	}

	if d.Severity == "" {
		d.Severity = models.SeverityMedium
	} else if !d.Severity.Valid() {
		fields = append(fields, FieldError{Field: "severity", Reason: ReasonInvalid})
	}

	if len(fields) > 0 {
		return d, &ValidationError{Fields: fields}
	}
	return d, nil
}

// Submit validates the draft and, if it passes, adds it to the store.
func (s *Store) Submit(d models.Draft) (models.Alert, error) {
	draft, err := Validate(d)
	if err != nil {
		s.logger.Debug("submission rejected", "error", err)
		return models.Alert{}, fmt.Errorf("submit alert: %w", err)
	}
	return s.AddAlert(draft), nil
}
