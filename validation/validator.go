// Package validation checks entity payloads before they reach the store:
// format-level rules declared as struct tags, and the id rules that decide
// whether a write is a legal create or update.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hmpharma/pharmacy-api/entities"
)

// Write-intent failures, mapped to 400 by the HTTP layer.
var (
	ErrIDExists   = errors.New("a new record cannot already have an id")
	ErrIDNull     = errors.New("record id is required")
	ErrIDMismatch = errors.New("record id does not match the request path")
)

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	return &Validator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// ValidateCreate checks a record about to be inserted: no preset identifier
// and all field formats valid.
func (v *Validator) ValidateCreate(rec entities.Record) error {
	if rec.GetID() != nil {
		return ErrIDExists
	}
	return v.fields(rec)
}

// ValidateUpdate checks a record about to replace the one at pathID.
func (v *Validator) ValidateUpdate(rec entities.Record, pathID int64) error {
	if err := checkIDs(rec, pathID); err != nil {
		return err
	}
	return v.fields(rec)
}

// ValidatePatch checks the id rules for a partial update. Field formats are
// checked after the merge, on the resulting record.
func (v *Validator) ValidatePatch(rec entities.Record, pathID int64) error {
	return checkIDs(rec, pathID)
}

// ValidateRecord checks field formats only; used on merged patch results.
func (v *Validator) ValidateRecord(rec entities.Record) error {
	return v.fields(rec)
}

func checkIDs(rec entities.Record, pathID int64) error {
	if rec.GetID() == nil {
		return ErrIDNull
	}
	if *rec.GetID() != pathID {
		return ErrIDMismatch
	}
	return nil
}

func (v *Validator) fields(rec entities.Record) error {
	err := v.validate.Struct(rec)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("field %s failed %s validation", fe.Field(), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}
