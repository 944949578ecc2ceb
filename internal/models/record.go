// Package models defines the domain types for recordbook.
package models

import (
	"fmt"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/recordbook/internal/apperr"
)

// Field names accepted by find, delete and edit.
const (
	FieldID      = "id"
	FieldName    = "name"
	FieldAge     = "age"
	FieldAddress = "address"
)

// MaxAge bounds the age accepted on input.
const MaxAge = 200

// Record is one entry of the store.
type Record struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Age     int    `json:"age"`
	Address string `json:"address"`
}

// textRule rejects characters that cannot be represented in the
// line format: the field delimiter and line terminators.
var textRule = validation.NewStringRule(func(s string) bool {
	for _, c := range s {
		if c == ',' || c == '\n' || c == '\r' {
			return false
		}
	}
	return true
}, "must not contain commas or line breaks")

// Validate checks a record before it is written.
func (r *Record) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ID, validation.Min(0)),
		validation.Field(&r.Name, validation.Required, textRule),
		validation.Field(&r.Age, validation.Min(0), validation.Max(MaxAge)),
		validation.Field(&r.Address, validation.Required, textRule),
	)
}

// FieldValue returns the textual form of field as it is compared by
// find and delete. Numeric fields use their canonical decimal form.
func (r Record) FieldValue(field string) (string, bool) {
	switch field {
	case FieldID:
		return strconv.Itoa(r.ID), true
	case FieldName:
		return r.Name, true
	case FieldAge:
		return strconv.Itoa(r.Age), true
	case FieldAddress:
		return r.Address, true
	}
	return "", false
}

// Matches reports whether the named field textually equals value.
// Unknown fields match nothing.
func (r Record) Matches(field, value string) bool {
	v, ok := r.FieldValue(field)
	return ok && v == value
}

// IsEditable reports whether field may be changed after insert.
func IsEditable(field string) bool {
	return field == FieldName || field == FieldAge || field == FieldAddress
}

// IsField reports whether field names a record field.
func IsField(field string) bool {
	return field == FieldID || IsEditable(field)
}

// WithField returns a copy of r with field set to value. The id cannot be
// changed.
func (r Record) WithField(field, value string) (Record, error) {
	if !IsEditable(field) {
		return Record{}, fmt.Errorf("%w: %q", apperr.ErrInvalidField, field)
	}
	switch field {
	case FieldName:
		r.Name = value
	case FieldAge:
		age, err := strconv.Atoi(value)
		if err != nil {
			return Record{}, fmt.Errorf("%w: age %q is not an integer", apperr.ErrInvalidValue, value)
		}
		r.Age = age
	case FieldAddress:
		r.Address = value
	}
	if err := r.Validate(); err != nil {
		return Record{}, fmt.Errorf("%w: %v", apperr.ErrInvalidValue, err)
	}
	return r, nil
}

// String formats the record for display.
func (r Record) String() string {
	return fmt.Sprintf("%d, %s, %d, %s", r.ID, r.Name, r.Age, r.Address)
}
