// Package parser turns free-text collaborator input into typed store calls.
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/starford/recordbook/internal/apperr"
	"github.com/starford/recordbook/internal/models"
)

var (
	digitsRe = regexp.MustCompile(`^\d+$`)
	fieldRe  = regexp.MustCompile(`^[a-z]+$`)
)

// Assignment is a parsed "field=value" query.
type Assignment struct {
	Field string
	Value string
}

// ParseAssignment splits input at the first '='. The field is trimmed and
// lower-cased; the value is kept as typed so that it can match stored text
// exactly.
func ParseAssignment(input string) (Assignment, error) {
	field, value, ok := strings.Cut(input, "=")
	if !ok {
		return Assignment{}, fmt.Errorf("%w: expected field=value, got %q", apperr.ErrInvalidInput, input)
	}
	field = strings.ToLower(strings.TrimSpace(field))
	if !fieldRe.MatchString(field) {
		return Assignment{}, fmt.Errorf("%w: bad field name %q", apperr.ErrInvalidInput, field)
	}
	return Assignment{Field: field, Value: value}, nil
}

// ParseRecord parses "id,name,age,address". Each part is trimmed; id and age
// must be unsigned integers and name and address must be non-empty. Commas
// inside values are not supported.
func ParseRecord(input string) (models.Record, error) {
	parts := strings.Split(input, ",")
	if len(parts) != 4 {
		return models.Record{}, fmt.Errorf("%w: expected id,name,age,address", apperr.ErrInvalidInput)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return ParseFields(parts[0], parts[1], parts[2], parts[3])
}

// ParseFields builds a record from separately supplied values.
func ParseFields(id, name, age, address string) (models.Record, error) {
	idN, err := ParseID(id)
	if err != nil {
		return models.Record{}, err
	}
	age = strings.TrimSpace(age)
	if !digitsRe.MatchString(age) {
		return models.Record{}, fmt.Errorf("%w: age %q is not a number", apperr.ErrInvalidInput, age)
	}
	ageN, err := strconv.Atoi(age)
	if err != nil {
		return models.Record{}, fmt.Errorf("%w: age %q out of range", apperr.ErrInvalidInput, age)
	}
	if strings.TrimSpace(name) == "" || strings.TrimSpace(address) == "" {
		return models.Record{}, fmt.Errorf("%w: name and address are required", apperr.ErrInvalidInput)
	}
	return models.Record{ID: idN, Name: name, Age: ageN, Address: address}, nil
}

// ParseID parses a record id typed by a user.
func ParseID(input string) (int, error) {
	input = strings.TrimSpace(input)
	if !digitsRe.MatchString(input) {
		return 0, fmt.Errorf("%w: id %q is not a number", apperr.ErrInvalidInput, input)
	}
	id, err := strconv.Atoi(input)
	if err != nil {
		return 0, fmt.Errorf("%w: id %q out of range", apperr.ErrInvalidInput, input)
	}
	return id, nil
}
