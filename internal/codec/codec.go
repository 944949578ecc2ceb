// Package codec converts records to and from their single-line text form.
//
// A line holds id, name, age and address joined by commas, in that order.
// Values are not quoted or escaped; the address is read as the remainder of
// the line and may therefore contain commas.
package codec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/starford/recordbook/internal/models"
)

// Delimiter separates fields within a line.
const Delimiter = ","

var (
	ErrFormat  = errors.New("codec: line does not have four fields")
	ErrNumeric = errors.New("codec: field is not an integer")
)

// Marshal encodes r as a single line without a terminator.
func Marshal(r models.Record) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(r.ID))
	b.WriteString(Delimiter)
	b.WriteString(r.Name)
	b.WriteString(Delimiter)
	b.WriteString(strconv.Itoa(r.Age))
	b.WriteString(Delimiter)
	b.WriteString(r.Address)
	return b.String()
}

// Unmarshal decodes a line produced by Marshal.
func Unmarshal(line string) (models.Record, error) {
	parts := strings.SplitN(line, Delimiter, 4)
	if len(parts) < 4 {
		return models.Record{}, fmt.Errorf("%w: got %d", ErrFormat, len(parts))
	}
	id, err := strconv.Atoi(parts[0])
	if err != nil {
		return models.Record{}, fmt.Errorf("%w: id %q", ErrNumeric, parts[0])
	}
	age, err := strconv.Atoi(parts[2])
	if err != nil {
		return models.Record{}, fmt.Errorf("%w: age %q", ErrNumeric, parts[2])
	}
	return models.Record{
		ID:      id,
		Name:    parts[1],
		Age:     age,
		Address: parts[3],
	}, nil
}
