package models

import (
	"errors"
	"testing"

	"github.com/starford/recordbook/internal/apperr"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		rec  Record
		ok   bool
	}{
		{"valid", Record{ID: 1, Name: "Alice", Age: 30, Address: "1 Main St"}, true},
		{"zero age", Record{ID: 2, Name: "Baby", Age: 0, Address: "Home"}, true},
		{"missing name", Record{ID: 1, Age: 30, Address: "x"}, false},
		{"missing address", Record{ID: 1, Name: "A", Age: 30}, false},
		{"comma in name", Record{ID: 1, Name: "Smith, J", Age: 30, Address: "x"}, false},
		{"newline in address", Record{ID: 1, Name: "A", Age: 30, Address: "a\nb"}, false},
		{"negative id", Record{ID: -1, Name: "A", Age: 30, Address: "x"}, false},
		{"negative age", Record{ID: 1, Name: "A", Age: -3, Address: "x"}, false},
		{"age too large", Record{ID: 1, Name: "A", Age: MaxAge + 1, Address: "x"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.rec.Validate()
			if tc.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestMatches(t *testing.T) {
	r := Record{ID: 5, Name: "Eve", Age: 30, Address: "Oak"}
	if !r.Matches("id", "5") || !r.Matches("age", "30") || !r.Matches("name", "Eve") || !r.Matches("address", "Oak") {
		t.Error("expected all fields to match")
	}
	if r.Matches("id", "05") {
		t.Error("numeric fields compare by canonical decimal form")
	}
	if r.Matches("nickname", "Eve") {
		t.Error("unknown field should match nothing")
	}
}

func TestWithField(t *testing.T) {
	r := Record{ID: 5, Name: "Eve", Age: 30, Address: "Oak"}

	got, err := r.WithField(FieldAddress, "Pine")
	if err != nil {
		t.Fatalf("WithField: %v", err)
	}
	if got.Address != "Pine" || got.ID != 5 || r.Address != "Oak" {
		t.Errorf("got %+v, original %+v", got, r)
	}

	got, err = r.WithField(FieldAge, "31")
	if err != nil || got.Age != 31 {
		t.Errorf("age edit = %+v, %v", got, err)
	}

	if _, err := r.WithField(FieldAge, "old"); !errors.Is(err, apperr.ErrInvalidValue) {
		t.Errorf("non-numeric age err = %v", err)
	}
	if _, err := r.WithField(FieldName, "a,b"); !errors.Is(err, apperr.ErrInvalidValue) {
		t.Errorf("comma in name err = %v", err)
	}
	if _, err := r.WithField(FieldID, "6"); !errors.Is(err, apperr.ErrInvalidField) {
		t.Errorf("id edit err = %v", err)
	}
	if _, err := r.WithField("email", "x"); !errors.Is(err, apperr.ErrInvalidField) {
		t.Errorf("unknown field err = %v", err)
	}
}
