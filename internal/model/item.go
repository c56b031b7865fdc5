// Package model defines data structures used throughout the application.
package model

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Item represents a product held by the item store.
type Item struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Price       float64 `json:"price"`
	InStock     bool    `json:"in_stock"`
}

// Clone returns a deep copy of the item.
func (i Item) Clone() Item {
	if i.Description != nil {
		desc := *i.Description
		i.Description = &desc
	}
	return i
}

// ItemInput is the request payload for creating or replacing an item.
// Pointer fields distinguish an absent field from its zero value.
type ItemInput struct {
	ID          *int     `json:"id"`
	Name        *string  `json:"name" validate:"required,min=1"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" validate:"required"`
	InStock     *bool    `json:"in_stock"`

	decodeErrs []FieldError
}

// Validate checks that the payload carries every required field.
// It returns a *ValidationError describing each failing field, including
// values UnmarshalJSON could not coerce.
func (in *ItemInput) Validate() error {
	details := append([]FieldError(nil), in.decodeErrs...)

	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate item: %w", err)
		}
		for _, fe := range verrs {
			if !in.failedDecoding(fe.Field()) {
				details = append(details, fieldErrorFrom(fe))
			}
		}
	}

	if len(details) == 0 {
		return nil
	}

	sort.SliceStable(details, func(i, j int) bool {
		return fieldIndex(details[i].Loc) < fieldIndex(details[j].Loc)
	})
	return NewValidationError(details...)
}

func (in *ItemInput) failedDecoding(field string) bool {
	for _, d := range in.decodeErrs {
		if len(d.Loc) == 2 && d.Loc[1] == field {
			return true
		}
	}
	return false
}

func fieldIndex(loc []string) int {
	if len(loc) == 2 {
		for i, f := range itemFields {
			if f == loc[1] {
				return i
			}
		}
	}
	return len(itemFields)
}

// ToItem converts the payload into an Item, applying defaults.
// Any client-supplied id is dropped; the store owns identifiers.
func (in *ItemInput) ToItem() *Item {
	item := &Item{InStock: true}

	if in.Name != nil {
		item.Name = *in.Name
	}
	if in.Description != nil {
		desc := *in.Description
		item.Description = &desc
	}
	if in.Price != nil {
		item.Price = *in.Price
	}
	if in.InStock != nil {
		item.InStock = *in.InStock
	}

	return item
}

// Validation error types reported in FieldError.Type.
const (
	ErrTypeMissing        = "missing"
	ErrTypeStringTooShort = "string_too_short"
	ErrTypeJSONInvalid    = "json_invalid"
	ErrTypeIntParsing     = "int_parsing"
)

// FieldError describes one structural problem with a request.
// Loc is the path to the offending value, e.g. ["body", "price"].
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// ValidationError groups the field errors of a rejected request.
type ValidationError struct {
	Details []FieldError
}

// NewValidationError creates a ValidationError from the given details.
func NewValidationError(details ...FieldError) *ValidationError {
	return &ValidationError{Details: details}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		parts = append(parts, strings.Join(d.Loc, ".")+": "+d.Msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func fieldErrorFrom(fe validator.FieldError) FieldError {
	loc := []string{"body", fe.Field()}

	switch fe.Tag() {
	case "required":
		return FieldError{Loc: loc, Msg: "Field required", Type: ErrTypeMissing}
	case "min":
		return FieldError{
			Loc:  loc,
			Msg:  fmt.Sprintf("String should have at least %s character", fe.Param()),
			Type: ErrTypeStringTooShort,
		}
	default:
		return FieldError{
			Loc:  loc,
			Msg:  fmt.Sprintf("Field failed %q validation", fe.Tag()),
			Type: fe.Tag(),
		}
	}
}
