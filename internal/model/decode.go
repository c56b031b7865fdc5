package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Coercion error types reported in FieldError.Type.
const (
	ErrTypeModelAttributes = "model_attributes_type"
	ErrTypeString          = "string_type"
	ErrTypeFloat           = "float_type"
	ErrTypeFloatParsing    = "float_parsing"
	ErrTypeBool            = "bool_type"
	ErrTypeBoolParsing     = "bool_parsing"
	ErrTypeInt             = "int_type"
	ErrTypeIntFromFloat    = "int_from_float"
)

// Field order of the item payload. Errors are reported in this order.
var itemFields = []string{"id", "name", "description", "price", "in_stock"}

var (
	trueStrings  = map[string]bool{"1": true, "on": true, "t": true, "true": true, "y": true, "yes": true}
	falseStrings = map[string]bool{"0": true, "off": true, "f": true, "false": true, "n": true, "no": true}
)

// UnmarshalJSON decodes an item payload. Numbers and booleans may also be
// sent as strings ("25.5", "true"). Values of the wrong shape are recorded
// and reported by Validate; the payload itself must be a JSON object.
func (in *ItemInput) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return NewValidationError(FieldError{
			Loc:  []string{"body"},
			Msg:  "Input should be a valid dictionary or object to extract fields from",
			Type: ErrTypeModelAttributes,
		})
	}
	if raw == nil {
		return NewValidationError(FieldError{Loc: []string{"body"}, Msg: "Field required", Type: ErrTypeMissing})
	}

	*in = ItemInput{}

	for _, field := range itemFields {
		value, ok := raw[field]
		if !ok {
			continue
		}

		var fe *FieldError
		switch field {
		case "id":
			in.ID, fe = decodeInt(value, true)
		case "name":
			in.Name, fe = decodeString(value, false)
		case "description":
			in.Description, fe = decodeString(value, true)
		case "price":
			in.Price, fe = decodeFloat(value)
		case "in_stock":
			in.InStock, fe = decodeBool(value)
		}

		if fe != nil {
			fe.Loc = []string{"body", field}
			in.decodeErrs = append(in.decodeErrs, *fe)
		}
	}

	return nil
}

// jsonToken classifies a raw JSON value by its first byte.
func jsonToken(value json.RawMessage) byte {
	value = bytes.TrimSpace(value)
	if len(value) == 0 {
		return 0
	}
	return value[0]
}

func isNull(value json.RawMessage) bool {
	return string(bytes.TrimSpace(value)) == "null"
}

func decodeString(value json.RawMessage, nullable bool) (*string, *FieldError) {
	if isNull(value) && nullable {
		return nil, nil
	}
	if jsonToken(value) != '"' {
		return nil, &FieldError{Msg: "Input should be a valid string", Type: ErrTypeString}
	}

	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		return nil, &FieldError{Msg: "Input should be a valid string", Type: ErrTypeString}
	}
	return &s, nil
}

func decodeFloat(value json.RawMessage) (*float64, *FieldError) {
	typeErr := &FieldError{Msg: "Input should be a valid number", Type: ErrTypeFloat}
	parseErr := &FieldError{
		Msg:  "Input should be a valid number, unable to parse string as a number",
		Type: ErrTypeFloatParsing,
	}

	switch tok := jsonToken(value); {
	case tok == '"':
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return nil, parseErr
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, parseErr
		}
		return &f, nil
	case tok == '-' || (tok >= '0' && tok <= '9'):
		var f float64
		if err := json.Unmarshal(value, &f); err != nil {
			return nil, typeErr
		}
		return &f, nil
	default:
		return nil, typeErr
	}
}

func decodeBool(value json.RawMessage) (*bool, *FieldError) {
	parseErr := &FieldError{Msg: "Input should be a valid boolean, unable to interpret input", Type: ErrTypeBoolParsing}

	switch tok := jsonToken(value); {
	case tok == 't' || tok == 'f':
		var b bool
		if err := json.Unmarshal(value, &b); err != nil {
			return nil, parseErr
		}
		return &b, nil
	case tok == '"':
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return nil, parseErr
		}
		s = strings.ToLower(strings.TrimSpace(s))
		switch {
		case trueStrings[s]:
			b := true
			return &b, nil
		case falseStrings[s]:
			b := false
			return &b, nil
		}
		return nil, parseErr
	case tok == '-' || (tok >= '0' && tok <= '9'):
		var f float64
		if err := json.Unmarshal(value, &f); err != nil || (f != 0 && f != 1) {
			return nil, parseErr
		}
		b := f == 1
		return &b, nil
	default:
		return nil, &FieldError{Msg: "Input should be a valid boolean", Type: ErrTypeBool}
	}
}

func decodeInt(value json.RawMessage, nullable bool) (*int, *FieldError) {
	if isNull(value) && nullable {
		return nil, nil
	}

	switch tok := jsonToken(value); {
	case tok == '"':
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return nil, intParsingError()
		}
		i, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil, intParsingError()
		}
		return &i, nil
	case tok == '-' || (tok >= '0' && tok <= '9'):
		var f float64
		if err := json.Unmarshal(value, &f); err != nil {
			return nil, &FieldError{Msg: "Input should be a valid integer", Type: ErrTypeInt}
		}
		if f != math.Trunc(f) {
			return nil, &FieldError{
				Msg:  "Input should be a valid integer, got a number with a fractional part",
				Type: ErrTypeIntFromFloat,
			}
		}
		if f >= math.MaxInt64 || f < math.MinInt64 {
			return nil, intParsingError()
		}
		i := int(f)
		return &i, nil
	default:
		return nil, &FieldError{Msg: "Input should be a valid integer", Type: ErrTypeInt}
	}
}

func intParsingError() *FieldError {
	return &FieldError{
		Msg:  "Input should be a valid integer, unable to parse string as an integer",
		Type: ErrTypeIntParsing,
	}
}
