package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Kind is the JSON type expected for a field.
type Kind int

const (
	// KindAny accepts any JSON value
	KindAny Kind = iota
	// KindString is a JSON string
	KindString
	// KindNumber is any JSON number
	KindNumber
	// KindInteger is a JSON number without a fractional part
	KindInteger
	// KindBool is true or false
	KindBool
	// KindObject is a JSON object
	KindObject
	// KindArray is a JSON array
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindInteger:
		return "integer"
	case KindBool:
		return "boolean"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "any"
	}
}

// Field declares one member of a JSON object. Schema, when set, validates a
// nested object or every element of an array.
type Field struct {
	Name     string
	Kind     Kind
	Required bool
	Nullable bool
	Schema   *Schema
}

// Schema describes the shape of a JSON object. Unknown members are allowed.
type Schema struct {
	Name   string
	Fields []Field
}

// Validate checks that data is a JSON object matching s.
func (s *Schema) Validate(data []byte) error {
	v, err := parseJSON(data)
	if err != nil {
		return NewValidationError("", s.Name+": payload is not valid JSON", err)
	}
	return s.validateValue("", v)
}

// ValidateList checks that data is a JSON array of objects matching s.
func (s *Schema) ValidateList(data []byte) error {
	v, err := parseJSON(data)
	if err != nil {
		return NewValidationError("", s.Name+": payload is not valid JSON", err)
	}
	items, ok := v.([]any)
	if !ok {
		return NewValidationError("", fmt.Sprintf("%s: expected array, got %s", s.Name, jsonKind(v)), nil)
	}
	for i, item := range items {
		if err := s.validateValue(fmt.Sprintf("[%d]", i), item); err != nil {
			return err
		}
	}
	return nil
}

func (s *Schema) validateValue(path string, v any) error {
	obj, ok := v.(map[string]any)
	if !ok {
		return s.fail(path, fmt.Sprintf("expected object, got %s", jsonKind(v)))
	}

	for _, f := range s.Fields {
		fieldPath := joinPath(path, f.Name)
		val, present := obj[f.Name]
		if !present {
			if f.Required {
				return s.fail(fieldPath, "missing required field")
			}
			continue
		}
		if val == nil {
			if f.Nullable || !f.Required {
				continue
			}
			return s.fail(fieldPath, "must not be null")
		}
		if !kindMatches(f.Kind, val) {
			return s.fail(fieldPath, fmt.Sprintf("expected %s, got %s", f.Kind, jsonKind(val)))
		}
		if f.Schema == nil {
			continue
		}
		switch nested := val.(type) {
		case map[string]any:
			if err := f.Schema.validateValue(fieldPath, nested); err != nil {
				return err
			}
		case []any:
			for i, item := range nested {
				if err := f.Schema.validateValue(fmt.Sprintf("%s[%d]", fieldPath, i), item); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (s *Schema) fail(field, reason string) *Error {
	name := s.Name
	if name == "" {
		name = "payload"
	}
	if field == "" {
		return NewValidationError(field, fmt.Sprintf("%s: %s", name, reason), nil)
	}
	return NewValidationError(field, fmt.Sprintf("%s: field %q %s", name, field, reason), nil)
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	if strings.HasPrefix(name, "[") {
		return parent + name
	}
	return parent + "." + name
}

func parseJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func kindMatches(k Kind, v any) bool {
	switch k {
	case KindAny:
		return true
	case KindString:
		_, ok := v.(string)
		return ok
	case KindNumber:
		_, ok := v.(json.Number)
		return ok
	case KindInteger:
		n, ok := v.(json.Number)
		if !ok {
			return false
		}
		_, err := n.Int64()
		return err == nil
	case KindBool:
		_, ok := v.(bool)
		return ok
	case KindObject:
		_, ok := v.(map[string]any)
		return ok
	case KindArray:
		_, ok := v.([]any)
		return ok
	}
	return false
}

func jsonKind(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case json.Number:
		if _, err := val.Int64(); err == nil {
			return "integer"
		}
		return "number"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// DecodeObject validates data against s and decodes it into T.
func DecodeObject[T any](s *Schema, data []byte) (T, error) {
	var out T
	if s != nil {
		if err := s.Validate(data); err != nil {
			return out, err
		}
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, NewValidationError("", schemaName(s)+": cannot decode payload", err)
	}
	return out, nil
}

// DecodeList validates data as an array of s and decodes it into []T.
func DecodeList[T any](s *Schema, data []byte) ([]T, error) {
	if s != nil {
		if err := s.ValidateList(data); err != nil {
			return nil, err
		}
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, NewValidationError("", schemaName(s)+": cannot decode payload", err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// Envelope extracts the member key from a JSON object, as in {"data": ...}.
func Envelope(data []byte, key string) (json.RawMessage, error) {
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, NewValidationError("", "response envelope is not a JSON object", err)
	}
	inner, ok := wrapper[key]
	if !ok {
		return nil, NewValidationError(key, fmt.Sprintf("response envelope: missing %q", key), nil)
	}
	return inner, nil
}

// DecodeEnvelope unwraps {"<key>": [...]} and decodes the list with s.
func DecodeEnvelope[T any](s *Schema, data []byte, key string) ([]T, error) {
	inner, err := Envelope(data, key)
	if err != nil {
		return nil, err
	}
	if bytes.Equal(bytes.TrimSpace(inner), []byte("null")) {
		return []T{}, nil
	}
	return DecodeList[T](s, inner)
}

// DecodeEnvelopeObject unwraps {"<key>": {...}} and decodes the object with s.
func DecodeEnvelopeObject[T any](s *Schema, data []byte, key string) (T, error) {
	var zero T
	inner, err := Envelope(data, key)
	if err != nil {
		return zero, err
	}
	return DecodeObject[T](s, inner)
}

func schemaName(s *Schema) string {
	if s == nil || s.Name == "" {
		return "payload"
	}
	return s.Name
}
