// Package jsonschema derives JSON Schema parameter definitions from Go
// struct types via reflection. It is used to build tool declarations from
// plain argument structs instead of hand-written schema literals.
package jsonschema

import (
	"reflect"
	"strings"
)

// Schema is the subset of JSON Schema needed for tool parameter
// declarations: object shapes with typed, optionally described properties.
type Schema struct {
	Type        string             `json:"type,omitempty"`
	Description string             `json:"description,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Enum        []any              `json:"enum,omitempty"`
}

// For generates the schema for the struct type T. Field names follow the
// json tag; fields without omitempty are listed as required. Descriptions
// come from a `description` struct tag. Non-struct types produce a schema
// with just the mapped primitive type.
func For[T any]() *Schema {
	return fromType(reflect.TypeFor[T](), map[reflect.Type]bool{})
}

func fromType(t reflect.Type, inProgress map[reflect.Type]bool) *Schema {
	switch t.Kind() {
	case reflect.Ptr:
		return fromType(t.Elem(), inProgress)

	case reflect.Struct:
		// Break cycles by emitting a bare object for a type already being
		// expanded; tool arguments are not expected to be recursive.
		if inProgress[t] {
			return &Schema{Type: "object"}
		}
		inProgress[t] = true
		defer delete(inProgress, t)
		return fromStruct(t, inProgress)

	case reflect.Slice, reflect.Array:
		return &Schema{Type: "array", Items: fromType(t.Elem(), inProgress)}

	case reflect.Map:
		return &Schema{Type: "object"}

	case reflect.String:
		return &Schema{Type: "string"}

	case reflect.Bool:
		return &Schema{Type: "boolean"}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: "integer"}

	case reflect.Float32, reflect.Float64:
		return &Schema{Type: "number"}

	default:
		return &Schema{}
	}
}

func fromStruct(t reflect.Type, inProgress map[reflect.Type]bool) *Schema {
	schema := &Schema{
		Type:       "object",
		Properties: map[string]*Schema{},
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name, optional, skip := parseJSONTag(field)
		if skip {
			continue
		}

		property := fromType(field.Type, inProgress)
		if description := field.Tag.Get("description"); description != "" {
			property.Description = description
		}
		schema.Properties[name] = property

		// Pointer fields are optional even without omitempty.
		if !optional && field.Type.Kind() != reflect.Ptr {
			schema.Required = append(schema.Required, name)
		}
	}

	return schema
}

func parseJSONTag(field reflect.StructField) (name string, optional bool, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}

	name = field.Name
	parts := strings.Split(tag, ",")
	if parts[0] != "" {
		name = parts[0]
	}
	for _, option := range parts[1:] {
		if option == "omitempty" {
			optional = true
		}
	}
	return name, optional, false
}
