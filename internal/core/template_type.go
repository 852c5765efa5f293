package core

// template_type.go derives a template from a Go struct type.
//
// Column names come from json tags (falling back to the field name; "-"
// skips the field). Column types come from a schema tag or, without one,
// from the Go kind of the field:
//
//	type Person struct {
//	    Name  string   `json:"name" schema:"required,description:Full name"`
//	    Age   int      `json:"age" schema:"type:integer,min:0,max:150"`
//	    Email *string  `json:"email"`
//	    Tier  string   `json:"tier" schema:"enum:free|pro"`
//	    Score any      `json:"score" schema:"type:integer|string"`
//	}
//
// Tag directives are comma separated. Flags: required, optional. Key/value
// pairs: type:a|b (ordered union), enum:a|b, min:N, max:N, minLength:N,
// maxLength:N, pattern:re, format:f, description:text.
//
// Non-pointer fields are required unless tagged optional; pointer fields
// add null to the union and are never required.

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// FromType builds a template from the struct type of v (a struct value,
// pointer to struct, or reflect.Type). The template is named after the type.
func FromType(v any) (*Template, error) {
	typ, ok := v.(reflect.Type)
	if !ok {
		typ = reflect.TypeOf(v)
	}
	for typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ == nil || typ.Kind() != reflect.Struct {
		return nil, &Error{Kind: KindBadValue, Msg: fmt.Sprintf("cannot derive a template from %v: not a struct", typ)}
	}

	t, _ := NewTemplate(typ.Name(), nil)
	var errs ErrorGroup[error]
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name, skip := jsonName(field)
		if skip {
			continue
		}

		col, required, err := fieldSchema(field)
		if err != nil {
			errs.Add(&Error{Kind: KindBadValue, Template: t.name, Column: name, Msg: "invalid schema tag", Err: err})
			continue
		}
		if err := t.AddColumn(name, col, required); err != nil {
			errs.Add(err)
		}
	}
	if err := errs.ErrOrNil(); err != nil {
		return nil, err
	}
	return t, nil
}

func jsonName(field reflect.StructField) (string, bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", true
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		name = field.Name
	}
	return name, false
}

func fieldSchema(field reflect.StructField) (*Schema, bool, error) {
	ft := field.Type
	nullable := false
	if ft.Kind() == reflect.Pointer {
		nullable = true
		ft = ft.Elem()
	}

	col := &Schema{Type: inferType(ft)}
	required := !nullable

	tag, hasTag := field.Tag.Lookup("schema")
	if hasTag {
		for _, part := range strings.Split(tag, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			key, value, hasValue := strings.Cut(part, ":")
			if !hasValue {
				switch key {
				case "required":
					required = true
				case "optional":
					required = false
				default:
					return nil, false, fmt.Errorf("unknown flag %q", key)
				}
				continue
			}
			if err := applyDirective(col, key, strings.TrimSpace(value)); err != nil {
				return nil, false, err
			}
		}
	}

	if nullable {
		required = false
		if !col.Type.IsZero() && !col.Type.Has(TypeNull) {
			col.Type = append(col.Type, TypeNull)
		}
	}
	return col, required, nil
}

func applyDirective(col *Schema, key, value string) error {
	switch key {
	case "type":
		var decl TypeDecl
		if err := decl.decodeNames(strings.Split(value, "|")); err != nil {
			return err
		}
		col.Type = decl
	case "enum":
		for _, v := range strings.Split(value, "|") {
			col.Enum = append(col.Enum, v)
		}
	case "min", "max":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if key == "min" {
			col.Minimum = &f
		} else {
			col.Maximum = &f
		}
	case "minLength", "maxLength":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if key == "minLength" {
			col.MinLength = &n
		} else {
			col.MaxLength = &n
		}
	case "pattern":
		col.Pattern = value
	case "format":
		col.Format = value
	case "description":
		col.Description = value
	default:
		return fmt.Errorf("unknown directive %q", key)
	}
	return nil
}

func inferType(t reflect.Type) TypeDecl {
	switch t.Kind() {
	case reflect.Bool:
		return Single(TypeBoolean)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Single(TypeInteger)
	case reflect.Float32, reflect.Float64:
		return Single(TypeNumber)
	case reflect.String:
		return Single(TypeString)
	case reflect.Slice, reflect.Array:
		return Single(TypeArray)
	case reflect.Map, reflect.Struct:
		return Single(TypeObject)
	default:
		return nil
	}
}
