// Package schema defines templates outside Go code.
//
// Templates come from three places: the built-in definitions in this
// package, definition files (YAML with a fields list), and JSON Schema
// documents (JSON or YAML) as produced by Encode. All three end up as
// *core.Template values in a core.Registry.
package schema

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/sheetrow/internal/core"
)

// FieldType is the shorthand type of a definition field.
type FieldType string

const (
	FieldText    FieldType = "text"
	FieldNumeric FieldType = "numeric"
	FieldInteger FieldType = "integer"
	FieldDate    FieldType = "date"
	FieldBool    FieldType = "bool"
	FieldEnum    FieldType = "enum"
	FieldState   FieldType = "state"
	FieldJSON    FieldType = "json"
)

// FieldSpec defines one column of a Definition.
type FieldSpec struct {
	Name        string    `yaml:"name" json:"name"`
	Type        FieldType `yaml:"type,omitempty" json:"type,omitempty"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	Required    bool      `yaml:"required,omitempty" json:"required,omitempty"`
	// AllowEmpty accepts blank and missing cells as null.
	AllowEmpty bool     `yaml:"allow_empty,omitempty" json:"allow_empty,omitempty"`
	Enum       []string `yaml:"enum,omitempty" json:"enum,omitempty"`
	Min        *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max        *float64 `yaml:"max,omitempty" json:"max,omitempty"`
	MaxLength  int      `yaml:"max_length,omitempty" json:"max_length,omitempty"`
	Pattern    string   `yaml:"pattern,omitempty" json:"pattern,omitempty"`
}

// Definition is the compact way to write a template: an ordered list of
// fields with shorthand types.
type Definition struct {
	Name        string      `yaml:"name" json:"name"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
	Fields      []FieldSpec `yaml:"fields" json:"fields"`
}

// Schema converts the field to a column schema.
//
//	text     string
//	numeric  number
//	integer  integer
//	date     string, format loose-date
//	bool     boolean
//	enum     string limited to Enum
//	state    string, format us-state
//	json     object or array
//
// AllowEmpty adds null to the type.
func (f FieldSpec) Schema() (*core.Schema, error) {
	s := &core.Schema{Description: f.Description, Pattern: f.Pattern, Minimum: f.Min, Maximum: f.Max}
	if f.MaxLength > 0 {
		n := f.MaxLength
		s.MaxLength = &n
	}

	var types []core.Type
	switch f.Type {
	case FieldText, "":
		types = []core.Type{core.TypeString}
	case FieldNumeric:
		types = []core.Type{core.TypeNumber}
	case FieldInteger:
		types = []core.Type{core.TypeInteger}
	case FieldBool:
		types = []core.Type{core.TypeBoolean}
	case FieldDate:
		types = []core.Type{core.TypeString}
		s.Format = core.FormatLooseDate
	case FieldState:
		types = []core.Type{core.TypeString}
		s.Format = core.FormatUSState
	case FieldJSON:
		types = []core.Type{core.TypeObject, core.TypeArray}
	case FieldEnum:
		if len(f.Enum) == 0 {
			return nil, &core.Error{Kind: core.KindBadValue, Column: f.Name, Msg: "enum field lists no values"}
		}
		types = []core.Type{core.TypeString}
		for _, v := range f.Enum {
			s.Enum = append(s.Enum, v)
		}
	default:
		return nil, &core.Error{Kind: core.KindBadValue, Column: f.Name, Value: string(f.Type), Msg: fmt.Sprintf("unknown field type %q", f.Type)}
	}
	if len(f.Enum) > 0 && f.Type != FieldEnum {
		return nil, &core.Error{Kind: core.KindBadValue, Column: f.Name, Msg: "enum values given for a non-enum field"}
	}

	if f.AllowEmpty {
		types = append(types, core.TypeNull)
		if s.Enum != nil {
			s.Enum = append(s.Enum, nil)
		}
	}
	s.Type = core.Union(types...)
	return s, nil
}

// Template builds the definition's template. Every bad field is reported,
// not just the first.
func (d Definition) Template() (*core.Template, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return nil, &core.Error{Kind: core.KindBadValue, Msg: "definition has no name"}
	}

	root := core.BlankSchema(name)
	root.Description = d.Description

	var errs core.ErrorGroup[error]
	for _, f := range d.Fields {
		if strings.TrimSpace(f.Name) == "" {
			errs.Add(&core.Error{Kind: core.KindBadValue, Template: name, Msg: "field has no name"})
			continue
		}
		if _, dup := root.Properties[f.Name]; dup {
			errs.Add(&core.Error{Kind: core.KindDuplicateKey, Template: name, Column: f.Name, Msg: "field defined twice"})
			continue
		}
		col, err := f.Schema()
		if err != nil {
			if e, ok := err.(*core.Error); ok {
				e.Template = name
			}
			errs.Add(err)
			continue
		}
		root.Properties[f.Name] = col
		root.Columns = append(root.Columns, f.Name)
		if f.Required {
			root.Required = append(root.Required, f.Name)
		}
	}
	if err := errs.ErrOrNil(); err != nil {
		return nil, err
	}
	return core.NewTemplate(name, root)
}
