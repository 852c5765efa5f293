package core

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// SchemaDraft is the meta-schema every root document declares.
const SchemaDraft = "http://json-schema.org/draft-07/schema#"

// Schema is the persisted form of a template: a JSON-Schema object document
// whose properties are the columns. Column order travels in the x-columns
// extension so a document round-trips without reordering.
type Schema struct {
	SchemaURI   string             `json:"$schema,omitempty" yaml:"$schema,omitempty"`
	Title       string             `json:"title,omitempty" yaml:"title,omitempty"`
	Description string             `json:"description,omitempty" yaml:"description,omitempty"`
	Type        TypeDecl           `json:"type,omitempty" yaml:"type,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty" yaml:"properties,omitempty"`
	Required    []string           `json:"required,omitempty" yaml:"required,omitempty"`
	Columns     []string           `json:"x-columns,omitempty" yaml:"x-columns,omitempty"`
	Items       *Schema            `json:"items,omitempty" yaml:"items,omitempty"`
	Enum        []any              `json:"enum,omitempty" yaml:"enum,omitempty"`
	Minimum     *float64           `json:"minimum,omitempty" yaml:"minimum,omitempty"`
	Maximum     *float64           `json:"maximum,omitempty" yaml:"maximum,omitempty"`
	MinLength   *int               `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength   *int               `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Pattern     string             `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Format      string             `json:"format,omitempty" yaml:"format,omitempty"`
}

// BlankSchema returns an object document with no columns.
func BlankSchema(title string) *Schema {
	return &Schema{
		SchemaURI:  SchemaDraft,
		Title:      title,
		Type:       Single(TypeObject),
		Properties: map[string]*Schema{},
	}
}

// ColumnSchema returns a column sub-schema with the given declaration.
func ColumnSchema(decl TypeDecl) *Schema {
	return &Schema{Type: slices.Clone(decl)}
}

// ParseSchema decodes a JSON document.
func ParseSchema(data []byte) (*Schema, error) {
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, &Error{Kind: KindBadValue, Msg: "invalid schema document", Err: err}
	}
	return &s, nil
}

// Clone returns a deep copy.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	c := *s
	c.Type = slices.Clone(s.Type)
	c.Required = slices.Clone(s.Required)
	c.Columns = slices.Clone(s.Columns)
	c.Enum = slices.Clone(s.Enum)
	c.Items = s.Items.Clone()
	if s.Minimum != nil {
		v := *s.Minimum
		c.Minimum = &v
	}
	if s.Maximum != nil {
		v := *s.Maximum
		c.Maximum = &v
	}
	if s.MinLength != nil {
		v := *s.MinLength
		c.MinLength = &v
	}
	if s.MaxLength != nil {
		v := *s.MaxLength
		c.MaxLength = &v
	}
	if s.Properties != nil {
		c.Properties = make(map[string]*Schema, len(s.Properties))
		for name, p := range s.Properties {
			c.Properties[name] = p.Clone()
		}
	}
	return &c
}

// HasConstraints reports whether the schema restricts values beyond their
// type.
func (s *Schema) HasConstraints() bool {
	if s == nil {
		return false
	}
	return len(s.Enum) > 0 || s.Minimum != nil || s.Maximum != nil ||
		s.MinLength != nil || s.MaxLength != nil || s.Pattern != "" || s.Format != "" ||
		s.Items != nil || len(s.Properties) > 0
}

// columnOrder returns the declared column order of a root document:
// x-columns first, then any remaining properties sorted by name.
func (s *Schema) columnOrder() ([]string, error) {
	seen := make(map[string]bool, len(s.Properties))
	order := make([]string, 0, len(s.Properties))
	for _, name := range s.Columns {
		if _, ok := s.Properties[name]; !ok {
			return nil, &Error{Kind: KindBadValue, Msg: fmt.Sprintf("x-columns lists %q but no such property exists", name)}
		}
		if seen[name] {
			return nil, &Error{Kind: KindDuplicateKey, Column: name, Msg: "listed twice in x-columns"}
		}
		seen[name] = true
		order = append(order, name)
	}
	for _, name := range slices.Sorted(maps.Keys(s.Properties)) {
		if !seen[name] {
			order = append(order, name)
		}
	}
	return order, nil
}
