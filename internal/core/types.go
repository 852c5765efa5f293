package core

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Type is a column instance type. The names mirror JSON-Schema.
type Type string

const (
	TypeNull    Type = "null"
	TypeBoolean Type = "boolean"
	TypeInteger Type = "integer"
	TypeNumber  Type = "number"
	TypeString  Type = "string"
	TypeArray   Type = "array"
	TypeObject  Type = "object"
)

var knownTypes = []Type{TypeNull, TypeBoolean, TypeInteger, TypeNumber, TypeString, TypeArray, TypeObject}

// ParseType returns the Type named s.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case "int":
		return TypeInteger, nil
	case "float", "decimal":
		return TypeNumber, nil
	case "bool":
		return TypeBoolean, nil
	}
	if !t.Valid() {
		return "", &Error{Kind: KindBadValue, Msg: fmt.Sprintf("unknown type %q", s)}
	}
	return t, nil
}

// Valid reports whether t is one of the known instance types.
func (t Type) Valid() bool { return slices.Contains(knownTypes, t) }

// TypeDecl is the declared type of a column: nothing, one type, or an
// ordered union tried left to right. A nil TypeDecl means "no declared type".
type TypeDecl []Type

// Single declares exactly one type.
func Single(t Type) TypeDecl { return TypeDecl{t} }

// Union declares an ordered union.
func Union(ts ...Type) TypeDecl { return TypeDecl(slices.Clone(ts)) }

// IsZero reports whether no type is declared.
func (d TypeDecl) IsZero() bool { return len(d) == 0 }

// IsUnion reports whether more than one type is declared.
func (d TypeDecl) IsUnion() bool { return len(d) > 1 }

// Has reports whether t is part of the declaration.
func (d TypeDecl) Has(t Type) bool { return slices.Contains(d, t) }

// Without returns the declaration with t removed.
func (d TypeDecl) Without(t Type) TypeDecl {
	var out TypeDecl
	for _, x := range d {
		if x != t {
			out = append(out, x)
		}
	}
	return out
}

func (d TypeDecl) String() string {
	switch len(d) {
	case 0:
		return "any"
	case 1:
		return string(d[0])
	}
	parts := make([]string, len(d))
	for i, t := range d {
		parts[i] = string(t)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (d TypeDecl) validate() error {
	seen := make(map[Type]bool, len(d))
	for _, t := range d {
		if !t.Valid() {
			return &Error{Kind: KindBadValue, Msg: fmt.Sprintf("unknown type %q", t)}
		}
		if seen[t] {
			return &Error{Kind: KindBadValue, Msg: fmt.Sprintf("type %q listed twice in %s", t, d)}
		}
		seen[t] = true
	}
	return nil
}

func (d TypeDecl) encoded() any {
	if len(d) == 1 {
		return string(d[0])
	}
	names := make([]string, len(d))
	for i, t := range d {
		names[i] = string(t)
	}
	return names
}

func (d *TypeDecl) decodeNames(names []string) error {
	out := make(TypeDecl, 0, len(names))
	for _, n := range names {
		t, err := ParseType(n)
		if err != nil {
			return err
		}
		out = append(out, t)
	}
	if err := out.validate(); err != nil {
		return err
	}
	*d = out
	return nil
}

// MarshalJSON encodes a single type as a string and a union as an array.
func (d TypeDecl) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return json.Marshal(d.encoded())
}

// UnmarshalJSON accepts a type name or an array of type names.
func (d *TypeDecl) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		return d.decodeNames([]string{one})
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("type must be a string or an array of strings: %w", err)
	}
	return d.decodeNames(many)
}

// MarshalYAML mirrors MarshalJSON.
func (d TypeDecl) MarshalYAML() (any, error) {
	if len(d) == 0 {
		return nil, nil
	}
	return d.encoded(), nil
}

// UnmarshalYAML mirrors UnmarshalJSON.
func (d *TypeDecl) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return d.decodeNames([]string{node.Value})
	case yaml.SequenceNode:
		var many []string
		if err := node.Decode(&many); err != nil {
			return err
		}
		return d.decodeNames(many)
	default:
		return fmt.Errorf("line %d: type must be a string or a list of strings", node.Line)
	}
}
