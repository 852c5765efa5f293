package core

// template.go implements Template, the declared shape of a row.
//
// A template is built once (from a schema document, a Go type, or a header
// line) and then shared read-only: lookups and ToRow are safe for concurrent
// use. AddColumn is a construction-time operation and must not race with
// readers.

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
)

// DefaultTemplateName is used when a schema document has no title.
const DefaultTemplateName = "Not Named"

// templateNamespace roots the name-derived template IDs.
var templateNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/JonMunkholm/sheetrow/templates"))

// Column is one declared column.
type Column struct {
	Name     string
	Type     TypeDecl
	Required bool
	Schema   *Schema
}

// Template is the declared shape of a row.
type Template struct {
	id      uuid.UUID
	name    string
	columns map[string]*Column
	order   []string
	schema  *Schema

	mu          sync.Mutex
	validator   *gojsonschema.Schema
	compiled    bool
	compileErr  error
	constrained bool
	cellChecks  map[string]*gojsonschema.Schema
}

// TemplateID derives the stable ID of the template called name.
func TemplateID(name string) uuid.UUID {
	return uuid.NewSHA1(templateNamespace, []byte(name))
}

// NewTemplate builds a template called name from a root schema document.
// A nil root yields a template with no columns.
func NewTemplate(name string, root *Schema) (*Template, error) {
	t := &Template{
		id:      TemplateID(name),
		name:    name,
		columns: make(map[string]*Column),
		schema:  BlankSchema(name),
	}
	if root == nil {
		return t, nil
	}

	doc := root.Clone()
	if doc.SchemaURI == "" {
		doc.SchemaURI = SchemaDraft
	}
	if doc.Title == "" {
		doc.Title = name
	}
	if doc.Type.IsZero() {
		doc.Type = Single(TypeObject)
	}
	if doc.Properties == nil {
		doc.Properties = map[string]*Schema{}
	}
	if len(doc.Type) != 1 || doc.Type[0] != TypeObject {
		return nil, &Error{Kind: KindBadValue, Template: name, Msg: fmt.Sprintf("root schema must be an object, got %s", doc.Type)}
	}

	order, err := doc.columnOrder()
	if err != nil {
		return nil, tagTemplate(err, name)
	}

	required := make(map[string]bool, len(doc.Required))
	for _, r := range doc.Required {
		if _, ok := doc.Properties[r]; !ok {
			return nil, &Error{Kind: KindBadValue, Template: name, Column: r, Msg: "required column has no property"}
		}
		required[r] = true
	}

	for _, colName := range order {
		prop := doc.Properties[colName]
		if prop == nil {
			prop = ColumnSchema(Single(TypeString))
			doc.Properties[colName] = prop
		}
		if err := prop.Type.validate(); err != nil {
			return nil, tagTemplate(err, name)
		}
		t.columns[colName] = &Column{
			Name:     colName,
			Type:     slices.Clone(prop.Type),
			Required: required[colName],
			Schema:   prop,
		}
	}

	t.order = order
	doc.Columns = slices.Clone(order)
	doc.Required = t.requiredNames()
	t.schema = doc
	t.constrained = anyConstrained(doc)
	return t, nil
}

// FromSchema builds a template named by the document title.
func FromSchema(root *Schema) (*Template, error) {
	name := DefaultTemplateName
	if root != nil && root.Title != "" {
		name = root.Title
	}
	return NewTemplate(name, root)
}

// FromHeaders synthesizes a template from a header line: every column is a
// string and none are required. Every duplicate header is reported.
func FromHeaders(name string, headers []string) (*Template, error) {
	t, _ := NewTemplate(name, nil)
	var errs ErrorGroup[error]
	for _, h := range headers {
		if err := t.AddColumn(h, nil, false); err != nil {
			errs.Add(err)
		}
	}
	if err := errs.ErrOrNil(); err != nil {
		return nil, err
	}
	return t, nil
}

// AddColumn declares a column. A nil schema declares a string column.
// Adding an existing name fails with a DuplicateKey error and leaves the
// template unchanged.
func (t *Template) AddColumn(name string, col *Schema, required bool) error {
	if strings.TrimSpace(name) == "" {
		return &Error{Kind: KindBadValue, Template: t.name, Msg: "column name may not be blank"}
	}
	if _, exists := t.columns[name]; exists {
		return &Error{
			Kind:     KindDuplicateKey,
			Template: t.name,
			Column:   name,
			Msg:      fmt.Sprintf("duplicate headers named %q in template %q", name, t.name),
		}
	}
	if col == nil {
		col = ColumnSchema(Single(TypeString))
	} else {
		col = col.Clone()
	}
	if err := col.Type.validate(); err != nil {
		return tagTemplate(err, t.name)
	}

	t.columns[name] = &Column{Name: name, Type: slices.Clone(col.Type), Required: required, Schema: col}
	t.order = append(t.order, name)
	t.schema.Properties[name] = col
	t.schema.Columns = slices.Clone(t.order)
	if required {
		t.schema.Required = append(t.schema.Required, name)
	}

	t.mu.Lock()
	t.compiled = false
	t.validator = nil
	t.compileErr = nil
	t.constrained = t.constrained || col.HasConstraints()
	t.mu.Unlock()
	return nil
}

// ID returns the template's name-derived ID.
func (t *Template) ID() uuid.UUID { return t.id }

// Name returns the template name.
func (t *Template) Name() string { return t.name }

// Len returns the number of declared columns.
func (t *Template) Len() int { return len(t.order) }

// Column returns the named column.
func (t *Template) Column(name string) (*Column, bool) {
	c, ok := t.columns[name]
	return c, ok
}

// Columns returns the columns in declared order.
func (t *Template) Columns() []*Column {
	out := make([]*Column, len(t.order))
	for i, name := range t.order {
		out[i] = t.columns[name]
	}
	return out
}

// Headers returns the column names in declared order. A template with no
// columns has no headers to offer.
func (t *Template) Headers() ([]string, error) {
	if len(t.order) == 0 {
		return nil, &Error{Kind: KindBadValue, Template: t.name, Msg: fmt.Sprintf("template %q declares no columns", t.name)}
	}
	return slices.Clone(t.order), nil
}

// Required returns the required column names in declared order.
func (t *Template) Required() []string { return t.requiredNames() }

func (t *Template) requiredNames() []string {
	var out []string
	for _, name := range t.order {
		if t.columns[name].Required {
			out = append(out, name)
		}
	}
	return out
}

// CellSchema returns the sub-schema of the named column.
func (t *Template) CellSchema(name string) (*Schema, error) {
	c, ok := t.columns[name]
	if !ok {
		return nil, t.notFound(name)
	}
	return c.Schema.Clone(), nil
}

// Validation returns the declared type of the named column.
func (t *Template) Validation(name string) (TypeDecl, error) {
	c, ok := t.columns[name]
	if !ok {
		return nil, t.notFound(name)
	}
	return slices.Clone(c.Type), nil
}

func (t *Template) notFound(name string) error {
	return &Error{
		Kind:     KindNotFound,
		Template: t.name,
		Column:   name,
		Msg:      fmt.Sprintf("template %q has no such column; options are: %s", t.name, strings.Join(t.order, ", ")),
	}
}

// Schema returns a copy of the root document.
func (t *Template) Schema() *Schema { return t.schema.Clone() }

// ValidateHeaders checks that every required column appears in observed and
// names all the missing ones in a single BadValue error.
func (t *Template) ValidateHeaders(observed []string) error {
	present := make(map[string]bool, len(observed))
	for _, h := range observed {
		present[h] = true
	}
	var missing []string
	for _, name := range t.requiredNames() {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &Error{
			Kind:     KindBadValue,
			Template: t.name,
			Msg:      "the following required headers were not found: " + strings.Join(missing, ", "),
		}
	}
	return nil
}

func tagTemplate(err error, name string) error {
	if e, ok := err.(*Error); ok && e.Template == "" {
		c := *e
		c.Template = name
		return &c
	}
	return err
}

func anyConstrained(doc *Schema) bool {
	for _, p := range doc.Properties {
		if p.HasConstraints() {
			return true
		}
	}
	return false
}
