package core

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Compile compiles the template's schema document for constraint checks
// (enum, minimum, pattern, ...). It is called lazily by row assembly and
// may be called eagerly to surface a malformed document early.
func (t *Template) Compile() error {
	_, err := t.compiledValidator()
	return err
}

func (t *Template) compiledValidator() (*gojsonschema.Schema, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.compiled {
		return t.validator, t.compileErr
	}
	t.compiled = true
	v, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(t.schema))
	if err != nil {
		t.compileErr = &Error{Kind: KindBadValue, Template: t.name, Msg: "schema document does not compile", Err: err}
		return nil, t.compileErr
	}
	t.validator = v
	return v, nil
}

func (t *Template) isConstrained() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.constrained
}

// checkConstraints validates an assembled row against the compiled document.
// Required-ness is handled during assembly, so "required" results are
// dropped here.
func (t *Template) checkConstraints(line int, row *Row, cells map[string]CellValue) []error {
	v, err := t.compiledValidator()
	if err != nil {
		return []error{err}
	}
	// nil values come from Empty cells that coercion already accepted.
	present := make(map[string]any, len(row.values))
	for name, value := range row.values {
		if value != nil {
			present[name] = value
		}
	}
	result, err := v.Validate(gojsonschema.NewGoLoader(present))
	if err != nil {
		return []error{&Error{Kind: KindBadValue, Template: t.name, Line: line, Msg: "constraint check failed", Err: err}}
	}
	if result.Valid() {
		return nil
	}

	var errs []error
	for _, desc := range result.Errors() {
		if desc.Type() == "required" {
			continue
		}
		column := columnOfField(desc.Field())
		e := &Error{
			Kind:     KindBadValue,
			Template: t.name,
			Line:     line,
			Column:   column,
			Msg:      desc.Description(),
		}
		if cell, ok := cells[column]; ok {
			e.Value = cell.Display()
		} else if column != "" {
			e.Value = fmt.Sprint(row.values[column])
		}
		errs = append(errs, e)
	}
	return errs
}

// columnOfField maps a gojsonschema field path ("age", "tags.0") to the
// top-level column it belongs to.
func columnOfField(field string) string {
	if field == "" || field == "(root)" {
		return ""
	}
	column, _, _ := strings.Cut(field, ".")
	return column
}

func (t *Template) cellValidator(col *Column) (*gojsonschema.Schema, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if v, ok := t.cellChecks[col.Name]; ok {
		return v, nil
	}
	v, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(col.Schema))
	if err != nil {
		return nil, &Error{Kind: KindBadValue, Template: t.name, Column: col.Name, Msg: "column schema does not compile", Err: err}
	}
	if t.cellChecks == nil {
		t.cellChecks = make(map[string]*gojsonschema.Schema)
	}
	t.cellChecks[col.Name] = v
	return v, nil
}

// checkCell validates one stored value against its column's schema. nil
// values and cells added under names the template does not declare pass.
func (t *Template) checkCell(name string, value any, line int) error {
	col, ok := t.Column(name)
	if !ok || value == nil || col.Schema == nil {
		return nil
	}
	v, err := t.cellValidator(col)
	if err != nil {
		return err
	}
	result, err := v.Validate(gojsonschema.NewGoLoader(value))
	if err != nil {
		return &Error{Kind: KindBadValue, Template: t.name, Line: line, Column: name, Msg: "constraint check failed", Err: err}
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.Description())
	}
	return &Error{
		Kind:     KindBadValue,
		Template: t.name,
		Line:     line,
		Column:   name,
		Value:    fmt.Sprint(value),
		Msg:      strings.Join(msgs, "; "),
	}
}
