package schema

// files.go reads and writes template files.
//
// Supported files:
//
//	*.json         JSON Schema document
//	*.yaml, *.yml  a Definition (has a fields list) or a JSON Schema
//	               document written as YAML
//
// A document without a title is named after its file.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/sheetrow/internal/core"
)

// Format names accepted by Encode.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Supported reports whether a file name has a template file extension.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// Parse builds a template from the contents of the named file.
func Parse(name string, data []byte) (*core.Template, error) {
	ext := strings.ToLower(filepath.Ext(name))
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))

	switch ext {
	case ".json":
		doc, err := core.ParseSchema(data)
		if err != nil {
			return nil, err
		}
		return fromDocument(base, doc)

	case ".yaml", ".yml":
		var probe map[string]any
		if err := yaml.Unmarshal(data, &probe); err != nil {
			return nil, &core.Error{Kind: core.KindBadValue, Msg: "invalid YAML", Err: err}
		}
		if _, ok := probe["fields"]; ok {
			var d Definition
			if err := decodeYAML(data, &d); err != nil {
				return nil, err
			}
			if d.Name == "" {
				d.Name = base
			}
			return d.Template()
		}

		var doc core.Schema
		if err := decodeYAML(data, &doc); err != nil {
			return nil, err
		}
		return fromDocument(base, &doc)
	}
	return nil, &core.Error{Kind: core.KindBadValue, Value: name, Msg: fmt.Sprintf("unsupported template file %q", name)}
}

func decodeYAML(data []byte, dst any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(dst); err != nil {
		return &core.Error{Kind: core.KindBadValue, Msg: "invalid template file", Err: err}
	}
	return nil
}

func fromDocument(base string, doc *core.Schema) (*core.Template, error) {
	if err := Check(doc); err != nil {
		return nil, err
	}
	name := doc.Title
	if name == "" {
		name = base
	}
	return core.NewTemplate(name, doc)
}

// Check compiles doc as a JSON Schema so that a bad keyword, such as a
// pattern that is not a valid regular expression, fails at load time
// instead of at the first ingest.
func Check(doc *core.Schema) error {
	if _, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc)); err != nil {
		return &core.Error{Kind: core.KindBadValue, Template: doc.Title, Msg: "invalid schema document", Err: err}
	}
	return nil
}

// LoadFile parses the template file at path.
func LoadFile(path string) (*core.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, data)
}

// LoadDir registers every template file in dir and returns how many were
// registered. A bad file does not stop the others; every failure is
// returned together.
func LoadDir(dir string, reg *core.Registry) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read template directory: %w", err)
	}

	var (
		n    int
		errs core.ErrorGroup[error]
	)
	for _, entry := range entries {
		if entry.IsDir() || !Supported(entry.Name()) {
			continue
		}
		t, err := LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			errs.Add(fmt.Errorf("%s: %w", entry.Name(), err))
			continue
		}
		if err := reg.Register(t); err != nil {
			errs.Add(fmt.Errorf("%s: %w", entry.Name(), err))
			continue
		}
		n++
	}
	return n, errs.ErrOrNil()
}

// Encode writes a template's schema document as JSON or YAML.
func Encode(t *core.Template, format string) ([]byte, error) {
	doc := t.Schema()
	switch strings.ToLower(format) {
	case FormatJSON, "":
		return json.MarshalIndent(doc, "", "  ")
	case FormatYAML, "yml":
		return yaml.Marshal(doc)
	}
	return nil, &core.Error{Kind: core.KindBadValue, Value: format, Msg: fmt.Sprintf("unsupported format %q", format)}
}
