package web

import (
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/sheetrow/internal/core"
	"github.com/JonMunkholm/sheetrow/internal/schema"
	"github.com/JonMunkholm/sheetrow/internal/source"
)

// maxTemplateSize bounds uploaded template documents.
const maxTemplateSize = 1 << 20

type columnSummary struct {
	Name     string        `json:"name"`
	Type     core.TypeDecl `json:"type"`
	Format   string        `json:"format,omitempty"`
	Required bool          `json:"required"`
}

type templateSummary struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Columns []columnSummary `json:"columns"`
}

func summarize(t *core.Template) templateSummary {
	out := templateSummary{ID: t.ID().String(), Name: t.Name()}
	for _, c := range t.Columns() {
		cs := columnSummary{Name: c.Name, Type: c.Type, Required: c.Required}
		if c.Schema != nil {
			cs.Format = c.Schema.Format
		}
		out.Columns = append(out.Columns, cs)
	}
	return out
}

// handleListTemplates lists registered templates and their columns.
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	all := s.registry.All()
	out := make([]templateSummary, 0, len(all))
	for _, t := range all {
		out = append(out, summarize(t))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleGetTemplate returns a template's schema document. ?format=yaml
// returns YAML instead of JSON.
func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := s.registry.Get(nameParam(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	format := r.URL.Query().Get("format")
	data, err := schema.Encode(t, format)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeDocument(w, format, data)
}

// handleRegisterTemplate registers a template from a JSON Schema document or
// a YAML definition in the request body. ?replace=true overwrites an
// existing template of the same name.
func (s *Server) handleRegisterTemplate(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxTemplateSize))
	if err != nil {
		writeError(w, r, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	t, err := schema.Parse(documentName(r), data)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	status := http.StatusCreated
	if r.URL.Query().Get("replace") == "true" {
		if _, exists := s.registry.Lookup(t.Name()); exists {
			status = http.StatusOK
		}
		s.registry.Replace(t)
	} else if err := s.registry.Register(t); err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, status, summarize(t))
}

// handleDeleteTemplate unregisters a template.
func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	name := nameParam(r)
	if !s.registry.Remove(name) {
		s.fail(w, r, &core.Error{Kind: core.KindNotFound, Value: name, Msg: "template not found: " + name})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleInferTemplate reads the header line of an uploaded file and returns
// the template synthesized from it: every column a non-required string.
func (s *Server) handleInferTemplate(w http.ResponseWriter, r *http.Request) {
	up, err := s.openUpload(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	reader := core.NewReader(up.src, core.ReaderOptions{})
	defer reader.Close()

	headers, err := reader.Headers()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	name := r.FormValue("name")
	if name == "" {
		name = strings.TrimSuffix(up.name, filepath.Ext(up.name))
	}
	t, err := core.FromHeaders(name, headers)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	format := r.FormValue("format")
	data, err := schema.Encode(t, format)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeDocument(w, format, data)
}

func writeDocument(w http.ResponseWriter, format string, data []byte) {
	if strings.EqualFold(format, schema.FormatYAML) || strings.EqualFold(format, "yml") {
		w.Header().Set("Content-Type", "application/yaml")
	} else {
		w.Header().Set("Content-Type", "application/schema+json")
	}
	_, _ = w.Write(data)
}

// nameParam returns the unescaped {name} URL parameter.
func nameParam(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	if name, err := url.PathUnescape(raw); err == nil {
		return name
	}
	return raw
}

// documentName builds the file name schema.Parse dispatches on: ?name= or
// "template" as the base, and the extension from ?format= or Content-Type.
func documentName(r *http.Request) string {
	base := r.URL.Query().Get("name")
	if base == "" {
		base = "template"
	}
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" && strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		format = schema.FormatYAML
	}
	if format == schema.FormatYAML || format == "yml" {
		return base + ".yaml"
	}
	return base + ".json"
}

// upload is a file posted as the "file" form field.
type upload struct {
	src  core.RecordSource
	name string
}

// openUpload parses a multipart upload and opens the "file" field as a
// record source. Source options come from the form: sheet, charset,
// delimiter, trim_space, lazy_quotes.
func (s *Server) openUpload(w http.ResponseWriter, r *http.Request) (upload, error) {
	maxSize := s.cfg.Ingest.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		if strings.Contains(err.Error(), "too large") {
			return upload{}, &core.Error{Kind: core.KindBadValue, Msg: "file too large", Err: err}
		}
		return upload{}, &core.Error{Kind: core.KindBadValue, Msg: "invalid upload form", Err: err}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return upload{}, &core.Error{Kind: core.KindBadValue, Msg: "no file provided", Err: err}
	}

	opts := source.Options{
		Sheet:      r.FormValue("sheet"),
		Charset:    r.FormValue("charset"),
		TrimSpace:  r.FormValue("trim_space") == "true",
		LazyQuotes: r.FormValue("lazy_quotes") == "true",
		Size:       header.Size,
		MaxBytes:   maxSize,
	}
	if d := []rune(r.FormValue("delimiter")); len(d) == 1 {
		opts.Delimiter = d[0]
	}

	src, err := source.Detect(header.Filename, file, opts)
	if err != nil {
		_ = file.Close()
		return upload{}, err
	}
	return upload{src: src, name: header.Filename}, nil
}
