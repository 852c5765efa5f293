package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/sheetrow/internal/core"
	"github.com/JonMunkholm/sheetrow/internal/ingest"
	"github.com/JonMunkholm/sheetrow/internal/logging"
)

// handleIngest starts an ingest of the uploaded file. The form may name a
// template; without one the template is synthesized from the header line.
// With wait=true the response is the final report, otherwise 202 with the
// ingest ID.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	up, err := s.openUpload(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	opts, err := s.ingestOptions(r)
	if err != nil {
		_ = up.src.Close()
		s.fail(w, r, err)
		return
	}

	req := ingest.Request{Template: r.FormValue("template"), Source: up.src, Options: opts}
	id, err := s.ingest.Start(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if r.FormValue("wait") != "true" {
		w.Header().Set("Location", "/api/ingests/"+id.String())
		writeJSON(w, http.StatusAccepted, map[string]string{"ingest_id": id.String()})
		return
	}

	report, err := s.ingest.Wait(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ingestOptions reads per-ingest options from the form, defaulting to the
// configured behaviour.
func (s *Server) ingestOptions(r *http.Request) (ingest.Options, error) {
	opts := ingest.Options{
		Strict:          s.cfg.Ingest.Strict,
		CaseInsensitive: s.cfg.Ingest.CaseInsensitive,
	}

	bools := []struct {
		field string
		dst   *bool
	}{
		{"strict", &opts.Strict},
		{"dry_run", &opts.DryRun},
		{"case_insensitive", &opts.CaseInsensitive},
		{"no_headers", &opts.NoHeaders},
	}
	for _, b := range bools {
		v := r.FormValue(b.field)
		if v == "" {
			continue
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return opts, &core.Error{Kind: core.KindBadValue, Value: v, Msg: fmt.Sprintf("%s must be true or false", b.field)}
		}
		*b.dst = parsed
	}

	ints := []struct {
		field string
		dst   *int
	}{
		{"workers", &opts.Workers},
		{"batch_size", &opts.BatchSize},
	}
	for _, n := range ints {
		v := r.FormValue(n.field)
		if v == "" {
			continue
		}
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return opts, &core.Error{Kind: core.KindBadValue, Value: v, Msg: fmt.Sprintf("%s must be a positive integer", n.field)}
		}
		*n.dst = parsed
	}
	return opts, nil
}

func idParam(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &core.Error{Kind: core.KindNotFound, Value: raw, Msg: "ingest not found: " + raw}
	}
	return id, nil
}

// handleListIngests lists tracked ingests, newest first.
func (s *Server) handleListIngests(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ingest.Reports())
}

// handleGetIngest returns one ingest's report.
func (s *Server) handleGetIngest(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	report, err := s.ingest.Report(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleIngestEvents streams report updates as Server-Sent Events until the
// ingest ends.
func (s *Server) handleIngestEvents(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	updates, err := s.ingest.Subscribe(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	seq := 0
	for {
		select {
		case report, ok := <-updates:
			if !ok {
				fmt.Fprintf(w, "event: complete\ndata: {}\n\n")
				flusher.Flush()
				return
			}
			seq++
			data, _ := json.Marshal(report)
			fmt.Fprintf(w, "id: %d\nevent: report\ndata: %s\n\n", seq, data)
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// handleExportFailed downloads an ingest's failures as CSV.
func (s *Server) handleExportFailed(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	report, err := s.ingest.Report(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	timestamp := report.StartedAt.Format("20060102_150405")
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="failed_rows_%s.csv"`, timestamp))
	if err := ingest.WriteFailed(w, report); err != nil {
		logging.FromContext(r.Context()).Error("write failed rows", "ingest_id", id, "error", err)
	}
}

// handleCancelIngest stops a running ingest.
func (s *Server) handleCancelIngest(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.ingest.Cancel(id); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelling"})
}

// handleRollbackIngest deletes the rows a finished ingest wrote.
func (s *Server) handleRollbackIngest(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	deleted, err := s.ingest.Rollback(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ingest_id": id, "deleted": deleted})
}

// handleReportsPage renders every tracked ingest.
func (s *Server) handleReportsPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = page("Ingests", reportsList(s.ingest.Reports())).Render(r.Context(), w)
}

// handleReportPage renders one ingest's report. Running ingests refresh
// every few seconds.
func (s *Server) handleReportPage(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	report, err := s.ingest.Report(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !report.Phase.Done() {
		w.Header().Set("Refresh", "2")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = page("Ingest "+report.Source, reportDetail(report)).Render(r.Context(), w)
}
