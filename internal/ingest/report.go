package ingest

import (
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/sheetrow/internal/core"
)

// Phase indicates the current stage of an ingest.
type Phase string

const (
	PhaseStarting  Phase = "starting"
	PhaseReading   Phase = "reading"
	PhaseWriting   Phase = "writing"
	PhaseComplete  Phase = "complete"
	PhaseFailed    Phase = "failed"
	PhaseCancelled Phase = "cancelled"
)

// Done reports whether p is a final phase.
func (p Phase) Done() bool {
	return p == PhaseComplete || p == PhaseFailed || p == PhaseCancelled
}

// Mode decides what one failed line does to an ingest.
type Mode string

const (
	// ModeLenient keeps every good row and reports the bad ones.
	ModeLenient Mode = "lenient"
	// ModeStrict writes nothing unless every line succeeds.
	ModeStrict Mode = "strict"
)

// Report is the state of an ingest. It is updated while the ingest runs and
// is final once Phase is done.
type Report struct {
	ID       uuid.UUID `json:"id"`
	Template string    `json:"template"`
	Source   string    `json:"source"`
	Mode     Mode      `json:"mode"`
	DryRun   bool      `json:"dry_run"`
	Phase    Phase     `json:"phase"`

	// Lines counts data lines read; every line is either succeeded or failed.
	Lines     int   `json:"lines"`
	Succeeded int   `json:"succeeded"`
	Failed    int   `json:"failed"`
	Written   int64 `json:"written"`
	Percent   int   `json:"percent"`

	// Failures holds one entry per failed cell, up to the service's limit.
	Failures  []core.Failure `json:"failures,omitempty"`
	Truncated bool           `json:"failures_truncated,omitempty"`

	// Error and Code describe why a failed ingest stopped.
	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`

	RolledBack bool          `json:"rolled_back,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
}

// clone returns a copy that does not share the failure slice.
func (r Report) clone() Report {
	r.Failures = append([]core.Failure(nil), r.Failures...)
	return r
}
