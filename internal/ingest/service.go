// Package ingest runs files through templates.
//
// An ingest reads a record source with a core.Reader, assembles rows in
// chunks (in parallel when Workers > 1), and writes the good rows to a Sink.
// Every failed line is kept in the ingest's Report; whether a failed line
// stops the write is the Mode's decision. Ingests run in the background and
// are tracked by ID until their report expires.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/sheetrow/internal/core"
)

// ContextCheckInterval is how many lines are read between cancellation
// checks.
var ContextCheckInterval = 100

// Sink stores assembled rows. Rows written by one ingest can be removed
// again with DeleteIngest.
type Sink interface {
	EnsureTable(ctx context.Context, t *core.Template) error
	Write(ctx context.Context, ingestID uuid.UUID, t *core.Template, rows []*core.Row) (int64, error)
	DeleteIngest(ctx context.Context, ingestID uuid.UUID, t *core.Template) (int64, error)
}

// Config holds service settings. Zero values take defaults.
type Config struct {
	MaxConcurrent int
	MaxWait       time.Duration
	// Timeout bounds a single ingest.
	Timeout   time.Duration
	BatchSize int
	Workers   int
	// MaxFailures caps the failures kept per report.
	MaxFailures int
	// Retention is how long a finished report stays available.
	Retention time.Duration
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Minute
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 1000
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.MaxFailures <= 0 {
		c.MaxFailures = 1000
	}
	if c.Retention <= 0 {
		c.Retention = time.Hour
	}
	return c
}

// Options are per-ingest settings.
type Options struct {
	Strict          bool `json:"strict"`
	DryRun          bool `json:"dry_run"`
	CaseInsensitive bool `json:"case_insensitive"`
	NoHeaders       bool `json:"no_headers"`
	// Workers and BatchSize override the service defaults when positive.
	Workers   int `json:"workers,omitempty"`
	BatchSize int `json:"batch_size,omitempty"`
}

// Request describes one ingest.
type Request struct {
	// Template names a registered template. Empty means the template is
	// synthesized from the source's header line.
	Template string
	Source   core.RecordSource
	Options  Options
}

// Service runs ingests.
type Service struct {
	registry *core.Registry
	sink     Sink
	limiter  *Limiter
	metrics  *Metrics
	cfg      Config

	mu      sync.RWMutex
	ingests map[uuid.UUID]*activeIngest
}

// New creates a service. A nil sink makes every ingest a dry run; nil
// metrics get a private set.
func New(registry *core.Registry, sink Sink, metrics *Metrics, cfg Config) *Service {
	cfg = cfg.withDefaults()
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Service{
		registry: registry,
		sink:     sink,
		limiter:  NewLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		metrics:  metrics,
		cfg:      cfg,
		ingests:  make(map[uuid.UUID]*activeIngest),
	}
}

// Limiter returns the concurrency limiter.
func (s *Service) Limiter() *Limiter { return s.limiter }

// Metrics returns the service metrics.
func (s *Service) Metrics() *Metrics { return s.metrics }

// CanWrite reports whether the service has a sink.
func (s *Service) CanWrite() bool { return s.sink != nil }

type activeIngest struct {
	id        uuid.UUID
	mu        sync.Mutex
	report    Report
	template  *core.Template
	cancel    context.CancelFunc
	done      chan struct{}
	listeners []chan Report
}

func (a *activeIngest) update(fn func(r *Report)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn(&a.report)
	for _, ch := range a.listeners {
		select {
		case ch <- a.report.clone():
		default:
			// Listener is slow, skip this update
		}
	}
}

func (a *activeIngest) snapshot() Report {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.report.clone()
}

func (a *activeIngest) finish() {
	a.mu.Lock()
	for _, ch := range a.listeners {
		close(ch)
	}
	a.listeners = nil
	close(a.done)
	a.mu.Unlock()
}

// Start begins an ingest in the background and returns its ID. The source
// is closed when the ingest ends, including when Start fails.
//
// Returns ErrTooManyIngests if no slot frees up within the limiter's wait.
func (s *Service) Start(ctx context.Context, req Request) (uuid.UUID, error) {
	if req.Source == nil {
		return uuid.Nil, &core.Error{Kind: core.KindBadValue, Msg: "ingest has no source"}
	}

	var declared *core.Template
	if req.Template != "" {
		t, err := s.registry.Get(req.Template)
		if err != nil {
			_ = req.Source.Close()
			return uuid.Nil, err
		}
		declared = t
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		_ = req.Source.Close()
		return uuid.Nil, err
	}

	id := uuid.New()
	mode := ModeLenient
	if req.Options.Strict {
		mode = ModeStrict
	}
	ingestCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)

	in := &activeIngest{
		id: id,
		report: Report{
			ID:        id,
			Template:  req.Template,
			Source:    req.Source.Name(),
			Mode:      mode,
			DryRun:    req.Options.DryRun || s.sink == nil,
			Phase:     PhaseStarting,
			StartedAt: time.Now(),
		},
		template: declared,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	s.mu.Lock()
	s.ingests[id] = in
	s.mu.Unlock()

	s.metrics.Active.Inc()
	go func() {
		defer s.limiter.Release()
		defer s.metrics.Active.Dec()
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic in ingest", "ingest_id", id, "source", req.Source.Name(), "panic", r)
				_ = req.Source.Close()
				s.end(in, PhaseFailed, fmt.Errorf("internal error: %v", r))
			}
		}()
		s.process(ingestCtx, in, req, declared)
	}()

	return id, nil
}

// Run starts an ingest and waits for its final report.
func (s *Service) Run(ctx context.Context, req Request) (Report, error) {
	id, err := s.Start(ctx, req)
	if err != nil {
		return Report{}, err
	}
	return s.Wait(ctx, id)
}

func (s *Service) lookup(id uuid.UUID) (*activeIngest, error) {
	s.mu.RLock()
	in, ok := s.ingests[id]
	s.mu.RUnlock()
	if !ok {
		return nil, &core.Error{Kind: core.KindNotFound, Value: id.String(), Msg: fmt.Sprintf("ingest not found: %s", id)}
	}
	return in, nil
}

// Wait blocks until the ingest ends or ctx does, and returns its report.
func (s *Service) Wait(ctx context.Context, id uuid.UUID) (Report, error) {
	in, err := s.lookup(id)
	if err != nil {
		return Report{}, err
	}
	select {
	case <-in.done:
		return in.snapshot(), nil
	case <-ctx.Done():
		return in.snapshot(), ctx.Err()
	}
}

// Report returns the current report without blocking.
func (s *Service) Report(id uuid.UUID) (Report, error) {
	in, err := s.lookup(id)
	if err != nil {
		return Report{}, err
	}
	return in.snapshot(), nil
}

// Reports returns every tracked report, newest first.
func (s *Service) Reports() []Report {
	s.mu.RLock()
	out := make([]Report, 0, len(s.ingests))
	for _, in := range s.ingests {
		out = append(out, in.snapshot())
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b Report) int { return b.StartedAt.Compare(a.StartedAt) })
	return out
}

// Subscribe returns a channel of report updates. The current report is
// sent first and the channel is closed when the ingest ends.
func (s *Service) Subscribe(id uuid.UUID) (<-chan Report, error) {
	in, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	ch := make(chan Report, 10)
	in.mu.Lock()
	defer in.mu.Unlock()
	ch <- in.report.clone()
	select {
	case <-in.done:
		close(ch)
	default:
		in.listeners = append(in.listeners, ch)
	}
	return ch, nil
}

// Cancel stops a running ingest. Cancelling a finished ingest does nothing.
func (s *Service) Cancel(id uuid.UUID) error {
	in, err := s.lookup(id)
	if err != nil {
		return err
	}
	in.cancel()
	return nil
}

// Rollback deletes every row a finished ingest wrote and returns how many
// were deleted.
func (s *Service) Rollback(ctx context.Context, id uuid.UUID) (int64, error) {
	in, err := s.lookup(id)
	if err != nil {
		return 0, err
	}
	if s.sink == nil {
		return 0, &core.Error{Kind: core.KindNotImplemented, Msg: "no database is configured"}
	}

	select {
	case <-in.done:
	default:
		return 0, &core.Error{Kind: core.KindBadValue, Value: id.String(), Msg: "ingest is still running; cancel it first"}
	}

	in.mu.Lock()
	t := in.template
	in.mu.Unlock()
	if t == nil {
		return 0, nil
	}

	n, err := s.sink.DeleteIngest(ctx, id, t)
	if err != nil {
		return 0, err
	}
	in.update(func(r *Report) { r.RolledBack = true })
	slog.Info("ingest rolled back", "ingest_id", id, "template", t.Name(), "deleted", n)
	return n, nil
}

// Shutdown waits for running ingests to finish.
func (s *Service) Shutdown(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// end records the final phase, logs the outcome, and schedules the report
// for removal.
func (s *Service) end(in *activeIngest, phase Phase, err error) {
	var final Report
	in.update(func(r *Report) {
		r.Phase = phase
		r.Duration = time.Since(r.StartedAt)
		if phase == PhaseComplete {
			r.Percent = 100
		}
		if err != nil {
			r.Error = err.Error()
			r.Code = core.MapError(err).Code
		}
		final = r.clone()
	})
	in.finish()

	template := final.Template
	if template == "" {
		template = "unknown"
	}
	s.metrics.RecordIngest(template, phase, final.Duration)

	logger := slog.With("ingest_id", final.ID, "template", final.Template, "source", final.Source)
	switch phase {
	case PhaseComplete:
		logger.Info("ingest complete",
			"lines", final.Lines, "succeeded", final.Succeeded, "failed", final.Failed,
			"written", final.Written, "duration", final.Duration)
	case PhaseCancelled:
		logger.Info("ingest cancelled", "lines", final.Lines)
	default:
		logger.Error("ingest failed", "error", err, "code", final.Code, "lines", final.Lines)
	}

	time.AfterFunc(s.cfg.Retention, func() {
		s.mu.Lock()
		delete(s.ingests, final.ID)
		s.mu.Unlock()
	})
}

// phaseOf classifies the error that stopped an ingest.
func phaseOf(err error) Phase {
	if errors.Is(err, context.Canceled) {
		return PhaseCancelled
	}
	return PhaseFailed
}
