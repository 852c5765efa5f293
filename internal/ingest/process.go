package ingest

// process.go is the ingest loop.
//
// Records are pulled from the reader into chunks of BatchSize. A record the
// source could not parse joins the chunk as a failed line. Each chunk is
// folded into rows (FoldParallel keeps input order, so failures stay in
// line order). In lenient mode each chunk's good rows are written as soon
// as the chunk is folded. In strict mode good rows are held until the end
// and written in one call only if no line failed.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/JonMunkholm/sheetrow/internal/core"
)

// line is one record read from the source, or the reason it could not be
// read.
type line struct {
	rec core.Record
	err error
}

// progressSource is implemented by sources that know how far through their
// input they are.
type progressSource interface {
	Progress() int
}

func (s *Service) process(ctx context.Context, in *activeIngest, req Request, declared *core.Template) {
	opts := req.Options
	reader := core.NewReader(req.Source, core.ReaderOptions{
		Template: declared,
		ReconcileOptions: core.ReconcileOptions{
			CaseInsensitive: opts.CaseInsensitive,
			NoHeaders:       opts.NoHeaders,
		},
	})
	defer reader.Close()

	in.update(func(r *Report) { r.Phase = PhaseReading })

	t, err := reader.Template()
	if err != nil {
		s.end(in, PhaseFailed, err)
		return
	}
	in.mu.Lock()
	in.template = t
	in.mu.Unlock()
	in.update(func(r *Report) { r.Template = t.Name() })

	write := s.sink != nil && !opts.DryRun
	if write {
		if err := s.sink.EnsureTable(ctx, t); err != nil {
			s.end(in, phaseOf(err), err)
			return
		}
	}

	batchSize := s.cfg.BatchSize
	if opts.BatchSize > 0 {
		batchSize = opts.BatchSize
	}
	workers := s.cfg.Workers
	if opts.Workers > 0 {
		workers = opts.Workers
	}

	var (
		chunk = make([]line, 0, batchSize)
		held  []*core.Row
	)

	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		res, err := core.FoldParallel(ctx, chunk, workers, func(_ context.Context, _ int, l line) (*core.Row, error) {
			if l.err != nil {
				return nil, l.err
			}
			return t.Assemble(l.rec.Line, l.rec.Cells)
		})
		chunk = chunk[:0]
		if err != nil {
			return err
		}
		s.recordFold(in, t, res)

		rows := res.Items()
		if !write || len(rows) == 0 {
			return nil
		}
		if opts.Strict {
			held = append(held, rows...)
			return nil
		}
		return s.write(ctx, in, t, rows)
	}

	for {
		if reader.Line()%ContextCheckInterval == 0 && ctx.Err() != nil {
			s.end(in, phaseOf(ctx.Err()), ctx.Err())
			return
		}

		rec, err := reader.NextRecord()
		if errors.Is(err, io.EOF) {
			break
		}
		if core.Terminal(err) {
			s.end(in, phaseOf(err), err)
			return
		}

		chunk = append(chunk, line{rec: rec, err: err})
		if len(chunk) >= batchSize {
			if err := flush(); err != nil {
				s.end(in, phaseOf(err), err)
				return
			}
			s.updatePercent(in, req.Source)
		}
	}
	if err := flush(); err != nil {
		s.end(in, phaseOf(err), err)
		return
	}
	s.updatePercent(in, req.Source)

	if opts.Strict {
		report := in.snapshot()
		if report.Failed > 0 {
			s.end(in, PhaseFailed, &core.Error{
				Kind:     core.KindBadValue,
				Template: t.Name(),
				Msg:      fmt.Sprintf("rejected in strict mode: %d of %d lines failed", report.Failed, report.Lines),
			})
			return
		}
		if write && len(held) > 0 {
			if err := s.write(ctx, in, t, held); err != nil {
				s.end(in, phaseOf(err), err)
				return
			}
		}
	}
	s.end(in, PhaseComplete, nil)
}

func (s *Service) write(ctx context.Context, in *activeIngest, t *core.Template, rows []*core.Row) error {
	in.update(func(r *Report) { r.Phase = PhaseWriting })
	n, err := s.sink.Write(ctx, in.id, t, rows)
	if err != nil {
		return err
	}
	s.metrics.RecordWritten(t.Name(), n)
	in.update(func(r *Report) {
		r.Written += n
		r.Phase = PhaseReading
	})
	return nil
}

// recordFold counts a folded chunk into the report.
func (s *Service) recordFold(in *activeIngest, t *core.Template, res core.BatchResult[*core.Row]) {
	ok := len(res.Items())
	failed := len(res.Errors())
	s.metrics.RecordRows(t.Name(), ok, failed)

	failures := res.Failures()
	for _, f := range failures {
		s.metrics.RecordRowError(t.Name(), f.Code)
	}
	if failed > 0 {
		slog.Warn("rows failed", "ingest_id", in.id, "template", t.Name(), "failed", failed, "ok", ok)
	}

	in.update(func(r *Report) {
		r.Lines += res.Total()
		r.Succeeded += ok
		r.Failed += failed
		s.appendFailures(r, failures)
	})
}

func (s *Service) appendFailures(r *Report, failures []core.Failure) {
	room := s.cfg.MaxFailures - len(r.Failures)
	if len(failures) > room {
		failures = failures[:max(room, 0)]
		r.Truncated = true
	}
	r.Failures = append(r.Failures, failures...)
}

func (s *Service) updatePercent(in *activeIngest, src core.RecordSource) {
	p, ok := src.(progressSource)
	if !ok {
		return
	}
	in.update(func(r *Report) { r.Percent = p.Progress() })
}
