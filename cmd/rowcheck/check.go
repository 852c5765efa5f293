package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sheetrow/internal/core"
	"github.com/JonMunkholm/sheetrow/internal/ingest"
	"github.com/JonMunkholm/sheetrow/internal/schema"
)

// readFlags are the header and fold settings shared by validate and convert.
type readFlags struct {
	strict          bool
	caseInsensitive bool
	noHeaders       bool
	workers         int
	batchSize       int
}

func (f *readFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.strict, "strict", false, "Fail the whole file if any line fails")
	cmd.Flags().BoolVarP(&f.caseInsensitive, "case-insensitive", "i", false, "Match headers ignoring case")
	cmd.Flags().BoolVar(&f.noHeaders, "no-headers", false, "The file has no header line; columns are taken in template order")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 1, "Rows assembled in parallel")
	cmd.Flags().IntVar(&f.batchSize, "batch-size", 0, "Lines folded per chunk (default 1000)")
}

func (f *readFlags) reconcile() core.ReconcileOptions {
	return core.ReconcileOptions{CaseInsensitive: f.caseInsensitive, NoHeaders: f.noHeaders}
}

func newValidateCmd() *cobra.Command {
	var (
		tmpl        templateFlags
		src         sourceFlags
		read        readFlags
		format      string
		failedPath  string
		maxFailures int
	)
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check every line of a file against a template",
		Long: `Validate reads every line of a CSV, TSV or XLSX file, assembles it against
the template, and reports each line that failed. With no template, one is
synthesized from the header line.

The exit status is non-zero if any line failed or the file could not be read.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "json" {
				return fmt.Errorf("unsupported format %q (use text or json)", format)
			}
			reg, name, err := tmpl.resolve()
			if err != nil {
				return err
			}
			in, err := src.open(args[0])
			if err != nil {
				return err
			}

			svc := ingest.New(reg, nil, nil, ingest.Config{MaxFailures: maxFailures})
			report, err := svc.Run(cmd.Context(), ingest.Request{
				Template: name,
				Source:   in,
				Options: ingest.Options{
					Strict:          read.strict,
					DryRun:          true,
					CaseInsensitive: read.caseInsensitive,
					NoHeaders:       read.noHeaders,
					Workers:         read.workers,
					BatchSize:       read.batchSize,
				},
			})
			if err != nil {
				return err
			}

			if failedPath != "" && len(report.Failures) > 0 {
				if err := writeFailedFile(failedPath, report); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				printReport(out, report)
			}
			return reportErr(report)
		},
	}
	tmpl.register(cmd)
	src.register(cmd)
	read.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringVar(&failedPath, "failed", "", "Write failed lines as CSV to this path")
	cmd.Flags().IntVar(&maxFailures, "max-failures", 1000, "Failures kept in the report")
	return cmd
}

func writeFailedFile(path string, report ingest.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ingest.WriteFailed(f, report); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printReport(w io.Writer, r ingest.Report) {
	fmt.Fprintf(w, "%s: template %s, %d lines, %d ok, %d failed\n",
		r.Source, r.Template, r.Lines, r.Succeeded, r.Failed)
	for _, f := range r.Failures {
		loc := fmt.Sprintf("line %d", f.Line)
		if f.Column != "" {
			loc += ", " + f.Column
		}
		msg := f.Message
		if f.Value != "" {
			msg += fmt.Sprintf(" (value %q)", f.Value)
		}
		fmt.Fprintf(w, "  %s: %s [%s]\n", loc, msg, f.Code)
	}
	if r.Truncated {
		fmt.Fprintln(w, "  ... more failures not shown")
	}
	if r.Error != "" {
		fmt.Fprintf(w, "error: %s [%s]\n", r.Error, r.Code)
	}
}

// reportErr turns an unsuccessful report into the command's error.
func reportErr(r ingest.Report) error {
	switch {
	case r.Phase != ingest.PhaseComplete:
		return fmt.Errorf("%s %s: %s", r.Source, r.Phase, r.Error)
	case r.Failed > 0:
		return fmt.Errorf("%d of %d lines failed", r.Failed, r.Lines)
	}
	return nil
}

func newConvertCmd() *cobra.Command {
	var (
		tmpl templateFlags
		src  sourceFlags
		read readFlags
	)
	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Write each assembled row as a JSON line",
		Long: `Convert streams the file through the template and writes one JSON object per
good line to standard output. Failed lines are reported on standard error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, name, err := tmpl.resolve()
			if err != nil {
				return err
			}
			var declared *core.Template
			if name != "" {
				declared, _ = reg.Lookup(name)
			}
			in, err := src.open(args[0])
			if err != nil {
				return err
			}
			reader := core.NewReader(in, core.ReaderOptions{Template: declared, ReconcileOptions: read.reconcile()})
			defer reader.Close()

			enc := json.NewEncoder(cmd.OutOrStdout())
			var ok, failed int
			for row, err := range reader.All() {
				if core.Terminal(err) {
					return err
				}
				if err != nil {
					failed++
					for _, f := range core.Failures(err) {
						fmt.Fprintf(cmd.ErrOrStderr(), "line %d: %s: %s [%s]\n", f.Line, f.Column, f.Message, f.Code)
					}
					continue
				}
				if err := enc.Encode(row); err != nil {
					return err
				}
				ok++
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d lines failed", failed, ok+failed)
			}
			return nil
		},
	}
	tmpl.register(cmd)
	src.register(cmd)
	cmd.Flags().BoolVarP(&read.caseInsensitive, "case-insensitive", "i", false, "Match headers ignoring case")
	cmd.Flags().BoolVar(&read.noHeaders, "no-headers", false, "The file has no header line; columns are taken in template order")
	return cmd
}

func newInferCmd() *cobra.Command {
	var (
		src    sourceFlags
		name   string
		format string
	)
	cmd := &cobra.Command{
		Use:   "infer <file>",
		Short: "Print a schema document built from a file's header line",
		Long: `Infer reads the header line and prints a template in which every column is
an optional string. Edit the output to tighten types, then load it with
--schema or drop it into the templates directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := src.open(args[0])
			if err != nil {
				return err
			}
			reader := core.NewReader(in, core.ReaderOptions{})
			defer reader.Close()

			headers, err := reader.Headers()
			if err != nil {
				return err
			}
			if name == "" {
				base := filepath.Base(args[0])
				name = strings.TrimSuffix(base, filepath.Ext(base))
			}
			t, err := core.FromHeaders(name, headers)
			if err != nil {
				return err
			}
			data, err := schema.Encode(t, format)
			if err != nil {
				return err
			}
			return writeDoc(cmd.OutOrStdout(), data)
		},
	}
	src.register(cmd)
	cmd.Flags().StringVarP(&name, "name", "n", "", "Template name (default: file name)")
	cmd.Flags().StringVar(&format, "format", schema.FormatJSON, "Output format: json or yaml")
	return cmd
}
