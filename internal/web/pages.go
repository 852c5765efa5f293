package web

// pages.go renders the HTML views with templ components.

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/sheetrow/internal/core"
	"github.com/JonMunkholm/sheetrow/internal/ingest"
)

var esc = templ.EscapeString[string]

func page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s · sheetrow</title>
<style>
body{font-family:system-ui,sans-serif;margin:2rem;color:#1f2937}
table{border-collapse:collapse}
td,th{border:1px solid #d1d5db;padding:.25rem .5rem;text-align:left}
.failed{color:#b91c1c}.complete{color:#047857}
.alert{border:1px solid #fca5a5;background:#fef2f2;padding:1rem}
</style>
</head>
<body>
<nav><a href="/">Ingests</a></nav>
<h1>%s</h1>
`, esc(title), esc(title)); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</body>\n</html>\n")
		return err
	})
}

func errorAlert(msg core.UserMessage) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<div class="alert" role="alert"><p>%s</p><p>%s</p><p><small>Code: %s</small></p></div>
`, esc(msg.Message), esc(msg.Action), esc(msg.Code))
		return err
	})
}

func reportsList(reports []ingest.Report) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if len(reports) == 0 {
			_, err := io.WriteString(w, "<p>No ingests yet.</p>\n")
			return err
		}
		if _, err := io.WriteString(w, "<table>\n<tr><th>Started</th><th>Source</th><th>Template</th><th>Phase</th><th>Lines</th><th>Failed</th><th>Written</th></tr>\n"); err != nil {
			return err
		}
		for _, r := range reports {
			if _, err := fmt.Fprintf(w, `<tr><td><a href="/ingests/%s">%s</a></td><td>%s</td><td>%s</td><td class="%s">%s</td><td>%d</td><td>%d</td><td>%d</td></tr>
`, r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), esc(r.Source), esc(r.Template),
				r.Phase, r.Phase, r.Lines, r.Failed, r.Written); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</table>\n")
		return err
	})
}

func reportDetail(r ingest.Report) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		mode := string(r.Mode)
		if r.DryRun {
			mode += ", dry run"
		}
		if _, err := fmt.Fprintf(w, `<dl>
<dt>Source</dt><dd>%s</dd>
<dt>Template</dt><dd>%s</dd>
<dt>Mode</dt><dd>%s</dd>
<dt>Phase</dt><dd class="%s">%s (%d%%)</dd>
<dt>Lines</dt><dd>%d read, %d succeeded, %d failed, %d written</dd>
<dt>Duration</dt><dd>%s</dd>
</dl>
`, esc(r.Source), esc(r.Template), esc(mode), r.Phase, r.Phase, r.Percent,
			r.Lines, r.Succeeded, r.Failed, r.Written, r.Duration.Round(time.Millisecond)); err != nil {
			return err
		}
		if r.Error != "" {
			if err := errorAlert(core.UserMessage{Message: r.Error, Code: r.Code}).Render(context.Background(), w); err != nil {
				return err
			}
		}
		if r.RolledBack {
			if _, err := io.WriteString(w, "<p>Rows written by this ingest were rolled back.</p>\n"); err != nil {
				return err
			}
		}
		if len(r.Failures) == 0 {
			return nil
		}

		if _, err := fmt.Fprintf(w, `<h2>Failures</h2>
<p><a href="/api/ingests/%s/failed.csv">Download as CSV</a></p>
<table>
<tr><th>Line</th><th>Column</th><th>Value</th><th>Code</th><th>Reason</th></tr>
`, r.ID); err != nil {
			return err
		}
		for _, f := range r.Failures {
			line := ""
			if f.Line > 0 {
				line = strconv.Itoa(f.Line)
			}
			if _, err := fmt.Fprintf(w, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>\n",
				line, esc(f.Column), esc(f.Value), esc(f.Code), esc(f.Message)); err != nil {
				return err
			}
		}
		if r.Truncated {
			if _, err := io.WriteString(w, "<tr><td colspan=\"5\">More failures were not kept.</td></tr>\n"); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</table>\n")
		return err
	})
}
