// Package report renders the checkpoints of a finalized execution.
package report

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"strconv"

	errs "reqbench/pkg/errors"
	"reqbench/pkg/ledger"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

var templates = template.Must(template.New("report").ParseFS(templateFS, "templates/*.gohtml"))

// PanelState is the open/closed state of the widget panels, as remembered by the browser
type PanelState struct {
	MainOpen    bool
	DetailsOpen bool
}

// Summary is everything the report shows about one finalized execution
type Summary struct {
	ExecutionTimeMs int64
	PeakMemory      uint64
	CheckpointCount int
	Goroutines      int
	// Checkpoints holds segment durations, i.e. a ledger after ComputeDeltas
	Checkpoints []ledger.Checkpoint
	Panel       PanelState
	// AssetBase is the URL prefix the widget loads its css and js from
	AssetBase string
}

// detailRow is one rendered line of the details log
type detailRow struct {
	Label      string
	DurationMs int64
	Percent    int64
	Memory     string
	File       string
	Line       int
}

type widgetData struct {
	Summary
	ExecutionTime string
	Memory        string
	DetailsLog    template.HTML
}

func detailRows(cps []ledger.Checkpoint, totalMs int64) []detailRow {
	rows := make([]detailRow, 0, len(cps))
	for _, cp := range cps {
		rows = append(rows, detailRow{
			Label:      StripDisambiguator(cp.Key),
			DurationMs: cp.Value,
			Percent:    Percent(cp.Value, totalMs),
			Memory:     FormatBytes(cp.Memory),
			File:       cp.File,
			Line:       cp.Line,
		})
	}
	return rows
}

// RenderDetailLog renders one line per checkpoint with its duration, share of
// totalMs and memory. Checkpoints with a source location carry it as a hover title.
func RenderDetailLog(cps []ledger.Checkpoint, totalMs int64) string {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "details", detailRows(cps, totalMs)); err != nil {
		return ""
	}
	return buf.String()
}

// WriteSummary writes the HTML widget for s to w
func WriteSummary(w io.Writer, s Summary) error {
	total := s.ExecutionTimeMs
	if total <= 0 {
		total = 1
	}

	var details bytes.Buffer
	if err := templates.ExecuteTemplate(&details, "details", detailRows(s.Checkpoints, total)); err != nil {
		return errs.Wrap(errs.ErrorTypeRender, "render details log", err)
	}

	data := widgetData{
		Summary:       s,
		ExecutionTime: formatMs(total),
		Memory:        FormatBytes(s.PeakMemory),
		// produced by html/template above, already escaped
		DetailsLog: template.HTML(details.String()),
	}
	if err := templates.ExecuteTemplate(w, "widget", data); err != nil {
		return errs.Wrap(errs.ErrorTypeRender, "render widget", err)
	}
	return nil
}

func formatMs(ms int64) string {
	return strconv.FormatInt(ms, 10) + " ms"
}

// RenderSummary returns the HTML widget for s, or "" if it cannot be rendered
func RenderSummary(s Summary) string {
	var buf bytes.Buffer
	if err := WriteSummary(&buf, s); err != nil {
		return ""
	}
	return buf.String()
}
