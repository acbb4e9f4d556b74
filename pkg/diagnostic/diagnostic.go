// Package diagnostic renders validation reports for people (colored text) and
// for tools (JSON).
package diagnostic

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"gitlab.com/tozd/go/errors"

	"github.com/3fn/DesignerPunkv2-sub017/pkg/engine"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/tokens"
)

// Severity is the display level of a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

func severityOf(l tokens.Level) Severity {
	switch l {
	case tokens.LevelError:
		return SeverityError
	case tokens.LevelWarning:
		return SeverityWarning
	}
	return SeverityInfo
}

// Diagnostic is one validation result prepared for display.
type Diagnostic struct {
	Token                 string   `json:"token"`
	Message               string   `json:"message"`
	Rationale             string   `json:"rationale"`
	MathematicalReasoning string   `json:"mathematicalReasoning"`
	Suggestions           []string `json:"suggestions,omitempty"`
	Severity              Severity `json:"severity"`
}

// Diagnostics groups results by severity, keeping their order within a group.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
	Infos    []Diagnostic
}

func FromResults(results []tokens.ValidationResult) *Diagnostics {
	d := &Diagnostics{
		Errors:   make([]Diagnostic, 0),
		Warnings: make([]Diagnostic, 0),
		Infos:    make([]Diagnostic, 0),
	}
	for _, r := range results {
		diag := Diagnostic{
			Token:                 r.Token,
			Message:               r.Message,
			Rationale:             r.Rationale,
			MathematicalReasoning: r.MathematicalReasoning,
			Suggestions:           r.Suggestions,
			Severity:              severityOf(r.Level),
		}
		switch diag.Severity {
		case SeverityError:
			d.Errors = append(d.Errors, diag)
		case SeverityWarning:
			d.Warnings = append(d.Warnings, diag)
		default:
			d.Infos = append(d.Infos, diag)
		}
	}
	return d
}

// Formatter renders a report.
type Formatter interface {
	Format(report *engine.Report) ([]byte, error)
}

// NewFormatter returns the formatter for "text" or "json".
func NewFormatter(format string, colorize bool) (Formatter, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return NewTextFormatter(colorize), nil
	case "json":
		return NewJSONFormatter(), nil
	}
	return nil, errors.Errorf("unknown output format %q: expected text or json", format)
}

// TextFormatter prints errors and warnings with their reasoning, then the
// summary and system analysis. Passing tokens are listed only when Verbose.
type TextFormatter struct {
	Verbose bool

	errfmt  *color.Color
	warnfmt *color.Color
	okfmt   *color.Color
	faint   *color.Color
	bold    *color.Color
}

func NewTextFormatter(colorize bool) *TextFormatter {
	f := &TextFormatter{
		errfmt:  color.New(color.FgRed, color.Bold),
		warnfmt: color.New(color.FgYellow),
		okfmt:   color.New(color.FgGreen),
		faint:   color.New(color.Faint),
		bold:    color.New(color.Bold),
	}
	for _, c := range []*color.Color{f.errfmt, f.warnfmt, f.okfmt, f.faint, f.bold} {
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return f
}

func (f *TextFormatter) Format(report *engine.Report) ([]byte, error) {
	if report == nil {
		return nil, errors.Errorf("report is nil")
	}
	d := FromResults(report.Results)

	var b bytes.Buffer
	for _, diag := range d.Errors {
		f.writeDiagnostic(&b, f.errfmt.Sprint("✗"), diag)
	}
	for _, diag := range d.Warnings {
		f.writeDiagnostic(&b, f.warnfmt.Sprint("⚠"), diag)
	}
	if f.Verbose {
		for _, diag := range d.Infos {
			fmt.Fprintf(&b, "%s %s  %s\n", f.okfmt.Sprint("✓"), f.bold.Sprint(diag.Token), diag.Message)
		}
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}

	s := report.Summary
	fmt.Fprintf(&b, "%s %d tokens: %s, %s, %s (health %.1f%%)\n",
		f.bold.Sprint("Summary:"), s.Total,
		f.okfmt.Sprintf("%d pass", s.Pass),
		f.warnfmt.Sprintf("%d warning", s.Warning),
		f.errfmt.Sprintf("%d error", s.Error),
		s.OverallHealthScore*100)

	a := report.SystemAnalysis
	fmt.Fprintf(&b, "Mathematical consistency %.1f%%, strategic flexibility %.1f%%, semantic-first usage %.1f%%\n",
		a.MathematicalConsistencyScore*100, a.StrategicFlexibilityPercentage, a.CompositionSemanticFirstPercentage)

	if len(a.CommonIssues) > 0 {
		b.WriteString(f.bold.Sprint("Common issues:") + "\n")
		for _, issue := range a.CommonIssues {
			fmt.Fprintf(&b, "  - %s\n", issue)
		}
	}
	if len(a.ImprovementRecommendations) > 0 {
		b.WriteString(f.bold.Sprint("Recommendations:") + "\n")
		for _, rec := range a.ImprovementRecommendations {
			fmt.Fprintf(&b, "  - %s\n", rec)
		}
	}
	fmt.Fprintf(&b, "%s\n", f.faint.Sprintf("report %s at %s", report.ID, report.GeneratedAt.Format("2006-01-02T15:04:05Z07:00")))
	return b.Bytes(), nil
}

func (f *TextFormatter) writeDiagnostic(b *bytes.Buffer, mark string, d Diagnostic) {
	fmt.Fprintf(b, "%s %s  %s\n", mark, f.bold.Sprint(d.Token), d.Message)
	if d.Rationale != "" {
		fmt.Fprintf(b, "    %s\n", d.Rationale)
	}
	if d.MathematicalReasoning != "" {
		fmt.Fprintf(b, "    %s\n", f.faint.Sprint(d.MathematicalReasoning))
	}
	for _, s := range d.Suggestions {
		fmt.Fprintf(b, "    → %s\n", s)
	}
}

// JSONFormatter emits the report as indented JSON.
type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

func (f *JSONFormatter) Format(report *engine.Report) ([]byte, error) {
	if report == nil {
		return nil, errors.Errorf("report is nil")
	}
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, errors.Errorf("encoding report: %w", err)
	}
	return append(out, '\n'), nil
}
