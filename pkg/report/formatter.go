package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/mapmerge/pkg/dataset"
	"github.com/agentstation/mapmerge/pkg/errors"
)

// Format types for output.
type Format string

const (
	// FormatText prints one marked line per fact.
	FormatText Format = "text"
	// FormatTable prints the outputs and conflicts as tables.
	FormatTable Format = "table"
	// FormatJSON prints the summary as JSON.
	FormatJSON Format = "json"
	// FormatYAML prints the summary as YAML.
	FormatYAML Format = "yaml"
)

// ParseFormat converts string to Format with validation. Empty means text.
func ParseFormat(s string) (Format, error) {
	format := Format(strings.ToLower(strings.TrimSpace(s)))
	switch format {
	case "":
		return FormatText, nil
	case FormatText, FormatTable, FormatJSON, FormatYAML:
		return format, nil
	default:
		return "", errors.NewConfigError("format",
			fmt.Sprintf("invalid format %q: must be one of: text, table, json, yaml", s), nil)
	}
}

// Formatter writes a summary.
type Formatter interface {
	Format(w io.Writer, s *Summary) error
}

// FormatterFunc allows functions to implement Formatter.
type FormatterFunc func(io.Writer, *Summary) error

// Format implements the Formatter interface.
func (f FormatterFunc) Format(w io.Writer, s *Summary) error {
	return f(w, s)
}

// NewFormatter creates the formatter for format. noColor only affects text.
func NewFormatter(format Format, noColor bool) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: "  "}
	case FormatYAML:
		return &YAMLFormatter{}
	case FormatTable:
		return &TableFormatter{}
	default:
		return &TextFormatter{NoColor: noColor}
	}
}

// ColorEnabled reports whether w should receive colored output.
func ColorEnabled(w io.Writer, noColor bool) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// TextFormatter prints the classic one-line-per-fact report.
type TextFormatter struct {
	NoColor bool
}

// Format implements the Formatter interface.
func (f *TextFormatter) Format(w io.Writer, s *Summary) error {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)
	if !ColorEnabled(w, f.NoColor) {
		green.DisableColor()
		red.DisableColor()
		yellow.DisableColor()
	}

	verb := "Cleaned"
	if s.DryRun {
		verb = "Would clean"
	}

	var lines []string
	for _, c := range s.Cleaned {
		lines = append(lines, green.Sprintf("✅ %s %s → %s", verb, c.Input, c.Output))
	}
	if s.DryRun {
		lines = append(lines,
			green.Sprintf("✅ Would write merged output → %s", s.Merged),
			green.Sprintf("✅ Would save unique exact duplicates → %s", s.Duplicates),
		)
	} else {
		lines = append(lines,
			green.Sprintf("✅ Merged output → %s", s.Merged),
			green.Sprintf("✅ Unique exact duplicates saved → %s", s.Duplicates),
		)
	}

	ids := make([]string, len(s.IDConflicts))
	for i, id := range s.IDConflicts {
		ids[i] = dataset.FormatID(id)
	}
	dups := make([]string, len(s.ExactDuplicates))
	for i, d := range s.ExactDuplicates {
		dups[i] = dataset.Key{Name: d.Name, ID: d.ID}.String()
	}

	lines = append(lines,
		red.Sprintf("❌ Removed same-name dif-ID: [%s]", strings.Join(s.NameConflicts, ", ")),
		red.Sprintf("❌ Removed same-ID dif-name: [%s]", strings.Join(ids, ", ")),
		yellow.Sprintf("⚠️ Moved exact duplicates (unique): [%s]", strings.Join(dups, ", ")),
	)

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// JSONFormatter outputs JSON format.
type JSONFormatter struct {
	Indent string
}

// Format implements the Formatter interface for JSON output.
func (f *JSONFormatter) Format(w io.Writer, s *Summary) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	if f.Indent != "" {
		encoder.SetIndent("", f.Indent)
	}
	return encoder.Encode(s)
}

// YAMLFormatter outputs YAML format.
type YAMLFormatter struct{}

// Format outputs data in YAML format.
func (f *YAMLFormatter) Format(w io.Writer, s *Summary) error {
	yamlData, err := yaml.MarshalWithOptions(s,
		yaml.Indent(2),
		yaml.IndentSequence(false),
	)
	if err != nil {
		return err
	}
	_, err = w.Write(yamlData)
	return err
}

// TableFormatter outputs an outputs table followed by a conflicts table.
type TableFormatter struct{}

// Format outputs data in table format.
func (f *TableFormatter) Format(w io.Writer, s *Summary) error {
	outputs := Data{Headers: headers("input", "output", "entries", "removed")}
	for _, c := range s.Cleaned {
		outputs.Rows = append(outputs.Rows, []string{c.Input, c.Output, fmt.Sprint(c.Entries), fmt.Sprint(c.Removed)})
	}
	outputs.Rows = append(outputs.Rows,
		[]string{"", s.Merged, fmt.Sprint(s.MergedEntries), ""},
		[]string{"", s.Duplicates, fmt.Sprint(s.DuplicateEntries), ""},
	)
	if err := renderTable(w, outputs); err != nil {
		return err
	}

	conflicts := s.Conflicts()
	if len(conflicts) == 0 {
		_, err := fmt.Fprintln(w, "No conflicts found.")
		return err
	}

	rows := Data{Headers: headers("kind", "name", "custom_model_data")}
	for _, c := range conflicts {
		rows.Rows = append(rows.Rows, []string{string(c.Kind), c.Name, c.Value})
	}
	return renderTable(w, rows)
}

// Data represents data formatted for table output.
type Data struct {
	Headers []string
	Rows    [][]string
}

func renderTable(w io.Writer, data Data) error {
	table := tablewriter.NewTable(w)

	header := make([]any, len(data.Headers))
	for i, h := range data.Headers {
		header[i] = h
	}
	table.Header(header...)

	for _, row := range data.Rows {
		rowData := make([]any, len(row))
		for i, cell := range row {
			rowData[i] = cell
		}
		if err := table.Append(rowData...); err != nil {
			return err
		}
	}
	return table.Render()
}

// headers title-cases snake_case column names.
func headers(names ...string) []string {
	caser := cases.Title(language.English)
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = caser.String(strings.ReplaceAll(n, "_", " "))
	}
	return out
}
