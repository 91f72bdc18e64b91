package internal

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// OutputFormat selects how command results are written.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// ParseOutputFormat validates an --output value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", NewCLIError(ExitUsage, fmt.Sprintf("invalid output format %q (must be text or json)", s))
	}
}

// Printer writes a command's result either as indented JSON or as text.
// JSON output always encodes the result value itself, so scripts see the same
// shape whether the text form is a table or free-form lines.
type Printer struct {
	format OutputFormat
	w      io.Writer
}

// NewPrinter returns a Printer for format. A nil writer means stdout; an
// unknown format prints text.
func NewPrinter(format OutputFormat, w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	if format != FormatJSON {
		format = FormatText
	}
	return &Printer{format: format, w: w}
}

// Format returns the format the printer writes.
func (p *Printer) Format() OutputFormat {
	return p.format
}

// Result writes data as JSON, or calls text with the output writer.
func (p *Printer) Result(data any, text func(w io.Writer) error) error {
	if p.format == FormatJSON {
		return p.json(data)
	}
	return text(p.w)
}

// Table writes data as JSON, or rows as an aligned table under upper-cased
// headers.
func (p *Printer) Table(data any, headers []string, rows [][]string) error {
	return p.Result(data, func(w io.Writer) error {
		return writeTable(w, headers, rows)
	})
}

func (p *Printer) json(data any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(data)
}

func writeTable(w io.Writer, headers []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	upper := make([]string, len(headers))
	rule := make([]string, len(headers))
	for i, h := range headers {
		upper[i] = strings.ToUpper(h)
		rule[i] = strings.Repeat("-", len(h))
	}
	lines := append([][]string{upper, rule}, rows...)
	for _, line := range lines {
		if _, err := fmt.Fprintln(tw, strings.Join(line, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}
