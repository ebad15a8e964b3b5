// Package describe formats debug lines for values: "name (line 42) <int>: 7" for
// values and "name (line 42) shape: 3 x 4" for their dimensions.
package describe

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
)

// Blank is shown when the caller's variable name could not be recovered.
const Blank = "_"

// Accent colors for styled output.
var (
	LineColor  = lipgloss.Color("#2196F3") // Blue
	LabelColor = lipgloss.Color("#8BC34A") // Lime Green
)

// Formatter renders debug lines. A zero Formatter renders plain text.
type Formatter struct {
	color      bool
	lineStyle  lipgloss.Style
	labelStyle lipgloss.Style
}

// NewFormatter returns a formatter; with color the line number is underlined like a
// link and the shape label is highlighted.
func NewFormatter(color bool) *Formatter {
	return &Formatter{
		color:      color,
		lineStyle:  lipgloss.NewStyle().Foreground(LineColor).Underline(true),
		labelStyle: lipgloss.NewStyle().Foreground(LabelColor).Bold(true),
	}
}

// Value formats v as "{name} (line {n}) <{type}>: {value}" when verbose and
// "{name}: {value}" otherwise. A non-empty repr replaces the formatted value.
func (f *Formatter) Value(name string, line int, v any, repr string, verbose bool) string {
	if name == "" {
		name = Blank
	}
	if repr == "" {
		repr = fmt.Sprintf("%v", v)
	}
	if !verbose {
		return name + ": " + repr
	}
	return fmt.Sprintf("%s (line %s) <%s>: %s", name, f.line(line), TypeName(v), repr)
}

// Shape formats a measured value as "{name} (line {n}) {label}: {val}" when verbose
// and "{name} {label}: {val}" otherwise.
func (f *Formatter) Shape(name string, line int, label, val string, verbose bool) string {
	if name == "" {
		name = Blank
	}
	if f.color {
		label = f.labelStyle.Render(label)
	}
	if !verbose {
		return name + " " + label + ": " + val
	}
	return fmt.Sprintf("%s (line %s) %s: %s", name, f.line(line), label, val)
}

func (f *Formatter) line(n int) string {
	s := "?"
	if n > 0 {
		s = strconv.Itoa(n)
	}
	if f.color {
		return f.lineStyle.Render(s)
	}
	return s
}

// TypeName is the runtime type of v as Go prints it.
func TypeName(v any) string {
	return fmt.Sprintf("%T", v)
}
