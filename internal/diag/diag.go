// Package diag formats compiler diagnostics with source context: a
// message, a position, and a category, rendered as a line-number gutter
// plus a caret pointing at the offending column.
package diag

import (
	"fmt"
	"strings"

	"github.com/antonio-tresol/fangless-go/internal/token"
)

// Category identifies which pipeline stage raised a Diagnostic.
type Category int

const (
	Lex Category = iota
	Indent
	Parse
	Semantic
)

func (c Category) String() string {
	switch c {
	case Lex:
		return "lex"
	case Indent:
		return "indent"
	case Parse:
		return "parse"
	case Semantic:
		return "semantic"
	default:
		return "unknown"
	}
}

// Diagnostic is one reported problem: what went wrong, where, and which
// stage found it.
type Diagnostic struct {
	Message  string
	Pos      token.Position
	Category Category
	Source   string
}

// New builds a Diagnostic. source may be empty when the caller has no
// source text on hand (e.g. a unit test); Format degrades gracefully.
func New(category Category, message string, pos token.Position, source string) Diagnostic {
	return Diagnostic{Message: message, Pos: pos, Category: category, Source: source}
}

// Error implements the error interface so a Diagnostic can be returned
// directly from functions that return error.
func (d Diagnostic) Error() string {
	return d.Format()
}

// Format renders the diagnostic as a category-tagged header, the offending
// source line (if available), a caret under the column, and the message.
func (d Diagnostic) Format() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "[%s] line %d:%d\n", d.Category, d.Pos.Line, d.Pos.Column)

	if line := sourceLine(d.Source, d.Pos.Line); line != "" {
		gutter := fmt.Sprintf("%4d | ", d.Pos.Line)
		sb.WriteString(gutter)
		sb.WriteString(line)
		sb.WriteString("\n")

		col := d.Pos.Column - 1
		if col < 0 {
			col = 0
		}
		sb.WriteString(strings.Repeat(" ", len(gutter)+col))
		sb.WriteString("^\n")
	}

	sb.WriteString(d.Message)
	return sb.String()
}

func sourceLine(source string, lineNum int) string {
	if source == "" || lineNum < 1 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}

// FormatAll renders a slice of diagnostics, one per block, separated by a
// blank line, with a summary header when there is more than one.
func FormatAll(diags []Diagnostic) string {
	if len(diags) == 0 {
		return ""
	}
	if len(diags) == 1 {
		return diags[0].Format()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "compilation failed with %d diagnostic(s):\n\n", len(diags))
	for i, d := range diags {
		fmt.Fprintf(&sb, "[%d of %d]\n", i+1, len(diags))
		sb.WriteString(d.Format())
		if i < len(diags)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}

// HasFatal reports whether any diagnostic in diags should halt compilation.
// Every Diagnostic produced by this compiler is currently fatal; the flag
// exists so callers don't have to special-case an empty slice themselves.
func HasFatal(diags []Diagnostic) bool {
	return len(diags) > 0
}
