// Package diag renders compiler diagnostics the way spec §7 describes:
// module name, line number, offending lexeme (or "end"), and a
// human-readable message — plus a source-line caret when the full line is
// available, colorized when the destination is a terminal.
package diag

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rivo/uniseg"
)

// Diagnostic is one compile error, independent of how it is rendered.
type Diagnostic struct {
	Module  string
	Line    int
	Where   string // "'<lexeme>'", "end", or "" for a scanner error token
	Message string
}

// String renders d without color, in the "module:line: Error at X: msg"
// shape the teacher's errorAt prints to stderr.
func (d Diagnostic) String() string {
	if d.Where == "" {
		return fmt.Sprintf("%s:%d: Error: %s", d.Module, d.Line, d.Message)
	}
	return fmt.Sprintf("%s:%d: Error at %s: %s", d.Module, d.Line, d.Where, d.Message)
}

// Renderer prints Diagnostics to a destination, colorizing only when that
// destination is attached to a terminal.
type Renderer struct {
	w      io.Writer
	color  bool
	errHue *color.Color
}

// errorRGB is a fixed warm red chosen in HSL space via go-colorful so
// it reads clearly against both dark and light terminal themes.
var errorRGB = colorful.Hsl(4, 0.78, 0.55).Clamped()

// NewRenderer wraps w (typically os.Stderr). If w is *os.File and it is a
// terminal, output goes through go-colorable (for ANSI translation on
// Windows consoles) and is colorized with fatih/color; otherwise
// diagnostics print as plain text.
func NewRenderer(w io.Writer) *Renderer {
	r := &Renderer{w: w}
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		r.w = colorable.NewColorable(f)
		r.color = true
		cr, cg, cb := errorRGB.RGB255()
		r.errHue = color.RGB(int(cr), int(cg), int(cb))
	}
	return r
}

// Render writes every diagnostic in diags to the renderer's destination,
// followed by a caret line under the offending column when source is
// non-empty and the diagnostic's line can be found in it.
func (r *Renderer) Render(diags []Diagnostic, source string) {
	lines := strings.Split(source, "\n")
	for _, d := range diags {
		r.renderOne(d, lines)
	}
}

func (r *Renderer) renderOne(d Diagnostic, lines []string) {
	if r.color && r.errHue != nil {
		r.errHue.Fprintf(r.w, "%s:%d", d.Module, d.Line)
		fmt.Fprintf(r.w, ": error")
		if d.Where != "" {
			fmt.Fprintf(r.w, " at %s", d.Where)
		}
		fmt.Fprintf(r.w, ": %s\n", d.Message)
	} else {
		fmt.Fprintln(r.w, d.String())
	}

	if d.Line < 1 || d.Line > len(lines) {
		return
	}
	lineText := lines[d.Line-1]
	fmt.Fprintf(r.w, "  %s\n", lineText)

	col := caretColumn(lineText, d.Where)
	if col < 0 {
		return
	}
	fmt.Fprintf(r.w, "  %s^\n", strings.Repeat(" ", col))
}

// caretColumn finds where the quoted lexeme in where starts within
// lineText, measuring display width with uniseg so multi-byte identifiers
// line up the caret correctly.
func caretColumn(lineText, where string) int {
	if len(where) < 2 || where[0] != '\'' {
		return -1
	}
	lexeme := where[1 : len(where)-1]
	idx := strings.Index(lineText, lexeme)
	if idx < 0 {
		return -1
	}
	return uniseg.StringWidth(lineText[:idx])
}
