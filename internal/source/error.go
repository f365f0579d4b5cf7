package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
)

// Kind is the error taxonomy of §7: every SaldError carries exactly one.
type Kind string

const (
	SyntaxError     Kind = "SyntaxError"
	TypeError       Kind = "TypeError"
	NameError       Kind = "NameError"
	ValueError      Kind = "ValueError"
	RuntimeError    Kind = "RuntimeError"
	AttributeError  Kind = "AttributeError"
	IndexError      Kind = "IndexError"
	ArgumentError   Kind = "ArgumentError"
	DivisionByZero  Kind = "DivisionByZero"
	ImportError     Kind = "ImportError"
	AccessError     Kind = "AccessError"
	InterfaceError  Kind = "InterfaceError"
)

// Frame is one entry of an accumulated stack trace, captured at throw time.
type Frame struct {
	FuncName string
	File     string
	Span     Span
}

func (f Frame) String() string {
	return fmt.Sprintf("  at %s (%s:%d:%d)", f.FuncName, trimExt(f.File), f.Span.Start.Line, f.Span.Start.Column)
}

// SaldError is the language's unified diagnostic/runtime-error type. It
// propagates through the parser via Go's normal error return and through the
// VM via the Throw unwind path (§4.8) once converted to a runtime Value.
type SaldError struct {
	Kind    Kind
	Message string
	File    string
	Span    Span
	Help    string
	Trace   []Frame
}

func (e *SaldError) Error() string {
	return e.Format(false)
}

// Format renders a multi-line diagnostic, optionally with ANSI color when the
// destination is a terminal (checked by the caller via IsTerminal).
func (e *SaldError) Format(color bool) string {
	var b strings.Builder
	loc := trimExt(formatFilePath(e.File))
	head := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if color {
		head = "\x1b[31;1m" + head + "\x1b[0m"
	}
	fmt.Fprintf(&b, "%s\n", head)
	if loc != "" {
		fmt.Fprintf(&b, "  --> %s:%d:%d\n", loc, e.Span.Start.Line, e.Span.Start.Column)
	}
	if e.Help != "" {
		fmt.Fprintf(&b, "  help: %s\n", e.Help)
	}
	for _, fr := range e.Trace {
		fmt.Fprintln(&b, fr.String())
	}
	return strings.TrimRight(b.String(), "\n")
}

// WithFrame returns a copy of e with fr appended to the trace, used while
// unwinding so each call frame on the path to the throw site is recorded.
func (e *SaldError) WithFrame(fr Frame) *SaldError {
	cp := *e
	cp.Trace = append(append([]Frame{}, e.Trace...), fr)
	return &cp
}

func New(kind Kind, file string, span Span, format string, args ...interface{}) *SaldError {
	return &SaldError{Kind: kind, Message: fmt.Sprintf(format, args...), File: file, Span: span}
}

func trimExt(name string) string {
	for _, ext := range []string{".sald", ".salad"} {
		if strings.HasSuffix(name, ext) {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

func formatFilePath(file string) string {
	if file == "" {
		return file
	}
	if filepath.IsAbs(file) {
		if wd, err := os.Getwd(); err == nil {
			if rel, err := filepath.Rel(wd, file); err == nil {
				file = rel
			}
		}
	}
	return file
}

// StdoutIsTerminal reports whether stdout is attached to a TTY, gating ANSI
// color in diagnostic output the way the teacher gates terminal features.
func StdoutIsTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}
