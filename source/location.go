// Package source defines source-location tracking and the error collector
// shared by the analyzer and condenser. Grounded on the teacher's
// common/location.go and common/source.go, which build a line table once
// per file and render "file:line:col" diagnostics with a caret under the
// offending column.
package source

import (
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

// Ref identifies a line within a named source file. Lines are 1-based;
// LineTable.Locate computes them from an offset table built once per file
// (spec.md §6, "Source refs").
type Ref struct {
	File string
	Line int
}

// NoRef is used for synthetic nodes that have no source location (e.g.
// identities appended programmatically via Analyzed.AppendPolynomialIdentity).
var NoRef = Ref{File: "<generated>", Line: 0}

func (r Ref) String() string {
	if r == NoRef {
		return r.File
	}
	return r.File + ":" + strconv.Itoa(r.Line)
}

// LineTable maps byte offsets within one file's contents to 1-based line and
// 0-based column, built once per file the way the teacher's common.Source
// precomputes line offsets from the raw text.
type LineTable struct {
	file    string
	text    string
	offsets []int // offsets[i] = byte offset where line i+1 (1-based) begins
}

// NewLineTable scans text once, recording the start offset of every line.
func NewLineTable(file, text string) *LineTable {
	offsets := []int{0}
	for i, r := range text {
		if r == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return &LineTable{file: file, text: text, offsets: offsets}
}

// Locate converts a byte offset into a Ref plus a 0-based column.
func (t *LineTable) Locate(offset int) (Ref, int) {
	line := 0
	for line+1 < len(t.offsets) && t.offsets[line+1] <= offset {
		line++
	}
	col := offset - t.offsets[line]
	return Ref{File: t.file, Line: line + 1}, col
}

// Snippet returns the raw text of a 1-based line, if present.
func (t *LineTable) Snippet(line int) (string, bool) {
	if line < 1 || line > len(t.offsets) {
		return "", false
	}
	start := t.offsets[line-1]
	end := len(t.text)
	if line < len(t.offsets) {
		end = t.offsets[line] - 1
	}
	if end < start {
		end = start
	}
	return t.text[start:end], true
}

// Caret renders a one-line snippet followed by a caret positioned under
// column col (0-based), matching the teacher's Error.ToDisplayString
// layout. It uses golang.org/x/text/width to count East Asian wide and
// fullwidth runes as two columns (every other rune as one) so the caret
// still lands under the right character for multi-byte identifiers, which a
// plain byte-offset caret would not.
func Caret(snippet string, col int) string {
	var b strings.Builder
	b.WriteString(snippet)
	b.WriteString("\n")
	width := runeDisplayWidth(snippet, col)
	b.WriteString(strings.Repeat(" ", width))
	b.WriteString("^")
	return b.String()
}

func runeDisplayWidth(s string, byteCol int) int {
	cols := 0
	consumed := 0
	for _, r := range s {
		if consumed >= byteCol {
			break
		}
		consumed += runeLen(r)
		if p := width.LookupRune(r); p.Kind() == width.EastAsianWide || p.Kind() == width.EastAsianFullwidth {
			cols += 2
		} else {
			cols++
		}
	}
	return cols
}

func runeLen(r rune) int {
	switch {
	case r < 0x80:
		return 1
	case r < 0x800:
		return 2
	case r < 0x10000:
		return 3
	default:
		return 4
	}
}
