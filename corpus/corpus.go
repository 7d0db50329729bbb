// Package corpus defines the corpus source files read by the token parser
// and the top-level driver.
package corpus

import (
	"bytes"
	"unicode/utf8"
)

// Source represents a single corpus file (tagged source text or a reference translation file).
type Source struct {
	name          string
	content       []byte
	lineStarts    []int
	prevLineIndex int
}

// New creates a new source.
// Name identifies the source (typically a file path) for diagnostics, may be empty.
// Content should be valid UTF-8, lines separated by "\n"; pass it through NormalizeNls first
// if it may contain "\r". Content should not be modified afterwards.
func New(name string, content []byte) *Source {
	s := &Source{name: name, content: content, prevLineIndex: -1}
	lineCnt := bytes.Count(content, []byte("\n")) + 1
	s.lineStarts = make([]int, lineCnt)
	s.lineStarts[0] = 0
	j := 1
	for i := 0; i < len(content) && j < lineCnt; i++ {
		if content[i] == '\n' {
			s.lineStarts[j] = i + 1
			j++
		}
	}

	return s
}

// Name returns the source name.
func (s *Source) Name() string {
	return s.name
}

// Content returns the source content.
func (s *Source) Content() []byte {
	return s.content
}

// Len returns the source content length in bytes.
func (s *Source) Len() int {
	return len(s.content)
}

// LineCol returns the 1-based line and column number of the rune starting at pos.
// Negative position is treated as 0, a position at or beyond the content length as EoF.
func (s *Source) LineCol(pos int) (line, col int) {
	var lineIndex int
	if pos < 0 {
		pos = 0
		lineIndex = 0
	} else if pos >= len(s.content) {
		pos = len(s.content)
		lineIndex = len(s.lineStarts) - 1
	} else {
		lineIndex = s.findLineIndex(pos)
	}

	lineStart := s.lineStarts[lineIndex]
	return lineIndex + 1, utf8.RuneCount(s.content[lineStart:pos]) + 1
}

func (s *Source) findLineIndex(pos int) int {
	if s.prevLineIndex >= 0 && s.lineStarts[s.prevLineIndex] <= pos {
		lineIndex := s.prevLineIndex
		last := len(s.lineStarts) - 1
		for lineIndex <= last && s.lineStarts[lineIndex] <= pos {
			lineIndex++
		}
		lineIndex--
		s.prevLineIndex = lineIndex
		return lineIndex
	}

	lineStart := 0
	leftIndex := 0
	rightIndex := len(s.lineStarts) - 1
	index := 0
	if s.prevLineIndex >= 0 {
		lineStart = s.lineStarts[s.prevLineIndex]
		rightIndex = s.prevLineIndex
	}
	for leftIndex < rightIndex {
		index = (leftIndex + rightIndex + 1) >> 1
		lineStart = s.lineStarts[index]
		if lineStart == pos {
			return index
		}

		if lineStart < pos {
			leftIndex = index
		} else {
			rightIndex = index - 1
			index = rightIndex
		}
	}
	s.prevLineIndex = index
	return index
}

// Pos combines a captured source with a byte position and its line/column.
// The zero value means no source and position information is available.
type Pos struct {
	src            *Source
	pos, line, col int
}

// NewPos returns a Pos. Returns the zero value if s is nil.
func NewPos(s *Source, pos int) Pos {
	if s == nil {
		return Pos{}
	}

	l, c := s.LineCol(pos)
	return Pos{s, pos, l, c}
}

// Source returns the captured source or nil.
func (p Pos) Source() *Source {
	return p.src
}

// SourceName returns the captured source name or empty string. Implements twerr.SourcePos.
func (p Pos) SourceName() string {
	if p.src == nil {
		return ""
	}
	return p.src.Name()
}

// Pos returns the captured byte position, or 0.
func (p Pos) Pos() int {
	return p.pos
}

// Line returns the captured 1-based line number, or 0. Implements twerr.SourcePos.
func (p Pos) Line() int {
	return p.line
}

// Col returns the captured 1-based column number, or 0. Implements twerr.SourcePos.
func (p Pos) Col() int {
	return p.col
}

// NormalizeNls replaces all occurrences of "\r" and "\r\n" in content with "\n" in place.
func NormalizeNls(content *[]byte) {
	const (
		lf = 10
		cr = 13
	)

	wPos := 0
	rPos := 0
	crFound := false

	for i, b := range *content {
		switch b {
		case lf:
			if crFound {
				crFound = false
				if rPos != 0 {
					copy((*content)[wPos:], (*content)[rPos:i])
				}
				wPos += i - rPos
				rPos = i + 1
			}

		case cr:
			crFound = true
			(*content)[i] = lf

		default:
			crFound = false
		}
	}

	l := len(*content)
	if rPos != 0 && rPos < l {
		copy((*content)[wPos:], (*content)[rPos:l])
	}
	*content = (*content)[:l-rPos+wPos]
}
