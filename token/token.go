// Package token parses stream-format analyzed text into tokens of the form
// ^lemma<tag1>...<tagN>$.
package token

import (
	"strings"

	"github.com/apertium-contrib/twlearn/corpus"
)

// Token represents one analyzed surface form (^lemma<tag1>...<tagN>$) parsed from a corpus source.
// Immutable after parsing.
type Token struct {
	lemma   string
	tagStr  string
	tags    []string
	text    string
	unknown bool
	pos     corpus.Pos
}

// SentTag is the sentence-boundary tag: a token carrying it marks end of sentence.
const SentTag = "sent"

// Lemma returns the token's lemma, possibly empty.
func (t *Token) Lemma() string {
	return t.lemma
}

// Tags returns the token's ordered tag list (without angle brackets).
func (t *Token) Tags() []string {
	return t.tags
}

// TagString returns the tag portion of the token verbatim, e.g. "<n><pl>".
func (t *Token) TagString() string {
	return t.tagStr
}

// Unknown reports whether the raw token text contained "*" (an unrecognized surface form).
func (t *Token) Unknown() bool {
	return t.unknown
}

// Text returns the full token text as it appeared in the source, e.g. "^dog<n><pl>$".
func (t *Token) Text() string {
	return t.text
}

// HasTag reports whether tag appears among the token's tags.
func (t *Token) HasTag(tag string) bool {
	for _, tg := range t.tags {
		if tg == tag {
			return true
		}
	}
	return false
}

// EndsSentence reports whether this token carries the sentence-boundary tag.
func (t *Token) EndsSentence() bool {
	return t.HasTag(SentTag)
}

// Pos returns the captured source position of the opening "^".
func (t *Token) Pos() corpus.Pos {
	return t.pos
}

func splitTags(tagStr string) []string {
	if tagStr == "" {
		return nil
	}

	parts := strings.Split(tagStr, "<")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSuffix(p, ">")
		if p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

func newToken(body string, pos corpus.Pos) *Token {
	lemma := body
	tagStr := ""
	if i := strings.IndexByte(body, '<'); i >= 0 {
		lemma = body[:i]
		tagStr = body[i:]
	}

	return &Token{
		lemma:   lemma,
		tagStr:  tagStr,
		tags:    splitTags(tagStr),
		text:    "^" + body + "$",
		unknown: strings.ContainsRune(body, '*'),
		pos:     pos,
	}
}

// Tokens extracts every ^...$ span from content, in order.
// Any text outside a span (including between a "$" and the next "^") is surface
// text and is discarded for recognition purposes. content must be a single
// source's full byte content (position tracking is relative to src).
func Tokens(src *corpus.Source) []*Token {
	content := src.Content()
	var tokens []*Token

	i := 0
	for i < len(content) {
		start := indexByteFrom(content, '^', i)
		if start < 0 {
			break
		}
		end := indexByteFrom(content, '$', start+1)
		if end < 0 {
			break
		}

		body := string(content[start+1 : end])
		tokens = append(tokens, newToken(body, corpus.NewPos(src, start)))
		i = end + 1
	}

	return tokens
}

func indexByteFrom(content []byte, b byte, from int) int {
	for i := from; i < len(content); i++ {
		if content[i] == b {
			return i
		}
	}
	return -1
}
