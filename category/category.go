// Package category builds and queries the lemma+tag-pattern to category-name
// inverted index described by a transfer rules file's def-cat/cat-item entries.
package category

import (
	"regexp"
	"strings"

	"github.com/apertium-contrib/twlearn/token"
	"github.com/apertium-contrib/twlearn"
	"github.com/apertium-contrib/twlearn/util/intset"
)

// Error codes used by category.
const (
	// BadTagPatternError indicates a tag attribute that does not parse as a tag pattern.
	BadTagPatternError = twerr.CategoryErrors + iota
)

// anyTagRe matches a single tag of any name, e.g. "<n>".
const anyTagRe = `<[a-z0-9-]+>`

// ID is an interned category name.
type ID int

// CategoryRule is one compiled row of the category index: a tag-pattern matcher
// plus an optional required lemma, contributing to one category.
type CategoryRule struct {
	Regex    *regexp.Regexp
	Lemma    string // empty means "any lemma" (spec.md §9 open question 3, resolved)
	Category ID
}

// Index is the lemma+tags -> category-name inverted index built from a
// transfer rules file's def-cat/cat-item entries. Immutable once built, safe
// for concurrent read-only use by fst and coverage.
type Index struct {
	rules     []CategoryRule
	names     []string
	nameToID  map[string]ID
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{nameToID: make(map[string]ID)}
}

// Intern returns the ID for name, allocating a new one on first use.
func (idx *Index) Intern(name string) ID {
	if id, ok := idx.nameToID[name]; ok {
		return id
	}
	id := ID(len(idx.names))
	idx.names = append(idx.names, name)
	idx.nameToID[name] = id
	return id
}

// Name returns the category name for id.
func (idx *Index) Name(id ID) string {
	return idx.names[id]
}

// Len returns the number of distinct categories interned so far.
func (idx *Index) Len() int {
	return len(idx.names)
}

// Add compiles a cat-item's tags attribute into a CategoryRule mapping to category.
// lemma == "" matches any token lemma.
func (idx *Index) Add(category, lemma, tags string) error {
	re, err := CompileTagPattern(tags)
	if err != nil {
		return err
	}

	idx.rules = append(idx.rules, CategoryRule{
		Regex:    re,
		Lemma:    lemma,
		Category: idx.Intern(category),
	})
	return nil
}

// CompileTagPattern compiles a cat-item tags attribute (dot-separated tag names,
// "*" as single-tag wildcard, trailing "*" as zero-or-more) into the regular
// expression that matches a token's tag string (e.g. "<n><pl>").
//
// Rules: empty pattern -> "^$" (matches a token with no tags); a non-terminal
// literal element becomes "<name>"; a non-terminal "*" becomes the any-tag
// regex; a terminal literal element becomes "<name>" anchored at the end; a
// terminal "*" becomes zero-or-more any-tags anchored at the end.
func CompileTagPattern(tags string) (*regexp.Regexp, error) {
	if tags == "" {
		return regexp.Compile(`^$`)
	}

	elems := strings.Split(tags, ".")
	var b strings.Builder
	b.WriteByte('^')
	for _, tag := range elems[:len(elems)-1] {
		if tag == "*" {
			b.WriteString(anyTagRe)
		} else {
			b.WriteByte('<')
			b.WriteString(tag)
			b.WriteByte('>')
		}
	}

	last := elems[len(elems)-1]
	if last == "*" {
		b.WriteByte('(')
		b.WriteString(anyTagRe)
		b.WriteByte(')')
		b.WriteByte('*')
	} else {
		b.WriteByte('<')
		b.WriteString(last)
		b.WriteByte('>')
	}
	b.WriteByte('$')

	return regexp.Compile(b.String())
}

// CategoriesOf returns the set of category ids that tok belongs to, by
// exhaustively testing every CategoryRule whose lemma matches (empty Lemma
// matches any token lemma) against tok's tag string, unioning the results.
// Returns an empty set if nothing matches (token is then uncategorizable,
// unless it is an unknown word — see the coverage package).
func (idx *Index) CategoriesOf(tok *token.Token) intset.T {
	set := intset.New()
	for _, r := range idx.rules {
		if r.Lemma != "" && r.Lemma != tok.Lemma() {
			continue
		}
		if r.Regex.MatchString(tok.TagString()) {
			set.Add(int(r.Category))
		}
	}
	return set
}
