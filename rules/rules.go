// Package rules ingests a transfer-rules XML file (the t1x document): the
// category index (section-def-cats), the ordered rule list and ambiguous
// rule groups (section-rules), and everything else the file contains,
// preserved verbatim for any later rewrite.
package rules

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"regexp"

	"github.com/beevik/etree"

	"github.com/apertium-contrib/twlearn/category"
	"github.com/apertium-contrib/twlearn"
)

// Error codes used by rules.
const (
	// MissingSectionError indicates section-def-cats or section-rules is absent.
	MissingSectionError = twerr.RulesErrors + iota

	// MissingAttributeError indicates a required attribute (cat-item tags/def-cat n/pattern-item n) is absent.
	MissingAttributeError

	// ParseError indicates the file is not well-formed XML.
	ParseError
)

// Rule is one numbered transfer rule.
type Rule struct {
	// Index is the rule's 0-based position in section-rules (insertion order).
	Index int

	// ID is the rule's author-supplied id attribute, or empty.
	ID string

	// Pattern is the rule's category-name sequence, length >= 1.
	Pattern []string

	// Element is the original <rule> XML element, retained for md5 and passthrough.
	Element *etree.Element

	// MD5 is the MD5 of the whitespace-stripped serialization of Element.
	MD5 string
}

// Group is a maximal set of Rules sharing the same pattern. The rule with the
// lowest Index is the group's default. Ambiguous iff len(Rules) >= 2.
type Group struct {
	Pattern []string
	Rules   []*Rule
}

// Default returns the group's default rule (lowest index).
func (g *Group) Default() *Rule {
	return g.Rules[0]
}

// Ambiguous reports whether the group has more than one rule.
func (g *Group) Ambiguous() bool {
	return len(g.Rules) >= 2
}

// Document is the parsed transfer-rules file.
type Document struct {
	// Categories is the category index built from section-def-cats.
	Categories *category.Index

	// Groups lists rule-groups in the order their first rule appeared, singleton and ambiguous alike.
	Groups []*Group

	// Rules lists every rule by its original index.
	Rules []*Rule

	// tree is the full parsed document, retained so unrelated sections
	// (macros, lists, attrs, vars) survive verbatim if the document is ever rewritten.
	tree *etree.Document
}

var whitespaceRe = regexp.MustCompile(`\s+`)

func stripWhitespace(s string) string {
	return whitespaceRe.ReplaceAllString(s, "")
}

func elementMD5(e *etree.Element) string {
	doc := etree.NewDocument()
	doc.SetRoot(e.Copy())
	s, _ := doc.WriteToString()
	sum := md5.Sum([]byte(stripWhitespace(s)))
	return hex.EncodeToString(sum[:])
}

// Load parses a transfer-rules XML file's content into a Document.
func Load(content []byte) (*Document, error) {
	tree := etree.NewDocument()
	if err := tree.ReadFromBytes(content); err != nil {
		return nil, twerr.FormatError(ParseError, "malformed transfer-rules xml: %s", err)
	}

	root := tree.Root()
	if root == nil {
		return nil, twerr.FormatError(ParseError, "empty transfer-rules document")
	}

	doc := &Document{Categories: category.NewIndex(), tree: tree}

	if err := doc.loadCategories(root); err != nil {
		return nil, err
	}
	if err := doc.loadRules(root); err != nil {
		return nil, err
	}

	return doc, nil
}

func (doc *Document) loadCategories(root *etree.Element) error {
	section := root.SelectElement("section-def-cats")
	if section == nil {
		return twerr.FormatError(MissingSectionError, "missing section-def-cats")
	}

	for _, defCat := range section.SelectElements("def-cat") {
		name := defCat.SelectAttrValue("n", "")
		if name == "" {
			return twerr.FormatError(MissingAttributeError, "def-cat missing n attribute")
		}

		for _, catItem := range defCat.SelectElements("cat-item") {
			lemma := catItem.SelectAttrValue("lemma", "")
			tags := catItem.SelectAttrValue("tags", "")
			if err := doc.Categories.Add(name, lemma, tags); err != nil {
				return twerr.FormatError(MissingAttributeError, "def-cat %q: bad tags attribute: %s", name, err)
			}
		}
	}

	return nil
}

func (doc *Document) loadRules(root *etree.Element) error {
	section := root.SelectElement("section-rules")
	if section == nil {
		return twerr.FormatError(MissingSectionError, "missing section-rules")
	}

	for i, ruleEl := range section.SelectElements("rule") {
		patternEl := ruleEl.SelectElement("pattern")
		if patternEl == nil {
			return twerr.FormatError(MissingAttributeError, "rule %d missing pattern", i)
		}

		var pattern []string
		for _, item := range patternEl.SelectElements("pattern-item") {
			n := item.SelectAttrValue("n", "")
			if n == "" {
				return twerr.FormatError(MissingAttributeError, "rule %d: pattern-item missing n attribute", i)
			}
			pattern = append(pattern, n)
		}
		if len(pattern) == 0 {
			return twerr.FormatError(MissingAttributeError, "rule %d: empty pattern", i)
		}

		rule := &Rule{
			Index:   i,
			ID:      ruleEl.SelectAttrValue("id", ""),
			Pattern: pattern,
			Element: ruleEl,
			MD5:     elementMD5(ruleEl),
		}
		doc.Rules = append(doc.Rules, rule)

		var group *Group
		for _, g := range doc.Groups {
			if samePattern(pattern, g.Pattern) {
				group = g
				break
			}
		}
		if group != nil {
			group.Rules = append(group.Rules, rule)
		} else {
			doc.Groups = append(doc.Groups, &Group{Pattern: pattern, Rules: []*Rule{rule}})
		}
	}

	return nil
}

func samePattern(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// PatternSignature renders a category-name pattern as the dot-separated
// string used in diagnostics and score rows, e.g. "det_nom.n.n".
func PatternSignature(pattern []string) string {
	s := ""
	for i, p := range pattern {
		if i > 0 {
			s += "."
		}
		s += p
	}
	return s
}

// AmbiguousGroups returns every group with more than one rule, keyed by the default rule's index.
func (doc *Document) AmbiguousGroups() map[int]*Group {
	m := make(map[int]*Group)
	for _, g := range doc.Groups {
		if g.Ambiguous() {
			m[g.Default().Index] = g
		}
	}
	return m
}

// GroupByDefaultIndex returns every group keyed by its default rule's index (ambiguous or not).
func (doc *Document) GroupByDefaultIndex() map[int]*Group {
	m := make(map[int]*Group, len(doc.Groups))
	for _, g := range doc.Groups {
		m[g.Default().Index] = g
	}
	return m
}

// Attrs returns the rule's original XML attributes (id, comment, and any
// other author-supplied attribute), copied out of Element.
func (r *Rule) Attrs() map[string]string {
	m := make(map[string]string, len(r.Element.Attr))
	for _, a := range r.Element.Attr {
		m[a.Key] = a.Value
	}
	return m
}

// String implements fmt.Stringer for diagnostics.
func (g *Group) String() string {
	return fmt.Sprintf("group(default=%d, pattern=%s, size=%d)", g.Default().Index, PatternSignature(g.Pattern), len(g.Rules))
}
