// Package weights models the transfer-rule weights document (the w1x
// "transfer-weights" XML format), aggregates per-site score rows into one,
// and prunes a learned document down to its exception entries.
//
// Grounded on make_xml_transfer_weights / make_xml_transfer_weights_parallel
// (aggregation) and tools/prune.py's prune_transfer_weights (pruning) in
// original_source/.
package weights

import (
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/apertium-contrib/twlearn"
)

// ParseError indicates a weights document is not well-formed XML.
const ParseError = twerr.WeightsErrors + iota

// PatternItem is one token position of a concrete rule pattern: the lemma
// and dot-joined tag sequence that matched; the lemma is empty for a
// generalized (lemma-agnostic) pattern item.
type PatternItem struct {
	Lemma string
	Tags  string
}

// Pattern is one weighted concrete pattern belonging to a Rule.
type Pattern struct {
	Items  []PatternItem
	Weight float64
}

// Rule is one transfer rule's entry in a weights document: its identifying
// attributes (copied verbatim from the source transfer-rules file, "id" and
// any author attributes such as "comment"), its content MD5, and the
// patterns learned for it.
type Rule struct {
	Attrs    map[string]string
	MD5      string
	Patterns []*Pattern
}

// ID returns the rule's id attribute, or empty if absent.
func (r *Rule) ID() string {
	return r.Attrs["id"]
}

// RuleGroup is one ambiguous rule-group's weighted rule entries, in the
// same order as the source transfer-rules file (default rule first).
type RuleGroup struct {
	Rules []*Rule
}

// Document is a full transfer-weights document.
type Document struct {
	Groups []*RuleGroup
}

// patternKey canonicalizes a pattern's items into a comparison/grouping key.
func patternKey(items []PatternItem) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.Lemma + "\x00" + it.Tags
	}
	return strings.Join(parts, "\x01")
}

// Load parses a transfer-weights XML document.
func Load(content []byte) (*Document, error) {
	tree := etree.NewDocument()
	if err := tree.ReadFromBytes(content); err != nil {
		return nil, twerr.FormatError(ParseError, "malformed transfer-weights xml: %s", err)
	}
	root := tree.Root()
	if root == nil {
		return nil, twerr.FormatError(ParseError, "empty transfer-weights document")
	}

	doc := &Document{}
	for _, grpEl := range root.SelectElements("rule-group") {
		group := &RuleGroup{}
		for _, ruleEl := range grpEl.SelectElements("rule") {
			attrs := attrMap(ruleEl)
			md5 := attrs["md5"]
			delete(attrs, "md5")
			rule := &Rule{Attrs: attrs, MD5: md5}
			for _, patEl := range ruleEl.SelectElements("pattern") {
				pat := &Pattern{}
				if w := patEl.SelectAttrValue("weight", ""); w != "" {
					pat.Weight = parseFloatOrZero(w)
				}
				for _, itemEl := range patEl.SelectElements("pattern-item") {
					pat.Items = append(pat.Items, PatternItem{
						Lemma: itemEl.SelectAttrValue("lemma", ""),
						Tags:  itemEl.SelectAttrValue("tags", ""),
					})
				}
				rule.Patterns = append(rule.Patterns, pat)
			}
			group.Rules = append(group.Rules, rule)
		}
		doc.Groups = append(doc.Groups, group)
	}

	return doc, nil
}

func attrMap(e *etree.Element) map[string]string {
	m := make(map[string]string, len(e.Attr))
	for _, a := range e.Attr {
		m[a.Key] = a.Value
	}
	return m
}

func parseFloatOrZero(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// Write serializes doc into the w1x XML format, rule-group by rule-group,
// rule by rule, in the order doc.Groups/Rules/Patterns hold them.
func (doc *Document) Write() ([]byte, error) {
	tree := etree.NewDocument()
	tree.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := tree.CreateElement("transfer-weights")

	for _, group := range doc.Groups {
		grpEl := root.CreateElement("rule-group")
		for _, rule := range group.Rules {
			ruleEl := grpEl.CreateElement("rule")
			setAttrsSorted(ruleEl, rule.Attrs)
			if rule.MD5 != "" {
				ruleEl.CreateAttr("md5", rule.MD5)
			}
			for _, pat := range rule.Patterns {
				patEl := ruleEl.CreateElement("pattern")
				patEl.CreateAttr("weight", formatWeight(pat.Weight))
				for _, item := range pat.Items {
					itemEl := patEl.CreateElement("pattern-item")
					itemEl.CreateAttr("lemma", item.Lemma)
					itemEl.CreateAttr("tags", item.Tags)
				}
			}
		}
	}

	tree.Indent(2)
	return tree.WriteToBytes()
}

func setAttrsSorted(e *etree.Element, attrs map[string]string) {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		if k == "md5" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		e.CreateAttr(k, attrs[k])
	}
}

func formatWeight(w float64) string {
	s := strconv.FormatFloat(w, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
