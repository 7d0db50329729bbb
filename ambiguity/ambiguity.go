// Package ambiguity locates coverage spans whose accepting rule belongs to an
// ambiguous rule group, grounded on search_ambiguous in original_source/twlearner.py.
package ambiguity

import (
	"strings"

	"github.com/apertium-contrib/twlearn/coverage"
	"github.com/apertium-contrib/twlearn/rules"
	"github.com/apertium-contrib/twlearn/token"
)

// Site is one occurrence of an ambiguous rule-group within a recognized
// sentence. Tokens is the site's concrete instance pattern — the actual
// matched tokens, not the group's abstract category pattern — since weight
// estimation keys off the instance the same way translate_ambiguous_segment /
// make_et_pattern do in the original.
type Site struct {
	SentenceID   int
	SegmentIndex int
	Group        *rules.Group
	Tokens       []*token.Token
}

// WireText renders the site's tokens back into Apertium stream-format text
// ("^lemma<tag>$ ^lemma2<tag>$ ..."), the concrete instance pattern used both
// to synthesize a per-site temporary weights file and as the chunk text sent
// to the translator.
func (s Site) WireText() string {
	texts := make([]string, len(s.Tokens))
	for i, t := range s.Tokens {
		texts[i] = t.Text()
	}
	return strings.Join(texts, " ")
}

// FirstCoverage returns the first coverage in res.Coverages, per spec.md §4.E's
// tie-break rule for when the coverage engine returned multiple top-signature
// coverages. Returns false if res holds no coverage (UnrecognizedSentence).
func FirstCoverage(res coverage.Result) (coverage.Coverage, bool) {
	if len(res.Coverages) == 0 {
		return coverage.Coverage{}, false
	}
	return res.Coverages[0], true
}

// Sites walks cov and emits a Site for every segment whose accepting rule is
// the default of an ambiguous group (size >= 2), as found in groupsByDefault
// (see rules.Document.AmbiguousGroups).
func Sites(sentenceID int, cov coverage.Coverage, groupsByDefault map[int]*rules.Group) []Site {
	var sites []Site
	for i, seg := range cov.Segments {
		if seg.RuleIndex == coverage.UnknownRule {
			continue
		}
		group, ok := groupsByDefault[seg.RuleIndex]
		if !ok {
			continue
		}
		sites = append(sites, Site{
			SentenceID:   sentenceID,
			SegmentIndex: i,
			Group:        group,
			Tokens:       seg.Tokens,
		})
	}
	return sites
}
