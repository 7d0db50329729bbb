// Package estimate scores ambiguous rule choices against a translation
// oracle and turns the result into weighted score rows, ready for
// aggregation by the weights package.
//
// Monolingual mode is grounded on translate_ambiguous_sentence /
// translate_ambiguous_segment / score_sentences; parallel mode is grounded
// on detect_ambiguous_parallel — both in original_source/twlearner.py.
package estimate

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/beevik/etree"
	"github.com/google/uuid"

	"github.com/apertium-contrib/twlearn/ambiguity"
	"github.com/apertium-contrib/twlearn/coverage"
	"github.com/apertium-contrib/twlearn/normalize"
	"github.com/apertium-contrib/twlearn/oracle"
	"github.com/apertium-contrib/twlearn/rules"
	"github.com/apertium-contrib/twlearn/scorer"
	"github.com/apertium-contrib/twlearn/token"
	"github.com/apertium-contrib/twlearn"
	"github.com/apertium-contrib/twlearn/weights"
)

// WeightsError indicates the temporary per-rule weights file could not be written.
const WeightsError = twerr.EstimateErrors + 10 + iota

// Options configures EstimateMonolingual and EstimateParallel. Oracle is required by both modes; Scorer
// is required only by EstimateMonolingual.
type Options struct {
	Oracle oracle.Oracle
	Scorer scorer.Scorer

	// Normalize defaults to normalize.Normalize.
	Normalize func(string) string

	// TmpWeightsPath is the shared temporary weights file path, matching
	// spec.md §5's single "tmpweights.w1x" default.
	TmpWeightsPath string

	// UniqueTmpWeights, when true, names each temporary weights file with a
	// fresh UUID instead of reusing TmpWeightsPath, so concurrent estimation
	// calls don't race on the same file (see DESIGN.md's parallel-estimation note).
	UniqueTmpWeights bool
}

func (o Options) normalize(s string) string {
	if o.Normalize != nil {
		return o.Normalize(s)
	}
	return normalize.Normalize(s)
}

func (o Options) weightsPath() string {
	if o.UniqueTmpWeights {
		return fmt.Sprintf("tmpweights-%s.w1x", uuid.NewString())
	}
	if o.TmpWeightsPath != "" {
		return o.TmpWeightsPath
	}
	return "tmpweights.w1x"
}

// patternItems converts a site's concrete matched tokens into the weights
// package's PatternItem form, matching make_et_pattern's token-splitting.
func patternItems(toks []*token.Token) []weights.PatternItem {
	items := make([]weights.PatternItem, len(toks))
	for i, t := range toks {
		items[i] = weights.PatternItem{Lemma: t.Lemma(), Tags: strings.Join(t.Tags(), ".")}
	}
	return items
}

func wireText(toks []*token.Token) string {
	texts := make([]string, len(toks))
	for i, t := range toks {
		texts[i] = t.Text()
	}
	return strings.Join(texts, " ")
}

func flattenTokens(segs []coverage.Segment) []*token.Token {
	var all []*token.Token
	for _, s := range segs {
		all = append(all, s.Tokens...)
	}
	return all
}

// ruleTranslation pairs a candidate rule with the text produced when it was forced.
type ruleTranslation struct {
	rule        *rules.Rule
	translation string
}

// translateWithEachRule translates text once per rule in group, each time
// writing a temporary weights file that biases the pipeline toward that one
// rule for pattern, matching translate_ambiguous_segment.
func translateWithEachRule(ctx context.Context, o oracle.Oracle, path string, group *rules.Group, pattern []weights.PatternItem, text string) ([]ruleTranslation, error) {
	out := make([]ruleTranslation, 0, len(group.Rules))

	for _, focusRule := range group.Rules {
		content, err := synthesizeFocusWeights(group, focusRule, pattern)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, content, 0o644); err != nil {
			return nil, twerr.FormatError(WeightsError, "write temporary weights file %q: %s", path, err)
		}

		translation, err := o.TranslateWithWeights(ctx, text, path)
		if err != nil {
			return nil, err
		}
		out = append(out, ruleTranslation{rule: focusRule, translation: translation})
	}

	return out, nil
}

// synthesizeFocusWeights builds a transfer-weights XML document containing
// every rule of group, where only focusRule's entry carries a <pattern>
// (weight 1.0) biasing the pipeline to prefer it for pattern's tokens.
func synthesizeFocusWeights(group *rules.Group, focusRule *rules.Rule, pattern []weights.PatternItem) ([]byte, error) {
	tree := etree.NewDocument()
	tree.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := tree.CreateElement("transfer-weights")
	grpEl := root.CreateElement("rule-group")

	for _, r := range group.Rules {
		ruleEl := grpEl.CreateElement("rule")
		ruleEl.CreateAttr("id", r.ID)

		if r != focusRule {
			continue
		}
		patEl := ruleEl.CreateElement("pattern")
		patEl.CreateAttr("weight", "1.0")
		for _, item := range pattern {
			itemEl := patEl.CreateElement("pattern-item")
			itemEl.CreateAttr("lemma", item.Lemma)
			itemEl.CreateAttr("tags", item.Tags)
		}
	}

	tree.Indent(2)
	b, err := tree.WriteToBytes()
	if err != nil {
		return nil, twerr.FormatError(WeightsError, "serialize temporary weights file: %s", err)
	}
	return b, nil
}

func scoreRowsFromTranslations(group *rules.Group, pattern []weights.PatternItem, weighted float64) func(rule *rules.Rule) weights.ScoreRow {
	return func(rule *rules.Rule) weights.ScoreRow {
		return weights.ScoreRow{
			GroupIndex: group.Default().Index,
			RuleIndex:  rule.Index,
			RuleAttrs:  rule.Attrs(),
			RuleMD5:    rule.MD5,
			Pattern:    pattern,
			Weight:     weighted,
		}
	}
}

// monoSegment is one piece of a sentence split around its ambiguous sites,
// matching translate_ambiguous_sentence's sentence_segments list.
type monoSegment struct {
	site               ambiguity.Site
	text               string
	defaultTranslation string
}

// buildMonoSegments splits cov around sites the way translate_ambiguous_sentence
// does: each ambiguous site absorbs every non-ambiguous coverage segment since
// the previous site, and any trailing non-ambiguous tail is appended to the
// last site's text instead of becoming its own segment.
func buildMonoSegments(cov coverage.Coverage, sites []ambiguity.Site) []*monoSegment {
	if len(sites) == 0 {
		return nil
	}

	segs := make([]*monoSegment, 0, len(sites))
	prev := 0
	for _, site := range sites {
		toks := flattenTokens(cov.Segments[prev : site.SegmentIndex+1])
		segs = append(segs, &monoSegment{site: site, text: wireText(toks)})
		prev = site.SegmentIndex + 1
	}

	if prev < len(cov.Segments) {
		tail := flattenTokens(cov.Segments[prev:])
		segs[len(segs)-1].text += " " + wireText(tail)
	}

	return segs
}

// EstimateMonolingual scores every ambiguous site of one sentence against
// opts.Scorer, producing one ScoreRow per (site, candidate rule). Each
// site's rows are normalized to sum to 1, matching score_sentences.
func EstimateMonolingual(ctx context.Context, opts Options, sentenceID int, cov coverage.Coverage, sites []ambiguity.Site) ([]weights.ScoreRow, error) {
	if opts.Scorer == nil {
		return nil, twerr.FormatError(WeightsError, "monolingual estimation requires a Scorer")
	}

	segs := buildMonoSegments(cov, sites)
	if len(segs) == 0 {
		return nil, nil
	}

	path := opts.weightsPath()
	defer os.Remove(path)

	for _, seg := range segs {
		translation, err := opts.Oracle.TranslateDefault(ctx, seg.text)
		if err != nil {
			return nil, err
		}
		seg.defaultTranslation = translation
	}

	var rows []weights.ScoreRow

	for j, seg := range segs {
		pattern := patternItems(seg.site.Tokens)
		translations, err := translateWithEachRule(ctx, opts.Oracle, path, seg.site.Group, pattern, seg.text)
		if err != nil {
			return nil, err
		}

		type scored struct {
			rule  *rules.Rule
			score float64
		}
		scoredList := make([]scored, 0, len(translations))
		total := 0.0

		for _, rt := range translations {
			full := assembleSentence(segs, j, rt.translation)
			logscore, err := opts.Scorer.LogScore(opts.normalize(full), true, true)
			if err != nil {
				return nil, err
			}
			s := math.Exp(logscore)
			scoredList = append(scoredList, scored{rule: rt.rule, score: s})
			total += s
		}

		if total == 0 {
			continue
		}

		rowFor := scoreRowsFromTranslations(seg.site.Group, pattern, 0)
		for _, sc := range scoredList {
			row := rowFor(sc.rule)
			row.Weight = sc.score / total
			rows = append(rows, row)
		}
	}

	return rows, nil
}

// assembleSentence joins every segment's default translation except segment
// j, whose forced translation is substituted, matching translate_ambiguous_sentence's
// per-candidate sentence reconstruction.
func assembleSentence(segs []*monoSegment, j int, forced string) string {
	parts := make([]string, 0, len(segs))
	for i, seg := range segs {
		if i == j {
			parts = append(parts, forced)
		} else {
			parts = append(parts, seg.defaultTranslation)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// EstimateParallel scores every ambiguous site of one sentence against a
// reference target-language line: a candidate rule's translation of the
// site alone contributes a full weight-1.0 row if its normalized text is a
// substring of the normalized target line, matching detect_ambiguous_parallel.
func EstimateParallel(ctx context.Context, opts Options, targetLine string, sites []ambiguity.Site) ([]weights.ScoreRow, error) {
	if len(sites) == 0 {
		return nil, nil
	}

	normalizedTarget := opts.normalize(targetLine)
	path := opts.weightsPath()
	defer os.Remove(path)

	var rows []weights.ScoreRow
	for _, site := range sites {
		pattern := patternItems(site.Tokens)
		chunk := wireText(site.Tokens)

		translations, err := translateWithEachRule(ctx, opts.Oracle, path, site.Group, pattern, chunk)
		if err != nil {
			return nil, err
		}

		rowFor := scoreRowsFromTranslations(site.Group, pattern, 1.0)
		for _, rt := range translations {
			if strings.Contains(normalizedTarget, opts.normalize(rt.translation)) {
				rows = append(rows, rowFor(rt.rule))
			}
		}
	}

	return rows, nil
}
