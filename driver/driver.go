// Package driver orchestrates the top-level learning pipelines, grounded on
// learn_from_monolingual / learn_from_parallel / tag_corpus in
// original_source/twlearner.py.
package driver

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/apertium-contrib/twlearn/ambiguity"
	"github.com/apertium-contrib/twlearn/category"
	"github.com/apertium-contrib/twlearn/corpus"
	"github.com/apertium-contrib/twlearn/coverage"
	"github.com/apertium-contrib/twlearn/estimate"
	"github.com/apertium-contrib/twlearn/fst"
	"github.com/apertium-contrib/twlearn/oracle"
	"github.com/apertium-contrib/twlearn/rules"
	"github.com/apertium-contrib/twlearn/scorer"
	"github.com/apertium-contrib/twlearn/token"
	"github.com/apertium-contrib/twlearn/twcfg"
	"github.com/apertium-contrib/twlearn"
	"github.com/apertium-contrib/twlearn/twlog"
	"github.com/apertium-contrib/twlearn/weights"
)

// Error codes used by driver.
const (
	// TaggerError indicates the tagging subprocess pipeline failed.
	TaggerError = twerr.DriverErrors + 10 + iota

	// RulesFileError indicates the transfer-rules file could not be read.
	RulesFileError

	// WeightsFileError indicates the final weights document could not be written.
	WeightsFileError
)

// Rules bundles the loaded transfer-rules document with its derived pattern
// FST and ambiguous-group index, the result of load_rules.
type Rules struct {
	Document       *rules.Document
	FST            *fst.FST
	AmbiguousByIdx map[int]*rules.Group
}

// LoadRules reads and compiles a pair's transfer-rules file (tixBase + ".t1x"), per load_rules.
func LoadRules(tixBase string) (*Rules, error) {
	content, err := os.ReadFile(tixBase + ".t1x")
	if err != nil {
		return nil, twerr.FormatError(RulesFileError, "read transfer-rules file: %s", err)
	}

	doc, err := rules.Load(content)
	if err != nil {
		return nil, err
	}

	patterns := make([]fst.Pattern, 0, len(doc.Groups))
	for _, g := range doc.Groups {
		cats := make([]category.ID, len(g.Pattern))
		for i, name := range g.Pattern {
			cats[i] = doc.Categories.Intern(name)
		}
		patterns = append(patterns, fst.Pattern{Categories: cats, RuleIndex: g.Default().Index})
	}

	f, err := fst.Build(patterns)
	if err != nil {
		return nil, err
	}

	return &Rules{Document: doc, FST: f, AmbiguousByIdx: doc.AmbiguousGroups()}, nil
}

// TagCorpus runs corpus through the pair's tagger then apertium-pretransfer,
// writing the result to outPath, matching tag_corpus's "apertium -d ... | apertium-pretransfer" pipe.
func TagCorpus(ctx context.Context, pairData, source, target, corpusPath, outPath string) error {
	in, err := os.Open(corpusPath)
	if err != nil {
		return twerr.FormatError(TaggerError, "open corpus %q: %s", corpusPath, err)
	}
	defer in.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return twerr.FormatError(TaggerError, "create tagged output %q: %s", outPath, err)
	}
	defer out.Close()

	tagger := exec.CommandContext(ctx, "apertium", "-d", pairData, source+"-"+target+"-tagger")
	pretransfer := exec.CommandContext(ctx, "apertium-pretransfer")

	pipe, err := tagger.StdoutPipe()
	if err != nil {
		return twerr.FormatError(TaggerError, "wire tagger pipe: %s", err)
	}
	pretransfer.Stdin = pipe
	pretransfer.Stdout = out
	tagger.Stdin = in
	tagger.Stderr = os.Stderr
	pretransfer.Stderr = os.Stderr

	if err := pretransfer.Start(); err != nil {
		return twerr.FormatError(TaggerError, "start apertium-pretransfer: %s", err)
	}
	if err := tagger.Run(); err != nil {
		return twerr.FormatError(TaggerError, "run tagger: %s", err)
	}
	if err := pretransfer.Wait(); err != nil {
		return twerr.FormatError(TaggerError, "run apertium-pretransfer: %s", err)
	}

	return nil
}

// sentences splits a tagged source's tokens at sentence-boundary tags, matching
// the original's use of sent_re to cut one line into per-sentence chunks.
func sentences(src *corpus.Source) [][]*token.Token {
	toks := token.Tokens(src)
	var all [][]*token.Token
	var cur []*token.Token

	for _, t := range toks {
		cur = append(cur, t)
		if t.EndsSentence() {
			all = append(all, cur)
			cur = nil
		}
	}
	if len(cur) > 0 {
		all = append(all, cur)
	}

	return all
}

// MonolingualOptions configures LearnFromMonolingual.
type MonolingualOptions struct {
	Config *twcfg.Config
	Log    *twlog.Logger
	Oracle oracle.Oracle
	Scorer scorer.Scorer
}

// LearnFromMonolingual runs the full monolingual pipeline (tag, detect
// ambiguity, translate+score, aggregate, prune), matching learn_from_monolingual.
func LearnFromMonolingual(ctx context.Context, opts MonolingualOptions) (string, error) {
	cfg := opts.Config
	prefix := cfg.Prefix()
	tixBase := filepath.Join(cfg.ApertiumPairData, filepath.Base(cfg.ApertiumPairData)+"."+cfg.Source+"-"+cfg.Target)

	taggedPath := prefix + "-tagged.txt"
	opts.Log.Info("tagging source corpus", "corpus", cfg.SourceLanguageCorpus)
	if err := TagCorpus(ctx, cfg.ApertiumPairData, cfg.Source, cfg.Target, cfg.SourceLanguageCorpus, taggedPath); err != nil {
		return "", err
	}

	loaded, err := LoadRules(tixBase)
	if err != nil {
		return "", err
	}

	content, err := os.ReadFile(taggedPath)
	if err != nil {
		return "", twerr.FormatError(TaggerError, "read tagged corpus: %s", err)
	}
	corpus.NormalizeNls(&content)
	src := corpus.New(taggedPath, content)

	stats := twlog.NewStats(opts.Log, 1000)
	agg := weights.NewAggregator(cfg.DataFolder)
	defer agg.Close()

	for i, sentTokens := range sentences(src) {
		res := coverage.LRLM(sentTokens, loaded.Document.Categories, loaded.FST)
		stats.EmptyCategory(res.EmptyCategoryCount)
		stats.Sentence()

		cov, ok := ambiguity.FirstCoverage(res)
		if !ok {
			stats.Unrecognized()
			continue
		}

		sites := ambiguity.Sites(i, cov, loaded.AmbiguousByIdx)
		if len(sites) == 0 {
			continue
		}

		rows, err := estimate.EstimateMonolingual(ctx, estimate.Options{Oracle: opts.Oracle, Scorer: opts.Scorer}, i, cov, sites)
		if err != nil {
			return "", err
		}
		for _, row := range rows {
			if err := agg.Add(row); err != nil {
				return "", err
			}
		}
	}
	stats.Final()

	doc, err := agg.Mono()
	if err != nil {
		return "", err
	}

	return writePruned(doc, prefix)
}

// ParallelOptions configures LearnFromParallel.
type ParallelOptions struct {
	Config *twcfg.Config
	Log    *twlog.Logger
	Oracle oracle.Oracle
}

// LearnFromParallel runs the full parallel pipeline (tag, detect ambiguity,
// translate+substring-score, aggregate, prune), matching learn_from_parallel.
func LearnFromParallel(ctx context.Context, opts ParallelOptions) (string, error) {
	cfg := opts.Config
	prefix := cfg.Prefix()
	tixBase := filepath.Join(cfg.ApertiumPairData, filepath.Base(cfg.ApertiumPairData)+"."+cfg.Source+"-"+cfg.Target)

	taggedPath := prefix + "-tagged.txt"
	opts.Log.Info("tagging source corpus", "corpus", cfg.SourceLanguageCorpus)
	if err := TagCorpus(ctx, cfg.ApertiumPairData, cfg.Source, cfg.Target, cfg.SourceLanguageCorpus, taggedPath); err != nil {
		return "", err
	}

	loaded, err := LoadRules(tixBase)
	if err != nil {
		return "", err
	}

	srcContent, err := os.ReadFile(taggedPath)
	if err != nil {
		return "", twerr.FormatError(TaggerError, "read tagged corpus: %s", err)
	}
	corpus.NormalizeNls(&srcContent)
	src := corpus.New(taggedPath, srcContent)

	tgtContent, err := os.ReadFile(cfg.TargetLanguageCorpus)
	if err != nil {
		return "", twerr.FormatError(TaggerError, "read target corpus: %s", err)
	}
	targetLines := splitLines(tgtContent)

	stats := twlog.NewStats(opts.Log, 1000)
	agg := weights.NewAggregator(cfg.DataFolder)
	defer agg.Close()

	sentenceList := sentences(src)
	for i, sentTokens := range sentenceList {
		res := coverage.LRLM(sentTokens, loaded.Document.Categories, loaded.FST)
		stats.EmptyCategory(res.EmptyCategoryCount)
		stats.Sentence()

		cov, ok := ambiguity.FirstCoverage(res)
		if !ok {
			stats.Unrecognized()
			continue
		}

		sites := ambiguity.Sites(i, cov, loaded.AmbiguousByIdx)
		if len(sites) == 0 || i >= len(targetLines) {
			continue
		}

		rows, err := estimate.EstimateParallel(ctx, estimate.Options{Oracle: opts.Oracle}, targetLines[i], sites)
		if err != nil {
			return "", err
		}
		for _, row := range rows {
			if err := agg.Add(row); err != nil {
				return "", err
			}
		}
	}
	stats.Final()

	doc, err := agg.Parallel()
	if err != nil {
		return "", err
	}

	return writePruned(doc, prefix)
}

func writePruned(doc *weights.Document, prefix string) (string, error) {
	weightsPath := prefix + "-rule-weights.w1x"
	content, err := doc.Write()
	if err != nil {
		return "", twerr.FormatError(WeightsFileError, "serialize weights document: %s", err)
	}
	if err := os.WriteFile(weightsPath, content, 0o644); err != nil {
		return "", twerr.FormatError(WeightsFileError, "write weights file %q: %s", weightsPath, err)
	}

	pruned := weights.Prune(doc)
	prunedContent, err := pruned.Write()
	if err != nil {
		return "", twerr.FormatError(WeightsFileError, "serialize pruned weights document: %s", err)
	}
	prunedPath := prefix + "-rule-weights-prunned.w1x"
	if err := os.WriteFile(prunedPath, prunedContent, 0o644); err != nil {
		return "", twerr.FormatError(WeightsFileError, "write pruned weights file %q: %s", prunedPath, err)
	}

	return prunedPath, nil
}

func splitLines(content []byte) []string {
	corpus.NormalizeNls(&content)
	var lines []string
	start := 0
	for i, b := range content {
		if b == '\n' {
			lines = append(lines, string(content[start:i]))
			start = i + 1
		}
	}
	if start < len(content) {
		lines = append(lines, string(content[start:]))
	}
	return lines
}
