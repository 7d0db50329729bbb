package estimate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apertium-contrib/twlearn/ambiguity"
	"github.com/apertium-contrib/twlearn/corpus"
	"github.com/apertium-contrib/twlearn/coverage"
	"github.com/apertium-contrib/twlearn/rules"
	"github.com/apertium-contrib/twlearn/token"
)

// fakeOracle fabricates translations instead of spawning real Apertium
// subprocesses: TranslateDefault tags the chunk, TranslateWithWeights reads
// the synthesized weights file back to learn which rule was being focused.
type fakeOracle struct{}

func (fakeOracle) TranslateDefault(ctx context.Context, chunk string) (string, error) {
	return "default[" + chunk + "]", nil
}

func (fakeOracle) TranslateWithWeights(ctx context.Context, chunk string, weightsPath string) (string, error) {
	content, err := os.ReadFile(weightsPath)
	if err != nil {
		return "", err
	}
	ruleID := focusedRuleID(content)
	return fmt.Sprintf("rule%s[%s]", ruleID, chunk), nil
}

// focusedRuleID extracts the id of the <rule> element that carries a
// <pattern> child, matching synthesizeFocusWeights's output shape. It finds
// the <pattern> element and walks back to the nearest enclosing rule's id
// attribute, which works whether etree renders the other (childless) rule
// elements as self-closing or as an empty open/close pair.
func focusedRuleID(content []byte) string {
	s := string(content)
	patIdx := strings.Index(s, "<pattern ")
	if patIdx < 0 {
		return ""
	}
	const marker = `<rule id="`
	ruleIdx := strings.LastIndex(s[:patIdx], marker)
	if ruleIdx < 0 {
		return ""
	}
	start := ruleIdx + len(marker)
	end := strings.Index(s[start:], `"`)
	if end < 0 {
		return ""
	}
	return s[start : start+end]
}

// lengthScorer assigns each candidate sentence a log-score equal to its
// length, giving EstimateMonolingual's rules distinguishable (not tied) scores.
type lengthScorer struct{}

func (lengthScorer) LogScore(text string, bos, eos bool) (float64, error) {
	return float64(len(text)), nil
}

func toks(t *testing.T, s string) []*token.Token {
	src := corpus.New("test", []byte(s))
	return token.Tokens(src)
}

func ambiguousGroup() *rules.Group {
	return &rules.Group{
		Pattern: []string{"det_nom", "n"},
		Rules: []*rules.Rule{
			{Index: 0, ID: "1", Pattern: []string{"det_nom", "n"}},
			{Index: 1, ID: "2", Pattern: []string{"det_nom", "n"}},
		},
	}
}

// TestEstimateMonolingualWeightsSumToOne exercises invariant 4: every site's
// rows are normalized so their weights sum to 1.
func TestEstimateMonolingualWeightsSumToOne(t *testing.T) {
	tokens := toks(t, "^the<det_nom>$ ^dog<n><sg>$")
	group := ambiguousGroup()
	site := ambiguity.Site{SentenceID: 0, SegmentIndex: 0, Group: group, Tokens: tokens}

	cov := coverage.Coverage{Segments: []coverage.Segment{{Tokens: tokens, RuleIndex: 0}}}

	opts := Options{
		Oracle:         fakeOracle{},
		Scorer:         lengthScorer{},
		TmpWeightsPath: filepath.Join(t.TempDir(), "tmpweights.w1x"),
	}

	rows, err := EstimateMonolingual(context.Background(), opts, 0, cov, []ambiguity.Site{site})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	var total float64
	for _, row := range rows {
		total += row.Weight
		assert.Equal(t, group.Default().Index, row.GroupIndex)
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestEstimateMonolingualRequiresScorer(t *testing.T) {
	opts := Options{Oracle: fakeOracle{}}
	_, err := EstimateMonolingual(context.Background(), opts, 0, coverage.Coverage{}, []ambiguity.Site{{}})
	require.Error(t, err)
}

func TestEstimateMonolingualNoSitesReturnsNil(t *testing.T) {
	opts := Options{Oracle: fakeOracle{}, Scorer: lengthScorer{}}
	rows, err := EstimateMonolingual(context.Background(), opts, 0, coverage.Coverage{}, nil)
	require.NoError(t, err)
	assert.Nil(t, rows)
}

// substringOracle's TranslateWithWeights returns the rule's own id as the
// translation, so EstimateParallel's substring check can be driven directly.
type substringOracle struct{}

func (substringOracle) TranslateDefault(ctx context.Context, chunk string) (string, error) {
	return chunk, nil
}

func (substringOracle) TranslateWithWeights(ctx context.Context, chunk string, weightsPath string) (string, error) {
	content, err := os.ReadFile(weightsPath)
	if err != nil {
		return "", err
	}
	return "translation-" + focusedRuleID(content), nil
}

// TestEstimateParallelKeepsOnlyMatchingTranslation exercises S5-adjacent
// parallel-mode behavior: only the rule whose translation is a substring of
// the (normalized) reference line contributes a row, at weight 1.0.
func TestEstimateParallelKeepsOnlyMatchingTranslation(t *testing.T) {
	tokens := toks(t, "^the<det_nom>$ ^dog<n><sg>$")
	group := ambiguousGroup()
	site := ambiguity.Site{SentenceID: 0, SegmentIndex: 0, Group: group, Tokens: tokens}

	opts := Options{
		Oracle:         substringOracle{},
		TmpWeightsPath: filepath.Join(t.TempDir(), "tmpweights.w1x"),
	}

	targetLine := "a sentence containing translation-1 somewhere"
	rows, err := EstimateParallel(context.Background(), opts, targetLine, []ambiguity.Site{site})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 0, rows[0].RuleIndex)
	assert.Equal(t, 1.0, rows[0].Weight)
}

func TestEstimateParallelNoSitesReturnsNil(t *testing.T) {
	opts := Options{Oracle: substringOracle{}}
	rows, err := EstimateParallel(context.Background(), opts, "anything", nil)
	require.NoError(t, err)
	assert.Nil(t, rows)
}
