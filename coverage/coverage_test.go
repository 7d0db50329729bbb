package coverage

import (
	"testing"

	"github.com/apertium-contrib/twlearn/category"
	"github.com/apertium-contrib/twlearn/corpus"
	"github.com/apertium-contrib/twlearn/fst"
	"github.com/apertium-contrib/twlearn/internal/test"
	"github.com/apertium-contrib/twlearn/token"
)

func idx(t *testing.T) *category.Index {
	i := category.NewIndex()
	if err := i.Add("det", "", "det"); err != nil {
		t.Fatal(err)
	}
	if err := i.Add("n", "", "n.*"); err != nil {
		t.Fatal(err)
	}
	return i
}

func toks(t *testing.T, s string) []*token.Token {
	src := corpus.New("test", []byte(s))
	return token.Tokens(src)
}

// TestConcatenation exercises invariant 1: the coverage's tokens, concatenated
// across segments, reproduce exactly the input stream.
func TestConcatenation(t *testing.T) {
	ci := idx(t)
	f, err := fst.Build([]fst.Pattern{{Categories: []category.ID{ci.Intern("det"), ci.Intern("n")}, RuleIndex: 0}})
	test.Assert(t, err == nil, "unexpected error: %v", err)

	tokens := toks(t, "^the<det>$ ^dog<n><sg>$")
	res := LRLM(tokens, ci, f)
	test.Assert(t, len(res.Coverages) == 1, "expected exactly one coverage, got %d", len(res.Coverages))

	cov := res.Coverages[0]
	got := cov.Tokens()
	test.ExpectInt(t, len(tokens), len(got))
	for i := range tokens {
		test.Assert(t, got[i] == tokens[i], "token %d: concatenation order mismatch", i)
	}
}

// TestSignatureMaximal exercises invariant 2 and S2 (LRLM tie-break): when a
// longer pattern and a shorter prefix both match, only the longer (signature-
// maximal) coverage survives.
func TestSignatureMaximal(t *testing.T) {
	ci := idx(t)
	f, err := fst.Build([]fst.Pattern{
		{Categories: []category.ID{ci.Intern("det")}, RuleIndex: 0},
		{Categories: []category.ID{ci.Intern("det"), ci.Intern("n")}, RuleIndex: 1},
	})
	test.Assert(t, err == nil, "unexpected error: %v", err)

	tokens := toks(t, "^the<det>$ ^dog<n><sg>$")
	res := LRLM(tokens, ci, f)
	test.Assert(t, len(res.Coverages) == 1, "expected one signature-maximal coverage, got %d", len(res.Coverages))
	test.ExpectInt(t, 1, len(res.Coverages[0].Segments))
	test.ExpectInt(t, 1, res.Coverages[0].Segments[0].RuleIndex)
}

// TestRestart exercises S3: once a segment closes (rule 0 accepts), the FST
// restarts at Start for the next category, rather than stalling.
func TestRestart(t *testing.T) {
	ci := idx(t)
	f, err := fst.Build([]fst.Pattern{{Categories: []category.ID{ci.Intern("det")}, RuleIndex: 0}})
	test.Assert(t, err == nil, "unexpected error: %v", err)

	tokens := toks(t, "^the<det>$ ^a<det>$")
	res := LRLM(tokens, ci, f)
	test.Assert(t, len(res.Coverages) == 1, "expected one coverage, got %d", len(res.Coverages))
	test.ExpectInt(t, 2, len(res.Coverages[0].Segments))
	for _, seg := range res.Coverages[0].Segments {
		test.ExpectInt(t, 0, seg.RuleIndex)
	}
}

// TestUnknownToken exercises S4: a "*"-marked token with no matching category
// always becomes its own one-token UnknownRule segment.
func TestUnknownToken(t *testing.T) {
	ci := idx(t)
	f, err := fst.Build([]fst.Pattern{{Categories: []category.ID{ci.Intern("det")}, RuleIndex: 0}})
	test.Assert(t, err == nil, "unexpected error: %v", err)

	tokens := toks(t, "^the<det>$ ^*frobnicate<unk>$")
	res := LRLM(tokens, ci, f)
	test.Assert(t, len(res.Coverages) == 1, "expected one coverage, got %d", len(res.Coverages))
	segs := res.Coverages[0].Segments
	test.ExpectInt(t, 2, len(segs))
	test.ExpectInt(t, UnknownRule, segs[1].RuleIndex)
}

// TestEmptyCategoryRecoverable covers a non-unknown token with no matching
// category: the beam item is dropped and EmptyCategoryCount is incremented,
// rather than the search failing outright.
func TestEmptyCategoryRecoverable(t *testing.T) {
	ci := idx(t)
	f, err := fst.Build([]fst.Pattern{{Categories: []category.ID{ci.Intern("det")}, RuleIndex: 0}})
	test.Assert(t, err == nil, "unexpected error: %v", err)

	tokens := toks(t, "^unmatched<adj>$")
	res := LRLM(tokens, ci, f)
	test.ExpectInt(t, 1, res.EmptyCategoryCount)
	test.ExpectInt(t, 0, len(res.Coverages))
}
