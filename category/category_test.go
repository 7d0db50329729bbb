package category

import (
	"testing"

	"github.com/apertium-contrib/twlearn/corpus"
	"github.com/apertium-contrib/twlearn/token"
)

func TestCompileTagPatternLiteral(t *testing.T) {
	re, err := CompileTagPattern("n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !re.MatchString("<n>") {
		t.Errorf("expected <n> to match")
	}
	if re.MatchString("<n><pl>") {
		t.Errorf("expected <n><pl> not to match a single-tag literal pattern")
	}
}

func TestCompileTagPatternTrailingWildcard(t *testing.T) {
	re, err := CompileTagPattern("n.*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, s := range []string{"<n>", "<n><pl>", "<n><pl><mf>"} {
		if !re.MatchString(s) {
			t.Errorf("expected %q to match n.*", s)
		}
	}
	if re.MatchString("<vblex>") {
		t.Errorf("expected <vblex> not to match n.*")
	}
}

func TestCompileTagPatternEmpty(t *testing.T) {
	re, err := CompileTagPattern("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !re.MatchString("") {
		t.Errorf("expected empty tag pattern to match a tagless token")
	}
	if re.MatchString("<n>") {
		t.Errorf("expected empty tag pattern not to match <n>")
	}
}

func TestCategoriesOfUnionsMatchingRules(t *testing.T) {
	idx := NewIndex()
	if err := idx.Add("n", "", "n.*"); err != nil {
		t.Fatal(err)
	}
	if err := idx.Add("det", "", "det"); err != nil {
		t.Fatal(err)
	}
	if err := idx.Add("dog_n", "dog", "n.*"); err != nil {
		t.Fatal(err)
	}

	tok := newTestToken("dog<n><sg>")
	set := idx.CategoriesOf(tok)

	if !set.Contains(int(idx.nameToID["n"])) {
		t.Errorf("expected dog<n><sg> to match category n")
	}
	if !set.Contains(int(idx.nameToID["dog_n"])) {
		t.Errorf("expected dog<n><sg> to match lemma-restricted category dog_n")
	}
	if set.Contains(int(idx.nameToID["det"])) {
		t.Errorf("did not expect dog<n><sg> to match category det")
	}
}

func TestCategoriesOfEmptyWhenNoRuleMatches(t *testing.T) {
	idx := NewIndex()
	if err := idx.Add("det", "", "det"); err != nil {
		t.Fatal(err)
	}

	tok := newTestToken("run<vblex><pri>")
	set := idx.CategoriesOf(tok)
	if len(set.ToSlice()) != 0 {
		t.Errorf("expected no category match, got %v", set.ToSlice())
	}
}

// newTestToken builds a Token via the public parser rather than reaching into
// unexported fields, keeping this test honest about the token package's contract.
func newTestToken(body string) *token.Token {
	src := corpus.New("test", []byte("^"+body+"$"))
	toks := token.Tokens(src)
	return toks[0]
}
