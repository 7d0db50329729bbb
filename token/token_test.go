package token

import (
	"testing"

	"github.com/apertium-contrib/twlearn/corpus"
)

func parse(s string) []*Token {
	return Tokens(corpus.New("test", []byte(s)))
}

func TestTokensSplitsLemmaAndTags(t *testing.T) {
	toks := parse("^dog<n><sg>$")
	if len(toks) != 1 {
		t.Fatalf("expected 1 token, got %d", len(toks))
	}
	tok := toks[0]
	if tok.Lemma() != "dog" {
		t.Errorf("expected lemma %q, got %q", "dog", tok.Lemma())
	}
	if tok.TagString() != "<n><sg>" {
		t.Errorf("expected tag string %q, got %q", "<n><sg>", tok.TagString())
	}
	if len(tok.Tags()) != 2 || tok.Tags()[0] != "n" || tok.Tags()[1] != "sg" {
		t.Errorf("unexpected tags: %v", tok.Tags())
	}
	if tok.Text() != "^dog<n><sg>$" {
		t.Errorf("expected text %q, got %q", "^dog<n><sg>$", tok.Text())
	}
}

func TestTokensBareLemmaHasNoTags(t *testing.T) {
	toks := parse("^det$")
	if len(toks) != 1 {
		t.Fatalf("expected 1 token, got %d", len(toks))
	}
	if toks[0].Lemma() != "det" {
		t.Errorf("expected lemma %q, got %q", "det", toks[0].Lemma())
	}
	if len(toks[0].Tags()) != 0 {
		t.Errorf("expected no tags, got %v", toks[0].Tags())
	}
}

func TestTokensIgnoresSurfaceTextOutsideSpans(t *testing.T) {
	toks := parse("some surface text ^dog<n>$ more text ^run<vblex>$ trailing")
	if len(toks) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(toks))
	}
	if toks[0].Lemma() != "dog" || toks[1].Lemma() != "run" {
		t.Errorf("unexpected lemmas: %q, %q", toks[0].Lemma(), toks[1].Lemma())
	}
}

func TestUnknownMarksAsteriskBody(t *testing.T) {
	toks := parse("^*frobnicate<unk>$")
	if !toks[0].Unknown() {
		t.Errorf("expected token with '*' to be marked unknown")
	}

	toks = parse("^dog<n>$")
	if toks[0].Unknown() {
		t.Errorf("expected token without '*' not to be marked unknown")
	}
}

func TestHasTagAndEndsSentence(t *testing.T) {
	toks := parse("^./.<sent>$")
	if !toks[0].HasTag("sent") {
		t.Errorf("expected HasTag(sent) to find the sentence tag")
	}
	if !toks[0].EndsSentence() {
		t.Errorf("expected EndsSentence to be true")
	}

	toks = parse("^dog<n>$")
	if toks[0].EndsSentence() {
		t.Errorf("expected EndsSentence to be false for a non-boundary token")
	}
}

func TestTokensUnterminatedSpanIsDropped(t *testing.T) {
	toks := parse("^dog<n>$ ^incomplete<n>")
	if len(toks) != 1 {
		t.Fatalf("expected the unterminated trailing span to be dropped, got %d tokens", len(toks))
	}
}
