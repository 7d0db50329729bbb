// Package scorer defines the pluggable language-model interface used by
// monolingual weight estimation, grounded on original_source/twlearner.py's
// "model.score(normalize(sentence), bos=True, eos=True)" call.
//
// Training or bundling an n-gram language model is out of scope (spec.md
// §1's non-goals cover "training language models"); no concrete scorer
// ships here. Callers supply their own Scorer (a cgo KenLM binding, an
// HTTP-backed model server, whatever fits their deployment) to estimate.Options.
package scorer

import "github.com/apertium-contrib/twlearn"

// LoadError indicates Load was asked for a scorer this package does not provide.
const LoadError = twerr.EstimateErrors + iota

// Scorer reports a language model's log probability for a line of text.
type Scorer interface {
	// LogScore returns the model's log probability of text. bos/eos request
	// begin/end-of-sentence markers be scored, matching KenLM's convention.
	LogScore(text string, bos, eos bool) (float64, error)
}

// Load exists for symmetry with a hypothetical bundled model loader; this
// package bundles none, so Load always fails. Construct a Scorer directly
// (or use Null in tests) instead.
func Load(path string) (Scorer, error) {
	return nil, twerr.FormatError(LoadError, "no bundled language-model scorer; supply a Scorer implementation (path %q ignored)", path)
}

// Null is a fixed-score fake Scorer for tests, grounded on the teacher's own
// style of trivial fakes standing in for external-service interfaces.
type Null struct {
	// Score is returned for every call. Defaults to 0 (logscore 0 => exp(0) == 1).
	Score float64
	// Err, when set, is returned by every call instead of Score.
	Err error
}

// LogScore returns n.Score (or n.Err, if set), ignoring its arguments.
func (n Null) LogScore(text string, bos, eos bool) (float64, error) {
	if n.Err != nil {
		return 0, n.Err
	}
	return n.Score, nil
}
