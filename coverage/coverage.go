// Package coverage implements the parallel-beam LRLM (Longest-match,
// Left-to-Right Maximal) search over a token stream through a pattern FST.
//
// Grounded on original_source/coverage.py's FST.get_lrlm and the
// unknown-word branch in original_source/tools/coverage.py, unified into one
// consistent rule per spec.md §4.D (the two call sites in the original
// disagreed on whether an empty-category unknown word restarts or stays put;
// this implementation always emits a one-token "unknown" segment, closing
// whatever segment was open first if necessary).
package coverage

import (
	"sort"

	"github.com/apertium-contrib/twlearn/category"
	"github.com/apertium-contrib/twlearn/fst"
	"github.com/apertium-contrib/twlearn/token"
)

// UnknownRule marks a Segment produced from an unrecognized (unknown-word) token.
const UnknownRule = -1

// Segment is a run of tokens matched to a single rule (or UnknownRule).
type Segment struct {
	Tokens    []*token.Token
	RuleIndex int
}

// Coverage is an ordered, gapless segmentation of a token stream.
type Coverage struct {
	Segments []Segment
}

// Signature is the tuple of segment token-counts, the LRLM comparison key.
type Signature []int

// Signature computes c's signature.
func (c Coverage) Signature() Signature {
	sig := make(Signature, len(c.Segments))
	for i, s := range c.Segments {
		sig[i] = len(s.Tokens)
	}
	return sig
}

// Tokens concatenates every segment's tokens, reproducing the input stream (invariant 1).
func (c Coverage) Tokens() []*token.Token {
	var all []*token.Token
	for _, s := range c.Segments {
		all = append(all, s.Tokens...)
	}
	return all
}

// compare returns 1 if a is LRLM-preferred over b, -1 if b is preferred, 0 if equal.
// Lexicographic order on length tuples, largest element first decides.
func compare(a, b Signature) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] > b[i] {
				return 1
			}
			return -1
		}
	}
	switch {
	case len(a) > len(b):
		return -1
	case len(a) < len(b):
		return 1
	default:
		return 0
	}
}

type beamItem struct {
	segments []Segment
	current  []*token.Token
	state    int
}

// Result holds the LRLM search's output plus the recoverable-error counters
// the driver logs per spec.md §7 (EmptyCategory is locally recoverable: the
// affected beam item is simply dropped).
type Result struct {
	// Coverages lists every coverage tied for the top (largest) signature, possibly empty.
	Coverages []Coverage

	// EmptyCategoryCount counts non-unknown tokens whose category set was empty.
	EmptyCategoryCount int
}

// LRLM computes every signature-maximal LRLM coverage of tokens over f, using
// idx to categorize each token.
func LRLM(tokens []*token.Token, idx *category.Index, f *fst.FST) Result {
	beam := []beamItem{{state: fst.Start}}
	var emptyCategoryCount int

	for _, tok := range tokens {
		cats := idx.CategoriesOf(tok).ToSlice()
		var next []beamItem

		if len(cats) == 0 {
			if !tok.Unknown() {
				// Non-unknown token with no matching category: EmptyCategory,
				// locally recoverable — every beam item's contribution is dropped.
				emptyCategoryCount++
			}
			for _, item := range beam {
				if tok.Unknown() {
					next = append(next, closeAndEmitUnknown(f, item, tok)...)
				}
			}
			beam = next
			continue
		}

		for _, item := range beam {
			for _, c := range cats {
				cid := category.ID(c)
				if nextState, ok := f.Next(item.state, cid); ok {
					next = append(next, beamItem{
						segments: item.segments,
						current:  appendTok(item.current, tok),
						state:    nextState,
					})
					continue
				}

				if ruleIdx, ok := f.Accepting(item.state); ok {
					closed := closeSegment(item, ruleIdx)
					if restartState, ok := f.Next(fst.Start, cid); ok {
						next = append(next, beamItem{
							segments: closed,
							current:  []*token.Token{tok},
							state:    restartState,
						})
					} else if tok.Unknown() {
						next = append(next, beamItem{
							segments: append(append([]Segment{}, closed...), Segment{Tokens: []*token.Token{tok}, RuleIndex: UnknownRule}),
							state:    fst.Start,
						})
					}
					continue
				}

				if item.state == fst.Start && tok.Unknown() {
					next = append(next, beamItem{
						segments: append(append([]Segment{}, item.segments...), Segment{Tokens: []*token.Token{tok}, RuleIndex: UnknownRule}),
						state:    fst.Start,
					})
				}
			}
		}
		beam = next
	}

	var coverages []Coverage
	for _, item := range beam {
		if len(item.current) == 0 {
			coverages = append(coverages, Coverage{Segments: item.segments})
			continue
		}
		if ruleIdx, ok := f.Accepting(item.state); ok {
			coverages = append(coverages, Coverage{Segments: append(append([]Segment{}, item.segments...), Segment{Tokens: item.current, RuleIndex: ruleIdx})})
		}
	}

	return Result{Coverages: filterSignatureMaximal(coverages), EmptyCategoryCount: emptyCategoryCount}
}

func appendTok(cur []*token.Token, tok *token.Token) []*token.Token {
	return append(append([]*token.Token{}, cur...), tok)
}

func closeSegment(item beamItem, ruleIdx int) []Segment {
	return append(append([]Segment{}, item.segments...), Segment{Tokens: item.current, RuleIndex: ruleIdx})
}

// closeAndEmitUnknown handles an unknown token whose category set is empty:
// if the beam item's FST state is accepting, its open segment is closed
// first; the item then always gets a one-token "unknown" segment appended
// and restarts at the FST's start state. An item whose state is neither
// accepting nor the start state cannot close or restart and is dropped.
func closeAndEmitUnknown(f *fst.FST, item beamItem, tok *token.Token) []beamItem {
	unknownSeg := Segment{Tokens: []*token.Token{tok}, RuleIndex: UnknownRule}

	if ruleIdx, ok := f.Accepting(item.state); ok {
		closed := closeSegment(item, ruleIdx)
		return []beamItem{{segments: append(append([]Segment{}, closed...), unknownSeg), state: fst.Start}}
	}

	if item.state == fst.Start {
		return []beamItem{{segments: append(append([]Segment{}, item.segments...), unknownSeg), state: fst.Start}}
	}

	return nil
}

func filterSignatureMaximal(coverages []Coverage) []Coverage {
	if len(coverages) == 0 {
		return nil
	}

	sort.SliceStable(coverages, func(i, j int) bool {
		return compare(coverages[i].Signature(), coverages[j].Signature()) > 0
	})

	top := coverages[0].Signature()
	end := 1
	for end < len(coverages) && compare(coverages[end].Signature(), top) == 0 {
		end++
	}
	return coverages[:end]
}
