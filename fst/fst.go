// Package fst builds and queries the deterministic trie-FST over rule
// category-sequence patterns, tagged by rule index at accepting states.
//
// Grounded on grammar.Grammar's state/rule table shape (determinism,
// prefix-sharing) from the teacher, rebuilt around category ids instead of
// token ids: transitions key on (state, category) instead of (state, token
// type or literal). Construction uses the direct trie-merge over a
// (state, label) -> state map that spec.md §9's DESIGN NOTES calls out as an
// equivalent alternative to iterating pre-sorted patterns level by level.
package fst

import (
	"sort"

	"github.com/apertium-contrib/twlearn/category"
	"github.com/apertium-contrib/twlearn"
)

// Error codes used by fst.
const (
	// ConflictingAcceptError indicates two distinct default rules claim the same
	// pattern; Build also returns it for a rule with an empty pattern.
	ConflictingAcceptError = twerr.FSTErrors + iota
)

// Start is the index of the FST's single start state.
const Start = 0

// Pattern is one (category sequence, rule index) input to Build.
// RuleIndex must be the default rule of its group: every accepting state
// labels exactly one rule per spec.md §3.
type Pattern struct {
	Categories []category.ID
	RuleIndex  int
}

// FST is a deterministic trie over category sequences. Immutable once built,
// safe for concurrent read-only use.
type FST struct {
	transitions map[uint64]int
	accept      map[int]int
	numStates   int
}

// key packs a (state, category) transition into a single comparable map key:
// the high 32 bits hold state, the low 32 bits hold the category id. Both
// fit comfortably in 32 bits for any rules file this learner will ever see,
// so there's no need for the byte-slice key shape a general-purpose map
// would carry.
func key(state int, c category.ID) uint64 {
	return uint64(uint32(state))<<32 | uint64(uint32(c))
}

func lessPattern(a, b []category.ID) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// Build constructs a deterministic trie-FST from patterns. Patterns are
// walked in sorted order purely so the resulting edge numbering is
// deterministic across runs for identical inputs; the trie-merge itself does
// not require sortedness for correctness.
func Build(patterns []Pattern) (*FST, error) {
	sorted := make([]Pattern, len(patterns))
	copy(sorted, patterns)
	sort.Slice(sorted, func(i, j int) bool { return lessPattern(sorted[i].Categories, sorted[j].Categories) })

	maxEdges := 1
	for _, p := range sorted {
		maxEdges += len(p.Categories)
	}

	f := &FST{
		transitions: make(map[uint64]int, maxEdges),
		accept:      make(map[int]int),
		numStates:   1,
	}

	for _, p := range sorted {
		if len(p.Categories) == 0 {
			return nil, twerr.FormatError(ConflictingAcceptError, "rule %d has empty pattern", p.RuleIndex)
		}

		state := Start
		for _, c := range p.Categories {
			k := key(state, c)
			next, ok := f.transitions[k]
			if !ok {
				next = f.numStates
				f.numStates++
				f.transitions[k] = next
			}
			state = next
		}

		if existing, ok := f.accept[state]; ok && existing != p.RuleIndex {
			return nil, twerr.FormatError(ConflictingAcceptError,
				"state %d already accepts rule %d, cannot also accept rule %d", state, existing, p.RuleIndex)
		}
		f.accept[state] = p.RuleIndex
	}

	return f, nil
}

// Next returns the state reached from state via label c, and whether such a
// transition exists. By construction at most one transition exists per
// (state, c) pair, satisfying the determinism invariant.
func (f *FST) Next(state int, c category.ID) (int, bool) {
	next, ok := f.transitions[key(state, c)]
	return next, ok
}

// Accepting returns the rule index that state accepts, and whether state is accepting.
func (f *FST) Accepting(state int) (int, bool) {
	r, ok := f.accept[state]
	return r, ok
}

// NumStates returns the number of states in the FST, including the start state.
func (f *FST) NumStates() int {
	return f.numStates
}
