package weights

import (
	"container/heap"
	"encoding/gob"
	"io"
	"os"
	"sort"

	"github.com/apertium-contrib/twlearn"
)

// IOError indicates a temporary run file could not be created, written, or read.
const IOError = twerr.WeightsErrors + 10 + iota

// ScoreRow is one scored (rule-group, rule, concrete-pattern) occurrence,
// the unit make_xml_transfer_weights/make_xml_transfer_weights_parallel both
// read from their sorted scores file.
type ScoreRow struct {
	GroupIndex int // key of the group's default rule, identifies the rule-group
	RuleIndex  int
	RuleAttrs  map[string]string
	RuleMD5    string
	Pattern    []PatternItem
	Weight     float64
}

func (r ScoreRow) key() (int, int, string) {
	return r.GroupIndex, r.RuleIndex, patternKey(r.Pattern)
}

// less orders rows by (group, rule, pattern) ascending, the external sort's comparison key.
func less(a, b ScoreRow) bool {
	ag, ar, ap := a.key()
	bg, br, bp := b.key()
	if ag != bg {
		return ag < bg
	}
	if ar != br {
		return ar < br
	}
	return ap < bp
}

// maxBatchRows bounds how many rows the aggregator holds in memory before
// spilling a sorted run to a temp file, per DESIGN NOTES' in-process k-way
// external merge sort (sized generously; a typical learning corpus yields
// far fewer ambiguous-site rows than this per batch).
const maxBatchRows = 200000

// Aggregator accumulates ScoreRows (possibly many more than fit in memory)
// and folds them into a Document on Mono or Parallel, replacing the original's
// "sort $IN > $OUT" external sort plus streaming fold with a self-contained
// k-way merge over temporary run files.
type Aggregator struct {
	tmpDir  string
	batch   []ScoreRow
	runFiles []string
}

// NewAggregator creates an Aggregator spilling run files under tmpDir (os.TempDir() if empty).
func NewAggregator(tmpDir string) *Aggregator {
	return &Aggregator{tmpDir: tmpDir}
}

// Add appends one scored row, spilling a sorted run to disk once the
// in-memory batch reaches maxBatchRows.
func (a *Aggregator) Add(row ScoreRow) error {
	a.batch = append(a.batch, row)
	if len(a.batch) >= maxBatchRows {
		return a.spill()
	}
	return nil
}

func (a *Aggregator) spill() error {
	if len(a.batch) == 0 {
		return nil
	}
	sort.Slice(a.batch, func(i, j int) bool { return less(a.batch[i], a.batch[j]) })

	f, err := os.CreateTemp(a.tmpDir, "twlearn-weights-run-*.gob")
	if err != nil {
		return twerr.FormatError(IOError, "create run file: %s", err)
	}
	defer f.Close()

	enc := gob.NewEncoder(f)
	for _, row := range a.batch {
		if err := enc.Encode(row); err != nil {
			return twerr.FormatError(IOError, "write run file: %s", err)
		}
	}

	a.runFiles = append(a.runFiles, f.Name())
	a.batch = a.batch[:0]
	return nil
}

// Close removes any spilled run files. Call after Mono/Parallel, even on error.
func (a *Aggregator) Close() error {
	for _, name := range a.runFiles {
		os.Remove(name)
	}
	a.runFiles = nil
	return nil
}

// runHeapItem is one open run's current row, ordered by the merge key.
type runHeapItem struct {
	row ScoreRow
	dec *gob.Decoder
	f   *os.File
}

type runHeap []*runHeapItem

func (h runHeap) Len() int            { return len(h) }
func (h runHeap) Less(i, j int) bool  { return less(h[i].row, h[j].row) }
func (h runHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *runHeap) Push(x interface{}) { *h = append(*h, x.(*runHeapItem)) }
func (h *runHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// merged streams every spilled run (plus any in-memory remainder) in sorted
// (group, rule, pattern) order, calling fn once per row. Runs are closed as
// they're exhausted; the run files themselves are deleted by Close.
func (a *Aggregator) merged(fn func(ScoreRow) error) error {
	if err := a.spill(); err != nil {
		return err
	}

	h := &runHeap{}
	heap.Init(h)

	for _, name := range a.runFiles {
		f, err := os.Open(name)
		if err != nil {
			return twerr.FormatError(IOError, "open run file: %s", err)
		}
		dec := gob.NewDecoder(f)
		var row ScoreRow
		if err := dec.Decode(&row); err != nil {
			f.Close()
			if err == io.EOF {
				continue
			}
			return twerr.FormatError(IOError, "read run file: %s", err)
		}
		heap.Push(h, &runHeapItem{row: row, dec: dec, f: f})
	}

	for h.Len() > 0 {
		top := heap.Pop(h).(*runHeapItem)
		if err := fn(top.row); err != nil {
			top.f.Close()
			return err
		}

		var next ScoreRow
		if err := top.dec.Decode(&next); err == nil {
			top.row = next
			heap.Push(h, top)
		} else {
			top.f.Close()
			if err != io.EOF {
				return twerr.FormatError(IOError, "read run file: %s", err)
			}
		}
	}

	return nil
}

// Mono folds the merged rows straight into a Document: rows sharing a
// (group, rule, pattern) key have their weights summed; no renormalization
// is applied, matching make_xml_transfer_weights (the per-site probabilities
// were already normalized to sum to 1 by the estimator before reaching here).
func (a *Aggregator) Mono() (*Document, error) {
	doc := &Document{}
	var group *RuleGroup
	var rule *Rule
	var pat *Pattern
	curGroup, curRule, curPattern := -1, -1, ""

	flushPattern := func() {
		if pat != nil {
			rule.Patterns = append(rule.Patterns, pat)
			pat = nil
		}
	}

	err := a.merged(func(row ScoreRow) error {
		g, r, p := row.key()

		switch {
		case group == nil || g != curGroup:
			flushPattern()
			group = &RuleGroup{}
			doc.Groups = append(doc.Groups, group)
			rule = &Rule{Attrs: row.RuleAttrs, MD5: row.RuleMD5}
			group.Rules = append(group.Rules, rule)
			pat = &Pattern{Items: row.Pattern}
		case r != curRule:
			flushPattern()
			rule = &Rule{Attrs: row.RuleAttrs, MD5: row.RuleMD5}
			group.Rules = append(group.Rules, rule)
			pat = &Pattern{Items: row.Pattern}
		case p != curPattern:
			flushPattern()
			pat = &Pattern{Items: row.Pattern}
		}

		pat.Weight += row.Weight
		curGroup, curRule, curPattern = g, r, p
		return nil
	})
	if err != nil {
		return nil, err
	}
	flushPattern()

	return doc, nil
}

// patternWeight accumulates, per concrete pattern, the summed weight each
// rule received for it — the intermediate map make_et_rule_group builds
// before renormalizing and re-keying by rule.
type patternWeight struct {
	items   []PatternItem
	byRule  map[int]float64
}

// Parallel folds the merged rows group by group, normalizing each concrete
// pattern's weight across the rules competing for it (so the weights for one
// pattern sum to 1), then re-keys the group's entries by rule, matching
// make_et_rule_group / make_xml_transfer_weights_parallel.
func (a *Aggregator) Parallel() (*Document, error) {
	doc := &Document{}

	curGroup := -1
	ruleAttrs := map[int]map[string]string{}
	ruleMD5 := map[int]string{}
	ruleOrder := []int{}
	patterns := map[string]*patternWeight{}
	patternOrder := []string{}

	flushGroup := func() {
		if len(ruleOrder) == 0 {
			return
		}
		group := &RuleGroup{}

		byRulePatterns := map[int][]*Pattern{}
		for _, pk := range patternOrder {
			pw := patterns[pk]
			total := 0.0
			for _, w := range pw.byRule {
				total += w
			}
			if total == 0 {
				continue
			}
			for ruleIdx, w := range pw.byRule {
				byRulePatterns[ruleIdx] = append(byRulePatterns[ruleIdx], &Pattern{
					Items:  pw.items,
					Weight: w / total,
				})
			}
		}

		sortedRules := append([]int(nil), ruleOrder...)
		sort.Ints(sortedRules)
		for _, ruleIdx := range sortedRules {
			group.Rules = append(group.Rules, &Rule{
				Attrs:    ruleAttrs[ruleIdx],
				MD5:      ruleMD5[ruleIdx],
				Patterns: byRulePatterns[ruleIdx],
			})
		}
		doc.Groups = append(doc.Groups, group)

		ruleAttrs = map[int]map[string]string{}
		ruleMD5 = map[int]string{}
		ruleOrder = nil
		patterns = map[string]*patternWeight{}
		patternOrder = nil
	}

	err := a.merged(func(row ScoreRow) error {
		g, _, p := row.key()

		if curGroup != -1 && g != curGroup {
			flushGroup()
		}
		curGroup = g

		if _, ok := ruleAttrs[row.RuleIndex]; !ok {
			ruleAttrs[row.RuleIndex] = row.RuleAttrs
			ruleMD5[row.RuleIndex] = row.RuleMD5
			ruleOrder = append(ruleOrder, row.RuleIndex)
		}

		pw, ok := patterns[p]
		if !ok {
			pw = &patternWeight{items: row.Pattern, byRule: map[int]float64{}}
			patterns[p] = pw
			patternOrder = append(patternOrder, p)
		}
		pw.byRule[row.RuleIndex] += row.Weight

		return nil
	})
	if err != nil {
		return nil, err
	}
	flushGroup()

	return doc, nil
}
