package weights

// Prune collapses each rule-group down to its exception entries, matching
// tools/prune.py's prune_transfer_weights: for every pattern appearing in a
// group (shared or not), keep only the highest-weight occurrence (set its
// weight to 1.0) and drop the rest; an occurrence that ends up belonging to
// the group's default (first) rule is dropped too, since the default applies
// anyway when no exception pattern matches.
func Prune(doc *Document) *Document {
	pruned := &Document{}

	for _, group := range doc.Groups {
		if len(group.Rules) == 0 {
			continue
		}

		winner := winningRulePerPattern(group)

		newGroup := &RuleGroup{}
		defaultRule := group.Rules[0]
		newGroup.Rules = append(newGroup.Rules, &Rule{Attrs: defaultRule.Attrs, MD5: defaultRule.MD5})

		for i := 1; i < len(group.Rules); i++ {
			rule := group.Rules[i]
			newRule := &Rule{Attrs: rule.Attrs, MD5: rule.MD5}

			for _, pat := range rule.Patterns {
				key := patternKey(pat.Items)
				if winner[key] != i {
					continue
				}
				newRule.Patterns = append(newRule.Patterns, &Pattern{Items: pat.Items, Weight: 1.0})
			}

			newGroup.Rules = append(newGroup.Rules, newRule)
		}

		pruned.Groups = append(pruned.Groups, newGroup)
	}

	return pruned
}

// winningRulePerPattern finds, for every pattern appearing in group (keyed
// by its canonical form), the index (within group.Rules) of the rule holding
// the highest weight for it. Ties keep whichever rule is scanned first.
func winningRulePerPattern(group *RuleGroup) map[string]int {
	winner := map[string]int{}
	bestWeight := map[string]float64{}

	for i, rule := range group.Rules {
		for _, pat := range rule.Patterns {
			key := patternKey(pat.Items)
			if w, ok := bestWeight[key]; !ok || pat.Weight > w {
				bestWeight[key] = pat.Weight
				winner[key] = i
			}
		}
	}

	return winner
}
