package api

import (
	"fmt"
	"strings"

	"github.com/ludo-technologies/jsguard/domain"
)

// SortRules orders the rules of a rule set so that every rule runs after
// the rules it names in RunAfter. Rules asking to run as late as possible are
// scheduled once nothing else is ready. Declaration order breaks ties.
// Unknown references and cycles are errors.
func SortRules(ruleSetID string, rules []Rule) ([]Rule, error) {
	index := make(map[string]int, len(rules))
	for i, r := range rules {
		index[r.ID()] = i
	}

	indegree := make([]int, len(rules))
	dependents := make([][]int, len(rules))
	late := make([]bool, len(rules))

	for i, r := range rules {
		ordered, ok := r.(OrderedRule)
		if !ok {
			continue
		}
		late[i] = ordered.RunAsLateAsPossible()
		for _, dep := range ordered.RunAfter() {
			j, known := index[dep]
			if !known {
				return nil, domain.NewRuleOrderError(ruleSetID, fmt.Sprintf("rule '%s' runs after unknown rule '%s'", r.ID(), dep))
			}
			if j == i {
				return nil, domain.NewRuleOrderError(ruleSetID, fmt.Sprintf("rule '%s' runs after itself", r.ID()))
			}
			dependents[j] = append(dependents[j], i)
			indegree[i]++
		}
	}

	done := make([]bool, len(rules))
	out := make([]Rule, 0, len(rules))
	for len(out) < len(rules) {
		next := -1
		for i := range rules {
			if done[i] || indegree[i] > 0 {
				continue
			}
			if !late[i] {
				next = i
				break
			}
			if next == -1 {
				next = i
			}
		}
		if next == -1 {
			return nil, domain.NewRuleOrderError(ruleSetID, "cyclic run-after constraints between "+pending(rules, done))
		}

		done[next] = true
		out = append(out, rules[next])
		for _, d := range dependents[next] {
			indegree[d]--
		}
	}
	return out, nil
}

func pending(rules []Rule, done []bool) string {
	var ids []string
	for i, r := range rules {
		if !done[i] {
			ids = append(ids, "'"+r.ID()+"'")
		}
	}
	return strings.Join(ids, ", ")
}
