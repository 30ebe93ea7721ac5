package config

import (
	"fmt"
	"sort"

	"github.com/m-ullrich/XLT/pkg/mergerules"
)

// Rules builds the configured merge rules. Each call creates fresh
// filter instances with their own caches, so every worker of a report
// run calls it once; the automaton table is the shared part and is
// passed in.
func (c *Config) Rules(table *mergerules.AutomatonTable) ([]*mergerules.Rule, error) {
	rules := make([]*mergerules.Rule, 0, len(c.MergeRules))

	for i, rc := range c.MergeRules {
		rule, err := buildRule(rc, table)
		if err != nil {
			return nil, fmt.Errorf("merge rule %d: %w", i+1, err)
		}
		rules = append(rules, rule)
	}

	return rules, nil
}

func buildRule(rc RuleConfig, table *mergerules.AutomatonTable) (*mergerules.Rule, error) {
	cacheSize := mergerules.DefaultCacheSize
	if rc.CacheSize != nil {
		cacheSize = *rc.CacheSize
	}

	var filters []mergerules.Filter

	for _, exclude := range []bool{false, true} {
		patterns := rc.Patterns
		if exclude {
			patterns = rc.ExcludePatterns
		}

		for _, key := range sortedKeys(patterns) {
			field, err := mergerules.ParseField(key)
			if err != nil {
				return nil, err
			}
			if !exclude {
				if _, both := rc.ExcludePatterns[key]; both {
					return nil, fmt.Errorf("field %q appears in patterns and excludePatterns", key)
				}
			}

			f, err := mergerules.NewPatternFilter(field, patterns[key], exclude, cacheSize, table)
			if err != nil {
				return nil, err
			}
			filters = append(filters, f)
		}
	}

	if len(rc.RunTimeRanges) > 0 {
		ranges, err := mergerules.NewRunTimeRanges(rc.RunTimeRanges)
		if err != nil {
			return nil, err
		}
		filters = append(filters, ranges)
	}

	return mergerules.NewRule(rc.NewName, filters, rc.stopOnMatch())
}

// sortedKeys keeps filter construction order deterministic; map
// iteration order is not.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
