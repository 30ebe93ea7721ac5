package mergerules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/coregx/coregex"

	"github.com/m-ullrich/XLT/internal/lru"
	"github.com/m-ullrich/XLT/pkg/requestdata"
)

// DefaultCacheSize is the per-filter result cache capacity used when
// the configuration does not set one.
const DefaultCacheSize = 100

// outcome is a cached evaluation result. A stored outcome with
// applies=false is the confirmed no-match; a cache miss means the text
// was never evaluated. Keeping the distinction explicit here means no
// sentinel value ever reaches callers.
type outcome struct {
	applies bool
	state   *MatchState
}

// PatternFilter matches one request field against a regular
// expression. The automaton decides cheaply whether the pattern
// matches at all; the capturing matcher runs only when the filter
// applies and captures can be needed. See the package documentation
// for the ownership rules.
type PatternFilter struct {
	typeCode string
	field    Field
	text     func(*requestdata.Request) string

	pattern   string
	automaton *coregex.Regex // nil iff pattern is blank
	template  *regexp.Regexp // nil iff pattern is blank
	exclude   bool

	cache *lru.Cache[string, outcome]

	// fullMatches counts capturing-matcher invocations, a cheap way to
	// see how well the cache works for a given rule set.
	fullMatches int
}

// NewPatternFilter creates a filter matching the given request field
// against regex. A blank regex (empty or whitespace-only) matches
// every request; this holds even when exclude is set, so a blank
// exclude pattern cannot express "exclude everything" -- merge rules
// have always behaved this way and configurations depend on it.
//
// cacheSize bounds the per-filter result cache; 0 disables caching
// entirely. The table deduplicates automaton compilation across
// filters and workers; pass SharedAutomatons() unless isolation is
// needed.
func NewPatternFilter(field Field, regex string, exclude bool, cacheSize int, table *AutomatonTable) (*PatternFilter, error) {
	access, ok := fieldAccessors[field]
	if !ok {
		return nil, fmt.Errorf("unknown request field %q", field)
	}
	if cacheSize < 0 {
		return nil, fmt.Errorf("negative cache size %d for field %q", cacheSize, field)
	}

	f := &PatternFilter{
		typeCode: access.typeCode,
		field:    field,
		text:     access.text,
		exclude:  exclude,
	}

	if strings.TrimSpace(regex) != "" {
		f.pattern = regex

		var err error
		if f.automaton, err = table.Compile(regex); err != nil {
			return nil, fmt.Errorf("compiling automaton for pattern %q: %w", regex, err)
		}
		if f.template, err = regexp.Compile(regex); err != nil {
			return nil, fmt.Errorf("compiling pattern %q: %w", regex, err)
		}
	}

	if cacheSize > 0 {
		f.cache = lru.New[string, outcome](cacheSize)
	}

	return f, nil
}

// TypeCode implements Filter.
func (f *PatternFilter) TypeCode() string {
	return f.typeCode
}

// AppliesTo implements Filter. For a filter without a pattern it
// returns (nil, true) for every request in O(1). Otherwise a cached
// outcome is returned when present; on a cache miss the two-stage
// pipeline runs and its outcome is stored.
func (f *PatternFilter) AppliesTo(req *requestdata.Request) (*MatchState, bool) {
	if f.automaton == nil {
		return nil, true
	}

	text := f.text(req)

	if f.cache == nil {
		out := f.evaluate(text)
		return out.state, out.applies
	}

	out, ok := f.cache.Get(text)
	if !ok {
		out = f.evaluate(text)
		f.cache.Put(text, out)
	}
	return out.state, out.applies
}

// evaluate runs the automaton and, when needed, the capturing matcher.
func (f *PatternFilter) evaluate(text string) outcome {
	// applies = matched XOR exclude
	if f.automaton.MatchString(text) == f.exclude {
		return outcome{}
	}

	if f.exclude {
		// An exclude filter applies because the pattern did NOT match;
		// there are no captures to extract.
		return outcome{applies: true}
	}

	f.fullMatches++

	loc := f.template.FindStringSubmatchIndex(text)
	if loc == nil {
		// Both engines compiled the same pattern text, so the stages
		// cannot disagree; if they ever do, fail closed.
		return outcome{}
	}

	groups := make([]string, 0, len(loc)/2)
	for i := 0; i < len(loc); i += 2 {
		if loc[i] < 0 {
			groups = append(groups, "")
		} else {
			groups = append(groups, text[loc[i]:loc[i+1]])
		}
	}

	return outcome{
		applies: true,
		state:   &MatchState{groups: groups, start: loc[0], end: loc[1]},
	}
}

// ReplacementText implements Filter.
func (f *PatternFilter) ReplacementText(req *requestdata.Request, group int, state *MatchState) (string, error) {
	if f.exclude || f.automaton == nil || group == -1 {
		return f.text(req), nil
	}

	if group < 0 || state == nil || group >= len(state.groups) {
		return "", &CaptureGroupError{Group: group, Text: f.text(req), Pattern: f.pattern}
	}

	return state.groups[group], nil
}

// Pattern returns the configured pattern, "" when none is set.
func (f *PatternFilter) Pattern() string {
	return f.pattern
}

// Empty reports whether the filter has no pattern and therefore
// matches every request.
func (f *PatternFilter) Empty() bool {
	return f.automaton == nil
}

// Exclude reports whether the filter applies on non-matching requests.
func (f *PatternFilter) Exclude() bool {
	return f.exclude
}

// Field returns the request field the filter examines.
func (f *PatternFilter) Field() Field {
	return f.field
}

// String returns a diagnostic form of the filter.
func (f *PatternFilter) String() string {
	return fmt.Sprintf("{ type: '%s', pattern: '%s', isExclude: %t }", f.typeCode, f.pattern, f.exclude)
}
