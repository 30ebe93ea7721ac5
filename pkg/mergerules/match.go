package mergerules

import "fmt"

// MatchState is the immutable result of a successful full-pattern
// match: the capturing-group substrings and the span of the overall
// match within the examined text.
type MatchState struct {
	groups []string
	start  int
	end    int
}

// Group returns capturing group i; group 0 is the overall match. A
// group that exists in the pattern but did not participate in the
// match yields "". The caller must keep i within GroupCount.
func (m *MatchState) Group(i int) string {
	return m.groups[i]
}

// GroupCount returns the number of capturing groups in the pattern,
// not counting group 0.
func (m *MatchState) GroupCount() int {
	return len(m.groups) - 1
}

// Start returns the byte offset where the overall match begins.
func (m *MatchState) Start() int {
	return m.start
}

// End returns the byte offset just past the overall match.
func (m *MatchState) End() int {
	return m.end
}

// CaptureGroupError reports a replacement request for a capturing
// group the pattern does not have. It signals a misconfigured merge
// rule, not a transient condition, so callers skip the offending
// record and surface the error rather than retrying.
type CaptureGroupError struct {
	// Group is the requested capturing-group index.
	Group int

	// Text is the request text the filter examined.
	Text string

	// Pattern is the filter's configured pattern.
	Pattern string
}

func (e *CaptureGroupError) Error() string {
	return fmt.Sprintf("no matching group %d for input string %q and pattern %q", e.Group, e.Text, e.Pattern)
}
