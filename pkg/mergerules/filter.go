package mergerules

import "github.com/m-ullrich/XLT/pkg/requestdata"

// Filter decides whether a request belongs to a merge rule and
// derives the text used when building the merged request name.
type Filter interface {
	// TypeCode is the single-letter code identifying the request field
	// this filter examines, as used in naming-template placeholders.
	TypeCode() string

	// AppliesTo reports whether the filter applies to req. The
	// returned state carries the capturing groups of the match when
	// the filter produced them; it is nil for exclude filters, filters
	// without a pattern, and non-applying verdicts.
	AppliesTo(req *requestdata.Request) (*MatchState, bool)

	// ReplacementText returns capturing group group of state. It
	// returns the raw examined text unchanged for exclude filters,
	// filters without a pattern, and group -1. Requesting a group the
	// pattern does not capture fails with a *CaptureGroupError.
	ReplacementText(req *requestdata.Request, group int, state *MatchState) (string, error)
}
