package mergerules

import (
	"sync"

	"github.com/coregx/coregex"
)

// AutomatonTable deduplicates compiled match automatons by pattern
// text. Compiling an automaton is expensive and the result is
// immutable, so at most one automaton is kept per distinct pattern.
// Entries are never removed or replaced once present; the table is
// bounded by the number of distinct configured patterns, not by
// request volume.
//
// An AutomatonTable is safe for concurrent use. Goroutines racing to
// compile the same uncompiled pattern may both compile it; LoadOrStore
// keeps one winner, which is fine because compilation is deterministic
// and the automatons are equivalent.
type AutomatonTable struct {
	automatons sync.Map // pattern string -> *coregex.Regex
}

// NewAutomatonTable creates an empty table.
func NewAutomatonTable() *AutomatonTable {
	return &AutomatonTable{}
}

// sharedAutomatons lives for the whole process: populated lazily on
// the first compilation of each pattern, entries permanent afterwards.
var sharedAutomatons = NewAutomatonTable()

// SharedAutomatons returns the process-wide automaton table. All
// workers of a report run normally share it, so a pattern configured
// in every worker's rule set is still compiled only once.
func SharedAutomatons() *AutomatonTable {
	return sharedAutomatons
}

// Compile returns the automaton for pattern, compiling it on first
// use. An invalid pattern returns the compile error and stores
// nothing.
func (t *AutomatonTable) Compile(pattern string) (*coregex.Regex, error) {
	if cached, ok := t.automatons.Load(pattern); ok {
		return cached.(*coregex.Regex), nil
	}

	re, err := coregex.Compile(pattern)
	if err != nil {
		return nil, err
	}

	actual, _ := t.automatons.LoadOrStore(pattern, re)
	return actual.(*coregex.Regex), nil
}

// Size returns the number of distinct compiled patterns.
func (t *AutomatonTable) Size() int {
	n := 0
	t.automatons.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
