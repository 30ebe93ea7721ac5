// Package mergerules classifies recorded requests into report buckets.
//
// A merge rule is a conjunction of per-field filters plus a naming
// template. Each pattern filter matches one request field against a
// regular expression using a two-stage pipeline: a DFA-backed
// automaton gives a cheap boolean verdict, and the capturing matcher
// runs only when that verdict makes the filter apply. Outcomes are
// memoized per filter in a bounded LRU cache keyed by the examined
// text, so reclassifying a previously seen text costs a single map
// lookup.
//
// # Ownership
//
// A filter instance, including its cache, belongs to exactly one
// worker and is not safe for concurrent use. Parallel report
// processing builds one rule set per worker from the same
// configuration. The only state shared between workers is the
// automaton table, which is concurrent-safe.
package mergerules
