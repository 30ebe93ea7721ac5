// Package report runs the classification pipeline over recorded
// request data and renders the aggregated result.
//
// The generator discovers timer files, reads their request records,
// and fans them out to workers. Each worker owns an independently
// built rule set (private filter caches, shared automaton table) and a
// private collector; collectors are merged once the workers are done,
// so no locking happens on the hot path.
package report
