// Package parallel runs multiple spawned children of a unit of work
// concurrently and aggregates their outcomes.
//
// All children settle independently: a failure in one child never cancels
// or blocks its siblings. Without a merge policy the first failure in
// launch order is surfaced as-is and the rest are discarded (a deliberately
// lossy default that preserves single-error semantics for existing
// callers). With a merge policy every failure is combined into one
// AggregateError carrying the failed child identities and their
// concatenated logs.
package parallel
