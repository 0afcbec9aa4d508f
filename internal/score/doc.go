// Package score converts a session snapshot into a 0-100 privacy score.
//
// Each input count (scripts, tracking requests, tracking cookies) maps
// through an ascending step table to a fixed penalty, and a missing privacy
// policy adds a flat penalty. Step tables keep the score stable when one
// more tracker loads, unlike a per-unit deduction.
//
// Recommendations are derived from the same counts, independently of the
// score itself.
package score
