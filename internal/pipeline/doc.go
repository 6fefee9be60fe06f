// Package pipeline is the entry point of the report-selection and
// aggregation flow: given a guild, a date range and a target boss, it
// selects the most relevant report per calendar day, extracts per-player
// death counts (or damage taken), and folds them into one wide summary
// table.
//
// Execution is strictly sequential per invocation and fail-fast: the
// first error aborts the run with no partial output. Damage extraction
// may fan out over a bounded worker group; results are reassembled in
// date order so concurrency never affects table determinism.
package pipeline
