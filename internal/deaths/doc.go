// Package deaths extracts per-player death counts and damage-taken
// totals from individual Warcraft Logs reports.
//
// Extraction is scoped to one boss encounter and optionally one ability.
// Event pagination is handled internally; callers receive a complete
// per-player mapping or the first error encountered. An event whose
// player identity cannot be resolved aborts extraction with a
// malformed-response error rather than being silently skipped.
package deaths
