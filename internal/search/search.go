// Package search evaluates a Filter against the locally accumulated records.
// The remote store is authoritative; these semantics mirror it so the
// degraded view reads the same.
package search

import (
	"strings"

	"offersearch-engine/internal/domain"
)

// Fold is the case folding every evaluator applies before substring tests.
func Fold(s string) string { return strings.ToLower(s) }

func contains(field, needle string) bool {
	return strings.Contains(Fold(field), Fold(needle))
}

// Matches reports whether r satisfies every constraint f specifies.
// Free text hits title, company or description; source must be exact.
func Matches(r domain.Record, f domain.Filter) bool {
	f = f.Normalize()
	if f.Search != "" &&
		!contains(r.Title, f.Search) &&
		!contains(r.Company, f.Search) &&
		!contains(r.Description, f.Search) {
		return false
	}
	if f.Location != "" && !contains(r.Location, f.Location) {
		return false
	}
	if f.Company != "" && !contains(r.Company, f.Company) {
		return false
	}
	if f.Source != "" && r.Source != f.Source {
		return false
	}
	return true
}

// Apply filters records in order, then skips Offset matches and keeps up to Limit.
func Apply(records []domain.Record, f domain.Filter) []domain.Record {
	f = f.Normalize()
	out := make([]domain.Record, 0)
	skipped := 0
	for _, r := range records {
		if !Matches(r, f) {
			continue
		}
		if skipped < f.Offset {
			skipped++
			continue
		}
		out = append(out, r)
		if len(out) == f.Limit {
			break
		}
	}
	return out
}

// ComputeStats aggregates the way the remote store does: distinct raw
// company and location values, placeholders included.
func ComputeStats(records []domain.Record) domain.Stats {
	companies := map[string]struct{}{}
	locations := map[string]struct{}{}
	bySource := map[string]int{}
	for _, r := range records {
		companies[r.Company] = struct{}{}
		locations[r.Location] = struct{}{}
		bySource[string(r.Source)]++
	}
	return domain.Stats{
		TotalJobs:      len(records),
		TotalCompanies: len(companies),
		TotalLocations: len(locations),
		JobsBySource:   bySource,
	}
}
