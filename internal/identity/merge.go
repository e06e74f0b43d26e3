package identity

import "offersearch-engine/internal/domain"

type MergeOutcome struct {
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
	Total      int `json:"total"`
}

// Merge overlays batch onto existing keyed by ID; the batch wins on collision.
// Existing order is kept (replacements in place) and new ids are appended in
// batch order. Counts are taken against the prior set only, so
// Inserted+Duplicates == len(batch) even when the batch repeats an id.
func Merge(existing, batch []domain.Record) ([]domain.Record, MergeOutcome) {
	index := make(map[string]int, len(existing)+len(batch))
	merged := make([]domain.Record, 0, len(existing)+len(batch))
	for _, r := range existing {
		if i, ok := index[r.ID]; ok {
			merged[i] = r
			continue
		}
		index[r.ID] = len(merged)
		merged = append(merged, r)
	}
	prior := len(merged)

	var out MergeOutcome
	for _, r := range batch {
		i, ok := index[r.ID]
		if ok && i < prior {
			out.Duplicates++
		} else {
			out.Inserted++
		}
		if ok {
			merged[i] = r
			continue
		}
		index[r.ID] = len(merged)
		merged = append(merged, r)
	}
	out.Total = len(merged)
	return merged, out
}
