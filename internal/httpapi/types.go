package httpapi

import "offersearch-engine/internal/domain"

type ScrapeStatus struct {
	LastRunAt  string `json:"last_run_at"`
	LastOkAt   string `json:"last_ok_at"`
	LastError  string `json:"last_error"`
	LastSource string `json:"last_source"`
	LastAdded  int    `json:"last_added"`
	Running    bool   `json:"running"`
}

// scrapeRequest carries a rendered page snapshot from the host (browser
// extension, headless runner) along with the page identifier.
type scrapeRequest struct {
	URL  string `json:"url"`
	HTML string `json:"html"`
}

type sourcesResponse struct {
	Sources []string        `json:"sources"`
	Known   []domain.Source `json:"known"`
}
