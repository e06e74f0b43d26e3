package domain

import (
	"fmt"
	"strings"
)

// Source is the closed set of origins a Record can come from.
type Source string

const (
	SourceLinkedIn           Source = "linkedin"
	SourceIndeed             Source = "indeed"
	SourceLeboncoin          Source = "leboncoin"
	SourceWelcomeToTheJungle Source = "welcome_to_the_jungle"
	SourceMonster            Source = "monster"
	SourceAPEC               Source = "apec"
)

var knownSources = []Source{
	SourceLinkedIn,
	SourceIndeed,
	SourceLeboncoin,
	SourceWelcomeToTheJungle,
	SourceMonster,
	SourceAPEC,
}

func KnownSources() []Source {
	out := make([]Source, len(knownSources))
	copy(out, knownSources)
	return out
}

func ParseSource(s string) (Source, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range knownSources {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown source %q", s)
}

// Placeholders stored instead of empty values.
const (
	CompanyUnspecified  = "company unspecified"
	LocationUnspecified = "location unspecified"
	DateUnknown         = "date unknown"
)

// Record is one job posting. Values are never mutated after extraction;
// a newer Record with the same ID supersedes the old one.
type Record struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	URL         string `json:"url"`
	PostedDate  string `json:"posted_date"` // datetime attr or free text, never parsed
	Description string `json:"description"`
	Source      Source `json:"source"`
	ScrapedAt   string `json:"scraped_at"`
}

func (r Record) Valid() bool {
	return strings.TrimSpace(r.Title) != "" && strings.TrimSpace(r.URL) != ""
}

const (
	DefaultLimit = 50
	MaxLimit     = 1000
)

type Filter struct {
	Search   string `json:"search,omitempty"`
	Location string `json:"location,omitempty"`
	Company  string `json:"company,omitempty"`
	Source   Source `json:"source,omitempty"`
	Limit    int    `json:"limit"`
	Offset   int    `json:"offset"`
}

// Normalize applies the pagination bounds the remote store enforces so the
// local fallback paginates identically.
func (f Filter) Normalize() Filter {
	f.Search = strings.TrimSpace(f.Search)
	f.Location = strings.TrimSpace(f.Location)
	f.Company = strings.TrimSpace(f.Company)
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

type SubmitOutcome struct {
	Accepted   bool `json:"success"`
	Inserted   int  `json:"inserted"`
	Duplicates int  `json:"duplicates"`
	Total      int  `json:"total"`
}

type Stats struct {
	TotalJobs      int            `json:"total_jobs"`
	TotalCompanies int            `json:"total_companies"`
	TotalLocations int            `json:"total_locations"`
	JobsBySource   map[string]int `json:"jobs_by_source"`
}
