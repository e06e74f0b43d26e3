package linkedin

import (
	"regexp"
	"strings"

	"offersearch-engine/internal/domain"
	"offersearch-engine/internal/scrape"
)

// Candidate orders follow the markup variants seen on the search list,
// the collections view and the logged-out guest pages.
var Selectors = scrape.SelectorSet{
	Container: scrape.Candidates{
		"li[data-occludable-job-id]",
		"div.scaffold-layout__list-container li",
		".job-card-container",
		".jobs-search-results__list-item",
		"ul.scaffold-layout__list-container > li",
	},
	Link: scrape.Candidates{
		"a.job-card-container__link",
		"a.base-card__full-link",
		`a[href*="/jobs/view/"]`,
		"a.job-card-list__title",
		`a[data-tracking-control-name*="job"]`,
		"div.artdeco-entity-lockup a",
	},
	Title: scrape.Candidates{
		"h3.base-search-card__title",
		".job-card-list__title strong",
		"strong.job-card-list__title",
		".artdeco-entity-lockup__title",
		`a[href*="/jobs/view/"] strong`,
		`div[class*="job-card"] strong`,
		"h3",
		"h4",
	},
	Company: scrape.Candidates{
		".base-search-card__subtitle",
		"h4.base-search-card__subtitle",
		".artdeco-entity-lockup__subtitle",
		".job-card-container__company-name",
		`div[class*="subtitle"] span`,
		"a.hidden-nested-link",
	},
	Location: scrape.Candidates{
		".job-search-card__location",
		".artdeco-entity-lockup__caption",
		`span[class*="location"]`,
		".job-card-container__metadata-item",
	},
	Date: scrape.Candidates{
		"time",
		".job-search-card__listdate",
		`[class*="job-card"] time`,
		`span[class*="date"]`,
	},
	Description: scrape.Candidates{
		".base-search-card__metadata",
		".job-card-container__metadata-wrapper",
		`[class*="snippet"]`,
	},
}

var idPatterns = []*regexp.Regexp{
	regexp.MustCompile(`currentJobId=(\d+)`),
	regexp.MustCompile(`jobs/view/(\d+)`),
	regexp.MustCompile(`jobPosting:(\d+)`),
}

func Handles(pageURL string) bool {
	return strings.Contains(strings.ToLower(pageURL), "linkedin.com/jobs")
}

func Profile() scrape.Profile {
	return scrape.Profile{
		Source:        domain.SourceLinkedIn,
		Name:          "LinkedIn",
		Handles:       Handles,
		Selectors:     Selectors,
		NativeIDAttr:  "data-occludable-job-id",
		URLIDPatterns: idPatterns,
	}
}

func New(opts ...scrape.Option) *scrape.Pipeline {
	return scrape.NewPipeline(Profile(), opts...)
}
