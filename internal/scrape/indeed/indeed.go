package indeed

import (
	"net/url"
	"regexp"
	"strings"

	"offersearch-engine/internal/domain"
	"offersearch-engine/internal/scrape"
)

var Selectors = scrape.SelectorSet{
	Container: scrape.Candidates{
		"div.job_seen_beacon",
		"li div.cardOutline",
		"td.resultContent",
		"div[data-jk]",
		"ul.jobsearch-ResultsList > li",
	},
	Link: scrape.Candidates{
		"h2.jobTitle a",
		"a.jcs-JobTitle",
		"a[data-jk]",
		`a[href*="/viewjob"]`,
		`a[href*="/rc/clk"]`,
	},
	Title: scrape.Candidates{
		"h2.jobTitle span[title]",
		"h2.jobTitle span",
		"a.jcs-JobTitle span",
		"h2",
	},
	Company: scrape.Candidates{
		`[data-testid="company-name"]`,
		"span.companyName",
		".company_location span:first-child",
	},
	Location: scrape.Candidates{
		`[data-testid="text-location"]`,
		"div.companyLocation",
		".company_location div",
	},
	Date: scrape.Candidates{
		"time",
		`span[data-testid="myJobsStateDate"]`,
		"span.date",
	},
	Description: scrape.Candidates{
		"div.job-snippet",
		`[data-testid="jobsnippet_footer"]`,
		"ul li",
	},
}

var idPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[?&]jk=([0-9a-f]+)`),
	regexp.MustCompile(`/viewjob/([0-9a-f]+)`),
	regexp.MustCompile(`[?&]vjk=([0-9a-f]+)`),
}

func Handles(pageURL string) bool {
	u, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Host)
	if host != "indeed.com" && !strings.HasSuffix(host, ".indeed.com") && !strings.HasPrefix(host, "indeed.") && !strings.Contains(host, ".indeed.") {
		return false
	}
	p := strings.ToLower(u.Path)
	return strings.HasPrefix(p, "/jobs") || strings.HasPrefix(p, "/q-") || strings.HasPrefix(p, "/emplois")
}

func Profile() scrape.Profile {
	return scrape.Profile{
		Source:        domain.SourceIndeed,
		Name:          "Indeed",
		Handles:       Handles,
		Selectors:     Selectors,
		NativeIDAttr:  "data-jk",
		URLIDPatterns: idPatterns,
	}
}

func New(opts ...scrape.Option) *scrape.Pipeline {
	return scrape.NewPipeline(Profile(), opts...)
}
