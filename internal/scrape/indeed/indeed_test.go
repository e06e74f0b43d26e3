package indeed

import (
	"testing"
	"time"

	"offersearch-engine/internal/domain"
	"offersearch-engine/internal/scrape"
	"offersearch-engine/internal/scrape/page"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandles(t *testing.T) {
	assert.True(t, Handles("https://www.indeed.com/jobs?q=golang"))
	assert.True(t, Handles("https://fr.indeed.com/emplois?q=go"))
	assert.True(t, Handles("https://uk.indeed.com/q-golang-jobs.html"))
	assert.True(t, Handles("https://indeed.fr/jobs?q=go"))
	assert.False(t, Handles("https://www.indeed.com/companies"))
	assert.False(t, Handles("https://www.linkedin.com/jobs/"))
	assert.False(t, Handles("https://notindeed.com/jobs"))
}

func TestExtract(t *testing.T) {
	html := `<ul class="jobsearch-ResultsList">
<li><div class="job_seen_beacon" data-jk="a1b2c3">
  <h2 class="jobTitle"><a class="jcs-JobTitle" href="/rc/clk?jk=a1b2c3&from=serp"><span title="Go Developer">Go Developer</span></a></h2>
  <span data-testid="company-name">Globex</span>
  <div data-testid="text-location">Lyon</div>
  <div class="job-snippet">Build services in Go.</div>
</div></li>
<li><div class="job_seen_beacon">
  <h2 class="jobTitle"><a class="jcs-JobTitle" href="/viewjob/ff00?from=x"><span>SRE</span></a></h2>
</div></li>
</ul>`
	doc, err := page.ParseString(html, "https://fr.indeed.com/jobs?q=go")
	require.NoError(t, err)

	p := New(scrape.WithClock(func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }))
	recs, err := p.Extract(doc)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "a1b2c3", recs[0].ID)
	assert.Equal(t, "Go Developer", recs[0].Title)
	assert.Equal(t, "Globex", recs[0].Company)
	assert.Equal(t, "Lyon", recs[0].Location)
	assert.Equal(t, "https://fr.indeed.com/rc/clk", recs[0].URL)
	assert.Equal(t, domain.DateUnknown, recs[0].PostedDate)
	assert.Equal(t, domain.SourceIndeed, recs[0].Source)

	assert.Equal(t, "ff00", recs[1].ID)
	assert.Equal(t, "https://fr.indeed.com/viewjob/ff00", recs[1].URL)
}
