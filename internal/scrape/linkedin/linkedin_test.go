package linkedin

import (
	"testing"

	"offersearch-engine/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestHandles(t *testing.T) {
	assert.True(t, Handles("https://www.linkedin.com/jobs/search/?keywords=go"))
	assert.True(t, Handles("https://www.linkedin.com/jobs/collections/recommended/"))
	assert.False(t, Handles("https://www.linkedin.com/feed/"))
	assert.False(t, Handles("https://fr.indeed.com/jobs?q=go"))
}

func TestProfile(t *testing.T) {
	p := New()
	assert.Equal(t, domain.SourceLinkedIn, p.Source())
	assert.Equal(t, "LinkedIn", p.Name())
	assert.True(t, p.CanHandle("https://www.linkedin.com/jobs/view/1/"))
	assert.Equal(t, "li[data-occludable-job-id]", p.Selectors().Container[0])
}

func TestIDPatternsOrder(t *testing.T) {
	link := "https://www.linkedin.com/jobs/view/111/?currentJobId=222"
	for i, want := range []string{"222", "111"} {
		m := idPatterns[i].FindStringSubmatch(link)
		assert.Equal(t, want, m[1])
	}
	m := idPatterns[2].FindStringSubmatch("urn:li:fsd_jobPosting:333")
	assert.Equal(t, "333", m[1])
}
