package offers

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"offersearch-engine/internal/dispatch"
	"offersearch-engine/internal/domain"
	"offersearch-engine/internal/events"
	"offersearch-engine/internal/gateway"
	"offersearch-engine/internal/metrics"
	"offersearch-engine/internal/scrape"
	"offersearch-engine/internal/scrape/indeed"
	"offersearch-engine/internal/scrape/linkedin"
	"offersearch-engine/internal/scrape/page"
	"offersearch-engine/internal/store"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	submitErr error
	searchErr error
	statsErr  error
	records   []domain.Record
	stats     domain.Stats
	submitted [][]domain.Record
}

func (f *fakeRemote) Submit(_ context.Context, b []domain.Record) (domain.SubmitOutcome, error) {
	f.submitted = append(f.submitted, b)
	if f.submitErr != nil {
		return domain.SubmitOutcome{}, f.submitErr
	}
	return domain.SubmitOutcome{Accepted: true, Inserted: len(b), Total: len(b)}, nil
}

func (f *fakeRemote) Search(context.Context, domain.Filter) ([]domain.Record, error) {
	return f.records, f.searchErr
}

func (f *fakeRemote) Stats(context.Context) (domain.Stats, error) {
	return f.stats, f.statsErr
}

type recorder struct{ got []string }

func (r *recorder) Publish(evt string) { r.got = append(r.got, evt) }

type fixture struct {
	svc    *Service
	kv     *store.SQLite
	cache  *store.Cache
	remote *fakeRemote
	events *recorder
	m      *metrics.Metrics
}

func newFixture(t *testing.T, remote *fakeRemote) fixture {
	t.Helper()
	kv, err := store.OpenSQLite(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	clock := scrape.WithClock(func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) })
	reg := dispatch.NewRegistry(linkedin.New(clock), indeed.New(clock))
	m := metrics.New()
	rec := &recorder{}
	cache := store.NewCache(kv, nil)

	deps := Deps{
		Dispatcher: dispatch.NewDispatcher(reg, nil, m),
		Cache:      cache,
		Events:     rec,
		Metrics:    m,
	}
	if remote != nil {
		deps.Remote = remote
	}
	return fixture{svc: NewService(deps), kv: kv, cache: cache, remote: remote, events: rec, m: m}
}

func unavailable(op string) error {
	return &gateway.RemoteUnavailableError{Op: op, Err: errors.New("dial tcp: connection refused")}
}

func goRecord(i int) domain.Record {
	return domain.Record{
		ID: fmt.Sprint(i), Title: fmt.Sprintf("Go Engineer %d", i), Company: "Acme", Location: "Paris",
		URL: fmt.Sprintf("https://x/%d", i), Source: domain.SourceLinkedIn,
	}
}

const linkedinPage = `<ul>
<li data-occludable-job-id="42"><a class="job-card-container__link" href="https://x/42?ref=a"><h3>Engineer</h3></a></li>
<li data-occludable-job-id="43"><a class="job-card-container__link" href="https://x/43"><h3>Engineer II</h3></a></li>
</ul>`

func parse(t *testing.T, html, u string) *page.Document {
	t.Helper()
	doc, err := page.ParseString(html, u)
	require.NoError(t, err)
	return doc
}

func TestSearchDegradesToLocalCache(t *testing.T) {
	f := newFixture(t, &fakeRemote{searchErr: unavailable("search")})
	batch := []domain.Record{goRecord(1), goRecord(2), goRecord(3), goRecord(4), goRecord(5)}
	other := domain.Record{ID: "99", Title: "Accountant", Company: "Initech", Location: "Lyon", URL: "https://x/99", Source: domain.SourceIndeed}
	f.cache.Merge(append(batch, other))

	res, err := f.svc.Search(context.Background(), "r1", domain.Filter{Search: "go engineer"})
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Equal(t, batch, res.Records)
	assert.Contains(t, res.Status, RemoteNotice)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.m.RemoteFallbacks.WithLabelValues("search")))
	require.Len(t, f.events.got, 1)
	assert.Contains(t, f.events.got[0], events.TypeSearchDegraded)
}

func TestSearchDegradedEmptySaysNoResults(t *testing.T) {
	f := newFixture(t, &fakeRemote{searchErr: unavailable("search")})

	res, err := f.svc.Search(context.Background(), "", domain.Filter{Search: "rust"})
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Empty(t, res.Records)
	assert.Contains(t, res.Status, "No results")
}

func TestSearchRemoteHealthy(t *testing.T) {
	remote := &fakeRemote{records: []domain.Record{goRecord(7)}}
	f := newFixture(t, remote)

	res, err := f.svc.Search(context.Background(), "", domain.Filter{})
	require.NoError(t, err)
	assert.False(t, res.Degraded)
	assert.Equal(t, remote.records, res.Records)
	assert.Empty(t, f.events.got)
}

func TestSearchOtherErrorsPropagate(t *testing.T) {
	f := newFixture(t, &fakeRemote{searchErr: context.Canceled})

	_, err := f.svc.Search(context.Background(), "", domain.Filter{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestSearchWithoutRemoteIsDegraded(t *testing.T) {
	f := newFixture(t, nil)
	f.cache.Merge([]domain.Record{goRecord(1)})

	res, err := f.svc.Search(context.Background(), "", domain.Filter{})
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Len(t, res.Records, 1)
}

func TestStatsDegradesToLocal(t *testing.T) {
	f := newFixture(t, &fakeRemote{statsErr: unavailable("stats")})
	f.cache.Merge([]domain.Record{goRecord(1), goRecord(2)})

	res, err := f.svc.Stats(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Equal(t, 2, res.Stats.TotalJobs)
	assert.Equal(t, map[string]int{"linkedin": 2}, res.Stats.JobsBySource)
	assert.Contains(t, res.Status, "2 offers in the local cache")
}

func TestDegradedAnswersReadTheSavedOfferIndex(t *testing.T) {
	f := newFixture(t, &fakeRemote{searchErr: unavailable("search"), statsErr: unavailable("stats")})
	ctx := context.Background()
	_, err := f.cache.MergeAndSave(ctx, []domain.Record{goRecord(1), goRecord(2), goRecord(3)})
	require.NoError(t, err)

	// Only the SQL index sees this delete; the in-memory set still has 3.
	_, err = f.kv.Pool().Exec(`DELETE FROM offers WHERE id = '2';`)
	require.NoError(t, err)

	res, err := f.svc.Search(ctx, "", domain.Filter{Search: "go"})
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Equal(t, []domain.Record{goRecord(1), goRecord(3)}, res.Records)

	st, err := f.svc.Stats(ctx, "")
	require.NoError(t, err)
	assert.True(t, st.Degraded)
	assert.Equal(t, 2, st.Stats.TotalJobs)
}

func TestStatsRemoteHealthy(t *testing.T) {
	f := newFixture(t, &fakeRemote{stats: domain.Stats{TotalJobs: 10, JobsBySource: map[string]int{"indeed": 10}}})

	res, err := f.svc.Stats(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, res.Degraded)
	assert.Equal(t, 10, res.Stats.TotalJobs)
}

func TestScrapeMergesAndPersistsEvenWhenSubmitFails(t *testing.T) {
	remote := &fakeRemote{submitErr: unavailable("submit")}
	f := newFixture(t, remote)
	doc := parse(t, linkedinPage, "https://www.linkedin.com/jobs/search/")

	res, err := f.svc.Scrape(context.Background(), "r1", doc.URL(), doc)
	require.NoError(t, err)
	assert.Equal(t, "linkedin", res.Source)
	assert.Len(t, res.Records, 2)
	assert.False(t, res.Submitted)
	assert.Equal(t, 2, res.Merge.Inserted)
	assert.Contains(t, res.Status, "kept locally")
	assert.Equal(t, "https://x/42", f.cache.Snapshot()[0].URL)
	require.Len(t, remote.submitted, 1)

	// a second pass only updates
	res, err = f.svc.Scrape(context.Background(), "r2", doc.URL(), doc)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Merge.Inserted)
	assert.Equal(t, 2, res.Merge.Duplicates)
	assert.Equal(t, 2, f.cache.Len())
	assert.Equal(t, 2.0, testutil.ToFloat64(f.m.AccumulatedOffers))
}

func TestScrapeUnsupportedSource(t *testing.T) {
	f := newFixture(t, &fakeRemote{})
	doc := parse(t, linkedinPage, "https://example.com/careers")

	res, err := f.svc.Scrape(context.Background(), "", doc.URL(), doc)
	var us *dispatch.UnsupportedSourceError
	require.ErrorAs(t, err, &us)
	assert.Contains(t, res.Status, "LinkedIn, Indeed")
	require.Len(t, f.events.got, 1)
	assert.Contains(t, f.events.got[0], events.TypeScrapeFailed)
}

func TestScrapeEmptyPageSkipsMergeAndSubmit(t *testing.T) {
	remote := &fakeRemote{}
	f := newFixture(t, remote)
	doc := parse(t, `<p>loading…</p>`, "https://www.linkedin.com/jobs/search/")

	res, err := f.svc.Scrape(context.Background(), "", doc.URL(), doc)
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.Contains(t, res.Status, "No offers found")
	assert.Empty(t, remote.submitted)
	assert.Equal(t, 0, f.cache.Len())
}

func TestSupportedSources(t *testing.T) {
	f := newFixture(t, nil)
	assert.Equal(t, []string{"LinkedIn", "Indeed"}, f.svc.SupportedSources())
}
