package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"offersearch-engine/internal/config"
	"offersearch-engine/internal/dispatch"
	"offersearch-engine/internal/domain"
	"offersearch-engine/internal/events"
	"offersearch-engine/internal/gateway"
	"offersearch-engine/internal/metrics"
	"offersearch-engine/internal/offers"
	"offersearch-engine/internal/scrape"
	"offersearch-engine/internal/scrape/linkedin"
	"offersearch-engine/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type newServerOpts struct {
	remote  *gateway.Client
	token   func(config.Config, string) error
	cfgPath string
}

func newServer(t *testing.T, o newServerOpts) (*httptest.Server, *store.Cache, *events.Hub) {
	t.Helper()
	kv, err := store.OpenSQLite(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	m := metrics.New()
	cache := store.NewCache(kv, nil)
	hub := events.NewHub()
	reg := dispatch.NewRegistry(linkedin.New(scrape.WithClock(func() time.Time { return time.Unix(1700000000, 0) })))
	deps := offers.Deps{Dispatcher: dispatch.NewDispatcher(reg, nil, m), Cache: cache, Events: hub, Metrics: m}
	if o.remote != nil {
		deps.Remote = o.remote
	}

	var cfgVal, status atomic.Value
	cfgVal.Store(config.Defaults())
	status.Store(ScrapeStatus{})
	if o.cfgPath == "" {
		o.cfgPath = filepath.Join(t.TempDir(), "config.yml")
	}

	mux := NewMux(Deps{
		Offers:       offers.NewService(deps),
		Hub:          hub,
		Metrics:      m,
		CfgVal:       &cfgVal,
		ScrapeStatus: &status,
		UserCfgPath:  o.cfgPath,
		LoadCfg:      func() (config.Config, error) { return config.Load(o.cfgPath) },
		Checkpoint:   kv.Checkpoint,
		SetToken:     o.token,
	})
	srv := httptest.NewServer(Handler(mux, nil))
	t.Cleanup(srv.Close)
	return srv, cache, hub
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	res, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Body.Close() })
	return res
}

func decode[T any](t *testing.T, res *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(res.Body).Decode(&v))
	return v
}

const linkedinPage = `<ul><li data-occludable-job-id="42"><a class="job-card-container__link" href="https://x/42?ref=a"><h3>Engineer</h3></a></li></ul>`

func TestHealth(t *testing.T) {
	srv, _, _ := newServer(t, newServerOpts{})
	res, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.NotEmpty(t, res.Header.Get("X-Request-ID"))
	body := decode[map[string]any](t, res)
	assert.Equal(t, true, body["ok"])
}

func TestScrapeThenDegradedSearch(t *testing.T) {
	srv, cache, _ := newServer(t, newServerOpts{})

	res := postJSON(t, srv.URL+"/scrape", map[string]string{"url": "https://www.linkedin.com/jobs/search/", "html": linkedinPage})
	require.Equal(t, http.StatusOK, res.StatusCode)
	sr := decode[offers.ScrapeResult](t, res)
	require.Len(t, sr.Records, 1)
	assert.Equal(t, "https://x/42", sr.Records[0].URL)
	assert.Equal(t, 1, cache.Len())

	res = postJSON(t, srv.URL+"/offers/search", domain.Filter{Search: "engineer"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	got := decode[offers.SearchResult](t, res)
	assert.True(t, got.Degraded)
	require.Len(t, got.Records, 1)
	assert.Equal(t, "42", got.Records[0].ID)

	st, err := http.Get(srv.URL + "/scrape/status")
	require.NoError(t, err)
	defer st.Body.Close()
	status := decode[ScrapeStatus](t, st)
	assert.Equal(t, "linkedin", status.LastSource)
	assert.Equal(t, 1, status.LastAdded)
}

func TestCachedOffersListsAccumulatedSet(t *testing.T) {
	srv, _, _ := newServer(t, newServerOpts{})
	res := postJSON(t, srv.URL+"/scrape", map[string]string{"url": "https://www.linkedin.com/jobs/search/", "html": linkedinPage})
	require.Equal(t, http.StatusOK, res.StatusCode)

	got, err := http.Get(srv.URL + "/offers?limit=10")
	require.NoError(t, err)
	defer got.Body.Close()
	require.Equal(t, http.StatusOK, got.StatusCode)
	recs := decode[[]domain.Record](t, got)
	require.Len(t, recs, 1)
	assert.Equal(t, "42", recs[0].ID)
}

func TestScrapeUnsupportedSource(t *testing.T) {
	srv, _, _ := newServer(t, newServerOpts{})

	res := postJSON(t, srv.URL+"/scrape", map[string]string{"url": "https://example.com/jobs", "html": linkedinPage})
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	e := decode[APIError](t, res)
	assert.Equal(t, "unsupported_source", e.Error.Code)
	assert.Equal(t, []string{"LinkedIn"}, e.Error.Sources)
}

func TestScrapeValidation(t *testing.T) {
	srv, _, _ := newServer(t, newServerOpts{})

	res := postJSON(t, srv.URL+"/scrape", map[string]string{"url": "https://www.linkedin.com/jobs/"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = postJSON(t, srv.URL+"/scrape", map[string]string{"url": "u", "html": "x", "extra": "y"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestScrapeRejectsOversizedBody(t *testing.T) {
	body := `{"url":"https://www.linkedin.com/jobs/search/","html":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/scrape", strings.NewReader(body))
	rec := httptest.NewRecorder()

	ScrapeHandler{}.Run(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	var e APIError
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&e))
	assert.Equal(t, "body_too_large", e.Error.Code)
}

func TestSearchRejectsMalformedJSON(t *testing.T) {
	srv, _, _ := newServer(t, newServerOpts{})
	res, err := http.Post(srv.URL+"/offers/search", "application/json", strings.NewReader(`{"search":`))
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "invalid_json", decode[APIError](t, res).Error.Code)
}

func TestSearchRejectsUnknownSource(t *testing.T) {
	srv, _, _ := newServer(t, newServerOpts{})
	res := postJSON(t, srv.URL+"/offers/search", map[string]any{"source": "glassdoor"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestSearchUsesRemoteWhenHealthy(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/jobs/search":
			_, _ = w.Write([]byte(`[{"id":"r1","title":"Remote Go","url":"u","source":"indeed"}]`))
		case "/api/jobs/stats":
			_, _ = w.Write([]byte(`{"total_jobs":1,"total_companies":1,"total_locations":1,"jobs_by_source":{"indeed":1}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer remote.Close()
	gc, err := gateway.New(gateway.Options{BaseURL: remote.URL})
	require.NoError(t, err)

	srv, _, _ := newServer(t, newServerOpts{remote: gc})

	res := postJSON(t, srv.URL+"/offers/search", domain.Filter{})
	got := decode[offers.SearchResult](t, res)
	assert.False(t, got.Degraded)
	require.Len(t, got.Records, 1)
	assert.Equal(t, "r1", got.Records[0].ID)

	sres, err := http.Get(srv.URL + "/offers/stats")
	require.NoError(t, err)
	defer sres.Body.Close()
	stats := decode[offers.StatsResult](t, sres)
	assert.False(t, stats.Degraded)
	assert.Equal(t, 1, stats.Stats.TotalJobs)
}

func TestSources(t *testing.T) {
	srv, _, _ := newServer(t, newServerOpts{})
	res, err := http.Get(srv.URL + "/sources")
	require.NoError(t, err)
	defer res.Body.Close()
	body := decode[sourcesResponse](t, res)
	assert.Equal(t, []string{"LinkedIn"}, body.Sources)
	assert.Len(t, body.Known, 6)
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _, _ := newServer(t, newServerOpts{})
	res, err := http.Get(srv.URL + "/scrape")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
}

func TestConfigPutValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	srv, _, _ := newServer(t, newServerOpts{cfgPath: path})

	bad := config.Defaults()
	bad.App.Port = 0
	b, _ := json.Marshal(bad)
	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/config", bytes.NewReader(b))
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	v := decode[config.Validation](t, res)
	assert.NotEmpty(t, v.Errors)

	good := config.Defaults()
	good.App.Port = 4001
	b, _ = json.Marshal(good)
	req, _ = http.NewRequest(http.MethodPut, srv.URL+"/config", bytes.NewReader(b))
	res2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res2.Body.Close()
	assert.Equal(t, http.StatusOK, res2.StatusCode)
	saved, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4001, saved.App.Port)
}

func TestSetToken(t *testing.T) {
	var stored string
	srv, _, _ := newServer(t, newServerOpts{token: func(_ config.Config, tok string) error {
		if strings.TrimSpace(tok) == "" {
			return errors.New("token is empty")
		}
		stored = tok
		return nil
	}})

	res := postJSON(t, srv.URL+"/api/secrets/token", map[string]string{"token": "abc"})
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
	assert.Equal(t, "abc", stored)

	res = postJSON(t, srv.URL+"/api/secrets/token", map[string]string{"token": ""})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestCheckpointIsLoopbackOnly(t *testing.T) {
	srv, _, _ := newServer(t, newServerOpts{})
	res := postJSON(t, srv.URL+"/db/checkpoint", nil)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _, _ := newServer(t, newServerOpts{})
	postJSON(t, srv.URL+"/offers/search", domain.Filter{})

	res, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(res.Body)
	assert.Contains(t, buf.String(), `offersearch_remote_fallbacks_total{op="search"} 1`)
}

func TestEventsStream(t *testing.T) {
	srv, _, hub := newServer(t, newServerOpts{})

	res, err := http.Get(srv.URL + "/events")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, "text/event-stream", res.Header.Get("Content-Type"))

	buf := make([]byte, 512)
	n, err := res.Body.Read(buf)
	require.NoError(t, err)
	assert.Contains(t, string(buf[:n]), `"ping"`)

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 10*time.Millisecond)
	events.Emit(hub, "", events.TypeOffersMerged, events.OffersMerged{Source: "linkedin"})
	n, err = res.Body.Read(buf)
	require.NoError(t, err)
	assert.Contains(t, string(buf[:n]), events.TypeOffersMerged)
}
