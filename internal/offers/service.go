// Package offers is the calling layer: it runs scrape cycles into the local
// cache and answers queries remote-first, degrading to the cache visibly.
package offers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"offersearch-engine/internal/dispatch"
	"offersearch-engine/internal/domain"
	"offersearch-engine/internal/events"
	"offersearch-engine/internal/gateway"
	"offersearch-engine/internal/identity"
	"offersearch-engine/internal/logger"
	"offersearch-engine/internal/metrics"
	"offersearch-engine/internal/scrape/page"
	"offersearch-engine/internal/store"
)

// Remote is the query gateway surface; *gateway.Client implements it.
type Remote interface {
	Submit(ctx context.Context, batch []domain.Record) (domain.SubmitOutcome, error)
	Search(ctx context.Context, f domain.Filter) ([]domain.Record, error)
	Stats(ctx context.Context) (domain.Stats, error)
}

// ErrRemoteNotConfigured backs the RemoteUnavailable returned when the
// service runs without a remote store.
var ErrRemoteNotConfigured = errors.New("remote store not configured")

type Deps struct {
	Dispatcher *dispatch.Dispatcher
	Remote     Remote
	Cache      *store.Cache
	Events     events.Publisher
	Metrics    *metrics.Metrics
	Logger     logger.Logger
}

type Service struct {
	dispatcher *dispatch.Dispatcher
	remote     Remote
	cache      *store.Cache
	events     events.Publisher
	metrics    *metrics.Metrics
	log        logger.Logger
}

func NewService(d Deps) *Service {
	s := &Service{
		dispatcher: d.Dispatcher,
		remote:     d.Remote,
		cache:      d.Cache,
		events:     d.Events,
		metrics:    d.Metrics,
		log:        d.Logger,
	}
	if s.events == nil {
		s.events = events.Nop()
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	if s.log == nil {
		s.log = logger.NewNop()
	}
	s.log = s.log.With(logger.String("component", "offers"))
	return s
}

type ScrapeResult struct {
	Source    string                `json:"source"`
	Records   []domain.Record       `json:"records"`
	Merge     identity.MergeOutcome `json:"merge"`
	Submitted bool                  `json:"submitted"`
	Remote    domain.SubmitOutcome  `json:"remote"`
	Status    string                `json:"status"`
}

type SearchResult struct {
	Records  []domain.Record `json:"records"`
	Degraded bool            `json:"degraded"`
	Status   string          `json:"status"`
}

type StatsResult struct {
	Stats    domain.Stats `json:"stats"`
	Degraded bool         `json:"degraded"`
	Status   string       `json:"status"`
}

// Scrape runs one cycle on the page, merges the batch into the accumulated
// set and persists it. The batch is kept locally even when submit failed.
func (s *Service) Scrape(ctx context.Context, reqID, pageURL string, q page.Query) (ScrapeResult, error) {
	var sink dispatch.Sink
	if s.remote != nil {
		sink = s.remote
	}

	cyc, err := s.dispatcher.RunCycle(ctx, pageURL, q, sink)
	if err != nil {
		events.Emit(s.events, reqID, events.TypeScrapeFailed, events.ScrapeFailed{URL: pageURL, Reason: err.Error()})
		return ScrapeResult{Status: ScrapeFailureStatus(err)}, err
	}

	res := ScrapeResult{
		Source:    string(cyc.Engine.Source()),
		Records:   cyc.Records,
		Submitted: cyc.Submitted,
		Remote:    cyc.Remote,
	}
	if len(cyc.Records) == 0 {
		res.Status = "No offers found: scroll the page to load more, then try again"
		return res, nil
	}

	out, err := s.cache.MergeAndSave(ctx, cyc.Records)
	res.Merge = out
	s.metrics.MergeInserted.Add(float64(out.Inserted))
	s.metrics.MergeDuplicates.Add(float64(out.Duplicates))
	s.metrics.AccumulatedOffers.Set(float64(out.Total))
	if err != nil {
		// the merged set is still in memory; the next successful save persists it
		s.log.Error("persist accumulated offers", logger.Err(err))
		return res, fmt.Errorf("save accumulated offers: %w", err)
	}

	events.Emit(s.events, reqID, events.TypeOffersMerged, events.OffersMerged{
		Source:     res.Source,
		Extracted:  len(cyc.Records),
		Inserted:   out.Inserted,
		Duplicates: out.Duplicates,
		Total:      out.Total,
		Submitted:  cyc.Submitted,
	})

	res.Status = fmt.Sprintf("%d offers scraped from %s (%d new, %d updated, %d in cache)",
		len(cyc.Records), cyc.Engine.Name(), out.Inserted, out.Duplicates, out.Total)
	if !cyc.Submitted {
		res.Status += "; not sent to the remote store, kept locally"
	}
	return res, nil
}

// Search asks the remote store first. Only RemoteUnavailable triggers the
// local fallback; anything else propagates.
func (s *Service) Search(ctx context.Context, reqID string, f domain.Filter) (SearchResult, error) {
	f = f.Normalize()

	records, err := s.remoteSearch(ctx, f)
	if err == nil {
		st := fmt.Sprintf("%d offers found", len(records))
		if len(records) == 0 {
			st = "No results"
		}
		return SearchResult{Records: records, Status: st}, nil
	}
	if !gateway.IsRemoteUnavailable(err) {
		return SearchResult{}, err
	}

	local := s.cache.Search(ctx, f)
	s.metrics.RemoteFallbacks.WithLabelValues("search").Inc()
	s.log.Warn("remote search unavailable, serving local cache", logger.Err(err), logger.Int("records", len(local)))
	events.Emit(s.events, reqID, events.TypeSearchDegraded, events.Degraded{Op: "search", Reason: err.Error(), Served: len(local)})

	st := fmt.Sprintf("%s; showing %d offers from the local cache", RemoteNotice, len(local))
	if len(local) == 0 {
		st = RemoteNotice + "; No results in the local cache"
	}
	return SearchResult{Records: local, Degraded: true, Status: st}, nil
}

func (s *Service) Stats(ctx context.Context, reqID string) (StatsResult, error) {
	st, err := s.remoteStats(ctx)
	if err == nil {
		return StatsResult{Stats: st, Status: fmt.Sprintf("%d offers in the remote store", st.TotalJobs)}, nil
	}
	if !gateway.IsRemoteUnavailable(err) {
		return StatsResult{}, err
	}

	local := s.cache.Stats(ctx)
	s.metrics.RemoteFallbacks.WithLabelValues("stats").Inc()
	s.log.Warn("remote stats unavailable, computing from local cache", logger.Err(err))
	events.Emit(s.events, reqID, events.TypeStatsDegraded, events.Degraded{Op: "stats", Reason: err.Error(), Served: local.TotalJobs})

	last := "unknown"
	if t := s.cache.LastUpdate(); !t.IsZero() {
		last = t.Format("2006-01-02 15:04")
	}
	return StatsResult{
		Stats:    local,
		Degraded: true,
		Status:   fmt.Sprintf("%s; %d offers in the local cache (last update: %s)", RemoteNotice, local.TotalJobs, last),
	}, nil
}

// SupportedSources lists the display names of the registered engines.
func (s *Service) SupportedSources() []string {
	return s.dispatcher.Registry().Sources()
}

func (s *Service) Cache() *store.Cache { return s.cache }

func (s *Service) remoteSearch(ctx context.Context, f domain.Filter) ([]domain.Record, error) {
	if s.remote == nil {
		return nil, &gateway.RemoteUnavailableError{Op: "search", Err: ErrRemoteNotConfigured}
	}
	return s.remote.Search(ctx, f)
}

func (s *Service) remoteStats(ctx context.Context) (domain.Stats, error) {
	if s.remote == nil {
		return domain.Stats{}, &gateway.RemoteUnavailableError{Op: "stats", Err: ErrRemoteNotConfigured}
	}
	return s.remote.Stats(ctx)
}

// RemoteNotice is the generic transport-failure notice shown on degraded answers.
const RemoteNotice = "Remote store unreachable"

// ScrapeFailureStatus turns a cycle failure into the message shown to the user.
func ScrapeFailureStatus(err error) string {
	var us *dispatch.UnsupportedSourceError
	if errors.As(err, &us) {
		return "Unsupported page. Open a job search on one of: " + strings.Join(us.Known, ", ")
	}
	return "Could not read the page: " + err.Error()
}
