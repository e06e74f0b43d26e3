package httpapi

import (
	"net/http"

	"offersearch-engine/internal/logger"
)

// NewMux returns the raw mux so main() can still attach /shutdown (needs srv+token).
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: HealthHandler{Offers: d.Offers}.Health,
	}))

	// Scrape
	sch := ScrapeHandler{Offers: d.Offers, ScrapeStatus: d.ScrapeStatus}
	mux.HandleFunc("/scrape", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sch.Run,
	}))
	mux.HandleFunc("/scrape/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: sch.Status,
	}))

	// Offers
	oh := OffersHandler{Offers: d.Offers}
	mux.HandleFunc("/offers", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: oh.Cached,
	}))
	mux.HandleFunc("/offers/search", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: oh.Search,
	}))
	mux.HandleFunc("/offers/stats", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: oh.Stats,
	}))
	mux.HandleFunc("/sources", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: oh.Sources,
	}))

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
	}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))
	mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Validate,
	}))

	// Secrets (use cfgVal, NOT a snapshot cfg)
	if d.SetToken != nil {
		sh := SecretsHandler{CfgVal: d.CfgVal, SetToken: d.SetToken}
		mux.HandleFunc("/api/secrets/token", methodMux(map[string]http.HandlerFunc{
			http.MethodPost: sh.SetAPIToken,
		}))
	}

	// State maintenance
	dh := DBHandler{Checkpoint: d.Checkpoint}
	mux.HandleFunc("/db/checkpoint", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: dh.CheckpointWAL,
	}))

	// SSE events
	if d.Hub != nil {
		eh := EventsHandler{Hub: d.Hub}
		mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
			http.MethodGet: eh.ServeSSE,
		}))
	}

	if d.Metrics != nil {
		mux.Handle("/metrics", d.Metrics.Handler())
	}

	return mux
}

// Handler is the mux wrapped in the standard middleware chain.
func Handler(mux http.Handler, log logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return Chain(mux, RequestID, Recover(log), AccessLog(log), Cors)
}
