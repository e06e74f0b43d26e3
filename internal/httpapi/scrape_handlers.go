package httpapi

import (
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"offersearch-engine/internal/offers"
	"offersearch-engine/internal/scrape/page"
)

type ScrapeHandler struct {
	Offers       *offers.Service
	ScrapeStatus *atomic.Value // httpapi.ScrapeStatus
}

func (h ScrapeHandler) Status(w http.ResponseWriter, r *http.Request) {
	st, _ := h.ScrapeStatus.Load().(ScrapeStatus)
	writeJSON(w, st)
}

// Run extracts from a page snapshot posted by the host. It runs in the
// request: extraction is one synchronous pass and the caller wants the batch.
func (h ScrapeHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" || strings.TrimSpace(req.HTML) == "" {
		WriteError(w, r, http.StatusBadRequest, "missing_fields", "url and html are required")
		return
	}

	doc, err := page.ParseString(req.HTML, req.URL)
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_html", err.Error())
		return
	}

	prev, _ := h.ScrapeStatus.Load().(ScrapeStatus)
	now := time.Now().Format(time.RFC3339)
	next := prev
	next.LastRunAt = now

	res, err := h.Offers.Scrape(r.Context(), RequestIDFrom(r.Context()), req.URL, doc)
	if err != nil {
		next.LastError = err.Error()
		h.ScrapeStatus.Store(next)
		WriteDomainError(w, r, err)
		return
	}
	next.LastError = ""
	next.LastOkAt = now
	next.LastSource = res.Source
	next.LastAdded = res.Merge.Inserted
	h.ScrapeStatus.Store(next)

	writeJSON(w, res)
}
