package httpapi

import (
	"net/http"
	"strconv"

	"offersearch-engine/internal/domain"
	"offersearch-engine/internal/offers"
)

type OffersHandler struct {
	Offers *offers.Service
}

// Search takes the Filter as a JSON body.
func (h OffersHandler) Search(w http.ResponseWriter, r *http.Request) {
	var f domain.Filter
	if err := decodeJSON(w, r, &f, true); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	if f.Source != "" {
		src, err := domain.ParseSource(string(f.Source))
		if err != nil {
			WriteError(w, r, http.StatusBadRequest, "invalid_source", err.Error())
			return
		}
		f.Source = src
	}

	res, err := h.Offers.Search(r.Context(), RequestIDFrom(r.Context()), f)
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h OffersHandler) Stats(w http.ResponseWriter, r *http.Request) {
	res, err := h.Offers.Stats(r.Context(), RequestIDFrom(r.Context()))
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	writeJSON(w, res)
}

// Cached lists the accumulated set directly, paginated like a search.
func (h OffersHandler) Cached(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	writeJSON(w, h.Offers.Cache().Search(r.Context(), domain.Filter{Limit: limit, Offset: offset}))
}

func (h OffersHandler) Sources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, sourcesResponse{Sources: h.Offers.SupportedSources(), Known: domain.KnownSources()})
}
