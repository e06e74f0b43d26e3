package httpapi

import (
	"net/http"
	"time"

	"offersearch-engine/internal/offers"
)

type HealthHandler struct {
	Offers *offers.Service
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{
		"ok":   true,
		"time": time.Now().UTC().Format(time.RFC3339),
	}
	if h.Offers != nil {
		c := h.Offers.Cache()
		out["cached_offers"] = c.Len()
		if t := c.LastUpdate(); !t.IsZero() {
			out["last_update"] = t.Format(time.RFC3339)
		}
	}
	writeJSON(w, out)
}
