package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAreIndependentPerInstance(t *testing.T) {
	a, b := New(), New()
	a.SubmitFailures.WithLabelValues("linkedin").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.SubmitFailures.WithLabelValues("linkedin")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.SubmitFailures.WithLabelValues("linkedin")))
}

func TestHandlerExposesNamespace(t *testing.T) {
	m := New()
	m.RemoteFallbacks.WithLabelValues("search").Inc()
	m.AccumulatedOffers.Set(5)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	res, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `offersearch_remote_fallbacks_total{op="search"} 1`)
	assert.Contains(t, string(body), "offersearch_accumulated_offers 5")
}
