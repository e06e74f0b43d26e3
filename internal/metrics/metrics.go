// Package metrics holds the engine's Prometheus collectors on a private registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const Namespace = "offersearch"

type Metrics struct {
	reg *prometheus.Registry

	CyclesTotal       *prometheus.CounterVec // source, outcome
	RecordsExtracted  *prometheus.CounterVec // source
	SubmitFailures    *prometheus.CounterVec // source
	RemoteFallbacks   *prometheus.CounterVec // op
	MergeInserted     prometheus.Counter
	MergeDuplicates   prometheus.Counter
	AccumulatedOffers prometheus.Gauge
}

// New registers everything on a fresh registry, so tests can build as many as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		CyclesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "scrape_cycles_total",
			Help:      "Scrape cycles by source and outcome.",
		}, []string{"source", "outcome"}),
		RecordsExtracted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "records_extracted_total",
			Help:      "Records produced by extraction.",
		}, []string{"source"}),
		SubmitFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "submit_failures_total",
			Help:      "Best-effort submits that did not reach the remote store.",
		}, []string{"source"}),
		RemoteFallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "remote_fallbacks_total",
			Help:      "Queries answered from the local cache because the remote store was unavailable.",
		}, []string{"op"}),
		MergeInserted: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "merge_inserted_total",
			Help:      "Records new to the accumulated set.",
		}),
		MergeDuplicates: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "merge_duplicates_total",
			Help:      "Records that replaced an existing id.",
		}),
		AccumulatedOffers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "accumulated_offers",
			Help:      "Size of the accumulated local record set.",
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
