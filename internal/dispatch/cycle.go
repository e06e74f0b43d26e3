package dispatch

import (
	"context"
	"errors"

	"offersearch-engine/internal/domain"
	"offersearch-engine/internal/logger"
	"offersearch-engine/internal/metrics"
	"offersearch-engine/internal/scrape"
	"offersearch-engine/internal/scrape/page"
)

// Sink receives each non-empty batch. The remote gateway is the usual one.
type Sink interface {
	Submit(ctx context.Context, batch []domain.Record) (domain.SubmitOutcome, error)
}

type Dispatcher struct {
	reg     *Registry
	log     logger.Logger
	metrics *metrics.Metrics
}

func NewDispatcher(reg *Registry, log logger.Logger, m *metrics.Metrics) *Dispatcher {
	if log == nil {
		log = logger.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Dispatcher{reg: reg, log: log.With(logger.String("component", "dispatch")), metrics: m}
}

func (d *Dispatcher) Registry() *Registry { return d.reg }

// CycleResult is what one cycle produced. Submitted is false when the submit
// was skipped or failed; SubmitErr holds the failure for status reporting.
type CycleResult struct {
	Engine    scrape.Engine
	Records   []domain.Record
	Submitted bool
	Remote    domain.SubmitOutcome
	SubmitErr error
}

// RunCycle dispatches, extracts and submits best-effort. A submit failure is
// logged and counted but never fails the cycle. Merging into local state is
// left to the caller.
func (d *Dispatcher) RunCycle(ctx context.Context, pageURL string, q page.Query, sink Sink) (CycleResult, error) {
	eng, err := d.reg.Dispatch(pageURL)
	if err != nil {
		d.metrics.CyclesTotal.WithLabelValues("unknown", "unsupported").Inc()
		return CycleResult{}, err
	}
	src := string(eng.Source())
	log := d.log.With(logger.String("source", src), logger.String("url", pageURL))

	batch, err := eng.Extract(q)
	if err != nil {
		d.metrics.CyclesTotal.WithLabelValues(src, "host_failure").Inc()
		log.Error("extraction failed", logger.Err(err))
		return CycleResult{Engine: eng}, err
	}
	d.metrics.RecordsExtracted.WithLabelValues(src).Add(float64(len(batch)))
	res := CycleResult{Engine: eng, Records: batch}

	if len(batch) == 0 || sink == nil {
		d.metrics.CyclesTotal.WithLabelValues(src, "empty").Inc()
		return res, nil
	}

	out, err := sink.Submit(ctx, batch)
	if err != nil {
		d.metrics.SubmitFailures.WithLabelValues(src).Inc()
		d.metrics.CyclesTotal.WithLabelValues(src, "submit_failed").Inc()
		log.Warn("submit failed, keeping batch locally", logger.Int("records", len(batch)), logger.Err(err))
		res.SubmitErr = err
		return res, nil
	}
	if !out.Accepted {
		err := errors.New("remote store did not accept the batch")
		d.metrics.SubmitFailures.WithLabelValues(src).Inc()
		d.metrics.CyclesTotal.WithLabelValues(src, "submit_rejected").Inc()
		log.Warn("submit rejected", logger.Int("records", len(batch)))
		res.SubmitErr = err
		return res, nil
	}

	d.metrics.CyclesTotal.WithLabelValues(src, "ok").Inc()
	log.Info("batch submitted",
		logger.Int("records", len(batch)),
		logger.Int("inserted", out.Inserted),
		logger.Int("duplicates", out.Duplicates),
	)
	res.Submitted = true
	res.Remote = out
	return res, nil
}
