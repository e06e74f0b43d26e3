package httpapi

import (
	"context"
	"sync/atomic"

	"offersearch-engine/internal/config"
	"offersearch-engine/internal/events"
	"offersearch-engine/internal/logger"
	"offersearch-engine/internal/metrics"
	"offersearch-engine/internal/offers"
)

type Deps struct {
	Offers  *offers.Service
	Hub     *events.Hub
	Metrics *metrics.Metrics
	Logger  logger.Logger

	// Atomic stores
	CfgVal       *atomic.Value // stores config.Config
	ScrapeStatus *atomic.Value // stores httpapi.ScrapeStatus

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	// Checkpoint is nil when the state backend has no WAL to fold.
	Checkpoint func(ctx context.Context) error

	// SetToken stores the remote API token (keychain in production).
	SetToken func(cfg config.Config, token string) error
}
