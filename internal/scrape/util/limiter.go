package util

import (
	"context"
	"net"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// DefaultPageRate is one page every two seconds per job board, slow enough
// that a run over a few saved searches does not trip the boards' bot checks.
const DefaultPageRate = 0.5

// HostLimiter paces page fetches per job board. www.linkedin.com and
// fr.linkedin.com are different boards to DNS but one to their rate limits,
// so limiters are keyed by the board's registrable name.
type HostLimiter struct {
	mu     sync.Mutex
	boards map[string]*rate.Limiter
	every  rate.Limit
	burst  int
}

// NewHostLimiter falls back to DefaultPageRate and a burst of one for
// non-positive values.
func NewHostLimiter(pagesPerSec float64, burst int) *HostLimiter {
	if pagesPerSec <= 0 {
		pagesPerSec = DefaultPageRate
	}
	if burst < 1 {
		burst = 1
	}
	return &HostLimiter{
		boards: make(map[string]*rate.Limiter),
		every:  rate.Limit(pagesPerSec),
		burst:  burst,
	}
}

// BoardKey reduces a hostname to its last two labels, lowercased. IP
// addresses are kept whole. Good enough for the boards we scrape; it does
// not know public suffixes like co.uk.
func BoardKey(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if net.ParseIP(host) != nil {
		return host
	}
	labels := strings.Split(host, ".")
	if len(labels) <= 2 {
		return host
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

func (hl *HostLimiter) limiterFor(board string) *rate.Limiter {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	lim, ok := hl.boards[board]
	if !ok {
		lim = rate.NewLimiter(hl.every, hl.burst)
		hl.boards[board] = lim
	}
	return lim
}

// WaitURL blocks until the page's board may be hit again. Unparseable URLs
// share one bucket.
func (hl *HostLimiter) WaitURL(ctx context.Context, pageURL string) error {
	board := "_"
	if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
		board = BoardKey(u.Hostname())
	}
	return hl.limiterFor(board).Wait(ctx)
}
