package page

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"offersearch-engine/internal/scrape/util"

	"github.com/PuerkitoBio/goquery"
)

// Parse builds a Document from an HTML snapshot.
func Parse(r io.Reader, pageURL string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse page html: %w", err)
	}
	return NewDocument(doc, pageURL), nil
}

func ParseString(html, pageURL string) (*Document, error) {
	return Parse(strings.NewReader(html), pageURL)
}

// LoadFile reads a saved snapshot (e.g. "Save page as" from a browser).
func LoadFile(path, pageURL string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f, pageURL)
}

// Fetcher downloads server-rendered pages. Cards injected by client-side
// scripts will not be present; saved snapshots are the reliable input.
type Fetcher struct {
	hc      *http.Client
	limiter *util.HostLimiter
}

func NewFetcher(limiter *util.HostLimiter, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Fetcher{
		hc:      &http.Client{Timeout: timeout},
		limiter: limiter,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*Document, error) {
	if f.limiter != nil {
		if err := f.limiter.WaitURL(ctx, pageURL); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	res, err := f.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get page: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("page status %d", res.StatusCode)
	}
	return Parse(res.Body, pageURL)
}
