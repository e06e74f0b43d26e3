// Package gateway is the boundary client for the remote offer store. It never
// falls back on its own and makes exactly one attempt per call.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"offersearch-engine/internal/domain"
	"offersearch-engine/internal/logger"
)

const (
	pathSubmit = "/api/jobs/submit"
	pathSearch = "/api/jobs/search"
	pathStats  = "/api/jobs/stats"

	maxBodyInError = 512
)

type Options struct {
	BaseURL string
	Timeout time.Duration
	// Token is sent as a bearer token when set.
	Token  string
	Logger logger.Logger
}

type Client struct {
	rc  *resty.Client
	log logger.Logger
}

func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("gateway: base url is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}

	rc := resty.New().
		SetBaseURL(base).
		SetTimeout(opts.Timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
	if opts.Token != "" {
		rc.SetAuthToken(opts.Token)
	}

	c := &Client{rc: rc, log: log.With(logger.String("component", "gateway"))}
	rc.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		c.log.Debug("remote call",
			logger.String("method", res.Request.Method),
			logger.String("url", res.Request.URL),
			logger.Int("status", res.StatusCode()),
			logger.Duration("elapsed", res.Time()),
		)
		return nil
	})
	return c, nil
}

// BaseURL is the configured remote store root.
func (c *Client) BaseURL() string { return c.rc.BaseURL }

type submitRequest struct {
	Jobs []domain.Record `json:"jobs"`
}

func (c *Client) Submit(ctx context.Context, batch []domain.Record) (domain.SubmitOutcome, error) {
	if batch == nil {
		batch = []domain.Record{}
	}
	var out domain.SubmitOutcome
	err := c.do(ctx, "submit", c.rc.R().SetBody(submitRequest{Jobs: batch}), "POST", pathSubmit, &out)
	return out, err
}

func (c *Client) Search(ctx context.Context, f domain.Filter) ([]domain.Record, error) {
	var out []domain.Record
	if err := c.do(ctx, "search", c.rc.R().SetBody(f.Normalize()), "POST", pathSearch, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Record{}
	}
	return out, nil
}

func (c *Client) Stats(ctx context.Context) (domain.Stats, error) {
	var out domain.Stats
	if err := c.do(ctx, "stats", c.rc.R(), "GET", pathStats, &out); err != nil {
		return domain.Stats{}, err
	}
	if out.JobsBySource == nil {
		out.JobsBySource = map[string]int{}
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, op string, req *resty.Request, method, path string, into any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := req.SetContext(ctx).Execute(method, path)
	if err != nil {
		return &RemoteUnavailableError{Op: op, Err: err}
	}
	if !res.IsSuccess() {
		return &RemoteUnavailableError{Op: op, Status: res.StatusCode(), Body: clip(res.String())}
	}
	if err := json.Unmarshal(res.Body(), into); err != nil {
		return &RemoteUnavailableError{Op: op, Status: res.StatusCode(), Body: clip(res.String()), Err: err}
	}
	return nil
}

func clip(s string) string {
	if len(s) > maxBodyInError {
		return s[:maxBodyInError]
	}
	return s
}
