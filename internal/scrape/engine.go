package scrape

import (
	"regexp"
	"strings"
	"time"

	"offersearch-engine/internal/domain"
	"offersearch-engine/internal/identity"
	"offersearch-engine/internal/logger"
	"offersearch-engine/internal/scrape/page"
	"offersearch-engine/internal/scrape/util"
)

// Engine turns one rendered page of a specific source into Records.
type Engine interface {
	Source() domain.Source
	Name() string
	CanHandle(pageURL string) bool
	Extract(q page.Query) ([]domain.Record, error)
}

// Profile is everything source-specific about extraction.
type Profile struct {
	Source        domain.Source
	Name          string
	Handles       func(pageURL string) bool
	Selectors     SelectorSet
	NativeIDAttr  string
	URLIDPatterns []*regexp.Regexp
}

// ScrapedAtLayout matches the millisecond ISO-8601 form browsers produce.
const ScrapedAtLayout = "2006-01-02T15:04:05.000Z07:00"

// Pipeline is the single extraction pipeline, parameterized per source.
type Pipeline struct {
	profile Profile
	now     identity.Clock
	random  identity.RandomString
	ids     *identity.Deriver
	log     logger.Logger
}

type Option func(*Pipeline)

func WithClock(now identity.Clock) Option {
	return func(p *Pipeline) { p.now = now }
}

func WithRandom(r identity.RandomString) Option {
	return func(p *Pipeline) { p.random = r }
}

func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithSelectors overrides selector groups, typically from config.
func WithSelectors(o SelectorSet) Option {
	return func(p *Pipeline) { p.profile.Selectors = p.profile.Selectors.Override(o) }
}

func NewPipeline(profile Profile, opts ...Option) *Pipeline {
	p := &Pipeline{
		profile: profile,
		now:     time.Now,
		random:  identity.Base36,
		log:     logger.NewNop(),
	}
	for _, o := range opts {
		o(p)
	}
	p.log = p.log.With(logger.String("source", string(profile.Source)))
	p.ids = identity.ForSource(profile.NativeIDAttr, profile.URLIDPatterns, identity.Synthetic{
		Now:    p.now,
		Random: p.random,
	})
	return p
}

func (p *Pipeline) Source() domain.Source { return p.profile.Source }

func (p *Pipeline) Name() string { return p.profile.Name }

func (p *Pipeline) Selectors() SelectorSet { return p.profile.Selectors }

func (p *Pipeline) CanHandle(pageURL string) bool {
	return p.profile.Handles != nil && p.profile.Handles(pageURL)
}

// Extract is one synchronous pass over the current snapshot. Containers
// without a link or a title are skipped; host failures abort the pass.
func (p *Pipeline) Extract(q page.Query) ([]domain.Record, error) {
	sel := p.profile.Selectors

	cards, used, err := FirstMatchAll(q, sel.Container)
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		p.log.Info("no job cards found")
		return []domain.Record{}, nil
	}
	p.log.Debug("job cards detected", logger.String("selector", used), logger.Int("cards", len(cards)))

	pageURL := ""
	if u, ok := q.(interface{ URL() string }); ok {
		pageURL = u.URL()
	}
	scrapedAt := p.now().UTC().Format(ScrapedAtLayout)

	out := make([]domain.Record, 0, len(cards))
	for _, card := range cards {
		rec, ok, err := p.extractCard(card, pageURL, scrapedAt)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, rec)
		}
	}

	p.log.Info("offers extracted", logger.Int("cards", len(cards)), logger.Int("records", len(out)))
	return out, nil
}

func (p *Pipeline) extractCard(card page.Element, pageURL, scrapedAt string) (domain.Record, bool, error) {
	sel := p.profile.Selectors

	link, err := FirstMatchIn(card, sel.Link, hasHref)
	if err != nil {
		return domain.Record{}, false, err
	}
	if link == nil {
		p.log.Debug("card skipped: no link")
		return domain.Record{}, false, nil
	}
	href, _ := link.Attr("href")
	href = util.ResolveHref(pageURL, href)

	title, err := FirstText(card, sel.Title)
	if err != nil {
		return domain.Record{}, false, err
	}
	if title == "" {
		p.log.Debug("card skipped: no title", logger.String("url", href))
		return domain.Record{}, false, nil
	}

	company, err := FirstText(card, sel.Company)
	if err != nil {
		return domain.Record{}, false, err
	}
	location, err := FirstText(card, sel.Location)
	if err != nil {
		return domain.Record{}, false, err
	}
	description, err := FirstText(card, sel.Description)
	if err != nil {
		return domain.Record{}, false, err
	}
	posted, err := p.postedDate(card)
	if err != nil {
		return domain.Record{}, false, err
	}

	d := p.ids.Derive(identity.Candidate{Source: p.profile.Source, Container: card, Link: href})
	if !d.Stable {
		p.log.Debug("synthetic id assigned", logger.String("id", d.ID), logger.String("url", href))
	}

	rec := domain.Record{
		ID:          d.ID,
		Title:       title,
		Company:     util.OrDefault(company, domain.CompanyUnspecified),
		Location:    util.OrDefault(location, domain.LocationUnspecified),
		URL:         util.StripQuery(href),
		PostedDate:  posted,
		Description: description,
		Source:      p.profile.Source,
		ScrapedAt:   scrapedAt,
	}
	if !rec.Valid() {
		return domain.Record{}, false, nil
	}
	p.log.Debug("offer found", logger.String("title", rec.Title), logger.String("id", rec.ID))
	return rec, true, nil
}

// postedDate prefers the machine-readable datetime attribute, then the text.
func (p *Pipeline) postedDate(card page.Element) (string, error) {
	el, err := FirstMatchIn(card, p.profile.Selectors.Date, func(e page.Element) bool {
		if v, ok := e.Attr("datetime"); ok && strings.TrimSpace(v) != "" {
			return true
		}
		return hasText(e)
	})
	if err != nil || el == nil {
		return domain.DateUnknown, err
	}
	if v, ok := el.Attr("datetime"); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v), nil
	}
	return util.OrDefault(el.Text(), domain.DateUnknown), nil
}
