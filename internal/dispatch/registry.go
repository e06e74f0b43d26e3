// Package dispatch picks the extraction engine for a page and runs one
// scrape cycle against it.
package dispatch

import (
	"fmt"
	"strings"

	"offersearch-engine/internal/scrape"
)

// UnsupportedSourceError means no registered engine claims the page.
type UnsupportedSourceError struct {
	URL   string
	Known []string
}

func (e *UnsupportedSourceError) Error() string {
	return fmt.Sprintf("no engine handles %q (supported: %s)", e.URL, strings.Join(e.Known, ", "))
}

// Registry is built once at startup. Engines are tried in registration order,
// so the first registered wins when two claim the same page.
type Registry struct {
	engines []scrape.Engine
}

func NewRegistry(engines ...scrape.Engine) *Registry {
	r := &Registry{}
	for _, e := range engines {
		r.Register(e)
	}
	return r
}

func (r *Registry) Register(e scrape.Engine) {
	if e == nil {
		return
	}
	r.engines = append(r.engines, e)
}

func (r *Registry) Dispatch(pageURL string) (scrape.Engine, error) {
	for _, e := range r.engines {
		if e.CanHandle(pageURL) {
			return e, nil
		}
	}
	return nil, &UnsupportedSourceError{URL: pageURL, Known: r.Sources()}
}

// Sources lists display names in registration order.
func (r *Registry) Sources() []string {
	out := make([]string, 0, len(r.engines))
	for _, e := range r.engines {
		out = append(out, e.Name())
	}
	return out
}

func (r *Registry) Engines() []scrape.Engine {
	out := make([]scrape.Engine, len(r.engines))
	copy(out, r.engines)
	return out
}
