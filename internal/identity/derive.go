// Package identity derives stable record identifiers and merges record sets
// collected across independent extraction runs.
package identity

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"offersearch-engine/internal/domain"
	"offersearch-engine/internal/scrape/page"
)

// Candidate is what a strategy may look at for one matched container.
type Candidate struct {
	Source    domain.Source
	Container page.Element
	Link      string
}

// Strategy returns ok=false when it cannot produce an id for the candidate.
type Strategy interface {
	Name() string
	Derive(c Candidate) (id string, ok bool)
}

type Derivation struct {
	ID       string
	Strategy string
	// Stable is false for synthetic ids: re-scraping the same posting yields a new one.
	Stable bool
}

// NativeAttr reads a source-native identifier attribute off the container.
type NativeAttr struct {
	Attr string
}

func (n NativeAttr) Name() string { return "native:" + n.Attr }

func (n NativeAttr) Derive(c Candidate) (string, bool) {
	if n.Attr == "" || c.Container == nil {
		return "", false
	}
	v, ok := c.Container.Attr(n.Attr)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// URLPattern tries each known URL shape in order; the first capture group wins.
type URLPattern struct {
	Patterns []*regexp.Regexp
}

func (u URLPattern) Name() string { return "url" }

func (u URLPattern) Derive(c Candidate) (string, bool) {
	for _, re := range u.Patterns {
		if m := re.FindStringSubmatch(c.Link); len(m) >= 2 && m[1] != "" {
			return m[1], true
		}
	}
	return "", false
}

type Clock func() time.Time

type RandomString func(n int) string

// Synthetic always succeeds: <source>-<unix millis>-<9 char base36>.
type Synthetic struct {
	Now    Clock
	Random RandomString
}

func (s Synthetic) Name() string { return "synthetic" }

func (s Synthetic) Derive(c Candidate) (string, bool) {
	now := s.Now
	if now == nil {
		now = time.Now
	}
	rnd := s.Random
	if rnd == nil {
		rnd = Base36
	}
	return fmt.Sprintf("%s-%d-%s", c.Source, now().UnixMilli(), rnd(9)), true
}

// Deriver runs its strategies in priority order.
type Deriver struct {
	chain []Strategy
}

func NewDeriver(chain ...Strategy) *Deriver {
	return &Deriver{chain: chain}
}

// ForSource builds the standard chain: native attribute, URL patterns, synthetic.
func ForSource(nativeAttr string, patterns []*regexp.Regexp, synth Synthetic) *Deriver {
	return NewDeriver(NativeAttr{Attr: nativeAttr}, URLPattern{Patterns: patterns}, synth)
}

func (d *Deriver) Derive(c Candidate) Derivation {
	for _, s := range d.chain {
		if id, ok := s.Derive(c); ok {
			_, synthetic := s.(Synthetic)
			return Derivation{ID: id, Strategy: s.Name(), Stable: !synthetic}
		}
	}
	// chain without a synthetic tail
	id, _ := Synthetic{}.Derive(c)
	return Derivation{ID: id, Strategy: "synthetic", Stable: false}
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// Base36 is the default RandomString.
func Base36(n int) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(base36)))
	for i := range b {
		v, err := rand.Int(rand.Reader, max)
		if err != nil {
			b[i] = '0'
			continue
		}
		b[i] = base36[v.Int64()]
	}
	return string(b)
}
