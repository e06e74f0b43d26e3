package scrape

import (
	"offersearch-engine/internal/scrape/page"
	"offersearch-engine/internal/scrape/util"
)

// Candidates is an ordered selector group, most specific first, generic tags last.
type Candidates []string

// SelectorSet is the declarative extraction data for one source.
type SelectorSet struct {
	Container   Candidates `yaml:"container"`
	Link        Candidates `yaml:"link"`
	Title       Candidates `yaml:"title"`
	Company     Candidates `yaml:"company"`
	Location    Candidates `yaml:"location"`
	Date        Candidates `yaml:"date"`
	Description Candidates `yaml:"description"`
}

// Override replaces every group that o sets; empty groups keep the defaults.
func (s SelectorSet) Override(o SelectorSet) SelectorSet {
	pick := func(def, over Candidates) Candidates {
		if len(over) > 0 {
			return over
		}
		return def
	}
	return SelectorSet{
		Container:   pick(s.Container, o.Container),
		Link:        pick(s.Link, o.Link),
		Title:       pick(s.Title, o.Title),
		Company:     pick(s.Company, o.Company),
		Location:    pick(s.Location, o.Location),
		Date:        pick(s.Date, o.Date),
		Description: pick(s.Description, o.Description),
	}
}

// FirstMatchAll adopts the first candidate that yields at least one element.
// Later candidates are never evaluated once one matches.
func FirstMatchAll(q page.Query, c Candidates) ([]page.Element, string, error) {
	for _, sel := range c {
		found, err := q.All(sel)
		if err != nil {
			return nil, sel, &HostQueryError{Selector: sel, Err: err}
		}
		if len(found) > 0 {
			return found, sel, nil
		}
	}
	return nil, "", nil
}

// FirstMatchIn resolves a field against one container using accept to decide
// whether a match counts. A nil accept takes any match.
func FirstMatchIn(el page.Element, c Candidates, accept func(page.Element) bool) (page.Element, error) {
	for _, sel := range c {
		found, err := el.First(sel)
		if err != nil {
			return nil, &HostQueryError{Selector: sel, Err: err}
		}
		if found == nil {
			continue
		}
		if accept == nil || accept(found) {
			return found, nil
		}
	}
	return nil, nil
}

// FirstText returns the cleaned text of the first candidate with non-empty text.
func FirstText(el page.Element, c Candidates) (string, error) {
	found, err := FirstMatchIn(el, c, hasText)
	if err != nil || found == nil {
		return "", err
	}
	return util.CleanText(found.Text()), nil
}

func hasText(e page.Element) bool {
	return util.CleanText(e.Text()) != ""
}

func hasHref(e page.Element) bool {
	href, ok := e.Attr("href")
	return ok && util.StripQuery(href) != ""
}
