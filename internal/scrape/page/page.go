// Package page is the host side of the page-query capability: the engines
// only ever see the Query and Element interfaces, never a live document.
package page

import (
	"fmt"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Query evaluates a selector against the whole rendered page.
type Query interface {
	All(selector string) ([]Element, error)
}

// Element is one matched node. First returns (nil, nil) when nothing matches.
type Element interface {
	First(selector string) (Element, error)
	Text() string
	Attr(name string) (string, bool)
}

// Document adapts a parsed goquery document to Query.
type Document struct {
	doc *goquery.Document
	url string
}

func NewDocument(doc *goquery.Document, pageURL string) *Document {
	return &Document{doc: doc, url: pageURL}
}

// URL is the page identifier the snapshot was taken from, if known.
func (d *Document) URL() string { return d.url }

func (d *Document) All(selector string) ([]Element, error) {
	m, err := compile(selector)
	if err != nil {
		return nil, err
	}
	found := d.doc.FindMatcher(m)
	out := make([]Element, 0, found.Length())
	found.Each(func(_ int, s *goquery.Selection) {
		out = append(out, node{sel: s})
	})
	return out, nil
}

type node struct {
	sel *goquery.Selection
}

func (n node) First(selector string) (Element, error) {
	m, err := compile(selector)
	if err != nil {
		return nil, err
	}
	found := n.sel.FindMatcher(m).First()
	if found.Length() == 0 {
		return nil, nil
	}
	return node{sel: found}, nil
}

func (n node) Text() string { return n.sel.Text() }

func (n node) Attr(name string) (string, bool) { return n.sel.Attr(name) }

var (
	cacheMu  sync.Mutex
	compiled = map[string]cascadia.Selector{}
)

// compile validates the selector up front; goquery alone would silently
// match nothing on a malformed selector.
func compile(selector string) (cascadia.Selector, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	if s, ok := compiled[selector]; ok {
		return s, nil
	}
	s, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("compile selector %q: %w", selector, err)
	}
	compiled[selector] = s
	return s, nil
}
