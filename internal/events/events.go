// Package events fans engine notifications out to SSE subscribers.
package events

import (
	"encoding/json"
	"time"
)

const Version = 1

const (
	TypeOffersMerged   = "offers_merged"
	TypeScrapeFailed   = "scrape_failed"
	TypeSearchDegraded = "search_degraded"
	TypeStatsDegraded  = "stats_degraded"
)

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

type OffersMerged struct {
	Source     string `json:"source"`
	Extracted  int    `json:"extracted"`
	Inserted   int    `json:"inserted"`
	Duplicates int    `json:"duplicates"`
	Total      int    `json:"total"`
	Submitted  bool   `json:"submitted"`
}

type ScrapeFailed struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// Degraded is published when a query was answered from the local cache.
type Degraded struct {
	Op     string `json:"op"`
	Reason string `json:"reason"`
	Served int    `json:"served"`
}

// Publisher is what producers depend on; *Hub satisfies it.
type Publisher interface {
	Publish(evt string)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string) {}

// Nop discards everything.
func Nop() Publisher { return nopPublisher{} }

func MakeEvent(reqID, typ string, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:      typ,
		Version:   Version,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}

// Emit builds and publishes in one step.
func Emit(p Publisher, reqID, typ string, data any) {
	if p == nil {
		return
	}
	p.Publish(MakeEvent(reqID, typ, data))
}
