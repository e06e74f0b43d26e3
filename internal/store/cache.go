package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"offersearch-engine/internal/domain"
	"offersearch-engine/internal/identity"
	"offersearch-engine/internal/logger"
	"offersearch-engine/internal/search"
)

// Cache is the process-wide accumulated record set. Merge is the critical
// section; persistence only happens on an explicit Save.
type Cache struct {
	kv  KV
	log logger.Logger
	now func() time.Time

	mu         sync.Mutex
	records    []domain.Record
	lastUpdate time.Time
	// gen counts merges; the offer index answers queries only while
	// indexedGen == gen.
	gen        uint64
	indexedGen uint64

	saveMu sync.Mutex
}

func NewCache(kv KV, log logger.Logger) *Cache {
	if log == nil {
		log = logger.NewNop()
	}
	// gen starts ahead of indexedGen: the index is not trusted before Load or Save.
	return &Cache{kv: kv, log: log.With(logger.String("component", "cache")), now: time.Now, gen: 1}
}

// Load replaces the in-memory set with the persisted one. Missing keys mean
// an empty set.
func (c *Cache) Load(ctx context.Context) error {
	raw, ok, err := c.kv.Get(ctx, KeyOffers)
	if err != nil {
		return fmt.Errorf("load %s: %w", KeyOffers, err)
	}
	records := []domain.Record{}
	if ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &records); err != nil {
			return fmt.Errorf("decode %s: %w", KeyOffers, err)
		}
	}

	var last time.Time
	if v, ok, err := c.kv.Get(ctx, KeyLastUpdate); err != nil {
		return fmt.Errorf("load %s: %w", KeyLastUpdate, err)
	} else if ok && v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.log.Warn("stored last update is unreadable, treating it as unknown",
				logger.String("value", v), logger.Err(err))
		}
		last = t
	}

	c.mu.Lock()
	c.records = records
	c.lastUpdate = last
	c.gen++
	if _, ok := c.kv.(stateWriter); ok {
		c.indexedGen = c.gen
	}
	c.mu.Unlock()

	c.log.Debug("state loaded", logger.Int("offers", len(records)))
	return nil
}

// Merge folds batch into the accumulated set (last write wins).
func (c *Cache) Merge(batch []domain.Record) identity.MergeOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	merged, out := identity.Merge(c.records, batch)
	c.records = merged
	c.lastUpdate = c.now().UTC()
	c.gen++
	return out
}

// Save persists offers, lastUpdate and total together. Backends with an
// offer index get it rewritten in the same transaction.
func (c *Cache) Save(ctx context.Context) error {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.mu.Lock()
	records := make([]domain.Record, len(c.records))
	copy(records, c.records)
	last, gen := c.lastUpdate, c.gen
	c.mu.Unlock()

	payload, err := json.Marshal(records)
	if err != nil {
		return err
	}
	lastStr := ""
	if !last.IsZero() {
		lastStr = last.Format(time.RFC3339)
	}
	pairs := map[string]string{
		KeyOffers:     string(payload),
		KeyLastUpdate: lastStr,
		KeyTotal:      strconv.Itoa(len(records)),
	}

	if w, ok := c.kv.(stateWriter); ok {
		if err := w.SaveState(ctx, pairs, records); err != nil {
			return fmt.Errorf("save state: %w", err)
		}
		c.mu.Lock()
		c.indexedGen = gen
		c.mu.Unlock()
	} else if err := c.kv.SetMany(ctx, pairs); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	c.log.Debug("state saved", logger.Int("offers", len(records)))
	return nil
}

// index returns the backend's offer index when it reflects the current set.
func (c *Cache) index() (OfferIndex, bool) {
	idx, ok := c.kv.(OfferIndex)
	if !ok {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return idx, c.indexedGen == c.gen
}

// Search filters the accumulated set, through the offer index when it is up
// to date and in memory otherwise.
func (c *Cache) Search(ctx context.Context, f domain.Filter) []domain.Record {
	if idx, ok := c.index(); ok {
		recs, err := idx.Search(ctx, f)
		if err == nil {
			return recs
		}
		c.log.Warn("offer index search failed, filtering in memory", logger.Err(err))
	}
	return search.Apply(c.Snapshot(), f)
}

// Stats summarizes the accumulated set the same way Search reads it.
func (c *Cache) Stats(ctx context.Context) domain.Stats {
	if idx, ok := c.index(); ok {
		st, err := idx.Stats(ctx)
		if err == nil {
			return st
		}
		c.log.Warn("offer index stats failed, computing in memory", logger.Err(err))
	}
	return search.ComputeStats(c.Snapshot())
}

// MergeAndSave is the usual post-extraction step.
func (c *Cache) MergeAndSave(ctx context.Context, batch []domain.Record) (identity.MergeOutcome, error) {
	out := c.Merge(batch)
	return out, c.Save(ctx)
}

// Snapshot returns a copy safe to read without the lock.
func (c *Cache) Snapshot() []domain.Record {
	r, _ := c.snapshot()
	return r
}

func (c *Cache) LastUpdate() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUpdate
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

func (c *Cache) snapshot() ([]domain.Record, time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Record, len(c.records))
	copy(out, c.records)
	return out, c.lastUpdate
}
