package navstate

import (
	"context"
	"encoding/json"
	"maps"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	DefaultMaxAge        = 30 * time.Minute
	DefaultSweepInterval = 15 * time.Minute
)

// PageState is what a list view remembers about itself: page, search and
// similar, keyed by name.
type PageState struct {
	Values  map[string]string `json:"values"`
	SavedAt time.Time         `json:"saved_at"`
}

// Cache holds per-page state and forgets entries older than a max age.
type Cache struct {
	mu      sync.RWMutex
	pages   map[string]PageState
	nowFunc func() time.Time
	logger  zerolog.Logger
}

type Option func(*Cache)

func WithNowFunc(now func() time.Time) Option {
	return func(c *Cache) {
		c.nowFunc = now
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Cache) {
		c.logger = l
	}
}

func New(options ...Option) *Cache {
	c := &Cache{
		pages:   make(map[string]PageState),
		nowFunc: time.Now,
		logger:  zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Save merges values into the page's state and restamps it.
func (c *Cache) Save(pageID string, values map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	merged := make(map[string]string, len(values))
	if prev, ok := c.pages[pageID]; ok {
		maps.Copy(merged, prev.Values)
	}
	maps.Copy(merged, values)
	c.pages[pageID] = PageState{Values: merged, SavedAt: c.nowFunc()}
}

// Get returns a copy of the page's state.
func (c *Cache) Get(pageID string) (PageState, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	st, ok := c.pages[pageID]
	if !ok {
		return PageState{}, false
	}
	return PageState{Values: maps.Clone(st.Values), SavedAt: st.SavedAt}, true
}

func (c *Cache) Clear(pageID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.pages, pageID)
}

// Sweep drops entries saved more than maxAge ago and returns how many went.
func (c *Cache) Sweep(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowFunc()
	removed := 0
	for id, st := range c.pages {
		if now.Sub(st.SavedAt) > maxAge {
			delete(c.pages, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (c *Cache) Run(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.Sweep(maxAge); n > 0 {
				c.logger.Debug().Int("removed", n).Msg("swept page state")
			}
		}
	}
}

// Load replaces the cache contents with a file written by WriteFile.
// A missing file leaves the cache empty.
func (c *Cache) Load(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "read page state")
	}
	pages := make(map[string]PageState)
	if err := json.Unmarshal(data, &pages); err != nil {
		return errors.Wrap(err, "parse page state")
	}
	if pages == nil {
		pages = make(map[string]PageState)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages = pages
	return nil
}

// WriteFile persists the cache so the next process can Load it.
func (c *Cache) WriteFile(path string) error {
	c.mu.RLock()
	data, err := json.MarshalIndent(c.pages, "", "  ")
	c.mu.RUnlock()
	if err != nil {
		return errors.Wrap(err, "encode page state")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.Wrap(err, "create page state dir")
	}
	return errors.Wrap(os.WriteFile(path, data, 0o600), "write page state")
}
