// Package cache keeps the bucket listings served to HTTP clients and refreshes them in the background.
package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/terrycain/image-cache-server/pkg/gateway"
	"github.com/terrycain/image-cache-server/pkg/metrics"
	"github.com/terrycain/image-cache-server/pkg/s"
	"golang.org/x/sync/singleflight"
)

// Store owns the full listing and every folder listing requested so far. Listings are replaced whole and
// never mutated after being stored, so readers always get a complete snapshot.
type Store struct {
	gateway gateway.Gateway
	timeout time.Duration

	mu      sync.RWMutex
	full    []s.ObjectEntry
	folders map[string][]s.ObjectEntry

	inflight singleflight.Group
	wg       sync.WaitGroup
}

// NewStore returns an empty store. A refreshTimeout of 0 leaves backing store calls bounded only by their
// own transport timeouts.
func NewStore(gw gateway.Gateway, refreshTimeout time.Duration) *Store {
	return &Store{
		gateway: gw,
		timeout: refreshTimeout,
		full:    make([]s.ObjectEntry, 0),
		folders: make(map[string][]s.ObjectEntry),
	}
}

func (c *Store) list(ctx context.Context, scope, prefix string) ([]s.ObjectEntry, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	entries, err := c.gateway.ListAll(ctx, prefix)
	metrics.ObserveRefresh(scope, time.Since(start), err)
	return entries, err
}

// RefreshFull replaces the full listing. On failure the previous listing is kept.
func (c *Store) RefreshFull(ctx context.Context) error {
	entries, err := c.list(ctx, metrics.ScopeFull, "")
	if err != nil {
		log.Error().Err(err).Msg("Failed to refresh full listing, keeping cached copy")
		return err
	}
	if entries == nil {
		entries = make([]s.ObjectEntry, 0)
	}

	c.mu.Lock()
	c.full = entries
	c.mu.Unlock()

	metrics.SetEntries(metrics.ScopeFull, len(entries))
	log.Info().Int("count", len(entries)).Msg("Refreshed full listing")
	return nil
}

// RefreshFolder stores the listing of one folder. On failure an existing entry is kept and a missing one
// stays missing.
func (c *Store) RefreshFolder(ctx context.Context, name string) error {
	entries, err := c.list(ctx, metrics.ScopeFolder, name)
	if err != nil {
		log.Error().Err(err).Str("folder", name).Msg("Failed to refresh folder listing, keeping cached copy")
		return err
	}
	if entries == nil {
		entries = make([]s.ObjectEntry, 0)
	}

	c.mu.Lock()
	c.folders[name] = entries
	folderCount := len(c.folders)
	folderEntries := 0
	for _, listing := range c.folders {
		folderEntries += len(listing)
	}
	c.mu.Unlock()

	metrics.SetEntries(metrics.ScopeFolder, folderEntries)
	metrics.SetFolders(folderCount)
	log.Info().Str("folder", name).Int("count", len(entries)).Msg("Refreshed folder listing")
	return nil
}

// GetFull is empty until the first successful refresh.
func (c *Store) GetFull() []s.ObjectEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.full
}

// GetFolder reports false when the folder has never been listed successfully.
func (c *Store) GetFolder(name string) ([]s.ObjectEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entries, ok := c.folders[name]
	return entries, ok
}

// Folders returns a sorted snapshot of the known folder names.
func (c *Store) Folders() []string {
	c.mu.RLock()
	names := make([]string, 0, len(c.folders))
	for name := range c.folders {
		names = append(names, name)
	}
	c.mu.RUnlock()

	sort.Strings(names)
	return names
}

// TriggerFull refreshes the full listing in the background.
func (c *Store) TriggerFull() {
	c.dispatch("full", func(ctx context.Context) error {
		return c.RefreshFull(ctx)
	})
}

// TriggerFolder refreshes a folder in the background. Triggers for a folder that is already being listed
// share the running call.
func (c *Store) TriggerFolder(name string) {
	c.dispatch("folder:"+name, func(ctx context.Context) error {
		return c.RefreshFolder(ctx, name)
	})
}

func (c *Store) dispatch(key string, refresh func(ctx context.Context) error) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		// Errors are already logged by the refresh itself.
		_, _, _ = c.inflight.Do(key, func() (interface{}, error) {
			return nil, refresh(context.Background())
		})
	}()
}

// Wait blocks until every background refresh dispatched so far has finished.
func (c *Store) Wait() {
	c.wg.Wait()
}
