// Package groupcache answers "what is this group called and who is in it"
// without hammering the WhatsApp servers: a TTL'd in-memory cache backed by
// a rate-limit-aware fetch and a best-effort disk snapshot.
package groupcache

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/noamelf/whatsapp-me/internal/fsstore"
	"github.com/noamelf/whatsapp-me/internal/retryutil"
)

const (
	groupCacheFileVersion = 1

	DefaultTTL           = 30 * time.Minute
	DefaultMaxDiskAge    = 24 * time.Hour
	DefaultFetchAttempts = 3
	DefaultBackoffBase   = 2 * time.Second
)

type Participant struct {
	JID     string `json:"jid"`
	IsAdmin bool   `json:"is_admin,omitempty"`
}

// Descriptor is an immutable snapshot of a group's metadata. Refreshes
// replace it wholesale; nothing patches a cached descriptor in place.
type Descriptor struct {
	ID           string        `json:"id"`
	DisplayName  string        `json:"display_name"`
	Participants []Participant `json:"participants,omitempty"`
	FetchedAt    time.Time     `json:"fetched_at"`
}

// Fetcher is the upstream protocol call. A rate-limited fetch must return
// an error recognized by the cache's IsRateLimit predicate.
type Fetcher interface {
	FetchGroup(ctx context.Context, groupID string) (Descriptor, error)
}

type Options struct {
	Path          string
	TTL           time.Duration
	MaxDiskAge    time.Duration
	FetchAttempts int
	BackoffBase   time.Duration
	// IsRateLimit classifies fetch errors; only matching errors are
	// retried with backoff. Others are treated as "group not found".
	IsRateLimit func(error) bool
}

type cachedEntry struct {
	desc     Descriptor
	cachedAt time.Time
}

type persistedEntry struct {
	Data    Descriptor `json:"data"`
	SavedAt time.Time  `json:"saved_at"`
}

type groupCacheFile struct {
	Version int                       `json:"version"`
	Groups  map[string]persistedEntry `json:"groups"`
}

type Cache struct {
	fetcher Fetcher
	logger  *slog.Logger
	opts    Options

	mu      sync.Mutex
	entries map[string]cachedEntry
	now     func() time.Time
}

func New(fetcher Fetcher, logger *slog.Logger, opts Options) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MaxDiskAge <= 0 {
		opts.MaxDiskAge = DefaultMaxDiskAge
	}
	if opts.FetchAttempts <= 0 {
		opts.FetchAttempts = DefaultFetchAttempts
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = DefaultBackoffBase
	}
	return &Cache{
		fetcher: fetcher,
		logger:  logger,
		opts:    opts,
		entries: make(map[string]cachedEntry),
		now:     time.Now,
	}
}

// Get returns the group's descriptor, fetching on a miss or an expired
// entry. A false result is non-fatal: callers fall back to the bare JID.
func (c *Cache) Get(ctx context.Context, groupID string) (Descriptor, bool) {
	return c.FetchWithRetry(ctx, groupID)
}

func (c *Cache) lookup(groupID string) (Descriptor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[groupID]
	if !ok {
		return Descriptor{}, false
	}
	if c.now().Sub(entry.cachedAt) > c.opts.TTL {
		delete(c.entries, groupID)
		return Descriptor{}, false
	}
	return entry.desc, true
}

func (c *Cache) storeEntry(desc Descriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[desc.ID] = cachedEntry{desc: desc, cachedAt: c.now()}
}

// FetchWithRetry checks the cache first, then fetches upstream. Rate-limit
// errors back off exponentially (2s, 4s, ...) up to the attempt budget;
// anything else fails immediately. Exhausting the budget is logged and hands
// back "not found" — a missing display name never blocks a message.
func (c *Cache) FetchWithRetry(ctx context.Context, groupID string) (Descriptor, bool) {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return Descriptor{}, false
	}
	if desc, ok := c.lookup(groupID); ok {
		return desc, true
	}

	var fetched Descriptor
	err := retryutil.Backoff(ctx, c.logger, "group_fetch", c.opts.FetchAttempts, c.opts.BackoffBase,
		c.opts.IsRateLimit,
		func(ctx context.Context) error {
			desc, err := c.fetcher.FetchGroup(ctx, groupID)
			if err != nil {
				return err
			}
			fetched = desc
			return nil
		})
	if err != nil {
		if c.opts.IsRateLimit != nil && c.opts.IsRateLimit(err) {
			c.logger.Warn("group_fetch_rate_limited", "group_id", groupID, "attempts", c.opts.FetchAttempts)
		} else {
			c.logger.Warn("group_fetch_failed", "group_id", groupID, "error", err.Error())
		}
		return Descriptor{}, false
	}

	fetched.ID = groupID
	if fetched.FetchedAt.IsZero() {
		fetched.FetchedAt = c.now().UTC()
	}
	c.storeEntry(fetched)
	return fetched, true
}

// Invalidate drops the cached entry and re-fetches. Group-update
// notifications carry partial payloads, so the cache never trusts them;
// re-fetching keeps the descriptor consistent with the server.
func (c *Cache) Invalidate(ctx context.Context, groupID string) {
	c.mu.Lock()
	delete(c.entries, groupID)
	c.mu.Unlock()

	if _, ok := c.FetchWithRetry(ctx, groupID); !ok {
		c.logger.Warn("group_refresh_failed", "group_id", groupID)
	}
}

// Persist snapshots the in-memory entries and writes them out. The snapshot
// is taken under the lock and written outside it, so concurrent updates are
// never blocked on disk I/O; an entry added mid-write just waits for the
// next cycle.
func (c *Cache) Persist() error {
	now := c.now().UTC()

	c.mu.Lock()
	groups := make(map[string]persistedEntry, len(c.entries))
	for id, entry := range c.entries {
		groups[id] = persistedEntry{Data: entry.desc, SavedAt: now}
	}
	c.mu.Unlock()

	return fsstore.WriteJSONAtomic(c.opts.Path, groupCacheFile{
		Version: groupCacheFileVersion,
		Groups:  groups,
	}, fsstore.FileOptions{})
}

// Restore loads the disk snapshot, discarding entries saved more than
// MaxDiskAge ago. Survivors restart their TTL from load time. Missing or
// corrupt files start an empty cache.
func (c *Cache) Restore() {
	var file groupCacheFile
	ok, err := fsstore.ReadJSON(c.opts.Path, &file)
	if err != nil {
		c.logger.Warn("group_cache_restore_failed", "path", c.opts.Path, "error", err.Error())
		return
	}
	if !ok {
		return
	}

	now := c.now()
	loaded := 0

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, entry := range file.Groups {
		if now.Sub(entry.SavedAt) > c.opts.MaxDiskAge {
			continue
		}
		desc := entry.Data
		if strings.TrimSpace(desc.ID) == "" {
			desc.ID = id
		}
		c.entries[id] = cachedEntry{desc: desc, cachedAt: now}
		loaded++
	}
	c.logger.Info("group_cache_restored", "loaded", loaded, "skipped", len(file.Groups)-loaded)
}

// Size reports the number of in-memory entries, expired or not.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
