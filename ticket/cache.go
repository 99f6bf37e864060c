package ticket

import (
	"context"
	"encoding/json"
	"log/slog"
	"qr-checkin/common/constant"
	"qr-checkin/model"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
)

// Cache keeps the ticket collection in memory for lock-free reads and mirrors
// every mutation to a single redis key as a JSON array. A mutation is durable
// before the call returns, so the in-memory state and the stored copy never
// observably diverge.
type Cache struct {
	store *redis.Client
	key   string

	mu       sync.Mutex
	snapshot atomic.Pointer[[]model.TicketRecord]
}

func NewCache(store *redis.Client) *Cache {
	c := &Cache{store: store, key: constant.TicketCacheKey}

	empty := make([]model.TicketRecord, 0)
	c.snapshot.Store(&empty)

	return c
}

// Load hydrates the collection from the durable copy. An absent or corrupt
// copy yields an empty collection, not an error.
func (c *Cache) Load(ctx context.Context) {
	data, err := c.store.Get(ctx, c.key).Result()
	if err != nil {
		if err != redis.Nil {
			slog.WarnContext(ctx, "ticket cache read failed, starting empty", slog.Any(constant.LogFieldErr, err))
		}
		return
	}

	var records []model.TicketRecord
	if err := json.Unmarshal([]byte(data), &records); err != nil {
		slog.WarnContext(ctx, "ticket cache corrupt, starting empty", slog.Any(constant.LogFieldErr, err))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.snapshot.Store(&records)
}

// ReplaceAll swaps in a freshly fetched collection and persists it. Duplicate
// ticket numbers collapse to the last record seen.
func (c *Cache) ReplaceAll(ctx context.Context, records []model.TicketRecord) error {
	deduped := make([]model.TicketRecord, 0, len(records))
	seen := make(map[string]int, len(records))

	for _, rec := range records {
		if i, ok := seen[rec.TicketNumber]; ok {
			deduped[i] = rec
			continue
		}
		seen[rec.TicketNumber] = len(deduped)
		deduped = append(deduped, rec)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.persist(ctx, deduped); err != nil {
		return err
	}

	c.snapshot.Store(&deduped)

	return nil
}

// LookupExact is a case-sensitive match on the full ticket number.
func (c *Cache) LookupExact(number string) (model.TicketRecord, bool) {
	for _, rec := range c.records() {
		if rec.TicketNumber == number {
			return rec, true
		}
	}

	return model.TicketRecord{}, false
}

// LookupSuffix returns every record whose ticket number ends with the given
// partial, case-insensitively. Disambiguation is the caller's job.
func (c *Cache) LookupSuffix(partial string) []model.TicketRecord {
	suffix := strings.ToLower(partial)

	var matches []model.TicketRecord
	for _, rec := range c.records() {
		if strings.HasSuffix(strings.ToLower(rec.TicketNumber), suffix) {
			matches = append(matches, rec)
		}
	}

	return matches
}

// UpdateEntryStatus rewrites the cached record's entry status and persists the
// whole collection. An unknown ticket number is a no-op, not an error.
func (c *Cache) UpdateEntryStatus(ctx context.Context, number, newStatus string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.records()
	updated := make([]model.TicketRecord, len(current))
	copy(updated, current)

	found := false
	for i := range updated {
		if updated[i].TicketNumber == number {
			updated[i].EntryStatus = newStatus
			found = true
		}
	}

	if !found {
		return nil
	}

	if err := c.persist(ctx, updated); err != nil {
		return err
	}

	c.snapshot.Store(&updated)

	return nil
}

func (c *Cache) Len() int {
	return len(c.records())
}

func (c *Cache) persist(ctx context.Context, records []model.TicketRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return err
	}

	return c.store.Set(ctx, c.key, string(data), 0).Err()
}

func (c *Cache) records() []model.TicketRecord {
	return *c.snapshot.Load()
}
