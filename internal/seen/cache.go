// Package seen tracks sender ids that were already notified for a keyword
// hit, so repeat messages from the same sender stay quiet for a day.
package seen

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// ResetWindow is how long the cache keeps a sender before the daily wipe.
const ResetWindow = 24 * time.Hour

// Cache is a file-backed set of sender ids with a wall-clock reset window.
// The id set is the persisted invariant; the last-cleared timestamp is
// process-local, so a restart restarts the window without forgetting ids.
//
// Safe for concurrent use: the per-message writer and the janitor never
// interleave a load-then-save round trip.
type Cache struct {
	mu          sync.Mutex
	path        string
	ids         map[int64]struct{}
	lastCleared time.Time
}

// Open loads the persisted id set. A missing file starts an empty cache.
func Open(path string, now time.Time) (*Cache, error) {
	c := &Cache{
		path:        path,
		ids:         make(map[int64]struct{}),
		lastCleared: now,
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seen cache: %w", err)
	}

	var list []int64
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse seen cache: %w", err)
	}
	for _, id := range list {
		c.ids[id] = struct{}{}
	}
	return c, nil
}

// IsSeen reports whether the sender was already notified for a keyword hit.
func (c *Cache) IsSeen(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.ids[id]
	return ok
}

// MarkSeen records a sender and rewrites the persisted set.
func (c *Cache) MarkSeen(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.ids[id]; ok {
		return nil
	}
	c.ids[id] = struct{}{}
	return c.persistLocked()
}

// ResetIfExpired clears the set once the reset window has elapsed. It
// reports whether a wipe happened. It is the only writer of the reset
// timestamp.
func (c *Cache) ResetIfExpired(now time.Time) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if now.Sub(c.lastCleared) < ResetWindow {
		return false, nil
	}
	c.ids = make(map[int64]struct{})
	c.lastCleared = now
	if err := c.persistLocked(); err != nil {
		return true, err
	}
	return true, nil
}

// Len returns the number of cached senders.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ids)
}

func (c *Cache) persistLocked() error {
	list := make([]int64, 0, len(c.ids))
	for id := range c.ids {
		list = append(list, id)
	}
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("marshal seen cache: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0600); err != nil {
		return fmt.Errorf("write seen cache: %w", err)
	}
	return nil
}
