package sheets

import (
	"context"
	"sync"
	"time"

	"github.com/justsurfingit/Application-Tracker/internal/models"
)

// Cache memoizes Read for the dashboard. Writes through the tracker must
// call Invalidate. A zero ttl reads through every time.
type Cache struct {
	ws  Worksheet
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	sheet   *models.Sheet
	fetched time.Time
}

func NewCache(ws Worksheet, ttl time.Duration) *Cache {
	return &Cache{ws: ws, ttl: ttl, now: time.Now}
}

func (c *Cache) Read(ctx context.Context) (*models.Sheet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sheet != nil && c.now().Sub(c.fetched) < c.ttl {
		return c.sheet, nil
	}
	sheet, err := c.ws.Read(ctx)
	if err != nil {
		return nil, err
	}
	c.sheet, c.fetched = sheet, c.now()
	return sheet, nil
}

func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.sheet = nil
	c.mu.Unlock()
}
