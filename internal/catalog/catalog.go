package catalog

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrUnknownPosting is returned when an operation references a posting id
// that was never discovered.
var ErrUnknownPosting = errors.New("unknown posting id")

// Catalog is an append-only store of discovered postings keyed by id.
type Catalog struct {
	mu    sync.RWMutex
	items map[string]*Posting
	order []string
}

func New() *Catalog {
	return &Catalog{
		items: make(map[string]*Posting),
	}
}

// Add inserts the given postings, assigning a generated id and a discovery
// timestamp to any posting missing them. It returns the stored postings.
func (c *Catalog) Add(postings []*Posting) []*Posting {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := make([]*Posting, 0, len(postings))
	for _, p := range postings {
		posting := *p
		if posting.ID == "" {
			posting.ID = uuid.NewString()
		}
		if posting.DiscoveredAt.IsZero() {
			posting.DiscoveredAt = time.Now().UTC()
		}

		if _, exists := c.items[posting.ID]; !exists {
			c.order = append(c.order, posting.ID)
		}
		c.items[posting.ID] = &posting

		snapshot := posting
		stored = append(stored, &snapshot)
	}

	return stored
}

// Get returns a copy of the posting with the given id.
func (c *Catalog) Get(id string) (*Posting, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	posting, ok := c.items[id]
	if !ok {
		return nil, ErrUnknownPosting
	}

	snapshot := *posting
	return &snapshot, nil
}

// List returns all postings in discovery order.
func (c *Catalog) List() []*Posting {
	c.mu.RLock()
	defer c.mu.RUnlock()

	postings := make([]*Posting, 0, len(c.order))
	for _, id := range c.order {
		snapshot := *c.items[id]
		postings = append(postings, &snapshot)
	}
	return postings
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
