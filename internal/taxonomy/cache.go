// Package taxonomy holds the read-through cache over the issue category and
// issue option reference tables.
package taxonomy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// DefaultLoadTimeout bounds a single taxonomy load.
const DefaultLoadTimeout = 15 * time.Second

// ErrEmptyTaxonomy is returned when the reference tables hold no categories.
var ErrEmptyTaxonomy = errors.New("issue taxonomy is empty")

// Option is a selectable value within a category.
type Option struct {
	Name         string    `json:"name"`
	DisplayOrder int       `json:"displayOrder"`
	ID           uuid.UUID `json:"id"`
}

// Category is an issue category with its options in display order.
type Category struct {
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Options      []Option  `json:"options"`
	DisplayOrder int       `json:"displayOrder"`
	ID           uuid.UUID `json:"id"`
}

// Loader reads the full taxonomy from storage.
type Loader interface {
	LoadTaxonomy(ctx context.Context) ([]Category, error)
}

type optionKey struct {
	code   string
	option string
}

// Cache resolves (category code, option name) pairs to option ids. It is
// built once at startup, loads on first use if it was not warmed, and is only
// reloaded by Refresh or, when a TTL is set, after it expires.
type Cache struct {
	loader      Loader
	ttl         time.Duration
	loadTimeout time.Duration
	now         func() time.Time

	group singleflight.Group

	mu         sync.RWMutex
	categories []Category
	index      map[optionKey]uuid.UUID
	loadedAt   time.Time
}

// NewCache creates a cache over loader. A zero ttl never expires.
func NewCache(loader Loader, ttl time.Duration) *Cache {
	return &Cache{
		loader:      loader,
		ttl:         ttl,
		loadTimeout: DefaultLoadTimeout,
		now:         time.Now,
	}
}

// Refresh reloads the taxonomy unconditionally.
func (c *Cache) Refresh(ctx context.Context) error {
	_, err, _ := c.group.Do("refresh", func() (interface{}, error) {
		return nil, c.load(ctx)
	})
	return err
}

// load is shared by every caller waiting on the same flight, so it is
// detached from the first caller's cancellation and bounded by loadTimeout.
func (c *Cache) load(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
	defer cancel()

	categories, err := c.loader.LoadTaxonomy(ctx)
	if err != nil {
		return fmt.Errorf("failed to load issue taxonomy: %w", err)
	}
	if len(categories) == 0 {
		return ErrEmptyTaxonomy
	}

	index := make(map[optionKey]uuid.UUID)
	for _, cat := range categories {
		for _, opt := range cat.Options {
			index[optionKey{code: cat.Code, option: opt.Name}] = opt.ID
		}
	}

	c.mu.Lock()
	c.categories = categories
	c.index = index
	c.loadedAt = c.now()
	c.mu.Unlock()

	return nil
}

// Loaded reports whether the cache holds a taxonomy.
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index != nil
}

func (c *Cache) fresh() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.index == nil {
		return false
	}
	return c.ttl == 0 || c.now().Sub(c.loadedAt) < c.ttl
}

func (c *Cache) ensure(ctx context.Context) error {
	if c.fresh() {
		return nil
	}
	// Callers that lost the race to a concurrent load see it fresh here.
	_, err, _ := c.group.Do("ensure", func() (interface{}, error) {
		if c.fresh() {
			return nil, nil
		}
		return nil, c.load(ctx)
	})
	return err
}

// Resolve returns the option id for a category code and option name.
// The boolean is false when the pair is not part of the taxonomy.
func (c *Cache) Resolve(ctx context.Context, code, option string) (uuid.UUID, bool, error) {
	if err := c.ensure(ctx); err != nil {
		return uuid.Nil, false, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.index[optionKey{code: strings.TrimSpace(code), option: strings.TrimSpace(option)}]
	return id, ok, nil
}

// Categories returns the taxonomy in display order.
func (c *Cache) Categories(ctx context.Context) ([]Category, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Category, len(c.categories))
	copy(out, c.categories)
	return out, nil
}
