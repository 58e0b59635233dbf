// Package catalog manages the ingredient list: lookups for the engine,
// edits from the admin commands, and bulk import/export.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/hammamikhairi/hotpot/internal/domain"
	"github.com/hammamikhairi/hotpot/internal/logger"
)

// Compile-time interface check.
var _ domain.Catalog = (*Catalog)(nil)

// Option configures the catalog.
type Option func(*Catalog)

// WithRepository persists the catalog after every change.
func WithRepository(r domain.Repository) Option {
	return func(c *Catalog) {
		c.repo = r
	}
}

// WithItems replaces the built-in defaults.
func WithItems(items []domain.Ingredient) Option {
	return func(c *Catalog) {
		c.items = index(items)
	}
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Category   domain.Category
	Query      string
	PinnedOnly bool
}

// Catalog holds ingredients in memory. Safe for concurrent use; it is
// the only writer of ingredient records.
type Catalog struct {
	mu       sync.RWMutex
	items    map[string]domain.Ingredient
	repo     domain.Repository
	log      *logger.Logger
	onDelete []func(id string)
}

// New creates a catalog preloaded with the built-in ingredients.
func New(log *logger.Logger, opts ...Option) *Catalog {
	c := &Catalog{
		items: index(Defaults()),
		log:   log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load replaces the in-memory list with the saved one. When nothing is
// saved yet the current list is written out so the next run finds it.
func (c *Catalog) Load(ctx context.Context) error {
	if c.repo == nil {
		return nil
	}
	saved, err := c.repo.LoadCatalog(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		c.log.Info("no saved catalog, seeding %d ingredients", c.Len())
		return c.save(ctx)
	}
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	kept := make([]domain.Ingredient, 0, len(saved))
	for _, it := range saved {
		if err := it.Validate(); err != nil {
			c.log.Warn("dropping saved ingredient %q: %v", it.ID, err)
			continue
		}
		kept = append(kept, it.Normalize())
	}

	c.mu.Lock()
	c.items = index(kept)
	c.mu.Unlock()
	c.log.Debug("loaded %d ingredients", len(kept))
	return nil
}

// OnDelete registers fn to run after an ingredient is removed, either by
// Delete or because Replace dropped it.
func (c *Catalog) OnDelete(fn func(id string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDelete = append(c.onDelete, fn)
}

// Lookup implements domain.Catalog.
func (c *Catalog) Lookup(id string) (domain.Ingredient, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	it, ok := c.items[id]
	return it, ok
}

// Get returns an ingredient by ID.
func (c *Catalog) Get(id string) (domain.Ingredient, error) {
	it, ok := c.Lookup(id)
	if !ok {
		return domain.Ingredient{}, fmt.Errorf("ingredient %q: %w", id, domain.ErrNotFound)
	}
	return it, nil
}

// Len returns the number of ingredients.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// IncrementUsage implements domain.Catalog. Persistence failures are
// logged, not returned: the count is already updated in memory.
func (c *Catalog) IncrementUsage(id string) bool {
	c.mu.Lock()
	it, ok := c.items[id]
	if ok {
		it.UsageCount++
		c.items[id] = it
	}
	c.mu.Unlock()
	if !ok {
		return false
	}
	if err := c.save(context.Background()); err != nil {
		c.log.Error("saving usage count for %s: %v", id, err)
	}
	return true
}

// List returns matching ingredients: pinned first, then most used, then
// by name.
func (c *Catalog) List(f Filter) []domain.Ingredient {
	c.mu.RLock()
	defer c.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]domain.Ingredient, 0, len(c.items))
	for _, it := range c.items {
		if f.Category != "" && it.Category != f.Category {
			continue
		}
		if f.PinnedOnly && !it.Pinned {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(it.Name), q) && !strings.Contains(strings.ToLower(it.ID), q) {
			continue
		}
		out = append(out, it)
	}
	sortIngredients(out)
	return out
}

// Find resolves a user-typed name or ID. Exact ID and exact name win over
// a unique substring match.
func (c *Catalog) Find(name string) (domain.Ingredient, error) {
	q := strings.ToLower(strings.TrimSpace(name))
	if q == "" {
		return domain.Ingredient{}, &domain.ValidationError{Field: "name", Reason: "is required"}
	}
	if it, ok := c.Lookup(q); ok {
		return it, nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	var partial []domain.Ingredient
	for _, it := range c.items {
		n := strings.ToLower(it.Name)
		if n == q {
			return it, nil
		}
		if strings.Contains(n, q) {
			partial = append(partial, it)
		}
	}
	if len(partial) == 1 {
		return partial[0], nil
	}
	if len(partial) > 1 {
		return domain.Ingredient{}, &domain.ValidationError{Field: "name", Reason: fmt.Sprintf("%q matches %d ingredients", name, len(partial))}
	}
	return domain.Ingredient{}, fmt.Errorf("ingredient %q: %w", name, domain.ErrNotFound)
}

// Add inserts a new ingredient. An empty ID gets a generated one; usage
// and pin state always start cleared.
func (c *Catalog) Add(ctx context.Context, it domain.Ingredient) (domain.Ingredient, error) {
	if strings.TrimSpace(it.ID) == "" {
		it.ID = uuid.NewString()
	}
	it.UsageCount = 0
	it.Pinned = false
	if err := it.Validate(); err != nil {
		return domain.Ingredient{}, err
	}
	it = it.Normalize()

	c.mu.Lock()
	if _, exists := c.items[it.ID]; exists {
		c.mu.Unlock()
		return domain.Ingredient{}, fmt.Errorf("ingredient %q: %w", it.ID, domain.ErrAlreadyExists)
	}
	c.items[it.ID] = it
	c.mu.Unlock()

	c.log.Info("ingredient added: %s (%ds)", it.Name, it.Seconds)
	return it, c.save(ctx)
}

// Update replaces an existing ingredient. Entries already cooking keep
// the duration they started with.
func (c *Catalog) Update(ctx context.Context, it domain.Ingredient) error {
	if err := it.Validate(); err != nil {
		return err
	}
	it = it.Normalize()

	c.mu.Lock()
	if _, ok := c.items[it.ID]; !ok {
		c.mu.Unlock()
		return fmt.Errorf("ingredient %q: %w", it.ID, domain.ErrNotFound)
	}
	c.items[it.ID] = it
	c.mu.Unlock()

	c.log.Info("ingredient updated: %s", it.ID)
	return c.save(ctx)
}

// Delete removes an ingredient and tells the listeners.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	if _, ok := c.items[id]; !ok {
		c.mu.Unlock()
		return fmt.Errorf("ingredient %q: %w", id, domain.ErrNotFound)
	}
	delete(c.items, id)
	listeners := c.listeners()
	c.mu.Unlock()

	c.log.Info("ingredient deleted: %s", id)
	err := c.save(ctx)
	for _, fn := range listeners {
		fn(id)
	}
	return err
}

// TogglePin flips the pinned flag and returns the new value.
func (c *Catalog) TogglePin(ctx context.Context, id string) (bool, error) {
	c.mu.Lock()
	it, ok := c.items[id]
	if !ok {
		c.mu.Unlock()
		return false, fmt.Errorf("ingredient %q: %w", id, domain.ErrNotFound)
	}
	it.Pinned = !it.Pinned
	c.items[id] = it
	c.mu.Unlock()

	return it.Pinned, c.save(ctx)
}

// Replace swaps the whole list atomically. Every record is validated
// first; one bad record rejects the batch and leaves the catalog as it
// was.
func (c *Catalog) Replace(ctx context.Context, items []domain.Ingredient) error {
	seen := make(map[string]bool, len(items))
	clean := make([]domain.Ingredient, 0, len(items))
	for i, it := range items {
		if err := it.Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if seen[it.ID] {
			return fmt.Errorf("record %d: %w", i, &domain.ValidationError{Field: "id", Reason: fmt.Sprintf("duplicate id %q", it.ID)})
		}
		seen[it.ID] = true
		clean = append(clean, it.Normalize())
	}

	c.mu.Lock()
	var dropped []string
	for id := range c.items {
		if !seen[id] {
			dropped = append(dropped, id)
		}
	}
	c.items = index(clean)
	listeners := c.listeners()
	c.mu.Unlock()

	sort.Strings(dropped)
	c.log.Info("catalog replaced: %d ingredients, %d dropped", len(clean), len(dropped))
	err := c.save(ctx)
	for _, id := range dropped {
		for _, fn := range listeners {
			fn(id)
		}
	}
	return err
}

// All returns every ingredient in List order.
func (c *Catalog) All() []domain.Ingredient {
	return c.List(Filter{})
}

func (c *Catalog) listeners() []func(string) {
	out := make([]func(string), len(c.onDelete))
	copy(out, c.onDelete)
	return out
}

func (c *Catalog) save(ctx context.Context) error {
	if c.repo == nil {
		return nil
	}
	if err := c.repo.SaveCatalog(ctx, c.All()); err != nil {
		return fmt.Errorf("saving catalog: %w", err)
	}
	return nil
}

func index(items []domain.Ingredient) map[string]domain.Ingredient {
	m := make(map[string]domain.Ingredient, len(items))
	for _, it := range items {
		m[it.ID] = it
	}
	return m
}

func sortIngredients(items []domain.Ingredient) {
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Pinned != b.Pinned {
			return a.Pinned
		}
		if a.UsageCount != b.UsageCount {
			return a.UsageCount > b.UsageCount
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
}
