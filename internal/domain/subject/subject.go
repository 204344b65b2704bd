// Package subject holds the catalog of predefined test subjects.
package subject

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/okian/endolimit/internal/domain/limit"
)

// CustomName selects a caller-supplied weight instead of a catalog entry.
const CustomName = "Custom"

// ErrUnknownSubject is returned by Lookup for names not in the catalog.
var ErrUnknownSubject = errors.New("unknown subject")

// defaults lists the animal models from Malyala & Singh (2007).
var defaults = []limit.Subject{
	{Name: "Mouse", WeightKg: 0.03},
	{Name: "Gerbil", WeightKg: 0.09},
	{Name: "Rat", WeightKg: 0.45},
	{Name: "Rabbit", WeightKg: 4},
	{Name: "Monkey", WeightKg: 8},
	{Name: "Baboon", WeightKg: 12},
}

// Option applies a configuration option to the Catalog.
type Option func(*Catalog)

// WithExtra adds named subjects to the catalog. Entries with a non-positive
// weight or the reserved custom name are skipped.
func WithExtra(extra map[string]float64) Option {
	return func(c *Catalog) {
		names := make([]string, 0, len(extra))
		for name := range extra {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			w := extra[name]
			name = strings.TrimSpace(name)
			if name == "" || strings.EqualFold(name, CustomName) || w <= 0 || math.IsInf(w, 0) {
				continue
			}
			c.add(limit.Subject{Name: name, WeightKg: w})
		}
	}
}

// Catalog resolves subject names to weights. Safe for concurrent use.
type Catalog struct {
	mu     sync.RWMutex
	order  []string
	byName map[string]limit.Subject
}

// NewCatalog creates a catalog seeded with the predefined animal models.
func NewCatalog(opts ...Option) *Catalog {
	c := &Catalog{byName: make(map[string]limit.Subject, len(defaults))}
	for _, s := range defaults {
		c.add(s)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Catalog) add(s limit.Subject) {
	key := strings.ToLower(s.Name)
	if _, exists := c.byName[key]; !exists {
		c.order = append(c.order, key)
	}
	c.byName[key] = s
}

// List returns the catalog in display order, followed by the custom entry.
func (c *Catalog) List() []limit.Subject {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]limit.Subject, 0, len(c.order)+1)
	for _, key := range c.order {
		out = append(out, c.byName[key])
	}
	return append(out, limit.Subject{Name: CustomName, Custom: true})
}

// Lookup resolves a subject by name (case-insensitive). For the custom
// entry the supplied weight is used as is; validation happens in the engine.
func (c *Catalog) Lookup(name string, customWeightKg float64) (limit.Subject, error) {
	name = strings.TrimSpace(name)
	if strings.EqualFold(name, CustomName) {
		return limit.Subject{Name: CustomName, WeightKg: customWeightKg, Custom: true}, nil
	}

	c.mu.RLock()
	s, ok := c.byName[strings.ToLower(name)]
	c.mu.RUnlock()
	if !ok {
		return limit.Subject{}, fmt.Errorf("%w: %q", ErrUnknownSubject, name)
	}
	return s, nil
}

// Len returns the number of named subjects, excluding the custom entry.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}
