// Package region maps region selectors to the ordered record ids they quiz.
package region

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"dex-quiz-service/internal/domain"
)

const (
	// Random selects RandomSize distinct ids from the whole universe.
	Random = "random"
	// All selects every id in the universe.
	All = "all"

	// RandomSize is how many ids the random region draws.
	RandomSize = 100
	// Universe is the number of records known to the catalog.
	Universe = 1025
)

// Catalog resolves region keys to id sequences. It is safe for concurrent use.
type Catalog struct {
	regions  []domain.Region
	byKey    map[string]domain.Region
	universe int

	mu  sync.Mutex
	rnd *rand.Rand
}

// New validates regions against universe and builds a catalog.
// The synthetic random and all regions are always added.
func New(regions []domain.Region, universe int) (*Catalog, error) {
	if err := Validate(regions, universe); err != nil {
		return nil, err
	}

	sorted := append([]domain.Region(nil), regions...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	randomSize := RandomSize
	if universe < randomSize {
		randomSize = universe
	}
	sorted = append(sorted,
		domain.Region{Key: Random, Name: fmt.Sprintf("Random %d", randomSize), Synthetic: true},
		domain.Region{Key: All, Name: "All Regions", Synthetic: true},
	)

	byKey := make(map[string]domain.Region, len(sorted))
	for _, r := range sorted {
		byKey[r.Key] = r
	}
	return &Catalog{
		regions:  sorted,
		byKey:    byKey,
		universe: universe,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Default returns the catalog for the built-in region table.
func Default() *Catalog {
	c, err := New(Defaults(), Universe)
	if err != nil {
		panic(err)
	}
	return c
}

// Validate checks that keys are unique and that ranges are inside the
// universe, ascending and non-overlapping.
func Validate(regions []domain.Region, universe int) error {
	if universe < 1 {
		return fmt.Errorf("%w: universe must be positive, got %d", domain.ErrInvalidRegions, universe)
	}
	seen := make(map[string]struct{}, len(regions))
	for _, r := range regions {
		switch {
		case r.Key == "":
			return fmt.Errorf("%w: empty region key", domain.ErrInvalidRegions)
		case r.Key == Random || r.Key == All:
			return fmt.Errorf("%w: %q is reserved", domain.ErrInvalidRegions, r.Key)
		case r.Start < 1 || r.End < r.Start || r.End > universe:
			return fmt.Errorf("%w: %s has bad range [%d,%d]", domain.ErrInvalidRegions, r.Key, r.Start, r.End)
		}
		if _, dup := seen[r.Key]; dup {
			return fmt.Errorf("%w: duplicate key %q", domain.ErrInvalidRegions, r.Key)
		}
		seen[r.Key] = struct{}{}
	}

	sorted := append([]domain.Region(nil), regions...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Start <= sorted[i-1].End {
			return fmt.Errorf("%w: %s overlaps %s", domain.ErrInvalidRegions, sorted[i].Key, sorted[i-1].Key)
		}
	}
	return nil
}

// Universe returns N_max for this catalog.
func (c *Catalog) Universe() int {
	return c.universe
}

// Regions lists named regions by ascending range, then random and all.
func (c *Catalog) Regions() []domain.Region {
	return append([]domain.Region(nil), c.regions...)
}

// Lookup returns the region registered under key.
func (c *Catalog) Lookup(key string) (domain.Region, bool) {
	r, ok := c.byKey[key]
	return r, ok
}

// IDsFor returns the ids quizzed by key. Unknown keys yield an empty slice.
func (c *Catalog) IDsFor(key string) []int {
	switch key {
	case Random:
		return c.sample(RandomSize)
	case All:
		return seq(1, c.universe)
	}
	r, ok := c.byKey[key]
	if !ok || r.Synthetic {
		return []int{}
	}
	return seq(r.Start, r.End)
}

// sample shuffles the whole universe and keeps the first n ids.
func (c *Catalog) sample(n int) []int {
	ids := seq(1, c.universe)
	if n > len(ids) {
		n = len(ids)
	}
	c.mu.Lock()
	for i := len(ids) - 1; i > 0; i-- {
		j := c.rnd.Intn(i + 1)
		ids[i], ids[j] = ids[j], ids[i]
	}
	c.mu.Unlock()
	return ids[:n]
}

func seq(start, end int) []int {
	if end < start {
		return []int{}
	}
	out := make([]int, 0, end-start+1)
	for id := start; id <= end; id++ {
		out = append(out, id)
	}
	return out
}
