package scan

import (
	"cmp"
	"slices"
	"sync"
)

// Board is the ranked list of the latest decision per target. Entries are
// replaced one at a time as targets finish evaluating.
type Board struct {
	mu      sync.RWMutex
	entries []Decision
}

func NewBoard() *Board {
	return &Board{}
}

// Upsert inserts or replaces the entry for d.ID and re-sorts by score.
func (b *Board) Upsert(d Decision) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := slices.IndexFunc(b.entries, func(e Decision) bool { return e.ID == d.ID })
	if i >= 0 {
		b.entries[i] = d
	} else {
		b.entries = append(b.entries, d)
	}
	slices.SortStableFunc(b.entries, func(x, y Decision) int {
		if c := cmp.Compare(y.Score, x.Score); c != 0 {
			return c
		}
		return cmp.Compare(x.ID, y.ID)
	})
}

// Snapshot returns a copy of the ranked entries.
func (b *Board) Snapshot() []Decision {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.entries)
}

func (b *Board) Get(id string) (Decision, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, e := range b.entries {
		if e.ID == id {
			return e, true
		}
	}
	return Decision{}, false
}

func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Tracked is the operator's set of targets with an open position.
type Tracked struct {
	mu  sync.RWMutex
	ids map[string]bool
}

func NewTracked() *Tracked {
	return &Tracked{ids: make(map[string]bool)}
}

// Toggle flips id and returns the new state.
func (t *Tracked) Toggle(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ids[id] {
		delete(t.ids, id)
		return false
	}
	t.ids[id] = true
	return true
}

func (t *Tracked) Is(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ids[id]
}

// List returns the tracked ids in sorted order.
func (t *Tracked) List() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.ids))
	for id := range t.ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
