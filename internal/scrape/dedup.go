package scrape

import "sync"

// Index is the in-run dedup set: a full snapshot of persisted fingerprints
// loaded at run start, plus fingerprints added as listings are persisted
// during the run. Add only after a successful persist, so a failed write
// never poisons the index. Safe for concurrent use; an Add committed by one
// source's goroutine is visible to a racing Contains from another.
type Index struct {
	mu  sync.RWMutex
	set map[string]struct{}
}

func NewIndex(fingerprints []string) *Index {
	set := make(map[string]struct{}, len(fingerprints))
	for _, fp := range fingerprints {
		if fp != "" {
			set[fp] = struct{}{}
		}
	}
	return &Index{set: set}
}

func (ix *Index) Contains(fp string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.set[fp]
	return ok
}

func (ix *Index) Add(fp string) {
	if fp == "" {
		return
	}
	ix.mu.Lock()
	ix.set[fp] = struct{}{}
	ix.mu.Unlock()
}

func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.set)
}
