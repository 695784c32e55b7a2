package vectorindex

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/devcareer/compass-backend/internal/embeddings"
)

// MemoryIndex is the default backend: exact brute-force cosine search over an
// in-process map. It is the reference implementation for the Index contract
// and the right choice for batch runs and tests.
type MemoryIndex struct {
	mu          sync.RWMutex
	collections map[Collection]map[string]Vector
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{collections: make(map[Collection]map[string]Vector)}
}

func (m *MemoryIndex) Upsert(_ context.Context, collection Collection, vectors []Vector) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	coll, ok := m.collections[collection]
	if !ok {
		coll = make(map[string]Vector, len(vectors))
		m.collections[collection] = coll
	}
	for _, v := range vectors {
		id := strings.TrimSpace(v.ID)
		if id == "" {
			return fmt.Errorf("memory index upsert into %q: vector id is required", collection)
		}
		if len(v.Values) == 0 {
			return fmt.Errorf("memory index upsert into %q: vector %q has empty values", collection, id)
		}
		coll[id] = Vector{ID: id, Values: v.Values, Attributes: v.Attributes}
	}
	return nil
}

func (m *MemoryIndex) Search(_ context.Context, collection Collection, query []float32, topK int) ([]Match, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("memory index search in %q: query vector required", collection)
	}
	if topK <= 0 {
		topK = 10
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	coll := m.collections[collection]
	out := make([]Match, 0, len(coll))
	for id, v := range coll {
		out = append(out, Match{
			ID:         id,
			Score:      embeddings.Cosine(query, v.Values),
			Attributes: v.Attributes,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].ID < out[j].ID
		}
		return out[i].Score > out[j].Score
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

// Len reports the number of vectors currently held in a collection.
func (m *MemoryIndex) Len(collection Collection) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.collections[collection])
}
