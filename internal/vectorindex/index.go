// Package vectorindex defines the similarity-index contract the query engine
// seeds from, plus the two implementations: an in-memory brute-force index and
// a Qdrant-backed one. Both rank by cosine similarity over unit vectors.
package vectorindex

import "context"

// Collection names one logical vector space. Every entity kind gets its own
// collection so a query can be scoped to the kinds its category cares about.
type Collection string

const (
	CollectionSkills       Collection = "skills"
	CollectionPeople       Collection = "people"
	CollectionRepositories Collection = "repositories"
	CollectionPostings     Collection = "postings"
)

// Collections lists every collection in upsert order.
func Collections() []Collection {
	return []Collection{CollectionSkills, CollectionPeople, CollectionRepositories, CollectionPostings}
}

// Vector is one upsert unit. ID is the graph node id (or posting id) and must
// be stable across rebuilds so re-upserting replaces rather than duplicates.
type Vector struct {
	ID         string
	Values     []float32
	Attributes map[string]any
}

// Match is one search hit, strongest first. Score is cosine similarity in
// [-1, 1]; backends using other distance metrics normalize before returning.
type Match struct {
	ID         string
	Score      float64
	Attributes map[string]any
}

// Index is the similarity-index contract. Implementations must rank
// deterministically: equal scores break ties by ascending ID.
type Index interface {
	Upsert(ctx context.Context, collection Collection, vectors []Vector) error
	Search(ctx context.Context, collection Collection, query []float32, topK int) ([]Match, error)
}
