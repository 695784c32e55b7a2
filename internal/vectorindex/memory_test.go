package vectorindex

import (
	"context"
	"math"
	"testing"
)

func TestMemoryIndexRanking(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	err := idx.Upsert(ctx, CollectionSkills, []Vector{
		{ID: "skill_1", Values: []float32{1, 0}, Attributes: map[string]any{"name": "Go"}},
		{ID: "skill_2", Values: []float32{0, 1}},
		{ID: "skill_3", Values: []float32{0.6, 0.8}},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	matches, err := idx.Search(ctx, CollectionSkills, []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("matches: want=3 got=%d", len(matches))
	}
	if matches[0].ID != "skill_1" || matches[1].ID != "skill_3" || matches[2].ID != "skill_2" {
		t.Fatalf("order: got=%s,%s,%s", matches[0].ID, matches[1].ID, matches[2].ID)
	}
	if math.Abs(matches[0].Score-1.0) > 1e-6 {
		t.Fatalf("top score: want=1.0 got=%v", matches[0].Score)
	}
	if got := matches[0].Attributes["name"]; got != "Go" {
		t.Fatalf("attributes: want=%q got=%v", "Go", got)
	}
}

func TestMemoryIndexTieBreakByID(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	err := idx.Upsert(ctx, CollectionPeople, []Vector{
		{ID: "person_2", Values: []float32{1, 0}},
		{ID: "person_1", Values: []float32{1, 0}},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	matches, err := idx.Search(ctx, CollectionPeople, []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if matches[0].ID != "person_1" || matches[1].ID != "person_2" {
		t.Fatalf("tie break: got=%s,%s", matches[0].ID, matches[1].ID)
	}
}

func TestMemoryIndexTopK(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	err := idx.Upsert(ctx, CollectionRepositories, []Vector{
		{ID: "repository_1", Values: []float32{1, 0}},
		{ID: "repository_2", Values: []float32{0.9, 0.1}},
		{ID: "repository_3", Values: []float32{0, 1}},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	matches, err := idx.Search(ctx, CollectionRepositories, []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("topK: want=2 got=%d", len(matches))
	}
}

func TestMemoryIndexUpsertReplaces(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	if err := idx.Upsert(ctx, CollectionSkills, []Vector{{ID: "skill_1", Values: []float32{1, 0}}}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := idx.Upsert(ctx, CollectionSkills, []Vector{{ID: "skill_1", Values: []float32{0, 1}}}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if got := idx.Len(CollectionSkills); got != 1 {
		t.Fatalf("len after replace: want=1 got=%d", got)
	}

	matches, err := idx.Search(ctx, CollectionSkills, []float32{0, 1}, 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if math.Abs(matches[0].Score-1.0) > 1e-6 {
		t.Fatalf("replaced vector not used: score=%v", matches[0].Score)
	}
}

func TestMemoryIndexValidation(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	if err := idx.Upsert(ctx, CollectionSkills, []Vector{{ID: "  ", Values: []float32{1}}}); err == nil {
		t.Fatalf("expected error for blank id")
	}
	if err := idx.Upsert(ctx, CollectionSkills, []Vector{{ID: "skill_1"}}); err == nil {
		t.Fatalf("expected error for empty values")
	}
	if _, err := idx.Search(ctx, CollectionSkills, nil, 5); err == nil {
		t.Fatalf("expected error for empty query")
	}
}

func TestMemoryIndexEmptyCollection(t *testing.T) {
	idx := NewMemoryIndex()
	matches, err := idx.Search(context.Background(), CollectionPostings, []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("matches from empty collection: %d", len(matches))
	}
}
