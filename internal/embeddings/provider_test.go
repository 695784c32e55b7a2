package embeddings

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/devcareer/compass-backend/internal/domain"
)

func vectorNorm(vec []float32) float64 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

func TestHashEmbeddingDeterministic(t *testing.T) {
	a := HashEmbedding("graph databases", 64)
	b := HashEmbedding("graph databases", 64)
	if len(a) != 64 {
		t.Fatalf("dim: want=64 got=%d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same text produced different vectors at %d: %v vs %v", i, a[i], b[i])
		}
	}

	other := HashEmbedding("something else entirely", 64)
	if Cosine(a, other) > 0.999 {
		t.Fatalf("distinct texts mapped to near-identical vectors")
	}
}

func TestHashEmbeddingUnitNorm(t *testing.T) {
	for _, text := range []string{"", "Python", "a much longer description of a repository"} {
		vec := HashEmbedding(text, DefaultDim)
		if norm := vectorNorm(vec); math.Abs(norm-1.0) > 1e-5 {
			t.Fatalf("%q: norm=%v", text, norm)
		}
	}
}

type failingModel struct{ calls int }

func (m *failingModel) Embed(context.Context, []string) ([][]float32, error) {
	m.calls++
	return nil, errors.New("upstream down")
}

func TestProviderFallsBackOnModelError(t *testing.T) {
	model := &failingModel{}
	p := NewProvider(nil, model, 48)

	got := p.Embed(context.Background(), "Kubernetes")
	want := HashEmbedding("Kubernetes", 48)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("fallback vector differs from hash embedding at %d", i)
		}
	}
	if model.calls != 1 {
		t.Fatalf("model calls: want=1 got=%d", model.calls)
	}
}

type fixedModel struct {
	vec   []float32
	calls int
}

func (m *fixedModel) Embed(context.Context, []string) ([][]float32, error) {
	m.calls++
	return [][]float32{m.vec}, nil
}

func TestProviderUsesModelAndCaches(t *testing.T) {
	model := &fixedModel{vec: []float32{3, 4}}
	p := NewProvider(nil, model, 2)

	first := p.Embed(context.Background(), "SQL")
	if math.Abs(float64(first[0])-0.6) > 1e-6 || math.Abs(float64(first[1])-0.8) > 1e-6 {
		t.Fatalf("model vector not normalized: %v", first)
	}

	second := p.Embed(context.Background(), "SQL")
	if model.calls != 1 {
		t.Fatalf("cache miss on repeat embed: calls=%d", model.calls)
	}
	// Cached vectors are copied out; mutating one must not leak back.
	second[0] = 99
	third := p.Embed(context.Background(), "SQL")
	if third[0] == 99 {
		t.Fatalf("cache returned a shared slice")
	}
}

func TestProviderFitsModelDim(t *testing.T) {
	model := &fixedModel{vec: []float32{1, 2, 3, 4, 5, 6}}
	p := NewProvider(nil, model, 4)

	got := p.Embed(context.Background(), "Go")
	if len(got) != 4 {
		t.Fatalf("dim: want=4 got=%d", len(got))
	}
	if norm := vectorNorm(got); math.Abs(norm-1.0) > 1e-5 {
		t.Fatalf("truncated vector not renormalized: norm=%v", norm)
	}
}

func TestCosineEdgeCases(t *testing.T) {
	if got := Cosine([]float32{1, 0}, []float32{1, 0, 0}); got != 0 {
		t.Fatalf("mismatched dims: want=0 got=%v", got)
	}
	if got := Cosine(nil, []float32{1}); got != 0 {
		t.Fatalf("nil vector: want=0 got=%v", got)
	}
	if got := Cosine([]float32{0, 0}, []float32{1, 0}); got != 0 {
		t.Fatalf("zero vector: want=0 got=%v", got)
	}
	if got := Cosine([]float32{1, 0}, []float32{1, 0}); math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("identical vectors: want=1 got=%v", got)
	}
	if got := Cosine([]float32{1, 0}, []float32{0, 1}); math.Abs(got) > 1e-9 {
		t.Fatalf("orthogonal vectors: want=0 got=%v", got)
	}
}

func TestSkillTextComposition(t *testing.T) {
	got := SkillText(domain.SkillRecord{Name: "Python", Category: "language", Description: "general purpose"})
	want := "Python language general purpose"
	if got != want {
		t.Fatalf("want=%q got=%q", want, got)
	}

	sparse := SkillText(domain.SkillRecord{Name: "Rust"})
	if sparse != "Rust" {
		t.Fatalf("empty fields not dropped: %q", sparse)
	}
}

func TestRepositoryTextCapsActivity(t *testing.T) {
	activity := make([]string, 30)
	for i := range activity {
		activity[i] = "commit"
	}
	r := domain.RepositoryRecord{
		Name:           "etl-kit",
		Language:       "Python",
		Languages:      map[string]int64{"Shell": 1, "Python": 9},
		Topics:         []string{"etl"},
		RecentActivity: activity,
	}

	got := RepositoryText(r)
	want := "etl-kit Python Python Shell etl commit commit commit commit commit commit commit commit commit commit"
	if got != want {
		t.Fatalf("want=%q got=%q", want, got)
	}
}

func TestPostingText(t *testing.T) {
	got := PostingText(domain.PostingRecord{
		Title:          "Data Engineer",
		Company:        "Acme",
		RequiredSkills: []string{"Python", "SQL"},
		Location:       "Remote",
	})
	want := "Data Engineer Acme Python SQL Remote"
	if got != want {
		t.Fatalf("want=%q got=%q", want, got)
	}
}
