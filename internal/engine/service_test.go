package engine

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/devcareer/compass-backend/internal/domain"
	"github.com/devcareer/compass-backend/internal/embeddings"
	"github.com/devcareer/compass-backend/internal/graph"
	"github.com/devcareer/compass-backend/internal/vectorindex"
)

func newTestService(t *testing.T) (*Service, *vectorindex.MemoryIndex) {
	t.Helper()
	embedder := embeddings.NewProvider(nil, nil, 32)
	index := vectorindex.NewMemoryIndex()
	builder := graph.NewBuilder(nil, embedder, graph.BuilderConfig{})
	svc := NewService(nil, embedder, index, testCatalog(t), builder, Config{})
	return svc, index
}

func engineSnapshot() *domain.Snapshot {
	return &domain.Snapshot{
		People: []domain.PersonRecord{
			{ID: 1, Handle: "octocat", Bio: "data tinkerer"},
			{ID: 2, Handle: "hubber", Bio: "database person"},
		},
		Skills: []domain.SkillRecord{
			{ID: 10, Name: "Python", Category: "language", DemandScore: 9.0},
			{ID: 11, Name: "SQL", Category: "language", DemandScore: 8.0},
		},
		Repositories: []domain.RepositoryRecord{
			{ID: 100, PersonID: 1, Name: "etl-kit", Language: "Python", Stars: 40},
		},
		Postings: []domain.PostingRecord{
			{ID: 500, Title: "Data Scientist", Company: "Acme", RequiredSkills: []string{"Python", "SQL"}},
		},
		SkillRelations: []domain.SkillRelation{
			{PersonID: 1, SkillID: 10, Proficiency: "advanced", UsageFrequency: 70},
			{PersonID: 1, SkillID: 11, Proficiency: "intermediate", UsageFrequency: 50},
			{PersonID: 2, SkillID: 11, Proficiency: "expert", UsageFrequency: 90},
		},
	}
}

func TestQueryBeforeRefreshIsNotInitialized(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Query(context.Background(), "career paths", CategoryCareerGuidance)
	if !IsCode(err, CodeNotInitialized) {
		t.Fatalf("want CodeNotInitialized, got=%v", err)
	}
	if _, err := svc.Stats(); !IsCode(err, CodeNotInitialized) {
		t.Fatalf("stats before refresh: want CodeNotInitialized, got=%v", err)
	}
}

func TestQueryUnknownCategory(t *testing.T) {
	svc, _ := newTestService(t)
	if err := svc.Refresh(context.Background(), engineSnapshot()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	_, err := svc.Query(context.Background(), "anything", Category("horoscope"))
	if !IsCode(err, CodeUnknownCategory) {
		t.Fatalf("want CodeUnknownCategory, got=%v", err)
	}
}

func TestRefreshSeedsAllCollections(t *testing.T) {
	svc, index := newTestService(t)
	if err := svc.Refresh(context.Background(), engineSnapshot()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if got := index.Len(vectorindex.CollectionSkills); got != 2 {
		t.Fatalf("skills indexed: want=2 got=%d", got)
	}
	if got := index.Len(vectorindex.CollectionPeople); got != 2 {
		t.Fatalf("people indexed: want=2 got=%d", got)
	}
	if got := index.Len(vectorindex.CollectionRepositories); got != 1 {
		t.Fatalf("repositories indexed: want=1 got=%d", got)
	}
	if got := index.Len(vectorindex.CollectionPostings); got != 1 {
		t.Fatalf("postings indexed: want=1 got=%d", got)
	}
}

func TestCareerGuidanceQueryScenario(t *testing.T) {
	svc, _ := newTestService(t)
	if err := svc.Refresh(context.Background(), engineSnapshot()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	answer, err := svc.Query(context.Background(), "what career paths fit my skills", CategoryCareerGuidance)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	// Both skills plus the posting should seed.
	if len(answer.SeedResults) != 3 {
		t.Fatalf("seeds: want=3 got=%d (%+v)", len(answer.SeedResults), answer.SeedResults)
	}

	m, ok := findMatch(answer.RoleMatches, "Data Scientist")
	if !ok {
		t.Fatalf("Data Scientist missing from role matches: %+v", answer.RoleMatches)
	}
	if math.Abs(m.Overlap-0.4) > 1e-9 || m.Difficulty != "Moderate" || m.EstimatedTime != "6-12 months" {
		t.Fatalf("Data Scientist match: %+v", m)
	}

	if answer.Confidence < 0.1 || answer.Confidence > 0.9 {
		t.Fatalf("confidence out of bounds: %v", answer.Confidence)
	}
	if answer.SynthesizedText == "" {
		t.Fatalf("synthesized text empty")
	}
	if answer.GraphVersion == "" {
		t.Fatalf("graph version not set")
	}
}

func TestEmptySnapshotScenario(t *testing.T) {
	svc, _ := newTestService(t)
	if err := svc.Refresh(context.Background(), &domain.Snapshot{}); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	stats, err := svc.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Nodes != 0 || stats.Edges != 0 {
		t.Fatalf("empty snapshot stats: %+v", stats)
	}

	answer, err := svc.Query(context.Background(), "career paths", CategoryCareerGuidance)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(answer.SeedResults) != 0 {
		t.Fatalf("seeds from empty graph: %+v", answer.SeedResults)
	}
	if math.Abs(answer.Confidence-0.1) > 1e-9 {
		t.Fatalf("confidence: want=0.1 got=%v", answer.Confidence)
	}
}

func TestConfidenceBoundsAcrossCategories(t *testing.T) {
	svc, _ := newTestService(t)
	if err := svc.Refresh(context.Background(), engineSnapshot()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	for _, category := range Categories() {
		answer, err := svc.Query(context.Background(), "tell me about my options", category)
		if err != nil {
			t.Fatalf("%s: %v", category, err)
		}
		if answer.Confidence < 0.1 || answer.Confidence > 0.9 {
			t.Fatalf("%s: confidence out of bounds: %v", category, answer.Confidence)
		}
	}
}

func TestNetworkingQueryFindsSimilarPeople(t *testing.T) {
	svc, _ := newTestService(t)
	if err := svc.Refresh(context.Background(), engineSnapshot()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	answer, err := svc.Query(context.Background(), "who should I connect with", CategoryNetworking)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(answer.Insights.PeopleNetwork) == 0 {
		t.Fatalf("people network empty: %+v", answer.Insights)
	}
	// octocat and hubber share SQL.
	entry := answer.Insights.PeopleNetwork[0]
	if entry.Connections == 0 || len(entry.SimilarPeople) == 0 {
		t.Fatalf("people network entry: %+v", entry)
	}
}

func TestRefreshSwapsVersion(t *testing.T) {
	svc, _ := newTestService(t)
	snap := engineSnapshot()
	if err := svc.Refresh(context.Background(), snap); err != nil {
		t.Fatalf("first Refresh: %v", err)
	}
	first := svc.Graph()
	if err := svc.Refresh(context.Background(), snap); err != nil {
		t.Fatalf("second Refresh: %v", err)
	}
	second := svc.Graph()

	if first.Version == second.Version {
		t.Fatalf("refresh did not produce a new graph version")
	}
	if first.NodeCount() != second.NodeCount() {
		t.Fatalf("rebuild changed node count: %d vs %d", first.NodeCount(), second.NodeCount())
	}
}

// brokenIndex fails whichever operations are given errors; the zero value
// behaves like an index that stores nothing and finds nothing.
type brokenIndex struct {
	upsertErr error
	searchErr error
}

func (b *brokenIndex) Upsert(context.Context, vectorindex.Collection, []vectorindex.Vector) error {
	return b.upsertErr
}

func (b *brokenIndex) Search(context.Context, vectorindex.Collection, []float32, int) ([]vectorindex.Match, error) {
	return nil, b.searchErr
}

func TestQueryCompletesWhenSearchFails(t *testing.T) {
	embedder := embeddings.NewProvider(nil, nil, 32)
	index := &brokenIndex{searchErr: errors.New("index unreachable")}
	builder := graph.NewBuilder(nil, embedder, graph.BuilderConfig{})
	svc := NewService(nil, embedder, index, testCatalog(t), builder, Config{})

	if err := svc.Refresh(context.Background(), engineSnapshot()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	answer, err := svc.Query(context.Background(), "career paths", CategoryCareerGuidance)
	if err != nil {
		t.Fatalf("Query with failing search: %v", err)
	}
	if len(answer.SeedResults) != 0 {
		t.Fatalf("seeds from failing index: %+v", answer.SeedResults)
	}
	if math.Abs(answer.Confidence-0.1) > 1e-9 {
		t.Fatalf("confidence: want=0.1 got=%v", answer.Confidence)
	}
	if answer.SynthesizedText == "" {
		t.Fatalf("synthesized text empty")
	}
}

func TestRefreshReportsUpsertErrorButKeepsServing(t *testing.T) {
	embedder := embeddings.NewProvider(nil, nil, 32)
	index := &brokenIndex{upsertErr: errors.New("index write refused")}
	builder := graph.NewBuilder(nil, embedder, graph.BuilderConfig{})
	svc := NewService(nil, embedder, index, testCatalog(t), builder, Config{})

	err := svc.Refresh(context.Background(), engineSnapshot())
	if err == nil {
		t.Fatalf("Refresh swallowed the upsert error")
	}

	// The graph still swapped in: stats and queries work on the new version.
	g := svc.Graph()
	if g == nil {
		t.Fatalf("graph not swapped after failed upserts")
	}
	stats, err := svc.Stats()
	if err != nil {
		t.Fatalf("Stats after failed upserts: %v", err)
	}
	if stats.Nodes == 0 {
		t.Fatalf("stats on swapped graph: %+v", stats)
	}
	answer, err := svc.Query(context.Background(), "career paths", CategoryCareerGuidance)
	if err != nil {
		t.Fatalf("Query after failed upserts: %v", err)
	}
	if answer.GraphVersion != g.Version.String() {
		t.Fatalf("answer graph version: want=%s got=%s", g.Version, answer.GraphVersion)
	}
}

func TestConfidenceIsDeterministic(t *testing.T) {
	answer := &Answer{
		SeedResults: make([]SeedResult, 7),
		Insights: GraphInsights{
			SkillNetwork:      []SkillNetworkEntry{{Skill: "Python"}},
			CoOccurringSkills: []CoOccurrenceEntry{{Skill: "Python"}},
			LearningPaths:     []LearningPathEntry{{Skill: "SQL"}},
			MarketDemand:      []MarketDemandEntry{{Skill: "Python"}},
		},
		RoleMatches: []RoleMatch{{Role: "Data Scientist"}},
	}

	first := confidence(answer)
	for i := 0; i < 100; i++ {
		if got := confidence(answer); got != first {
			t.Fatalf("confidence varies across calls: %v vs %v", first, got)
		}
	}
}

type fakeCache struct {
	store map[string]*Answer
	gets  int
	sets  int
}

func (f *fakeCache) Get(_ context.Context, key string) (*Answer, bool) {
	f.gets++
	a, ok := f.store[key]
	return a, ok
}

func (f *fakeCache) Set(_ context.Context, key string, answer *Answer) {
	f.sets++
	f.store[key] = answer
}

func TestAnswerCacheRoundTrip(t *testing.T) {
	embedder := embeddings.NewProvider(nil, nil, 32)
	index := vectorindex.NewMemoryIndex()
	builder := graph.NewBuilder(nil, embedder, graph.BuilderConfig{})
	cache := &fakeCache{store: make(map[string]*Answer)}
	svc := NewService(nil, embedder, index, testCatalog(t), builder, Config{}, WithAnswerCache(cache))

	if err := svc.Refresh(context.Background(), engineSnapshot()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	first, err := svc.Query(context.Background(), "career paths", CategoryCareerGuidance)
	if err != nil {
		t.Fatalf("first Query: %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("cache sets: want=1 got=%d", cache.sets)
	}

	second, err := svc.Query(context.Background(), "career paths", CategoryCareerGuidance)
	if err != nil {
		t.Fatalf("second Query: %v", err)
	}
	if second != first {
		t.Fatalf("second query did not hit the cache")
	}
	if cache.sets != 1 {
		t.Fatalf("cache re-populated on hit: sets=%d", cache.sets)
	}
}

type fakeMirror struct {
	synced int
	last   *graph.Graph
}

func (f *fakeMirror) Sync(_ context.Context, g *graph.Graph) error {
	f.synced++
	f.last = g
	return nil
}

func TestRefreshSyncsMirror(t *testing.T) {
	embedder := embeddings.NewProvider(nil, nil, 32)
	index := vectorindex.NewMemoryIndex()
	builder := graph.NewBuilder(nil, embedder, graph.BuilderConfig{})
	mirror := &fakeMirror{}
	svc := NewService(nil, embedder, index, testCatalog(t), builder, Config{}, WithMirror(mirror))

	if err := svc.Refresh(context.Background(), engineSnapshot()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if mirror.synced != 1 || mirror.last == nil {
		t.Fatalf("mirror not synced: %+v", mirror)
	}
	if mirror.last.Version != svc.Graph().Version {
		t.Fatalf("mirror received a different graph version")
	}
}
