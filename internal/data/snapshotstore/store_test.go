package snapshotstore

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/devcareer/compass-backend/internal/domain"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(nil, filepath.Join(t.TempDir(), "snapshots.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testSnapshot() *domain.Snapshot {
	return &domain.Snapshot{
		People: []domain.PersonRecord{
			{ID: 1, Handle: "octocat", Name: "Octo Cat", Location: "SF", Followers: 120, RepoCount: 9},
		},
		Skills: []domain.SkillRecord{
			{ID: 10, Name: "Python", Category: "language", PopularityScore: 9.5, DemandScore: 9.0},
			{ID: 11, Name: "Docker", Category: "devops", DemandScore: 7.5},
		},
		Repositories: []domain.RepositoryRecord{
			{
				ID: 100, PersonID: 1, Name: "etl-kit", FullName: "octocat/etl-kit",
				Language:  "Python",
				Languages: map[string]int64{"Python": 52000, "Shell": 800},
				Topics:    []string{"etl", "data"},
				Stars:     40, Forks: 6,
				RecentActivity: []string{"add incremental loads"},
			},
		},
		Postings: []domain.PostingRecord{
			{
				ID: 500, Title: "Data Engineer", Company: "Acme",
				RequiredSkills: []string{"Python", "SQL"},
				OptionalSkills: []string{"Airflow"},
				SalaryMin:      90000, SalaryMax: 130000,
				Location: "Remote", Source: "boards",
			},
		},
		SkillRelations: []domain.SkillRelation{
			{PersonID: 1, SkillID: 10, Proficiency: domain.ProficiencyAdvanced, UsageFrequency: 70},
			{PersonID: 1, SkillID: 11, Proficiency: domain.ProficiencyBeginner, UsageFrequency: 5},
		},
	}
}

func TestReplaceAndLoadRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	want := testSnapshot()

	if err := store.Replace(ctx, want); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got=%+v\nwant=%+v", got, want)
	}
}

func TestReplaceOverwritesPrevious(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.Replace(ctx, testSnapshot()); err != nil {
		t.Fatalf("first Replace: %v", err)
	}
	second := &domain.Snapshot{
		Skills: []domain.SkillRecord{{ID: 20, Name: "Go", Category: "language"}},
	}
	if err := store.Replace(ctx, second); err != nil {
		t.Fatalf("second Replace: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.People) != 0 || len(got.Repositories) != 0 || len(got.Postings) != 0 || len(got.SkillRelations) != 0 {
		t.Fatalf("previous rows survived replace: %+v", got)
	}
	if len(got.Skills) != 1 || got.Skills[0].Name != "Go" {
		t.Fatalf("skills after replace: %+v", got.Skills)
	}
}

func TestLoadEmptyStore(t *testing.T) {
	store := testStore(t)

	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.Empty() {
		t.Fatalf("fresh store not empty: %+v", got)
	}
}

func TestReplaceNilSnapshotClears(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.Replace(ctx, testSnapshot()); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if err := store.Replace(ctx, nil); err != nil {
		t.Fatalf("Replace(nil): %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.Empty() {
		t.Fatalf("store not cleared: %+v", got)
	}
}
