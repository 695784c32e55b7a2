// Package domain holds the typed records that make up a data snapshot. A
// snapshot is read-only input: collectors and storage live outside this core,
// which only consumes the records and never mutates them.
package domain

// Proficiency tiers for a person/skill relation. Unknown tiers are tolerated
// and weighted conservatively by the graph builder.
const (
	ProficiencyBeginner     = "beginner"
	ProficiencyIntermediate = "intermediate"
	ProficiencyAdvanced     = "advanced"
	ProficiencyExpert       = "expert"
)

type PersonRecord struct {
	ID        int64
	Handle    string
	Name      string
	Bio       string
	Location  string
	Company   string
	Followers int
	RepoCount int
}

type SkillRecord struct {
	ID          int64
	Name        string
	Category    string
	Description string
	// PopularityScore and DemandScore are relative units from upstream feeds,
	// not calibrated absolutes.
	PopularityScore float64
	DemandScore     float64
}

type RepositoryRecord struct {
	ID          int64
	PersonID    int64
	Name        string
	FullName    string
	Description string
	// Language is the primary language; Languages maps secondary languages to
	// byte counts or another usage weight.
	Language  string
	Languages map[string]int64
	Topics    []string
	Stars     int
	Forks     int
	IsFork    bool
	// RecentActivity is free text (commit subjects etc.) folded into the
	// repository embedding.
	RecentActivity []string
}

type PostingRecord struct {
	ID             int64
	Title          string
	Company        string
	Description    string
	RequiredSkills []string
	OptionalSkills []string
	SalaryMin      int
	SalaryMax      int
	Location       string
	Source         string
}

// SkillRelation links a person to a skill with proficiency and usage signal.
type SkillRelation struct {
	PersonID int64
	SkillID  int64
	// Proficiency is one of the tier constants above.
	Proficiency string
	// UsageFrequency is an activity count; the builder normalizes it to [0,1].
	UsageFrequency float64
}

// Snapshot is one full read of the upstream entity store. The graph is rebuilt
// wholesale from a snapshot; there is no incremental update path.
type Snapshot struct {
	People         []PersonRecord
	Skills         []SkillRecord
	Repositories   []RepositoryRecord
	Postings       []PostingRecord
	SkillRelations []SkillRelation
}

func (s *Snapshot) Empty() bool {
	if s == nil {
		return true
	}
	return len(s.People) == 0 && len(s.Skills) == 0 &&
		len(s.Repositories) == 0 && len(s.Postings) == 0
}
