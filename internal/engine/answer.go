package engine

import "github.com/devcareer/compass-backend/internal/vectorindex"

// SeedResult is one similarity-index hit from the seed stage.
type SeedResult struct {
	Collection vectorindex.Collection `json:"collection"`
	ID         string                 `json:"id"`
	Label      string                 `json:"label,omitempty"`
	Score      float64                `json:"score"`
}

type RelatedSkill struct {
	Name     string  `json:"name"`
	Strength float64 `json:"strength"`
}

type SkillNetworkEntry struct {
	Skill         string         `json:"skill"`
	Connections   int            `json:"connections"`
	RelatedSkills []RelatedSkill `json:"related_skills"`
}

type CoOccurrence struct {
	Skill     string `json:"skill"`
	Frequency int    `json:"frequency"`
}

type CoOccurrenceEntry struct {
	Skill       string         `json:"skill"`
	CoOccurring []CoOccurrence `json:"co_occurring_skills"`
}

type LearningPathEntry struct {
	Skill         string   `json:"skill"`
	LearningPath  []string `json:"learning_path"`
	Difficulty    string   `json:"difficulty"`
	EstimatedTime string   `json:"estimated_time"`
	Resources     []string `json:"resources"`
}

type SimilarPerson struct {
	Handle       string `json:"handle"`
	SharedSkills int    `json:"shared_skills"`
}

type PersonNetworkEntry struct {
	Handle        string          `json:"handle"`
	Connections   int             `json:"connections"`
	SimilarPeople []SimilarPerson `json:"similar_people"`
}

type MarketDemandEntry struct {
	Skill           string  `json:"skill"`
	DemandScore     float64 `json:"demand_score"`
	PopularityScore float64 `json:"popularity_score"`
	HighDemand      bool    `json:"high_demand"`
}

type RepositoryHighlight struct {
	Name     string   `json:"name"`
	Language string   `json:"language,omitempty"`
	Stars    int      `json:"stars"`
	Forks    int      `json:"forks"`
	Skills   []string `json:"skills,omitempty"`
}

// GraphInsights is the expansion stage output. Only the kinds mapped to the
// query category are populated; absent kinds stay nil.
type GraphInsights struct {
	SkillNetwork         []SkillNetworkEntry   `json:"skill_network,omitempty"`
	CoOccurringSkills    []CoOccurrenceEntry   `json:"co_occurring_skills,omitempty"`
	LearningPaths        []LearningPathEntry   `json:"learning_paths,omitempty"`
	PeopleNetwork        []PersonNetworkEntry  `json:"people_network,omitempty"`
	MarketDemand         []MarketDemandEntry   `json:"market_demand,omitempty"`
	RepositoryHighlights []RepositoryHighlight `json:"repository_highlights,omitempty"`
}

func (gi GraphInsights) present(kind InsightKind) bool {
	switch kind {
	case InsightSkillNetwork:
		return len(gi.SkillNetwork) > 0
	case InsightCoOccurringSkills:
		return len(gi.CoOccurringSkills) > 0
	case InsightLearningPaths:
		return len(gi.LearningPaths) > 0
	case InsightPeopleNetwork:
		return len(gi.PeopleNetwork) > 0
	case InsightMarketDemand:
		return len(gi.MarketDemand) > 0
	case InsightRepositoryHighlights:
		return len(gi.RepositoryHighlights) > 0
	default:
		return false
	}
}

// RoleMatch is one scored target role from the scoring stage.
type RoleMatch struct {
	Role                  string   `json:"target_role"`
	Description           string   `json:"description,omitempty"`
	Overlap               float64  `json:"overlap"`
	CurrentSkills         []string `json:"current_skills"`
	MissingCoreSkills     []string `json:"missing_core_skills"`
	MissingAdvancedSkills []string `json:"missing_advanced_skills,omitempty"`
	Difficulty            string   `json:"difficulty"`
	EstimatedTime         string   `json:"estimated_time"`
}

// Answer is the synthesized query result.
type Answer struct {
	Query           string        `json:"query"`
	Category        Category      `json:"category"`
	GraphVersion    string        `json:"graph_version"`
	SeedResults     []SeedResult  `json:"seed_results"`
	Insights        GraphInsights `json:"graph_insights"`
	RoleMatches     []RoleMatch   `json:"role_matches"`
	SynthesizedText string        `json:"synthesized_text"`
	Confidence      float64       `json:"confidence"`
}
