package engine

import "github.com/devcareer/compass-backend/internal/vectorindex"

// Category selects which collections a query seeds from and which insight
// kinds the expansion stage computes. The mapping is fixed; an unknown
// category fails fast with CodeUnknownCategory.
type Category string

const (
	CategoryCareerGuidance Category = "career_guidance"
	CategorySkillAnalysis  Category = "skill_analysis"
	CategoryLearningPath   Category = "learning_path"
	CategoryNetworking     Category = "networking"
	CategoryProjectIdeas   Category = "project_ideas"
	CategoryJobMarket      Category = "job_market"
)

// InsightKind names one expansion output. Each kind present and non-empty in
// an answer contributes a fixed increment to confidence.
type InsightKind string

const (
	InsightSkillNetwork         InsightKind = "skill_network"
	InsightCoOccurringSkills    InsightKind = "co_occurring_skills"
	InsightLearningPaths        InsightKind = "learning_paths"
	InsightPeopleNetwork        InsightKind = "people_network"
	InsightMarketDemand         InsightKind = "market_demand"
	InsightRepositoryHighlights InsightKind = "repository_highlights"
	InsightRoleMatches          InsightKind = "role_matches"
)

var categoryCollections = map[Category][]vectorindex.Collection{
	CategoryCareerGuidance: {vectorindex.CollectionSkills, vectorindex.CollectionPostings},
	CategorySkillAnalysis:  {vectorindex.CollectionSkills},
	CategoryLearningPath:   {vectorindex.CollectionSkills},
	CategoryNetworking:     {vectorindex.CollectionPeople},
	CategoryProjectIdeas:   {vectorindex.CollectionRepositories},
	CategoryJobMarket:      {vectorindex.CollectionSkills, vectorindex.CollectionPostings},
}

var categoryInsights = map[Category][]InsightKind{
	CategoryCareerGuidance: {InsightSkillNetwork, InsightLearningPaths, InsightMarketDemand},
	CategorySkillAnalysis:  {InsightSkillNetwork, InsightCoOccurringSkills},
	CategoryLearningPath:   {InsightLearningPaths, InsightCoOccurringSkills},
	CategoryNetworking:     {InsightPeopleNetwork},
	CategoryProjectIdeas:   {InsightRepositoryHighlights},
	CategoryJobMarket:      {InsightMarketDemand},
}

// confidenceIncrements weight each non-empty insight kind; the sum is capped
// at 0.6 before clamping the final confidence. Summation walks
// confidenceOrder so the float result is identical across runs.
var confidenceIncrements = map[InsightKind]float64{
	InsightSkillNetwork:         0.15,
	InsightPeopleNetwork:        0.15,
	InsightLearningPaths:        0.15,
	InsightMarketDemand:         0.15,
	InsightRoleMatches:          0.15,
	InsightCoOccurringSkills:    0.10,
	InsightRepositoryHighlights: 0.10,
}

var confidenceOrder = []InsightKind{
	InsightSkillNetwork,
	InsightCoOccurringSkills,
	InsightLearningPaths,
	InsightPeopleNetwork,
	InsightMarketDemand,
	InsightRepositoryHighlights,
	InsightRoleMatches,
}

// Categories lists every supported query category.
func Categories() []Category {
	return []Category{
		CategoryCareerGuidance,
		CategorySkillAnalysis,
		CategoryLearningPath,
		CategoryNetworking,
		CategoryProjectIdeas,
		CategoryJobMarket,
	}
}

func collectionsFor(category Category) ([]vectorindex.Collection, bool) {
	c, ok := categoryCollections[category]
	return c, ok
}

func insightsFor(category Category) []InsightKind {
	return categoryInsights[category]
}
