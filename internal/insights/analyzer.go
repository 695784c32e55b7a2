// Package insights derives per-person career insight reports from the
// knowledge graph: skill profile, repository impact, market positioning, and
// skill gaps against the rest of the graph.
package insights

import (
	"fmt"
	"sort"

	"github.com/devcareer/compass-backend/internal/domain"
	"github.com/devcareer/compass-backend/internal/graph"
	"github.com/devcareer/compass-backend/internal/platform/logger"
)

// DemandThreshold separates high-demand skills from the rest. Demand scores
// are relative units on a 0-10 scale from upstream feeds.
const DemandThreshold = 7.0

type SkillSummary struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Proficiency string  `json:"proficiency"`
	Weight      float64 `json:"weight"`
	DemandScore float64 `json:"demand_score"`
}

type SkillAnalysis struct {
	TotalSkills             int            `json:"total_skills"`
	Categories              map[string]int `json:"categories"`
	ProficiencyDistribution map[string]int `json:"proficiency_distribution"`
	TopSkills               []SkillSummary `json:"top_skills"`
	HighDemandSkills        []string       `json:"high_demand_skills"`
	PopularSkills           []string       `json:"popular_skills"`
	AverageProficiency      float64        `json:"average_proficiency"`
	// DiversityScore is distinct categories over total skills, in (0, 1].
	DiversityScore float64 `json:"skill_diversity_score"`
}

type RepositorySummary struct {
	Name  string `json:"name"`
	Stars int    `json:"stars"`
	Forks int    `json:"forks"`
}

type RepositoryAnalysis struct {
	TotalRepositories    int                 `json:"total_repositories"`
	OriginalRepositories int                 `json:"original_repositories"`
	TotalStars           int                 `json:"total_stars"`
	TotalForks           int                 `json:"total_forks"`
	AverageStars         float64             `json:"average_stars"`
	Languages            map[string]int      `json:"languages"`
	TopRepositories      []RepositorySummary `json:"top_repositories"`
	// ImpactScore averages stars*0.6 + forks*0.4 per repository, with a 1.2x
	// bonus for original (non-fork) work.
	ImpactScore float64 `json:"repository_impact_score"`
}

type MarketAnalysis struct {
	Position       string  `json:"market_position"`
	AverageDemand  float64 `json:"average_demand_score"`
	AveragePopular float64 `json:"average_popularity_score"`
	DemandTrend    string  `json:"demand_trend"`
}

type SkillGap struct {
	Name        string  `json:"skill_name"`
	Category    string  `json:"category"`
	DemandScore float64 `json:"market_demand_score"`
	Description string  `json:"description"`
}

// Report is the full insight bundle for one person.
type Report struct {
	PersonID     string             `json:"person_id"`
	Handle       string             `json:"handle"`
	Skills       SkillAnalysis      `json:"skills"`
	Repositories RepositoryAnalysis `json:"repositories"`
	Market       MarketAnalysis     `json:"market"`
	SkillGaps    []SkillGap         `json:"skill_gaps"`
}

type Analyzer struct {
	log *logger.Logger
}

func NewAnalyzer(log *logger.Logger) *Analyzer {
	var scoped *logger.Logger
	if log != nil {
		scoped = log.With("service", "InsightAnalyzer")
	}
	return &Analyzer{log: scoped}
}

// Analyze builds a report for one person node. The graph is read-only here;
// Analyze may run concurrently with other readers.
func (a *Analyzer) Analyze(g *graph.Graph, personID string) (*Report, error) {
	node, ok := g.Node(personID)
	if !ok {
		return nil, fmt.Errorf("person %s not in graph", personID)
	}
	person, ok := node.(*graph.PersonNode)
	if !ok {
		return nil, fmt.Errorf("node %s is a %s, not a person", personID, node.Kind())
	}

	skills := g.SkillsOf(personID)
	repos := g.RepositoriesOf(personID)

	report := &Report{
		PersonID:     personID,
		Handle:       person.Record.Handle,
		Skills:       analyzeSkills(skills),
		Repositories: analyzeRepositories(repos),
		Market:       analyzeMarket(skills),
		SkillGaps:    findSkillGaps(g, skills),
	}
	if a.log != nil {
		a.log.Debug("insight report built",
			"person_id", personID,
			"skills", report.Skills.TotalSkills,
			"repositories", report.Repositories.TotalRepositories,
			"gaps", len(report.SkillGaps),
		)
	}
	return report, nil
}

var proficiencyNumeric = map[string]float64{
	domain.ProficiencyBeginner:     1.0,
	domain.ProficiencyIntermediate: 2.0,
	domain.ProficiencyAdvanced:     3.0,
	domain.ProficiencyExpert:       4.0,
}

func proficiencyToNumeric(level string) float64 {
	if v, ok := proficiencyNumeric[level]; ok {
		return v
	}
	return 2.0
}

func analyzeSkills(skills []graph.SkillEdge) SkillAnalysis {
	out := SkillAnalysis{
		TotalSkills:             len(skills),
		Categories:              make(map[string]int),
		ProficiencyDistribution: make(map[string]int),
	}
	if len(skills) == 0 {
		return out
	}

	var proficiencySum float64
	for _, se := range skills {
		category := se.Skill.Record.Category
		if category == "" {
			category = "uncategorized"
		}
		out.Categories[category]++
		out.ProficiencyDistribution[se.Edge.Detail]++
		proficiencySum += proficiencyToNumeric(se.Edge.Detail)

		if se.Skill.Record.DemandScore > DemandThreshold {
			out.HighDemandSkills = append(out.HighDemandSkills, se.Skill.Record.Name)
		}
		if se.Skill.Record.PopularityScore > DemandThreshold {
			out.PopularSkills = append(out.PopularSkills, se.Skill.Record.Name)
		}
	}
	out.AverageProficiency = proficiencySum / float64(len(skills))
	out.DiversityScore = float64(len(out.Categories)) / float64(len(skills))

	ranked := make([]graph.SkillEdge, len(skills))
	copy(ranked, skills)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Edge.Weight > ranked[j].Edge.Weight
	})
	if len(ranked) > 5 {
		ranked = ranked[:5]
	}
	for _, se := range ranked {
		out.TopSkills = append(out.TopSkills, SkillSummary{
			Name:        se.Skill.Record.Name,
			Category:    se.Skill.Record.Category,
			Proficiency: se.Edge.Detail,
			Weight:      se.Edge.Weight,
			DemandScore: se.Skill.Record.DemandScore,
		})
	}
	return out
}

func analyzeRepositories(repos []graph.RepositoryEdge) RepositoryAnalysis {
	out := RepositoryAnalysis{
		TotalRepositories: len(repos),
		Languages:         make(map[string]int),
	}
	if len(repos) == 0 {
		return out
	}

	var impact float64
	for _, re := range repos {
		rec := re.Repository.Record
		out.TotalStars += rec.Stars
		out.TotalForks += rec.Forks
		if !rec.IsFork {
			out.OriginalRepositories++
		}
		if rec.Language != "" {
			out.Languages[rec.Language]++
		}

		repoImpact := float64(rec.Stars)*0.6 + float64(rec.Forks)*0.4
		if !rec.IsFork {
			repoImpact *= 1.2
		}
		impact += repoImpact
	}
	out.AverageStars = float64(out.TotalStars) / float64(len(repos))
	out.ImpactScore = impact / float64(len(repos))

	ranked := make([]graph.RepositoryEdge, len(repos))
	copy(ranked, repos)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Repository.Record.Stars > ranked[j].Repository.Record.Stars
	})
	if len(ranked) > 5 {
		ranked = ranked[:5]
	}
	for _, re := range ranked {
		out.TopRepositories = append(out.TopRepositories, RepositorySummary{
			Name:  re.Repository.Record.Name,
			Stars: re.Repository.Record.Stars,
			Forks: re.Repository.Record.Forks,
		})
	}
	return out
}

func analyzeMarket(skills []graph.SkillEdge) MarketAnalysis {
	if len(skills) == 0 {
		return MarketAnalysis{Position: "Generalist", DemandTrend: "No skills to analyze"}
	}

	var demandSum, popularSum float64
	highDemand := 0
	for _, se := range skills {
		demandSum += se.Skill.Record.DemandScore
		popularSum += se.Skill.Record.PopularityScore
		if se.Skill.Record.DemandScore > DemandThreshold {
			highDemand++
		}
	}
	avgDemand := demandSum / float64(len(skills))
	avgPopular := popularSum / float64(len(skills))

	position := "Generalist"
	switch {
	case avgDemand > DemandThreshold && avgPopular > DemandThreshold:
		position = "High-Demand Specialist"
	case avgDemand > DemandThreshold:
		position = "Emerging Specialist"
	case avgPopular > DemandThreshold:
		position = "Popular Generalist"
	}

	ratio := float64(highDemand) / float64(len(skills))
	trend := "Consider adding more high-demand skills"
	switch {
	case ratio > 0.7:
		trend = "High demand skills dominate your profile"
	case ratio > 0.4:
		trend = "Good mix of high and moderate demand skills"
	}

	return MarketAnalysis{
		Position:       position,
		AverageDemand:  avgDemand,
		AveragePopular: avgPopular,
		DemandTrend:    trend,
	}
}

// findSkillGaps scans every skill node for high-demand skills the person does
// not hold, strongest demand first, capped at five.
func findSkillGaps(g *graph.Graph, skills []graph.SkillEdge) []SkillGap {
	held := make(map[string]struct{}, len(skills))
	for _, se := range skills {
		held[se.Skill.NodeID()] = struct{}{}
	}

	var gaps []SkillGap
	g.ForEachNode(func(n graph.Node) {
		sk, ok := n.(*graph.SkillNode)
		if !ok {
			return
		}
		if _, has := held[sk.NodeID()]; has {
			return
		}
		if sk.Record.DemandScore <= DemandThreshold {
			return
		}
		gaps = append(gaps, SkillGap{
			Name:        sk.Record.Name,
			Category:    sk.Record.Category,
			DemandScore: sk.Record.DemandScore,
			Description: sk.Record.Description,
		})
	})

	sort.SliceStable(gaps, func(i, j int) bool {
		if gaps[i].DemandScore == gaps[j].DemandScore {
			return gaps[i].Name < gaps[j].Name
		}
		return gaps[i].DemandScore > gaps[j].DemandScore
	})
	if len(gaps) > 5 {
		gaps = gaps[:5]
	}
	return gaps
}
