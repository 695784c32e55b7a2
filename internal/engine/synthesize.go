package engine

import (
	"fmt"
	"strings"
)

// synthesize renders the plain-text summary from the structured answer parts.
// Language quality is not the point here; the structured fields carry the
// real payload and this text is a readable digest of them.
func synthesize(answer *Answer) string {
	var parts []string

	if len(answer.SeedResults) == 0 {
		parts = append(parts, "No closely matching entities were found for this query.")
	} else {
		parts = append(parts, fmt.Sprintf("Found %d relevant matches for your query.", len(answer.SeedResults)))
	}

	if n := len(answer.Insights.SkillNetwork); n > 0 {
		total := 0
		for _, e := range answer.Insights.SkillNetwork {
			total += e.Connections
		}
		parts = append(parts, fmt.Sprintf("The skill network shows %d related-skill connections across %d skills.", total, n))
	}

	if len(answer.Insights.CoOccurringSkills) > 0 {
		first := answer.Insights.CoOccurringSkills[0]
		if len(first.CoOccurring) > 0 {
			parts = append(parts, fmt.Sprintf("%s frequently appears together with %s.", first.Skill, joinSkillNames(first.CoOccurring)))
		}
	}

	if len(answer.Insights.LearningPaths) > 0 {
		first := answer.Insights.LearningPaths[0]
		if len(first.LearningPath) > 0 {
			parts = append(parts, fmt.Sprintf("A natural next step after %s is %s.", first.Skill, strings.Join(first.LearningPath, ", ")))
		}
	}

	if len(answer.Insights.PeopleNetwork) > 0 {
		total := 0
		for _, e := range answer.Insights.PeopleNetwork {
			total += e.Connections
		}
		parts = append(parts, fmt.Sprintf("Found %d potential connections with overlapping skills.", total))
	}

	if len(answer.Insights.MarketDemand) > 0 {
		high := 0
		for _, e := range answer.Insights.MarketDemand {
			if e.HighDemand {
				high++
			}
		}
		if high > 0 {
			parts = append(parts, fmt.Sprintf("%d of the matched skills are in high market demand.", high))
		}
	}

	if len(answer.Insights.RepositoryHighlights) > 0 {
		first := answer.Insights.RepositoryHighlights[0]
		parts = append(parts, fmt.Sprintf("A notable project in this area is %s (%d stars).", first.Name, first.Stars))
	}

	if len(answer.RoleMatches) > 0 {
		best := answer.RoleMatches[0]
		parts = append(parts, fmt.Sprintf(
			"Your strongest role match is %s with %.0f%% core-skill overlap (%s transition, estimated %s).",
			best.Role, best.Overlap*100, strings.ToLower(best.Difficulty), best.EstimatedTime,
		))
		if len(best.MissingCoreSkills) > 0 {
			parts = append(parts, fmt.Sprintf("To get there, focus on: %s.", strings.Join(best.MissingCoreSkills, ", ")))
		}
	}

	return strings.Join(parts, " ")
}

func joinSkillNames(items []CoOccurrence) string {
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Skill)
	}
	return strings.Join(names, ", ")
}
