package engine

import (
	"sort"

	"github.com/devcareer/compass-backend/internal/graph"
	"github.com/devcareer/compass-backend/internal/roles"
)

const maxInsightEntries = 5

// expand is stage 2: map seed hits to graph nodes and walk their direct
// neighborhoods, computing only the insight kinds the category asks for.
// Seeds with no graph node (postings, stale ids) are skipped silently.
func expand(g *graph.Graph, catalog *roles.Catalog, seeds []SeedResult, kinds []InsightKind) GraphInsights {
	var skillIDs, personIDs, repoIDs []string
	for _, seed := range seeds {
		node, ok := g.Node(seed.ID)
		if !ok {
			continue
		}
		switch node.Kind() {
		case graph.KindSkill:
			skillIDs = append(skillIDs, seed.ID)
		case graph.KindPerson:
			personIDs = append(personIDs, seed.ID)
		case graph.KindRepository:
			repoIDs = append(repoIDs, seed.ID)
		}
	}

	var out GraphInsights
	for _, kind := range kinds {
		switch kind {
		case InsightSkillNetwork:
			out.SkillNetwork = skillNetwork(g, skillIDs)
		case InsightCoOccurringSkills:
			out.CoOccurringSkills = coOccurringSkills(g, skillIDs)
		case InsightLearningPaths:
			out.LearningPaths = learningPaths(g, catalog, skillIDs)
		case InsightPeopleNetwork:
			out.PeopleNetwork = peopleNetwork(g, personIDs)
		case InsightMarketDemand:
			out.MarketDemand = marketDemand(g, skillIDs)
		case InsightRepositoryHighlights:
			out.RepositoryHighlights = repositoryHighlights(g, repoIDs)
		}
	}
	return out
}

func skillNetwork(g *graph.Graph, skillIDs []string) []SkillNetworkEntry {
	var out []SkillNetworkEntry
	for _, id := range skillIDs {
		node, ok := g.Node(id)
		if !ok {
			continue
		}
		similar := g.SimilarSkills(id)
		if len(similar) == 0 {
			continue
		}
		entry := SkillNetworkEntry{Skill: node.Label(), Connections: len(similar)}
		for _, se := range similar {
			entry.RelatedSkills = append(entry.RelatedSkills, RelatedSkill{
				Name:     se.Skill.Record.Name,
				Strength: se.Edge.Weight,
			})
		}
		out = append(out, entry)
		if len(out) == maxInsightEntries {
			break
		}
	}
	return out
}

// coOccurringSkills counts, for each seed skill, the other skills held by the
// same people, most frequent first.
func coOccurringSkills(g *graph.Graph, skillIDs []string) []CoOccurrenceEntry {
	var out []CoOccurrenceEntry
	for _, id := range skillIDs {
		node, ok := g.Node(id)
		if !ok {
			continue
		}
		counts := make(map[string]int)
		for _, in := range g.InEdges(id) {
			if in.Type != graph.EdgeHasSkill {
				continue
			}
			for _, se := range g.SkillsOf(in.From) {
				if se.Skill.NodeID() == id {
					continue
				}
				counts[se.Skill.Record.Name]++
			}
		}
		if len(counts) == 0 {
			continue
		}

		ranked := make([]CoOccurrence, 0, len(counts))
		for name, freq := range counts {
			ranked = append(ranked, CoOccurrence{Skill: name, Frequency: freq})
		}
		sort.SliceStable(ranked, func(i, j int) bool {
			if ranked[i].Frequency == ranked[j].Frequency {
				return ranked[i].Skill < ranked[j].Skill
			}
			return ranked[i].Frequency > ranked[j].Frequency
		})
		if len(ranked) > 3 {
			ranked = ranked[:3]
		}
		out = append(out, CoOccurrenceEntry{Skill: node.Label(), CoOccurring: ranked})
		if len(out) == maxInsightEntries {
			break
		}
	}
	return out
}

func learningPaths(g *graph.Graph, catalog *roles.Catalog, skillIDs []string) []LearningPathEntry {
	var out []LearningPathEntry
	for _, id := range skillIDs {
		node, ok := g.Node(id)
		if !ok {
			continue
		}
		var related []string
		for _, se := range g.SimilarSkills(id) {
			related = append(related, se.Skill.Record.Name)
			if len(related) == 3 {
				break
			}
		}
		out = append(out, LearningPathEntry{
			Skill:         node.Label(),
			LearningPath:  related,
			Difficulty:    "Intermediate",
			EstimatedTime: "2-4 months",
			Resources:     catalog.ResourcesFor(node.Label()),
		})
		if len(out) == maxInsightEntries {
			break
		}
	}
	return out
}

// peopleNetwork finds, for each seed person, other people who hold the same
// skills, ranked by shared-skill count.
func peopleNetwork(g *graph.Graph, personIDs []string) []PersonNetworkEntry {
	var out []PersonNetworkEntry
	for _, id := range personIDs {
		node, ok := g.Node(id)
		if !ok {
			continue
		}
		shared := make(map[string]int)
		handles := make(map[string]string)
		for _, se := range g.SkillsOf(id) {
			for _, in := range g.InEdges(se.Skill.NodeID()) {
				if in.Type != graph.EdgeHasSkill || in.From == id {
					continue
				}
				other, ok := g.Node(in.From)
				if !ok {
					continue
				}
				shared[in.From]++
				handles[in.From] = other.Label()
			}
		}
		if len(shared) == 0 {
			continue
		}

		ranked := make([]SimilarPerson, 0, len(shared))
		for otherID, count := range shared {
			ranked = append(ranked, SimilarPerson{Handle: handles[otherID], SharedSkills: count})
		}
		sort.SliceStable(ranked, func(i, j int) bool {
			if ranked[i].SharedSkills == ranked[j].SharedSkills {
				return ranked[i].Handle < ranked[j].Handle
			}
			return ranked[i].SharedSkills > ranked[j].SharedSkills
		})
		if len(ranked) > 3 {
			ranked = ranked[:3]
		}
		out = append(out, PersonNetworkEntry{
			Handle:        node.Label(),
			Connections:   len(shared),
			SimilarPeople: ranked,
		})
		if len(out) == maxInsightEntries {
			break
		}
	}
	return out
}

func marketDemand(g *graph.Graph, skillIDs []string) []MarketDemandEntry {
	var out []MarketDemandEntry
	for _, id := range skillIDs {
		node, ok := g.Node(id)
		if !ok {
			continue
		}
		sk, ok := node.(*graph.SkillNode)
		if !ok {
			continue
		}
		out = append(out, MarketDemandEntry{
			Skill:           sk.Record.Name,
			DemandScore:     sk.Record.DemandScore,
			PopularityScore: sk.Record.PopularityScore,
			HighDemand:      sk.Record.DemandScore > 7.0,
		})
		if len(out) == maxInsightEntries {
			break
		}
	}
	return out
}

func repositoryHighlights(g *graph.Graph, repoIDs []string) []RepositoryHighlight {
	var out []RepositoryHighlight
	for _, id := range repoIDs {
		node, ok := g.Node(id)
		if !ok {
			continue
		}
		repo, ok := node.(*graph.RepositoryNode)
		if !ok {
			continue
		}
		highlight := RepositoryHighlight{
			Name:     repo.Record.Name,
			Language: repo.Record.Language,
			Stars:    repo.Record.Stars,
			Forks:    repo.Record.Forks,
		}
		for _, e := range g.OutEdges(id) {
			if e.Type != graph.EdgeUses {
				continue
			}
			if sk, ok := g.Node(e.To); ok {
				highlight.Skills = append(highlight.Skills, sk.Label())
			}
		}
		out = append(out, highlight)
		if len(out) == maxInsightEntries {
			break
		}
	}
	return out
}
