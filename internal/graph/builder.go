package graph

import (
	"context"
	"strings"

	"github.com/devcareer/compass-backend/internal/domain"
	"github.com/devcareer/compass-backend/internal/embeddings"
	"github.com/devcareer/compass-backend/internal/platform/logger"
)

const DefaultSimilarityThreshold = 0.7

// BuilderConfig carries the tunables the source treated as literals. The
// similarity threshold has no documented derivation; it is configuration, not
// a validated rule.
type BuilderConfig struct {
	SimilarityThreshold float64
}

func (c BuilderConfig) withDefaults() BuilderConfig {
	if c.SimilarityThreshold <= 0 {
		c.SimilarityThreshold = DefaultSimilarityThreshold
	}
	return c
}

// Builder produces a complete Graph from one snapshot. Individual records that
// cannot be turned into nodes or edges are logged and skipped; upstream feeds
// vary in quality and a single bad record must not abort a refresh.
type Builder struct {
	log      *logger.Logger
	embedder *embeddings.Provider
	cfg      BuilderConfig
}

func NewBuilder(log *logger.Logger, embedder *embeddings.Provider, cfg BuilderConfig) *Builder {
	var scoped *logger.Logger
	if log != nil {
		scoped = log.With("service", "GraphBuilder")
	}
	return &Builder{log: scoped, embedder: embedder, cfg: cfg.withDefaults()}
}

// Build runs the ordered passes: nodes with embeddings, then has_skill, owns,
// uses, and finally the derived similar_to edges.
func (b *Builder) Build(ctx context.Context, snap *domain.Snapshot) *Graph {
	g := newGraph()
	if snap == nil {
		return g
	}

	reposByPerson := make(map[int64][]domain.RepositoryRecord)
	for _, r := range snap.Repositories {
		reposByPerson[r.PersonID] = append(reposByPerson[r.PersonID], r)
	}
	skillsByID := make(map[int64]domain.SkillRecord, len(snap.Skills))
	for _, s := range snap.Skills {
		skillsByID[s.ID] = s
	}
	skillsByPerson := make(map[int64][]domain.SkillRecord)
	for _, rel := range snap.SkillRelations {
		if s, ok := skillsByID[rel.SkillID]; ok {
			skillsByPerson[rel.PersonID] = append(skillsByPerson[rel.PersonID], s)
		}
	}

	b.addSkillNodes(ctx, g, snap.Skills)
	b.addPersonNodes(ctx, g, snap.People, reposByPerson, skillsByPerson)
	b.addRepositoryNodes(ctx, g, snap.Repositories)

	b.addHasSkillEdges(g, snap.SkillRelations)
	b.addOwnsEdges(g, snap.Repositories)
	b.addUsesEdges(g, snap.Repositories)
	b.addSimilarityEdges(g, snap.Skills)

	if b.log != nil {
		b.log.Info("graph built",
			"version", g.Version.String(),
			"nodes", g.NodeCount(),
			"edges", g.EdgeCount(),
		)
	}
	return g
}

func (b *Builder) addSkillNodes(ctx context.Context, g *Graph, skills []domain.SkillRecord) {
	for _, s := range skills {
		if s.ID == 0 || strings.TrimSpace(s.Name) == "" {
			b.skip("skill record missing id or name", "skill_id", s.ID)
			continue
		}
		g.addNode(&SkillNode{
			Record:    s,
			Embedding: b.embedder.Embed(ctx, embeddings.SkillText(s)),
		})
	}
}

func (b *Builder) addPersonNodes(
	ctx context.Context,
	g *Graph,
	people []domain.PersonRecord,
	reposByPerson map[int64][]domain.RepositoryRecord,
	skillsByPerson map[int64][]domain.SkillRecord,
) {
	for _, p := range people {
		if p.ID == 0 || strings.TrimSpace(p.Handle) == "" {
			b.skip("person record missing id or handle", "person_id", p.ID)
			continue
		}
		text := embeddings.PersonText(p, reposByPerson[p.ID], skillsByPerson[p.ID])
		g.addNode(&PersonNode{Record: p, Embedding: b.embedder.Embed(ctx, text)})
	}
}

func (b *Builder) addRepositoryNodes(ctx context.Context, g *Graph, repos []domain.RepositoryRecord) {
	for _, r := range repos {
		if r.ID == 0 || strings.TrimSpace(r.Name) == "" {
			b.skip("repository record missing id or name", "repository_id", r.ID)
			continue
		}
		g.addNode(&RepositoryNode{
			Record:    r,
			Embedding: b.embedder.Embed(ctx, embeddings.RepositoryText(r)),
		})
	}
}

func (b *Builder) addHasSkillEdges(g *Graph, relations []domain.SkillRelation) {
	for _, rel := range relations {
		from := PersonID(rel.PersonID)
		to := SkillID(rel.SkillID)
		if _, ok := g.Node(from); !ok {
			b.skip("has_skill relation references unknown person", "person_id", rel.PersonID)
			continue
		}
		if _, ok := g.Node(to); !ok {
			b.skip("has_skill relation references unknown skill", "skill_id", rel.SkillID)
			continue
		}
		g.addEdge(Edge{
			From:   from,
			To:     to,
			Type:   EdgeHasSkill,
			Weight: hasSkillWeight(rel),
			Detail: rel.Proficiency,
		})
	}
}

func (b *Builder) addOwnsEdges(g *Graph, repos []domain.RepositoryRecord) {
	for _, r := range repos {
		from := PersonID(r.PersonID)
		to := RepositoryID(r.ID)
		if _, ok := g.Node(from); !ok {
			b.skip("repository references unknown owner", "repository_id", r.ID)
			continue
		}
		if _, ok := g.Node(to); !ok {
			continue
		}
		g.addEdge(Edge{From: from, To: to, Type: EdgeOwns, Weight: ownsWeight(r)})
	}
}

// uses edges match repository languages and topics against the skill name
// space by exact (case-insensitive) name.
func (b *Builder) addUsesEdges(g *Graph, repos []domain.RepositoryRecord) {
	for _, r := range repos {
		from := RepositoryID(r.ID)
		if _, ok := g.Node(from); !ok {
			continue
		}
		seen := make(map[string]struct{})
		link := func(name string, weight float64, detail string) {
			skillID, ok := g.SkillIDByName(name)
			if !ok {
				return
			}
			// Keep the strongest match when a language doubles as a topic.
			if _, dup := seen[skillID]; dup {
				return
			}
			seen[skillID] = struct{}{}
			g.addEdge(Edge{From: from, To: skillID, Type: EdgeUses, Weight: weight, Detail: detail})
		}

		if r.Language != "" {
			link(r.Language, 1.0, "primary")
		}
		for lang := range r.Languages {
			link(lang, 0.5, "secondary")
		}
		for _, topic := range r.Topics {
			link(topic, 0.3, "topic")
		}
	}
}

// addSimilarityEdges is the one deliberately quadratic pass: pairwise cosine
// over the skill vocabulary, which stays small relative to people and
// repositories. Re-evaluate if the vocabulary grows past a few thousand.
func (b *Builder) addSimilarityEdges(g *Graph, skills []domain.SkillRecord) {
	nodes := make([]*SkillNode, 0, len(skills))
	for _, s := range skills {
		if n, ok := g.Node(SkillID(s.ID)); ok {
			if sk, ok := n.(*SkillNode); ok {
				nodes = append(nodes, sk)
			}
		}
	}

	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			sim := embeddings.Cosine(nodes[i].Embedding, nodes[j].Embedding)
			// Strictly above threshold; an exact-threshold pair stays implicit.
			if sim <= b.cfg.SimilarityThreshold {
				continue
			}
			// Materialized symmetrically; below-threshold pairs stay implicit
			// to avoid a dense quadratic edge set at low signal.
			g.addEdge(Edge{From: nodes[i].NodeID(), To: nodes[j].NodeID(), Type: EdgeSimilarTo, Weight: sim})
			g.addEdge(Edge{From: nodes[j].NodeID(), To: nodes[i].NodeID(), Type: EdgeSimilarTo, Weight: sim})
		}
	}
}

func (b *Builder) skip(msg string, keysAndValues ...interface{}) {
	if b.log != nil {
		b.log.Warn(msg, keysAndValues...)
	}
}

var proficiencyWeights = map[string]float64{
	domain.ProficiencyBeginner:     0.3,
	domain.ProficiencyIntermediate: 0.6,
	domain.ProficiencyAdvanced:     0.8,
	domain.ProficiencyExpert:       1.0,
}

func hasSkillWeight(rel domain.SkillRelation) float64 {
	base, ok := proficiencyWeights[strings.ToLower(strings.TrimSpace(rel.Proficiency))]
	if !ok {
		base = 0.5
	}
	usage := 0.5
	if rel.UsageFrequency > 0 {
		usage = rel.UsageFrequency / 100.0
		if usage > 1.0 {
			usage = 1.0
		}
	}
	return base * usage
}

func ownsWeight(r domain.RepositoryRecord) float64 {
	weight := 1.0
	if r.Stars > 0 {
		bump := float64(r.Stars) / 1000.0
		if bump > 1.0 {
			bump = 1.0
		}
		weight += bump
	}
	if r.Forks > 0 {
		bump := float64(r.Forks) / 100.0
		if bump > 0.5 {
			bump = 0.5
		}
		weight += bump
	}
	if weight > 2.0 {
		weight = 2.0
	}
	return weight
}
