// Package graph mirrors each built career graph into neo4j so the graph can
// be explored with Cypher tooling. The in-memory graph stays the source of
// truth; the mirror is write-only and best effort.
package graph

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/devcareer/compass-backend/internal/graph"
	"github.com/devcareer/compass-backend/internal/platform/logger"
	"github.com/devcareer/compass-backend/internal/platform/neo4jdb"
)

type CareerGraphMirror struct {
	log    *logger.Logger
	client *neo4jdb.Client
}

func NewCareerGraphMirror(log *logger.Logger, client *neo4jdb.Client) *CareerGraphMirror {
	var scoped *logger.Logger
	if log != nil {
		scoped = log.With("service", "CareerGraphMirror")
	}
	return &CareerGraphMirror{log: scoped, client: client}
}

// Sync replaces the mirrored graph with the given version. A nil client makes
// the mirror a no-op, which is how deploys without neo4j run.
func (m *CareerGraphMirror) Sync(ctx context.Context, g *graph.Graph) error {
	if m == nil || m.client == nil || m.client.Driver == nil || g == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	version := g.Version.String()

	var people, skills, repos []map[string]any
	g.ForEachNode(func(n graph.Node) {
		switch node := n.(type) {
		case *graph.PersonNode:
			people = append(people, map[string]any{
				"id":            node.NodeID(),
				"handle":        node.Record.Handle,
				"name":          node.Record.Name,
				"location":      node.Record.Location,
				"company":       node.Record.Company,
				"followers":     node.Record.Followers,
				"graph_version": version,
				"synced_at":     now,
			})
		case *graph.SkillNode:
			skills = append(skills, map[string]any{
				"id":            node.NodeID(),
				"name":          node.Record.Name,
				"category":      node.Record.Category,
				"popularity":    node.Record.PopularityScore,
				"demand":        node.Record.DemandScore,
				"graph_version": version,
				"synced_at":     now,
			})
		case *graph.RepositoryNode:
			repos = append(repos, map[string]any{
				"id":            node.NodeID(),
				"name":          node.Record.Name,
				"full_name":     node.Record.FullName,
				"language":      node.Record.Language,
				"stars":         node.Record.Stars,
				"forks":         node.Record.Forks,
				"is_fork":       node.Record.IsFork,
				"graph_version": version,
				"synced_at":     now,
			})
		}
	})

	edgesByType := make(map[graph.EdgeType][]map[string]any)
	g.ForEachNode(func(n graph.Node) {
		for _, e := range g.OutEdges(n.NodeID()) {
			edgesByType[e.Type] = append(edgesByType[e.Type], map[string]any{
				"from":          e.From,
				"to":            e.To,
				"weight":        e.Weight,
				"detail":        e.Detail,
				"graph_version": version,
				"synced_at":     now,
			})
		}
	})

	session := m.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: m.client.Database,
	})
	defer session.Close(ctx)

	// Best-effort schema init.
	for _, q := range []string{
		`CREATE CONSTRAINT person_id_unique IF NOT EXISTS FOR (p:Person) REQUIRE p.id IS UNIQUE`,
		`CREATE CONSTRAINT skill_id_unique IF NOT EXISTS FOR (s:Skill) REQUIRE s.id IS UNIQUE`,
		`CREATE CONSTRAINT repository_id_unique IF NOT EXISTS FOR (r:Repository) REQUIRE r.id IS UNIQUE`,
	} {
		if res, err := session.Run(ctx, q, nil); err != nil {
			if m.log != nil {
				m.log.Warn("neo4j schema init failed (continuing)", "error", err)
			}
		} else {
			_, _ = res.Consume(ctx)
		}
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		nodeBatches := []struct {
			label string
			rows  []map[string]any
		}{
			{"Person", people},
			{"Skill", skills},
			{"Repository", repos},
		}
		for _, batch := range nodeBatches {
			if len(batch.rows) == 0 {
				continue
			}
			res, err := tx.Run(ctx, `
UNWIND $rows AS row
MERGE (n:`+batch.label+` {id: row.id})
SET n += row
`, map[string]any{"rows": batch.rows})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}

		relBatches := []struct {
			relType string
			rows    []map[string]any
		}{
			{"HAS_SKILL", edgesByType[graph.EdgeHasSkill]},
			{"OWNS", edgesByType[graph.EdgeOwns]},
			{"USES", edgesByType[graph.EdgeUses]},
			{"SIMILAR_TO", edgesByType[graph.EdgeSimilarTo]},
		}
		for _, batch := range relBatches {
			if len(batch.rows) == 0 {
				continue
			}
			res, err := tx.Run(ctx, `
UNWIND $rows AS row
MATCH (a {id: row.from})
MATCH (b {id: row.to})
MERGE (a)-[e:`+batch.relType+`]->(b)
SET e.weight = row.weight,
    e.detail = row.detail,
    e.graph_version = row.graph_version,
    e.synced_at = row.synced_at
`, map[string]any{"rows": batch.rows})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}

		// Drop anything from previous graph versions.
		res, err := tx.Run(ctx, `
MATCH (n)
WHERE n.graph_version IS NOT NULL AND n.graph_version <> $version
DETACH DELETE n
`, map[string]any{"version": version})
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return err
	}

	if m.log != nil {
		m.log.Info("career graph mirrored",
			"graph_version", version,
			"people", len(people),
			"skills", len(skills),
			"repositories", len(repos),
		)
	}
	return nil
}
