package graph

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/devcareer/compass-backend/internal/domain"
)

// Node-link JSON: the export/import format for debugging and offline analysis.
// A round trip preserves every node record, embedding, and edge, so an
// imported graph answers traversals identically to the original.

type nodeLinkDoc struct {
	Version string         `json:"version"`
	BuiltAt time.Time      `json:"built_at"`
	Nodes   []nodeLinkNode `json:"nodes"`
	Links   []nodeLinkEdge `json:"links"`
}

type nodeLinkNode struct {
	ID     string          `json:"id"`
	Kind   NodeKind        `json:"kind"`
	Record json.RawMessage `json:"record"`
	Vector []float32       `json:"vector,omitempty"`
}

type nodeLinkEdge struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Type   EdgeType `json:"type"`
	Weight float64  `json:"weight"`
	Detail string   `json:"detail,omitempty"`
}

// MarshalNodeLink serializes the graph. Nodes and links are sorted by id so
// the output is byte-stable for one graph version.
func MarshalNodeLink(g *Graph) ([]byte, error) {
	doc := nodeLinkDoc{
		Version: g.Version.String(),
		BuiltAt: g.BuiltAt,
	}

	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		n := g.nodes[id]
		var record interface{}
		switch v := n.(type) {
		case *PersonNode:
			record = v.Record
		case *SkillNode:
			record = v.Record
		case *RepositoryNode:
			record = v.Record
		default:
			return nil, fmt.Errorf("node %s: unknown kind %q", id, n.Kind())
		}
		raw, err := json.Marshal(record)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", id, err)
		}
		doc.Nodes = append(doc.Nodes, nodeLinkNode{
			ID:     id,
			Kind:   n.Kind(),
			Record: raw,
			Vector: n.Vector(),
		})
	}

	for _, id := range ids {
		for _, e := range g.out[id] {
			doc.Links = append(doc.Links, nodeLinkEdge{
				Source: e.From,
				Target: e.To,
				Type:   e.Type,
				Weight: e.Weight,
				Detail: e.Detail,
			})
		}
	}

	return json.Marshal(doc)
}

// UnmarshalNodeLink reconstructs a graph from node-link JSON.
func UnmarshalNodeLink(data []byte) (*Graph, error) {
	var doc nodeLinkDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode node-link document: %w", err)
	}
	version, err := uuid.Parse(doc.Version)
	if err != nil {
		return nil, fmt.Errorf("parse graph version: %w", err)
	}

	g := newGraph()
	g.Version = version
	g.BuiltAt = doc.BuiltAt

	for _, n := range doc.Nodes {
		switch n.Kind {
		case KindPerson:
			var rec domain.PersonRecord
			if err := json.Unmarshal(n.Record, &rec); err != nil {
				return nil, fmt.Errorf("node %s: %w", n.ID, err)
			}
			g.addNode(&PersonNode{Record: rec, Embedding: n.Vector})
		case KindSkill:
			var rec domain.SkillRecord
			if err := json.Unmarshal(n.Record, &rec); err != nil {
				return nil, fmt.Errorf("node %s: %w", n.ID, err)
			}
			g.addNode(&SkillNode{Record: rec, Embedding: n.Vector})
		case KindRepository:
			var rec domain.RepositoryRecord
			if err := json.Unmarshal(n.Record, &rec); err != nil {
				return nil, fmt.Errorf("node %s: %w", n.ID, err)
			}
			g.addNode(&RepositoryNode{Record: rec, Embedding: n.Vector})
		default:
			return nil, fmt.Errorf("node %s: unknown kind %q", n.ID, n.Kind)
		}
	}

	for _, l := range doc.Links {
		if _, ok := g.nodes[l.Source]; !ok {
			return nil, fmt.Errorf("link source %s not present", l.Source)
		}
		if _, ok := g.nodes[l.Target]; !ok {
			return nil, fmt.Errorf("link target %s not present", l.Target)
		}
		g.addEdge(Edge{From: l.Source, To: l.Target, Type: l.Type, Weight: l.Weight, Detail: l.Detail})
	}

	return g, nil
}
