// Package graph holds the in-memory career knowledge graph: a typed, weighted,
// directed multigraph over people, skills, and repositories. A Graph is built
// in one pass from a snapshot and never mutated afterwards, so any number of
// readers may traverse it concurrently while the next version is being built.
package graph

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/devcareer/compass-backend/internal/domain"
)

type NodeKind string

const (
	KindPerson     NodeKind = "person"
	KindSkill      NodeKind = "skill"
	KindRepository NodeKind = "repository"
)

type EdgeType string

const (
	EdgeHasSkill  EdgeType = "has_skill"
	EdgeOwns      EdgeType = "owns"
	EdgeUses      EdgeType = "uses"
	EdgeSimilarTo EdgeType = "similar_to"
)

// Node is a tagged variant: exactly one of the concrete node types below.
// Traversal code switches on the concrete type instead of probing attribute
// maps.
type Node interface {
	NodeID() string
	Kind() NodeKind
	Vector() []float32
	Label() string
}

type PersonNode struct {
	Record    domain.PersonRecord
	Embedding []float32
}

func (n *PersonNode) NodeID() string    { return PersonID(n.Record.ID) }
func (n *PersonNode) Kind() NodeKind    { return KindPerson }
func (n *PersonNode) Vector() []float32 { return n.Embedding }
func (n *PersonNode) Label() string     { return n.Record.Handle }

type SkillNode struct {
	Record    domain.SkillRecord
	Embedding []float32
}

func (n *SkillNode) NodeID() string    { return SkillID(n.Record.ID) }
func (n *SkillNode) Kind() NodeKind    { return KindSkill }
func (n *SkillNode) Vector() []float32 { return n.Embedding }
func (n *SkillNode) Label() string     { return n.Record.Name }

type RepositoryNode struct {
	Record    domain.RepositoryRecord
	Embedding []float32
}

func (n *RepositoryNode) NodeID() string    { return RepositoryID(n.Record.ID) }
func (n *RepositoryNode) Kind() NodeKind    { return KindRepository }
func (n *RepositoryNode) Vector() []float32 { return n.Embedding }
func (n *RepositoryNode) Label() string     { return n.Record.FullName }

// Node ids are <kind>_<entity id>, stable across rebuilds.

func PersonID(id int64) string     { return "person_" + strconv.FormatInt(id, 10) }
func SkillID(id int64) string      { return "skill_" + strconv.FormatInt(id, 10) }
func RepositoryID(id int64) string { return "repository_" + strconv.FormatInt(id, 10) }

// Edge is a directed, weighted, typed edge. Detail carries the edge-type
// specific annotation: proficiency tier for has_skill, language kind or topic
// for uses.
type Edge struct {
	From   string
	To     string
	Type   EdgeType
	Weight float64
	Detail string
}

// Graph is an immutable snapshot. Version identifies one build; readers that
// hold a *Graph keep exactly the version they started with.
type Graph struct {
	Version uuid.UUID
	BuiltAt time.Time

	nodes       map[string]Node
	out         map[string][]Edge
	in          map[string][]Edge
	edgeCount   int
	skillByName map[string]string
}

func newGraph() *Graph {
	return &Graph{
		Version:     uuid.New(),
		BuiltAt:     time.Now().UTC(),
		nodes:       make(map[string]Node),
		out:         make(map[string][]Edge),
		in:          make(map[string][]Edge),
		skillByName: make(map[string]string),
	}
}

func (g *Graph) addNode(n Node) {
	g.nodes[n.NodeID()] = n
	if sk, ok := n.(*SkillNode); ok {
		g.skillByName[strings.ToLower(strings.TrimSpace(sk.Record.Name))] = sk.NodeID()
	}
}

func (g *Graph) addEdge(e Edge) {
	g.out[e.From] = append(g.out[e.From], e)
	g.in[e.To] = append(g.in[e.To], e)
	g.edgeCount++
}

func (g *Graph) NodeCount() int { return len(g.nodes) }
func (g *Graph) EdgeCount() int { return g.edgeCount }

func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// SkillIDByName resolves a skill node id by case-insensitive name match.
func (g *Graph) SkillIDByName(name string) (string, bool) {
	id, ok := g.skillByName[strings.ToLower(strings.TrimSpace(name))]
	return id, ok
}

func (g *Graph) OutEdges(id string) []Edge { return g.out[id] }
func (g *Graph) InEdges(id string) []Edge  { return g.in[id] }

// ForEachNode visits every node in unspecified order.
func (g *Graph) ForEachNode(fn func(Node)) {
	for _, n := range g.nodes {
		fn(n)
	}
}

// SkillsOf returns the has_skill edges leaving a person together with the
// skill nodes they point at.
func (g *Graph) SkillsOf(personID string) []SkillEdge {
	var out []SkillEdge
	for _, e := range g.out[personID] {
		if e.Type != EdgeHasSkill {
			continue
		}
		if sk, ok := g.nodes[e.To].(*SkillNode); ok {
			out = append(out, SkillEdge{Skill: sk, Edge: e})
		}
	}
	return out
}

// RepositoriesOf returns the owns edges leaving a person together with the
// repository nodes they point at.
func (g *Graph) RepositoriesOf(personID string) []RepositoryEdge {
	var out []RepositoryEdge
	for _, e := range g.out[personID] {
		if e.Type != EdgeOwns {
			continue
		}
		if repo, ok := g.nodes[e.To].(*RepositoryNode); ok {
			out = append(out, RepositoryEdge{Repository: repo, Edge: e})
		}
	}
	return out
}

// SimilarSkills returns skills connected to skillID by similar_to edges,
// strongest first.
func (g *Graph) SimilarSkills(skillID string) []SkillEdge {
	var out []SkillEdge
	for _, e := range g.out[skillID] {
		if e.Type != EdgeSimilarTo {
			continue
		}
		if sk, ok := g.nodes[e.To].(*SkillNode); ok {
			out = append(out, SkillEdge{Skill: sk, Edge: e})
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Edge.Weight > out[j-1].Edge.Weight; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

type SkillEdge struct {
	Skill *SkillNode
	Edge  Edge
}

type RepositoryEdge struct {
	Repository *RepositoryNode
	Edge       Edge
}
