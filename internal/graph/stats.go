package graph

// Stats summarizes one graph build for operators and the stats CLI output.
type Stats struct {
	Nodes       int            `json:"nodes"`
	Edges       int            `json:"edges"`
	NodesByKind map[string]int `json:"nodes_by_kind"`
	EdgesByType map[string]int `json:"edges_by_type"`
	Density     float64        `json:"density"`
	Components  int            `json:"connected_components"`
	Version     string         `json:"version"`
	BuiltAtUnix int64          `json:"built_at_unix"`
}

// ComputeStats walks the whole graph once. Density is directed edge density
// E / (N * (N-1)); components are computed over the undirected view, which is
// what "is this person reachable from that skill at all" actually asks.
func (g *Graph) ComputeStats() Stats {
	st := Stats{
		Nodes:       g.NodeCount(),
		Edges:       g.EdgeCount(),
		NodesByKind: make(map[string]int),
		EdgesByType: make(map[string]int),
		Version:     g.Version.String(),
		BuiltAtUnix: g.BuiltAt.Unix(),
	}

	g.ForEachNode(func(n Node) {
		st.NodesByKind[string(n.Kind())]++
	})
	for _, edges := range g.out {
		for _, e := range edges {
			st.EdgesByType[string(e.Type)]++
		}
	}

	if st.Nodes > 1 {
		st.Density = float64(st.Edges) / float64(st.Nodes*(st.Nodes-1))
	}
	st.Components = g.countComponents()
	return st
}

func (g *Graph) countComponents() int {
	visited := make(map[string]bool, len(g.nodes))
	var stack []string
	components := 0

	for id := range g.nodes {
		if visited[id] {
			continue
		}
		components++
		stack = append(stack[:0], id)
		visited[id] = true
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, e := range g.out[cur] {
				if !visited[e.To] {
					visited[e.To] = true
					stack = append(stack, e.To)
				}
			}
			for _, e := range g.in[cur] {
				if !visited[e.From] {
					visited[e.From] = true
					stack = append(stack, e.From)
				}
			}
		}
	}
	return components
}
