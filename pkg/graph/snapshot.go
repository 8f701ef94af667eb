package graph

import "sort"

// Snapshot is the portable form of a graph, used by the CLI graph files and
// the browser bridge.
type Snapshot struct {
	Nodes []SnapshotNode `json:"nodes"`
	Edges []SnapshotEdge `json:"edges"`
}

// SnapshotNode is a node entry of a Snapshot
type SnapshotNode struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

// SnapshotEdge is a directed edge entry of a Snapshot
type SnapshotEdge struct {
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Relation string  `json:"relation,omitempty"`
	Weight   float64 `json:"weight,omitempty"`
}

// Snapshot exports the graph with nodes and edges in sorted order
func (g *ConceptGraph) Snapshot() Snapshot {
	s := Snapshot{
		Nodes: make([]SnapshotNode, 0, len(g.Nodes)),
	}
	for _, n := range g.Nodes {
		s.Nodes = append(s.Nodes, SnapshotNode{ID: n.ID, Label: n.Label, Kind: n.Kind})
	}
	sort.Slice(s.Nodes, func(i, j int) bool { return s.Nodes[i].ID < s.Nodes[j].ID })

	for _, e := range g.AllEdges() {
		s.Edges = append(s.Edges, SnapshotEdge{
			Source:   e.Source,
			Target:   e.Target,
			Relation: e.Edge.Relation,
			Weight:   e.Edge.Weight,
		})
	}
	return s
}

// FromSnapshot builds a graph from its portable form. Edges with an empty
// relation are treated as undirected similarity links.
func FromSnapshot(s Snapshot) *ConceptGraph {
	g := NewGraph()
	for _, n := range s.Nodes {
		label := n.Label
		if label == "" {
			label = n.ID
		}
		g.EnsureNode(n.ID, label, n.Kind)
	}
	for _, e := range s.Edges {
		if e.Relation == "" {
			g.Link(e.Source, e.Target, e.Weight)
			continue
		}
		g.AddEdge(e.Source, e.Target, &ConceptEdge{Relation: e.Relation, Weight: e.Weight})
	}
	return g
}
