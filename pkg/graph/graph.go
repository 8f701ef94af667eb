// Package graph provides the labeled similarity graph the path encoder
// indexes. Nodes are opaque string labels; an edge is an ordered
// (source, target) pair carrying the similarity that produced it.
package graph

import (
	"errors"
	"sort"
)

var (
	ErrNodeNotFound = errors.New("graph: node not found")
	ErrNoPath       = errors.New("graph: no path")
)

// RelSimilar is the relation of undirected similarity links.
const RelSimilar = "SIMILAR"

// ConceptNode represents a document or chunk in the graph
type ConceptNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Kind  string `json:"kind"`
}

// ConceptEdge represents a relationship between two nodes
type ConceptEdge struct {
	Relation string  `json:"relation"`
	Weight   float64 `json:"weight"`
}

// ConceptGraph is a directed graph; undirected similarity links are stored
// as a pair of opposite edges.
type ConceptGraph struct {
	// Node storage: ID -> Node
	Nodes map[string]*ConceptNode `json:"nodes"`

	// Adjacency lists: SourceID -> TargetID -> Edge
	Outbound map[string]map[string]*ConceptEdge `json:"outbound"`
	Inbound  map[string]map[string]*ConceptEdge `json:"inbound"`
}

// NewGraph creates an empty graph
func NewGraph() *ConceptGraph {
	return &ConceptGraph{
		Nodes:    make(map[string]*ConceptNode),
		Outbound: make(map[string]map[string]*ConceptEdge),
		Inbound:  make(map[string]map[string]*ConceptEdge),
	}
}

// EnsureNode adds a node if it doesn't exist, returns existing node otherwise
func (g *ConceptGraph) EnsureNode(id, label, kind string) *ConceptNode {
	if existing, exists := g.Nodes[id]; exists {
		return existing
	}

	node := &ConceptNode{
		ID:    id,
		Label: label,
		Kind:  kind,
	}
	g.Nodes[id] = node
	return node
}

// HasNode reports whether id is present
func (g *ConceptGraph) HasNode(id string) bool {
	_, ok := g.Nodes[id]
	return ok
}

// AddEdge creates a directed edge from source to target.
// Both endpoints are created as bare nodes when missing.
func (g *ConceptGraph) AddEdge(sourceID, targetID string, edge *ConceptEdge) {
	g.EnsureNode(sourceID, sourceID, "")
	g.EnsureNode(targetID, targetID, "")

	if g.Outbound[sourceID] == nil {
		g.Outbound[sourceID] = make(map[string]*ConceptEdge)
	}
	g.Outbound[sourceID][targetID] = edge

	// Maintain reverse index
	if g.Inbound[targetID] == nil {
		g.Inbound[targetID] = make(map[string]*ConceptEdge)
	}
	g.Inbound[targetID][sourceID] = edge
}

// Link adds an undirected similarity edge between a and b.
// Self links are ignored.
func (g *ConceptGraph) Link(a, b string, weight float64) {
	if a == b {
		g.EnsureNode(a, a, "")
		return
	}
	g.AddEdge(a, b, &ConceptEdge{Relation: RelSimilar, Weight: weight})
	g.AddEdge(b, a, &ConceptEdge{Relation: RelSimilar, Weight: weight})
}

// RemoveEdge deletes the directed edge source -> target if present
func (g *ConceptGraph) RemoveEdge(sourceID, targetID string) {
	if targets := g.Outbound[sourceID]; targets != nil {
		delete(targets, targetID)
		if len(targets) == 0 {
			delete(g.Outbound, sourceID)
		}
	}
	if sources := g.Inbound[targetID]; sources != nil {
		delete(sources, sourceID)
		if len(sources) == 0 {
			delete(g.Inbound, targetID)
		}
	}
}

// NeighborIDs returns the IDs adjacent to id in either direction, sorted by
// byte order. A self loop does not make a node its own neighbor.
func (g *ConceptGraph) NeighborIDs(id string) []string {
	seen := make(map[string]bool)
	var result []string

	for targetID := range g.Outbound[id] {
		if targetID != id && !seen[targetID] {
			seen[targetID] = true
			result = append(result, targetID)
		}
	}
	for sourceID := range g.Inbound[id] {
		if sourceID != id && !seen[sourceID] {
			seen[sourceID] = true
			result = append(result, sourceID)
		}
	}

	sort.Strings(result)
	return result
}

// NodeCount returns the number of nodes
func (g *ConceptGraph) NodeCount() int {
	return len(g.Nodes)
}

// EdgeCount returns the number of directed edges
func (g *ConceptGraph) EdgeCount() int {
	count := 0
	for _, targets := range g.Outbound {
		count += len(targets)
	}
	return count
}

// EdgeRef is a resolved directed edge
type EdgeRef struct {
	Source string
	Target string
	Edge   *ConceptEdge
}

// AllEdges returns every directed edge ordered by (source, target)
func (g *ConceptGraph) AllEdges() []EdgeRef {
	var result []EdgeRef
	for sourceID, targets := range g.Outbound {
		for targetID, edge := range targets {
			result = append(result, EdgeRef{Source: sourceID, Target: targetID, Edge: edge})
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Source != result[j].Source {
			return result[i].Source < result[j].Source
		}
		return result[i].Target < result[j].Target
	})
	return result
}

// Clear removes all nodes and edges
func (g *ConceptGraph) Clear() {
	g.Nodes = make(map[string]*ConceptNode)
	g.Outbound = make(map[string]map[string]*ConceptEdge)
	g.Inbound = make(map[string]map[string]*ConceptEdge)
}

// DegreeCentrality returns, for each node, the share of the other nodes it
// is adjacent to in either direction.
func (g *ConceptGraph) DegreeCentrality() map[string]float64 {
	result := make(map[string]float64, len(g.Nodes))
	others := float64(len(g.Nodes) - 1)
	for id := range g.Nodes {
		if others <= 0 {
			result[id] = 0
			continue
		}
		result[id] = float64(len(g.NeighborIDs(id))) / others
	}
	return result
}

// OrphanNodes returns the sorted IDs of nodes without neighbors.
func (g *ConceptGraph) OrphanNodes() []string {
	var orphans []string
	for id := range g.Nodes {
		if len(g.NeighborIDs(id)) == 0 {
			orphans = append(orphans, id)
		}
	}
	sort.Strings(orphans)
	return orphans
}

// Stats summarizes the graph for the dashboard.
type Stats struct {
	Nodes int `json:"nodes"`
	// Edges counts directed edges; a similarity link counts twice.
	Edges   int      `json:"edges"`
	Orphans []string `json:"orphans"`
	// Hubs are the nodes of highest degree centrality, sorted.
	Hubs       []string `json:"hubs"`
	Centrality float64  `json:"centrality"`
}

// Stats computes node, edge and orphan counts and the best connected nodes.
func (g *ConceptGraph) Stats() Stats {
	st := Stats{
		Nodes:   g.NodeCount(),
		Edges:   g.EdgeCount(),
		Orphans: g.OrphanNodes(),
	}
	for id, c := range g.DegreeCentrality() {
		switch {
		case c == 0:
		case c > st.Centrality:
			st.Centrality = c
			st.Hubs = []string{id}
		case c == st.Centrality:
			st.Hubs = append(st.Hubs, id)
		}
	}
	sort.Strings(st.Hubs)
	return st
}
