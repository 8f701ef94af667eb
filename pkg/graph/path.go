package graph

import "fmt"

// ShortestPath returns the node IDs of a fewest-hops path from -> to,
// inclusive of both ends. Neighbors are expanded in sorted order, so the
// result is deterministic for a given snapshot.
func (g *ConceptGraph) ShortestPath(from, to string) ([]string, error) {
	if !g.HasNode(from) {
		return nil, fmt.Errorf("%w: %q", ErrNodeNotFound, from)
	}
	if !g.HasNode(to) {
		return nil, fmt.Errorf("%w: %q", ErrNodeNotFound, to)
	}
	if from == to {
		return []string{from}, nil
	}

	parent := map[string]string{from: ""}
	queue := []string{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, next := range g.NeighborIDs(cur) {
			if _, seen := parent[next]; seen {
				continue
			}
			parent[next] = cur
			if next == to {
				return unwind(parent, from, to), nil
			}
			queue = append(queue, next)
		}
	}

	return nil, fmt.Errorf("%w: %q -> %q", ErrNoPath, from, to)
}

func unwind(parent map[string]string, from, to string) []string {
	var rev []string
	for cur := to; cur != from; cur = parent[cur] {
		rev = append(rev, cur)
	}
	rev = append(rev, from)

	path := make([]string, len(rev))
	for i, id := range rev {
		path[len(rev)-1-i] = id
	}
	return path
}
