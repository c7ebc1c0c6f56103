// Package graph provides the two queries the execution driver needs over a
// workflow's flat node/edge lists: entry selection and port-based successor
// selection (spec §4.5). Adapted from the teacher's pkg/graph.Graph —
// same flat-slice holder and GetNode lookup, with Successors in place of
// GetNodeOutputEdges — but with
// the teacher's TopologicalSort dropped: this engine drives execution from
// a FIFO queue seeded by entries and grown by successors as nodes complete,
// not a precomputed total order (spec §9 Open Question, resolved in
// SPEC_FULL.md against a DFS-variant ordering).
package graph

import "github.com/flowloom/engine/internal/types"

// Graph holds a workflow's flat node/edge lists for the driver's two
// queries.
type Graph struct {
	nodes []types.Node
	edges []types.Edge
}

// New builds a Graph from a Workflow's nodes and edges.
func New(workflow types.Workflow) *Graph {
	return &Graph{nodes: workflow.Nodes, edges: workflow.Edges}
}

// GetNode retrieves a node by id, or nil.
func (g *Graph) GetNode(nodeID string) *types.Node {
	for i := range g.nodes {
		if g.nodes[i].ID == nodeID {
			return &g.nodes[i]
		}
	}
	return nil
}

// Entries implements spec §4.5 entry selection: if triggerNodeID is
// non-nil, that single node is the entry (even if it has inbound edges).
// Otherwise every node with no inbound edge is an entry.
func (g *Graph) Entries(triggerNodeID *string) []types.Node {
	if triggerNodeID != nil {
		if n := g.GetNode(*triggerNodeID); n != nil {
			return []types.Node{*n}
		}
		return nil
	}

	hasInbound := make(map[string]bool, len(g.nodes))
	for _, e := range g.edges {
		hasInbound[e.To] = true
	}

	var entries []types.Node
	for _, n := range g.nodes {
		if !hasInbound[n.ID] {
			entries = append(entries, n)
		}
	}
	return entries
}

// Successors implements spec §4.5 successor selection: all edges leaving
// nodeID where port is empty or matches the edge's FromPort.
func (g *Graph) Successors(nodeID, port string) []types.Edge {
	var out []types.Edge
	for _, e := range g.edges {
		if e.From != nodeID {
			continue
		}
		if port != "" && e.FromPort != port {
			continue
		}
		out = append(out, e)
	}
	return out
}
