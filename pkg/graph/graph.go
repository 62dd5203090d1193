// Package graph turns the loosely shaped graph payloads served by the
// Bonfires backend into canonical nodes and edges, and merges successive
// fetches of the same graph without duplicating either.
package graph

import "strings"

type NodeType string

const (
	NodeEntity  NodeType = "entity"
	NodeEpisode NodeType = "episode"
)

// Node is a canonical graph node. UUID never carries the "n:" prefix.
type Node struct {
	UUID       string         `json:"uuid"`
	Name       string         `json:"name"`
	Type       NodeType       `json:"type"`
	Labels     []string       `json:"labels,omitempty"`
	Summary    string         `json:"summary,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Edge is a canonical directed edge between two node UUIDs.
type Edge struct {
	Source     string         `json:"source"`
	Target     string         `json:"target"`
	Type       string         `json:"type"`
	Fact       string         `json:"fact,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// key identifies an edge for deduplication.
func (e Edge) key() string {
	return e.Source + "|" + e.Target + "|" + e.Type
}

// Data is a normalized graph. Values produced by this package are never
// mutated after they are returned, so they may be shared freely.
type Data struct {
	Nodes    []Node         `json:"nodes"`
	Edges    []Edge         `json:"edges"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Node looks up a node by UUID, with or without the "n:" prefix.
func (d *Data) Node(uuid string) (Node, bool) {
	if d == nil {
		return Node{}, false
	}
	uuid = StripPrefix(uuid)
	for _, n := range d.Nodes {
		if n.UUID == uuid {
			return n, true
		}
	}
	return Node{}, false
}

// Neighbors returns the nodes sharing an edge with uuid, in edge order.
// Edge endpoints that do not resolve to a node are skipped.
func (d *Data) Neighbors(uuid string) []Node {
	if d == nil {
		return nil
	}
	uuid = StripPrefix(uuid)

	byID := make(map[string]Node, len(d.Nodes))
	for _, n := range d.Nodes {
		byID[n.UUID] = n
	}

	seen := make(map[string]struct{})
	var out []Node
	for _, e := range d.Edges {
		var other string
		switch uuid {
		case e.Source:
			other = e.Target
		case e.Target:
			other = e.Source
		default:
			continue
		}
		if other == uuid {
			continue
		}
		if _, ok := seen[other]; ok {
			continue
		}
		n, ok := byID[other]
		if !ok {
			continue
		}
		seen[other] = struct{}{}
		out = append(out, n)
	}
	return out
}

const idPrefix = "n:"

// StripPrefix removes the backend's "n:" node identity prefix.
func StripPrefix(id string) string {
	return strings.TrimPrefix(id, idPrefix)
}
