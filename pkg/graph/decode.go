package graph

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	nodeListFields = []string{"nodes", "entities", "episodes"}
	edgeListFields = []string{"edges", "relationships", "links"}
)

// Decode parses a backend graph payload.
//
// Nodes may be listed under "nodes", "entities" and "episodes", edges under
// "edges", "relationships" and "links". Records that cannot be normalized are
// dropped and duplicates collapse under the Merge rules. Records listed under
// "episodes" are typed as episodes. Remaining top-level scalar fields, such
// as counts or the center node, end up in Metadata.
func Decode(payload []byte) (*Data, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode graph payload: %w", err)
	}
	if raw == nil {
		return nil, errors.New("graph payload is null")
	}

	b := newBuilder(0, 0)
	for _, field := range nodeListFields {
		for _, r := range records(raw[field]) {
			n, ok := NormalizeNode(r)
			if !ok {
				continue
			}
			if field == "episodes" {
				n.Type = NodeEpisode
			}
			b.addNode(n)
		}
	}
	for _, field := range edgeListFields {
		for _, r := range records(raw[field]) {
			if e, ok := NormalizeEdge(r); ok {
				b.addEdge(e)
			}
		}
	}
	for k, v := range raw {
		if isScalar(v) {
			b.addMetadata(k, v)
		}
	}

	return b.data(), nil
}

// records keeps the object elements of a JSON array.
func records(v any) []map[string]any {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, json.Number, bool:
		return true
	}
	return false
}
