package graph

import (
	"encoding/json"
	"strconv"
	"strings"
)

var (
	nodeIDFields   = []string{"uuid", "id", "node_uuid", "nodeId"}
	nodeNameFields = []string{"name", "label", "title", "summary"}

	edgeSourceFields = []string{"source", "source_uuid", "source_node_uuid", "from_uuid", "from"}
	edgeTargetFields = []string{"target", "target_uuid", "target_node_uuid", "to_uuid", "to"}
	edgeTypeFields   = []string{"type", "relationship", "relationship_type", "label"}
)

const defaultEdgeType = "related_to"

// NormalizeNode converts one raw backend node record. It reports false when
// the record carries no usable identity; such records are meant to be
// skipped, not treated as errors.
func NormalizeNode(raw map[string]any) (Node, bool) {
	uuid := StripPrefix(firstString(raw, nodeIDFields))
	if uuid == "" {
		return Node{}, false
	}

	labels := stringSlice(raw["labels"])
	name := firstString(raw, nodeNameFields)
	if name == "" {
		name = uuid
	}

	return Node{
		UUID:       uuid,
		Name:       name,
		Type:       inferNodeType(stringValue(raw["type"]), labels),
		Labels:     labels,
		Summary:    stringValue(raw["summary"]),
		Properties: properties(raw),
	}, true
}

func inferNodeType(rawType string, labels []string) NodeType {
	if strings.Contains(strings.ToLower(rawType), "episode") {
		return NodeEpisode
	}
	for _, l := range labels {
		if strings.EqualFold(l, "episode") {
			return NodeEpisode
		}
	}
	return NodeEntity
}

// NormalizeEdge converts one raw backend edge record. It reports false when
// either endpoint cannot be resolved.
func NormalizeEdge(raw map[string]any) (Edge, bool) {
	source := StripPrefix(firstString(raw, edgeSourceFields))
	target := StripPrefix(firstString(raw, edgeTargetFields))
	if source == "" || target == "" {
		return Edge{}, false
	}

	typ := firstString(raw, edgeTypeFields)
	if typ == "" {
		typ = defaultEdgeType
	}

	return Edge{
		Source:     source,
		Target:     target,
		Type:       typ,
		Fact:       stringValue(raw["fact"]),
		Properties: properties(raw),
	}, true
}

// NormalizeNodes applies NormalizeNode to every record, dropping the ones
// that cannot be normalized.
func NormalizeNodes(raw []map[string]any) []Node {
	out := make([]Node, 0, len(raw))
	for _, r := range raw {
		if n, ok := NormalizeNode(r); ok {
			out = append(out, n)
		}
	}
	return out
}

// NormalizeEdges applies NormalizeEdge to every record, dropping the ones
// that cannot be normalized.
func NormalizeEdges(raw []map[string]any) []Edge {
	out := make([]Edge, 0, len(raw))
	for _, r := range raw {
		if e, ok := NormalizeEdge(r); ok {
			out = append(out, e)
		}
	}
	return out
}

func firstString(raw map[string]any, fields []string) string {
	for _, f := range fields {
		if s := stringValue(raw[f]); s != "" {
			return s
		}
	}
	return ""
}

// stringValue accepts strings and numbers, since some backends send numeric
// identifiers.
func stringValue(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	}
	return ""
}

func stringSlice(v any) []string {
	switch x := v.(type) {
	case []string:
		return append([]string(nil), x...)
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			if s := stringValue(item); s != "" {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case string:
		if x != "" {
			return []string{x}
		}
	}
	return nil
}

// properties picks the free-form attribute bag some backends nest under
// "properties" or "attributes".
func properties(raw map[string]any) map[string]any {
	for _, f := range []string{"properties", "attributes"} {
		if m, ok := raw[f].(map[string]any); ok && len(m) > 0 {
			out := make(map[string]any, len(m))
			for k, v := range m {
				out[k] = v
			}
			return out
		}
	}
	return nil
}
