package graph

// Merge combines two graphs into a new one. Nodes are deduplicated by UUID
// and edges by source, target and type; the first occurrence wins, base
// before incoming. Neither input is modified. A nil operand yields the other
// operand unchanged.
func Merge(base, incoming *Data) *Data {
	if base == nil {
		return incoming
	}
	if incoming == nil {
		return base
	}

	b := newBuilder(len(base.Nodes)+len(incoming.Nodes), len(base.Edges)+len(incoming.Edges))
	b.add(base)
	b.add(incoming)
	return b.data()
}

// builder accumulates nodes and edges under the merge rules.
type builder struct {
	nodes    []Node
	edges    []Edge
	metadata map[string]any

	seenNodes map[string]struct{}
	seenEdges map[string]struct{}
}

func newBuilder(nodeHint, edgeHint int) *builder {
	return &builder{
		nodes:     make([]Node, 0, nodeHint),
		edges:     make([]Edge, 0, edgeHint),
		seenNodes: make(map[string]struct{}, nodeHint),
		seenEdges: make(map[string]struct{}, edgeHint),
	}
}

func (b *builder) add(d *Data) {
	for _, n := range d.Nodes {
		b.addNode(n)
	}
	for _, e := range d.Edges {
		b.addEdge(e)
	}
	for k, v := range d.Metadata {
		b.addMetadata(k, v)
	}
}

func (b *builder) addNode(n Node) {
	if _, ok := b.seenNodes[n.UUID]; ok {
		return
	}
	b.seenNodes[n.UUID] = struct{}{}
	b.nodes = append(b.nodes, n)
}

func (b *builder) addEdge(e Edge) {
	k := e.key()
	if _, ok := b.seenEdges[k]; ok {
		return
	}
	b.seenEdges[k] = struct{}{}
	b.edges = append(b.edges, e)
}

func (b *builder) addMetadata(k string, v any) {
	if b.metadata == nil {
		b.metadata = make(map[string]any)
	}
	if _, ok := b.metadata[k]; !ok {
		b.metadata[k] = v
	}
}

func (b *builder) data() *Data {
	return &Data{
		Nodes:    b.nodes,
		Edges:    b.edges,
		Metadata: b.metadata,
	}
}
