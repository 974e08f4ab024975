package layout

// Builder lays pieces of track end to end, numbering the nodes between them.
type Builder struct {
	g    Graph
	next NodeID
}

// NewBuilder returns a Builder that numbers new nodes from first.
func NewBuilder(first NodeID) *Builder {
	return &Builder{next: first}
}

// Node allocates a fresh node.
func (b *Builder) Node() NodeID {
	n := b.next
	b.next++
	b.g = b.g.InsertNode(n)
	return n
}

// Join adds a single track between two existing nodes.
func (b *Builder) Join(from, to NodeID, t Track) {
	b.g = b.g.InsertEdgeData(from, to, t)
	if to >= b.next {
		b.next = to + 1
	}
	if from >= b.next {
		b.next = from + 1
	}
}

// Line lays tracks one after another starting at from and returns the last node.
func (b *Builder) Line(from NodeID, tracks ...Track) NodeID {
	b.g = b.g.InsertNode(from)
	if from >= b.next {
		b.next = from + 1
	}
	cur := from
	for _, t := range tracks {
		n := b.Node()
		b.g = b.g.InsertEdgeData(cur, n, t)
		cur = n
	}
	return cur
}

// LineTo is Line, except the last piece ends at to instead of a fresh node.
func (b *Builder) LineTo(from, to NodeID, tracks ...Track) {
	if len(tracks) == 0 {
		return
	}
	last := b.Line(from, tracks[:len(tracks)-1]...)
	b.Join(last, to, tracks[len(tracks)-1])
}

// Graph returns what has been built so far.
func (b *Builder) Graph() Graph {
	return b.g
}
