// Package graph is the auxiliary generic DAG used to back the POP graph
// (spec §4.3). It is deliberately small: add nodes with their children
// already known (the lowering pass always compiles children before their
// parent, per spec §4.4 step 2), look a node up by its stable Key, and walk
// children. Keys survive serialization because they are plain integers, not
// pointers.
package graph

import (
	"fmt"

	msgpack "gopkg.in/vmihailenco/msgpack.v2"

	"github.com/adarshpannu/flare/errs"
)

// Key stably addresses a node. It is assigned once, at AddNode time, and
// never reused even if the node were removable (it isn't: the graph is
// immutable after compilation, per spec §3 Lifecycle).
type Key uint32

func (k Key) String() string { return fmt.Sprintf("#%d", uint32(k)) }

type entry[V any, P any] struct {
	value    V
	props    P
	children []Key
}

// Graph is a directed acyclic graph of V-valued nodes with P-valued
// per-node properties, addressed by Key. The zero value is not usable; use
// New.
type Graph[V any, P any] struct {
	entries []entry[V, P]
}

func New[V any, P any]() *Graph[V, P] {
	return &Graph[V, P]{}
}

// AddNode appends a new node with the given children, which must already
// exist in the graph. Since every child key was assigned by a prior AddNode
// call on this same graph, and keys are monotonically increasing, no cycle
// can be introduced this way; AddChild (below) is where cycle-checking
// actually matters.
func (g *Graph[V, P]) AddNode(value V, props P, children []Key) (Key, error) {
	for _, c := range children {
		if int(c) >= len(g.entries) {
			return 0, errs.ErrCyclicGraph.New()
		}
	}
	k := Key(len(g.entries))
	g.entries = append(g.entries, entry[V, P]{value: value, props: props, children: children})
	return k, nil
}

// AddChild appends child to parent's child list after verifying that doing
// so would not create a cycle (i.e. parent is not reachable from child).
func (g *Graph[V, P]) AddChild(parent, child Key) error {
	if g.reachable(child, parent) {
		return errs.ErrCyclicGraph.New()
	}
	e := &g.entries[int(parent)]
	e.children = append(e.children, child)
	return nil
}

func (g *Graph[V, P]) reachable(from, to Key) bool {
	if from == to {
		return true
	}
	visited := make(map[Key]bool)
	var dfs func(Key) bool
	dfs = func(k Key) bool {
		if k == to {
			return true
		}
		if visited[k] {
			return false
		}
		visited[k] = true
		for _, c := range g.entries[int(k)].children {
			if dfs(c) {
				return true
			}
		}
		return false
	}
	return dfs(from)
}

// Get returns the value, props and children stored at k.
func (g *Graph[V, P]) Get(k Key) (V, P, []Key) {
	e := g.entries[int(k)]
	return e.value, e.props, e.children
}

// Value returns just the node's value.
func (g *Graph[V, P]) Value(k Key) V {
	return g.entries[int(k)].value
}

// Props returns just the node's properties.
func (g *Graph[V, P]) Props(k Key) P {
	return g.entries[int(k)].props
}

// Children returns k's ordered child list.
func (g *Graph[V, P]) Children(k Key) []Key {
	return g.entries[int(k)].children
}

// Len returns the number of nodes in the graph.
func (g *Graph[V, P]) Len() int { return len(g.entries) }

// Walk visits every node reachable from root in post-order (children
// before parent), matching the compiler's own traversal order.
func (g *Graph[V, P]) Walk(root Key, visit func(Key)) {
	for _, c := range g.Children(root) {
		g.Walk(c, visit)
	}
	visit(root)
}

// EncodeMsgpack and DecodeMsgpack implement msgpack.v2's custom
// encoder/decoder interfaces, since entry's fields are unexported (spec
// §5: the POP graph must be byte-serializable for task dispatch).
func (g *Graph[V, P]) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.Encode(uint32(len(g.entries))); err != nil {
		return err
	}
	for _, e := range g.entries {
		if err := enc.Encode(e.value, e.props, e.children); err != nil {
			return err
		}
	}
	return nil
}

func (g *Graph[V, P]) DecodeMsgpack(dec *msgpack.Decoder) error {
	var n uint32
	if err := dec.Decode(&n); err != nil {
		return err
	}
	g.entries = make([]entry[V, P], n)
	for i := range g.entries {
		if err := dec.Decode(&g.entries[i].value, &g.entries[i].props, &g.entries[i].children); err != nil {
			return err
		}
	}
	return nil
}
