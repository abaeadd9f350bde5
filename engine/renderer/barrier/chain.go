package barrier

import (
	"errors"
	"iter"
)

var (
	ErrLinked       = errors.New("node already belongs to a chain")
	ErrUnknownNode  = errors.New("node was not created by this arena")
	ErrForeignArena = errors.New("chain belongs to another arena")
	ErrSelfConcat   = errors.New("chain cannot be concatenated with itself")
	ErrConsumed     = errors.New("chain was consumed by a concatenation")
)

// NodeID addresses a node inside its Arena.
type NodeID int32

// None marks a missing link.
const None NodeID = -1

// BoundID addresses a node that carries a Requirement. Only bound nodes
// can be asked for a transition. The zero value addresses no node.
type BoundID struct {
	ref int32 // node id + 1
}

func boundOf(id NodeID) BoundID { return BoundID{ref: int32(id) + 1} }

// Ref is implemented by NodeID and BoundID.
type Ref interface {
	node() NodeID
}

func (n NodeID) node() NodeID  { return n }
func (b BoundID) node() NodeID { return NodeID(b.ref - 1) }

// ID returns the underlying node identifier, or None for the zero value.
func (b BoundID) ID() NodeID { return b.node() }

// Valid reports whether b was obtained from an Arena.
func (b BoundID) Valid() bool { return b.ref > 0 }

type node struct {
	stage  Stage
	req    Requirement
	bound  bool
	linked bool
}

// Arena owns every node of one recording. Links live in separate index
// tables so that splicing two chains never touches node payloads.
//
// An Arena and its chains must only be used by one goroutine at a time.
type Arena struct {
	nodes []node
	prev  []NodeID
	next  []NodeID
}

func NewArena() *Arena {
	return &Arena{}
}

func (a *Arena) add(n node) NodeID {
	id := NodeID(len(a.nodes))
	a.nodes = append(a.nodes, n)
	a.prev = append(a.prev, None)
	a.next = append(a.next, None)
	return id
}

// Node creates an unlinked node without a requirement.
func (a *Arena) Node(stage Stage) NodeID {
	return a.add(node{stage: stage})
}

// Bound creates an unlinked node that requires req before executing at stage.
func (a *Arena) Bound(stage Stage, req Requirement) BoundID {
	return boundOf(a.add(node{stage: stage, req: req, bound: true}))
}

// Len returns the number of nodes created by the arena.
func (a *Arena) Len() int {
	return len(a.nodes)
}

func (a *Arena) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(a.nodes)
}

// Stage returns the pipeline stage of a node.
func (a *Arena) Stage(ref Ref) Stage {
	if id := ref.node(); a.valid(id) {
		return a.nodes[id].stage
	}
	return 0
}

// Requirement returns the requirement of a bound node. It reports false for
// handles this arena did not create.
func (a *Arena) Requirement(b BoundID) (Requirement, bool) {
	if !a.owns(b) {
		return Requirement{}, false
	}
	return a.nodes[b.node()].req, true
}

func (a *Arena) owns(b BoundID) bool {
	id := b.node()
	return b.Valid() && a.valid(id) && a.nodes[id].bound
}

// AsBound recovers the bound handle of a node, if it carries a requirement.
func (a *Arena) AsBound(id NodeID) (BoundID, bool) {
	if !a.valid(id) || !a.nodes[id].bound {
		return BoundID{}, false
	}
	return boundOf(id), true
}

// Prev returns the node before ref in program order, or None.
func (a *Arena) Prev(ref Ref) NodeID {
	if id := ref.node(); a.valid(id) {
		return a.prev[id]
	}
	return None
}

// Next returns the node after ref in program order, or None.
func (a *Arena) Next(ref Ref) NodeID {
	if id := ref.node(); a.valid(id) {
		return a.next[id]
	}
	return None
}

// Backward yields the nodes before ref, nearest first.
func (a *Arena) Backward(ref Ref) iter.Seq[NodeID] {
	return func(yield func(NodeID) bool) {
		for id := a.Prev(ref); id != None; id = a.prev[id] {
			if !yield(id) {
				return
			}
		}
	}
}

// Chain is an ordered, append-only run of nodes in one Arena.
type Chain struct {
	arena    *Arena
	head     NodeID
	tail     NodeID
	len      int
	consumed bool
}

// NewChain starts an empty chain in the arena.
func (a *Arena) NewChain() *Chain {
	return &Chain{arena: a, head: None, tail: None}
}

func (c *Chain) Arena() *Arena { return c.arena }
func (c *Chain) Head() NodeID  { return c.head }
func (c *Chain) Tail() NodeID  { return c.tail }
func (c *Chain) Len() int      { return c.len }

// Append links ref after the current tail.
func (c *Chain) Append(ref Ref) error {
	if c.consumed {
		return ErrConsumed
	}
	id := ref.node()
	a := c.arena
	if !a.valid(id) {
		return ErrUnknownNode
	}
	if a.nodes[id].linked {
		return ErrLinked
	}
	a.nodes[id].linked = true
	if c.tail == None {
		c.head = id
	} else {
		a.next[c.tail] = id
		a.prev[id] = c.tail
	}
	c.tail = id
	c.len++
	return nil
}

// Concat splices other onto the end of c. The nodes of other are not
// copied; other is left empty and can no longer be extended.
func (c *Chain) Concat(other *Chain) error {
	if c == other {
		return ErrSelfConcat
	}
	if c.arena != other.arena {
		return ErrForeignArena
	}
	if c.consumed || other.consumed {
		return ErrConsumed
	}
	if other.len > 0 {
		if c.tail == None {
			c.head = other.head
		} else {
			c.arena.next[c.tail] = other.head
			c.arena.prev[other.head] = c.tail
		}
		c.tail = other.tail
		c.len += other.len
	}
	other.head, other.tail, other.len = None, None, 0
	other.consumed = true
	return nil
}

// Nodes yields the chain in program order.
func (c *Chain) Nodes() iter.Seq[NodeID] {
	return func(yield func(NodeID) bool) {
		for id := c.head; id != None; id = c.arena.next[id] {
			if !yield(id) {
				return
			}
			if id == c.tail {
				return
			}
		}
	}
}
