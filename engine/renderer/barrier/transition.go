package barrier

// LastUser walks backward from b and returns the nearest earlier node that
// requires the same resource and tag.
func (a *Arena) LastUser(b BoundID) (BoundID, bool) {
	if !a.owns(b) {
		return BoundID{}, false
	}
	key := a.nodes[b.node()].req.Key()
	for id := range a.Backward(b) {
		n := &a.nodes[id]
		if n.bound && n.req.Key() == key {
			return boundOf(id), true
		}
	}
	return BoundID{}, false
}

// RequiredTransition computes the barrier that must precede b. When no
// earlier node used the key the source is the undefined state with no
// access, and the source stage is b's own stage.
//
// ErrUnknownNode is returned for the zero BoundID and for handles the arena
// did not create.
func (a *Arena) RequiredTransition(b BoundID) (Transition, error) {
	if !a.owns(b) {
		return Transition{}, ErrUnknownNode
	}
	n := a.nodes[b.node()]
	t := Transition{
		Resource:  n.req.Resource,
		Tag:       n.req.Tag,
		DstStage:  n.stage,
		DstAccess: n.req.Access,
		DstState:  n.req.State,
	}
	if u, ok := a.LastUser(b); ok {
		prev := a.nodes[u.node()]
		t.SrcStage = prev.stage
		t.SrcAccess = prev.req.Access
		t.SrcState = prev.req.State
		return t, nil
	}
	t.SrcStage = n.stage
	t.SrcAccess = AccessNone
	t.SrcState = StateUndefined
	t.FirstUse = true
	return t, nil
}

// Resolved pairs a bound node with the transition that must precede it.
type Resolved struct {
	Node       BoundID
	Transition Transition
}

// Resolve computes the transition of every bound node in a single forward
// pass, keeping the last user of each key in a table. The result matches
// RequiredTransition called on each bound node in order.
func (c *Chain) Resolve() []Resolved {
	a := c.arena
	last := make(map[Key]NodeID)
	out := make([]Resolved, 0, c.len)
	for id := range c.Nodes() {
		n := a.nodes[id]
		if !n.bound {
			continue
		}
		key := n.req.Key()
		t := Transition{
			Resource:  n.req.Resource,
			Tag:       n.req.Tag,
			DstStage:  n.stage,
			DstAccess: n.req.Access,
			DstState:  n.req.State,
		}
		if prevID, ok := last[key]; ok {
			prev := a.nodes[prevID]
			t.SrcStage = prev.stage
			t.SrcAccess = prev.req.Access
			t.SrcState = prev.req.State
		} else {
			t.SrcStage = n.stage
			t.SrcState = StateUndefined
			t.FirstUse = true
		}
		last[key] = id
		out = append(out, Resolved{Node: boundOf(id), Transition: t})
	}
	return out
}

// States returns the final known state of every key touched by the chain.
func (c *Chain) States() map[Key]Requirement {
	a := c.arena
	states := make(map[Key]Requirement)
	for id := range c.Nodes() {
		if n := a.nodes[id]; n.bound {
			states[n.req.Key()] = n.req
		}
	}
	return states
}
