package barrier

import (
	"errors"
	"iter"
	"testing"

	vk "github.com/goki/vulkan"
	"golang.org/x/exp/slices"
)

var (
	stageTransfer = Stage(vk.PipelineStageTransferBit)
	stageColor    = Stage(vk.PipelineStageColorAttachmentOutputBit)
	stageBottom   = Stage(vk.PipelineStageBottomOfPipeBit)
	stageFragment = Stage(vk.PipelineStageFragmentShaderBit)

	accessTransferWrite = Access(vk.AccessTransferWriteBit)
	accessColorWrite    = Access(vk.AccessColorAttachmentWriteBit)
	accessShaderRead    = Access(vk.AccessShaderReadBit)
	accessMemoryRead    = Access(vk.AccessMemoryReadBit)
)

func mustAppend(t *testing.T, c *Chain, refs ...Ref) {
	t.Helper()
	for _, r := range refs {
		if err := c.Append(r); err != nil {
			t.Fatalf("Append(%v) error = %v", r, err)
		}
	}
}

func collect(seq iter.Seq[NodeID]) []NodeID {
	var out []NodeID
	for id := range seq {
		out = append(out, id)
	}
	return out
}

func transition(t *testing.T, a *Arena, b BoundID) Transition {
	t.Helper()
	tr, err := a.RequiredTransition(b)
	if err != nil {
		t.Fatalf("RequiredTransition(%v) error = %v", b, err)
	}
	return tr
}

func TestRequiredTransitionClearThenRender(t *testing.T) {
	a := NewArena()
	img := NewResource()
	n1 := a.Bound(stageTransfer, Requirement{Resource: img, Tag: TagColor, State: vk.ImageLayoutTransferDstOptimal, Access: accessTransferWrite})
	n2 := a.Bound(stageColor, Requirement{Resource: img, Tag: TagColor, State: vk.ImageLayoutColorAttachmentOptimal, Access: accessColorWrite})
	c := a.NewChain()
	mustAppend(t, c, n1, n2)

	got1 := transition(t, a, n1)
	want1 := Transition{
		Resource: img, Tag: TagColor,
		SrcStage: stageTransfer, SrcAccess: AccessNone, SrcState: StateUndefined,
		DstStage: stageTransfer, DstAccess: accessTransferWrite, DstState: vk.ImageLayoutTransferDstOptimal,
		FirstUse: true,
	}
	if got1 != want1 {
		t.Errorf("RequiredTransition(n1) = %+v, want %+v", got1, want1)
	}

	got2 := transition(t, a, n2)
	want2 := Transition{
		Resource: img, Tag: TagColor,
		SrcStage: stageTransfer, SrcAccess: accessTransferWrite, SrcState: vk.ImageLayoutTransferDstOptimal,
		DstStage: stageColor, DstAccess: accessColorWrite, DstState: vk.ImageLayoutColorAttachmentOptimal,
	}
	if got2 != want2 {
		t.Errorf("RequiredTransition(n2) = %+v, want %+v", got2, want2)
	}
}

func TestRequiredTransitionIndependentTags(t *testing.T) {
	a := NewArena()
	img := NewResource()
	color := a.Bound(stageTransfer, Requirement{Resource: img, Tag: TagColor, State: vk.ImageLayoutTransferDstOptimal, Access: accessTransferWrite})
	depth := a.Bound(stageFragment, Requirement{Resource: img, Tag: TagDepth, State: vk.ImageLayoutDepthStencilAttachmentOptimal, Access: Access(vk.AccessDepthStencilAttachmentWriteBit)})
	c := a.NewChain()
	mustAppend(t, c, color, depth)

	got := transition(t, a, depth)
	if !got.FirstUse {
		t.Fatalf("depth transition should be a first use, got %+v", got)
	}
	if got.SrcState != StateUndefined || got.SrcAccess != AccessNone || got.SrcStage != stageFragment {
		t.Errorf("depth source = (%v, %v, %v), want (undefined, none, own stage)", got.SrcState, got.SrcAccess, got.SrcStage)
	}
	if _, ok := a.LastUser(depth); ok {
		t.Error("LastUser(depth) found a user of a different tag")
	}
}

func TestRequiredTransitionSkipsUnboundAndOtherResources(t *testing.T) {
	a := NewArena()
	x, y := NewResource(), NewResource()
	first := a.Bound(stageTransfer, Requirement{Resource: x, Tag: TagColor, State: vk.ImageLayoutTransferDstOptimal, Access: accessTransferWrite})
	plain := a.Node(stageColor)
	other := a.Bound(stageColor, Requirement{Resource: y, Tag: TagColor, State: vk.ImageLayoutColorAttachmentOptimal, Access: accessColorWrite})
	read := a.Bound(stageFragment, Requirement{Resource: x, Tag: TagColor, State: vk.ImageLayoutShaderReadOnlyOptimal, Access: accessShaderRead})
	c := a.NewChain()
	mustAppend(t, c, first, plain, other, read)

	u, ok := a.LastUser(read)
	if !ok || u != first {
		t.Fatalf("LastUser(read) = %v, %v; want %v, true", u, ok, first)
	}
	got := transition(t, a, read)
	if got.SrcState != vk.ImageLayoutTransferDstOptimal || got.SrcAccess != accessTransferWrite || got.SrcStage != stageTransfer {
		t.Errorf("read source = %+v, want fields of first", got)
	}
}

func TestRequiredTransitionIsPure(t *testing.T) {
	a := NewArena()
	img := NewResource()
	n1 := a.Bound(stageTransfer, Requirement{Resource: img, Tag: TagColor, State: vk.ImageLayoutTransferDstOptimal, Access: accessTransferWrite})
	n2 := a.Bound(stageBottom, Requirement{Resource: img, Tag: TagColor, State: vk.ImageLayoutPresentSrc, Access: accessMemoryRead})
	c := a.NewChain()
	mustAppend(t, c, n1, n2)

	if first, second := transition(t, a, n2), transition(t, a, n2); first != second {
		t.Errorf("RequiredTransition is not stable: %+v vs %+v", first, second)
	}
}

func TestAdjacentSourceEqualsPreviousDestination(t *testing.T) {
	a := NewArena()
	img := NewResource()
	layouts := []State{
		vk.ImageLayoutTransferDstOptimal,
		vk.ImageLayoutColorAttachmentOptimal,
		vk.ImageLayoutShaderReadOnlyOptimal,
		vk.ImageLayoutPresentSrc,
	}
	stages := []Stage{stageTransfer, stageColor, stageFragment, stageBottom}
	accesses := []Access{accessTransferWrite, accessColorWrite, accessShaderRead, accessMemoryRead}
	c := a.NewChain()
	var nodes []BoundID
	for i := range layouts {
		n := a.Bound(stages[i], Requirement{Resource: img, Tag: TagColor, State: layouts[i], Access: accesses[i]})
		mustAppend(t, c, n)
		nodes = append(nodes, n)
	}
	for i := 1; i < len(nodes); i++ {
		prev := transition(t, a, nodes[i-1])
		cur := transition(t, a, nodes[i])
		if cur.SrcStage != prev.DstStage || cur.SrcAccess != prev.DstAccess || cur.SrcState != prev.DstState {
			t.Errorf("node %d source = (%v, %v, %v), want previous destination (%v, %v, %v)",
				i, cur.SrcStage, cur.SrcAccess, cur.SrcState, prev.DstStage, prev.DstAccess, prev.DstState)
		}
	}
}

func TestResolveMatchesBackwardWalk(t *testing.T) {
	a := NewArena()
	x, y := NewResource(), NewResource()
	reqs := []struct {
		bound bool
		stage Stage
		req   Requirement
	}{
		{true, stageTransfer, Requirement{x, TagColor, vk.ImageLayoutTransferDstOptimal, accessTransferWrite}},
		{false, stageColor, Requirement{}},
		{true, stageColor, Requirement{y, TagDepth, vk.ImageLayoutDepthStencilAttachmentOptimal, Access(vk.AccessDepthStencilAttachmentWriteBit)}},
		{true, stageColor, Requirement{x, TagColor, vk.ImageLayoutColorAttachmentOptimal, accessColorWrite}},
		{true, stageFragment, Requirement{y, TagDepth, vk.ImageLayoutShaderReadOnlyOptimal, accessShaderRead}},
		{true, stageFragment, Requirement{x, TagDepth, vk.ImageLayoutShaderReadOnlyOptimal, accessShaderRead}},
		{false, stageColor, Requirement{}},
		{true, stageBottom, Requirement{x, TagColor, vk.ImageLayoutPresentSrc, accessMemoryRead}},
	}
	c := a.NewChain()
	var bound []BoundID
	for _, r := range reqs {
		if r.bound {
			b := a.Bound(r.stage, r.req)
			bound = append(bound, b)
			mustAppend(t, c, b)
			continue
		}
		mustAppend(t, c, a.Node(r.stage))
	}

	resolved := c.Resolve()
	if len(resolved) != len(bound) {
		t.Fatalf("Resolve() returned %d transitions, want %d", len(resolved), len(bound))
	}
	for i, r := range resolved {
		if r.Node != bound[i] {
			t.Errorf("resolved[%d].Node = %v, want %v", i, r.Node, bound[i])
		}
		if want := transition(t, a, bound[i]); r.Transition != want {
			t.Errorf("resolved[%d] = %+v, want %+v", i, r.Transition, want)
		}
	}
}

func TestStatesReportsFinalRequirement(t *testing.T) {
	a := NewArena()
	img := NewResource()
	c := a.NewChain()
	mustAppend(t, c,
		a.Bound(stageTransfer, Requirement{img, TagColor, vk.ImageLayoutTransferDstOptimal, accessTransferWrite}),
		a.Bound(stageBottom, Requirement{img, TagColor, vk.ImageLayoutPresentSrc, accessMemoryRead}),
	)
	states := c.States()
	got, ok := states[Key{img, TagColor}]
	if !ok || got.State != vk.ImageLayoutPresentSrc {
		t.Errorf("States()[img/color] = %+v, %v; want PresentSrc", got, ok)
	}
}

func TestAppendOrderAndLinks(t *testing.T) {
	a := NewArena()
	c := a.NewChain()
	n0, n1, n2 := a.Node(stageColor), a.Node(stageColor), a.Node(stageColor)
	mustAppend(t, c, n0, n1, n2)

	if got, want := collect(c.Nodes()), []NodeID{n0, n1, n2}; !slices.Equal(got, want) {
		t.Errorf("Nodes() = %v, want %v", got, want)
	}
	if a.Prev(n0) != None || a.Next(n2) != None {
		t.Error("chain ends should not be linked")
	}
	if a.Prev(n2) != n1 || a.Next(n0) != n1 {
		t.Error("interior links are wrong")
	}
	if got := collect(a.Backward(n2)); !slices.Equal(got, []NodeID{n1, n0}) {
		t.Errorf("Backward(n2) = %v, want [n1 n0]", got)
	}
}

func TestAppendRejectsLinkedAndUnknownNodes(t *testing.T) {
	a := NewArena()
	c := a.NewChain()
	n := a.Node(stageColor)
	mustAppend(t, c, n)
	if err := c.Append(n); !errors.Is(err, ErrLinked) {
		t.Errorf("second Append error = %v, want ErrLinked", err)
	}
	if err := a.NewChain().Append(n); !errors.Is(err, ErrLinked) {
		t.Errorf("Append to another chain error = %v, want ErrLinked", err)
	}
	if err := c.Append(NodeID(42)); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("Append(unknown) error = %v, want ErrUnknownNode", err)
	}
}

func TestConcatSplicesChains(t *testing.T) {
	a := NewArena()
	img := NewResource()
	first := a.NewChain()
	second := a.NewChain()

	clr := a.Bound(stageTransfer, Requirement{img, TagColor, vk.ImageLayoutTransferDstOptimal, accessTransferWrite})
	mid := a.Node(stageColor)
	present := a.Bound(stageBottom, Requirement{img, TagColor, vk.ImageLayoutPresentSrc, accessMemoryRead})
	draw := a.Node(stageColor)

	mustAppend(t, first, clr, mid)
	mustAppend(t, second, present, draw)

	if got := transition(t, a, present); !got.FirstUse {
		t.Fatalf("present before concat should be a first use, got %+v", got)
	}
	if err := first.Concat(second); err != nil {
		t.Fatalf("Concat error = %v", err)
	}

	if got, want := collect(first.Nodes()), []NodeID{clr.ID(), mid, present.ID(), draw}; !slices.Equal(got, want) {
		t.Errorf("merged Nodes() = %v, want %v", got, want)
	}
	if first.Len() != 4 || first.Head() != clr.ID() || first.Tail() != draw {
		t.Errorf("merged chain bounds = (%d, %v, %v)", first.Len(), first.Head(), first.Tail())
	}
	if !slices.Contains(collect(a.Backward(draw)), clr.ID()) {
		t.Error("backward walk from the second chain does not reach the first")
	}
	got := transition(t, a, present)
	if got.FirstUse || got.SrcState != vk.ImageLayoutTransferDstOptimal {
		t.Errorf("present after concat = %+v, want source TransferDstOptimal", got)
	}

	if second.Len() != 0 {
		t.Errorf("consumed chain Len() = %d, want 0", second.Len())
	}
	if err := second.Append(a.Node(stageColor)); !errors.Is(err, ErrConsumed) {
		t.Errorf("Append on consumed chain error = %v, want ErrConsumed", err)
	}
}

func TestConcatEdgeCases(t *testing.T) {
	a := NewArena()
	c := a.NewChain()
	if err := c.Concat(c); !errors.Is(err, ErrSelfConcat) {
		t.Errorf("self Concat error = %v, want ErrSelfConcat", err)
	}
	if err := c.Concat(NewArena().NewChain()); !errors.Is(err, ErrForeignArena) {
		t.Errorf("foreign Concat error = %v, want ErrForeignArena", err)
	}

	empty := a.NewChain()
	tail := a.NewChain()
	n := a.Node(stageColor)
	mustAppend(t, tail, n)
	if err := empty.Concat(tail); err != nil {
		t.Fatalf("Concat into empty chain error = %v", err)
	}
	if got := collect(empty.Nodes()); !slices.Equal(got, []NodeID{n}) {
		t.Errorf("Nodes() = %v, want [%v]", got, n)
	}
	if err := empty.Concat(a.NewChain()); err != nil {
		t.Fatalf("Concat of empty chain error = %v", err)
	}
	if empty.Len() != 1 {
		t.Errorf("Len() = %d, want 1", empty.Len())
	}
}

func TestAsBound(t *testing.T) {
	a := NewArena()
	plain := a.Node(stageColor)
	b := a.Bound(stageTransfer, Requirement{Resource: NewResource(), Tag: TagColor})
	if _, ok := a.AsBound(plain); ok {
		t.Error("AsBound(plain) = true, want false")
	}
	if got, ok := a.AsBound(b.ID()); !ok || got != b {
		t.Errorf("AsBound(bound) = %v, %v", got, ok)
	}
	if _, ok := a.AsBound(None); ok {
		t.Error("AsBound(None) = true, want false")
	}
}

func TestZeroBoundIDIsRejected(t *testing.T) {
	a := NewArena()
	plain := a.Node(stageColor)
	c := a.NewChain()
	mustAppend(t, c, plain)

	var zero BoundID
	if zero.Valid() || zero.ID() != None {
		t.Errorf("zero BoundID: Valid() = %v, ID() = %v; want false, None", zero.Valid(), zero.ID())
	}
	if _, err := a.RequiredTransition(zero); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("RequiredTransition(zero) error = %v, want %v", err, ErrUnknownNode)
	}
	if _, ok := a.LastUser(zero); ok {
		t.Error("LastUser(zero) = true, want false")
	}
	if _, ok := a.Requirement(zero); ok {
		t.Error("Requirement(zero) = true, want false")
	}
	if got := collect(a.Backward(zero)); len(got) != 0 {
		t.Errorf("Backward(zero) = %v, want nothing", got)
	}
	if err := a.NewChain().Append(zero); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("Append(zero) error = %v, want %v", err, ErrUnknownNode)
	}

	other := NewArena()
	foreign := other.Bound(stageTransfer, Requirement{Resource: NewResource(), Tag: TagColor})
	if _, err := a.RequiredTransition(foreign); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("RequiredTransition(foreign) error = %v, want %v", err, ErrUnknownNode)
	}
}
