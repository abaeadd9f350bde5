package commands

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/wyvern/engine/renderer/barrier"
)

const (
	StageTransfer    = barrier.Stage(vk.PipelineStageTransferBit)
	StageBottom      = barrier.Stage(vk.PipelineStageBottomOfPipeBit)
	StageTop         = barrier.Stage(vk.PipelineStageTopOfPipeBit)
	StageColorOutput = barrier.Stage(vk.PipelineStageColorAttachmentOutputBit)
)

// Command is one recorded operation. Commands with a requirement receive the
// transition computed for them when recorded; others receive nil.
type Command interface {
	Name() string
	Stage() barrier.Stage
	Requirement() (barrier.Requirement, bool)
	Record(rec Recorder, t *barrier.Transition)
}

// ClearColor transitions an image to TransferDstOptimal and clears it.
type ClearColor struct {
	Image  barrier.Resource
	Aspect barrier.Tag
	Color  [4]float32
}

func (c ClearColor) Name() string         { return "clear" }
func (c ClearColor) Stage() barrier.Stage { return StageTransfer }

func (c ClearColor) Requirement() (barrier.Requirement, bool) {
	return barrier.Requirement{
		Resource: c.Image,
		Tag:      c.Aspect,
		State:    vk.ImageLayoutTransferDstOptimal,
		Access:   barrier.Access(vk.AccessTransferWriteBit),
	}, true
}

func (c ClearColor) Record(rec Recorder, t *barrier.Transition) {
	rec.PipelineBarrier(*t)
	rec.ClearColorImage(c.Image, c.Aspect, vk.ImageLayoutTransferDstOptimal, c.Color)
}

// TransitionImage moves an image into Layout without doing anything else.
// AtStage defaults to bottom of pipe.
type TransitionImage struct {
	Image   barrier.Resource
	Aspect  barrier.Tag
	Layout  barrier.State
	Access  barrier.Access
	AtStage barrier.Stage
}

func (c TransitionImage) Name() string { return "transition" }

func (c TransitionImage) Stage() barrier.Stage {
	if c.AtStage == 0 {
		return StageBottom
	}
	return c.AtStage
}

func (c TransitionImage) Requirement() (barrier.Requirement, bool) {
	return barrier.Requirement{Resource: c.Image, Tag: c.Aspect, State: c.Layout, Access: c.Access}, true
}

func (c TransitionImage) Record(rec Recorder, t *barrier.Transition) {
	rec.PipelineBarrier(*t)
}

// PreparePresent moves a swapchain image into the present layout.
type PreparePresent struct {
	Image  barrier.Resource
	Aspect barrier.Tag
}

func (c PreparePresent) Name() string         { return "present" }
func (c PreparePresent) Stage() barrier.Stage { return StageBottom }

func (c PreparePresent) Requirement() (barrier.Requirement, bool) {
	return barrier.Requirement{
		Resource: c.Image,
		Tag:      c.Aspect,
		State:    vk.ImageLayoutPresentSrc,
		Access:   barrier.Access(vk.AccessMemoryReadBit),
	}, true
}

func (c PreparePresent) Record(rec Recorder, t *barrier.Transition) {
	rec.PipelineBarrier(*t)
}

// Assume declares the state an image is already in when the sequence starts,
// for instance after a previous submission. It records nothing.
type Assume struct {
	Image   barrier.Resource
	Aspect  barrier.Tag
	Layout  barrier.State
	Access  barrier.Access
	AtStage barrier.Stage
}

func (c Assume) Name() string         { return "assume" }
func (c Assume) Stage() barrier.Stage { return c.AtStage }

func (c Assume) Requirement() (barrier.Requirement, bool) {
	return barrier.Requirement{Resource: c.Image, Tag: c.Aspect, State: c.Layout, Access: c.Access}, true
}

func (c Assume) Record(Recorder, *barrier.Transition) {}

type BeginRenderPass struct {
	Pass RenderPass
}

func (c BeginRenderPass) Name() string                               { return "begin-render-pass" }
func (c BeginRenderPass) Stage() barrier.Stage                       { return StageColorOutput }
func (c BeginRenderPass) Requirement() (barrier.Requirement, bool)   { return barrier.Requirement{}, false }
func (c BeginRenderPass) Record(rec Recorder, _ *barrier.Transition) { rec.BeginRenderPass(c.Pass) }

type EndRenderPass struct{}

func (c EndRenderPass) Name() string                               { return "end-render-pass" }
func (c EndRenderPass) Stage() barrier.Stage                       { return StageColorOutput }
func (c EndRenderPass) Requirement() (barrier.Requirement, bool)   { return barrier.Requirement{}, false }
func (c EndRenderPass) Record(rec Recorder, _ *barrier.Transition) { rec.EndRenderPass() }

type BindPipeline struct {
	BindPoint vk.PipelineBindPoint
	Pipeline  vk.Pipeline
}

func (c BindPipeline) Name() string                             { return "bind-pipeline" }
func (c BindPipeline) Stage() barrier.Stage                     { return StageColorOutput }
func (c BindPipeline) Requirement() (barrier.Requirement, bool) { return barrier.Requirement{}, false }

func (c BindPipeline) Record(rec Recorder, _ *barrier.Transition) {
	rec.BindPipeline(c.BindPoint, c.Pipeline)
}

type Draw struct {
	VertexCount   uint32
	InstanceCount uint32
	FirstVertex   uint32
	FirstInstance uint32
}

func (c Draw) Name() string                             { return "draw" }
func (c Draw) Stage() barrier.Stage                     { return StageColorOutput }
func (c Draw) Requirement() (barrier.Requirement, bool) { return barrier.Requirement{}, false }

func (c Draw) Record(rec Recorder, _ *barrier.Transition) {
	instances := c.InstanceCount
	if instances == 0 {
		instances = 1
	}
	rec.Draw(c.VertexCount, instances, c.FirstVertex, c.FirstInstance)
}

func (c Draw) String() string {
	return fmt.Sprintf("draw(%d vertices, %d instances)", c.VertexCount, c.InstanceCount)
}
