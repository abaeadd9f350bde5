package commands

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/wyvern/engine/renderer/barrier"
)

// Recorder receives the native calls produced by a Sequence.
type Recorder interface {
	PipelineBarrier(t barrier.Transition)
	ClearColorImage(image barrier.Resource, aspect barrier.Tag, layout barrier.State, color [4]float32)
	BeginRenderPass(pass RenderPass)
	EndRenderPass()
	BindPipeline(bindPoint vk.PipelineBindPoint, pipeline vk.Pipeline)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
}

// Buffer is a Recorder with a recording lifecycle, typically a command buffer.
type Buffer interface {
	Recorder
	Begin() error
	End() error
	Free()
}

// RenderPass holds everything needed to begin a render pass.
type RenderPass struct {
	Handle      vk.RenderPass
	Framebuffer vk.Framebuffer
	Area        vk.Rect2D
	ClearValues []vk.ClearValue
	Contents    vk.SubpassContents
}
