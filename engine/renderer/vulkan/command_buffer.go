package vulkan

import (
	"fmt"
	"time"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/wyvern/engine/core"
	"github.com/spaghettifunk/wyvern/engine/renderer/barrier"
	"github.com/spaghettifunk/wyvern/engine/renderer/commands"
)

type VulkanCommandBufferState int

const (
	COMMAND_BUFFER_STATE_READY VulkanCommandBufferState = iota
	COMMAND_BUFFER_STATE_RECORDING
	COMMAND_BUFFER_STATE_IN_RENDER_PASS
	COMMAND_BUFFER_STATE_RECORDING_ENDED
	COMMAND_BUFFER_STATE_SUBMITTED
	COMMAND_BUFFER_STATE_NOT_ALLOCATED
)

// VulkanCommandBuffer records commands.Sequence calls into a native command
// buffer. Failures while recording are kept and returned by End.
type VulkanCommandBuffer struct {
	Handle vk.CommandBuffer
	// Command buffer state.
	State VulkanCommandBufferState

	context *VulkanContext
	pool    vk.CommandPool
	err     error
}

var _ commands.Buffer = (*VulkanCommandBuffer)(nil)

func NewVulkanCommandBuffer(
	context *VulkanContext,
	pool vk.CommandPool,
	isPrimary bool,
) (*VulkanCommandBuffer, error) {
	vCommandBuffer := &VulkanCommandBuffer{
		State:   COMMAND_BUFFER_STATE_NOT_ALLOCATED,
		context: context,
		pool:    pool,
	}

	level := vk.CommandBufferLevelSecondary
	if isPrimary {
		level = vk.CommandBufferLevelPrimary
	}

	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		CommandBufferCount: 1,
		Level:              level,
		PNext:              nil,
	}

	handles := make([]vk.CommandBuffer, 1)
	if err := resultError("allocate command buffer", vk.AllocateCommandBuffers(context.LogicalDevice, &allocateInfo, handles)); err != nil {
		return nil, err
	}
	vCommandBuffer.Handle = handles[0]
	vCommandBuffer.State = COMMAND_BUFFER_STATE_READY

	return vCommandBuffer, nil
}

func (v *VulkanCommandBuffer) Free() {
	if v.Handle == nil {
		return
	}
	vk.FreeCommandBuffers(v.context.LogicalDevice, v.pool, 1, []vk.CommandBuffer{v.Handle})
	v.Handle = nil
	v.State = COMMAND_BUFFER_STATE_NOT_ALLOCATED
}

// Begin starts a reusable recording.
func (v *VulkanCommandBuffer) Begin() error {
	return v.BeginWith(false, false, false)
}

func (v *VulkanCommandBuffer) BeginWith(
	isSingleUse,
	isRenderpassContinue,
	isSimultaneousUse bool) error {

	vBeginInfo := &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: 0,
	}

	if isSingleUse {
		vBeginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	if isRenderpassContinue {
		vBeginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageRenderPassContinueBit)
	}
	if isSimultaneousUse {
		vBeginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageSimultaneousUseBit)
	}

	if err := resultError("begin command buffer", vk.BeginCommandBuffer(v.Handle, vBeginInfo)); err != nil {
		return err
	}
	v.err = nil
	v.State = COMMAND_BUFFER_STATE_RECORDING

	return nil
}

func (v *VulkanCommandBuffer) End() error {
	if err := resultError("end command buffer", vk.EndCommandBuffer(v.Handle)); err != nil {
		return err
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING_ENDED
	return v.err
}

func (v *VulkanCommandBuffer) fail(err error) {
	core.LogError(err.Error())
	if v.err == nil {
		v.err = err
	}
}

func (v *VulkanCommandBuffer) PipelineBarrier(t barrier.Transition) {
	imb, err := v.context.Images.ImageMemoryBarrier(t)
	if err != nil {
		v.fail(fmt.Errorf("pipeline barrier: %w", err))
		return
	}
	vk.CmdPipelineBarrier(v.Handle, t.SrcStage, t.DstStage, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{imb})
}

func (v *VulkanCommandBuffer) ClearColorImage(image barrier.Resource, aspect barrier.Tag, layout barrier.State, color [4]float32) {
	img, rng, err := v.context.Images.subresource(image, aspect)
	if err != nil {
		v.fail(fmt.Errorf("clear color image: %w", err))
		return
	}
	var clearColor vk.ClearColorValue
	*(*[4]float32)(unsafe.Pointer(&clearColor)) = color
	vk.CmdClearColorImage(v.Handle, img.Handle, layout, &clearColor, 1, []vk.ImageSubresourceRange{rng})
}

func (v *VulkanCommandBuffer) BeginRenderPass(pass commands.RenderPass) {
	beginInfo := vk.RenderPassBeginInfo{
		SType:           vk.StructureTypeRenderPassBeginInfo,
		RenderPass:      pass.Handle,
		Framebuffer:     pass.Framebuffer,
		RenderArea:      pass.Area,
		ClearValueCount: uint32(len(pass.ClearValues)),
		PClearValues:    pass.ClearValues,
	}
	vk.CmdBeginRenderPass(v.Handle, &beginInfo, pass.Contents)
	v.State = COMMAND_BUFFER_STATE_IN_RENDER_PASS
}

func (v *VulkanCommandBuffer) EndRenderPass() {
	vk.CmdEndRenderPass(v.Handle)
	v.State = COMMAND_BUFFER_STATE_RECORDING
}

func (v *VulkanCommandBuffer) BindPipeline(bindPoint vk.PipelineBindPoint, pipeline vk.Pipeline) {
	vk.CmdBindPipeline(v.Handle, bindPoint, pipeline)
}

func (v *VulkanCommandBuffer) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	vk.CmdDraw(v.Handle, vertexCount, instanceCount, firstVertex, firstInstance)
}

func (v *VulkanCommandBuffer) UpdateSubmitted() {
	v.State = COMMAND_BUFFER_STATE_SUBMITTED
}

func (v *VulkanCommandBuffer) Reset() {
	v.State = COMMAND_BUFFER_STATE_READY
}

// Submit hands the recorded buffer to the graphics queue, waiting on wait at
// waitStage and signalling signal when done. Either semaphore may be nil.
func (v *VulkanCommandBuffer) Submit(wait vk.Semaphore, waitStage barrier.Stage, signal vk.Semaphore, fence vk.Fence) error {
	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{v.Handle},
	}
	if wait != nil {
		submitInfo.WaitSemaphoreCount = 1
		submitInfo.PWaitSemaphores = []vk.Semaphore{wait}
		submitInfo.PWaitDstStageMask = []vk.PipelineStageFlags{waitStage}
	}
	if signal != nil {
		submitInfo.SignalSemaphoreCount = 1
		submitInfo.PSignalSemaphores = []vk.Semaphore{signal}
	}
	queue := v.context.GraphicsQueue
	err := v.context.Locks.SafeQueueCall(queue, func() error {
		return resultError("submit command buffer", vk.QueueSubmit(queue, 1, []vk.SubmitInfo{submitInfo}, fence))
	})
	if err != nil {
		return err
	}
	v.UpdateSubmitted()
	return nil
}

/**
 * Allocates and begins recording to a single use command buffer.
 */
func AllocateAndBeginSingleUse(
	context *VulkanContext,
	pool vk.CommandPool) (*VulkanCommandBuffer, error) {
	cb, err := NewVulkanCommandBuffer(context, pool, true)
	if err != nil {
		return nil, err
	}
	if err := cb.BeginWith(true, false, false); err != nil {
		return nil, err
	}
	return cb, nil
}

/**
 * Ends recording, submits to and waits for queue operation and frees the provided command buffer.
 */
func (v *VulkanCommandBuffer) EndSingleUse(timeout time.Duration) error {
	defer v.Free()

	// End the command buffer.
	if err := v.End(); err != nil {
		return err
	}

	fence, err := NewFence(v.context, false)
	if err != nil {
		return err
	}
	defer fence.Destroy(v.context)

	if err := v.Submit(nil, 0, nil, fence.Handle); err != nil {
		return err
	}
	// Wait for it to finish
	if !fence.Wait(v.context, timeout) {
		return fmt.Errorf("single use command buffer did not complete within %s", timeout)
	}
	return nil
}

// RecordSingleUse records seq into a one-off command buffer and waits for
// the queue to execute it.
func RecordSingleUse(context *VulkanContext, pool vk.CommandPool, seq *commands.Sequence, timeout time.Duration) error {
	cb, err := AllocateAndBeginSingleUse(context, pool)
	if err != nil {
		return err
	}
	if err := seq.RecordTo(cb); err != nil {
		cb.Free()
		return err
	}
	return cb.EndSingleUse(timeout)
}
