package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/wyvern/engine/renderer/barrier"
	"github.com/spaghettifunk/wyvern/engine/renderer/commands"
)

// VulkanContext holds the device objects command recording needs. Creating
// the device, queues and swapchain is left to the caller.
type VulkanContext struct {
	LogicalDevice vk.Device
	Allocator     *vk.AllocationCallbacks
	GraphicsQueue vk.Queue

	Images *ImageTable
	Locks  *VulkanLockPool
}

func NewVulkanContext(device vk.Device, queue vk.Queue) *VulkanContext {
	return &VulkanContext{
		LogicalDevice: device,
		GraphicsQueue: queue,
		Images:        NewImageTable(),
		Locks:         NewVulkanLockPool(),
	}
}

// BufferFactory allocates primary command buffers from pool for an effect.
func (vc *VulkanContext) BufferFactory(pool vk.CommandPool) commands.BufferFactory {
	return func(image barrier.Resource) (commands.Buffer, error) {
		return NewVulkanCommandBuffer(vc, pool, true)
	}
}
