package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/wyvern/engine/renderer/commands"
)

var (
	_ commands.Semaphores = (*VulkanSemaphores)(nil)
	_ commands.Submitter  = (*VulkanCommandBuffer)(nil)
)

// VulkanSemaphores creates and destroys binary semaphores on the context's
// device.
type VulkanSemaphores struct {
	context *VulkanContext
}

func (vc *VulkanContext) Semaphores() *VulkanSemaphores {
	return &VulkanSemaphores{context: vc}
}

func (vs *VulkanSemaphores) CreateSemaphore() (vk.Semaphore, error) {
	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var pSemaphore vk.Semaphore
	if err := resultError("create semaphore", vk.CreateSemaphore(vs.context.LogicalDevice, &semaphoreCreateInfo, vs.context.Allocator, &pSemaphore)); err != nil {
		return nil, err
	}
	return pSemaphore, nil
}

func (vs *VulkanSemaphores) DestroySemaphore(sem vk.Semaphore) {
	if sem != nil {
		vk.DestroySemaphore(vs.context.LogicalDevice, sem, vs.context.Allocator)
	}
}
