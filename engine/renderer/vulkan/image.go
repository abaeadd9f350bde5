package vulkan

import (
	"fmt"
	"sync"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/wyvern/engine/core"
	"github.com/spaghettifunk/wyvern/engine/renderer/barrier"
)

type VulkanImage struct {
	Handle vk.Image
	Memory vk.DeviceMemory
	View   vk.ImageView
	Width  uint32
	Height uint32
	// Full subresource range; the aspect mask is replaced per barrier.
	Range vk.ImageSubresourceRange
}

// ImageTable resolves tracked resources to native images.
type ImageTable struct {
	mu     sync.RWMutex
	images map[barrier.Resource]*VulkanImage
}

func NewImageTable() *ImageTable {
	return &ImageTable{images: make(map[barrier.Resource]*VulkanImage)}
}

func (t *ImageTable) Register(res barrier.Resource, img *VulkanImage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.images[res] = img
}

func (t *ImageTable) Unregister(res barrier.Resource) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.images, res)
}

func (t *ImageTable) Get(res barrier.Resource) (*VulkanImage, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	img, ok := t.images[res]
	return img, ok
}

func (t *ImageTable) subresource(res barrier.Resource, aspect barrier.Tag) (*VulkanImage, vk.ImageSubresourceRange, error) {
	img, ok := t.Get(res)
	if !ok {
		err := fmt.Errorf("image %s: %w", res, core.ErrUnknownName)
		return nil, vk.ImageSubresourceRange{}, err
	}
	rng := img.Range
	rng.AspectMask = aspect
	if rng.LevelCount == 0 {
		rng.LevelCount = vk.RemainingMipLevels
	}
	if rng.LayerCount == 0 {
		rng.LayerCount = vk.RemainingArrayLayers
	}
	return img, rng, nil
}

// ImageMemoryBarrier translates a transition into the native barrier.
func (t *ImageTable) ImageMemoryBarrier(tr barrier.Transition) (vk.ImageMemoryBarrier, error) {
	img, rng, err := t.subresource(tr.Resource, tr.Tag)
	if err != nil {
		return vk.ImageMemoryBarrier{}, err
	}
	return vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       tr.SrcAccess,
		DstAccessMask:       tr.DstAccess,
		OldLayout:           tr.SrcState,
		NewLayout:           tr.DstState,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               img.Handle,
		SubresourceRange:    rng,
	}, nil
}
