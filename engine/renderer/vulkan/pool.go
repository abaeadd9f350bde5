package vulkan

import (
	"sync"

	vk "github.com/goki/vulkan"
)

// VulkanLockPool serialises access to queues. Every submission to a queue
// must be externally synchronised.
type VulkanLockPool struct {
	mu sync.Mutex // Protects access to the locks map

	queueMutexes map[vk.Queue]*sync.Mutex
}

func NewVulkanLockPool() *VulkanLockPool {
	return &VulkanLockPool{
		queueMutexes: make(map[vk.Queue]*sync.Mutex),
	}
}

// Get or create the mutex of a queue
func (vs *VulkanLockPool) queueLock(queue vk.Queue) *sync.Mutex {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	l, exists := vs.queueMutexes[queue]
	if !exists {
		l = &sync.Mutex{}
		vs.queueMutexes[queue] = l
	}
	return l
}

func (vs *VulkanLockPool) SafeQueueCall(queue vk.Queue, fn func() error) error {
	l := vs.queueLock(queue)
	l.Lock()
	defer l.Unlock()

	return fn()
}
