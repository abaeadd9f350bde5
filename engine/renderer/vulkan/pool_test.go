package vulkan

import (
	"errors"
	"sync"
	"testing"
)

func TestSafeQueueCallSerialises(t *testing.T) {
	locks := NewVulkanLockPool()
	var (
		wg      sync.WaitGroup
		running int
		maxSeen int
		mu      sync.Mutex
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = locks.SafeQueueCall(nil, func() error {
				mu.Lock()
				running++
				if running > maxSeen {
					maxSeen = running
				}
				mu.Unlock()

				mu.Lock()
				running--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Errorf("saw %d concurrent submissions on one queue, want 1", maxSeen)
	}
}

func TestSafeQueueCallReturnsError(t *testing.T) {
	want := errors.New("submit failed")
	if err := NewVulkanLockPool().SafeQueueCall(nil, func() error { return want }); !errors.Is(err, want) {
		t.Errorf("SafeQueueCall error = %v, want %v", err, want)
	}
}
