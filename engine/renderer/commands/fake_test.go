package commands

import (
	"errors"
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/wyvern/engine/renderer/barrier"
)

// fakeBuffer logs every call it receives.
type fakeBuffer struct {
	calls     []string
	barriers  []barrier.Transition
	recording bool
	freed     bool
	begins    int
	failBegin bool
	submits   []submission
}

type submission struct {
	wait      vk.Semaphore
	waitStage barrier.Stage
	signal    vk.Semaphore
}

func (f *fakeBuffer) PipelineBarrier(t barrier.Transition) {
	f.calls = append(f.calls, "barrier")
	f.barriers = append(f.barriers, t)
}

func (f *fakeBuffer) ClearColorImage(image barrier.Resource, aspect barrier.Tag, layout barrier.State, color [4]float32) {
	f.calls = append(f.calls, fmt.Sprintf("clear %v", color))
}

func (f *fakeBuffer) BeginRenderPass(pass RenderPass) { f.calls = append(f.calls, "begin-pass") }
func (f *fakeBuffer) EndRenderPass()                  { f.calls = append(f.calls, "end-pass") }

func (f *fakeBuffer) BindPipeline(bindPoint vk.PipelineBindPoint, pipeline vk.Pipeline) {
	f.calls = append(f.calls, "bind")
}

func (f *fakeBuffer) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	f.calls = append(f.calls, fmt.Sprintf("draw %d %d", vertexCount, instanceCount))
}

func (f *fakeBuffer) Begin() error {
	if f.failBegin {
		return errors.New("begin failed")
	}
	f.begins++
	f.calls = nil
	f.barriers = nil
	f.recording = true
	return nil
}

func (f *fakeBuffer) End() error {
	f.recording = false
	return nil
}

func (f *fakeBuffer) Free() {
	f.freed = true
}

func (f *fakeBuffer) Submit(wait vk.Semaphore, waitStage barrier.Stage, signal vk.Semaphore, fence vk.Fence) error {
	f.submits = append(f.submits, submission{wait: wait, waitStage: waitStage, signal: signal})
	return nil
}

// recordOnly is a Buffer that cannot be submitted.
type recordOnly struct{ fakeBuffer }

func (r *recordOnly) Submit() {}

// newSemaphore returns a distinct handle that is only compared, never used.
func newSemaphore() vk.Semaphore {
	return vk.Semaphore(unsafe.Pointer(new(byte)))
}

type fakeSemaphores struct {
	created   []vk.Semaphore
	destroyed []vk.Semaphore
}

func (s *fakeSemaphores) CreateSemaphore() (vk.Semaphore, error) {
	sem := newSemaphore()
	s.created = append(s.created, sem)
	return sem, nil
}

func (s *fakeSemaphores) DestroySemaphore(sem vk.Semaphore) {
	s.destroyed = append(s.destroyed, sem)
}
