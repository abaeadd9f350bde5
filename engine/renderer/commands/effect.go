package commands

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/wyvern/engine/core"
	"github.com/spaghettifunk/wyvern/engine/renderer/barrier"
	"golang.org/x/exp/slices"
)

var (
	ErrEffectActive       = errors.New("effect is already active")
	ErrEffectInactive     = errors.New("effect is not active")
	ErrImageRegistered    = errors.New("image is already registered")
	ErrImageNotRegistered = errors.New("image is not registered")
	ErrNotSubmittable     = errors.New("buffer cannot be submitted")
)

// Builder produces the command sequence an effect records for one image.
// It runs with the effect locked and must only read the effect's
// boundaries.
type Builder func(e *Effect, image barrier.Resource) (*Sequence, error)

// BufferFactory allocates the buffer an image's commands are recorded into.
type BufferFactory func(image barrier.Resource) (Buffer, error)

// Submitter is a Buffer that can be handed to a queue.
type Submitter interface {
	Submit(wait vk.Semaphore, waitStage barrier.Stage, signal vk.Semaphore, fence vk.Fence) error
}

// Semaphores creates the semaphore an effect signals when its work is done.
type Semaphores interface {
	CreateSemaphore() (vk.Semaphore, error)
	DestroySemaphore(sem vk.Semaphore)
}

// Boundary is the state of an image at one edge of an effect.
type Boundary struct {
	Layout barrier.State
	Access barrier.Access
	Stage  barrier.Stage
}

type EffectOption func(*Effect)

// WithInitial sets the state images are in when the effect starts running
// and the stage its submissions wait at. Defaults to Undefined, no access,
// top of pipe.
func WithInitial(b Boundary) EffectOption {
	return func(e *Effect) { e.initial = b }
}

// WithFinal sets the state the effect leaves images in. Defaults to the
// present layout with memory read access at bottom of pipe.
func WithFinal(b Boundary) EffectOption {
	return func(e *Effect) { e.final = b }
}

// WithSemaphores makes the effect own a finished semaphore between Start
// and End.
func WithSemaphores(s Semaphores) EffectOption {
	return func(e *Effect) { e.sems = s }
}

// Effect keeps one recorded buffer per registered image, for instance one
// per swapchain image.
type Effect struct {
	Name string

	build Builder
	alloc BufferFactory
	sems  Semaphores

	initial Boundary
	final   Boundary

	mu       sync.Mutex
	active   bool
	finished vk.Semaphore
	buffers  map[barrier.Resource]Buffer
}

func NewEffect(name string, build Builder, alloc BufferFactory, opts ...EffectOption) *Effect {
	e := &Effect{
		Name:  name,
		build: build,
		alloc: alloc,
		initial: Boundary{
			Layout: barrier.StateUndefined,
			Access: barrier.AccessNone,
			Stage:  StageTop,
		},
		final: Boundary{
			Layout: vk.ImageLayoutPresentSrc,
			Access: barrier.Access(vk.AccessMemoryReadBit),
			Stage:  StageBottom,
		},
		buffers: make(map[barrier.Resource]Buffer),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Effect) Initial() Boundary { return e.initial }
func (e *Effect) Final() Boundary   { return e.final }

// Enter declares that image starts in the initial boundary state.
func (e *Effect) Enter(image barrier.Resource, aspect barrier.Tag) Assume {
	return Assume{
		Image:   image,
		Aspect:  aspect,
		Layout:  e.initial.Layout,
		Access:  e.initial.Access,
		AtStage: e.initial.Stage,
	}
}

// Leave moves image into the final boundary state.
func (e *Effect) Leave(image barrier.Resource, aspect barrier.Tag) TransitionImage {
	return TransitionImage{
		Image:   image,
		Aspect:  aspect,
		Layout:  e.final.Layout,
		Access:  e.final.Access,
		AtStage: e.final.Stage,
	}
}

func (e *Effect) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active {
		return fmt.Errorf("%s: %w", e.Name, ErrEffectActive)
	}
	if e.sems != nil {
		sem, err := e.sems.CreateSemaphore()
		if err != nil {
			return fmt.Errorf("%s: failed to create finished semaphore: %w", e.Name, err)
		}
		e.finished = sem
	}
	e.active = true
	core.LogDebug("effect %s started", e.Name)
	return nil
}

// End frees every registered buffer and deactivates the effect.
func (e *Effect) End() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.active {
		return fmt.Errorf("%s: %w", e.Name, ErrEffectInactive)
	}
	for img, buf := range e.buffers {
		buf.Free()
		delete(e.buffers, img)
	}
	if e.sems != nil && e.finished != nil {
		e.sems.DestroySemaphore(e.finished)
	}
	e.finished = nil
	e.active = false
	core.LogDebug("effect %s ended", e.Name)
	return nil
}

func (e *Effect) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// FinishedSemaphore is signalled by every Draw. It is nil when the effect
// is inactive or has no Semaphores.
func (e *Effect) FinishedSemaphore() vk.Semaphore {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.finished
}

// RegisterImage allocates a buffer for image and records its commands.
func (e *Effect) RegisterImage(image barrier.Resource) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.active {
		return fmt.Errorf("%s: %w", e.Name, ErrEffectInactive)
	}
	if _, ok := e.buffers[image]; ok {
		return fmt.Errorf("%s: %s: %w", e.Name, image, ErrImageRegistered)
	}
	_, err := e.register(image)
	return err
}

func (e *Effect) register(image barrier.Resource) (Buffer, error) {
	buf, err := e.alloc(image)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to allocate buffer: %w", e.Name, err)
	}
	if err := e.record(image, buf); err != nil {
		buf.Free()
		return nil, err
	}
	e.buffers[image] = buf
	return buf, nil
}

func (e *Effect) UnregisterImage(image barrier.Resource) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.active {
		return fmt.Errorf("%s: %w", e.Name, ErrEffectInactive)
	}
	buf, ok := e.buffers[image]
	if !ok {
		return fmt.Errorf("%s: %s: %w", e.Name, image, ErrImageNotRegistered)
	}
	buf.Free()
	delete(e.buffers, image)
	return nil
}

// Buffer returns the recorded buffer of a registered image.
func (e *Effect) Buffer(image barrier.Resource) (Buffer, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	buf, ok := e.buffers[image]
	return buf, ok
}

// CommandBuffer returns the buffer of image, registering the image first if
// needed.
func (e *Effect) CommandBuffer(image barrier.Resource) (Buffer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.commandBuffer(image)
}

func (e *Effect) commandBuffer(image barrier.Resource) (Buffer, error) {
	if buf, ok := e.buffers[image]; ok {
		return buf, nil
	}
	if !e.active {
		return nil, fmt.Errorf("%s: %w", e.Name, ErrEffectInactive)
	}
	return e.register(image)
}

// Draw submits the buffer of image. The submission waits on start at the
// initial stage and signals the finished semaphore.
func (e *Effect) Draw(start vk.Semaphore, image barrier.Resource) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.active {
		return fmt.Errorf("%s: %w", e.Name, ErrEffectInactive)
	}
	buf, err := e.commandBuffer(image)
	if err != nil {
		return err
	}
	sub, ok := buf.(Submitter)
	if !ok {
		return fmt.Errorf("%s: %w", e.Name, ErrNotSubmittable)
	}
	return sub.Submit(start, e.initial.Stage, e.finished, nil)
}

// Images returns the registered images in a stable order.
func (e *Effect) Images() []barrier.Resource {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.images()
}

func (e *Effect) images() []barrier.Resource {
	out := make([]barrier.Resource, 0, len(e.buffers))
	for img := range e.buffers {
		out = append(out, img)
	}
	slices.SortFunc(out, func(a, b barrier.Resource) int {
		return bytes.Compare(a[:], b[:])
	})
	return out
}

// Rerecord records the commands of every registered image again, for
// example after the sequence definition changed. Images that fail to
// record are unregistered and their buffers freed; the others are still
// recorded.
func (e *Effect) Rerecord() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var errs []error
	for _, img := range e.images() {
		buf := e.buffers[img]
		if err := e.record(img, buf); err != nil {
			core.LogError("effect %s dropped image %s: %s", e.Name, img, err)
			buf.Free()
			delete(e.buffers, img)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *Effect) record(image barrier.Resource, buf Buffer) error {
	seq, err := e.build(e, image)
	if err != nil {
		return fmt.Errorf("%s: failed to build commands for %s: %w", e.Name, image, err)
	}
	if err := seq.Err(); err != nil {
		return fmt.Errorf("%s: failed to build commands for %s: %w", e.Name, image, err)
	}
	if err := buf.Begin(); err != nil {
		return err
	}
	if err := seq.RecordTo(buf); err != nil {
		if endErr := buf.End(); endErr != nil {
			core.LogError("effect %s: failed to end buffer of %s: %s", e.Name, image, endErr)
		}
		return fmt.Errorf("%s: failed to record %s: %w", e.Name, image, err)
	}
	return buf.End()
}
