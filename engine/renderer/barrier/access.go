// Package barrier infers image memory barriers from the order in which
// recorded operations require images to be in a given layout.
package barrier

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/google/uuid"
)

// Resource identifies a stateful image whose layout is tracked across a chain.
type Resource uuid.UUID

// NilResource is the zero resource.
var NilResource Resource

func NewResource() Resource {
	return Resource(uuid.New())
}

func (r Resource) String() string {
	return uuid.UUID(r).String()
}

// Tag selects an independently tracked aspect of a resource.
type Tag = vk.ImageAspectFlags

const (
	TagColor   = Tag(vk.ImageAspectColorBit)
	TagDepth   = Tag(vk.ImageAspectDepthBit)
	TagStencil = Tag(vk.ImageAspectStencilBit)
)

type (
	State  = vk.ImageLayout
	Access = vk.AccessFlags
	Stage  = vk.PipelineStageFlags
)

const (
	StateUndefined State  = vk.ImageLayoutUndefined
	AccessNone     Access = 0
)

// Key is the unit of tracking: a resource and one of its aspects.
type Key struct {
	Resource Resource
	Tag      Tag
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%#x", k.Resource, uint32(k.Tag))
}

// Requirement declares the state an operation needs its resource to be in.
type Requirement struct {
	Resource Resource
	Tag      Tag
	State    State
	Access   Access
}

func (r Requirement) Key() Key {
	return Key{Resource: r.Resource, Tag: r.Tag}
}

// Transition describes the barrier between the last user of a key and the
// node that requested it. FirstUse is set when no earlier node touched the key.
type Transition struct {
	Resource Resource
	Tag      Tag

	SrcStage  Stage
	SrcAccess Access
	SrcState  State

	DstStage  Stage
	DstAccess Access
	DstState  State

	FirstUse bool
}

func (t Transition) Key() Key {
	return Key{Resource: t.Resource, Tag: t.Tag}
}
