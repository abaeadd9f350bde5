package loaders

import (
	"fmt"
	"strings"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/wyvern/engine/core"
	"github.com/spaghettifunk/wyvern/engine/renderer/barrier"
)

var layouts = map[string]barrier.State{
	"undefined":                     vk.ImageLayoutUndefined,
	"general":                       vk.ImageLayoutGeneral,
	"colorattachmentoptimal":        vk.ImageLayoutColorAttachmentOptimal,
	"depthstencilattachmentoptimal": vk.ImageLayoutDepthStencilAttachmentOptimal,
	"depthstencilreadonlyoptimal":   vk.ImageLayoutDepthStencilReadOnlyOptimal,
	"shaderreadonlyoptimal":         vk.ImageLayoutShaderReadOnlyOptimal,
	"transfersrcoptimal":            vk.ImageLayoutTransferSrcOptimal,
	"transferdstoptimal":            vk.ImageLayoutTransferDstOptimal,
	"preinitialized":                vk.ImageLayoutPreinitialized,
	"presentsrc":                    vk.ImageLayoutPresentSrc,
}

var accesses = map[string]barrier.Access{
	"none":                        barrier.AccessNone,
	"indirectcommandread":         barrier.Access(vk.AccessIndirectCommandReadBit),
	"indexread":                   barrier.Access(vk.AccessIndexReadBit),
	"vertexattributeread":         barrier.Access(vk.AccessVertexAttributeReadBit),
	"uniformread":                 barrier.Access(vk.AccessUniformReadBit),
	"inputattachmentread":         barrier.Access(vk.AccessInputAttachmentReadBit),
	"shaderread":                  barrier.Access(vk.AccessShaderReadBit),
	"shaderwrite":                 barrier.Access(vk.AccessShaderWriteBit),
	"colorattachmentread":         barrier.Access(vk.AccessColorAttachmentReadBit),
	"colorattachmentwrite":        barrier.Access(vk.AccessColorAttachmentWriteBit),
	"depthstencilattachmentread":  barrier.Access(vk.AccessDepthStencilAttachmentReadBit),
	"depthstencilattachmentwrite": barrier.Access(vk.AccessDepthStencilAttachmentWriteBit),
	"transferread":                barrier.Access(vk.AccessTransferReadBit),
	"transferwrite":               barrier.Access(vk.AccessTransferWriteBit),
	"hostread":                    barrier.Access(vk.AccessHostReadBit),
	"hostwrite":                   barrier.Access(vk.AccessHostWriteBit),
	"memoryread":                  barrier.Access(vk.AccessMemoryReadBit),
	"memorywrite":                 barrier.Access(vk.AccessMemoryWriteBit),
}

var stages = map[string]barrier.Stage{
	"topofpipe":             barrier.Stage(vk.PipelineStageTopOfPipeBit),
	"drawindirect":          barrier.Stage(vk.PipelineStageDrawIndirectBit),
	"vertexinput":           barrier.Stage(vk.PipelineStageVertexInputBit),
	"vertexshader":          barrier.Stage(vk.PipelineStageVertexShaderBit),
	"fragmentshader":        barrier.Stage(vk.PipelineStageFragmentShaderBit),
	"earlyfragmenttests":    barrier.Stage(vk.PipelineStageEarlyFragmentTestsBit),
	"latefragmenttests":     barrier.Stage(vk.PipelineStageLateFragmentTestsBit),
	"colorattachmentoutput": barrier.Stage(vk.PipelineStageColorAttachmentOutputBit),
	"computeshader":         barrier.Stage(vk.PipelineStageComputeShaderBit),
	"transfer":              barrier.Stage(vk.PipelineStageTransferBit),
	"bottomofpipe":          barrier.Stage(vk.PipelineStageBottomOfPipeBit),
	"host":                  barrier.Stage(vk.PipelineStageHostBit),
	"allgraphics":           barrier.Stage(vk.PipelineStageAllGraphicsBit),
	"allcommands":           barrier.Stage(vk.PipelineStageAllCommandsBit),
}

var aspects = map[string]barrier.Tag{
	"color":   barrier.TagColor,
	"depth":   barrier.TagDepth,
	"stencil": barrier.TagStencil,
}

// normalize lets plans write Vulkan-style names in any case, with or without
// the usual prefixes and suffixes.
func normalize(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer("_", "", "-", "", " ", "").Replace(n)
	n = strings.TrimPrefix(n, "vk")
	for _, prefix := range []string{"imagelayout", "access", "pipelinestage", "imageaspect"} {
		n = strings.TrimPrefix(n, prefix)
	}
	n = strings.TrimSuffix(n, "bit")
	return strings.TrimSuffix(n, "khr")
}

func lookup[T any](table map[string]T, kind, name string) (T, error) {
	v, ok := table[normalize(name)]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s %q: %w", kind, name, core.ErrUnknownName)
	}
	return v, nil
}

func ParseLayout(name string) (barrier.State, error) {
	return lookup(layouts, "layout", name)
}

func ParseAspect(name string) (barrier.Tag, error) {
	return lookup(aspects, "aspect", name)
}

// ParseAccess ORs together the named access flags.
func ParseAccess(names []string) (barrier.Access, error) {
	var out barrier.Access
	for _, n := range names {
		a, err := lookup(accesses, "access", n)
		if err != nil {
			return 0, err
		}
		out |= a
	}
	return out, nil
}

// ParseStage ORs together the named pipeline stages.
func ParseStage(names []string) (barrier.Stage, error) {
	var out barrier.Stage
	for _, n := range names {
		s, err := lookup(stages, "stage", n)
		if err != nil {
			return 0, err
		}
		out |= s
	}
	return out, nil
}

// LayoutName is the inverse of ParseLayout, used when printing barriers.
func LayoutName(s barrier.State) string {
	for _, n := range layoutNames {
		if layouts[normalize(n)] == s {
			return n
		}
	}
	return fmt.Sprintf("Layout(%d)", int32(s))
}

var layoutNames = []string{
	"Undefined", "General", "ColorAttachmentOptimal", "DepthStencilAttachmentOptimal",
	"DepthStencilReadOnlyOptimal", "ShaderReadOnlyOptimal", "TransferSrcOptimal",
	"TransferDstOptimal", "Preinitialized", "PresentSrc",
}

var accessNames = []string{
	"IndirectCommandRead", "IndexRead", "VertexAttributeRead", "UniformRead",
	"InputAttachmentRead", "ShaderRead", "ShaderWrite", "ColorAttachmentRead",
	"ColorAttachmentWrite", "DepthStencilAttachmentRead", "DepthStencilAttachmentWrite",
	"TransferRead", "TransferWrite", "HostRead", "HostWrite", "MemoryRead", "MemoryWrite",
}

var stageNames = []string{
	"TopOfPipe", "DrawIndirect", "VertexInput", "VertexShader", "FragmentShader",
	"EarlyFragmentTests", "LateFragmentTests", "ColorAttachmentOutput", "ComputeShader",
	"Transfer", "BottomOfPipe", "Host", "AllGraphics", "AllCommands",
}

func flagNames[T ~uint32](v T, names []string, table map[string]T, none string) string {
	if v == 0 {
		return none
	}
	var parts []string
	for _, n := range names {
		if bit := table[normalize(n)]; bit != 0 && v&bit == bit {
			parts = append(parts, n)
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%#x", uint32(v))
	}
	return strings.Join(parts, "|")
}

func AccessName(a barrier.Access) string {
	return flagNames(a, accessNames, accesses, "None")
}

func StageName(s barrier.Stage) string {
	return flagNames(s, stageNames, stages, "None")
}

func AspectName(t barrier.Tag) string {
	return flagNames(t, []string{"Color", "Depth", "Stencil"}, aspects, "None")
}
