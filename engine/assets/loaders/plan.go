package loaders

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	vk "github.com/goki/vulkan"
	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/wyvern/engine/core"
	"github.com/spaghettifunk/wyvern/engine/renderer/barrier"
	"github.com/spaghettifunk/wyvern/engine/renderer/commands"
	"github.com/spaghettifunk/wyvern/engine/renderer/metadata"
)

// Plan is the toml description of a recorded command sequence.
type Plan struct {
	Settings PlanSettings `toml:"settings"`
	Images   []PlanImage  `toml:"image"`
	Passes   []PlanPass   `toml:"pass"`
}

type PlanSettings struct {
	LogLevel string `toml:"log_level"`
	Format   string `toml:"format"`
}

type PlanImage struct {
	Name   string `toml:"name"`
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
}

// PlanPass is a named run of commands. Passes are recorded in file order.
type PlanPass struct {
	Name     string        `toml:"name"`
	Commands []PlanCommand `toml:"command"`
}

type PlanCommand struct {
	Kind          string    `toml:"kind"`
	Image         string    `toml:"image"`
	Aspect        string    `toml:"aspect"`
	Layout        string    `toml:"layout"`
	Access        []string  `toml:"access"`
	Stage         []string  `toml:"stage"`
	Color         []float32 `toml:"color"`
	Vertices      uint32    `toml:"vertices"`
	Instances     uint32    `toml:"instances"`
	FirstVertex   uint32    `toml:"first_vertex"`
	FirstInstance uint32    `toml:"first_instance"`
}

// ParsePlan decodes a plan, rejecting unknown keys.
func ParsePlan(data []byte) (*Plan, error) {
	plan := &Plan{}
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(plan); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrPlanInvalid, err)
	}
	return plan, nil
}

// Build turns the plan into a sequence. Image names are resolved through
// registry so that reloading the same plan yields the same resources.
func (p *Plan) Build(registry *core.Registry) (*commands.Sequence, map[string]barrier.Resource, error) {
	images := make(map[string]barrier.Resource, len(p.Images))
	for _, img := range p.Images {
		if img.Name == "" {
			return nil, nil, fmt.Errorf("%w: image without a name", core.ErrPlanInvalid)
		}
		if _, ok := images[img.Name]; ok {
			return nil, nil, fmt.Errorf("%w: image %q declared twice", core.ErrPlanInvalid, img.Name)
		}
		images[img.Name] = barrier.Resource(registry.Acquire(img.Name))
	}

	root := commands.NewSequence()
	for i, pass := range p.Passes {
		sub := root.Sub()
		for j, pc := range pass.Commands {
			cmd, err := pc.command(images)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: pass %q (#%d) command #%d: %w", core.ErrPlanInvalid, pass.Name, i, j, err)
			}
			sub.Add(cmd)
		}
		if err := root.Then(sub).Err(); err != nil {
			return nil, nil, err
		}
	}
	return root, images, nil
}

func (pc PlanCommand) image(images map[string]barrier.Resource) (barrier.Resource, barrier.Tag, error) {
	res, ok := images[pc.Image]
	if !ok {
		return barrier.NilResource, 0, fmt.Errorf("image %q: %w", pc.Image, core.ErrUnknownName)
	}
	aspect := barrier.TagColor
	if pc.Aspect != "" {
		a, err := ParseAspect(pc.Aspect)
		if err != nil {
			return barrier.NilResource, 0, err
		}
		aspect = a
	}
	return res, aspect, nil
}

func (pc PlanCommand) command(images map[string]barrier.Resource) (commands.Command, error) {
	switch normalize(pc.Kind) {
	case "clear":
		img, aspect, err := pc.image(images)
		if err != nil {
			return nil, err
		}
		var color [4]float32
		if len(pc.Color) > 4 {
			return nil, fmt.Errorf("color has %d components, want at most 4", len(pc.Color))
		}
		copy(color[:], pc.Color)
		return commands.ClearColor{Image: img, Aspect: aspect, Color: color}, nil
	case "transition", "assume":
		img, aspect, err := pc.image(images)
		if err != nil {
			return nil, err
		}
		layout, err := ParseLayout(pc.Layout)
		if err != nil {
			return nil, err
		}
		access, err := ParseAccess(pc.Access)
		if err != nil {
			return nil, err
		}
		var stage barrier.Stage
		if len(pc.Stage) > 0 {
			if stage, err = ParseStage(pc.Stage); err != nil {
				return nil, err
			}
		}
		if normalize(pc.Kind) == "transition" {
			return commands.TransitionImage{Image: img, Aspect: aspect, Layout: layout, Access: access, AtStage: stage}, nil
		}
		if stage == 0 {
			stage = commands.StageTop
		}
		return commands.Assume{Image: img, Aspect: aspect, Layout: layout, Access: access, AtStage: stage}, nil
	case "present":
		img, aspect, err := pc.image(images)
		if err != nil {
			return nil, err
		}
		return commands.PreparePresent{Image: img, Aspect: aspect}, nil
	case "beginrenderpass":
		return commands.BeginRenderPass{Pass: commands.RenderPass{Contents: vk.SubpassContentsInline}}, nil
	case "endrenderpass":
		return commands.EndRenderPass{}, nil
	case "bindpipeline":
		return commands.BindPipeline{BindPoint: vk.PipelineBindPointGraphics}, nil
	case "draw":
		return commands.Draw{
			VertexCount:   pc.Vertices,
			InstanceCount: pc.Instances,
			FirstVertex:   pc.FirstVertex,
			FirstInstance: pc.FirstInstance,
		}, nil
	default:
		return nil, fmt.Errorf("command kind %q: %w", pc.Kind, core.ErrUnknownName)
	}
}

type PlanLoader struct{}

func (pl *PlanLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	plan, err := ParsePlan(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &metadata.Resource{
		Name:     strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		FullPath: path,
		Type:     assetType,
		DataSize: uint64(len(data)),
		Data:     plan,
	}, nil
}

func (pl *PlanLoader) Unload(*metadata.Resource) error {
	return nil
}
