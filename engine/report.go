package engine

import (
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/wyvern/engine/assets/loaders"
	"github.com/spaghettifunk/wyvern/engine/renderer/barrier"
	"github.com/spaghettifunk/wyvern/engine/renderer/commands"
)

// BarrierReport is the printable form of one inferred barrier.
type BarrierReport struct {
	Step      int    `toml:"step"`
	Command   string `toml:"command"`
	Image     string `toml:"image"`
	Aspect    string `toml:"aspect"`
	FirstUse  bool   `toml:"first_use"`
	SrcStage  string `toml:"src_stage"`
	SrcAccess string `toml:"src_access"`
	SrcLayout string `toml:"src_layout"`
	DstStage  string `toml:"dst_stage"`
	DstAccess string `toml:"dst_access"`
	DstLayout string `toml:"dst_layout"`
}

type Report struct {
	Plan     string          `toml:"plan"`
	Commands int             `toml:"commands"`
	Barriers []BarrierReport `toml:"barrier"`
}

// NewReport describes every barrier of steps. names maps resources back to
// the image names of the plan.
func NewReport(plan string, steps []commands.Step, names map[barrier.Resource]string) *Report {
	r := &Report{Plan: plan, Commands: len(steps)}
	for _, st := range steps {
		if st.Transition == nil {
			continue
		}
		t := st.Transition
		name, ok := names[t.Resource]
		if !ok {
			name = t.Resource.String()
		}
		r.Barriers = append(r.Barriers, BarrierReport{
			Step:      st.Index,
			Command:   st.Command.Name(),
			Image:     name,
			Aspect:    loaders.AspectName(t.Tag),
			FirstUse:  t.FirstUse,
			SrcStage:  loaders.StageName(t.SrcStage),
			SrcAccess: loaders.AccessName(t.SrcAccess),
			SrcLayout: loaders.LayoutName(t.SrcState),
			DstStage:  loaders.StageName(t.DstStage),
			DstAccess: loaders.AccessName(t.DstAccess),
			DstLayout: loaders.LayoutName(t.DstState),
		})
	}
	return r
}

func (r *Report) Write(w io.Writer, format string) error {
	switch format {
	case "", "text":
		return r.writeText(w)
	case "toml":
		return toml.NewEncoder(w).Encode(r)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func (r *Report) writeText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s: %d commands, %d barriers\n", r.Plan, r.Commands, len(r.Barriers)); err != nil {
		return err
	}
	for _, b := range r.Barriers {
		first := ""
		if b.FirstUse {
			first = " (first use)"
		}
		if _, err := fmt.Fprintf(w, "#%d %s %s/%s%s: %s [%s @ %s] -> %s [%s @ %s]\n",
			b.Step, b.Command, b.Image, b.Aspect, first,
			b.SrcLayout, b.SrcAccess, b.SrcStage,
			b.DstLayout, b.DstAccess, b.DstStage); err != nil {
			return err
		}
	}
	return nil
}
