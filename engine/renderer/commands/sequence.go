package commands

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/wyvern/engine/renderer/barrier"
)

var ErrForeignSequence = errors.New("sequence was not created from the same root")

// table is shared by a root sequence and all of its sub-sequences so that
// their chains can be spliced together.
type table struct {
	arena *barrier.Arena
	cmds  map[barrier.NodeID]Command
}

// Sequence is an ordered list of commands backed by a barrier chain.
// Errors from Add and Then are kept and reported by Err.
type Sequence struct {
	tbl   *table
	chain *barrier.Chain
	err   error
}

func NewSequence() *Sequence {
	arena := barrier.NewArena()
	return &Sequence{
		tbl:   &table{arena: arena, cmds: make(map[barrier.NodeID]Command)},
		chain: arena.NewChain(),
	}
}

// Sub returns an empty sequence that can later be joined to s with Then.
func (s *Sequence) Sub() *Sequence {
	return &Sequence{tbl: s.tbl, chain: s.tbl.arena.NewChain()}
}

// Add appends commands to the end of the sequence.
func (s *Sequence) Add(cmds ...Command) *Sequence {
	for _, cmd := range cmds {
		if s.err != nil {
			return s
		}
		var ref barrier.Ref
		if req, ok := cmd.Requirement(); ok {
			ref = s.tbl.arena.Bound(cmd.Stage(), req)
		} else {
			ref = s.tbl.arena.Node(cmd.Stage())
		}
		if err := s.chain.Append(ref); err != nil {
			s.err = fmt.Errorf("failed to add %s: %w", cmd.Name(), err)
			return s
		}
		s.tbl.cmds[nodeOf(ref)] = cmd
	}
	return s
}

// Then moves the commands of other to the end of s. other must come from
// s.Sub (or share its root) and cannot be used afterwards.
func (s *Sequence) Then(other *Sequence) *Sequence {
	if s.err != nil {
		return s
	}
	if other.err != nil {
		s.err = other.err
		return s
	}
	if other.tbl != s.tbl {
		s.err = ErrForeignSequence
		return s
	}
	if err := s.chain.Concat(other.chain); err != nil {
		s.err = fmt.Errorf("failed to join sequences: %w", err)
	}
	return s
}

func (s *Sequence) Err() error {
	return s.err
}

func (s *Sequence) Len() int {
	return s.chain.Len()
}

// Commands returns the commands in recording order.
func (s *Sequence) Commands() []Command {
	out := make([]Command, 0, s.chain.Len())
	for id := range s.chain.Nodes() {
		out = append(out, s.tbl.cmds[id])
	}
	return out
}

// Step is a command together with the barrier that precedes it, if any.
type Step struct {
	Index      int
	Command    Command
	Transition *barrier.Transition
}

// Steps resolves the barriers of the whole sequence.
func (s *Sequence) Steps() ([]Step, error) {
	if s.err != nil {
		return nil, s.err
	}
	resolved := s.chain.Resolve()
	byNode := make(map[barrier.NodeID]*barrier.Transition, len(resolved))
	for i := range resolved {
		byNode[resolved[i].Node.ID()] = &resolved[i].Transition
	}
	steps := make([]Step, 0, s.chain.Len())
	i := 0
	for id := range s.chain.Nodes() {
		steps = append(steps, Step{Index: i, Command: s.tbl.cmds[id], Transition: byNode[id]})
		i++
	}
	return steps, nil
}

// Transition returns the barrier for the command at index i using a
// backward search from that command.
func (s *Sequence) Transition(i int) (barrier.Transition, bool) {
	n := 0
	for id := range s.chain.Nodes() {
		if n == i {
			b, ok := s.tbl.arena.AsBound(id)
			if !ok {
				return barrier.Transition{}, false
			}
			t, err := s.tbl.arena.RequiredTransition(b)
			return t, err == nil
		}
		n++
	}
	return barrier.Transition{}, false
}

// FinalStates reports the state each image is left in by the sequence.
func (s *Sequence) FinalStates() map[barrier.Key]barrier.Requirement {
	return s.chain.States()
}

// RecordTo records every command into rec, preceded by its barrier.
func (s *Sequence) RecordTo(rec Recorder) error {
	steps, err := s.Steps()
	if err != nil {
		return err
	}
	for _, st := range steps {
		st.Command.Record(rec, st.Transition)
	}
	return nil
}

func nodeOf(ref barrier.Ref) barrier.NodeID {
	switch r := ref.(type) {
	case barrier.BoundID:
		return r.ID()
	case barrier.NodeID:
		return r
	}
	return barrier.None
}
