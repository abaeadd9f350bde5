package core

import (
	"testing"
)

func TestClockElapsed(t *testing.T) {
	c := NewClock()
	c.Update()
	if c.Elapsed() != 0 {
		t.Errorf("unstarted clock Elapsed() = %v, want 0", c.Elapsed())
	}
	c.Start()
	c.Update()
	if c.Elapsed() < 0 {
		t.Errorf("Elapsed() = %v, want >= 0", c.Elapsed())
	}
	c.Stop()
	before := c.Elapsed()
	c.Update()
	if c.Elapsed() != before {
		t.Error("stopped clock kept advancing")
	}
}
