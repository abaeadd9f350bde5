package core

import (
	"testing"
)

func TestSetLogLevel(t *testing.T) {
	if err := SetLogLevel("debug"); err != nil {
		t.Errorf("SetLogLevel(debug) error = %v", err)
	}
	if err := SetLogLevel("loud"); err == nil {
		t.Error("SetLogLevel(loud) should fail")
	}
	_ = SetLogLevel("info")
}
