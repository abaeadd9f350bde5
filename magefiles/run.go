//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Resolves the example plan and prints its barriers.
func (Run) Plan() error {
	fmt.Println("Resolve plans/frame.toml...")
	if _, err := executeCmd("go", withArgs("run", "main.go", "-plan", "plans/frame.toml"), withStream()); err != nil {
		return err
	}
	return nil
}

// Resolves the example plan and re-resolves it whenever it changes.
func (Run) Watch() error {
	if _, err := executeCmd("go", withArgs("run", "main.go", "-plan", "plans/frame.toml", "-watch", "-log-level", "debug"), withStream()); err != nil {
		return err
	}
	return nil
}

type Test mg.Namespace

// Runs every package test with the race detector.
func (Test) All() error {
	if _, err := executeCmd("go", withArgs("test", "-race", "./..."), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs the barrier tracker tests only.
func (Test) Barrier() error {
	if _, err := executeCmd("go", withArgs("test", "-v", "./barrier/..."), withDir("engine/renderer"), withStream()); err != nil {
		return err
	}
	return nil
}
