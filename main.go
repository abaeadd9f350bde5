/*
Wyvern resolves the image barriers of a command plan and prints them.

	wyvern -plan plans/frame.toml [-watch] [-log-level debug] [-format text|toml]
*/
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/wyvern/engine"
	"github.com/spaghettifunk/wyvern/engine/core"
)

func parseFlags(args []string) (*engine.ApplicationConfig, error) {
	fs := flag.NewFlagSet("wyvern", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	cfg := &engine.ApplicationConfig{Output: os.Stdout}
	fs.StringVar(&cfg.PlanPath, "plan", "", "Plan file to resolve. Required.")
	fs.BoolVar(&cfg.Watch, "watch", false, "Resolve again whenever the plan changes.")
	fs.StringVar(&cfg.LogLevel, "log-level", "", "debug|info|warn|error (defaults to the plan's settings)")
	fs.StringVar(&cfg.Format, "format", "", "text|toml (defaults to the plan's settings)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, fmt.Errorf("unexpected positional arguments: %v", fs.Args())
	}
	if cfg.PlanPath == "" {
		return nil, fmt.Errorf("-plan is required")
	}
	return cfg, nil
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	e, err := engine.New(cfg)
	if err != nil {
		core.LogFatal(err.Error())
	}

	if err := e.Initialize(); err != nil {
		core.LogFatal(err.Error())
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// start shutdown goroutine
	go func() {
		// capture sigterm and other system call here
		<-sigCh
		_ = e.Shutdown()
	}()

	if err := e.Run(); err != nil {
		_ = e.Shutdown()
		core.LogFatal(err.Error())
	}
	_ = e.Shutdown()
}
