package main

import "testing"

func TestParseFlags(t *testing.T) {
	cfg, err := parseFlags([]string{"-plan", "plans/frame.toml", "-watch", "-format", "toml"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.PlanPath != "plans/frame.toml" || !cfg.Watch || cfg.Format != "toml" {
		t.Errorf("config = %+v", cfg)
	}

	for _, args := range [][]string{
		{},
		{"-plan"},
		{"-plan", "a.toml", "extra"},
		{"-unknown"},
	} {
		if _, err := parseFlags(args); err == nil {
			t.Errorf("parseFlags(%q) should fail", args)
		}
	}
}
