package assets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spaghettifunk/wyvern/engine/assets/loaders"
	"github.com/spaghettifunk/wyvern/engine/renderer/metadata"
)

const minimalPlan = "[[image]]\nname = \"a\"\n"

func TestInitializeIndexesPlans(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "frame.toml"), []byte(minimalPlan), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	am, err := NewAssetManager()
	if err != nil {
		t.Fatal(err)
	}
	if err := am.Initialize(dir); err != nil {
		t.Fatalf("Initialize error = %v", err)
	}
	defer am.Close()

	plans := am.Assets(metadata.ResourceTypePlan)
	if len(plans) != 1 || filepath.Base(plans[0].Path) != "frame.toml" {
		t.Errorf("Assets(plan) = %+v, want frame.toml only", plans)
	}
}

func TestLoadAsset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.toml")
	if err := os.WriteFile(path, []byte(minimalPlan), 0o644); err != nil {
		t.Fatal(err)
	}
	am, err := NewAssetManager()
	if err != nil {
		t.Fatal(err)
	}

	defer am.Close()

	res, err := am.LoadAsset(path, nil)
	if err != nil {
		t.Fatalf("LoadAsset error = %v", err)
	}
	plan, ok := res.Data.(*loaders.Plan)
	if !ok || len(plan.Images) != 1 {
		t.Errorf("Data = %#v, want a plan with one image", res.Data)
	}
	if err := am.UnloadAsset(res); err != nil {
		t.Errorf("UnloadAsset error = %v", err)
	}
	if _, err := am.LoadAsset(filepath.Join(dir, "shader.spv"), nil); err == nil {
		t.Error("LoadAsset of an unknown type should fail")
	}
}

func TestWatcherReportsChanges(t *testing.T) {
	dir := t.TempDir()
	am, err := NewAssetManager()
	if err != nil {
		t.Fatal(err)
	}
	changed := make(chan AssetInfo, 8)
	am.OnChange(func(info AssetInfo) { changed <- info })
	if err := am.Initialize(dir); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "frame.toml")
	if err := os.WriteFile(path, []byte(minimalPlan), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case info := <-changed:
		if info.Path != path || info.Type != metadata.ResourceTypePlan {
			t.Errorf("change = %+v, want %s as plan", info, path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported for a new plan")
	}

	if err := am.Close(); err != nil {
		t.Fatalf("Close error = %v", err)
	}
	if err := am.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close error = %v, want ErrClosed", err)
	}
}
