package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spaghettifunk/wyvern/engine/assets"
	"github.com/spaghettifunk/wyvern/engine/assets/loaders"
	"github.com/spaghettifunk/wyvern/engine/core"
	"github.com/spaghettifunk/wyvern/engine/renderer/barrier"
	"github.com/spaghettifunk/wyvern/engine/renderer/metadata"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

type Engine struct {
	config       *ApplicationConfig
	currentStage Stage
	assetManager *assets.AssetManager
	registry     *core.Registry
	clock        *core.Clock
	metrics      *core.Metrics

	resolveMu sync.Mutex

	mu       sync.Mutex
	shutdown chan struct{}
	closed   bool
}

func New(cfg *ApplicationConfig) (*Engine, error) {
	if cfg.PlanPath == "" {
		return nil, errors.New("a plan path is required")
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	am, err := assets.NewAssetManager()
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	return &Engine{
		config:       cfg,
		currentStage: EngineStageUninitialized,
		assetManager: am,
		registry:     core.NewRegistry(filepath.Clean(cfg.PlanPath)),
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
		shutdown:     make(chan struct{}),
	}, nil
}

func (e *Engine) Stage() Stage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentStage
}

func (e *Engine) setStage(s Stage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.currentStage = s
}

func (e *Engine) Initialize() error {
	e.setStage(EngineStageInitializing)

	if e.config.LogLevel != "" {
		if err := core.SetLogLevel(e.config.LogLevel); err != nil {
			return err
		}
	}

	if e.config.Watch {
		if err := e.assetManager.Initialize(filepath.Dir(e.config.PlanPath)); err != nil {
			return err
		}
		planPath := filepath.Clean(e.config.PlanPath)
		e.assetManager.OnChange(func(info assets.AssetInfo) {
			if info.Path != planPath {
				return
			}
			if err := e.Resolve(); err != nil {
				core.LogError("failed to resolve %s: %s", info.Path, err)
			}
		})
	}

	e.setStage(EngineStageInitialized)
	return nil
}

// Resolve loads the plan, infers its barriers and writes the report.
func (e *Engine) Resolve() error {
	e.resolveMu.Lock()
	defer e.resolveMu.Unlock()

	res, err := e.assetManager.LoadAsset(e.config.PlanPath, nil)
	if err != nil {
		return err
	}
	defer e.assetManager.UnloadAsset(res)

	plan, ok := res.Data.(*loaders.Plan)
	if !ok || res.Type != metadata.ResourceTypePlan {
		return fmt.Errorf("%s: %w", res.FullPath, core.ErrPlanInvalid)
	}
	if e.config.LogLevel == "" && plan.Settings.LogLevel != "" {
		if err := core.SetLogLevel(plan.Settings.LogLevel); err != nil {
			return err
		}
	}
	format := e.config.Format
	if format == "" {
		format = plan.Settings.Format
	}

	e.clock.Start()
	seq, images, err := plan.Build(e.registry)
	if err != nil {
		return err
	}
	steps, err := seq.Steps()
	if err != nil {
		return err
	}
	e.clock.Update()
	e.metrics.Update(e.clock.Elapsed())
	core.LogDebug("resolved %d commands of %s in %s (avg %s over %d runs)", len(steps), res.FullPath, e.clock.Elapsed(), e.metrics.Average(), e.metrics.Resolves())
	e.clock.Stop()

	names := make(map[barrier.Resource]string, len(images))
	for name, r := range images {
		names[r] = name
	}
	return NewReport(res.Name, steps, names).Write(e.config.Output, format)
}

// Run resolves the plan once and, in watch mode, keeps resolving it on every
// change until Shutdown is called.
func (e *Engine) Run() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.currentStage = EngineStageRunning
	e.mu.Unlock()

	if err := e.Resolve(); err != nil {
		if !e.config.Watch {
			return err
		}
		core.LogError("failed to resolve %s: %s", e.config.PlanPath, err)
	}
	if !e.config.Watch {
		return nil
	}
	core.LogInfo("watching %s for changes", filepath.Dir(e.config.PlanPath))
	<-e.shutdown
	return nil
}

func (e *Engine) Shutdown() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.currentStage = EngineStageShuttingDown
	e.mu.Unlock()

	close(e.shutdown)
	return e.assetManager.Close()
}
