package engine

import "io"

type ApplicationConfig struct {
	// Path of the plan to resolve.
	PlanPath string
	// Re-resolve the plan whenever a plan in its directory changes.
	Watch bool
	// debug, info, warn or error. Overrides the plan's settings when set.
	LogLevel string
	// text or toml. Overrides the plan's settings when set.
	Format string
	// Where reports are written.
	Output io.Writer
}
