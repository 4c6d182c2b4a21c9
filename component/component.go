// Package component defines the lifecycle contract shared by jwt, auth and redis.
// It imports nothing from the rest of the module so that every package can depend on it.
package component

import "context"

// Component lifecycle: Init -> Start -> Stop
type Component interface {
	// Name unique component name
	Name() string

	// DependsOn names of components that must be initialized first.
	// An "optional:" prefix marks a dependency the component can live without.
	DependsOn() []string

	// Init reads configuration and builds resources without starting background work
	Init(ctx context.Context, loader ConfigLoader) error

	// Start begins background work (schedulers, connections)
	Start(ctx context.Context) error

	// Stop releases resources; must be safe to call more than once
	Stop(ctx context.Context) error
}

// HealthChecker optional probe a component may expose
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}
