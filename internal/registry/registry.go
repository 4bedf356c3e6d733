// Package registry provides a global registry for level factories.
// Levels register themselves in init() functions, allowing the runner and
// the CLI to discover and build levels without hardcoded dependencies.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mouradboutrid/geometry-dash-RL/internal/config"
	"github.com/mouradboutrid/geometry-dash-RL/internal/features"
)

// Level builds the object layout of one level.
// Levels contain pure generation logic with no simulation state.
type Level interface {
	// ID returns a unique identifier for this level (e.g., "stereo").
	// Used for CLI flags and episode storage.
	ID() string

	// Title returns a human-readable name for display.
	Title() string

	// Build generates the layout. The same config and seed must always
	// yield the same layout.
	Build(cfg config.RunnerConfig, seed int64) Layout
}

// Zone is a horizontal span in which the player flies the ship.
type Zone struct {
	Start, End float64
}

// Contains reports whether x lies in the zone.
func (z Zone) Contains(x float64) bool {
	return x >= z.Start && x < z.End
}

// Layout is a generated level.
type Layout struct {
	Length  float64
	Objects []features.Object
	Ship    []Zone
}

// LevelInfo contains metadata about a registered level.
type LevelInfo struct {
	ID    string
	Title string
}

// Factory is a function that creates a new instance of a level.
type Factory func() Level

var (
	factories = make(map[string]Factory)
	titles    = make(map[string]string)
	mu        sync.RWMutex
)

// Register adds a level factory to the registry.
// Typically called from an init() function.
// Panics if a level with the same ID is already registered.
func Register(id string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[id]; exists {
		panic(fmt.Sprintf("registry: level %q already registered", id))
	}

	factories[id] = f
	titles[id] = f().Title()
}

// List returns information about all registered levels, sorted by ID.
func List() []LevelInfo {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]LevelInfo, 0, len(factories))
	for id := range factories {
		result = append(result, LevelInfo{
			ID:    id,
			Title: titles[id],
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// Create instantiates a level by its ID.
// Returns an error if the level ID is not registered.
func Create(id string) (Level, error) {
	mu.RLock()
	defer mu.RUnlock()

	f, ok := factories[id]
	if !ok {
		return nil, fmt.Errorf("registry: unknown level %q", id)
	}

	return f(), nil
}

// Exists checks if a level with the given ID is registered.
func Exists(id string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := factories[id]
	return ok
}
