package tool

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"scout/internal/domain"
)

// Registry is the domain.ToolExecutor the agent uses. Every tool with a
// parameter schema is guarded by argument validation on the way in.
type Registry struct {
	logger *slog.Logger

	mu    sync.RWMutex
	byKey map[string]domain.Tool
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger, byKey: map[string]domain.Tool{}}
}

// Register adds t under its name. A schema that fails to compile only
// disables validation for t; it is not a registration error.
func (r *Registry) Register(t domain.Tool) error {
	name := t.Name()
	guarded, err := WithSchemaValidation(t)
	if err != nil {
		r.logger.Warn("tool registered without argument validation", "tool", name, "error", err)
		guarded = t
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byKey[name]; dup {
		return fmt.Errorf("tool %q already registered", name)
	}
	r.byKey[name] = guarded
	return nil
}

func (r *Registry) Get(name string) (domain.Tool, error) {
	r.mu.RLock()
	t, ok := r.byKey[name]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.NewDomainError("Registry.Get", domain.ErrToolNotFound, name)
	}
	return t, nil
}

// Names lists registered tools alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.byKey))
}

// Schemas lists tool schemas in name order so that consecutive model
// requests carry an identical tools block.
func (r *Registry) Schemas() []domain.ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ToolSchema, 0, len(r.byKey))
	for _, name := range slices.Sorted(maps.Keys(r.byKey)) {
		out = append(out, r.byKey[name].Schema())
	}
	return out
}
