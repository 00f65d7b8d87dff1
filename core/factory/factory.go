package factory

import (
	"sort"
	"sync"

	"github.com/mitchellh/mapstructure"

	"github.com/kilianp07/oncall/core/errs"
)

// ModuleConfig contains the type name and raw configuration for a module.
type ModuleConfig struct {
	Type string         `json:"type" yaml:"type"`
	Conf map[string]any `json:"conf" yaml:"conf"`
}

// Factory constructs an implementation of T using the provided raw config.
type Factory[T any] func(map[string]any) (T, error)

// Registry stores factories keyed by module type.
type Registry[T any] struct {
	mu        sync.RWMutex
	factories map[string]Factory[T]
}

// NewRegistry returns an empty factory registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{factories: make(map[string]Factory[T])}
}

// Register adds a factory for the given type name.
func (r *Registry[T]) Register(name string, f Factory[T]) error {
	if name == "" {
		return errs.Configuration("factory.Register", "type", "empty module type")
	}
	if f == nil {
		return errs.Configuration("factory.Register", name, "nil factory")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[name]; ok {
		return errs.Configuration("factory.Register", name, "factory already registered")
	}
	r.factories[name] = f
	return nil
}

// Types returns the registered type names in sorted order.
func (r *Registry[T]) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Create instantiates a module based on its configuration.
func (r *Registry[T]) Create(cfg ModuleConfig) (T, error) {
	r.mu.RLock()
	f, ok := r.factories[cfg.Type]
	r.mu.RUnlock()
	if !ok {
		var zero T
		return zero, errs.Configuration("factory.Create", "type", "unknown module type %q", cfg.Type)
	}
	return f(cfg.Conf)
}

// Decode fills out the provided struct using json tags. Strings coming from
// environment overrides are converted to numbers, booleans and durations;
// unknown keys are rejected.
func Decode(data map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(data); err != nil {
		return errs.Configuration("factory.Decode", "conf", "%v", err)
	}
	return nil
}
