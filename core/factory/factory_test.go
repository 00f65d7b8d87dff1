package factory

import (
	"testing"
	"time"

	"github.com/kilianp07/oncall/core/errs"
)

type store struct {
	path    string
	retries int
	flush   time.Duration
}

type storeConf struct {
	Path    string        `json:"path"`
	Retries int           `json:"retries"`
	Flush   time.Duration `json:"flush"`
}

// Test registry registration and instantiation using Decode.
func TestRegistry_Create(t *testing.T) {
	reg := NewRegistry[*store]()
	if err := reg.Register("file", func(conf map[string]any) (*store, error) {
		var c storeConf
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return &store{path: c.Path, retries: c.Retries, flush: c.Flush}, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	inst, err := reg.Create(ModuleConfig{Type: "file", Conf: map[string]any{
		"path": "runs.db", "retries": "3", "flush": "2s",
	}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inst.path != "runs.db" || inst.retries != 3 || inst.flush != 2*time.Second {
		t.Fatalf("unexpected instance %+v", inst)
	}
	if _, err := reg.Create(ModuleConfig{Type: "file", Conf: map[string]any{"colour": "red"}}); !errs.IsConfiguration(err) {
		t.Fatalf("expected configuration error for unknown key, got %v", err)
	}
}

// Test duplicate registration and unknown type errors.
func TestRegistry_Errors(t *testing.T) {
	reg := NewRegistry[int]()
	if err := reg.Register("x", func(map[string]any) (int, error) { return 1, nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("x", func(map[string]any) (int, error) { return 2, nil }); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := reg.Register("z", nil); err == nil {
		t.Fatal("expected nil factory error")
	}
	if _, err := reg.Create(ModuleConfig{Type: "y"}); !errs.IsConfiguration(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if got := reg.Types(); len(got) != 1 || got[0] != "x" {
		t.Fatalf("types %v", got)
	}
}
