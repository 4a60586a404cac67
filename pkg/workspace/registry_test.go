package workspace

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type stubTool struct {
	name string
}

func (s stubTool) Name() string { return s.name }

func (s stubTool) Globs(string, *Manifest) ([]string, bool, error) { return nil, false, nil }

func TestBuiltinToolsOrder(t *testing.T) {
	want := []string{"npm", "pnpm", "lerna"}
	if diff := cmp.Diff(want, List()); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
}

func TestRegister(t *testing.T) {
	t.Run("register valid tool", func(t *testing.T) {
		if err := Register(stubTool{name: "test-tool-1"}); err != nil {
			t.Fatalf("Register() failed: %v", err)
		}
		defer func() { _ = Unregister("test-tool-1") }()

		if Get("test-tool-1") == nil {
			t.Error("tool was not registered")
		}
		names := List()
		if names[len(names)-1] != "test-tool-1" {
			t.Errorf("new tool should be detected last, got order %v", names)
		}
	})

	t.Run("register nil tool", func(t *testing.T) {
		if err := Register(nil); err == nil {
			t.Error("expected error when registering nil tool")
		}
	})

	t.Run("register tool with empty name", func(t *testing.T) {
		if err := Register(stubTool{}); err == nil {
			t.Error("expected error when registering tool with empty name")
		}
	})

	t.Run("register duplicate tool", func(t *testing.T) {
		if err := Register(stubTool{name: "npm"}); err == nil {
			t.Error("expected error when registering duplicate tool")
		}
	})
}

func TestUnregister(t *testing.T) {
	if err := Unregister("does-not-exist"); err == nil {
		t.Error("expected error when unregistering unknown tool")
	}

	if err := Register(stubTool{name: "test-tool-2"}); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if err := Unregister("test-tool-2"); err != nil {
		t.Fatalf("Unregister() failed: %v", err)
	}
	if Get("test-tool-2") != nil {
		t.Error("tool still registered after Unregister")
	}
	for _, n := range List() {
		if n == "test-tool-2" {
			t.Error("tool still listed after Unregister")
		}
	}
}
