package workspace

import (
	"fmt"
	"sync"
)

// Tool recognises one monorepo layout and reports the package globs it
// declares. ok is false when the layout does not apply to root.
type Tool interface {
	Name() string
	Globs(root string, rootManifest *Manifest) (globs []string, ok bool, err error)
}

var (
	mu    sync.RWMutex
	tools = make(map[string]Tool)
	order []string
)

// init registers the built-in tools. Detection runs in registration order.
func init() {
	for _, t := range []Tool{npmTool{}, pnpmTool{}, lernaTool{}} {
		if err := Register(t); err != nil {
			panic(fmt.Sprintf("failed to register %s workspace tool: %v", t.Name(), err))
		}
	}
}

// Register adds a tool after the already registered ones.
// If a tool with the same name is already registered, it returns an error.
func Register(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("cannot register nil tool")
	}

	name := tool.Name()
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	mu.Lock()
	defer mu.Unlock()

	if _, exists := tools[name]; exists {
		return fmt.Errorf("tool '%s' is already registered", name)
	}

	tools[name] = tool
	order = append(order, name)
	return nil
}

// Unregister removes a tool from the registry.
func Unregister(name string) error {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := tools[name]; !exists {
		return fmt.Errorf("tool '%s' is not registered", name)
	}

	delete(tools, name)
	for i, n := range order {
		if n == name {
			order = append(order[:i], order[i+1:]...)
			break
		}
	}
	return nil
}

// Get retrieves a tool by name, or nil.
func Get(name string) Tool {
	mu.RLock()
	defer mu.RUnlock()

	return tools[name]
}

// List returns registered tool names in detection order.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, len(order))
	copy(names, order)
	return names
}

func registered() []Tool {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]Tool, 0, len(order))
	for _, name := range order {
		out = append(out, tools[name])
	}
	return out
}
