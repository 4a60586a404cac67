package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// npmTool reads the "workspaces" field of the root package.json, shared by
// npm, yarn and bun. Both the array form and yarn's {"packages": [...]} form
// are accepted.
type npmTool struct{}

func (npmTool) Name() string { return "npm" }

func (npmTool) Globs(_ string, rootManifest *Manifest) ([]string, bool, error) {
	ws := rootManifest.Get("workspaces")
	if !ws.Exists() {
		return nil, false, nil
	}
	if ws.IsObject() {
		ws = ws.Get("packages")
	}
	if !ws.IsArray() {
		return nil, false, fmt.Errorf("package.json workspaces must be an array or an object with a packages array")
	}
	var globs []string
	for _, g := range ws.Array() {
		globs = append(globs, g.String())
	}
	return globs, true, nil
}

// pnpmTool reads pnpm-workspace.yaml.
type pnpmTool struct{}

type pnpmWorkspace struct {
	Packages []string `yaml:"packages"`
}

func (pnpmTool) Name() string { return "pnpm" }

func (pnpmTool) Globs(root string, _ *Manifest) ([]string, bool, error) {
	data, err := os.ReadFile(filepath.Join(root, "pnpm-workspace.yaml"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read pnpm-workspace.yaml: %w", err)
	}
	var ws pnpmWorkspace
	if err := yaml.Unmarshal(data, &ws); err != nil {
		return nil, false, fmt.Errorf("failed to parse pnpm-workspace.yaml: %w", err)
	}
	return ws.Packages, true, nil
}

// lernaTool reads the "packages" field of lerna.json.
type lernaTool struct{}

func (lernaTool) Name() string { return "lerna" }

func (lernaTool) Globs(root string, _ *Manifest) ([]string, bool, error) {
	data, err := os.ReadFile(filepath.Join(root, "lerna.json"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read lerna.json: %w", err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, false, fmt.Errorf("lerna.json: %w", err)
	}
	pkgs := m.Get("packages")
	if !pkgs.Exists() {
		// lerna's default layout
		return []string{"packages/*"}, true, nil
	}
	var globs []string
	for _, g := range pkgs.Array() {
		globs = append(globs, g.String())
	}
	return globs, true, nil
}
