// Package workspace discovers the packages of an npm-style repository and
// rewrites their manifests with PR-scoped versions.
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// RootTool is reported when no monorepo layout applies and the root package is
// published on its own.
const RootTool = "root"

// Package is one publishable package of the workspace.
type Package struct {
	Name     string
	Dir      string
	Manifest *Manifest
}

// Workspace is the result of discovery.
type Workspace struct {
	Tool     string
	Root     *Package
	Packages []*Package
}

// Names returns package names in discovery order.
func (w *Workspace) Names() []string {
	names := make([]string, len(w.Packages))
	for i, p := range w.Packages {
		names[i] = p.Name
	}
	return names
}

// Discover finds the packages under root. The root package.json is required.
// When a registered tool declares workspace globs, the matching directories
// that contain a package.json are returned (the root itself excluded);
// otherwise the root package is the only package.
func Discover(root string) (*Workspace, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root: %w", err)
	}

	rootManifest, err := ReadManifest(absRoot)
	if err != nil {
		return nil, fmt.Errorf("no root package found in %s: %w", absRoot, err)
	}
	rootPkg := &Package{Name: rootManifest.Name(), Dir: absRoot, Manifest: rootManifest}

	for _, tool := range registered() {
		globs, ok, err := tool.Globs(absRoot, rootManifest)
		if err != nil {
			return nil, fmt.Errorf("%s workspace: %w", tool.Name(), err)
		}
		if !ok {
			continue
		}
		pkgs, err := expandGlobs(absRoot, globs)
		if err != nil {
			return nil, fmt.Errorf("%s workspace: %w", tool.Name(), err)
		}
		return &Workspace{Tool: tool.Name(), Root: rootPkg, Packages: pkgs}, nil
	}

	return &Workspace{Tool: RootTool, Root: rootPkg, Packages: []*Package{rootPkg}}, nil
}

func expandGlobs(root string, globs []string) ([]*Package, error) {
	var include, exclude []string
	for _, g := range globs {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		if neg, ok := strings.CutPrefix(g, "!"); ok {
			exclude = append(exclude, cleanGlob(neg))
			continue
		}
		include = append(include, cleanGlob(g))
	}

	fsys := os.DirFS(root)
	seen := make(map[string]bool)
	var dirs []string
	for _, pattern := range include {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid workspace glob %q", pattern)
		}
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to expand glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			if seen[m] || m == "." || inNodeModules(m) || excluded(m, exclude) {
				continue
			}
			seen[m] = true
			dirs = append(dirs, m)
		}
	}
	sort.Strings(dirs)

	var pkgs []*Package
	for _, d := range dirs {
		dir := filepath.Join(root, filepath.FromSlash(d))
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		info, err := os.Stat(filepath.Join(dir, ManifestFile))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", dir, err)
		}
		if info.IsDir() {
			continue
		}
		m, err := ReadManifest(dir)
		if err != nil {
			return nil, err
		}
		pkgs = append(pkgs, &Package{Name: m.Name(), Dir: dir, Manifest: m})
	}
	return pkgs, nil
}

func cleanGlob(g string) string {
	g = strings.TrimPrefix(g, "./")
	g = strings.TrimSuffix(g, "/")
	return path.Clean(g)
}

func inNodeModules(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if seg == "node_modules" {
			return true
		}
	}
	return false
}

func excluded(p string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, p); ok {
			return true
		}
	}
	return false
}
