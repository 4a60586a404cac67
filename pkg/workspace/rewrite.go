package workspace

import (
	"fmt"
	"path/filepath"

	"github.com/holon-run/prvoyager/pkg/version"
	"github.com/pmezard/go-difflib/difflib"
)

// Change is the planned version rewrite of one package.
type Change struct {
	Package *Package
	From    string
	To      string
	Updated *Manifest
}

// Plan computes the rewrite of every package without touching the disk. It
// fails before any write if a manifest has no version.
func Plan(pkgs []*Package, tag, sha string) ([]Change, error) {
	changes := make([]Change, 0, len(pkgs))
	for _, p := range pkgs {
		from, ok := p.Manifest.Version()
		if !ok {
			return nil, fmt.Errorf("package %s (%s): %w", p.Name, p.Dir, ErrNoVersion)
		}
		to := version.Version(from, tag, sha)
		updated, err := p.Manifest.WithVersion(to)
		if err != nil {
			return nil, fmt.Errorf("package %s: %w", p.Name, err)
		}
		changes = append(changes, Change{Package: p, From: from, To: to, Updated: updated})
	}
	return changes, nil
}

// Rewrite applies Plan and writes each manifest back to its package
// directory. Writes are not rolled back: if package N fails, packages before
// it keep their new versions.
func Rewrite(pkgs []*Package, tag, sha string) ([]Change, error) {
	changes, err := Plan(pkgs, tag, sha)
	if err != nil {
		return nil, err
	}
	for i, c := range changes {
		if err := WriteManifest(c.Package.Dir, c.Updated); err != nil {
			return changes[:i], fmt.Errorf("package %s: %w", c.Package.Name, err)
		}
		c.Package.Manifest = c.Updated
	}
	return changes, nil
}

// Diff renders the change as a unified diff of the manifest file.
func (c Change) Diff() (string, error) {
	after, err := c.Updated.Format()
	if err != nil {
		return "", err
	}
	name := filepath.Join(c.Package.Dir, ManifestFile)
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(c.Package.Manifest.Raw())),
		B:        difflib.SplitLines(string(after)),
		FromFile: name,
		ToFile:   name,
		Context:  1,
	})
}
