// Package npmrc makes sure the npm registry auth token is available to the
// publish command without overwriting one that is already configured.
package npmrc

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/holon-run/prvoyager/pkg/log"
)

// FileName is the npm config file name.
const FileName = ".npmrc"

// authLinePattern matches an existing npmjs auth token line. It follows the
// check npm's own adduser tests use.
var authLinePattern = regexp.MustCompile(`(?i)^\s*//registry\.npmjs\.org/:[_-]authToken=`)

// Outcome describes what Provision did.
type Outcome int

const (
	// Skipped means no token was available and nothing was written.
	Skipped Outcome = iota
	// Unchanged means the config already had an auth line.
	Unchanged
	// Appended means an auth line was appended to an existing file.
	Appended
	// Created means the user-level file was created.
	Created
)

func (o Outcome) String() string {
	switch o {
	case Unchanged:
		return "unchanged"
	case Appended:
		return "appended"
	case Created:
		return "created"
	default:
		return "skipped"
	}
}

// AuthLine returns the config line for token.
func AuthLine(token string) string {
	return "//registry.npmjs.org/:_authToken=" + token
}

// HasAuthLine reports whether content already configures an npmjs token.
func HasAuthLine(content []byte) bool {
	for _, line := range bytes.Split(content, []byte("\n")) {
		if authLinePattern.Match(line) {
			return true
		}
	}
	return false
}

// Provisioner holds the candidate locations and the token.
type Provisioner struct {
	// HomeDir holds the user-level .npmrc, which is preferred and is the one
	// created when neither file exists.
	HomeDir string
	// ProjectDir holds the project-level .npmrc.
	ProjectDir string
	// Token is NPM_TOKEN; empty supports token-less flows such as trusted
	// publishing with OIDC.
	Token string
}

// Candidates returns the config paths in lookup order.
func (p *Provisioner) Candidates() []string {
	return []string{
		filepath.Join(p.HomeDir, FileName),
		filepath.Join(p.ProjectDir, FileName),
	}
}

// Provision inspects the first existing candidate only.
func (p *Provisioner) Provision() (Outcome, string, error) {
	for _, path := range p.Candidates() {
		_, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Skipped, path, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		outcome, err := p.update(path)
		return outcome, path, err
	}

	userPath := p.Candidates()[0]
	if p.Token == "" {
		log.Info("No user .npmrc file found and no NPM_TOKEN provided. If you're using npm trusted publishers with OIDC, this is expected. Otherwise, please add the NPM_TOKEN to the env")
		return Skipped, userPath, nil
	}
	log.Info("No user .npmrc file found, creating one", "path", userPath)
	if err := os.WriteFile(userPath, []byte(AuthLine(p.Token)+"\n"), 0o600); err != nil {
		return Skipped, userPath, fmt.Errorf("failed to create %s: %w", userPath, err)
	}
	return Created, userPath, nil
}

func (p *Provisioner) update(path string) (Outcome, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Skipped, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if HasAuthLine(content) {
		log.Info("Found existing auth token for the npm registry in the .npmrc file", "path", path)
		return Unchanged, nil
	}
	if p.Token == "" {
		log.Info("No NPM_TOKEN found. If you're using npm trusted publishers with OIDC, this is expected. Otherwise, please add the NPM_TOKEN to the env")
		return Skipped, nil
	}

	log.Info("Didn't find an auth token for the npm registry in the .npmrc file, adding one", "path", path)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		return Skipped, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString("\n" + AuthLine(p.Token) + "\n"); err != nil {
		return Skipped, fmt.Errorf("failed to append to %s: %w", path, err)
	}
	return Appended, nil
}
