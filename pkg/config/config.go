// Package config loads prvoyager settings from the environment, an optional
// .env file and the GitHub Actions event payload.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/holon-run/prvoyager/pkg/actions"
	"github.com/holon-run/prvoyager/pkg/git"
	ghhelper "github.com/holon-run/prvoyager/pkg/github"
	"github.com/joho/godotenv"
)

// Config holds everything a run needs. Flags are applied on top by the CLI.
type Config struct {
	// GitHubToken authenticates comment API calls.
	GitHubToken string `env:"GITHUB_TOKEN"`
	// Repository is "owner/repo".
	Repository string `env:"GITHUB_REPOSITORY"`
	// APIURL is the REST API root, set by Actions on GitHub Enterprise Server.
	APIURL string `env:"GITHUB_API_URL" envDefault:"https://api.github.com"`
	// EventPath is the webhook payload that triggered the workflow.
	EventPath string `env:"GITHUB_EVENT_PATH"`

	NPMToken string `env:"NPM_TOKEN"`
	Home     string `env:"HOME"`

	// Publish is the publish command, e.g. "pnpm -r publish".
	Publish string `env:"INPUT_PUBLISH"`
	// Cwd overrides the working directory for discovery and publishing.
	Cwd string `env:"INPUT_CWD"`

	// PRNumber and CommitSHA default to the event payload.
	PRNumber  int    `env:"PRVOYAGER_PR_NUMBER"`
	CommitSHA string `env:"PRVOYAGER_COMMIT_SHA"`

	LogLevel      string `env:"PRVOYAGER_LOG_LEVEL"`
	DryRun        bool   `env:"PRVOYAGER_DRY_RUN"`
	SkipPreflight bool   `env:"PRVOYAGER_SKIP_PREFLIGHT"`
	// FromGit fills a missing commit SHA and repository from the local checkout.
	FromGit bool `env:"PRVOYAGER_FROM_GIT"`
}

// MissingError reports a required setting that is absent.
type MissingError struct {
	Name string
	Hint string
}

func (e *MissingError) Error() string {
	if e.Hint != "" {
		return e.Hint
	}
	return fmt.Sprintf("missing required setting %s", e.Name)
}

// Load reads the process environment. When envFile is set its variables are
// used for anything the environment does not define.
func Load(envFile string) (*Config, error) {
	vars := env.ToMap(os.Environ())
	if envFile != "" {
		fileVars, err := loadEnvFile(envFile)
		if err != nil {
			return nil, err
		}
		for k, v := range fileVars {
			if _, ok := vars[k]; !ok {
				vars[k] = v
			}
		}
	}

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	cfg.Publish = strings.TrimSpace(cfg.Publish)
	cfg.Cwd = strings.TrimSpace(cfg.Cwd)
	return cfg, nil
}

func loadEnvFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open env file: %w", err)
	}
	defer func() { _ = f.Close() }()

	vars, err := godotenv.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse env file %q: %w", path, err)
	}
	return vars, nil
}

// ResolvePullRequest fills PRNumber and CommitSHA from the event payload
// when they are not set already. A payload without a pull request leaves
// them empty for Validate to report.
func (c *Config) ResolvePullRequest() error {
	if (c.PRNumber != 0 && c.CommitSHA != "") || c.EventPath == "" {
		return nil
	}
	pr, err := actions.PullRequestFromEvent(c.EventPath)
	if errors.Is(err, actions.ErrNoPullRequest) {
		return nil
	}
	if err != nil {
		return err
	}
	if c.PRNumber == 0 {
		c.PRNumber = pr.Number
	}
	if c.CommitSHA == "" {
		c.CommitSHA = pr.SHA
	}
	return nil
}

// ResolveFromGit fills CommitSHA with HEAD and Repository with the origin
// remote of the working directory when FromGit is set. Values already present,
// including those from the event payload, win.
func (c *Config) ResolveFromGit() error {
	if !c.FromGit || (c.CommitSHA != "" && c.Repository != "") {
		return nil
	}
	dir, err := c.Dir()
	if err != nil {
		return fmt.Errorf("failed to resolve working directory: %w", err)
	}
	if c.CommitSHA == "" {
		if c.CommitSHA, err = git.HeadSHA(dir); err != nil {
			return err
		}
	}
	if c.Repository == "" {
		if c.Repository, err = git.Repository(dir); err != nil {
			return err
		}
	}
	return nil
}

// Validate returns the first missing required setting.
func (c *Config) Validate() error {
	if c.GitHubToken == "" {
		return &MissingError{Name: "GITHUB_TOKEN", Hint: "Please add the GITHUB_TOKEN to the env"}
	}
	if err := c.ValidatePlan(); err != nil {
		return err
	}
	if c.Repository == "" {
		return &MissingError{Name: "GITHUB_REPOSITORY", Hint: "Please add the GITHUB_REPOSITORY to the env"}
	}
	if _, err := c.Repo(); err != nil {
		return err
	}
	return nil
}

// ValidatePlan checks what a dry run needs: no token or repository, since
// nothing is published and no API call is made.
func (c *Config) ValidatePlan() error {
	switch {
	case c.Publish == "":
		return &MissingError{Name: "publish", Hint: "Please add the publish script to the input"}
	case c.PRNumber <= 0:
		return &MissingError{Name: "pull request number", Hint: "No PR number found"}
	case c.CommitSHA == "":
		return &MissingError{Name: "commit sha", Hint: "No commit sha found"}
	}
	return nil
}

// Repo parses Repository.
func (c *Config) Repo() (ghhelper.Repository, error) {
	return ghhelper.ParseRepository(c.Repository)
}

// Dir is the project directory: Cwd when set, else the process directory.
func (c *Config) Dir() (string, error) {
	if c.Cwd != "" {
		return c.Cwd, nil
	}
	return os.Getwd()
}
