// Package runner sequences a prvoyager run: provision registry credentials,
// rewrite manifests, publish, then create or update the PR comment.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/holon-run/prvoyager/pkg/actions"
	"github.com/holon-run/prvoyager/pkg/comment"
	"github.com/holon-run/prvoyager/pkg/config"
	ghhelper "github.com/holon-run/prvoyager/pkg/github"
	"github.com/holon-run/prvoyager/pkg/log"
	"github.com/holon-run/prvoyager/pkg/npmrc"
	"github.com/holon-run/prvoyager/pkg/preflight"
	"github.com/holon-run/prvoyager/pkg/publish"
	"github.com/holon-run/prvoyager/pkg/version"
	"github.com/holon-run/prvoyager/pkg/workspace"
)

// Output names set on success.
const (
	OutputCommentID = "comment-id"
	OutputTag       = "tag"
)

// CommentClient lists, creates and edits issue comments.
type CommentClient interface {
	comment.Lister
	comment.Writer
}

// Publisher runs the publish command under a dist-tag.
type Publisher interface {
	Publish(ctx context.Context, script, tag string) (string, error)
}

// Runner holds the configuration and collaborators of one run. Nil
// collaborators are built from Config.
type Runner struct {
	Config    *config.Config
	Client    CommentClient
	Publisher Publisher
	// Out receives the dry-run report.
	Out io.Writer
	// SetOutput records step outputs; defaults to actions.SetOutput.
	SetOutput func(name, value string) error
}

// Result describes what a run did.
type Result struct {
	Dir       string
	Tag       string
	Workspace *workspace.Workspace
	Changes   []workspace.Change
	Body      string
	CommentID int64
	// Updated is true when an existing comment was edited.
	Updated bool
	DryRun  bool
}

// Run executes the run. Any error aborts the remaining steps; manifests that
// were already rewritten stay rewritten.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	cfg := r.Config
	if err := cfg.ResolvePullRequest(); err != nil {
		return nil, err
	}
	if err := cfg.ResolveFromGit(); err != nil {
		return nil, err
	}
	if cfg.DryRun {
		if err := cfg.ValidatePlan(); err != nil {
			return nil, err
		}
	} else if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dir, err := cfg.Dir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}
	if dir, err = filepath.Abs(dir); err != nil {
		return nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}
	if cfg.Cwd != "" {
		log.Info("changing directory to the one given as the input", "dir", dir)
	}

	tag := version.Tag(cfg.PRNumber)
	res := &Result{Dir: dir, Tag: tag, DryRun: cfg.DryRun}
	home, err := r.home()
	if err != nil {
		return nil, err
	}

	if !cfg.DryRun {
		if !cfg.SkipPreflight {
			checker := preflight.NewChecker(preflight.Config{
				PublishScript: cfg.Publish,
				WorkspacePath: dir,
				NPMToken:      cfg.NPMToken,
				HomeDir:       home,
				ProjectDir:    dir,
			})
			if err := checker.Run(ctx); err != nil {
				return nil, err
			}
		}
		if err := r.provision(home, dir); err != nil {
			return nil, err
		}
	}

	ws, err := workspace.Discover(dir)
	if err != nil {
		return nil, err
	}
	res.Workspace = ws
	log.Info("discovered packages", "tool", ws.Tool, "count", len(ws.Packages))

	res.Body = comment.Body(ws.Names(), tag, cfg.CommitSHA)

	if cfg.DryRun {
		return res, r.report(res)
	}

	res.Changes, err = workspace.Rewrite(ws.Packages, tag, cfg.CommitSHA)
	if err != nil {
		return res, fmt.Errorf("failed to rewrite manifests: %w", err)
	}
	for _, c := range res.Changes {
		log.Debug("rewrote manifest", "package", c.Package.Name, "from", c.From, "to", c.To)
	}

	publisher := r.Publisher
	if publisher == nil {
		publisher = publish.NewInvoker(dir)
	}
	if _, err := publisher.Publish(ctx, cfg.Publish, tag); err != nil {
		return res, err
	}

	client, err := r.client()
	if err != nil {
		return res, err
	}
	repo, err := cfg.Repo()
	if err != nil {
		return res, err
	}

	found, err := comment.Find(ctx, client, repo, cfg.PRNumber, comment.MatchOptions{
		BodyIncludes: comment.Fingerprint(res.Body),
	})
	if err != nil {
		return res, err
	}

	target := comment.Target{Repo: repo, IssueNumber: cfg.PRNumber}
	if found != nil {
		target.CommentID = found.CommentID
		res.Updated = true
	}
	id, ok, err := comment.CreateOrUpdate(ctx, client, target, res.Body)
	if err != nil {
		return res, err
	}
	if !ok {
		return res, nil
	}
	res.CommentID = id

	setOutput := r.SetOutput
	if setOutput == nil {
		setOutput = actions.SetOutput
	}
	if err := setOutput(OutputCommentID, strconv.FormatInt(id, 10)); err != nil {
		return res, err
	}
	if err := setOutput(OutputTag, tag); err != nil {
		return res, err
	}
	return res, nil
}

func (r *Runner) home() (string, error) {
	if r.Config.Home != "" {
		return r.Config.Home, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return home, nil
}

func (r *Runner) provision(home, dir string) error {
	p := &npmrc.Provisioner{HomeDir: home, ProjectDir: dir, Token: r.Config.NPMToken}
	outcome, path, err := p.Provision()
	if err != nil {
		return err
	}
	log.Debug("npmrc provisioned", "outcome", outcome.String(), "path", path)
	return nil
}

func (r *Runner) client() (CommentClient, error) {
	if r.Client != nil {
		return r.Client, nil
	}
	c, err := ghhelper.NewClient(r.Config.GitHubToken, ghhelper.WithBaseURL(r.Config.APIURL))
	if err != nil {
		return nil, err
	}
	log.Debug("using GitHub API", "url", c.BaseURL())
	return c, nil
}

// report prints the planned manifest diffs and the comment body.
func (r *Runner) report(res *Result) error {
	out := r.Out
	if out == nil {
		out = os.Stdout
	}

	changes, err := workspace.Plan(res.Workspace.Packages, res.Tag, r.Config.CommitSHA)
	if err != nil {
		return err
	}
	res.Changes = changes

	for _, c := range changes {
		diff, err := c.Diff()
		if err != nil {
			return fmt.Errorf("failed to diff %s: %w", c.Package.Name, err)
		}
		fmt.Fprint(out, diff)
	}
	fmt.Fprintf(out, "\nWould publish with: %s --no-git-checks --tag %s\n", r.Config.Publish, res.Tag)
	fmt.Fprintf(out, "\nComment body:\n\n%s", res.Body)
	return nil
}
