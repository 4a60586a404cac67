package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/holon-run/prvoyager/pkg/config"
	ghhelper "github.com/holon-run/prvoyager/pkg/github"
	"github.com/holon-run/prvoyager/pkg/github/githubtest"
	"github.com/holon-run/prvoyager/pkg/publish"
	"github.com/holon-run/prvoyager/pkg/workspace"
)

type recordingRunner struct {
	calls [][]string
	err   error
}

func (r *recordingRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	r.calls = append(r.calls, append([]string{name}, args...))
	return r.err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// newMonorepo lays out an npm workspace with packages a and b at 1.0.0.
func newMonorepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "package.json"), `{
  "name": "root",
  "private": true,
  "version": "0.0.0",
  "workspaces": ["packages/*"]
}
`)
	writeFile(t, filepath.Join(root, "packages", "a", "package.json"), `{
  "name": "a",
  "version": "1.0.0",
  "main": "index.js"
}
`)
	writeFile(t, filepath.Join(root, "packages", "b", "package.json"), `{
  "name": "b",
  "version": "1.0.0",
  "dependencies": {
    "a": "^1.0.0"
  }
}
`)
	return root
}

type harness struct {
	root    string
	cfg     *config.Config
	server  *githubtest.Server
	exec    *recordingRunner
	outputs map[string]string
	runner  *Runner
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		root:    newMonorepo(t),
		server:  githubtest.NewServer(t),
		exec:    &recordingRunner{},
		outputs: make(map[string]string),
	}
	h.server.Token = "ghs_test"
	h.cfg = &config.Config{
		GitHubToken: "ghs_test",
		Repository:  "holon-run/prvoyager",
		APIURL:      h.server.URL,
		Home:        t.TempDir(),
		Publish:     "pnpm -r publish --access public",
		Cwd:         h.root,
		PRNumber:    7,
		CommitSHA:   "0123456789abcdef",
		// pnpm is only recorded, never executed.
		SkipPreflight: true,
	}
	h.runner = &Runner{
		Config:    h.cfg,
		Publisher: &publish.Invoker{Dir: h.root, Runner: h.exec},
		SetOutput: func(name, value string) error {
			h.outputs[name] = value
			return nil
		},
	}
	return h
}

func readVersion(t *testing.T, dir string) string {
	t.Helper()
	m, err := workspace.ReadManifest(dir)
	if err != nil {
		t.Fatal(err)
	}
	v, _ := m.Version()
	return v
}

func TestRunEndToEnd(t *testing.T) {
	h := newHarness(t)

	res, err := h.runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, name := range []string{"a", "b"} {
		if got := readVersion(t, filepath.Join(h.root, "packages", name)); got != "1.0.0-pr7.0123456" {
			t.Errorf("package %s version = %q, want 1.0.0-pr7.0123456", name, got)
		}
	}
	if got := readVersion(t, h.root); got != "0.0.0" {
		t.Errorf("root manifest rewritten to %q", got)
	}

	wantArgs := [][]string{{"pnpm", "-r", "publish", "--access", "public", "--no-git-checks", "--tag", "pr7"}}
	if diff := cmp.Diff(wantArgs, h.exec.calls); diff != "" {
		t.Errorf("publish args mismatch (-want +got):\n%s", diff)
	}

	if !strings.Contains(res.Body, "a@pr7 b@pr7") {
		t.Errorf("body does not list install targets:\n%s", res.Body)
	}
	comments := h.server.Comments(7)
	if len(comments) != 1 || comments[0].GetBody() != res.Body {
		t.Fatalf("server comments = %+v", comments)
	}
	if res.Updated || res.CommentID != comments[0].GetID() {
		t.Errorf("Result = %+v, want created comment %d", res, comments[0].GetID())
	}
	if diff := cmp.Diff(map[string]string{"comment-id": "1001", "tag": "pr7"}, h.outputs); diff != "" {
		t.Errorf("outputs mismatch (-want +got):\n%s", diff)
	}
}

func TestRunUpdatesExistingComment(t *testing.T) {
	h := newHarness(t)
	other := "Thanks for the PR!"
	h.server.AddComment(7, "octocat", &other)

	first, err := h.runner.Run(context.Background())
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}

	h.cfg.CommitSHA = "fedcba9876543210"
	second, err := h.runner.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	if !second.Updated || second.CommentID != first.CommentID {
		t.Errorf("second run = %+v, want update of comment %d", second, first.CommentID)
	}
	comments := h.server.Comments(7)
	if len(comments) != 2 {
		t.Fatalf("got %d comments, want 2", len(comments))
	}
	if !strings.Contains(comments[1].GetBody(), "Latest commit: fedcba9876543210") {
		t.Errorf("comment not updated:\n%s", comments[1].GetBody())
	}
	if comments[0].GetBody() != other {
		t.Error("unrelated comment was modified")
	}
	if h.server.CreateCalls != 1 || h.server.EditCalls != 1 {
		t.Errorf("create=%d edit=%d, want 1 and 1", h.server.CreateCalls, h.server.EditCalls)
	}
	if got := readVersion(t, filepath.Join(h.root, "packages", "a")); got != "1.0.0-pr7.fedcba9" {
		t.Errorf("version after second run = %q, want 1.0.0-pr7.fedcba9", got)
	}
}

func TestRunMissingConfiguration(t *testing.T) {
	h := newHarness(t)
	h.cfg.Publish = ""

	_, err := h.runner.Run(context.Background())
	var missing *config.MissingError
	if !errors.As(err, &missing) || missing.Name != "publish" {
		t.Fatalf("Run() error = %v, want missing publish", err)
	}
	if got := readVersion(t, filepath.Join(h.root, "packages", "a")); got != "1.0.0" {
		t.Errorf("manifest changed before validation: %q", got)
	}
	if _, err := os.Stat(filepath.Join(h.cfg.Home, ".npmrc")); !errors.Is(err, os.ErrNotExist) {
		t.Error("npmrc written before validation")
	}
	if len(h.exec.calls) != 0 || h.server.ListCalls != 0 {
		t.Error("run continued after a validation failure")
	}
}

func TestRunPublishFailure(t *testing.T) {
	h := newHarness(t)
	h.exec.err = errors.New("exit status 1")

	res, err := h.runner.Run(context.Background())
	var cmdErr *publish.CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("Run() error = %v, want *publish.CommandError", err)
	}
	// Manifests are not rolled back.
	if got := readVersion(t, filepath.Join(h.root, "packages", "b")); got != "1.0.0-pr7.0123456" {
		t.Errorf("version = %q, want rewritten version kept", got)
	}
	if len(res.Changes) != 2 {
		t.Errorf("Changes = %d, want 2", len(res.Changes))
	}
	if h.server.ListCalls != 0 || len(h.outputs) != 0 {
		t.Error("comment step ran after a publish failure")
	}
}

func TestRunAPIFailure(t *testing.T) {
	h := newHarness(t)
	h.cfg.GitHubToken = "revoked"

	_, err := h.runner.Run(context.Background())
	if !ghhelper.IsAuthenticationError(err) {
		t.Fatalf("Run() error = %v, want authentication error", err)
	}
	if len(h.outputs) != 0 {
		t.Errorf("outputs set on failure: %v", h.outputs)
	}
}

func TestRunProvisionsNpmrc(t *testing.T) {
	h := newHarness(t)
	h.cfg.NPMToken = "npm_secret"

	if _, err := h.runner.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(h.cfg.Home, ".npmrc"))
	if err != nil {
		t.Fatalf("npmrc not created: %v", err)
	}
	if got, want := string(data), "//registry.npmjs.org/:_authToken=npm_secret\n"; got != want {
		t.Errorf("npmrc = %q, want %q", got, want)
	}
}

func TestRunDryRun(t *testing.T) {
	h := newHarness(t)
	h.cfg.DryRun = true
	h.cfg.GitHubToken = ""
	h.cfg.NPMToken = "npm_secret"
	var out bytes.Buffer
	h.runner.Out = &out

	res, err := h.runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !res.DryRun || len(res.Changes) != 2 {
		t.Errorf("Result = %+v", res)
	}

	if got := readVersion(t, filepath.Join(h.root, "packages", "a")); got != "1.0.0" {
		t.Errorf("dry run rewrote manifest to %q", got)
	}
	if _, err := os.Stat(filepath.Join(h.cfg.Home, ".npmrc")); !errors.Is(err, os.ErrNotExist) {
		t.Error("dry run wrote npmrc")
	}
	if len(h.exec.calls) != 0 || h.server.ListCalls != 0 || h.server.CreateCalls != 0 {
		t.Error("dry run published or called the API")
	}

	report := out.String()
	for _, want := range []string{
		`-  "version": "1.0.0",`,
		`+  "version": "1.0.0-pr7.0123456",`,
		"Would publish with: pnpm -r publish --access public --no-git-checks --tag pr7",
		"npm install a@pr7 b@pr7",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("dry run report missing %q:\n%s", want, report)
		}
	}
}

func TestRunPreflightFailure(t *testing.T) {
	h := newHarness(t)
	h.cfg.SkipPreflight = false
	h.cfg.Publish = "prvoyager-no-such-binary publish"
	h.cfg.NPMToken = "npm_secret"

	_, err := h.runner.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "preflight checks failed") {
		t.Fatalf("Run() error = %v, want preflight failure", err)
	}
	if got := readVersion(t, filepath.Join(h.root, "packages", "a")); got != "1.0.0" {
		t.Errorf("manifest rewritten despite failed preflight: %q", got)
	}
	if _, err := os.Stat(filepath.Join(h.cfg.Home, ".npmrc")); !errors.Is(err, os.ErrNotExist) {
		t.Error("npmrc written despite failed preflight")
	}
	if len(h.exec.calls) != 0 {
		t.Error("publish ran despite failed preflight")
	}
}

func TestRunPreflightPasses(t *testing.T) {
	h := newHarness(t)
	h.cfg.SkipPreflight = false
	h.cfg.Publish = "sh publish.sh"

	if _, err := h.runner.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(h.exec.calls) != 1 || h.exec.calls[0][0] != "sh" {
		t.Errorf("publish calls = %v", h.exec.calls)
	}
}
