package publish

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type recordingRunner struct {
	dir  string
	name string
	args []string
	err  error
}

func (r *recordingRunner) Run(_ context.Context, dir, name string, args ...string) error {
	r.dir, r.name, r.args = dir, name, args
	return r.err
}

func TestArgs(t *testing.T) {
	tests := []struct {
		name     string
		script   string
		tag      string
		wantName string
		wantArgs []string
		wantErr  bool
	}{
		{
			name:     "pnpm recursive publish",
			script:   "pnpm publish -r",
			tag:      "pr7",
			wantName: "pnpm",
			wantArgs: []string{"publish", "-r", "--no-git-checks", "--tag", "pr7"},
		},
		{
			name:     "collapses whitespace",
			script:   "  npm\tpublish   --access  public \n",
			tag:      "pr1",
			wantName: "npm",
			wantArgs: []string{"publish", "--access", "public", "--no-git-checks", "--tag", "pr1"},
		},
		{
			name:     "bare command",
			script:   "./publish.sh",
			tag:      "pr2",
			wantName: "./publish.sh",
			wantArgs: []string{"--no-git-checks", "--tag", "pr2"},
		},
		{
			name:    "empty script",
			script:  "   ",
			tag:     "pr3",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, args, err := Args(tt.script, tt.tag)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Args() error = %v, wantErr %v", err, tt.wantErr)
			}
			if name != tt.wantName {
				t.Errorf("Args() name = %q, want %q", name, tt.wantName)
			}
			if diff := cmp.Diff(tt.wantArgs, args); diff != "" {
				t.Errorf("Args() args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInvokerPublish(t *testing.T) {
	runner := &recordingRunner{}
	inv := &Invoker{Dir: "/work", Runner: runner}

	tag, err := inv.Publish(context.Background(), "pnpm publish -r", "pr7")
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if tag != "pr7" {
		t.Errorf("Publish() tag = %q, want pr7", tag)
	}
	if runner.dir != "/work" || runner.name != "pnpm" {
		t.Errorf("runner got dir=%q name=%q", runner.dir, runner.name)
	}
	if diff := cmp.Diff([]string{"publish", "-r", "--no-git-checks", "--tag", "pr7"}, runner.args); diff != "" {
		t.Errorf("runner args mismatch (-want +got):\n%s", diff)
	}
}

func TestInvokerPublishFailure(t *testing.T) {
	runner := &recordingRunner{err: errors.New("boom")}
	inv := &Invoker{Dir: ".", Runner: runner}

	_, err := inv.Publish(context.Background(), "npm publish", "pr1")
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("Publish() error = %v, want *CommandError", err)
	}
	if cmdErr.Command != "npm publish --no-git-checks --tag pr1" {
		t.Errorf("CommandError.Command = %q", cmdErr.Command)
	}
}

func TestExecRunnerExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "publish.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho \"$@\" > args.txt\nexit 3\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	inv := NewInvoker(dir)
	_, err := inv.Publish(context.Background(), script+" --dry-run", "pr9")

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("Publish() error = %v, want *CommandError", err)
	}
	if cmdErr.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", cmdErr.ExitCode)
	}

	got, err := os.ReadFile(filepath.Join(dir, "args.txt"))
	if err != nil {
		t.Fatalf("publish script did not run in Dir: %v", err)
	}
	if want := "--dry-run --no-git-checks --tag pr9\n"; string(got) != want {
		t.Errorf("script args = %q, want %q", got, want)
	}
}
