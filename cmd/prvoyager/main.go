package main

import (
	"fmt"
	"os"

	"github.com/holon-run/prvoyager/pkg/actions"
	"github.com/holon-run/prvoyager/pkg/config"
	"github.com/holon-run/prvoyager/pkg/log"
	"github.com/holon-run/prvoyager/pkg/logs/redact"
	"github.com/spf13/cobra"
)

var (
	envFile  string
	logLevel string

	// secrets are masked in failure messages and, under Actions, in the job log.
	secrets []string
)

var rootCmd = &cobra.Command{
	Use:   "prvoyager",
	Short: "Publish PR-scoped npm pre-releases and comment install instructions on the PR.",
	Long: `prvoyager publishes every package of a workspace under the dist-tag pr<N>
with version <base>-pr<N>.<sha7>, then creates or updates a single comment on
the pull request telling reviewers how to install the build.

It is meant to run in a GitHub Actions pull_request workflow, but every input
can also be given with flags or a .env file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogger(cmd, os.Getenv("PRVOYAGER_LOG_LEVEL"))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load variables from a .env file; the environment takes precedence")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, progress, warn, error (default from PRVOYAGER_LOG_LEVEL or progress)")
}

// loadConfig reads the environment and the --env-file, if any, and
// reinitializes the logger so a level or token from the file takes effect.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	registerSecrets(cfg.GitHubToken, cfg.NPMToken)
	if err := initLogger(cmd, cfg.LogLevel); err != nil {
		return nil, err
	}
	return cfg, nil
}

func registerSecrets(values ...string) {
	for _, v := range values {
		if v == "" {
			continue
		}
		secrets = append(secrets, v)
		if actions.IsActions() {
			actions.AddMask(v)
		}
	}
}

// resolveLogLevel picks the --log-level flag, then the configured level, then
// debug when the runner has debug logging on. Empty means the default.
func resolveLogLevel(configured string) string {
	if logLevel != "" {
		return logLevel
	}
	if configured != "" {
		return configured
	}
	// Set by the runner when a workflow is re-run with debug logging.
	if os.Getenv("RUNNER_DEBUG") == "1" {
		return string(log.LevelDebug)
	}
	return ""
}

func initLogger(cmd *cobra.Command, configured string) error {
	parsed, err := log.ParseLevel(resolveLogLevel(configured))
	if err != nil {
		return err
	}
	cfg := log.DefaultConfig()
	cfg.Level = parsed
	cfg.Output = cmd.OutOrStdout()
	if actions.IsActions() {
		cfg.Format = log.FormatActions
	}
	cfg.Redactor = redact.FromEnv(append(secrets, os.Getenv("GITHUB_TOKEN"), os.Getenv("NPM_TOKEN"))...)
	return log.Init(cfg)
}

// run executes the CLI and returns the process exit code.
func run() int {
	defer func() { _ = log.Sync() }()

	if err := rootCmd.Execute(); err != nil {
		r := redact.FromEnv(append(secrets, os.Getenv("GITHUB_TOKEN"), os.Getenv("NPM_TOKEN"))...)
		msg := r.Redact(err.Error())
		if actions.IsActions() {
			actions.SetFailed(msg)
		} else {
			fmt.Fprintln(os.Stderr, "Error:", msg)
		}
		return 1
	}
	return 0
}

func main() {
	os.Exit(run())
}
