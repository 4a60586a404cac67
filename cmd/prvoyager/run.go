package main

import (
	"fmt"

	"github.com/holon-run/prvoyager/pkg/actions"
	"github.com/holon-run/prvoyager/pkg/runner"
	"github.com/spf13/cobra"
)

var (
	runPublish string
	runCwd     string
	runPR      int
	runSHA     string
	runRepo    string
	runDryRun  bool
	runNoCheck bool
	runFromGit bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Rewrite versions, publish, and comment on the pull request",
	Long: `Run the full flow for one pull request update:

  1. check the publish command, workspace and registry auth
  2. add the npm auth token to .npmrc when NPM_TOKEN is set
  3. rewrite every package version to <base>-pr<N>.<sha7>
  4. run the publish command with --no-git-checks --tag pr<N>
  5. create or update the install-instructions comment

Inputs default to the GitHub Actions environment (INPUT_PUBLISH, INPUT_CWD,
GITHUB_EVENT_PATH, GITHUB_REPOSITORY, GITHUB_TOKEN); flags override them.

Examples:
  prvoyager run --publish "pnpm -r publish --access public"
  prvoyager run --publish "npm publish" --pr 7 --from-git --dry-run`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("publish") {
			cfg.Publish = runPublish
		}
		if flags.Changed("cwd") {
			cfg.Cwd = runCwd
		}
		if flags.Changed("pr") {
			cfg.PRNumber = runPR
		}
		if flags.Changed("sha") {
			cfg.CommitSHA = runSHA
		}
		if flags.Changed("repo") {
			cfg.Repository = runRepo
		}
		if flags.Changed("dry-run") {
			cfg.DryRun = runDryRun
		}
		if flags.Changed("skip-preflight") {
			cfg.SkipPreflight = runNoCheck
		}
		if flags.Changed("from-git") {
			cfg.FromGit = runFromGit
		}

		r := &runner.Runner{Config: cfg, Out: cmd.OutOrStdout()}
		res, err := r.Run(cmd.Context())
		if err != nil {
			return err
		}

		if res.DryRun {
			return nil
		}
		summary := fmt.Sprintf("Published %d package(s) under tag %s", len(res.Changes), res.Tag)
		switch {
		case res.CommentID == 0:
		case res.Updated:
			summary += fmt.Sprintf(", updated comment %d", res.CommentID)
		default:
			summary += fmt.Sprintf(", created comment %d", res.CommentID)
		}
		fmt.Fprintln(cmd.OutOrStdout(), summary)
		if actions.IsActions() {
			actions.Notice(summary)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&runPublish, "publish", "p", "", "Publish command, e.g. \"pnpm -r publish\" (default from INPUT_PUBLISH)")
	runCmd.Flags().StringVarP(&runCwd, "cwd", "C", "", "Project directory (default from INPUT_CWD or the current directory)")
	runCmd.Flags().IntVar(&runPR, "pr", 0, "Pull request number (default from the event payload)")
	runCmd.Flags().StringVar(&runSHA, "sha", "", "Head commit SHA (default from the event payload)")
	runCmd.Flags().StringVar(&runRepo, "repo", "", "Repository as owner/repo (default from GITHUB_REPOSITORY)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Print manifest diffs and the comment body without writing, publishing or commenting")
	runCmd.Flags().BoolVar(&runFromGit, "from-git", false, "Take a missing commit SHA and repository from the local git checkout")
	runCmd.Flags().BoolVar(&runNoCheck, "skip-preflight", false, "Skip the publish command, workspace and registry auth checks")
	rootCmd.AddCommand(runCmd)
}
