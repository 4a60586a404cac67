package main

import (
	"fmt"

	"github.com/holon-run/prvoyager/pkg/version"
	"github.com/spf13/cobra"
)

var (
	tagPR   int
	tagSHA  string
	tagBase string
)

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Print the dist-tag and pre-release version for a pull request",
	Long: `Print the dist-tag pr<N> and, with --base, the version <base>-pr<N>.<sha7>.
Any pre-release part of --base is dropped first.

Examples:
  prvoyager tag --pr 42
  prvoyager tag --pr 42 --sha abcdef1234567 --base 1.0.0-beta.3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if tagPR <= 0 {
			return fmt.Errorf("--pr must be a positive pull request number")
		}
		tag := version.Tag(tagPR)
		fmt.Fprintf(cmd.OutOrStdout(), "tag=%s\n", tag)

		if tagBase == "" {
			return nil
		}
		if tagSHA == "" {
			return fmt.Errorf("--sha is required with --base")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "version=%s\n", version.Version(tagBase, tag, tagSHA))
		return nil
	},
}

func init() {
	tagCmd.Flags().IntVar(&tagPR, "pr", 0, "Pull request number")
	tagCmd.Flags().StringVar(&tagSHA, "sha", "", "Head commit SHA")
	tagCmd.Flags().StringVar(&tagBase, "base", "", "Base version from package.json")
	rootCmd.AddCommand(tagCmd)
}
