package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/holon-run/prvoyager/pkg/actions"
	"github.com/holon-run/prvoyager/pkg/comment"
	"github.com/holon-run/prvoyager/pkg/config"
	ghhelper "github.com/holon-run/prvoyager/pkg/github"
	"github.com/holon-run/prvoyager/pkg/log"
	"github.com/spf13/cobra"
)

var (
	findPR           int
	findRepo         string
	findAuthor       string
	findBodyIncludes string
	findBodyRegex    string
	findDirection    string
	findNth          int
	findFromGit      bool
)

var findCommentCmd = &cobra.Command{
	Use:   "find-comment",
	Short: "Find a pull request comment by author and body",
	Long: `Find one comment on an issue or pull request.

Filters are combined with AND; omitted filters match everything. --body-regex
takes a bare pattern or a delimited one with flags, e.g. "/voyage/i".
--direction last scans newest first, so --direction last --nth 0 is the most
recent match.

On a match the comment id is printed and the outputs comment-id, comment-body,
comment-author and comment-created-at are set. No match is not an error.

Examples:
  prvoyager find-comment --pr 7 --body-includes "### :rocke"
  prvoyager find-comment --pr 7 --author "github-actions[bot]" --direction last`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if findRepo != "" {
			cfg.Repository = findRepo
		}
		if findPR != 0 {
			cfg.PRNumber = findPR
		}
		if findFromGit {
			cfg.FromGit = true
		}
		if err := cfg.ResolvePullRequest(); err != nil {
			return err
		}
		if err := cfg.ResolveFromGit(); err != nil {
			return err
		}

		switch {
		case cfg.GitHubToken == "":
			return &config.MissingError{Name: "GITHUB_TOKEN", Hint: "Please add the GITHUB_TOKEN to the env"}
		case cfg.PRNumber <= 0:
			return &config.MissingError{Name: "pull request number", Hint: "No PR number found"}
		}
		repo, err := cfg.Repo()
		if err != nil {
			return err
		}
		direction, err := comment.ParseDirection(findDirection)
		if err != nil {
			return err
		}

		client, err := ghhelper.NewClient(cfg.GitHubToken, ghhelper.WithBaseURL(cfg.APIURL))
		if err != nil {
			return err
		}
		log.Debug("using GitHub API", "url", client.BaseURL())
		found, err := comment.Find(cmd.Context(), client, repo, cfg.PRNumber, comment.MatchOptions{
			Author:       findAuthor,
			BodyIncludes: findBodyIncludes,
			BodyRegex:    findBodyRegex,
			Direction:    direction,
			Nth:          findNth,
		})
		if err != nil {
			return err
		}
		if found == nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "No matching comment found")
			return nil
		}

		fmt.Fprintln(cmd.OutOrStdout(), found.CommentID)
		return errors.Join(
			actions.SetOutput("comment-id", strconv.FormatInt(found.CommentID, 10)),
			actions.SetOutput("comment-body", found.BodyText()),
			actions.SetOutput("comment-author", found.AuthorLogin()),
			actions.SetOutput("comment-created-at", found.CreatedAt.Format(time.RFC3339)),
		)
	},
}

func init() {
	findCommentCmd.Flags().IntVar(&findPR, "pr", 0, "Issue or pull request number (default from the event payload)")
	findCommentCmd.Flags().StringVar(&findRepo, "repo", "", "Repository as owner/repo (default from GITHUB_REPOSITORY)")
	findCommentCmd.Flags().BoolVar(&findFromGit, "from-git", false, "Take a missing repository from the origin remote of the local checkout")
	findCommentCmd.Flags().StringVar(&findAuthor, "author", "", "Comment author login")
	findCommentCmd.Flags().StringVar(&findBodyIncludes, "body-includes", "", "Substring the body must contain")
	findCommentCmd.Flags().StringVar(&findBodyRegex, "body-regex", "", "Regular expression the body must match")
	findCommentCmd.Flags().StringVar(&findDirection, "direction", "first", "Scan direction: first or last")
	findCommentCmd.Flags().IntVar(&findNth, "nth", 0, "Zero-based index among the matches")
	rootCmd.AddCommand(findCommentCmd)
}
