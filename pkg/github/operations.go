package github

import (
	"context"

	"github.com/google/go-github/v68/github"
)

// ListIssueComments fetches every comment on an issue or PR, following
// pagination until the last page.
func (c *Client) ListIssueComments(ctx context.Context, owner, repo string, issueNumber int) ([]IssueComment, error) {
	opts := &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	var allComments []IssueComment
	for {
		comments, resp, err := c.inner.Issues.ListComments(ctx, owner, repo, issueNumber, opts)
		if err != nil {
			return nil, wrapError("list issue comments", err)
		}

		for _, comment := range comments {
			if comment == nil {
				continue
			}
			allComments = append(allComments, convertFromGitHubIssueComment(comment))
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return allComments, nil
}

// convertFromGitHubIssueComment converts a github.IssueComment to our IssueComment type
func convertFromGitHubIssueComment(comment *github.IssueComment) IssueComment {
	out := IssueComment{
		CommentID: comment.GetID(),
		URL:       comment.GetHTMLURL(),
		Body:      comment.Body,
		CreatedAt: comment.GetCreatedAt().Time,
		UpdatedAt: comment.GetUpdatedAt().Time,
	}
	if user := comment.GetUser(); user != nil && user.Login != nil {
		login := user.GetLogin()
		out.Author = &login
	}
	return out
}

// CreateIssueComment creates a new comment on an issue or PR
func (c *Client) CreateIssueComment(ctx context.Context, owner, repo string, issueNumber int, body string) (int64, error) {
	comment, _, err := c.inner.Issues.CreateComment(ctx, owner, repo, issueNumber, &github.IssueComment{Body: &body})
	if err != nil {
		return 0, wrapError("create issue comment", err)
	}
	return comment.GetID(), nil
}

// EditIssueComment edits an existing issue or PR comment
func (c *Client) EditIssueComment(ctx context.Context, owner, repo string, commentID int64, body string) error {
	_, _, err := c.inner.Issues.EditComment(ctx, owner, repo, commentID, &github.IssueComment{Body: &body})
	if err != nil {
		return wrapError("edit issue comment", err)
	}
	return nil
}
