package comment

import (
	"context"
	"fmt"
	"unicode/utf16"

	"github.com/holon-run/prvoyager/pkg/actions"
	ghhelper "github.com/holon-run/prvoyager/pkg/github"
	"github.com/holon-run/prvoyager/pkg/log"
)

// MaxBodyLength is the largest issue comment body GitHub accepts, counted in
// UTF-16 code units as JavaScript string lengths are: characters outside the
// Basic Multilingual Plane, such as most emoji, count twice.
const MaxBodyLength = 65536

// Writer creates and edits issue comments.
type Writer interface {
	CreateIssueComment(ctx context.Context, owner, repo string, issueNumber int, body string) (int64, error)
	EditIssueComment(ctx context.Context, owner, repo string, commentID int64, body string) error
}

// Target says where a body goes: an existing comment, else a new comment on
// an issue. Zero values mean unset.
type Target struct {
	Repo        ghhelper.Repository
	CommentID   int64
	IssueNumber int
}

// Truncate cuts body to MaxBodyLength code units and reports whether it did.
// A surrogate pair that would straddle the limit is dropped whole.
func Truncate(body string) (string, bool) {
	// A string never has more UTF-16 code units than bytes.
	if len(body) <= MaxBodyLength {
		return body, false
	}
	units := 0
	for i, r := range body {
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		if units+n > MaxBodyLength {
			return body[:i], true
		}
		units += n
	}
	return body, false
}

// CreateOrUpdate edits target.CommentID when set, otherwise creates a comment
// on target.IssueNumber. It returns the comment id and false when the target
// names neither. An empty body leaves an existing comment untouched.
func CreateOrUpdate(ctx context.Context, w Writer, target Target, body string) (int64, bool, error) {
	switch {
	case target.CommentID != 0:
		if body == "" {
			return target.CommentID, true, nil
		}
		if err := w.EditIssueComment(ctx, target.Repo.Owner, target.Repo.Name, target.CommentID, truncate(body)); err != nil {
			return 0, false, err
		}
		log.Infof("Updated comment id '%d'.", target.CommentID)
		return target.CommentID, true, nil

	case target.IssueNumber != 0:
		id, err := w.CreateIssueComment(ctx, target.Repo.Owner, target.Repo.Name, target.IssueNumber, truncate(body))
		if err != nil {
			return 0, false, err
		}
		log.Infof("Created comment id '%d' on issue '%d'.", id, target.IssueNumber)
		return id, true, nil

	default:
		return 0, false, nil
	}
}

func truncate(body string) string {
	out, cut := Truncate(body)
	if cut {
		msg := fmt.Sprintf("Comment body is too long. Truncating to %d characters.", MaxBodyLength)
		log.Warn(msg)
		actions.Warning(msg)
	}
	return out
}
