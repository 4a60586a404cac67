package github

import "time"

// IssueComment is an issue or PR conversation comment. Body and Author are
// nil when the API omits them (e.g. a comment by a deleted account).
type IssueComment struct {
	CommentID int64
	URL       string
	Body      *string
	Author    *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BodyText returns the body or "".
func (c IssueComment) BodyText() string {
	if c.Body == nil {
		return ""
	}
	return *c.Body
}

// AuthorLogin returns the author login or "".
func (c IssueComment) AuthorLogin() string {
	if c.Author == nil {
		return ""
	}
	return *c.Author
}
