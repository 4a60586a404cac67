package comment

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	ghhelper "github.com/holon-run/prvoyager/pkg/github"
)

// Direction is the order in which comments are scanned.
type Direction string

const (
	First Direction = "first"
	Last  Direction = "last"
)

// ParseDirection accepts "first", "last" or "" (first).
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case "", First:
		return First, nil
	case Last:
		return Last, nil
	default:
		return "", fmt.Errorf("invalid direction %q: must be %q or %q", s, First, Last)
	}
}

// MatchOptions selects one comment. Empty filters are not applied; the
// applied ones must all hold. A filter on the author or body passes a comment
// that has no author or body.
type MatchOptions struct {
	Author       string
	BodyIncludes string
	BodyRegex    string
	Direction    Direction
	Nth          int
}

// Lister lists every comment on an issue or pull request.
type Lister interface {
	ListIssueComments(ctx context.Context, owner, repo string, issueNumber int) ([]ghhelper.IssueComment, error)
}

// Find returns the Nth comment matching opts, scanning in opts.Direction. A
// nil comment with a nil error means no comment matched.
func Find(ctx context.Context, lister Lister, repo ghhelper.Repository, issueNumber int, opts MatchOptions) (*ghhelper.IssueComment, error) {
	match, err := opts.matcher()
	if err != nil {
		return nil, err
	}

	comments, err := lister.ListIssueComments(ctx, repo.Owner, repo.Name, issueNumber)
	if err != nil {
		return nil, err
	}
	return Select(comments, opts.Direction, opts.Nth, match), nil
}

// Select applies the scan direction, filters with match, and returns the
// element at nth of what remains. "last" reverses before filtering, so
// Last with nth 0 is the most recent matching comment.
func Select(comments []ghhelper.IssueComment, dir Direction, nth int, match func(ghhelper.IssueComment) bool) *ghhelper.IssueComment {
	ordered := comments
	if dir == Last {
		ordered = slices.Clone(comments)
		slices.Reverse(ordered)
	}

	var matched []ghhelper.IssueComment
	for _, c := range ordered {
		if match(c) {
			matched = append(matched, c)
		}
	}
	if nth < 0 || nth >= len(matched) {
		return nil
	}
	found := matched[nth]
	return &found
}

func (o MatchOptions) matcher() (func(ghhelper.IssueComment) bool, error) {
	if _, err := ParseDirection(string(o.Direction)); err != nil {
		return nil, err
	}
	if o.Nth < 0 {
		return nil, fmt.Errorf("invalid nth %d: must not be negative", o.Nth)
	}

	var preds []func(ghhelper.IssueComment) bool
	if o.Author != "" {
		preds = append(preds, func(c ghhelper.IssueComment) bool {
			return c.Author == nil || *c.Author == o.Author
		})
	}
	if o.BodyIncludes != "" {
		preds = append(preds, func(c ghhelper.IssueComment) bool {
			return c.Body == nil || strings.Contains(*c.Body, o.BodyIncludes)
		})
	}
	if o.BodyRegex != "" {
		re, err := ParseRegex(o.BodyRegex)
		if err != nil {
			return nil, err
		}
		preds = append(preds, func(c ghhelper.IssueComment) bool {
			return c.Body == nil || re.MatchString(*c.Body)
		})
	}

	return func(c ghhelper.IssueComment) bool {
		for _, p := range preds {
			if !p(c) {
				return false
			}
		}
		return true
	}, nil
}

// ParseRegex compiles "/pattern/flags" or a bare pattern. Any character may
// delimit the pattern. Flags i, m and s become Go inline flags; g, u and y do
// not change matching and are ignored.
func ParseRegex(s string) (*regexp.Regexp, error) {
	pattern, flags := splitDelimited(s)

	var inline strings.Builder
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's':
			if !strings.ContainsRune(inline.String(), f) {
				inline.WriteRune(f)
			}
		}
	}
	if inline.Len() > 0 {
		pattern = "(?" + inline.String() + ")" + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid body regex %q: %w", s, err)
	}
	return re, nil
}

// splitDelimited finds the shortest body closed by the opening character and
// followed only by flag letters. Without one, s is a bare pattern.
func splitDelimited(s string) (pattern, flags string) {
	r := []rune(s)
	if len(r) < 2 {
		return s, ""
	}
	for i := 1; i < len(r); i++ {
		if r[i] != r[0] {
			continue
		}
		rest := string(r[i+1:])
		if strings.Trim(rest, "gimsuy") == "" {
			return string(r[1:i]), rest
		}
	}
	return s, ""
}
