package actions

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/google/go-github/v68/github"
)

// ErrNoPullRequest is returned when the event payload carries no pull_request.
var ErrNoPullRequest = errors.New("event payload has no pull_request")

// PullRequest identifies the pull request a workflow run was triggered by.
type PullRequest struct {
	Number int
	SHA    string
}

// LoadPullRequestEvent reads a pull_request or pull_request_target payload
// from path, usually $GITHUB_EVENT_PATH.
func LoadPullRequestEvent(path string) (*github.PullRequestEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read event payload: %w", err)
	}
	var event github.PullRequestEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("failed to parse event payload %s: %w", path, err)
	}
	return &event, nil
}

// PullRequestFromEvent extracts the PR number and head commit SHA. Either may
// be zero when the payload lacks it; ErrNoPullRequest is returned when the
// payload is not a pull request event at all.
func PullRequestFromEvent(path string) (PullRequest, error) {
	event, err := LoadPullRequestEvent(path)
	if err != nil {
		return PullRequest{}, err
	}
	pr := event.GetPullRequest()
	if pr == nil {
		return PullRequest{}, ErrNoPullRequest
	}
	return PullRequest{Number: pr.GetNumber(), SHA: pr.GetHead().GetSHA()}, nil
}
