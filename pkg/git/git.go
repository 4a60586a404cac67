// Package git reads commit and remote information from a local checkout.
package git

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// DefaultRemote is the remote consulted for the repository slug.
const DefaultRemote = "origin"

// open finds the repository containing dir, walking up to the .git directory.
func open(dir string) (*gogit.Repository, error) {
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("%s is not inside a git repository", dir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository at %s: %w", dir, err)
	}
	return repo, nil
}

// HeadSHA returns the full commit SHA of HEAD in dir.
func HeadSHA(dir string) (string, error) {
	repo, err := open(dir)
	if err != nil {
		return "", err
	}
	ref, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return "", fmt.Errorf("repository at %s has no commits", dir)
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}

// RemoteURL returns the first configured URL of remote.
func RemoteURL(dir, remote string) (string, error) {
	repo, err := open(dir)
	if err != nil {
		return "", err
	}
	r, err := repo.Remote(remote)
	if errors.Is(err, gogit.ErrRemoteNotFound) {
		return "", fmt.Errorf("remote %s is not configured", remote)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read remote %s: %w", remote, err)
	}
	urls := r.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %s has no URL", remote)
	}
	return urls[0], nil
}

// Repository returns the owner/name slug of the origin remote in dir.
func Repository(dir string) (string, error) {
	u, err := RemoteURL(dir, DefaultRemote)
	if err != nil {
		return "", err
	}
	return ParseRemote(u)
}

// ParseRemote extracts owner/name from a GitHub remote URL. Accepted forms:
//
//	https://github.com/owner/name(.git)
//	ssh://git@github.com/owner/name(.git)
//	git@github.com:owner/name(.git)
func ParseRemote(remote string) (string, error) {
	remote = strings.TrimSpace(remote)
	var p string
	switch {
	case strings.Contains(remote, "://"):
		u, err := url.Parse(remote)
		if err != nil {
			return "", fmt.Errorf("invalid remote URL %q: %w", remote, err)
		}
		p = u.Path
	default:
		// scp-like syntax: [user@]host:owner/name
		_, after, ok := strings.Cut(remote, ":")
		if !ok {
			return "", fmt.Errorf("unrecognized remote URL %q", remote)
		}
		p = after
	}

	p = strings.TrimSuffix(strings.Trim(p, "/"), ".git")
	parts := strings.Split(p, "/")
	if len(parts) < 2 || parts[len(parts)-2] == "" || parts[len(parts)-1] == "" {
		return "", fmt.Errorf("remote URL %q has no owner/name path", remote)
	}
	return parts[len(parts)-2] + "/" + parts[len(parts)-1], nil
}
