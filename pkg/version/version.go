// Package version derives the PR-scoped dist-tag and pre-release version
// published for a pull request.
package version

import (
	"strconv"
	"strings"
)

// ShortSHALength is the number of commit SHA characters kept in a version.
const ShortSHALength = 7

// Tag returns the dist-tag for a pull request, e.g. "pr42".
func Tag(prNumber int) string {
	return "pr" + strconv.Itoa(prNumber)
}

// StripPrerelease drops everything from the first '-' on, so "1.2.3-beta.1"
// becomes "1.2.3".
func StripPrerelease(v string) string {
	base, _, _ := strings.Cut(v, "-")
	return base
}

// ShortSHA returns the first ShortSHALength characters of sha.
func ShortSHA(sha string) string {
	if len(sha) <= ShortSHALength {
		return sha
	}
	return sha[:ShortSHALength]
}

// Version composes "<base>-<tag>.<short sha>". Any pre-release suffix already
// present on base is discarded rather than appended to.
func Version(base, tag, sha string) string {
	return StripPrerelease(base) + "-" + tag + "." + ShortSHA(sha)
}
