package github

import (
	"errors"
	"regexp"
	"strings"
)

var ErrInvalidURL = errors.New("invalid github repository url")

var repoURLPattern = regexp.MustCompile(`^https://github\.com/[\w\-.]+/[\w\-.]+/?$`)

// IsValidURL reports whether u is a repository URL of the form
// https://github.com/{owner}/{repo}, with an optional trailing slash.
func IsValidURL(u string) bool {
	return repoURLPattern.MatchString(u)
}

// ParseURL returns the owner and repository name of a valid repository URL.
func ParseURL(u string) (owner, repo string, err error) {
	if !IsValidURL(u) {
		return "", "", ErrInvalidURL
	}
	path := strings.TrimSuffix(strings.TrimPrefix(u, "https://github.com/"), "/")
	owner, repo, _ = strings.Cut(path, "/")
	return owner, repo, nil
}

// RepoURL is the canonical web URL of a repository.
func RepoURL(owner, repo string) string {
	return "https://github.com/" + owner + "/" + repo
}
