// Package githubauth locates the GitHub token the gh CLI authenticates with.
package githubauth

import (
	"errors"
	"os"
	"strings"
)

// Environment variables consulted for a token, in order of preference.
const (
	EnvGitHubCLIToken = "GH_TOKEN"
	EnvGitHubToken    = "GITHUB_TOKEN"
)

// ErrTokenNotFound indicates that neither variable holds a token.
var ErrTokenNotFound = errors.New("GitHub token not found. Set GH_TOKEN or GITHUB_TOKEN environment variable.")

// EnvironmentLookup reads a single environment variable.
type EnvironmentLookup func(key string) (string, bool)

// MapLookup adapts a fixed set of variables to an EnvironmentLookup.
func MapLookup(environment map[string]string) EnvironmentLookup {
	return func(key string) (string, bool) {
		value, exists := environment[key]
		return value, exists
	}
}

// ResolveToken returns the first non-blank token. A nil lookup reads the process environment.
func ResolveToken(lookup EnvironmentLookup) (string, bool) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for _, environmentKey := range []string{EnvGitHubCLIToken, EnvGitHubToken} {
		value, exists := lookup(environmentKey)
		if !exists {
			continue
		}
		if trimmedValue := strings.TrimSpace(value); len(trimmedValue) > 0 {
			return trimmedValue, true
		}
	}
	return "", false
}

// RequireToken is ResolveToken returning ErrTokenNotFound when no token is available.
func RequireToken(lookup EnvironmentLookup) (string, error) {
	token, found := ResolveToken(lookup)
	if !found {
		return "", ErrTokenNotFound
	}
	return token, nil
}
