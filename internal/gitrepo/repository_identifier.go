package gitrepo

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const (
	repositoryIdentifierTemplateConstant      = "%s/%s"
	repositoryIdentifierErrorTemplateConstant = "invalid repository %q: %s"
	scpLikeUserSeparatorConstant              = "@"
	scpLikePathSeparatorConstant              = ":"
	repositoryPathSeparatorConstant           = "/"
	repositorySuffixConstant                  = ".git"
	emptyRepositoryMessageConstant            = "value required"
	malformedURLMessageConstant               = "malformed url"
	ownerAndNameRequiredMessageConstant       = "expected owner/name"
)

// RepositoryIdentifier names a GitHub repository in owner/name form.
type RepositoryIdentifier struct {
	Owner string
	Name  string
}

// String renders owner/name.
func (identifier RepositoryIdentifier) String() string {
	return fmt.Sprintf(repositoryIdentifierTemplateConstant, identifier.Owner, identifier.Name)
}

// RepositoryIdentifierError reports a repository value that cannot be reduced to owner/name.
type RepositoryIdentifierError struct {
	Input  string
	Reason string
}

func (identifierError RepositoryIdentifierError) Error() string {
	return fmt.Sprintf(repositoryIdentifierErrorTemplateConstant, identifierError.Input, identifierError.Reason)
}

// ParseRepositoryIdentifier accepts owner/name, an https or ssh:// URL, or the
// scp-like git@host:owner/name form.
func ParseRepositoryIdentifier(repository string) (RepositoryIdentifier, error) {
	trimmedRepository := strings.TrimSpace(repository)
	if len(trimmedRepository) == 0 {
		return RepositoryIdentifier{}, RepositoryIdentifierError{Input: repository, Reason: emptyRepositoryMessageConstant}
	}

	repositoryPath, pathError := extractRepositoryPath(trimmedRepository)
	if pathError != nil {
		return RepositoryIdentifier{}, RepositoryIdentifierError{Input: repository, Reason: pathError.Error()}
	}

	segments := strings.Split(strings.Trim(repositoryPath, repositoryPathSeparatorConstant), repositoryPathSeparatorConstant)
	if len(segments) != 2 {
		return RepositoryIdentifier{}, RepositoryIdentifierError{Input: repository, Reason: ownerAndNameRequiredMessageConstant}
	}

	identifier := RepositoryIdentifier{
		Owner: strings.TrimSpace(segments[0]),
		Name:  strings.TrimSpace(strings.TrimSuffix(segments[1], repositorySuffixConstant)),
	}
	if len(identifier.Owner) == 0 || len(identifier.Name) == 0 {
		return RepositoryIdentifier{}, RepositoryIdentifierError{Input: repository, Reason: ownerAndNameRequiredMessageConstant}
	}
	return identifier, nil
}

// NormalizeRepositoryIdentifier reduces any accepted repository form to owner/name.
func NormalizeRepositoryIdentifier(repository string) (string, error) {
	identifier, parseError := ParseRepositoryIdentifier(repository)
	if parseError != nil {
		return "", parseError
	}
	return identifier.String(), nil
}

func extractRepositoryPath(repository string) (string, error) {
	if strings.Contains(repository, "://") {
		parsedURL, parseError := url.Parse(repository)
		if parseError != nil || len(parsedURL.Host) == 0 {
			return "", errors.New(malformedURLMessageConstant)
		}
		return parsedURL.Path, nil
	}

	userSeparatorIndex := strings.Index(repository, scpLikeUserSeparatorConstant)
	if userSeparatorIndex >= 0 {
		hostAndPath := repository[userSeparatorIndex+1:]
		pathSeparatorIndex := strings.Index(hostAndPath, scpLikePathSeparatorConstant)
		if pathSeparatorIndex <= 0 {
			return "", errors.New(malformedURLMessageConstant)
		}
		return hostAndPath[pathSeparatorIndex+1:], nil
	}

	return repository, nil
}
