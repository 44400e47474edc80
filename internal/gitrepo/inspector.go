package gitrepo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

const (
	notRepositoryMessageConstant        = "not a valid git repository"
	openRepositoryErrorTemplateConstant = "%s: %w: %w"
	remoteLookupErrorTemplateConstant   = "looking up remote %s: %w"
	revisionErrorTemplateConstant       = "resolving revision %s: %w"
	branchLookupErrorTemplateConstant   = "looking up branch %s: %w"
)

// ErrNotRepository indicates the inspected path is not the root of a git working tree.
var ErrNotRepository = errors.New(notRepositoryMessageConstant)

// Inspector answers read-only questions about a repository using go-git.
//
// The repository is reopened for every query so results reflect changes made
// by git processes in between.
type Inspector struct {
	repositoryPath string
}

// OpenInspector verifies repositoryPath is a git repository and returns an Inspector for it.
func OpenInspector(repositoryPath string) (*Inspector, error) {
	inspector := &Inspector{repositoryPath: repositoryPath}
	if _, openError := inspector.open(); openError != nil {
		return nil, openError
	}
	return inspector, nil
}

// RemoteURL returns the first configured URL of remoteName and whether the remote exists.
func (inspector *Inspector) RemoteURL(remoteName string) (string, bool, error) {
	repository, openError := inspector.open()
	if openError != nil {
		return "", false, openError
	}

	remote, remoteError := repository.Remote(remoteName)
	if errors.Is(remoteError, git.ErrRemoteNotFound) {
		return "", false, nil
	}
	if remoteError != nil {
		return "", false, fmt.Errorf(remoteLookupErrorTemplateConstant, remoteName, remoteError)
	}

	remoteURLs := remote.Config().URLs
	if len(remoteURLs) == 0 {
		return "", true, nil
	}
	return remoteURLs[0], true, nil
}

// ResolveRevision resolves a revision such as upstream/nixpkgs-unstable to a commit hash.
func (inspector *Inspector) ResolveRevision(revision string) (string, error) {
	repository, openError := inspector.open()
	if openError != nil {
		return "", openError
	}

	hash, resolveError := repository.ResolveRevision(plumbing.Revision(strings.TrimSpace(revision)))
	if resolveError != nil {
		return "", fmt.Errorf(revisionErrorTemplateConstant, revision, resolveError)
	}
	return hash.String(), nil
}

// BranchExists reports whether a local branch named branch exists.
func (inspector *Inspector) BranchExists(branch string) (bool, error) {
	repository, openError := inspector.open()
	if openError != nil {
		return false, openError
	}

	_, referenceError := repository.Reference(plumbing.NewBranchReferenceName(branch), true)
	if errors.Is(referenceError, plumbing.ErrReferenceNotFound) {
		return false, nil
	}
	if referenceError != nil {
		return false, fmt.Errorf(branchLookupErrorTemplateConstant, branch, referenceError)
	}
	return true, nil
}

func (inspector *Inspector) open() (*git.Repository, error) {
	repository, openError := git.PlainOpen(inspector.repositoryPath)
	if openError != nil {
		return nil, fmt.Errorf(openRepositoryErrorTemplateConstant, inspector.repositoryPath, ErrNotRepository, openError)
	}
	return repository, nil
}
