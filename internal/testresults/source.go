package testresults

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/temirov/nixpatch/internal/githubcli"
)

const (
	fetchJobsOperationTemplateConstant     = "get jobs for run %s"
	resolveCommitOperationTemplateConstant = "get nixpkgs commit from %s"
	invalidRunIdentifierTemplateConstant   = "invalid run id %q: expected a positive integer"
)

// JobSource supplies workflow jobs and branch heads.
type JobSource interface {
	FetchJobs(executionContext context.Context, runIdentifier string) ([]JobRecord, error)
	ResolveBranchCommit(executionContext context.Context, branch string) (string, error)
}

// WorkflowClient is the subset of githubcli.Client used by GitHubJobSource.
type WorkflowClient interface {
	ListWorkflowRunJobs(executionContext context.Context, repository string, runIdentifier int64) ([]githubcli.WorkflowJob, error)
	ResolveBranchHead(executionContext context.Context, repository string, branch string) (string, error)
}

// GitHubJobSource reads jobs and branch heads of one repository through the gh CLI.
type GitHubJobSource struct {
	client     WorkflowClient
	repository string
}

// NewGitHubJobSource constructs a GitHubJobSource for repository in owner/name form.
func NewGitHubJobSource(client WorkflowClient, repository string) *GitHubJobSource {
	return &GitHubJobSource{client: client, repository: repository}
}

// ParseRunIdentifier converts a textual run id into a positive integer.
func ParseRunIdentifier(runIdentifier string) (int64, error) {
	parsedIdentifier, parseError := strconv.ParseInt(strings.TrimSpace(runIdentifier), 10, 64)
	if parseError != nil || parsedIdentifier <= 0 {
		return 0, fmt.Errorf(invalidRunIdentifierTemplateConstant, runIdentifier)
	}
	return parsedIdentifier, nil
}

// FetchJobs returns every job of the run. All failures are RemoteAccessError.
func (source *GitHubJobSource) FetchJobs(executionContext context.Context, runIdentifier string) ([]JobRecord, error) {
	operation := fmt.Sprintf(fetchJobsOperationTemplateConstant, runIdentifier)
	parsedIdentifier, parseError := ParseRunIdentifier(runIdentifier)
	if parseError != nil {
		return nil, RemoteAccessError{Operation: operation, Cause: parseError}
	}

	workflowJobs, listError := source.client.ListWorkflowRunJobs(executionContext, source.repository, parsedIdentifier)
	if listError != nil {
		return nil, RemoteAccessError{Operation: operation, Cause: listError}
	}

	jobRecords := make([]JobRecord, 0, len(workflowJobs))
	for _, workflowJob := range workflowJobs {
		jobRecords = append(jobRecords, JobRecord{Name: workflowJob.Name, Status: workflowJob.Status, Conclusion: workflowJob.Conclusion})
	}
	return jobRecords, nil
}

// ResolveBranchCommit returns the full sha at the head of branch.
func (source *GitHubJobSource) ResolveBranchCommit(executionContext context.Context, branch string) (string, error) {
	commit, resolveError := source.client.ResolveBranchHead(executionContext, source.repository, branch)
	if resolveError != nil {
		return "", RemoteAccessError{Operation: fmt.Sprintf(resolveCommitOperationTemplateConstant, branch), Cause: resolveError}
	}
	return commit, nil
}
