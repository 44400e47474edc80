package githubcli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/temirov/nixpatch/internal/execshell"
	"github.com/temirov/nixpatch/internal/githubauth"
)

const (
	apiSubcommandConstant                   = "api"
	paginateFlagConstant                    = "--paginate"
	acceptHeaderFlagConstant                = "-H"
	acceptHeaderValueConstant               = "Accept: application/vnd.github+json"
	repositoryFieldNameConstant             = "repository"
	runIdentifierFieldNameConstant          = "run_id"
	branchFieldNameConstant                 = "branch"
	requiredValueMessageConstant            = "value required"
	ownerNameFormatMessageConstant          = "expected owner/name"
	positiveValueMessageConstant            = "must be a positive integer"
	executorNotConfiguredMessageConstant    = "github cli executor not configured"
	emptyShaMessageConstant                 = "reference response did not include a commit sha"
	repositorySeparatorConstant             = "/"
	operationErrorMessageTemplateConstant   = "%s operation failed"
	operationErrorWithCauseTemplateConstant = "%s operation failed: %s"
	responseDecodingErrorTemplateConstant   = "%s response decoding failed: %s"
	invalidInputErrorTemplateConstant       = "%s: %s"
	runJobsEndpointTemplateConstant         = "repos/%s/actions/runs/%d/jobs?per_page=100"
	branchReferenceEndpointTemplateConstant = "repos/%s/git/ref/heads/%s"
	listRunJobsOperationNameConstant        = OperationName("ListWorkflowRunJobs")
	resolveBranchHeadOperationNameConstant  = OperationName("ResolveBranchHead")
)

// OperationName describes a named GitHub CLI workflow supported by the client.
type OperationName string

// WorkflowJob is one job of a GitHub Actions workflow run.
type WorkflowJob struct {
	Identifier int64
	Name       string
	Status     string
	Conclusion string
}

// GitHubCommandExecutor is the minimal interface required from execshell.ShellExecutor.
type GitHubCommandExecutor interface {
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Client coordinates GitHub CLI invocations through execshell.
type Client struct {
	executor    GitHubCommandExecutor
	accessToken string
}

var (
	// ErrExecutorNotConfigured indicates the client was constructed without an executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
)

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// OperationError wraps execution issues for GitHub CLI operations.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(operationErrorMessageTemplateConstant, operationError.Operation)
	}
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// ResponseDecodingError indicates JSON decoding failures.
type ResponseDecodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the decoding failure.
func (decodingError ResponseDecodingError) Error() string {
	return fmt.Sprintf(responseDecodingErrorTemplateConstant, decodingError.Operation, decodingError.Cause)
}

// Unwrap exposes the underlying JSON error.
func (decodingError ResponseDecodingError) Unwrap() error {
	return decodingError.Cause
}

// NewClient constructs a GitHub CLI client. A non-empty accessToken is passed to gh as GH_TOKEN.
func NewClient(executor GitHubCommandExecutor, accessToken string) (*Client, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &Client{executor: executor, accessToken: strings.TrimSpace(accessToken)}, nil
}

// ListWorkflowRunJobs returns every job of the workflow run, following pagination.
func (client *Client) ListWorkflowRunJobs(executionContext context.Context, repository string, runIdentifier int64) ([]WorkflowJob, error) {
	repositoryIdentifier, validationError := validateRepository(repository)
	if validationError != nil {
		return nil, validationError
	}
	if runIdentifier <= 0 {
		return nil, InvalidInputError{FieldName: runIdentifierFieldNameConstant, Message: positiveValueMessageConstant}
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, client.apiRequest(
		fmt.Sprintf(runJobsEndpointTemplateConstant, repositoryIdentifier, runIdentifier),
		paginateFlagConstant,
	))
	if executionError != nil {
		return nil, OperationError{Operation: listRunJobsOperationNameConstant, Cause: executionError}
	}

	type jobsPage struct {
		Jobs []struct {
			Identifier int64  `json:"id"`
			Name       string `json:"name"`
			Status     string `json:"status"`
			Conclusion string `json:"conclusion"`
		} `json:"jobs"`
	}

	// --paginate prints one JSON document per page back to back.
	responseDecoder := json.NewDecoder(strings.NewReader(executionResult.StandardOutput))
	workflowJobs := []WorkflowJob{}
	for {
		var page jobsPage
		decodingError := responseDecoder.Decode(&page)
		if errors.Is(decodingError, io.EOF) {
			break
		}
		if decodingError != nil {
			return nil, ResponseDecodingError{Operation: listRunJobsOperationNameConstant, Cause: decodingError}
		}
		for _, jobEntry := range page.Jobs {
			workflowJobs = append(workflowJobs, WorkflowJob{
				Identifier: jobEntry.Identifier,
				Name:       jobEntry.Name,
				Status:     jobEntry.Status,
				Conclusion: jobEntry.Conclusion,
			})
		}
	}

	return workflowJobs, nil
}

// ResolveBranchHead returns the commit sha the branch currently points to.
func (client *Client) ResolveBranchHead(executionContext context.Context, repository string, branch string) (string, error) {
	repositoryIdentifier, validationError := validateRepository(repository)
	if validationError != nil {
		return "", validationError
	}
	branchName := strings.TrimSpace(branch)
	if len(branchName) == 0 {
		return "", InvalidInputError{FieldName: branchFieldNameConstant, Message: requiredValueMessageConstant}
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, client.apiRequest(
		fmt.Sprintf(branchReferenceEndpointTemplateConstant, repositoryIdentifier, branchName),
	))
	if executionError != nil {
		return "", OperationError{Operation: resolveBranchHeadOperationNameConstant, Cause: executionError}
	}

	var response struct {
		Object struct {
			Sha string `json:"sha"`
		} `json:"object"`
	}

	decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response)
	if decodingError != nil {
		return "", ResponseDecodingError{Operation: resolveBranchHeadOperationNameConstant, Cause: decodingError}
	}

	commitSha := strings.TrimSpace(response.Object.Sha)
	if len(commitSha) == 0 {
		return "", ResponseDecodingError{Operation: resolveBranchHeadOperationNameConstant, Cause: errors.New(emptyShaMessageConstant)}
	}

	return commitSha, nil
}

func (client *Client) apiRequest(endpoint string, additionalArguments ...string) execshell.CommandDetails {
	arguments := []string{apiSubcommandConstant, endpoint}
	arguments = append(arguments, additionalArguments...)
	arguments = append(arguments, acceptHeaderFlagConstant, acceptHeaderValueConstant)

	commandDetails := execshell.CommandDetails{Arguments: arguments}
	if len(client.accessToken) > 0 {
		commandDetails.EnvironmentVariables = map[string]string{githubauth.EnvGitHubCLIToken: client.accessToken}
	}
	return commandDetails
}

func validateRepository(repository string) (string, error) {
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) == 0 {
		return "", InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	repositorySegments := strings.Split(repositoryIdentifier, repositorySeparatorConstant)
	if len(repositorySegments) != 2 || len(repositorySegments[0]) == 0 || len(repositorySegments[1]) == 0 {
		return "", InvalidInputError{FieldName: repositoryFieldNameConstant, Message: ownerNameFormatMessageConstant}
	}
	return repositoryIdentifier, nil
}
