package testresults_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/nixpatch/internal/githubcli"
	"github.com/temirov/nixpatch/internal/testresults"
)

const testRepositoryConstant = "cachix/devenv-nixpkgs"

type stubWorkflowClient struct {
	jobs              []githubcli.WorkflowJob
	jobsError         error
	head              string
	headError         error
	requestedRunIDs   []int64
	requestedBranches []string
}

func (client *stubWorkflowClient) ListWorkflowRunJobs(_ context.Context, repository string, runIdentifier int64) ([]githubcli.WorkflowJob, error) {
	if repository != testRepositoryConstant {
		return nil, errors.New("unexpected repository " + repository)
	}
	client.requestedRunIDs = append(client.requestedRunIDs, runIdentifier)
	return client.jobs, client.jobsError
}

func (client *stubWorkflowClient) ResolveBranchHead(_ context.Context, repository string, branch string) (string, error) {
	if repository != testRepositoryConstant {
		return "", errors.New("unexpected repository " + repository)
	}
	client.requestedBranches = append(client.requestedBranches, branch)
	return client.head, client.headError
}

func TestParseRunIdentifier(testInstance *testing.T) {
	testCases := []struct {
		name               string
		input              string
		expectedIdentifier int64
		expectError        bool
	}{
		{name: "numeric", input: "123456", expectedIdentifier: 123456},
		{name: "surrounding_whitespace", input: " 42 ", expectedIdentifier: 42},
		{name: "zero", input: "0", expectError: true},
		{name: "negative", input: "-5", expectError: true},
		{name: "not_numeric", input: "latest", expectError: true},
		{name: "empty", input: "", expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			identifier, parseError := testresults.ParseRunIdentifier(testCase.input)
			if testCase.expectError {
				require.Error(testInstance, parseError)
				return
			}
			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expectedIdentifier, identifier)
		})
	}
}

func TestGitHubJobSourceFetchJobs(testInstance *testing.T) {
	testInstance.Run("maps_jobs", func(testInstance *testing.T) {
		client := &stubWorkflowClient{jobs: []githubcli.WorkflowJob{
			{Identifier: 1, Name: testLinuxX64JobNameConstant, Status: "completed", Conclusion: "success"},
			{Identifier: 2, Name: "lint", Status: "completed", Conclusion: "failure"},
		}}
		source := testresults.NewGitHubJobSource(client, testRepositoryConstant)

		jobs, fetchError := source.FetchJobs(context.Background(), "77")
		require.NoError(testInstance, fetchError)
		require.Equal(testInstance, []int64{77}, client.requestedRunIDs)
		require.Equal(testInstance, []testresults.JobRecord{
			{Name: testLinuxX64JobNameConstant, Status: "completed", Conclusion: "success"},
			{Name: "lint", Status: "completed", Conclusion: "failure"},
		}, jobs)
	})

	testInstance.Run("invalid_run_identifier", func(testInstance *testing.T) {
		client := &stubWorkflowClient{}
		source := testresults.NewGitHubJobSource(client, testRepositoryConstant)

		_, fetchError := source.FetchJobs(context.Background(), "abc")
		require.Error(testInstance, fetchError)
		require.IsType(testInstance, testresults.RemoteAccessError{}, fetchError)
		require.Contains(testInstance, fetchError.Error(), "failed to get jobs for run abc")
		require.Empty(testInstance, client.requestedRunIDs)
	})

	testInstance.Run("client_failure", func(testInstance *testing.T) {
		clientError := errors.New("HTTP 404")
		source := testresults.NewGitHubJobSource(&stubWorkflowClient{jobsError: clientError}, testRepositoryConstant)

		_, fetchError := source.FetchJobs(context.Background(), "77")
		require.ErrorIs(testInstance, fetchError, clientError)
		require.Equal(testInstance, "failed to get jobs for run 77: HTTP 404", fetchError.Error())
	})
}

func TestGitHubJobSourceResolveBranchCommit(testInstance *testing.T) {
	testInstance.Run("returns_head", func(testInstance *testing.T) {
		client := &stubWorkflowClient{head: testCommitConstant}
		source := testresults.NewGitHubJobSource(client, testRepositoryConstant)

		commit, resolveError := source.ResolveBranchCommit(context.Background(), "bump-rolling")
		require.NoError(testInstance, resolveError)
		require.Equal(testInstance, testCommitConstant, commit)
		require.Equal(testInstance, []string{"bump-rolling"}, client.requestedBranches)
	})

	testInstance.Run("client_failure", func(testInstance *testing.T) {
		clientError := errors.New("Not Found")
		source := testresults.NewGitHubJobSource(&stubWorkflowClient{headError: clientError}, testRepositoryConstant)

		_, resolveError := source.ResolveBranchCommit(context.Background(), "bump-rolling")
		require.ErrorIs(testInstance, resolveError, clientError)
		require.Equal(testInstance, "failed to get nixpkgs commit from bump-rolling: Not Found", resolveError.Error())
		require.True(testInstance, testresults.IsUpdateFailure(resolveError))
	})
}
