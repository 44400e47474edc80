package gitrepo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/nixpatch/internal/execshell"
	"github.com/temirov/nixpatch/internal/gitrepo"
	"github.com/temirov/nixpatch/internal/gitrepo/testsupport"
)

const testRepositoryPathConstant = "/work/devenv-nixpkgs"

func TestNewRepositoryManagerValidation(testInstance *testing.T) {
	_, missingExecutorError := gitrepo.NewRepositoryManager(nil, testRepositoryPathConstant)
	require.ErrorIs(testInstance, missingExecutorError, gitrepo.ErrGitExecutorNotConfigured)

	_, missingPathError := gitrepo.NewRepositoryManager(&testsupport.GitExecutorStub{}, " ")
	require.IsType(testInstance, gitrepo.InvalidArgumentError{}, missingPathError)
	require.EqualError(testInstance, missingPathError, "repository_path: value required")
}

func TestRepositoryManagerCommands(testInstance *testing.T) {
	testCases := []struct {
		name                 string
		operation            func(context.Context, *gitrepo.RepositoryManager) error
		expectedCommandLines []string
	}{
		{
			name: "configure_identity",
			operation: func(executionContext context.Context, manager *gitrepo.RepositoryManager) error {
				return manager.ConfigureIdentity(executionContext, "Patcher Script", "noreply@example.com")
			},
			expectedCommandLines: []string{"config user.name Patcher Script", "config user.email noreply@example.com"},
		},
		{
			name: "add_remote",
			operation: func(executionContext context.Context, manager *gitrepo.RepositoryManager) error {
				return manager.AddRemote(executionContext, "upstream", "https://github.com/NixOS/nixpkgs.git")
			},
			expectedCommandLines: []string{"remote add upstream https://github.com/NixOS/nixpkgs.git"},
		},
		{
			name: "set_remote_url",
			operation: func(executionContext context.Context, manager *gitrepo.RepositoryManager) error {
				return manager.SetRemoteURL(executionContext, "upstream", "https://github.com/NixOS/nixpkgs.git")
			},
			expectedCommandLines: []string{"remote set-url upstream https://github.com/NixOS/nixpkgs.git"},
		},
		{
			name: "fetch",
			operation: func(executionContext context.Context, manager *gitrepo.RepositoryManager) error {
				return manager.Fetch(executionContext, "upstream")
			},
			expectedCommandLines: []string{"fetch upstream"},
		},
		{
			name: "reset_sequence",
			operation: func(executionContext context.Context, manager *gitrepo.RepositoryManager) error {
				if detachError := manager.DetachHead(executionContext, "abc123"); detachError != nil {
					return detachError
				}
				if deleteError := manager.DeleteBranch(executionContext, "bump-rolling"); deleteError != nil {
					return deleteError
				}
				return manager.CheckoutNewBranch(executionContext, "bump-rolling", "abc123")
			},
			expectedCommandLines: []string{"checkout --detach abc123", "branch -D bump-rolling", "checkout -b bump-rolling abc123"},
		},
		{
			name: "stage_and_commit",
			operation: func(executionContext context.Context, manager *gitrepo.RepositoryManager) error {
				if stageError := manager.StageAll(executionContext); stageError != nil {
					return stageError
				}
				return manager.Commit(executionContext, "ci: remove nixpkgs workflows")
			},
			expectedCommandLines: []string{"add -A", "commit -m ci: remove nixpkgs workflows"},
		},
		{
			name: "apply_reject",
			operation: func(executionContext context.Context, manager *gitrepo.RepositoryManager) error {
				return manager.ApplyPatch(executionContext, "/tmp/patches/001.patch", gitrepo.ApplyModeReject)
			},
			expectedCommandLines: []string{"am --reject /tmp/patches/001.patch"},
		},
		{
			name: "apply_three_way",
			operation: func(executionContext context.Context, manager *gitrepo.RepositoryManager) error {
				return manager.ApplyPatch(executionContext, "/tmp/patches/001.patch", gitrepo.ApplyModeThreeWay)
			},
			expectedCommandLines: []string{"am --3way /tmp/patches/001.patch"},
		},
		{
			name: "force_push",
			operation: func(executionContext context.Context, manager *gitrepo.RepositoryManager) error {
				return manager.ForcePush(executionContext, "origin", "bump-rolling")
			},
			expectedCommandLines: []string{"push --force origin bump-rolling"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &testsupport.GitExecutorStub{}
			manager, creationError := gitrepo.NewRepositoryManager(executor, testRepositoryPathConstant)
			require.NoError(testInstance, creationError)

			require.NoError(testInstance, testCase.operation(context.Background(), manager))
			require.Equal(testInstance, testCase.expectedCommandLines, executor.CommandLines())
			for _, details := range executor.ExecutedCommands {
				require.Equal(testInstance, testRepositoryPathConstant, details.WorkingDirectory)
			}
		})
	}
}

func TestRepositoryManagerFailures(testInstance *testing.T) {
	testInstance.Run("command_failure_is_wrapped", func(testInstance *testing.T) {
		commandFailure := testsupport.CommandFailure("error: patch failed", "am", "--reject", "002.patch")
		executor := &testsupport.GitExecutorStub{Failures: map[string]error{"am --reject": commandFailure}}
		manager, creationError := gitrepo.NewRepositoryManager(executor, testRepositoryPathConstant)
		require.NoError(testInstance, creationError)

		applyError := manager.ApplyPatch(context.Background(), "002.patch", gitrepo.ApplyModeReject)
		require.Error(testInstance, applyError)
		require.ErrorAs(testInstance, applyError, &execshell.CommandFailedError{})
		require.Contains(testInstance, applyError.Error(), "git am failed")
	})

	testInstance.Run("configure_identity_stops_after_first_failure", func(testInstance *testing.T) {
		executor := &testsupport.GitExecutorStub{Failures: map[string]error{"config user.name": testsupport.CommandFailure("locked")}}
		manager, creationError := gitrepo.NewRepositoryManager(executor, testRepositoryPathConstant)
		require.NoError(testInstance, creationError)

		require.Error(testInstance, manager.ConfigureIdentity(context.Background(), "Patcher Script", "noreply@example.com"))
		require.Len(testInstance, executor.ExecutedCommands, 1)
	})

	testInstance.Run("empty_argument_is_rejected_without_running", func(testInstance *testing.T) {
		executor := &testsupport.GitExecutorStub{}
		manager, creationError := gitrepo.NewRepositoryManager(executor, testRepositoryPathConstant)
		require.NoError(testInstance, creationError)

		fetchError := manager.Fetch(context.Background(), " ")
		require.IsType(testInstance, gitrepo.InvalidArgumentError{}, fetchError)
		require.EqualError(testInstance, fetchError, "fetch: value required")
		require.Empty(testInstance, executor.ExecutedCommands)
	})

	testInstance.Run("unsupported_apply_mode", func(testInstance *testing.T) {
		executor := &testsupport.GitExecutorStub{}
		manager, creationError := gitrepo.NewRepositoryManager(executor, testRepositoryPathConstant)
		require.NoError(testInstance, creationError)

		applyError := manager.ApplyPatch(context.Background(), "001.patch", gitrepo.ApplyMode("merge"))
		require.IsType(testInstance, gitrepo.InvalidArgumentError{}, applyError)
		require.Empty(testInstance, executor.ExecutedCommands)
	})
}

func TestParseApplyMode(testInstance *testing.T) {
	testCases := []struct {
		name         string
		value        string
		expectedMode gitrepo.ApplyMode
		expectError  bool
	}{
		{name: "reject", value: "reject", expectedMode: gitrepo.ApplyModeReject},
		{name: "three_way_mixed_case", value: " 3WAY ", expectedMode: gitrepo.ApplyModeThreeWay},
		{name: "unknown", value: "merge", expectError: true},
		{name: "empty", value: "", expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			var decodedMode gitrepo.ApplyMode
			decodeError := decodedMode.UnmarshalText([]byte(testCase.value))
			if testCase.expectError {
				require.Error(testInstance, decodeError)
				return
			}
			require.NoError(testInstance, decodeError)
			require.Equal(testInstance, testCase.expectedMode, decodedMode)
		})
	}
}
