package patcher_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/nixpatch/internal/gitrepo"
	"github.com/temirov/nixpatch/internal/gitrepo/testsupport"
	"github.com/temirov/nixpatch/internal/patcher"
	"github.com/temirov/nixpatch/internal/ui"
	pathutils "github.com/temirov/nixpatch/internal/utils/path"
)

const (
	testHomeDirectoryConstant = "/home/maintainer"
)

func TestPatchCommandConfiguration(testInstance *testing.T) {
	testCases := []struct {
		name                 string
		arguments            []string
		configuration        *patcher.CommandConfiguration
		expectedCommandLines []string
		expectedRepository   func(workingDirectory string) string
		expectVerbose        bool
	}{
		{
			name:      "flags_disable_fetch_and_push",
			arguments: []string{"--no-refetch", "--no-push", "--repo-path", "checkout"},
			expectedCommandLines: []string{
				"config user.name Patcher Script",
				"config user.email noreply@example.com",
				"checkout --detach " + testUpstreamCommitConstant,
				"branch -D bump-rolling",
				"checkout -b bump-rolling " + testUpstreamCommitConstant,
			},
			expectedRepository: func(workingDirectory string) string {
				return filepath.Join(workingDirectory, "checkout")
			},
		},
		{
			name:      "configuration_values_apply_without_flags",
			arguments: []string{"-v"},
			configuration: &patcher.CommandConfiguration{
				GitUserName:    "CI Bot",
				GitUserEmail:   "ci@example.com",
				RepositoryPath: "~/nixpkgs",
				Refetch:        false,
				Push:           false,
			},
			expectedCommandLines: []string{
				"config user.name CI Bot",
				"config user.email ci@example.com",
				"checkout --detach " + testUpstreamCommitConstant,
				"branch -D bump-rolling",
				"checkout -b bump-rolling " + testUpstreamCommitConstant,
			},
			expectedRepository: func(string) string {
				return filepath.Join(testHomeDirectoryConstant, "nixpkgs")
			},
			expectVerbose: true,
		},
		{
			name:      "flags_override_configuration",
			arguments: []string{"--git-user-name", "Release Bot", "--no-push", "--repo-path", "/srv/nixpkgs"},
			configuration: &patcher.CommandConfiguration{
				GitUserName: "CI Bot",
				Refetch:     false,
				Push:        true,
			},
			expectedCommandLines: []string{
				"config user.name Release Bot",
				"config user.email noreply@example.com",
				"checkout --detach " + testUpstreamCommitConstant,
				"branch -D bump-rolling",
				"checkout -b bump-rolling " + testUpstreamCommitConstant,
			},
			expectedRepository: func(string) string {
				return "/srv/nixpkgs"
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			workingDirectory := testInstance.TempDir()
			executor := &testsupport.GitExecutorStub{}
			verboseEnabled := false
			openedRepository := ""

			builder := patcher.CommandBuilder{
				GitExecutor: executor,
				InspectorOpener: func(repositoryPath string) (patcher.RepositoryInspector, error) {
					openedRepository = repositoryPath
					return newStandardInspector(), nil
				},
				WorkingDirectory: workingDirectory,
				HomeExpander: pathutils.NewHomeExpanderWithProvider(func() (string, error) {
					return testHomeDirectoryConstant, nil
				}),
				VerboseLoggingEnabler: func() {
					verboseEnabled = true
				},
			}
			if testCase.configuration != nil {
				configuration := *testCase.configuration
				builder.ConfigurationProvider = func() patcher.CommandConfiguration {
					return configuration
				}
			}

			command, buildError := builder.Build()
			require.NoError(testInstance, buildError)
			output := &bytes.Buffer{}
			command.SetOut(output)
			command.SetArgs(testCase.arguments)
			command.SetContext(context.Background())

			require.NoError(testInstance, command.Execute())
			require.Equal(testInstance, testCase.expectedCommandLines, executor.CommandLines())
			require.Equal(testInstance, testCase.expectedRepository(workingDirectory), openedRepository)
			require.Equal(testInstance, testCase.expectVerbose, verboseEnabled)
			require.Contains(testInstance, output.String(), "Patcher workflow completed successfully!")
		})
	}
}

func TestPatchCommandReportsWorkflowFailure(testInstance *testing.T) {
	executor := &testsupport.GitExecutorStub{Failures: map[string]error{"fetch": testsupport.CommandFailure("fatal: could not read from remote")}}
	builder := patcher.CommandBuilder{
		GitExecutor: executor,
		InspectorOpener: func(string) (patcher.RepositoryInspector, error) {
			return newStandardInspector(), nil
		},
		WorkingDirectory: testInstance.TempDir(),
	}

	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)
	output := &bytes.Buffer{}
	command.SetOut(output)
	command.SetArgs([]string{})

	executionError := command.Execute()
	require.Error(testInstance, executionError)
	require.IsType(testInstance, ui.ReportedError{}, executionError)

	var operationError patcher.GitOperationError
	require.ErrorAs(testInstance, executionError, &operationError)
	require.Contains(testInstance, output.String(), "❌ Workflow failed: fetch upstream:")
}

func TestPatchCommandRejectsUnknownApplyMode(testInstance *testing.T) {
	executor := &testsupport.GitExecutorStub{}
	builder := patcher.CommandBuilder{
		GitExecutor: executor,
		InspectorOpener: func(string) (patcher.RepositoryInspector, error) {
			return newStandardInspector(), nil
		},
		WorkingDirectory: testInstance.TempDir(),
	}

	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)
	output := &bytes.Buffer{}
	command.SetOut(output)
	command.SetArgs([]string{"--apply-mode", "merge"})

	executionError := command.Execute()
	require.Error(testInstance, executionError)
	require.Contains(testInstance, output.String(), "❌ Workflow failed: apply_mode:")
	require.Empty(testInstance, executor.ExecutedCommands)
}

func TestPatchCommandDefaults(testInstance *testing.T) {
	builder := patcher.CommandBuilder{}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	expectedDefaults := map[string]string{
		"upstream-ref":   "nixpkgs-unstable",
		"target-branch":  "bump-rolling",
		"remote-name":    "upstream",
		"remote-url":     "https://github.com/NixOS/nixpkgs.git",
		"patch-dir":      "patches",
		"git-user-name":  "Patcher Script",
		"git-user-email": "noreply@example.com",
		"repo-path":      ".",
		"apply-mode":     string(gitrepo.ApplyModeReject),
		"no-refetch":     "false",
		"no-push":        "false",
	}
	for flagName, expectedDefault := range expectedDefaults {
		flag := command.Flags().Lookup(flagName)
		require.NotNil(testInstance, flag, flagName)
		require.Equal(testInstance, expectedDefault, flag.DefValue, flagName)
	}
	require.Equal(testInstance, "v", command.Flags().Lookup("verbose").Shorthand)
}
