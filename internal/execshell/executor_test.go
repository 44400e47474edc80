package execshell_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/nixpatch/internal/execshell"
)

const (
	testStructuredModeCaseNameConstant    = "structured_mode"
	testHumanReadableModeCaseNameConstant = "human_readable_mode"
	testCallerEnvironmentKeyConstant      = "GH_TOKEN"
	testCallerEnvironmentValueConstant    = "secret"
	testRepositoryDirectoryConstant       = "/workspace/devenv-nixpkgs"
	testGitWrapperCaseNameConstant        = "git_wrapper"
	testGitHubWrapperCaseNameConstant     = "github_cli_wrapper"
)

type recordingCommandRunner struct {
	executionResult  execshell.ExecutionResult
	executionError   error
	recordedCommands []execshell.ShellCommand
}

func (runner *recordingCommandRunner) Run(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	runner.recordedCommands = append(runner.recordedCommands, command)
	return runner.executionResult, runner.executionError
}

func TestNewShellExecutorRequiresCollaborators(testInstance *testing.T) {
	_, missingLoggerError := execshell.NewShellExecutor(nil, &recordingCommandRunner{}, false)
	require.ErrorIs(testInstance, missingLoggerError, execshell.ErrLoggerNotConfigured)

	_, missingRunnerError := execshell.NewShellExecutor(zap.NewNop(), nil, false)
	require.ErrorIs(testInstance, missingRunnerError, execshell.ErrCommandRunnerNotConfigured)

	executor, creationError := execshell.NewShellExecutor(zap.NewNop(), &recordingCommandRunner{}, true)
	require.NoError(testInstance, creationError)
	require.NotNil(testInstance, executor)
}

func TestShellExecutorApplyPatchOutcomes(testInstance *testing.T) {
	testCases := []struct {
		name              string
		runnerResult      execshell.ExecutionResult
		runnerError       error
		expectErrorType   any
		expectedOutput    string
		expectedLastLevel zapcore.Level
	}{
		{
			name:              "applied",
			runnerResult:      execshell.ExecutionResult{StandardOutput: "Applying: Bump default\n"},
			expectedOutput:    "Applying: Bump default\n",
			expectedLastLevel: zapcore.DebugLevel,
		},
		{
			name:              "conflict_exit_code",
			runnerResult:      execshell.ExecutionResult{StandardError: "error: patch failed: default.nix:1", ExitCode: 128},
			expectErrorType:   execshell.CommandFailedError{},
			expectedLastLevel: zapcore.WarnLevel,
		},
		{
			name:              "git_not_startable",
			runnerError:       errors.New("exec: \"git\": executable file not found in $PATH"),
			expectErrorType:   execshell.CommandExecutionError{},
			expectedLastLevel: zapcore.ErrorLevel,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			observerCore, observerLogs := observer.New(zap.DebugLevel)
			recordingRunner := &recordingCommandRunner{executionResult: testCase.runnerResult, executionError: testCase.runnerError}

			shellExecutor, creationError := execshell.NewShellExecutor(zap.New(observerCore), recordingRunner, false)
			require.NoError(testInstance, creationError)

			executionResult, executionError := shellExecutor.ExecuteGit(context.Background(), execshell.CommandDetails{
				Arguments:        []string{"am", "--reject", "/tmp/patches/001-bump-default.patch"},
				WorkingDirectory: testRepositoryDirectoryConstant,
			})

			if testCase.expectErrorType != nil {
				require.IsType(testInstance, testCase.expectErrorType, executionError)
				require.Empty(testInstance, executionResult.StandardOutput)
			} else {
				require.NoError(testInstance, executionError)
				require.Equal(testInstance, testCase.expectedOutput, executionResult.StandardOutput)
			}

			loggedEntries := observerLogs.All()
			require.Len(testInstance, loggedEntries, 2)
			require.Equal(testInstance, testCase.expectedLastLevel, loggedEntries[1].Level)
		})
	}
}

func TestShellExecutorWrappersSetCommandNames(testInstance *testing.T) {
	testCases := []struct {
		name            string
		invoke          func(executor *execshell.ShellExecutor) error
		expectedCommand execshell.CommandName
	}{
		{
			name: testGitWrapperCaseNameConstant,
			invoke: func(executor *execshell.ShellExecutor) error {
				_, executionError := executor.ExecuteGit(context.Background(), execshell.CommandDetails{})
				return executionError
			},
			expectedCommand: execshell.CommandGit,
		},
		{
			name: testGitHubWrapperCaseNameConstant,
			invoke: func(executor *execshell.ShellExecutor) error {
				_, executionError := executor.ExecuteGitHubCLI(context.Background(), execshell.CommandDetails{})
				return executionError
			},
			expectedCommand: execshell.CommandGitHub,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			recordingRunner := &recordingCommandRunner{
				executionResult: execshell.ExecutionResult{ExitCode: 1},
			}

			executor, creationError := execshell.NewShellExecutor(zap.NewNop(), recordingRunner, false)
			require.NoError(testInstance, creationError)

			executionError := testCase.invoke(executor)
			require.Error(testInstance, executionError)
			require.Len(testInstance, recordingRunner.recordedCommands, 1)
			require.Equal(testInstance, testCase.expectedCommand, recordingRunner.recordedCommands[0].Name)
		})
	}
}

func TestShellExecutorGitDisablesTerminalPrompt(testInstance *testing.T) {
	recordingRunner := &recordingCommandRunner{}
	executor, creationError := execshell.NewShellExecutor(zap.NewNop(), recordingRunner, false)
	require.NoError(testInstance, creationError)

	callerEnvironment := map[string]string{testCallerEnvironmentKeyConstant: testCallerEnvironmentValueConstant}
	_, executionError := executor.ExecuteGit(context.Background(), execshell.CommandDetails{EnvironmentVariables: callerEnvironment})
	require.NoError(testInstance, executionError)

	recordedEnvironment := recordingRunner.recordedCommands[0].Details.EnvironmentVariables
	require.Equal(testInstance, "0", recordedEnvironment["GIT_TERMINAL_PROMPT"])
	require.Equal(testInstance, testCallerEnvironmentValueConstant, recordedEnvironment[testCallerEnvironmentKeyConstant])
	require.Len(testInstance, callerEnvironment, 1)
}

func TestShellExecutorLoggingModes(testInstance *testing.T) {
	testCases := []struct {
		name                 string
		humanReadableLogging bool
		expectedFirstMessage string
	}{
		{
			name:                 testStructuredModeCaseNameConstant,
			humanReadableLogging: false,
			expectedFirstMessage: "command started",
		},
		{
			name:                 testHumanReadableModeCaseNameConstant,
			humanReadableLogging: true,
			expectedFirstMessage: "Fetching from upstream in " + testRepositoryDirectoryConstant,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			observerCore, observerLogs := observer.New(zap.DebugLevel)
			executor, creationError := execshell.NewShellExecutor(zap.New(observerCore), &recordingCommandRunner{}, testCase.humanReadableLogging)
			require.NoError(testInstance, creationError)

			_, executionError := executor.ExecuteGit(context.Background(), execshell.CommandDetails{
				Arguments:        []string{"fetch", "upstream"},
				WorkingDirectory: testRepositoryDirectoryConstant,
			})
			require.NoError(testInstance, executionError)

			loggedEntries := observerLogs.All()
			require.Len(testInstance, loggedEntries, 2)
			require.Equal(testInstance, testCase.expectedFirstMessage, loggedEntries[0].Message)
		})
	}
}

func TestCommandFailedErrorIncludesStandardError(testInstance *testing.T) {
	failedError := execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandGit, Details: execshell.CommandDetails{Arguments: []string{"push", "--force", "origin", "bump-rolling"}}},
		Result:  execshell.ExecutionResult{ExitCode: 1, StandardError: " rejected \n"},
	}

	require.Equal(testInstance, "git push --force origin bump-rolling failed with exit code 1: rejected", failedError.Error())
}
