package execshell

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommandMessageFormatterStartedMessages(testInstance *testing.T) {
	testCases := []struct {
		name            string
		command         ShellCommand
		expectedMessage string
	}{
		{
			name:            "config",
			command:         ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"config", "user.name", "Patcher Script"}, WorkingDirectory: "/workspace/repo"}},
			expectedMessage: `Setting user.name to "Patcher Script" in /workspace/repo`,
		},
		{
			name:            "remote_add",
			command:         ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"remote", "add", "upstream", "https://github.com/NixOS/nixpkgs.git"}, WorkingDirectory: "/workspace/repo"}},
			expectedMessage: "Adding upstream remote pointing to https://github.com/NixOS/nixpkgs.git in /workspace/repo",
		},
		{
			name:            "remote_set_url",
			command:         ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"remote", "set-url", "upstream", "https://example.com/nixpkgs.git"}, WorkingDirectory: "/workspace/repo"}},
			expectedMessage: "Updating upstream remote to https://example.com/nixpkgs.git in /workspace/repo",
		},
		{
			name:            "fetch_without_remote",
			command:         ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"fetch"}, WorkingDirectory: "/workspace/repo"}},
			expectedMessage: "Fetching from all remotes in /workspace/repo",
		},
		{
			name:            "checkout_detach",
			command:         ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"checkout", "--detach", "abc123"}, WorkingDirectory: "/workspace/repo"}},
			expectedMessage: "Detaching /workspace/repo at abc123",
		},
		{
			name:            "checkout_new_branch",
			command:         ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"checkout", "-b", "bump-rolling", "abc123"}, WorkingDirectory: "/workspace/repo"}},
			expectedMessage: "Creating branch bump-rolling from abc123 in /workspace/repo",
		},
		{
			name:            "branch_delete",
			command:         ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"branch", "-D", "bump-rolling"}, WorkingDirectory: "/workspace/repo"}},
			expectedMessage: "Force removing local branch bump-rolling in /workspace/repo",
		},
		{
			name:            "commit",
			command:         ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"commit", "-m", "ci: remove nixpkgs workflows"}, WorkingDirectory: "/workspace/repo"}},
			expectedMessage: `Creating commit in /workspace/repo with message "ci: remove nixpkgs workflows"`,
		},
		{
			name:            "am",
			command:         ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"am", "--reject", "/tmp/patches/001.patch"}, WorkingDirectory: "/workspace/repo"}},
			expectedMessage: "Applying /tmp/patches/001.patch in /workspace/repo",
		},
		{
			name:            "push",
			command:         ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"push", "--force", "origin", "bump-rolling"}, WorkingDirectory: "/workspace/repo"}},
			expectedMessage: "Pushing bump-rolling to origin from /workspace/repo",
		},
		{
			name:            "run_jobs",
			command:         ShellCommand{Name: CommandGitHub, Details: CommandDetails{Arguments: []string{"api", "repos/cachix/devenv-nixpkgs/actions/runs/42/jobs?per_page=100", "--paginate"}}},
			expectedMessage: "Listing jobs of workflow run 42 in cachix/devenv-nixpkgs",
		},
		{
			name:            "git_ref",
			command:         ShellCommand{Name: CommandGitHub, Details: CommandDetails{Arguments: []string{"api", "repos/cachix/devenv-nixpkgs/git/ref/heads/bump-rolling"}}},
			expectedMessage: "Resolving heads/bump-rolling in cachix/devenv-nixpkgs",
		},
		{
			name:            "generic",
			command:         ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"status"}, WorkingDirectory: "/workspace/repo"}},
			expectedMessage: "Running git status (in /workspace/repo)",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			formatter := CommandMessageFormatter{}
			require.Equal(testInstance, testCase.expectedMessage, formatter.BuildStartedMessage(testCase.command))
		})
	}
}

func TestCommandMessageFormatterFailureMessages(testInstance *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"am", "--reject", "002.patch"}, WorkingDirectory: "/workspace/repo"}}

	failureMessage := formatter.BuildFailureMessage(command, ExecutionResult{ExitCode: 128, StandardError: "patch does not apply\n"})
	require.Equal(testInstance, "Failed to apply 002.patch in /workspace/repo (exit code 128: patch does not apply)", failureMessage)

	executionFailureMessage := formatter.BuildExecutionFailureMessage(command, errors.New("executable file not found"))
	require.Equal(testInstance, "Unable to apply 002.patch in /workspace/repo: executable file not found", executionFailureMessage)

	require.Equal(testInstance, "Applied 002.patch in /workspace/repo", formatter.BuildSuccessMessage(command))
}
