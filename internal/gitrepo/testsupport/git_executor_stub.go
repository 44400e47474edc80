// Package testsupport provides git executor fakes shared by package tests.
package testsupport

import (
	"context"
	"strings"

	"github.com/temirov/nixpatch/internal/execshell"
)

const argumentSeparatorConstant = " "

// GitExecutorStub records git invocations and fails those matching configured fragments.
type GitExecutorStub struct {
	// Failures maps a fragment of the space-joined arguments, such as "am --reject", to the error returned for it.
	Failures         map[string]error
	ExecutedCommands []execshell.CommandDetails
	OnExecute        func(details execshell.CommandDetails)
}

// ExecuteGit records the command and returns the configured failure, if any.
func (executor *GitExecutorStub) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.ExecutedCommands = append(executor.ExecutedCommands, details)
	if executor.OnExecute != nil {
		executor.OnExecute(details)
	}
	commandLine := strings.Join(details.Arguments, argumentSeparatorConstant)
	for fragment, failure := range executor.Failures {
		if strings.Contains(commandLine, fragment) {
			return execshell.ExecutionResult{}, failure
		}
	}
	return execshell.ExecutionResult{ExitCode: 0}, nil
}

// CommandLines returns the recorded invocations as space-joined argument strings.
func (executor *GitExecutorStub) CommandLines() []string {
	commandLines := make([]string, 0, len(executor.ExecutedCommands))
	for _, details := range executor.ExecutedCommands {
		commandLines = append(commandLines, strings.Join(details.Arguments, argumentSeparatorConstant))
	}
	return commandLines
}

// CommandFailure builds the error execshell returns for a non-zero git exit.
func CommandFailure(standardError string, arguments ...string) error {
	return execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandGit, Details: execshell.CommandDetails{Arguments: arguments}},
		Result:  execshell.ExecutionResult{StandardError: standardError, ExitCode: 1},
	}
}
