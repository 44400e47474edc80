package execshell

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
)

const environmentAssignmentSeparatorConstant = "="

// OSCommandRunner starts git and gh as child processes.
type OSCommandRunner struct {
	baseEnvironment func() []string
}

// NewOSCommandRunner constructs a runner that inherits the process environment.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{baseEnvironment: os.Environ}
}

// Run executes command and captures both output streams. A non-zero exit is
// reported through ExecutionResult.ExitCode; only a failure to start is an error.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	process := exec.CommandContext(executionContext, string(command.Name), command.Details.Arguments...)
	process.Dir = command.Details.WorkingDirectory
	if len(command.Details.EnvironmentVariables) > 0 {
		process.Env = overrideEnvironment(runner.environment(), command.Details.EnvironmentVariables)
	}

	var standardOutput, standardError bytes.Buffer
	process.Stdout = &standardOutput
	process.Stderr = &standardError

	result := ExecutionResult{}
	if runError := process.Run(); runError != nil {
		var exitError *exec.ExitError
		if !errors.As(runError, &exitError) {
			return ExecutionResult{}, runError
		}
		result.ExitCode = exitError.ExitCode()
	}
	result.StandardOutput = standardOutput.String()
	result.StandardError = standardError.String()
	return result, nil
}

func (runner *OSCommandRunner) environment() []string {
	if runner == nil || runner.baseEnvironment == nil {
		return os.Environ()
	}
	return runner.baseEnvironment()
}

// overrideEnvironment replaces inherited assignments whose key is overridden and appends new keys.
func overrideEnvironment(baseEnvironment []string, overrides map[string]string) []string {
	mergedEnvironment := make([]string, 0, len(baseEnvironment)+len(overrides))
	for _, assignment := range baseEnvironment {
		environmentKey, _, _ := strings.Cut(assignment, environmentAssignmentSeparatorConstant)
		if _, overridden := overrides[environmentKey]; overridden {
			continue
		}
		mergedEnvironment = append(mergedEnvironment, assignment)
	}
	for environmentKey, environmentValue := range overrides {
		mergedEnvironment = append(mergedEnvironment, environmentKey+environmentAssignmentSeparatorConstant+environmentValue)
	}
	return mergedEnvironment
}
