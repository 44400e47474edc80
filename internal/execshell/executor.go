package execshell

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	commandGitNameConstant                  = "git"
	commandGitHubNameConstant               = "gh"
	gitTerminalPromptEnvironmentKeyConstant = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptDisabledValueConstant  = "0"
	commandFailedTemplateConstant           = "%s failed with exit code %d"
	commandFailedWithOutputTemplateConstant = "%s failed with exit code %d: %s"
	commandExecutionFailedTemplateConstant  = "%s could not be executed: %v"
	commandLabelSeparatorConstant           = " "
	loggerNotConfiguredMessageConstant      = "shell executor logger not configured"
	commandRunnerNotConfiguredConstant      = "shell executor command runner not configured"
)

// CommandName identifies an external executable.
type CommandName string

// Supported executables.
const (
	CommandGit    CommandName = CommandName(commandGitNameConstant)
	CommandGitHub CommandName = CommandName(commandGitHubNameConstant)
)

// ErrLoggerNotConfigured indicates that NewShellExecutor received a nil logger.
var ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)

// ErrCommandRunnerNotConfigured indicates that NewShellExecutor received a nil runner.
var ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredConstant)

// CommandDetails describes the arguments and process environment of one invocation.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
}

// ShellCommand pairs an executable with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable outcome of a finished process.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner runs a ShellCommand to completion.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// CommandFailedError reports a process that exited with a non-zero status.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failed command including its standard error output.
func (failedError CommandFailedError) Error() string {
	commandLabel := describeCommand(failedError.Command)
	trimmedStandardError := strings.TrimSpace(failedError.Result.StandardError)
	if len(trimmedStandardError) == 0 {
		return fmt.Sprintf(commandFailedTemplateConstant, commandLabel, failedError.Result.ExitCode)
	}
	return fmt.Sprintf(commandFailedWithOutputTemplateConstant, commandLabel, failedError.Result.ExitCode, trimmedStandardError)
}

// CommandExecutionError reports a process that could not be started or awaited.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (executionError CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionFailedTemplateConstant, describeCommand(executionError.Command), executionError.Cause)
}

// Unwrap exposes the underlying cause.
func (executionError CommandExecutionError) Unwrap() error {
	return executionError.Cause
}

// ShellExecutor executes git and gh commands and reports their lifecycle.
type ShellExecutor struct {
	commandRunner CommandRunner
	eventObserver CommandEventObserver
}

// NewShellExecutor validates dependencies and selects the event observer for the requested logging mode.
func NewShellExecutor(logger *zap.Logger, commandRunner CommandRunner, humanReadableLogging bool) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if commandRunner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}

	var eventObserver CommandEventObserver = newStructuredCommandEventObserver(logger)
	if humanReadableLogging {
		eventObserver = newHumanReadableCommandEventObserver(logger)
	}

	return &ShellExecutor{commandRunner: commandRunner, eventObserver: eventObserver}, nil
}

// Execute runs an arbitrary command and converts non-zero exits into CommandFailedError.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	executor.eventObserver.CommandStarted(command)

	executionResult, runError := executor.commandRunner.Run(executionContext, command)
	if runError != nil {
		executor.eventObserver.CommandExecutionFailed(command, runError)
		return ExecutionResult{}, CommandExecutionError{Command: command, Cause: runError}
	}

	executor.eventObserver.CommandCompleted(command, executionResult)
	if executionResult.ExitCode != 0 {
		return ExecutionResult{}, CommandFailedError{Command: command, Result: executionResult}
	}

	return executionResult, nil
}

// ExecuteGit runs git with interactive credential prompts disabled.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	gitDetails := details
	gitDetails.EnvironmentVariables = make(map[string]string, len(details.EnvironmentVariables)+1)
	for environmentKey, environmentValue := range details.EnvironmentVariables {
		gitDetails.EnvironmentVariables[environmentKey] = environmentValue
	}
	gitDetails.EnvironmentVariables[gitTerminalPromptEnvironmentKeyConstant] = gitTerminalPromptDisabledValueConstant

	return executor.Execute(executionContext, ShellCommand{Name: CommandGit, Details: gitDetails})
}

// ExecuteGitHubCLI runs the GitHub CLI.
func (executor *ShellExecutor) ExecuteGitHubCLI(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGitHub, Details: details})
}

func describeCommand(command ShellCommand) string {
	if len(command.Details.Arguments) == 0 {
		return string(command.Name)
	}
	return string(command.Name) + commandLabelSeparatorConstant + strings.Join(command.Details.Arguments, commandLabelSeparatorConstant)
}
