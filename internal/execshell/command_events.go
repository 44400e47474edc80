package execshell

import (
	"strings"

	"go.uber.org/zap"
)

const (
	commandStartedMessageConstant         = "command started"
	commandCompletedMessageConstant       = "command completed"
	commandFailedMessageConstant          = "command failed"
	commandExecutionFailedMessageConstant = "command execution failed"
	logFieldCommandNameConstant           = "command"
	logFieldCommandArgumentsConstant      = "arguments"
	logFieldWorkingDirectoryConstant      = "working_directory"
	logFieldExitCodeConstant              = "exit_code"
	logFieldStandardErrorConstant         = "stderr"
)

// CommandEventObserver receives lifecycle notifications for shell command execution.
type CommandEventObserver interface {
	// CommandStarted notifies observers that command execution is beginning.
	CommandStarted(command ShellCommand)
	// CommandCompleted notifies observers that command execution finished and supplies the result.
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandExecutionFailed reports unexpected failures prior to receiving an execution result.
	CommandExecutionFailed(command ShellCommand, failure error)
}

type structuredCommandEventObserver struct {
	logger *zap.Logger
}

func newStructuredCommandEventObserver(logger *zap.Logger) structuredCommandEventObserver {
	return structuredCommandEventObserver{logger: logger}
}

func (eventObserver structuredCommandEventObserver) CommandStarted(command ShellCommand) {
	eventObserver.logger.Debug(commandStartedMessageConstant, commandFields(command)...)
}

func (eventObserver structuredCommandEventObserver) CommandCompleted(command ShellCommand, result ExecutionResult) {
	fields := append(commandFields(command), zap.Int(logFieldExitCodeConstant, result.ExitCode))
	if result.ExitCode != 0 {
		fields = append(fields, zap.String(logFieldStandardErrorConstant, strings.TrimSpace(result.StandardError)))
		eventObserver.logger.Warn(commandFailedMessageConstant, fields...)
		return
	}
	eventObserver.logger.Debug(commandCompletedMessageConstant, fields...)
}

func (eventObserver structuredCommandEventObserver) CommandExecutionFailed(command ShellCommand, failure error) {
	eventObserver.logger.Error(commandExecutionFailedMessageConstant, append(commandFields(command), zap.Error(failure))...)
}

type humanReadableCommandEventObserver struct {
	logger    *zap.Logger
	formatter CommandMessageFormatter
}

func newHumanReadableCommandEventObserver(logger *zap.Logger) humanReadableCommandEventObserver {
	return humanReadableCommandEventObserver{logger: logger, formatter: CommandMessageFormatter{}}
}

func (eventObserver humanReadableCommandEventObserver) CommandStarted(command ShellCommand) {
	eventObserver.logger.Info(eventObserver.formatter.BuildStartedMessage(command))
}

func (eventObserver humanReadableCommandEventObserver) CommandCompleted(command ShellCommand, result ExecutionResult) {
	if result.ExitCode != 0 {
		eventObserver.logger.Warn(eventObserver.formatter.BuildFailureMessage(command, result))
		return
	}
	eventObserver.logger.Info(eventObserver.formatter.BuildSuccessMessage(command))
}

func (eventObserver humanReadableCommandEventObserver) CommandExecutionFailed(command ShellCommand, failure error) {
	eventObserver.logger.Error(eventObserver.formatter.BuildExecutionFailureMessage(command, failure))
}

func commandFields(command ShellCommand) []zap.Field {
	return []zap.Field{
		zap.String(logFieldCommandNameConstant, string(command.Name)),
		zap.Strings(logFieldCommandArgumentsConstant, command.Details.Arguments),
		zap.String(logFieldWorkingDirectoryConstant, command.Details.WorkingDirectory),
	}
}
