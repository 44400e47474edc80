package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
	flagPrefixConstant                      = "-"
)

const (
	gitConfigSubcommandNameConstant        = "config"
	gitRemoteSubcommandNameConstant        = "remote"
	gitRemoteAddSubcommandConstant         = "add"
	gitRemoteSetURLSubcommandConstant      = "set-url"
	gitFetchSubcommandNameConstant         = "fetch"
	gitCheckoutSubcommandNameConstant      = "checkout"
	gitDetachFlagConstant                  = "--detach"
	gitCreateBranchFlagConstant            = "-b"
	gitBranchSubcommandNameConstant        = "branch"
	gitAddSubcommandNameConstant           = "add"
	gitCommitSubcommandNameConstant        = "commit"
	gitMessageFlagConstant                 = "-m"
	gitAmSubcommandNameConstant            = "am"
	gitPushSubcommandNameConstant          = "push"
	gitFetchAllRemotesLabelConstant        = "all remotes"
	githubAPICommandNameConstant           = "api"
	githubJobsEndpointSuffixConstant       = "/jobs"
	githubGitRefEndpointMarkerConstant     = "/git/ref/"
	githubRepositoryEndpointPrefixConstant = "repos/"
	githubEndpointSeparatorConstant        = "/"
	githubRunsEndpointMarkerConstant       = "/actions/runs/"
	githubQuerySeparatorConstant           = "?"
)

type stageTemplates struct {
	start            string
	success          string
	failure          string
	executionFailure string
}

var (
	gitConfigTemplates = stageTemplates{
		start:            "Setting %s to %q in %s",
		success:          "Set %s to %q in %s",
		failure:          "Failed to set %s to %q in %s (exit code %d%s)",
		executionFailure: "Unable to set %s to %q in %s: %s",
	}
	gitRemoteAddTemplates = stageTemplates{
		start:            "Adding %s remote pointing to %s in %s",
		success:          "Added %s remote pointing to %s in %s",
		failure:          "Failed to add %s remote pointing to %s in %s (exit code %d%s)",
		executionFailure: "Unable to add %s remote pointing to %s in %s: %s",
	}
	gitRemoteUpdateTemplates = stageTemplates{
		start:            "Updating %s remote to %s in %s",
		success:          "%s remote now points to %s in %s",
		failure:          "Failed to update %s remote to %s in %s (exit code %d%s)",
		executionFailure: "Unable to update %s remote to %s in %s: %s",
	}
	gitFetchTemplates = stageTemplates{
		start:            "Fetching from %s in %s",
		success:          "Fetched from %s in %s",
		failure:          "Failed to fetch from %s in %s (exit code %d%s)",
		executionFailure: "Unable to fetch from %s in %s: %s",
	}
	gitDetachTemplates = stageTemplates{
		start:            "Detaching %s at %s",
		success:          "%s detached at %s",
		failure:          "Failed to detach %s at %s (exit code %d%s)",
		executionFailure: "Unable to detach %s at %s: %s",
	}
	gitCheckoutNewBranchTemplates = stageTemplates{
		start:            "Creating branch %s from %s in %s",
		success:          "Created and checked out branch %s from %s in %s",
		failure:          "Failed to create branch %s from %s in %s (exit code %d%s)",
		executionFailure: "Unable to create branch %s from %s in %s: %s",
	}
	gitCheckoutTemplates = stageTemplates{
		start:            "Switching %s to %s",
		success:          "%s now on %s",
		failure:          "Failed to switch %s to %s (exit code %d%s)",
		executionFailure: "Unable to switch %s to %s: %s",
	}
	gitBranchDeletionTemplates = stageTemplates{
		start:            "Force removing local branch %s in %s",
		success:          "Removed local branch %s in %s",
		failure:          "Failed to remove local branch %s in %s (exit code %d%s)",
		executionFailure: "Unable to remove local branch %s in %s: %s",
	}
	gitAddTemplates = stageTemplates{
		start:            "Staging %s in %s",
		success:          "Staged %s in %s",
		failure:          "Failed to stage %s in %s (exit code %d%s)",
		executionFailure: "Unable to stage %s in %s: %s",
	}
	gitCommitTemplates = stageTemplates{
		start:            "Creating commit in %s with message %q",
		success:          "Created commit in %s with message %q",
		failure:          "Failed to create commit in %s with message %q (exit code %d%s)",
		executionFailure: "Unable to create commit in %s with message %q: %s",
	}
	gitAmTemplates = stageTemplates{
		start:            "Applying %s in %s",
		success:          "Applied %s in %s",
		failure:          "Failed to apply %s in %s (exit code %d%s)",
		executionFailure: "Unable to apply %s in %s: %s",
	}
	gitPushTemplates = stageTemplates{
		start:            "Pushing %s to %s from %s",
		success:          "Pushed %s to %s from %s",
		failure:          "Failed to push %s to %s from %s (exit code %d%s)",
		executionFailure: "Unable to push %s to %s from %s: %s",
	}
	githubRunJobsTemplates = stageTemplates{
		start:            "Listing jobs of workflow run %s in %s",
		success:          "Listed jobs of workflow run %s in %s",
		failure:          "Failed to list jobs of workflow run %s in %s (exit code %d%s)",
		executionFailure: "Unable to list jobs of workflow run %s in %s: %s",
	}
	githubGitRefTemplates = stageTemplates{
		start:            "Resolving %s in %s",
		success:          "Resolved %s in %s",
		failure:          "Failed to resolve %s in %s (exit code %d%s)",
		executionFailure: "Unable to resolve %s in %s: %s",
	}
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	switch command.Name {
	case CommandGit:
		return formatter.describeGitMessage(command, result, failure, stage)
	case CommandGitHub:
		return formatter.describeGitHubMessage(command, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	workingDirectory := formatter.describeWorkingDirectory(command)
	positionalArguments := extractPositionalArguments(arguments[1:])

	switch strings.TrimSpace(arguments[0]) {
	case gitConfigSubcommandNameConstant:
		return formatter.renderStage(gitConfigTemplates, stage, result, failure, formatter.positionalAt(positionalArguments, 0), formatter.positionalAt(positionalArguments, 1), workingDirectory)
	case gitRemoteSubcommandNameConstant:
		return formatter.describeGitRemoteMessage(command, positionalArguments, result, failure, stage)
	case gitFetchSubcommandNameConstant:
		remoteName := formatter.positionalAt(positionalArguments, 0)
		if len(positionalArguments) == 0 {
			remoteName = gitFetchAllRemotesLabelConstant
		}
		return formatter.renderStage(gitFetchTemplates, stage, result, failure, remoteName, workingDirectory)
	case gitCheckoutSubcommandNameConstant:
		return formatter.describeGitCheckoutMessage(command, positionalArguments, result, failure, stage)
	case gitBranchSubcommandNameConstant:
		return formatter.renderStage(gitBranchDeletionTemplates, stage, result, failure, formatter.positionalAt(positionalArguments, 0), workingDirectory)
	case gitAddSubcommandNameConstant:
		targetLabel := strings.Join(arguments[1:], commandArgumentsJoinSeparatorConstant)
		return formatter.renderStage(gitAddTemplates, stage, result, failure, formatter.ensureValue(targetLabel), workingDirectory)
	case gitCommitSubcommandNameConstant:
		return formatter.renderStage(gitCommitTemplates, stage, result, failure, workingDirectory, findFlagValue(arguments, gitMessageFlagConstant))
	case gitAmSubcommandNameConstant:
		return formatter.renderStage(gitAmTemplates, stage, result, failure, formatter.positionalAt(positionalArguments, 0), workingDirectory)
	case gitPushSubcommandNameConstant:
		return formatter.renderStage(gitPushTemplates, stage, result, failure, formatter.positionalAt(positionalArguments, 1), formatter.positionalAt(positionalArguments, 0), workingDirectory)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitRemoteMessage(command ShellCommand, positionalArguments []string, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	remoteName := formatter.positionalAt(positionalArguments, 1)
	remoteURL := formatter.positionalAt(positionalArguments, 2)

	switch formatter.positionalAt(positionalArguments, 0) {
	case gitRemoteAddSubcommandConstant:
		return formatter.renderStage(gitRemoteAddTemplates, stage, result, failure, remoteName, remoteURL, workingDirectory)
	case gitRemoteSetURLSubcommandConstant:
		return formatter.renderStage(gitRemoteUpdateTemplates, stage, result, failure, remoteName, remoteURL, workingDirectory)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitCheckoutMessage(command ShellCommand, positionalArguments []string, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	workingDirectory := formatter.describeWorkingDirectory(command)

	switch {
	case containsArgument(arguments, gitDetachFlagConstant):
		return formatter.renderStage(gitDetachTemplates, stage, result, failure, workingDirectory, formatter.positionalAt(positionalArguments, 0))
	case containsArgument(arguments, gitCreateBranchFlagConstant):
		branchName := findFlagValue(arguments, gitCreateBranchFlagConstant)
		startPoint := formatter.ensureValue(emptyStringConstant)
		for _, positionalArgument := range positionalArguments {
			if positionalArgument != branchName {
				startPoint = positionalArgument
			}
		}
		return formatter.renderStage(gitCheckoutNewBranchTemplates, stage, result, failure, formatter.ensureValue(branchName), startPoint, workingDirectory)
	default:
		return formatter.renderStage(gitCheckoutTemplates, stage, result, failure, workingDirectory, formatter.positionalAt(positionalArguments, 0))
	}
}

func (formatter CommandMessageFormatter) describeGitHubMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) < 2 || strings.TrimSpace(arguments[0]) != githubAPICommandNameConstant {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	endpoint := strings.TrimSpace(arguments[1])
	if queryIndex := strings.Index(endpoint, githubQuerySeparatorConstant); queryIndex >= 0 {
		endpoint = endpoint[:queryIndex]
	}
	repository := formatter.extractRepositoryFromEndpoint(endpoint)

	switch {
	case strings.Contains(endpoint, githubRunsEndpointMarkerConstant) && strings.HasSuffix(endpoint, githubJobsEndpointSuffixConstant):
		runIdentifier := strings.TrimSuffix(endpoint[strings.Index(endpoint, githubRunsEndpointMarkerConstant)+len(githubRunsEndpointMarkerConstant):], githubJobsEndpointSuffixConstant)
		return formatter.renderStage(githubRunJobsTemplates, stage, result, failure, formatter.ensureValue(runIdentifier), repository)
	case strings.Contains(endpoint, githubGitRefEndpointMarkerConstant):
		reference := endpoint[strings.Index(endpoint, githubGitRefEndpointMarkerConstant)+len(githubGitRefEndpointMarkerConstant):]
		return formatter.renderStage(githubGitRefTemplates, stage, result, failure, formatter.ensureValue(reference), repository)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

// renderStage selects the template for the stage and appends the exit code or failure description.
func (formatter CommandMessageFormatter) renderStage(templates stageTemplates, stage messageStage, result ExecutionResult, failure error, subjectValues ...any) string {
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates.start, subjectValues...)
	case messageStageSuccess:
		return fmt.Sprintf(templates.success, subjectValues...)
	case messageStageFailure:
		return fmt.Sprintf(templates.failure, append(subjectValues, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))...)
	case messageStageExecutionFailure:
		return fmt.Sprintf(templates.executionFailure, append(subjectValues, formatter.describeFailure(failure))...)
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := describeCommand(command) + formatter.formatWorkingDirectorySuffix(command)
	return formatter.renderStage(stageTemplates{
		start:            genericStartTemplateConstant,
		success:          genericSuccessTemplateConstant,
		failure:          genericFailureTemplateConstant,
		executionFailure: genericExecutionFailureTemplateConstant,
	}, stage, result, failure, commandLabel)
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) positionalAt(positionalArguments []string, index int) string {
	if index >= 0 && index < len(positionalArguments) {
		return formatter.ensureValue(positionalArguments[index])
	}
	return fallbackUnknownValueLabelConstant
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmed
}

func (formatter CommandMessageFormatter) extractRepositoryFromEndpoint(endpoint string) string {
	trimmed := strings.TrimPrefix(strings.TrimSpace(endpoint), githubRepositoryEndpointPrefixConstant)
	segments := strings.Split(trimmed, githubEndpointSeparatorConstant)
	if len(segments) < 2 {
		return fallbackUnknownValueLabelConstant
	}
	return segments[0] + githubEndpointSeparatorConstant + segments[1]
}

// extractPositionalArguments drops flags; the value of -m is dropped with it.
func extractPositionalArguments(arguments []string) []string {
	positionalArguments := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		trimmed := strings.TrimSpace(arguments[index])
		if len(trimmed) == 0 {
			continue
		}
		if trimmed == gitMessageFlagConstant {
			index++
			continue
		}
		if strings.HasPrefix(trimmed, flagPrefixConstant) {
			continue
		}
		positionalArguments = append(positionalArguments, trimmed)
	}
	return positionalArguments
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}

func findFlagValue(arguments []string, flag string) string {
	for index := 0; index < len(arguments); index++ {
		if strings.TrimSpace(arguments[index]) == flag && index+1 < len(arguments) {
			return strings.TrimSpace(arguments[index+1])
		}
	}
	return emptyStringConstant
}
