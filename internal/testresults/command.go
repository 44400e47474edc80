package testresults

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/nixpatch/internal/execshell"
	"github.com/temirov/nixpatch/internal/githubauth"
	"github.com/temirov/nixpatch/internal/githubcli"
	"github.com/temirov/nixpatch/internal/gitrepo"
	"github.com/temirov/nixpatch/internal/ui"
	pathutils "github.com/temirov/nixpatch/internal/utils/path"
)

const (
	commandUseConstant                           = "test-results"
	commandShortDescriptionConstant              = "Update the README test results section from a workflow run"
	commandLongDescriptionConstant               = "test-results reads the jobs of a GitHub Actions run and the head of the nixpkgs branch, summarizes the outcome per platform, renders the results template and replaces the marked section of the README."
	failureLabelConstant                         = "Update failed"
	normalizeRepositoryOperationTemplateConstant = "use repository %s"

	runIdentifierFlagNameConstant  = "run-id"
	runIdentifierFlagUsageConstant = "GitHub Actions run ID"
	runURLFlagNameConstant         = "run-url"
	runURLFlagUsageConstant        = "GitHub Actions run URL (generated from repo and run ID when omitted)"
	repositoryFlagNameConstant     = "repo"
	repositoryFlagUsageConstant    = "Repository in owner/name form"
	readmePathFlagNameConstant     = "readme-path"
	readmePathFlagUsageConstant    = "Path to README.md"
	templatePathFlagNameConstant   = "template-path"
	templatePathFlagUsageConstant  = "Path to the test results template"
	commitBranchFlagNameConstant   = "commit-branch"
	commitBranchFlagUsageConstant  = "Branch whose head is reported as the nixpkgs commit"
	verboseFlagNameConstant        = "verbose"
	verboseFlagShorthandConstant   = "v"
	verboseFlagUsageConstant       = "Enable verbose logging"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// TokenResolver returns the GitHub token the gh CLI should use.
type TokenResolver func() (string, error)

// JobSourceProvider builds the job source for a repository once the token is known.
type JobSourceProvider func(logger *zap.Logger, repository string, accessToken string) (JobSource, error)

// CommandBuilder assembles the test-results Cobra command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        func() CommandConfiguration
	HumanReadableLoggingProvider func() bool
	VerboseLoggingEnabler        func()
	TokenResolver                TokenResolver
	JobSourceProvider            JobSourceProvider
	GitHubExecutor               githubcli.GitHubCommandExecutor
	Clock                        Clock
	WorkingDirectory             string
	HomeExpander                 *pathutils.HomeExpander
}

// Build constructs the test-results command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.run,
	}

	defaults := DefaultCommandConfiguration()
	command.Flags().String(runIdentifierFlagNameConstant, "", runIdentifierFlagUsageConstant)
	command.Flags().String(runURLFlagNameConstant, "", runURLFlagUsageConstant)
	command.Flags().String(repositoryFlagNameConstant, defaults.Repository, repositoryFlagUsageConstant)
	command.Flags().String(readmePathFlagNameConstant, defaults.ReadmePath, readmePathFlagUsageConstant)
	command.Flags().String(templatePathFlagNameConstant, defaults.TemplatePath, templatePathFlagUsageConstant)
	command.Flags().String(commitBranchFlagNameConstant, defaults.CommitBranch, commitBranchFlagUsageConstant)
	command.Flags().BoolP(verboseFlagNameConstant, verboseFlagShorthandConstant, false, verboseFlagUsageConstant)
	if markError := command.MarkFlagRequired(runIdentifierFlagNameConstant); markError != nil {
		return nil, markError
	}

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	console := ui.NewConsole(command.OutOrStdout())

	accessToken, tokenError := builder.resolveToken()
	if tokenError != nil {
		console.Banner(ui.SymbolFailure, tokenError.Error())
		return ui.ReportedError{Cause: tokenError}
	}

	options, verbose := builder.parseOptions(command)
	if verbose && builder.VerboseLoggingEnabler != nil {
		builder.VerboseLoggingEnabler()
	}
	logger := builder.resolveLogger()

	repositoryIdentifier, normalizeError := gitrepo.NormalizeRepositoryIdentifier(options.Repository)
	if normalizeError != nil {
		accessError := RemoteAccessError{Operation: fmt.Sprintf(normalizeRepositoryOperationTemplateConstant, options.Repository), Cause: normalizeError}
		return console.ReportFailure(failureLabelConstant, accessError, true)
	}
	options.Repository = repositoryIdentifier

	jobSource, sourceError := builder.resolveJobSource(logger, repositoryIdentifier, accessToken)
	if sourceError != nil {
		return console.ReportFailure(failureLabelConstant, sourceError, false)
	}

	service, serviceError := NewService(ServiceDependencies{
		Logger:    logger,
		Console:   console,
		JobSource: jobSource,
		Clock:     builder.Clock,
	})
	if serviceError != nil {
		return console.ReportFailure(failureLabelConstant, serviceError, false)
	}

	runError := service.Run(command.Context(), options)
	return console.ReportFailure(failureLabelConstant, runError, IsUpdateFailure(runError))
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command) (Options, bool) {
	configuration := builder.resolveConfiguration()
	flags := command.Flags()

	stringOverride := func(flagName string, configuredValue string) string {
		if !flags.Changed(flagName) {
			return configuredValue
		}
		flagValue, _ := flags.GetString(flagName)
		return flagValue
	}

	runIdentifier, _ := flags.GetString(runIdentifierFlagNameConstant)
	runURL, _ := flags.GetString(runURLFlagNameConstant)
	verbose, _ := flags.GetBool(verboseFlagNameConstant)

	workingDirectory := builder.resolveWorkingDirectory()
	homeExpander := builder.HomeExpander
	if homeExpander == nil {
		homeExpander = pathutils.NewHomeExpander()
	}

	return Options{
		RunIdentifier: runIdentifier,
		RunURL:        runURL,
		Repository:    stringOverride(repositoryFlagNameConstant, configuration.Repository),
		ReadmePath:    homeExpander.ResolvePath(stringOverride(readmePathFlagNameConstant, configuration.ReadmePath), workingDirectory),
		TemplatePath:  homeExpander.ResolvePath(stringOverride(templatePathFlagNameConstant, configuration.TemplatePath), workingDirectory),
		CommitBranch:  stringOverride(commitBranchFlagNameConstant, configuration.CommitBranch),
	}, verbose
}

func (builder *CommandBuilder) resolveToken() (string, error) {
	if builder.TokenResolver != nil {
		return builder.TokenResolver()
	}
	return githubauth.RequireToken(nil)
}

func (builder *CommandBuilder) resolveJobSource(logger *zap.Logger, repository string, accessToken string) (JobSource, error) {
	if builder.JobSourceProvider != nil {
		return builder.JobSourceProvider(logger, repository, accessToken)
	}

	executor := builder.GitHubExecutor
	if executor == nil {
		humanReadableLogging := false
		if builder.HumanReadableLoggingProvider != nil {
			humanReadableLogging = builder.HumanReadableLoggingProvider()
		}
		shellExecutor, creationError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner(), humanReadableLogging)
		if creationError != nil {
			return nil, creationError
		}
		executor = shellExecutor
	}

	client, clientError := githubcli.NewClient(executor, accessToken)
	if clientError != nil {
		return nil, clientError
	}
	return NewGitHubJobSource(client, repository), nil
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	var logger *zap.Logger
	if builder.LoggerProvider != nil {
		logger = builder.LoggerProvider()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveWorkingDirectory() string {
	if len(builder.WorkingDirectory) > 0 {
		return builder.WorkingDirectory
	}
	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		return ""
	}
	return workingDirectory
}
