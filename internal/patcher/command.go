package patcher

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/nixpatch/internal/execshell"
	"github.com/temirov/nixpatch/internal/gitrepo"
	"github.com/temirov/nixpatch/internal/ui"
	pathutils "github.com/temirov/nixpatch/internal/utils/path"
)

const (
	commandUseConstant              = "patch"
	commandShortDescriptionConstant = "Regenerate the target branch from upstream and apply patches"
	commandLongDescriptionConstant  = "patch fetches the upstream nixpkgs remote, recreates the target branch at the upstream ref, removes the .github directory, applies every *.patch file in name order with git am and force-pushes the branch to origin."
	failureLabelConstant            = "Workflow failed"

	upstreamRefFlagNameConstant   = "upstream-ref"
	upstreamRefFlagUsageConstant  = "Upstream nixpkgs ref to sync from"
	targetBranchFlagNameConstant  = "target-branch"
	targetBranchFlagUsageConstant = "Target branch to create/update"
	remoteNameFlagNameConstant    = "remote-name"
	remoteNameFlagUsageConstant   = "Name for the upstream remote"
	remoteURLFlagNameConstant     = "remote-url"
	remoteURLFlagUsageConstant    = "URL for the upstream remote"
	patchDirFlagNameConstant      = "patch-dir"
	patchDirFlagUsageConstant     = "Directory containing patch files"
	noRefetchFlagNameConstant     = "no-refetch"
	noRefetchFlagUsageConstant    = "Skip fetching from upstream remote"
	gitUserNameFlagNameConstant   = "git-user-name"
	gitUserNameFlagUsageConstant  = "Git user name for commits"
	gitUserEmailFlagNameConstant  = "git-user-email"
	gitUserEmailFlagUsageConstant = "Git user email for commits"
	noPushFlagNameConstant        = "no-push"
	noPushFlagUsageConstant       = "Don't push the branch to origin"
	repoPathFlagNameConstant      = "repo-path"
	repoPathFlagUsageConstant     = "Path to git repository"
	applyModeFlagNameConstant     = "apply-mode"
	applyModeFlagUsageConstant    = "How git am handles conflicts: reject or 3way"
	verboseFlagNameConstant       = "verbose"
	verboseFlagShorthandConstant  = "v"
	verboseFlagUsageConstant      = "Enable verbose logging"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the patch Cobra command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        func() CommandConfiguration
	HumanReadableLoggingProvider func() bool
	VerboseLoggingEnabler        func()
	GitExecutor                  gitrepo.GitExecutor
	InspectorOpener              InspectorOpener
	WorkingDirectory             string
	HomeExpander                 *pathutils.HomeExpander
}

// Build constructs the patch command.
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
	command.Flags().String(upstreamRefFlagNameConstant, defaults.UpstreamRef, upstreamRefFlagUsageConstant)
	command.Flags().String(targetBranchFlagNameConstant, defaults.TargetBranch, targetBranchFlagUsageConstant)
	command.Flags().String(remoteNameFlagNameConstant, defaults.RemoteName, remoteNameFlagUsageConstant)
	command.Flags().String(remoteURLFlagNameConstant, defaults.RemoteURL, remoteURLFlagUsageConstant)
	command.Flags().String(patchDirFlagNameConstant, defaults.PatchDirectory, patchDirFlagUsageConstant)
	command.Flags().Bool(noRefetchFlagNameConstant, false, noRefetchFlagUsageConstant)
	command.Flags().String(gitUserNameFlagNameConstant, defaults.GitUserName, gitUserNameFlagUsageConstant)
	command.Flags().String(gitUserEmailFlagNameConstant, defaults.GitUserEmail, gitUserEmailFlagUsageConstant)
	command.Flags().Bool(noPushFlagNameConstant, false, noPushFlagUsageConstant)
	command.Flags().String(repoPathFlagNameConstant, defaults.RepositoryPath, repoPathFlagUsageConstant)
	command.Flags().String(applyModeFlagNameConstant, string(defaults.ApplyMode), applyModeFlagUsageConstant)
	command.Flags().BoolP(verboseFlagNameConstant, verboseFlagShorthandConstant, false, verboseFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	console := ui.NewConsole(command.OutOrStdout())

	options, verbose := builder.parseOptions(command)
	if verbose && builder.VerboseLoggingEnabler != nil {
		builder.VerboseLoggingEnabler()
	}

	logger := builder.resolveLogger()

	executor, executorError := builder.resolveExecutor(logger)
	if executorError != nil {
		return console.ReportFailure(failureLabelConstant, executorError, false)
	}

	service, serviceError := NewService(ServiceDependencies{
		Logger:          logger,
		Console:         console,
		GitExecutor:     executor,
		InspectorOpener: builder.InspectorOpener,
	})
	if serviceError != nil {
		return console.ReportFailure(failureLabelConstant, serviceError, false)
	}

	runError := service.Run(command.Context(), options)
	return console.ReportFailure(failureLabelConstant, runError, IsWorkflowFailure(runError))
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

	refetch := configuration.Refetch
	if flags.Changed(noRefetchFlagNameConstant) {
		noRefetch, _ := flags.GetBool(noRefetchFlagNameConstant)
		refetch = !noRefetch
	}
	push := configuration.Push
	if flags.Changed(noPushFlagNameConstant) {
		noPush, _ := flags.GetBool(noPushFlagNameConstant)
		push = !noPush
	}
	verbose, _ := flags.GetBool(verboseFlagNameConstant)

	workingDirectory := builder.resolveWorkingDirectory()
	homeExpander := builder.HomeExpander
	if homeExpander == nil {
		homeExpander = pathutils.NewHomeExpander()
	}

	return Options{
		RepositoryPath: homeExpander.ResolvePath(stringOverride(repoPathFlagNameConstant, configuration.RepositoryPath), workingDirectory),
		PatchDirectory: homeExpander.ResolvePath(stringOverride(patchDirFlagNameConstant, configuration.PatchDirectory), workingDirectory),
		UpstreamRef:    stringOverride(upstreamRefFlagNameConstant, configuration.UpstreamRef),
		TargetBranch:   stringOverride(targetBranchFlagNameConstant, configuration.TargetBranch),
		RemoteName:     stringOverride(remoteNameFlagNameConstant, configuration.RemoteName),
		RemoteURL:      stringOverride(remoteURLFlagNameConstant, configuration.RemoteURL),
		GitUserName:    stringOverride(gitUserNameFlagNameConstant, configuration.GitUserName),
		GitUserEmail:   stringOverride(gitUserEmailFlagNameConstant, configuration.GitUserEmail),
		Refetch:        refetch,
		Push:           push,
		ApplyMode:      gitrepo.ApplyMode(stringOverride(applyModeFlagNameConstant, string(configuration.ApplyMode))),
	}, verbose
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

func (builder *CommandBuilder) resolveExecutor(logger *zap.Logger) (gitrepo.GitExecutor, error) {
	if builder.GitExecutor != nil {
		return builder.GitExecutor, nil
	}

	humanReadableLogging := false
	if builder.HumanReadableLoggingProvider != nil {
		humanReadableLogging = builder.HumanReadableLoggingProvider()
	}
	shellExecutor, creationError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner(), humanReadableLogging)
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
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
