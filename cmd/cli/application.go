package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/carlmjohnson/versioninfo"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/nixpatch/internal/patcher"
	"github.com/temirov/nixpatch/internal/testresults"
	"github.com/temirov/nixpatch/internal/ui"
	"github.com/temirov/nixpatch/internal/utils"
)

const (
	applicationNameConstant                 = "nixpatch"
	applicationShortDescriptionConstant     = "Maintain a patched nixpkgs branch and report its test results"
	applicationLongDescriptionConstant      = "nixpatch regenerates a branch from upstream nixpkgs with a queue of local patches and publishes the outcome of the test workflow into the README."
	patcherApplicationNameConstant          = "patcher"
	testSummaryApplicationNameConstant      = "test-summary"
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format (structured or console)."
	versionFlagNameConstant                 = "version"
	versionFlagUsageConstant                = "Print the version and exit."
	versionFlagArgumentConstant             = "--" + versionFlagNameConstant
	argumentTerminatorConstant              = "--"
	versionOutputTemplateConstant           = "%s version: %s\n"
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	environmentPrefixConstant               = "NIXPATCH"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	executionIdentifierFieldConstant        = "execution_id"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	commandBuildErrorTemplateConstant       = "unable to build %s command: %w"
	rootCommandInfoMessageConstant          = "nixpatch CLI executed"
	rootCommandDebugMessageConstant         = "nixpatch CLI diagnostics"
	logFieldCommandNameConstant             = "command_name"
	logFieldArgumentCountConstant           = "argument_count"
	logFieldArgumentsConstant               = "arguments"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	defaultConfigurationSearchPathConstant  = "."
	exitErrorTemplateConstant               = "%v\n"
	exitCodeFailureConstant                 = 1
	exitCodeSuccessConstant                 = 0
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Tools  ApplicationToolsConfiguration  `mapstructure:"tools"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// ApplicationToolsConfiguration holds configuration for each command.
type ApplicationToolsConfiguration struct {
	Patcher     patcher.CommandConfiguration     `mapstructure:"patcher"`
	TestResults testresults.CommandConfiguration `mapstructure:"test_results"`
}

// VersionResolver returns the version string printed by --version.
type VersionResolver func(executionContext context.Context) string

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	loggerOutputs          utils.LoggerOutputs
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	versionFlagValue       bool
	commandContextAccessor utils.CommandContextAccessor
	versionResolver        VersionResolver
	exitFunction           func(int)
	workingDirectory       string
}

// NewApplication assembles the nixpatch application with the patch and test-results subcommands.
func NewApplication() *Application {
	application := newApplicationBase()

	rootCommand := &cobra.Command{
		Use:   applicationNameConstant,
		Short: applicationShortDescriptionConstant,
		Long:  applicationLongDescriptionConstant,
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	patchCommand, patchBuildError := application.patchCommandBuilder().Build()
	if patchBuildError == nil {
		rootCommand.AddCommand(patchCommand)
	}

	testResultsCommand, testResultsBuildError := application.testResultsCommandBuilder().Build()
	if testResultsBuildError == nil {
		rootCommand.AddCommand(testResultsCommand)
	}

	application.attachRootCommand(rootCommand)
	return application
}

// NewPatcherApplication assembles the standalone patcher binary whose root is the patch command.
func NewPatcherApplication() *Application {
	application := newApplicationBase()
	patchCommand, buildError := application.patchCommandBuilder().Build()
	application.attachRootCommand(standaloneRootCommand(patcherApplicationNameConstant, patchCommand, buildError))
	return application
}

// NewTestSummaryApplication assembles the standalone test-summary binary whose root is the test-results command.
func NewTestSummaryApplication() *Application {
	application := newApplicationBase()
	testResultsCommand, buildError := application.testResultsCommandBuilder().Build()
	application.attachRootCommand(standaloneRootCommand(testSummaryApplicationNameConstant, testResultsCommand, buildError))
	return application
}

func newApplicationBase() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant},
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
		versionResolver: func(context.Context) string {
			return versioninfo.Short()
		},
		exitFunction: os.Exit,
	}
	if workingDirectory, workingDirectoryError := os.Getwd(); workingDirectoryError == nil {
		application.workingDirectory = workingDirectory
	}
	return application
}

func standaloneRootCommand(name string, command *cobra.Command, buildError error) *cobra.Command {
	if buildError != nil {
		return &cobra.Command{
			Use:           name,
			SilenceUsage:  true,
			SilenceErrors: true,
			RunE: func(*cobra.Command, []string) error {
				return fmt.Errorf(commandBuildErrorTemplateConstant, name, buildError)
			},
		}
	}
	command.Use = name
	return command
}

func (application *Application) attachRootCommand(rootCommand *cobra.Command) {
	rootCommand.SilenceUsage = true
	rootCommand.SilenceErrors = true
	rootCommand.PersistentPreRunE = func(command *cobra.Command, arguments []string) error {
		return application.initializeConfiguration(command)
	}

	rootCommand.SetContext(context.Background())
	rootCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	rootCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	rootCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)
	rootCommand.PersistentFlags().BoolVar(&application.versionFlagValue, versionFlagNameConstant, false, versionFlagUsageConstant)

	application.rootCommand = rootCommand
}

func (application *Application) patchCommandBuilder() *patcher.CommandBuilder {
	return &patcher.CommandBuilder{
		LoggerProvider: application.commandLogger,
		ConfigurationProvider: func() patcher.CommandConfiguration {
			return application.configuration.Tools.Patcher
		},
		HumanReadableLoggingProvider: application.humanReadableLoggingEnabled,
		VerboseLoggingEnabler:        application.enableVerboseLogging,
		WorkingDirectory:             application.workingDirectory,
	}
}

func (application *Application) testResultsCommandBuilder() *testresults.CommandBuilder {
	return &testresults.CommandBuilder{
		LoggerProvider: application.commandLogger,
		ConfigurationProvider: func() testresults.CommandConfiguration {
			return application.configuration.Tools.TestResults
		},
		HumanReadableLoggingProvider: application.humanReadableLoggingEnabled,
		VerboseLoggingEnabler:        application.enableVerboseLogging,
		WorkingDirectory:             application.workingDirectory,
	}
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
// A --version argument prints the version and exits before any command runs.
func (application *Application) Execute() error {
	if versionRequested(os.Args[1:]) {
		application.printVersion()
		application.exitFunction(exitCodeSuccessConstant)
		return nil
	}

	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds the nixpatch application and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

// ExitCode converts the result of Execute into a process exit code. Failures the
// commands already reported are not printed again.
func ExitCode(executionError error, errorOutput io.Writer) int {
	if executionError == nil {
		return exitCodeSuccessConstant
	}
	var reportedError ui.ReportedError
	if !errors.As(executionError, &reportedError) && errorOutput != nil {
		fmt.Fprintf(errorOutput, exitErrorTemplateConstant, executionError)
	}
	return exitCodeFailureConstant
}

func versionRequested(arguments []string) bool {
	for _, argument := range arguments {
		if argument == argumentTerminatorConstant {
			return false
		}
		if argument == versionFlagArgumentConstant {
			return true
		}
	}
	return false
}

func (application *Application) printVersion() {
	executionContext := application.rootCommand.Context()
	if executionContext == nil {
		executionContext = context.Background()
	}
	fmt.Fprintf(application.rootCommand.OutOrStdout(), versionOutputTemplateConstant, application.rootCommand.Name(), application.versionResolver(executionContext))
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatStructured),
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	loggerOutputs, loggerCreationError := application.loggerFactory.CreateLoggerOutputs(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	executionIdentifier := uuid.NewString()
	application.loggerOutputs = loggerOutputs
	application.logger = loggerOutputs.DiagnosticLogger.With(zap.String(executionIdentifierFieldConstant, executionIdentifier))

	application.logger.Info(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	if command != nil {
		updatedContext := application.commandContextAccessor.WithConfigurationFilePath(
			command.Context(),
			application.configurationMetadata.ConfigFileUsed,
		)
		updatedContext = application.commandContextAccessor.WithExecutionIdentifier(updatedContext, executionIdentifier)
		command.SetContext(updatedContext)
		if rootCommand := command.Root(); rootCommand != nil {
			rootCommand.SetContext(updatedContext)
		}
	}

	return nil
}

// commandLogger is the logger handed to commands: message-only console output when the
// console format is selected, the diagnostic logger otherwise.
func (application *Application) commandLogger() *zap.Logger {
	if application.humanReadableLoggingEnabled() && application.loggerOutputs.ConsoleLogger != nil {
		return application.loggerOutputs.ConsoleLogger
	}
	return application.logger
}

func (application *Application) enableVerboseLogging() {
	if application.loggerOutputs.DiagnosticLogger == nil {
		return
	}
	application.loggerOutputs.Level.SetLevel(zap.DebugLevel)
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.configuration.Common.LogFormat)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	application.logger.Info(
		rootCommandInfoMessageConstant,
		zap.String(logFieldCommandNameConstant, command.Name()),
		zap.Int(logFieldArgumentCountConstant, len(arguments)),
	)

	application.logger.Debug(
		rootCommandDebugMessageConstant,
		zap.Strings(logFieldArgumentsConstant, arguments),
	)

	return command.Help()
}

func (application *Application) flushLogger() error {
	for _, logger := range []*zap.Logger{application.logger, application.loggerOutputs.ConsoleLogger} {
		if syncError := syncLoggerInstance(logger); syncError != nil {
			return syncError
		}
	}
	return nil
}

func syncLoggerInstance(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}

	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
