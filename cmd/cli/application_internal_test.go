package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/nixpatch/internal/gitrepo"
	"github.com/temirov/nixpatch/internal/patcher"
	"github.com/temirov/nixpatch/internal/testresults"
)

func TestApplicationRegistersCommands(t *testing.T) {
	testCases := []struct {
		name                string
		application         *Application
		expectedRootName    string
		expectedSubcommands []string
		expectedLocalFlag   string
	}{
		{
			name:                "nixpatch",
			application:         NewApplication(),
			expectedRootName:    "nixpatch",
			expectedSubcommands: []string{"patch", "test-results"},
		},
		{
			name:              "patcher",
			application:       NewPatcherApplication(),
			expectedRootName:  "patcher",
			expectedLocalFlag: "upstream-ref",
		},
		{
			name:              "test_summary",
			application:       NewTestSummaryApplication(),
			expectedRootName:  "test-summary",
			expectedLocalFlag: "run-id",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			rootCommand := testCase.application.rootCommand
			require.Equal(t, testCase.expectedRootName, rootCommand.Name())

			subcommandNames := []string{}
			for _, subcommand := range rootCommand.Commands() {
				subcommandNames = append(subcommandNames, subcommand.Name())
			}
			if len(testCase.expectedSubcommands) > 0 {
				require.Subset(t, subcommandNames, testCase.expectedSubcommands)
			}
			if len(testCase.expectedLocalFlag) > 0 {
				require.NotNil(t, rootCommand.Flags().Lookup(testCase.expectedLocalFlag))
			}

			for _, persistentFlag := range []string{configFileFlagNameConstant, logLevelFlagNameConstant, logFormatFlagNameConstant, versionFlagNameConstant} {
				require.NotNil(t, rootCommand.PersistentFlags().Lookup(persistentFlag), persistentFlag)
			}
		})
	}
}

func TestInitializeConfigurationUsesEmbeddedDefaults(t *testing.T) {
	application := NewApplication()
	rootCommand := application.rootCommand

	require.NoError(t, application.initializeConfiguration(rootCommand))

	require.Equal(t, patcher.DefaultCommandConfiguration(), application.configuration.Tools.Patcher)
	require.Equal(t, testresults.DefaultCommandConfiguration(), application.configuration.Tools.TestResults)
	require.Equal(t, "info", application.configuration.Common.LogLevel)

	executionIdentifier, executionIdentifierAvailable := application.commandContextAccessor.ExecutionIdentifier(rootCommand.Context())
	require.True(t, executionIdentifierAvailable)
	_, parseError := uuid.Parse(executionIdentifier)
	require.NoError(t, parseError)
}

func TestInitializeConfigurationAppliesFileEnvironmentAndFlags(t *testing.T) {
	configurationPath := filepath.Join(t.TempDir(), "config.yaml")
	configurationContent := "tools:\n  patcher:\n    target_branch: bump-stable\n    apply_mode: 3way\n    push: false\n  test_results:\n    repo: example/file\n"
	require.NoError(t, os.WriteFile(configurationPath, []byte(configurationContent), 0o644))
	t.Setenv("NIXPATCH_TOOLS_TEST_RESULTS_COMMIT_BRANCH", "rolling-env")

	application := NewApplication()
	rootCommand := application.rootCommand
	require.NoError(t, rootCommand.PersistentFlags().Set(configFileFlagNameConstant, configurationPath))
	require.NoError(t, rootCommand.PersistentFlags().Set(logFormatFlagNameConstant, "console"))

	require.NoError(t, application.initializeConfiguration(rootCommand))

	patcherConfiguration := application.configuration.Tools.Patcher
	require.Equal(t, "bump-stable", patcherConfiguration.TargetBranch)
	require.Equal(t, gitrepo.ApplyModeThreeWay, patcherConfiguration.ApplyMode)
	require.False(t, patcherConfiguration.Push)
	require.True(t, patcherConfiguration.Refetch)
	require.Equal(t, patcher.DefaultUpstreamRef, patcherConfiguration.UpstreamRef)

	testResultsConfiguration := application.configuration.Tools.TestResults
	require.Equal(t, "example/file", testResultsConfiguration.Repository)
	require.Equal(t, "rolling-env", testResultsConfiguration.CommitBranch)

	require.True(t, application.humanReadableLoggingEnabled())
	require.Same(t, application.loggerOutputs.ConsoleLogger, application.commandLogger())

	configurationFilePath, configurationFilePathAvailable := application.commandContextAccessor.ConfigurationFilePath(rootCommand.Context())
	require.True(t, configurationFilePathAvailable)
	require.Equal(t, configurationPath, configurationFilePath)
}

func TestInitializeConfigurationRejectsUnknownLogLevel(t *testing.T) {
	application := NewApplication()
	rootCommand := application.rootCommand
	require.NoError(t, rootCommand.PersistentFlags().Set(logLevelFlagNameConstant, "chatty"))

	initializationError := application.initializeConfiguration(rootCommand)
	require.Error(t, initializationError)
	require.Contains(t, initializationError.Error(), "unable to create logger")
}

func TestEnableVerboseLoggingRaisesSharedLevel(t *testing.T) {
	application := NewApplication()
	application.enableVerboseLogging()

	require.NoError(t, application.initializeConfiguration(application.rootCommand))
	require.Equal(t, zapcore.InfoLevel, application.loggerOutputs.Level.Level())
	require.Same(t, application.logger, application.commandLogger())

	application.enableVerboseLogging()
	require.Equal(t, zapcore.DebugLevel, application.loggerOutputs.Level.Level())
	require.True(t, application.loggerOutputs.ConsoleLogger.Core().Enabled(zapcore.DebugLevel))
}

func TestExecuteReportsMalformedConfigurationFile(t *testing.T) {
	configurationPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configurationPath, []byte("common: [\n"), 0o644))

	application := NewApplication()
	outputBuffer := &bytes.Buffer{}
	application.rootCommand.SetOut(outputBuffer)
	application.rootCommand.SetErr(outputBuffer)
	application.rootCommand.SetArgs([]string{"--config", configurationPath})

	executionError := application.rootCommand.Execute()
	require.Error(t, executionError)
	require.Contains(t, executionError.Error(), "unable to load configuration")
}

func TestRootCommandWithoutArgumentsPrintsHelp(t *testing.T) {
	application := NewApplication()
	outputBuffer := &bytes.Buffer{}
	application.rootCommand.SetOut(outputBuffer)
	application.rootCommand.SetArgs([]string{"--log-level", "error"})

	require.NoError(t, application.rootCommand.Execute())
	require.Contains(t, outputBuffer.String(), "patch")
	require.Contains(t, outputBuffer.String(), "test-results")
}

func TestVersionRequested(t *testing.T) {
	require.True(t, versionRequested([]string{"--version"}))
	require.True(t, versionRequested([]string{"patch", "--version"}))
	require.False(t, versionRequested([]string{"patch"}))
	require.False(t, versionRequested([]string{"--", "--version"}))
}
