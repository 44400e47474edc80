package testresults

import "strings"

// Default option values.
const (
	DefaultRepository   = "cachix/devenv-nixpkgs"
	DefaultReadmePath   = "README.md"
	DefaultTemplatePath = ".github/templates/test-results.md"
	DefaultCommitBranch = "bump-rolling"
)

// CommandConfiguration captures persisted configuration for the test-results command.
type CommandConfiguration struct {
	Repository   string `mapstructure:"repo"`
	ReadmePath   string `mapstructure:"readme_path"`
	TemplatePath string `mapstructure:"template_path"`
	CommitBranch string `mapstructure:"commit_branch"`
}

// DefaultCommandConfiguration returns baseline configuration values for the test-results command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Repository:   DefaultRepository,
		ReadmePath:   DefaultReadmePath,
		TemplatePath: DefaultTemplatePath,
		CommitBranch: DefaultCommitBranch,
	}
}

// Sanitize trims configured values and falls back to defaults for empty ones.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	defaults := DefaultCommandConfiguration()
	return CommandConfiguration{
		Repository:   valueOrDefault(configuration.Repository, defaults.Repository),
		ReadmePath:   valueOrDefault(configuration.ReadmePath, defaults.ReadmePath),
		TemplatePath: valueOrDefault(configuration.TemplatePath, defaults.TemplatePath),
		CommitBranch: valueOrDefault(configuration.CommitBranch, defaults.CommitBranch),
	}
}

func valueOrDefault(value string, defaultValue string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return defaultValue
	}
	return trimmedValue
}
