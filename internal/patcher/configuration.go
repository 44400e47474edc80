package patcher

import (
	"strings"

	"github.com/temirov/nixpatch/internal/gitrepo"
)

// Default option values.
const (
	DefaultUpstreamRef    = "nixpkgs-unstable"
	DefaultTargetBranch   = "bump-rolling"
	DefaultRemoteName     = "upstream"
	DefaultRemoteURL      = "https://github.com/NixOS/nixpkgs.git"
	DefaultPatchDirectory = "patches"
	DefaultGitUserName    = "Patcher Script"
	DefaultGitUserEmail   = "noreply@example.com"
	DefaultRepositoryPath = "."
)

// CommandConfiguration captures persisted configuration for the patch command.
type CommandConfiguration struct {
	UpstreamRef    string            `mapstructure:"upstream_ref"`
	TargetBranch   string            `mapstructure:"target_branch"`
	RemoteName     string            `mapstructure:"remote_name"`
	RemoteURL      string            `mapstructure:"remote_url"`
	PatchDirectory string            `mapstructure:"patch_dir"`
	Refetch        bool              `mapstructure:"refetch"`
	Push           bool              `mapstructure:"push"`
	GitUserName    string            `mapstructure:"git_user_name"`
	GitUserEmail   string            `mapstructure:"git_user_email"`
	RepositoryPath string            `mapstructure:"repo_path"`
	ApplyMode      gitrepo.ApplyMode `mapstructure:"apply_mode"`
}

// DefaultCommandConfiguration returns baseline configuration values for the patch command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		UpstreamRef:    DefaultUpstreamRef,
		TargetBranch:   DefaultTargetBranch,
		RemoteName:     DefaultRemoteName,
		RemoteURL:      DefaultRemoteURL,
		PatchDirectory: DefaultPatchDirectory,
		Refetch:        true,
		Push:           true,
		GitUserName:    DefaultGitUserName,
		GitUserEmail:   DefaultGitUserEmail,
		RepositoryPath: DefaultRepositoryPath,
		ApplyMode:      gitrepo.ApplyModeReject,
	}
}

// Sanitize trims configured values and falls back to defaults for empty ones.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	defaults := DefaultCommandConfiguration()
	sanitized := configuration
	sanitized.UpstreamRef = valueOrDefault(configuration.UpstreamRef, defaults.UpstreamRef)
	sanitized.TargetBranch = valueOrDefault(configuration.TargetBranch, defaults.TargetBranch)
	sanitized.RemoteName = valueOrDefault(configuration.RemoteName, defaults.RemoteName)
	sanitized.RemoteURL = valueOrDefault(configuration.RemoteURL, defaults.RemoteURL)
	sanitized.PatchDirectory = valueOrDefault(configuration.PatchDirectory, defaults.PatchDirectory)
	sanitized.GitUserName = valueOrDefault(configuration.GitUserName, defaults.GitUserName)
	sanitized.GitUserEmail = valueOrDefault(configuration.GitUserEmail, defaults.GitUserEmail)
	sanitized.RepositoryPath = valueOrDefault(configuration.RepositoryPath, defaults.RepositoryPath)
	if len(sanitized.ApplyMode) == 0 {
		sanitized.ApplyMode = defaults.ApplyMode
	}
	return sanitized
}

func valueOrDefault(value string, defaultValue string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return defaultValue
	}
	return trimmedValue
}
