package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/nixpatch/internal/execshell"
)

const (
	gitConfigCommandConstant          = "config"
	gitUserNameKeyConstant            = "user.name"
	gitUserEmailKeyConstant           = "user.email"
	gitRemoteCommandConstant          = "remote"
	gitRemoteAddSubcommandConstant    = "add"
	gitRemoteSetURLSubcommandConstant = "set-url"
	gitFetchCommandConstant           = "fetch"
	gitCheckoutCommandConstant        = "checkout"
	gitDetachFlagConstant             = "--detach"
	gitNewBranchFlagConstant          = "-b"
	gitBranchCommandConstant          = "branch"
	gitForceDeleteFlagConstant        = "-D"
	gitAddCommandConstant             = "add"
	gitAllFlagConstant                = "-A"
	gitCommitCommandConstant          = "commit"
	gitMessageFlagConstant            = "-m"
	gitApplyMailboxCommandConstant    = "am"
	gitRejectFlagConstant             = "--reject"
	gitThreeWayFlagConstant           = "--3way"
	gitPushCommandConstant            = "push"
	gitForceFlagConstant              = "--force"

	executorNotConfiguredMessageConstant = "git executor not configured"
	repositoryPathFieldNameConstant      = "repository_path"
	unsupportedApplyModeTemplateConstant = "unsupported apply mode %q"
	invalidArgumentErrorTemplateConstant = "%s: %s"
	commandFailureErrorTemplateConstant  = "git %s failed: %w"
	applyModeFieldNameConstant           = "apply_mode"
	requiredValueMessageConstant         = "value required"
)

// ApplyMode selects how git am handles hunks that do not apply cleanly.
type ApplyMode string

// Supported apply modes.
const (
	ApplyModeReject   ApplyMode = ApplyMode("reject")
	ApplyModeThreeWay ApplyMode = ApplyMode("3way")
)

// ParseApplyMode converts a textual mode such as "3way" into an ApplyMode.
func ParseApplyMode(value string) (ApplyMode, error) {
	switch ApplyMode(strings.ToLower(strings.TrimSpace(value))) {
	case ApplyModeReject:
		return ApplyModeReject, nil
	case ApplyModeThreeWay:
		return ApplyModeThreeWay, nil
	default:
		return "", InvalidArgumentError{FieldName: applyModeFieldNameConstant, Message: fmt.Sprintf(unsupportedApplyModeTemplateConstant, value)}
	}
}

// UnmarshalText lets configuration decoding validate apply modes.
func (mode *ApplyMode) UnmarshalText(text []byte) error {
	parsedMode, parseError := ParseApplyMode(string(text))
	if parseError != nil {
		return parseError
	}
	*mode = parsedMode
	return nil
}

// ErrGitExecutorNotConfigured indicates a manager was created without an executor.
var ErrGitExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// GitExecutor runs git commands; execshell.ShellExecutor satisfies it.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// InvalidArgumentError reports an empty or unsupported manager argument.
type InvalidArgumentError struct {
	FieldName string
	Message   string
}

// Error describes the invalid argument.
func (argumentError InvalidArgumentError) Error() string {
	return fmt.Sprintf(invalidArgumentErrorTemplateConstant, argumentError.FieldName, argumentError.Message)
}

// RepositoryManager performs git mutations inside a single working tree.
type RepositoryManager struct {
	executor       GitExecutor
	repositoryPath string
}

// NewRepositoryManager constructs a manager bound to repositoryPath.
func NewRepositoryManager(executor GitExecutor, repositoryPath string) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	trimmedPath := strings.TrimSpace(repositoryPath)
	if len(trimmedPath) == 0 {
		return nil, requiredArgument(repositoryPathFieldNameConstant)
	}
	return &RepositoryManager{executor: executor, repositoryPath: trimmedPath}, nil
}

// RepositoryPath returns the working tree the manager operates on.
func (manager *RepositoryManager) RepositoryPath() string {
	return manager.repositoryPath
}

// ConfigureIdentity sets the committer name and email for the repository.
func (manager *RepositoryManager) ConfigureIdentity(executionContext context.Context, userName string, userEmail string) error {
	if configError := manager.run(executionContext, gitConfigCommandConstant, gitUserNameKeyConstant, userName); configError != nil {
		return configError
	}
	return manager.run(executionContext, gitConfigCommandConstant, gitUserEmailKeyConstant, userEmail)
}

// AddRemote registers a new remote.
func (manager *RepositoryManager) AddRemote(executionContext context.Context, remoteName string, remoteURL string) error {
	return manager.run(executionContext, gitRemoteCommandConstant, gitRemoteAddSubcommandConstant, remoteName, remoteURL)
}

// SetRemoteURL points an existing remote at remoteURL.
func (manager *RepositoryManager) SetRemoteURL(executionContext context.Context, remoteName string, remoteURL string) error {
	return manager.run(executionContext, gitRemoteCommandConstant, gitRemoteSetURLSubcommandConstant, remoteName, remoteURL)
}

// Fetch downloads objects and refs from remoteName.
func (manager *RepositoryManager) Fetch(executionContext context.Context, remoteName string) error {
	return manager.run(executionContext, gitFetchCommandConstant, remoteName)
}

// DetachHead checks out commit without a branch.
func (manager *RepositoryManager) DetachHead(executionContext context.Context, commit string) error {
	return manager.run(executionContext, gitCheckoutCommandConstant, gitDetachFlagConstant, commit)
}

// DeleteBranch force-deletes a local branch.
func (manager *RepositoryManager) DeleteBranch(executionContext context.Context, branch string) error {
	return manager.run(executionContext, gitBranchCommandConstant, gitForceDeleteFlagConstant, branch)
}

// CheckoutNewBranch creates branch at commit and checks it out.
func (manager *RepositoryManager) CheckoutNewBranch(executionContext context.Context, branch string, commit string) error {
	return manager.run(executionContext, gitCheckoutCommandConstant, gitNewBranchFlagConstant, branch, commit)
}

// StageAll stages every change in the working tree, deletions included.
func (manager *RepositoryManager) StageAll(executionContext context.Context) error {
	return manager.run(executionContext, gitAddCommandConstant, gitAllFlagConstant)
}

// Commit records the staged changes with message.
func (manager *RepositoryManager) Commit(executionContext context.Context, message string) error {
	return manager.run(executionContext, gitCommitCommandConstant, gitMessageFlagConstant, message)
}

// ApplyPatch applies one mailbox patch with git am.
func (manager *RepositoryManager) ApplyPatch(executionContext context.Context, patchPath string, mode ApplyMode) error {
	var modeFlag string
	switch mode {
	case ApplyModeReject:
		modeFlag = gitRejectFlagConstant
	case ApplyModeThreeWay:
		modeFlag = gitThreeWayFlagConstant
	default:
		return InvalidArgumentError{FieldName: applyModeFieldNameConstant, Message: fmt.Sprintf(unsupportedApplyModeTemplateConstant, mode)}
	}
	return manager.run(executionContext, gitApplyMailboxCommandConstant, modeFlag, patchPath)
}

// ForcePush overwrites branch on remoteName.
func (manager *RepositoryManager) ForcePush(executionContext context.Context, remoteName string, branch string) error {
	return manager.run(executionContext, gitPushCommandConstant, gitForceFlagConstant, remoteName, branch)
}

func (manager *RepositoryManager) run(executionContext context.Context, arguments ...string) error {
	for _, argument := range arguments {
		if len(strings.TrimSpace(argument)) == 0 {
			return requiredArgument(arguments[0])
		}
	}

	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: manager.repositoryPath,
	})
	if executionError != nil {
		return fmt.Errorf(commandFailureErrorTemplateConstant, arguments[0], executionError)
	}
	return nil
}

func requiredArgument(fieldName string) InvalidArgumentError {
	return InvalidArgumentError{FieldName: fieldName, Message: requiredValueMessageConstant}
}
