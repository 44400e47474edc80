package patcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/nixpatch/internal/gitrepo"
	"github.com/temirov/nixpatch/internal/patchqueue"
	"github.com/temirov/nixpatch/internal/ui"
)

const (
	originRemoteNameConstant       = "origin"
	ciDirectoryNameConstant        = ".github"
	ciRemovalCommitMessageConstant = "ci: remove nixpkgs workflows"
	revisionSeparatorConstant      = "/"

	operationOpenRepositoryConstant    = "open repository"
	operationConfigureIdentityConstant = "configure git identity"
	operationEnsureRemoteConstant      = "configure remote"
	operationFetchConstant             = "fetch upstream"
	operationSnapshotConstant          = "snapshot patches"
	operationResetBranchConstant       = "reset branch"
	operationStripCIConstant           = "remove .github directory"
	operationPushConstant              = "push branch"

	repositoryPathFieldNameConstant = "repo_path"
	patchDirectoryFieldNameConstant = "patch_dir"
	upstreamRefFieldNameConstant    = "upstream_ref"
	targetBranchFieldNameConstant   = "target_branch"
	remoteNameFieldNameConstant     = "remote_name"
	remoteURLFieldNameConstant      = "remote_url"
	gitUserNameFieldNameConstant    = "git_user_name"
	gitUserEmailFieldNameConstant   = "git_user_email"
	applyModeFieldNameConstant      = "apply_mode"

	startPanelTitleConstant          = "🚀 Starting Patcher Workflow"
	configurationPanelTitleConstant  = "Patcher Configuration"
	repositoryLineTemplateConstant   = "Repository: %s"
	upstreamRefLineTemplateConstant  = "Upstream ref: %s"
	targetBranchLineTemplateConstant = "Target branch: %s"
	remoteLineTemplateConstant       = "Remote: %s (%s)"
	patchDirLineTemplateConstant     = "Patch directory: %s"
	applyModeLineTemplateConstant    = "Apply mode: %s"
	refetchLineTemplateConstant      = "Refetch: %t"
	pushLineTemplateConstant         = "Push: %t"

	identityConfiguredTemplateConstant    = "Configured Git user: %s <%s>"
	remoteAddingTemplateConstant          = "Adding remote '%s': %s"
	remoteUpdatingTemplateConstant        = "Updating remote '%s' URL to %s"
	remoteCorrectTemplateConstant         = "Remote '%s' already configured correctly"
	fetchSkippedMessageConstant           = "Skipping fetch (refetch disabled)"
	fetchCompletedTemplateConstant        = "Fetched from %s"
	patchDirectoryMissingTemplateConstant = "Patch directory '%s' does not exist"
	noPatchesTemplateConstant             = "No patch files found in '%s'"
	snapshotTemplateConstant              = "Copying %d patch files (%s) to temporary directory"
	upstreamCommitTemplateConstant        = "Using upstream nixpkgs commit: %s"
	deletingBranchTemplateConstant        = "Deleting existing branch '%s'"
	branchCreatedTemplateConstant         = "Created fresh branch '%s' from %s"
	ciDirectoryMissingMessageConstant     = ".github directory not found, skipping removal"
	ciDirectoryRemovingMessageConstant    = "Removing .github directory"
	ciDirectoryCommittedMessageConstant   = "Committed removal of .github directory"
	applyingPatchesTemplateConstant       = "Applying %d patch files"
	appliedPatchTemplateConstant          = "Applied %s"
	failedPatchTemplateConstant           = "Failed to apply %s"
	pushSkippedMessageConstant            = "Skipping push (push disabled)"
	pushCompletedTemplateConstant         = "Pushed '%s' to origin"
	workflowCompletedMessageConstant      = "Patcher workflow completed successfully!"

	logMessagePatchQueuedConstant           = "Queued patch"
	logMessagePatchUnreadableConstant       = "Unable to read patch header"
	logMessageSnapshotCreatedConstant       = "Patch snapshot created"
	logMessageSnapshotCleanupFailedConstant = "Patch snapshot cleanup failed"
	logMessageRemoteUnchangedConstant       = "Remote URL unchanged"
	logMessageUpstreamResolvedConstant      = "Upstream revision resolved"
	logFieldPatchConstant                   = "patch"
	logFieldSubjectConstant                 = "subject"
	logFieldAuthorConstant                  = "author"
	logFieldFilesTouchedConstant            = "files_touched"
	logFieldSizeConstant                    = "size"
	logFieldSnapshotDirectoryConstant       = "snapshot_directory"
	logFieldPatchCountConstant              = "patch_count"
	logFieldRemoteConstant                  = "remote"
	logFieldRemoteURLConstant               = "remote_url"
	logFieldRevisionConstant                = "revision"
	logFieldCommitConstant                  = "commit"
	removeCIDirectoryErrorTemplateConstant  = "removing %s: %w"
	unsupportedApplyModeTemplateConstant    = "unsupported apply mode %q, expected reject or 3way"
)

// Options are the resolved inputs of one patch workflow run.
type Options struct {
	RepositoryPath string
	PatchDirectory string
	UpstreamRef    string
	TargetBranch   string
	RemoteName     string
	RemoteURL      string
	GitUserName    string
	GitUserEmail   string
	Refetch        bool
	Push           bool
	ApplyMode      gitrepo.ApplyMode
}

// RepositoryInspector answers read-only repository questions.
type RepositoryInspector interface {
	RemoteURL(remoteName string) (string, bool, error)
	ResolveRevision(revision string) (string, error)
	BranchExists(branch string) (bool, error)
}

// InspectorOpener opens a RepositoryInspector for a repository path.
type InspectorOpener func(repositoryPath string) (RepositoryInspector, error)

// ServiceDependencies enumerates collaborators required by the workflow.
type ServiceDependencies struct {
	Logger          *zap.Logger
	Console         *ui.Console
	GitExecutor     gitrepo.GitExecutor
	InspectorOpener InspectorOpener
}

// Service executes the patch workflow.
type Service struct {
	logger          *zap.Logger
	console         *ui.Console
	gitExecutor     gitrepo.GitExecutor
	inspectorOpener InspectorOpener
}

// NewService constructs a Service from its dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.GitExecutor == nil {
		return nil, gitrepo.ErrGitExecutorNotConfigured
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	console := dependencies.Console
	if console == nil {
		console = ui.NewConsole(nil)
	}
	inspectorOpener := dependencies.InspectorOpener
	if inspectorOpener == nil {
		inspectorOpener = OpenGitInspector
	}
	return &Service{
		logger:          logger,
		console:         console,
		gitExecutor:     dependencies.GitExecutor,
		inspectorOpener: inspectorOpener,
	}, nil
}

// OpenGitInspector opens the go-git backed inspector.
func OpenGitInspector(repositoryPath string) (RepositoryInspector, error) {
	inspector, openError := gitrepo.OpenInspector(repositoryPath)
	if openError != nil {
		return nil, openError
	}
	return inspector, nil
}

// Run executes every workflow step in order and stops at the first failure.
// The patch snapshot is removed on every exit path.
func (service *Service) Run(executionContext context.Context, options Options) error {
	if validationError := validateOptions(options); validationError != nil {
		return validationError
	}

	service.console.Panel(configurationPanelTitleConstant, []string{
		fmt.Sprintf(repositoryLineTemplateConstant, options.RepositoryPath),
		fmt.Sprintf(upstreamRefLineTemplateConstant, options.UpstreamRef),
		fmt.Sprintf(targetBranchLineTemplateConstant, options.TargetBranch),
		fmt.Sprintf(remoteLineTemplateConstant, options.RemoteName, options.RemoteURL),
		fmt.Sprintf(patchDirLineTemplateConstant, options.PatchDirectory),
		fmt.Sprintf(applyModeLineTemplateConstant, options.ApplyMode),
		fmt.Sprintf(refetchLineTemplateConstant, options.Refetch),
		fmt.Sprintf(pushLineTemplateConstant, options.Push),
	})
	service.console.Panel(startPanelTitleConstant, nil)

	inspector, openError := service.inspectorOpener(options.RepositoryPath)
	if openError != nil {
		return GitOperationError{Operation: operationOpenRepositoryConstant, Cause: openError}
	}
	repositoryManager, managerError := gitrepo.NewRepositoryManager(service.gitExecutor, options.RepositoryPath)
	if managerError != nil {
		return GitOperationError{Operation: operationOpenRepositoryConstant, Cause: managerError}
	}

	if identityError := repositoryManager.ConfigureIdentity(executionContext, options.GitUserName, options.GitUserEmail); identityError != nil {
		return GitOperationError{Operation: operationConfigureIdentityConstant, Cause: identityError}
	}
	service.console.Statusf(ui.SymbolSuccess, identityConfiguredTemplateConstant, options.GitUserName, options.GitUserEmail)

	if remoteError := service.ensureRemote(executionContext, repositoryManager, inspector, options); remoteError != nil {
		return GitOperationError{Operation: operationEnsureRemoteConstant, Cause: remoteError}
	}

	if fetchError := service.fetchUpstream(executionContext, repositoryManager, options); fetchError != nil {
		return GitOperationError{Operation: operationFetchConstant, Cause: fetchError}
	}

	snapshot, snapshotError := service.snapshotPatches(options.PatchDirectory)
	if snapshotError != nil {
		return GitOperationError{Operation: operationSnapshotConstant, Cause: snapshotError}
	}
	defer func() {
		if closeError := snapshot.Close(); closeError != nil {
			service.logger.Warn(logMessageSnapshotCleanupFailedConstant, zap.Error(closeError))
		}
	}()

	if resetError := service.resetBranch(executionContext, repositoryManager, inspector, options); resetError != nil {
		return GitOperationError{Operation: operationResetBranchConstant, Cause: resetError}
	}

	if stripError := service.stripCIConfiguration(executionContext, repositoryManager, options); stripError != nil {
		return GitOperationError{Operation: operationStripCIConstant, Cause: stripError}
	}

	if snapshot != nil {
		if applyError := service.applyPatches(executionContext, repositoryManager, snapshot.Patches, options.ApplyMode); applyError != nil {
			return applyError
		}
	}

	if pushError := service.pushBranch(executionContext, repositoryManager, inspector, options); pushError != nil {
		return GitOperationError{Operation: operationPushConstant, Cause: pushError}
	}

	service.console.Panel(string(ui.SymbolSuccess)+" "+workflowCompletedMessageConstant, nil)
	return nil
}

func (service *Service) ensureRemote(executionContext context.Context, repositoryManager *gitrepo.RepositoryManager, inspector RepositoryInspector, options Options) error {
	currentURL, remoteFound, lookupError := inspector.RemoteURL(options.RemoteName)
	if lookupError != nil {
		return lookupError
	}

	switch {
	case !remoteFound:
		service.console.Statusf(ui.SymbolAdd, remoteAddingTemplateConstant, options.RemoteName, options.RemoteURL)
		return repositoryManager.AddRemote(executionContext, options.RemoteName, options.RemoteURL)
	case currentURL != options.RemoteURL:
		service.console.Statusf(ui.SymbolUpdate, remoteUpdatingTemplateConstant, options.RemoteName, options.RemoteURL)
		return repositoryManager.SetRemoteURL(executionContext, options.RemoteName, options.RemoteURL)
	default:
		service.logger.Debug(logMessageRemoteUnchangedConstant, zap.String(logFieldRemoteConstant, options.RemoteName), zap.String(logFieldRemoteURLConstant, currentURL))
		service.console.Statusf(ui.SymbolSuccess, remoteCorrectTemplateConstant, options.RemoteName)
		return nil
	}
}

func (service *Service) fetchUpstream(executionContext context.Context, repositoryManager *gitrepo.RepositoryManager, options Options) error {
	if !options.Refetch {
		service.console.Status(ui.SymbolSkip, fetchSkippedMessageConstant)
		return nil
	}
	if fetchError := repositoryManager.Fetch(executionContext, options.RemoteName); fetchError != nil {
		return fetchError
	}
	service.console.Statusf(ui.SymbolSuccess, fetchCompletedTemplateConstant, options.RemoteName)
	return nil
}

// snapshotPatches returns nil without error when there is nothing to apply.
func (service *Service) snapshotPatches(patchDirectory string) (*patchqueue.Snapshot, error) {
	patchDirectoryInfo, statError := os.Stat(patchDirectory)
	if errors.Is(statError, fs.ErrNotExist) {
		service.console.Statusf(ui.SymbolWarning, patchDirectoryMissingTemplateConstant, patchDirectory)
		return nil, nil
	}
	if statError == nil && !patchDirectoryInfo.IsDir() {
		service.console.Statusf(ui.SymbolInfo, noPatchesTemplateConstant, patchDirectory)
		return nil, nil
	}

	queuedPatches, listError := patchqueue.ListPatches(patchDirectory)
	if listError != nil {
		return nil, listError
	}
	if len(queuedPatches) == 0 {
		service.console.Statusf(ui.SymbolInfo, noPatchesTemplateConstant, patchDirectory)
		return nil, nil
	}

	service.console.Statusf(ui.SymbolClipboard, snapshotTemplateConstant, len(queuedPatches), patchqueue.HumanSize(patchqueue.TotalSize(queuedPatches)))
	snapshot, snapshotError := patchqueue.TakeSnapshot(patchDirectory)
	if snapshotError != nil {
		return nil, snapshotError
	}
	service.logger.Debug(
		logMessageSnapshotCreatedConstant,
		zap.String(logFieldSnapshotDirectoryConstant, snapshot.Directory),
		zap.Int(logFieldPatchCountConstant, len(snapshot.Patches)),
	)

	for _, patchFile := range snapshot.Patches {
		summary, inspectError := patchqueue.Inspect(patchFile)
		if inspectError != nil {
			service.logger.Warn(logMessagePatchUnreadableConstant, zap.String(logFieldPatchConstant, patchFile.Name), zap.Error(inspectError))
			continue
		}
		service.logger.Info(
			logMessagePatchQueuedConstant,
			zap.String(logFieldPatchConstant, summary.Name),
			zap.String(logFieldSubjectConstant, summary.Subject),
			zap.String(logFieldAuthorConstant, summary.Author),
			zap.Int(logFieldFilesTouchedConstant, summary.FilesTouched),
			zap.String(logFieldSizeConstant, summary.Size),
		)
	}
	return snapshot, nil
}

func (service *Service) resetBranch(executionContext context.Context, repositoryManager *gitrepo.RepositoryManager, inspector RepositoryInspector, options Options) error {
	upstreamRevision := options.RemoteName + revisionSeparatorConstant + options.UpstreamRef
	upstreamCommit, resolveError := inspector.ResolveRevision(upstreamRevision)
	if resolveError != nil {
		return fmt.Errorf(invalidUpstreamRefTemplateConstant, upstreamRevision, resolveError)
	}
	service.logger.Debug(logMessageUpstreamResolvedConstant, zap.String(logFieldRevisionConstant, upstreamRevision), zap.String(logFieldCommitConstant, upstreamCommit))
	service.console.Statusf(ui.SymbolPin, upstreamCommitTemplateConstant, upstreamCommit)

	branchExists, branchError := inspector.BranchExists(options.TargetBranch)
	if branchError != nil {
		return branchError
	}
	if branchExists {
		service.console.Statusf(ui.SymbolDelete, deletingBranchTemplateConstant, options.TargetBranch)
		if detachError := repositoryManager.DetachHead(executionContext, upstreamCommit); detachError != nil {
			return detachError
		}
		if deleteError := repositoryManager.DeleteBranch(executionContext, options.TargetBranch); deleteError != nil {
			return deleteError
		}
	}

	if checkoutError := repositoryManager.CheckoutNewBranch(executionContext, options.TargetBranch, upstreamCommit); checkoutError != nil {
		return checkoutError
	}
	service.console.Statusf(ui.SymbolBranch, branchCreatedTemplateConstant, options.TargetBranch, upstreamRevision)
	return nil
}

func (service *Service) stripCIConfiguration(executionContext context.Context, repositoryManager *gitrepo.RepositoryManager, options Options) error {
	ciDirectory := filepath.Join(options.RepositoryPath, ciDirectoryNameConstant)
	if _, statError := os.Stat(ciDirectory); errors.Is(statError, fs.ErrNotExist) {
		service.console.Status(ui.SymbolInfo, ciDirectoryMissingMessageConstant)
		return nil
	}

	service.console.Status(ui.SymbolFolder, ciDirectoryRemovingMessageConstant)
	if removeError := os.RemoveAll(ciDirectory); removeError != nil {
		return fmt.Errorf(removeCIDirectoryErrorTemplateConstant, ciDirectory, removeError)
	}
	if stageError := repositoryManager.StageAll(executionContext); stageError != nil {
		return stageError
	}
	if commitError := repositoryManager.Commit(executionContext, ciRemovalCommitMessageConstant); commitError != nil {
		return commitError
	}
	service.console.Status(ui.SymbolSuccess, ciDirectoryCommittedMessageConstant)
	return nil
}

func (service *Service) applyPatches(executionContext context.Context, repositoryManager *gitrepo.RepositoryManager, queuedPatches []patchqueue.PatchFile, applyMode gitrepo.ApplyMode) error {
	service.console.Statusf(ui.SymbolWrench, applyingPatchesTemplateConstant, len(queuedPatches))
	for _, patchFile := range queuedPatches {
		if applyError := repositoryManager.ApplyPatch(executionContext, patchFile.Path, applyMode); applyError != nil {
			service.console.Statusf(ui.SymbolFailure, failedPatchTemplateConstant, patchFile.Name)
			return PatchApplyError{PatchFile: patchFile.Path, Cause: applyError}
		}
		service.console.Statusf(ui.SymbolSuccess, appliedPatchTemplateConstant, patchFile.Name)
	}
	return nil
}

func (service *Service) pushBranch(executionContext context.Context, repositoryManager *gitrepo.RepositoryManager, inspector RepositoryInspector, options Options) error {
	if !options.Push {
		service.console.Status(ui.SymbolSkip, pushSkippedMessageConstant)
		return nil
	}

	_, originFound, lookupError := inspector.RemoteURL(originRemoteNameConstant)
	if lookupError != nil {
		return lookupError
	}
	if !originFound {
		return ErrOriginRemoteMissing
	}

	if pushError := repositoryManager.ForcePush(executionContext, originRemoteNameConstant, options.TargetBranch); pushError != nil {
		return pushError
	}
	service.console.Statusf(ui.SymbolSuccess, pushCompletedTemplateConstant, options.TargetBranch)
	return nil
}

func validateOptions(options Options) error {
	requiredValues := []struct {
		fieldName string
		value     string
	}{
		{fieldName: repositoryPathFieldNameConstant, value: options.RepositoryPath},
		{fieldName: patchDirectoryFieldNameConstant, value: options.PatchDirectory},
		{fieldName: upstreamRefFieldNameConstant, value: options.UpstreamRef},
		{fieldName: targetBranchFieldNameConstant, value: options.TargetBranch},
		{fieldName: remoteNameFieldNameConstant, value: options.RemoteName},
		{fieldName: remoteURLFieldNameConstant, value: options.RemoteURL},
		{fieldName: gitUserNameFieldNameConstant, value: options.GitUserName},
		{fieldName: gitUserEmailFieldNameConstant, value: options.GitUserEmail},
	}
	for _, requiredValue := range requiredValues {
		if len(strings.TrimSpace(requiredValue.value)) == 0 {
			return InvalidInputError{FieldName: requiredValue.fieldName, Message: requiredValueMessageConstant}
		}
	}
	if _, parseError := gitrepo.ParseApplyMode(string(options.ApplyMode)); parseError != nil {
		return InvalidInputError{FieldName: applyModeFieldNameConstant, Message: fmt.Sprintf(unsupportedApplyModeTemplateConstant, options.ApplyMode)}
	}
	return nil
}
