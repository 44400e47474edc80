package testresults

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/nixpatch/internal/ui"
)

const (
	defaultRunURLTemplateConstant = "https://github.com/%s/actions/runs/%s"
	autoGeneratedRunURLConstant   = "auto-generated"

	configurationPanelTitleConstant   = "Test Results Updater Configuration"
	startPanelTitleConstant           = "🚀 Starting Test Results Update"
	resultsPanelTitleConstant         = "Results"
	completedPanelTitleConstant       = "✅ Test results update completed successfully!"
	repositoryLineTemplateConstant    = "Repository: %s"
	runIdentifierLineTemplateConstant = "Run ID: %s"
	runURLLineTemplateConstant        = "Run URL: %s"
	readmeLineTemplateConstant        = "README path: %s"
	templateLineTemplateConstant      = "Template path: %s"
	totalJobsLineTemplateConstant     = "Total jobs: %d"
	successfulLineTemplateConstant    = "Successful: %d ✅"
	failedLineTemplateConstant        = "Failed: %d ❌"
	nixpkgsLineTemplateConstant       = "Nixpkgs: %s"
	commitResolvedTemplateConstant    = "Got nixpkgs commit %s"
	jobsFetchedTemplateConstant       = "Fetched %d jobs"
	readmeUpdatedTemplateConstant     = "Updated %s with new test results"

	logMessagePlatformStatisticsConstant = "Platform statistics"
	logMessageJobsClassifiedConstant     = "Jobs classified"
	logFieldPlatformConstant             = "platform"
	logFieldTotalConstant                = "total"
	logFieldFailedConstant               = "failed"
	logFieldSuccessRateConstant          = "success_rate"
	logFieldSuccessfulConstant           = "successful"
	logFieldRunIdentifierConstant        = "run_id"

	jobSourceMissingMessageConstant = "job source not configured"
)

// ErrJobSourceNotConfigured indicates the service was constructed without a job source.
var ErrJobSourceNotConfigured = errors.New(jobSourceMissingMessageConstant)

// Options are the resolved inputs of one update.
type Options struct {
	RunIdentifier string
	RunURL        string
	Repository    string
	ReadmePath    string
	TemplatePath  string
	CommitBranch  string
}

// Clock returns the current time.
type Clock func() time.Time

// ServiceDependencies enumerates collaborators required by the update.
type ServiceDependencies struct {
	Logger    *zap.Logger
	Console   *ui.Console
	JobSource JobSource
	Publisher *ReadmePublisher
	Clock     Clock
}

// Service runs the test results update.
type Service struct {
	logger    *zap.Logger
	console   *ui.Console
	jobSource JobSource
	publisher *ReadmePublisher
	clock     Clock
}

// NewService constructs a Service from its dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.JobSource == nil {
		return nil, ErrJobSourceNotConfigured
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	console := dependencies.Console
	if console == nil {
		console = ui.NewConsole(nil)
	}
	publisher := dependencies.Publisher
	if publisher == nil {
		publisher = NewReadmePublisher(logger)
	}
	clock := dependencies.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{logger: logger, console: console, jobSource: dependencies.JobSource, publisher: publisher, clock: clock}, nil
}

// DefaultRunURL is the Actions page of a run.
func DefaultRunURL(repository string, runIdentifier string) string {
	return fmt.Sprintf(defaultRunURLTemplateConstant, repository, runIdentifier)
}

// Run resolves the commit, fetches and classifies the jobs, renders the template
// and rewrites the README section. The template is rendered before the README is touched.
func (service *Service) Run(executionContext context.Context, options Options) error {
	displayedRunURL := options.RunURL
	if len(displayedRunURL) == 0 {
		displayedRunURL = autoGeneratedRunURLConstant
	}
	service.console.Panel(configurationPanelTitleConstant, []string{
		fmt.Sprintf(repositoryLineTemplateConstant, options.Repository),
		fmt.Sprintf(runIdentifierLineTemplateConstant, options.RunIdentifier),
		fmt.Sprintf(runURLLineTemplateConstant, displayedRunURL),
		fmt.Sprintf(readmeLineTemplateConstant, options.ReadmePath),
		fmt.Sprintf(templateLineTemplateConstant, options.TemplatePath),
	})
	service.console.Panel(startPanelTitleConstant, nil)

	nixpkgsCommit, commitError := service.jobSource.ResolveBranchCommit(executionContext, options.CommitBranch)
	if commitError != nil {
		return commitError
	}
	service.console.Statusf(ui.SymbolSuccess, commitResolvedTemplateConstant, ShortCommit(nixpkgsCommit))

	jobs, jobsError := service.jobSource.FetchJobs(executionContext, options.RunIdentifier)
	if jobsError != nil {
		return jobsError
	}
	service.console.Statusf(ui.SymbolSuccess, jobsFetchedTemplateConstant, len(jobs))

	statistics := ClassifyJobs(jobs)
	service.logStatistics(options.RunIdentifier, statistics)

	runURL := options.RunURL
	if len(runURL) == 0 {
		runURL = DefaultRunURL(options.Repository, options.RunIdentifier)
	}

	templateText, templateError := LoadTemplate(options.TemplatePath)
	if templateError != nil {
		return templateError
	}
	renderedBlock := RenderTemplate(templateText, BuildTemplateContext(ReportInput{
		Statistics:    statistics,
		RunURL:        runURL,
		NixpkgsCommit: nixpkgsCommit,
		GeneratedAt:   service.clock(),
	}))

	if publishError := service.publisher.Publish(options.ReadmePath, renderedBlock); publishError != nil {
		return publishError
	}
	service.console.Statusf(ui.SymbolSuccess, readmeUpdatedTemplateConstant, filepath.Base(options.ReadmePath))

	service.console.Panel(resultsPanelTitleConstant, []string{
		fmt.Sprintf(runIdentifierLineTemplateConstant, options.RunIdentifier),
		fmt.Sprintf(totalJobsLineTemplateConstant, statistics.TotalJobs),
		fmt.Sprintf(successfulLineTemplateConstant, statistics.SuccessfulJobs),
		fmt.Sprintf(failedLineTemplateConstant, statistics.FailedJobs),
		fmt.Sprintf(nixpkgsLineTemplateConstant, ShortCommit(nixpkgsCommit)),
	})
	service.console.Panel(completedPanelTitleConstant, nil)
	return nil
}

func (service *Service) logStatistics(runIdentifier string, statistics JobStatistics) {
	service.logger.Debug(
		logMessageJobsClassifiedConstant,
		zap.String(logFieldRunIdentifierConstant, runIdentifier),
		zap.Int(logFieldTotalConstant, statistics.TotalJobs),
		zap.Int(logFieldSuccessfulConstant, statistics.SuccessfulJobs),
		zap.Int(logFieldFailedConstant, statistics.FailedJobs),
	)
	for _, platform := range Platforms {
		platformStats := statistics.Platforms[platform]
		service.logger.Debug(
			logMessagePlatformStatisticsConstant,
			zap.String(logFieldPlatformConstant, string(platform)),
			zap.Int(logFieldTotalConstant, platformStats.Total),
			zap.Int(logFieldFailedConstant, platformStats.Failed),
			zap.String(logFieldSuccessRateConstant, PlatformSuccessRate(platformStats.Total, platformStats.Failed)),
		)
	}
}
