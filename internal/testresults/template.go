package testresults

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Template token names.
const (
	TokenStatus         = "STATUS"
	TokenNixpkgsCommit  = "NIXPKGS_COMMIT"
	TokenNixpkgsShort   = "NIXPKGS_SHORT"
	TokenRunURL         = "RUN_URL"
	TokenTimestamp      = "TIMESTAMP"
	TokenTotalJobs      = "TOTAL_JOBS"
	TokenSuccessfulJobs = "SUCCESSFUL_JOBS"
	TokenFailedJobs     = "FAILED_JOBS"
	TokenSuccessRate    = "SUCCESS_RATE"
)

const (
	platformCountSuffixConstant   = "_COUNT"
	platformRateSuffixConstant    = "_SUCCESS_RATE"
	tokenOpeningConstant          = "{{"
	tokenClosingConstant          = "}}"
	statusPassingConstant         = "✅ All tests passing"
	statusFailingConstant         = "❌ Some tests failing"
	timestampLayoutConstant       = "2006-01-02 15:04:05 UTC"
	platformCountTemplateConstant = "%d/%d"
	shortCommitLengthConstant     = 7

	templateNotFoundReasonConstant   = "Template file not found"
	templateUnreadableReasonConstant = "Unable to read template"
)

// TemplateContext maps token names, without braces, to their literal values.
type TemplateContext map[string]string

// ReportInput carries everything the template context is derived from.
type ReportInput struct {
	Statistics    JobStatistics
	RunURL        string
	NixpkgsCommit string
	GeneratedAt   time.Time
}

// ShortCommit returns the first seven characters of a commit sha.
func ShortCommit(commit string) string {
	if len(commit) <= shortCommitLengthConstant {
		return commit
	}
	return commit[:shortCommitLengthConstant]
}

// StatusText summarizes whether any job failed.
func StatusText(statistics JobStatistics) string {
	if statistics.FailedJobs == 0 {
		return statusPassingConstant
	}
	return statusFailingConstant
}

// BuildTemplateContext computes every token value of the report.
func BuildTemplateContext(input ReportInput) TemplateContext {
	statistics := input.Statistics
	templateContext := TemplateContext{
		TokenStatus:         StatusText(statistics),
		TokenNixpkgsCommit:  input.NixpkgsCommit,
		TokenNixpkgsShort:   ShortCommit(input.NixpkgsCommit),
		TokenRunURL:         input.RunURL,
		TokenTimestamp:      input.GeneratedAt.UTC().Format(timestampLayoutConstant),
		TokenTotalJobs:      strconv.Itoa(statistics.TotalJobs),
		TokenSuccessfulJobs: strconv.Itoa(statistics.SuccessfulJobs),
		TokenFailedJobs:     strconv.Itoa(statistics.FailedJobs),
		TokenSuccessRate:    strconv.Itoa(OverallSuccessRate(statistics.TotalJobs, statistics.SuccessfulJobs)),
	}
	for _, platform := range Platforms {
		platformStats := statistics.Platforms[platform]
		templateContext[platform.TokenPrefix()+platformCountSuffixConstant] = fmt.Sprintf(platformCountTemplateConstant, platformStats.Failed, platformStats.Total)
		templateContext[platform.TokenPrefix()+platformRateSuffixConstant] = PlatformSuccessRate(platformStats.Total, platformStats.Failed)
	}
	return templateContext
}

// RenderTemplate replaces every {{TOKEN}} present in the context. Unknown tokens stay untouched.
func RenderTemplate(templateText string, templateContext TemplateContext) string {
	tokenNames := make([]string, 0, len(templateContext))
	for tokenName := range templateContext {
		tokenNames = append(tokenNames, tokenName)
	}
	sort.Strings(tokenNames)

	replacements := make([]string, 0, len(tokenNames)*2)
	for _, tokenName := range tokenNames {
		replacements = append(replacements, tokenOpeningConstant+tokenName+tokenClosingConstant, templateContext[tokenName])
	}
	return strings.NewReplacer(replacements...).Replace(templateText)
}

// LoadTemplate reads the template file.
func LoadTemplate(templatePath string) (string, error) {
	templateBytes, readError := os.ReadFile(templatePath)
	if errors.Is(readError, fs.ErrNotExist) {
		return "", FormatError{Path: templatePath, Reason: templateNotFoundReasonConstant}
	}
	if readError != nil {
		return "", FormatError{Path: templatePath, Reason: templateUnreadableReasonConstant, Cause: readError}
	}
	return string(templateBytes), nil
}
