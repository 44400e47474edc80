package testresults

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

const (
	// SectionStartMarker opens the generated README section.
	SectionStartMarker = "<!-- TEST_RESULTS_START -->"
	// SectionEndMarker closes the generated README section.
	SectionEndMarker = "<!-- TEST_RESULTS_END -->"

	readmeNotFoundReasonConstant          = "README file not found"
	readmeUnreadableReasonConstant        = "Unable to read README"
	readmeUnwritableReasonConstant        = "Unable to write README"
	markersMissingReasonConstant          = "Test results section markers not found in README"
	temporaryFilePatternSuffixConstant    = ".tmp-*"
	logMessageBlockWithoutMarkersConstant = "Rendered test results block does not contain both section markers; the next update will not find the section"
	logFieldReadmePathConstant            = "readme_path"
)

var sectionPattern = regexp.MustCompile(`(?s)` + regexp.QuoteMeta(SectionStartMarker) + `.*?` + regexp.QuoteMeta(SectionEndMarker))

// ReadmePublisher replaces the marked section of a README file.
type ReadmePublisher struct {
	logger *zap.Logger
}

// NewReadmePublisher constructs a ReadmePublisher.
func NewReadmePublisher(logger *zap.Logger) *ReadmePublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReadmePublisher{logger: logger}
}

// ReplaceSection substitutes every marked section of content with the trimmed block.
// It returns false when content has no marked section.
func ReplaceSection(content string, block string) (string, bool) {
	if !sectionPattern.MatchString(content) {
		return content, false
	}
	return sectionPattern.ReplaceAllLiteralString(content, strings.TrimSpace(block)), true
}

// Publish rewrites the README at readmePath. The file is left untouched when it has no marked section.
func (publisher *ReadmePublisher) Publish(readmePath string, block string) error {
	readmeInfo, statError := os.Stat(readmePath)
	if errors.Is(statError, fs.ErrNotExist) {
		return FormatError{Path: readmePath, Reason: readmeNotFoundReasonConstant}
	}
	if statError != nil {
		return FormatError{Path: readmePath, Reason: readmeUnreadableReasonConstant, Cause: statError}
	}

	readmeBytes, readError := os.ReadFile(readmePath)
	if readError != nil {
		return FormatError{Path: readmePath, Reason: readmeUnreadableReasonConstant, Cause: readError}
	}

	updatedContent, sectionFound := ReplaceSection(string(readmeBytes), block)
	if !sectionFound {
		return FormatError{Path: readmePath, Reason: markersMissingReasonConstant}
	}
	if !strings.Contains(block, SectionStartMarker) || !strings.Contains(block, SectionEndMarker) {
		publisher.logger.Warn(logMessageBlockWithoutMarkersConstant, zap.String(logFieldReadmePathConstant, readmePath))
	}

	if writeError := writeFileReplacing(readmePath, []byte(updatedContent), readmeInfo.Mode().Perm()); writeError != nil {
		return FormatError{Path: readmePath, Reason: readmeUnwritableReasonConstant, Cause: writeError}
	}
	return nil
}

// writeFileReplacing writes into a sibling temporary file and renames it over path.
func writeFileReplacing(path string, contents []byte, permissions fs.FileMode) error {
	temporaryFile, createError := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+temporaryFilePatternSuffixConstant)
	if createError != nil {
		return createError
	}
	temporaryPath := temporaryFile.Name()

	if _, writeError := temporaryFile.Write(contents); writeError != nil {
		_ = temporaryFile.Close()
		_ = os.Remove(temporaryPath)
		return writeError
	}
	if closeError := temporaryFile.Close(); closeError != nil {
		_ = os.Remove(temporaryPath)
		return closeError
	}
	if chmodError := os.Chmod(temporaryPath, permissions); chmodError != nil {
		_ = os.Remove(temporaryPath)
		return chmodError
	}
	if renameError := os.Rename(temporaryPath, path); renameError != nil {
		_ = os.Remove(temporaryPath)
		return renameError
	}
	return nil
}
