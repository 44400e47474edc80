package patchqueue

import (
	"fmt"
	"os"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"github.com/dustin/go-humanize"
)

const (
	openPatchErrorTemplateConstant   = "opening patch %s: %w"
	parsePatchErrorTemplateConstant  = "parsing patch %s: %w"
	parseHeaderErrorTemplateConstant = "parsing header of patch %s: %w"
	authorTemplateConstant           = "%s <%s>"
)

// PatchSummary describes a queued patch for logging.
type PatchSummary struct {
	Name         string
	Subject      string
	Author       string
	FilesTouched int
	Size         string
}

// Inspect parses a mailbox patch and summarizes its header and the files it touches.
func Inspect(patchFile PatchFile) (PatchSummary, error) {
	summary := PatchSummary{Name: patchFile.Name, Size: HumanSize(patchFile.SizeBytes)}

	patchReader, openError := os.Open(patchFile.Path)
	if openError != nil {
		return summary, fmt.Errorf(openPatchErrorTemplateConstant, patchFile.Name, openError)
	}
	defer patchReader.Close()

	files, preamble, parseError := gitdiff.Parse(patchReader)
	if parseError != nil {
		return summary, fmt.Errorf(parsePatchErrorTemplateConstant, patchFile.Name, parseError)
	}
	summary.FilesTouched = len(files)

	header, headerError := gitdiff.ParsePatchHeader(preamble)
	if headerError != nil {
		return summary, fmt.Errorf(parseHeaderErrorTemplateConstant, patchFile.Name, headerError)
	}
	summary.Subject = header.Title
	if header.Author != nil {
		summary.Author = fmt.Sprintf(authorTemplateConstant, header.Author.Name, header.Author.Email)
	}
	return summary, nil
}

// HumanSize renders a byte count such as 1.2 kB.
func HumanSize(sizeBytes int64) string {
	if sizeBytes < 0 {
		sizeBytes = 0
	}
	return humanize.Bytes(uint64(sizeBytes))
}
