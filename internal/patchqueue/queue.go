package patchqueue

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	patchExtensionConstant             = ".patch"
	readDirectoryErrorTemplateConstant = "reading patch directory %s: %w"
	statPatchErrorTemplateConstant     = "reading patch %s: %w"
)

// PatchFile is one queued patch.
type PatchFile struct {
	Name      string
	Path      string
	SizeBytes int64
}

// ListPatches returns the *.patch files directly inside directory sorted by name.
// A missing directory yields an empty queue.
func ListPatches(directory string) ([]PatchFile, error) {
	directoryEntries, readError := os.ReadDir(directory)
	if errors.Is(readError, fs.ErrNotExist) {
		return nil, nil
	}
	if readError != nil {
		return nil, fmt.Errorf(readDirectoryErrorTemplateConstant, directory, readError)
	}

	patchFiles := make([]PatchFile, 0, len(directoryEntries))
	for _, directoryEntry := range directoryEntries {
		if directoryEntry.IsDir() || !strings.HasSuffix(directoryEntry.Name(), patchExtensionConstant) {
			continue
		}
		fileInfo, infoError := directoryEntry.Info()
		if infoError != nil {
			return nil, fmt.Errorf(statPatchErrorTemplateConstant, directoryEntry.Name(), infoError)
		}
		patchFiles = append(patchFiles, PatchFile{
			Name:      directoryEntry.Name(),
			Path:      filepath.Join(directory, directoryEntry.Name()),
			SizeBytes: fileInfo.Size(),
		})
	}

	sort.Slice(patchFiles, func(leftIndex int, rightIndex int) bool {
		return patchFiles[leftIndex].Name < patchFiles[rightIndex].Name
	})
	return patchFiles, nil
}

// TotalSize sums the sizes of the queued patches.
func TotalSize(patchFiles []PatchFile) int64 {
	var totalBytes int64
	for _, patchFile := range patchFiles {
		totalBytes += patchFile.SizeBytes
	}
	return totalBytes
}
