package patchqueue

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const (
	snapshotDirectoryPatternConstant     = "nixpatch-patches-*"
	createSnapshotErrorTemplateConstant  = "creating patch snapshot: %w"
	copySnapshotErrorTemplateConstant    = "copying %s into patch snapshot: %w"
	removeSnapshotErrorTemplateConstant  = "removing patch snapshot %s: %w"
	snapshotDirectoryPermissionsConstant = fs.FileMode(0o755)
)

// Snapshot is a temporary copy of a patch directory together with its queue.
// Close removes the copy; it is safe to call more than once.
type Snapshot struct {
	Directory string
	Patches   []PatchFile

	closeOnce  sync.Once
	closeError error
}

// TakeSnapshot copies sourceDirectory into a new temporary directory and lists the copied queue.
func TakeSnapshot(sourceDirectory string) (*Snapshot, error) {
	snapshotDirectory, createError := os.MkdirTemp("", snapshotDirectoryPatternConstant)
	if createError != nil {
		return nil, fmt.Errorf(createSnapshotErrorTemplateConstant, createError)
	}

	snapshot := &Snapshot{Directory: snapshotDirectory}
	if copyError := copyTree(sourceDirectory, snapshotDirectory); copyError != nil {
		_ = snapshot.Close()
		return nil, copyError
	}

	patchFiles, listError := ListPatches(snapshotDirectory)
	if listError != nil {
		_ = snapshot.Close()
		return nil, listError
	}
	snapshot.Patches = patchFiles
	return snapshot, nil
}

// Close deletes the snapshot directory.
func (snapshot *Snapshot) Close() error {
	if snapshot == nil {
		return nil
	}
	snapshot.closeOnce.Do(func() {
		if removeError := os.RemoveAll(snapshot.Directory); removeError != nil {
			snapshot.closeError = fmt.Errorf(removeSnapshotErrorTemplateConstant, snapshot.Directory, removeError)
		}
	})
	return snapshot.closeError
}

func copyTree(sourceDirectory string, destinationDirectory string) error {
	return filepath.WalkDir(sourceDirectory, func(sourcePath string, directoryEntry fs.DirEntry, walkError error) error {
		if walkError != nil {
			return fmt.Errorf(copySnapshotErrorTemplateConstant, sourcePath, walkError)
		}
		relativePath, relativeError := filepath.Rel(sourceDirectory, sourcePath)
		if relativeError != nil {
			return fmt.Errorf(copySnapshotErrorTemplateConstant, sourcePath, relativeError)
		}
		destinationPath := filepath.Join(destinationDirectory, relativePath)

		if directoryEntry.IsDir() {
			if mkdirError := os.MkdirAll(destinationPath, snapshotDirectoryPermissionsConstant); mkdirError != nil {
				return fmt.Errorf(copySnapshotErrorTemplateConstant, sourcePath, mkdirError)
			}
			return nil
		}
		if !directoryEntry.Type().IsRegular() {
			return nil
		}
		if copyError := copyFile(sourcePath, destinationPath); copyError != nil {
			return fmt.Errorf(copySnapshotErrorTemplateConstant, sourcePath, copyError)
		}
		return nil
	})
}

func copyFile(sourcePath string, destinationPath string) error {
	sourceFile, openError := os.Open(sourcePath)
	if openError != nil {
		return openError
	}
	defer sourceFile.Close()

	sourceInfo, statError := sourceFile.Stat()
	if statError != nil {
		return statError
	}

	destinationFile, createError := os.OpenFile(destinationPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, sourceInfo.Mode().Perm())
	if createError != nil {
		return createError
	}
	if _, copyError := io.Copy(destinationFile, sourceFile); copyError != nil {
		_ = destinationFile.Close()
		return copyError
	}
	return destinationFile.Close()
}
