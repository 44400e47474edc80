// Package pathutils resolves the repository, patch, README and template paths
// given on the command line or in config.yaml.
package pathutils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const homeShortcutConstant = "~"

// HomeDirectoryProvider resolves the current user's home directory.
type HomeDirectoryProvider func() (string, error)

// HomeExpander replaces a leading ~ with the home directory, resolved once on first use.
type HomeExpander struct {
	resolveHomeDirectory func() (string, error)
}

// NewHomeExpander looks the home directory up through the operating system.
func NewHomeExpander() *HomeExpander {
	return NewHomeExpanderWithProvider(os.UserHomeDir)
}

// NewHomeExpanderWithProvider uses provider instead of the operating system lookup.
func NewHomeExpanderWithProvider(provider HomeDirectoryProvider) *HomeExpander {
	if provider == nil {
		provider = os.UserHomeDir
	}
	return &HomeExpander{resolveHomeDirectory: sync.OnceValues(provider)}
}

// Expand rewrites "~" and "~/..." against the home directory. Other paths, including
// "~user/...", and every path when the home directory is unknown, are returned unchanged.
func (expander *HomeExpander) Expand(candidatePath string) string {
	if expander == nil || !strings.HasPrefix(candidatePath, homeShortcutConstant) {
		return candidatePath
	}

	remainder := strings.TrimPrefix(candidatePath, homeShortcutConstant)
	if len(remainder) > 0 && remainder[0] != '/' && remainder[0] != os.PathSeparator {
		return candidatePath
	}

	homeDirectory, homeError := expander.resolveHomeDirectory()
	if homeError != nil || len(homeDirectory) == 0 {
		return candidatePath
	}
	return filepath.Join(homeDirectory, remainder)
}

// ResolvePath expands the home shortcut and anchors relative paths at baseDirectory.
// Blank input resolves to an empty path.
func (expander *HomeExpander) ResolvePath(candidatePath string, baseDirectory string) string {
	trimmedPath := strings.TrimSpace(candidatePath)
	if len(trimmedPath) == 0 {
		return ""
	}

	expandedPath := expander.Expand(trimmedPath)
	if filepath.IsAbs(expandedPath) || len(baseDirectory) == 0 {
		return filepath.Clean(expandedPath)
	}
	return filepath.Join(baseDirectory, expandedPath)
}
