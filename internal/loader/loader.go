// Package loader reads keybinding preset documents from disk.
//
// Presets may be written in TOML or YAML; the format is chosen by file
// extension. Loading produces the raw document map along with a content
// checksum, which the store layer uses to skip recompiling unchanged
// presets.
package loader

import (
	"errors"
	"io/fs"
	"os"
)

// ErrUnsupportedFormat is returned for preset files whose extension is
// neither TOML nor YAML.
var ErrUnsupportedFormat = errors.New("unsupported preset format")

// FileSystem is an abstraction for file system operations.
// This allows for easy testing with in-memory file systems.
type FileSystem interface {
	fs.FS
	// ReadFile reads the entire file at path.
	ReadFile(path string) ([]byte, error)
	// Stat returns file info for path.
	Stat(path string) (fs.FileInfo, error)
}

// OSFS implements FileSystem using the real OS file system.
type OSFS struct{}

// Open implements fs.FS.
func (OSFS) Open(name string) (fs.File, error) {
	return os.Open(name)
}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Stat returns file info for path.
func (OSFS) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// DefaultFS returns the default file system (OS).
func DefaultFS() FileSystem {
	return OSFS{}
}
