package loader

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// File is one loaded preset document.
type File struct {
	// Path the document was read from.
	Path string

	// Name is the preset name: the base file name without extension.
	Name string

	// Raw is the document bytes as read.
	Raw []byte

	// Checksum is the hex SHA-256 of Raw.
	Checksum string

	// Doc is the decoded top-level document.
	Doc map[string]any
}

// Loader reads and decodes preset files.
type Loader struct {
	fs FileSystem
}

// New creates a loader backed by the OS file system.
func New() *Loader {
	return &Loader{fs: DefaultFS()}
}

// NewWithFS creates a loader with a custom file system.
func NewWithFS(fs FileSystem) *Loader {
	return &Loader{fs: fs}
}

// Load reads and decodes the preset at path. Unlike optional config
// files, a preset named on the command line must exist: a missing file
// is an error.
func (l *Loader) Load(path string) (*File, error) {
	data, err := l.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading preset %s: %w", path, err)
	}

	doc, err := parse(path, filepath.Ext(path), data)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(data)
	return &File{
		Path:     path,
		Name:     presetName(path),
		Raw:      data,
		Checksum: hex.EncodeToString(sum[:]),
		Doc:      doc,
	}, nil
}

// LoadReader decodes a preset from r. The format is given as an
// extension, such as ".toml".
func (l *Loader) LoadReader(r io.Reader, format string) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading preset: %w", err)
	}

	doc, err := parse("<reader>", format, data)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(data)
	return &File{
		Path:     "<reader>",
		Name:     "<reader>",
		Raw:      data,
		Checksum: hex.EncodeToString(sum[:]),
		Doc:      doc,
	}, nil
}

// parse decodes data according to the format extension.
func parse(source, format string, data []byte) (map[string]any, error) {
	var (
		doc map[string]any
		err error
	)
	switch strings.ToLower(format) {
	case ".toml":
		err = toml.Unmarshal(data, &doc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, &ParseError{
			Path:    source,
			Message: err.Error(),
			Err:     err,
		}
	}
	return doc, nil
}

// presetName derives the preset name from its file path.
func presetName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ParseError represents an error while decoding a preset file.
type ParseError struct {
	Path    string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
