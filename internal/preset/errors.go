package preset

import "errors"

// Errors returned by preset parsing.
var (
	// ErrInvalidHeader indicates the header section is missing or malformed.
	ErrInvalidHeader = errors.New("invalid preset header")

	// ErrUnsupportedVersion indicates a header version this compiler cannot
	// process, even after legacy upgrade.
	ErrUnsupportedVersion = errors.New("unsupported preset version")

	// ErrInvalidVersion indicates a version string that does not parse.
	ErrInvalidVersion = errors.New("invalid version string")
)
