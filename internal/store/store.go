// Package store persists compiled binding tables by preset name.
//
// A stored entry carries the source checksum it was compiled from, so a
// host can skip recompiling an unchanged preset. Two implementations are
// provided: Memory for tests and short-lived runs, and SQLite for
// durable storage.
package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/dshills/keyforge/internal/bindings"
)

// Entry is one persisted compilation result.
type Entry struct {
	// ID uniquely identifies this compilation; a recompile of the same
	// preset gets a fresh ID.
	ID string `json:"id"`

	// Name is the preset name the entry is stored under.
	Name string `json:"name"`

	// Checksum is the hex SHA-256 of the source document the table was
	// compiled from.
	Checksum string `json:"checksum"`

	CompiledAt time.Time `json:"compiledAt"`

	Table *bindings.Table `json:"table"`

	// Problems are the non-fatal faults reported during compilation.
	Problems []string `json:"problems,omitempty"`
}

// NewEntry builds an entry for a fresh compilation.
func NewEntry(name, checksum string, table *bindings.Table, problems []string) *Entry {
	return &Entry{
		ID:         uuid.New().String(),
		Name:       name,
		Checksum:   checksum,
		CompiledAt: time.Now().UTC(),
		Table:      table,
		Problems:   problems,
	}
}

// Store is the interface for compiled-table persistence.
type Store interface {
	// Get retrieves an entry by preset name. Returns nil if not found.
	Get(name string) (*Entry, error)
	// Put stores an entry under its name, overwriting if it exists.
	Put(e *Entry) error
	// Delete removes an entry by preset name.
	Delete(name string) error
	// Names lists the stored preset names in sorted order.
	Names() ([]string, error)
	// Close releases resources.
	Close() error
}
