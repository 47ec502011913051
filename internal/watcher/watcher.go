// Package watcher reports changes to a preset file so the compiler can
// rebuild on save.
//
// The file's parent directory is watched rather than the file itself:
// most editors save by writing a temporary file and renaming it over the
// original, which drops an inode-level watch. Rapid event bursts from a
// single save are coalesced into one notification.
package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// relevantOps are the fsnotify operations that mean the preset content
// may have changed.
const relevantOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove

const defaultDebounce = 150 * time.Millisecond

// Option configures a PresetWatcher.
type Option func(*options)

type options struct {
	debounce time.Duration
	bufSize  int
}

// WithDebounce sets the coalescing window for change events.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// WithBufferSize sets the event channel buffer.
func WithBufferSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.bufSize = n
		}
	}
}

// PresetWatcher watches one preset file for changes.
type PresetWatcher struct {
	mu sync.Mutex

	watcher *fsnotify.Watcher
	path    string
	opts    options

	pending *time.Timer

	// notify hands fired debounce timers to processLoop, which owns all
	// sends on the public channels.
	notify chan struct{}

	events chan string
	errors chan error

	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// New creates a watcher for the preset at path. The file must exist.
func New(path string, opts ...Option) (*PresetWatcher, error) {
	o := options{debounce: defaultDebounce, bufSize: 16}
	for _, opt := range opts {
		opt(&o)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(absPath); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(absPath)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &PresetWatcher{
		watcher: fsw,
		path:    absPath,
		opts:    o,
		notify:  make(chan struct{}, 1),
		events:  make(chan string, o.bufSize),
		errors:  make(chan error, o.bufSize),
		closeCh: make(chan struct{}),
	}

	w.wg.Add(1)
	go w.processLoop()

	return w, nil
}

// Path returns the absolute path being watched.
func (w *PresetWatcher) Path() string {
	return w.path
}

// Events returns the channel of change notifications. Each value is the
// watched path; bursts within the debounce window arrive as one value.
func (w *PresetWatcher) Events() <-chan string {
	return w.events
}

// Errors returns the error channel.
func (w *PresetWatcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher. It is safe to call more than once.
func (w *PresetWatcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.pending != nil {
		w.pending.Stop()
		w.pending = nil
	}
	close(w.closeCh)
	w.mu.Unlock()

	err := w.watcher.Close()
	w.wg.Wait()

	close(w.events)
	close(w.errors)
	return err
}

// processLoop handles incoming fsnotify events.
func (w *PresetWatcher) processLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case <-w.notify:
			select {
			case w.events <- w.path:
			default:
				// Channel full; the consumer already has a pending
				// notification.
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.sendError(err)
		}
	}
}

// handleEvent filters directory noise down to changes of the watched
// file and arms the debounce timer.
func (w *PresetWatcher) handleEvent(event fsnotify.Event) {
	if event.Op&relevantOps == 0 {
		return
	}
	name, err := filepath.Abs(event.Name)
	if err != nil || name != w.path {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.pending != nil {
		w.pending.Reset(w.opts.debounce)
		return
	}
	w.pending = time.AfterFunc(w.opts.debounce, w.fire)
}

// fire marks the debounce window elapsed and wakes processLoop to
// deliver the notification.
func (w *PresetWatcher) fire() {
	w.mu.Lock()
	w.pending = nil
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return
	}

	select {
	case w.notify <- struct{}{}:
	default:
	}
}

func (w *PresetWatcher) sendError(err error) {
	select {
	case w.errors <- err:
	default:
	}
}
