// Package watcher adapts fsnotify to ports.Watcher.
package watcher

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/cheetah/internal/core/ports"
)

var (
	_ ports.Watcher        = (*Watcher)(nil)
	_ ports.WatcherFactory = (*Factory)(nil)
)

// Factory creates one independent fsnotify watcher per session.
type Factory struct{}

// NewFactory returns a new Factory.
func NewFactory() *Factory {
	return &Factory{}
}

// NewWatcher returns a watcher with no paths attached.
func (f *Factory) NewWatcher() (ports.Watcher, error) {
	return NewWatcher()
}

// Watcher implements non-recursive file system watching using fsnotify.
// Every path is subscribed individually.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	events    chan ports.WatchEvent
	errs      chan error

	done      chan struct{}
	exited    chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// NewWatcher creates a new file system watcher and starts forwarding its notifications.
func NewWatcher() (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fsWatcher: fsWatcher,
		events:    make(chan ports.WatchEvent),
		errs:      make(chan error),
		done:      make(chan struct{}),
		exited:    make(chan struct{}),
	}
	go w.processEvents()
	return w, nil
}

// Add subscribes to notifications for path. Directories are watched for
// changes to their direct entries only.
func (w *Watcher) Add(path string) error {
	return w.fsWatcher.Add(path)
}

// Events returns the raw notification stream.
func (w *Watcher) Events() <-chan ports.WatchEvent {
	return w.events
}

// Errors returns failures reported by fsnotify.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Close unsubscribes every path and waits for the forwarding goroutine to exit.
// It is safe to call more than once.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		close(w.done)
		w.closeErr = w.fsWatcher.Close()
		<-w.exited
	})
	return w.closeErr
}

// processEvents forwards raw fsnotify notifications until Close is called.
func (w *Watcher) processEvents() {
	defer close(w.exited)
	defer close(w.errs)
	defer close(w.events)

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			select {
			case w.events <- convertEvent(event):
			case <-w.done:
				return
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			case <-w.done:
				return
			}
		}
	}
}

// convertEvent converts an fsnotify event to a ports.WatchEvent.
// When fsnotify merges several operations into one event the most significant wins.
func convertEvent(event fsnotify.Event) ports.WatchEvent {
	return ports.WatchEvent{
		Path:      event.Name,
		Operation: convertOp(event.Op),
	}
}

func convertOp(op fsnotify.Op) ports.WatchOp {
	switch {
	case op.Has(fsnotify.Create):
		return ports.OpCreate
	case op.Has(fsnotify.Remove):
		return ports.OpRemove
	case op.Has(fsnotify.Write):
		return ports.OpWrite
	case op.Has(fsnotify.Chmod):
		return ports.OpChmod
	case op.Has(fsnotify.Rename):
		return ports.OpRename
	default:
		return ports.OpUnknown
	}
}
