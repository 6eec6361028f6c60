package registrar_test

import (
	"errors"
	"sync"

	"go.trai.ch/cheetah/internal/core/ports"
)

// fakeWatcher is a hand-driven ports.Watcher. Tests push raw notifications
// through emit and fail and inspect what was attached and released.
type fakeWatcher struct {
	events chan ports.WatchEvent
	errs   chan error

	mu     sync.Mutex
	added  []string
	closed bool
	failOn string
	addErr error
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{
		events: make(chan ports.WatchEvent),
		errs:   make(chan error),
	}
}

func (w *fakeWatcher) Add(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if path == w.failOn {
		return w.addErr
	}
	w.added = append(w.added, path)
	return nil
}

func (w *fakeWatcher) Events() <-chan ports.WatchEvent { return w.events }

func (w *fakeWatcher) Errors() <-chan error { return w.errs }

func (w *fakeWatcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *fakeWatcher) emit(path string, op ports.WatchOp) {
	w.events <- ports.WatchEvent{Path: path, Operation: op}
}

func (w *fakeWatcher) fail(err error) {
	w.errs <- err
}

func (w *fakeWatcher) paths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.added...)
}

func (w *fakeWatcher) isClosed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// fakeFactory hands out queued watchers in order.
type fakeFactory struct {
	mu       sync.Mutex
	watchers []*fakeWatcher
	err      error
}

func newFakeFactory(watchers ...*fakeWatcher) *fakeFactory {
	return &fakeFactory{watchers: watchers}
}

func (f *fakeFactory) NewWatcher() (ports.Watcher, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if len(f.watchers) == 0 {
		return nil, errors.New("no watcher queued")
	}
	w := f.watchers[0]
	f.watchers = f.watchers[1:]
	return w, nil
}
