// Package registrar owns the active watch sessions and their debounced event streams.
package registrar

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.trai.ch/cheetah/internal/core/domain"
	"go.trai.ch/cheetah/internal/core/ports"
	"go.trai.ch/zerr"
)

// Registrar maps caller-assigned uids to live sessions.
//
// Register and Unregister are the only operations that mutate the map; the
// lock makes the uniqueness check and the insertion a single step even when a
// caller does not serialize them.
type Registrar struct {
	watchers    ports.WatcherFactory
	logger      ports.Logger
	tracer      ports.Tracer
	maxSessions int

	mu       sync.Mutex
	sessions map[uint64]*session
}

// Option configures a Registrar.
type Option func(*Registrar)

// WithMaxSessions caps the number of concurrently registered sessions. Zero means unlimited.
func WithMaxSessions(n int) Option {
	return func(r *Registrar) {
		r.maxSessions = n
	}
}

// New creates an empty Registrar.
func New(watchers ports.WatcherFactory, logger ports.Logger, tracer ports.Tracer, opts ...Option) *Registrar {
	r := &Registrar{
		watchers: watchers,
		logger:   logger,
		tracer:   tracer,
		sessions: make(map[uint64]*session),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register starts a session watching paths and returns its event stream.
//
// The stream yields events in flush order and is closed when the session is
// unregistered or the registrar is closed. Either every path is attached or no
// session is created.
func (r *Registrar) Register(
	ctx context.Context,
	opts domain.RegisterOptions,
	paths []string,
) (<-chan domain.FSEvent, error) {
	_, span := r.tracer.Start(ctx, "registrar.register")
	defer span.End()
	span.SetAttribute("uid", opts.UID)
	span.SetAttribute("paths", len(paths))

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[opts.UID]; ok {
		err := domain.Tag(domain.ErrDuplicateUID, "uid", opts.UID)
		span.RecordError(err)
		return nil, err
	}

	if r.maxSessions > 0 && len(r.sessions) >= r.maxSessions {
		err := zerr.With(domain.Tag(domain.ErrSessionLimitReached, "uid", opts.UID), "max", r.maxSessions)
		span.RecordError(err)
		return nil, err
	}

	watcher, err := r.attach(opts.UID, paths)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s := newSession(opts, slices.Clone(paths), watcher, r.logger, r.tracer)
	r.sessions[opts.UID] = s
	s.start()

	r.logger.Debug(fmt.Sprintf("session %d registered: %d paths, debounce %s", opts.UID, len(paths), opts.Debounce))
	return s.out, nil
}

// attach creates a watcher and subscribes it to every path, closing it again
// if any path is rejected.
func (r *Registrar) attach(uid uint64, paths []string) (ports.Watcher, error) {
	watcher, err := r.watchers.NewWatcher()
	if err != nil {
		return nil, zerr.With(domain.Wrap(domain.ErrWatcherCreateFailed, err), "uid", uid)
	}

	for _, path := range paths {
		if err := watcher.Add(path); err != nil {
			_ = watcher.Close()
			return nil, zerr.With(domain.Wrap(domain.ErrWatchAttachFailed, err), "path", path)
		}
	}
	return watcher, nil
}

// Unregister tears down the session identified by uid.
//
// When it returns nil the session's watcher has released every path and its
// stream is closed; no further events for uid are delivered.
func (r *Registrar) Unregister(ctx context.Context, uid uint64) error {
	_, span := r.tracer.Start(ctx, "registrar.unregister")
	defer span.End()
	span.SetAttribute("uid", uid)

	r.mu.Lock()
	s, ok := r.sessions[uid]
	if !ok {
		r.mu.Unlock()
		err := domain.Tag(domain.ErrUIDNotFound, "uid", uid)
		span.RecordError(err)
		return err
	}
	delete(r.sessions, uid)
	r.mu.Unlock()

	return r.teardown(s)
}

// Close tears down every session. The registrar stays usable afterwards.
func (r *Registrar) Close() error {
	r.mu.Lock()
	sessions := make([]*session, 0, len(r.sessions))
	for uid, s := range r.sessions {
		sessions = append(sessions, s)
		delete(r.sessions, uid)
	}
	r.mu.Unlock()

	var errs error
	for _, s := range sessions {
		errs = errors.Join(errs, r.teardown(s))
	}
	return errs
}

// Len returns the number of active sessions.
func (r *Registrar) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registrar) teardown(s *session) error {
	err := s.stop()
	r.logger.Debug(fmt.Sprintf(
		"session %d unregistered: released %d paths, %d events delivered, %d failed flushes",
		s.opts.UID, len(s.paths), s.delivered, s.failedFlushes,
	))
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to release watcher"), "uid", s.opts.UID)
	}
	return nil
}
