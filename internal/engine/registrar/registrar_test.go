package registrar_test

import (
	"errors"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/cheetah/internal/adapters/telemetry"
	"go.trai.ch/cheetah/internal/core/domain"
	"go.trai.ch/cheetah/internal/core/ports"
	"go.trai.ch/cheetah/internal/core/ports/mocks"
	"go.trai.ch/cheetah/internal/engine/registrar"
	"go.uber.org/mock/gomock"
)

const window = 100 * time.Millisecond

func newTestRegistrar(t *testing.T, factory ports.WatcherFactory, opts ...registrar.Option) *registrar.Registrar {
	t.Helper()
	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Debug(gomock.Any()).AnyTimes()
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	return registrar.New(factory, logger, telemetry.NewNoOpTracer(), opts...)
}

func testOptions(uid uint64) domain.RegisterOptions {
	opts := domain.NewRegisterOptions(uid)
	opts.Debounce = window
	return opts
}

// collect receives every event the session is ready to deliver right now.
func collect(out <-chan domain.FSEvent) []domain.FSEvent {
	var got []domain.FSEvent
	for {
		synctest.Wait()
		select {
		case event, ok := <-out:
			if !ok {
				return got
			}
			got = append(got, event)
		default:
			return got
		}
	}
}

func TestRegister_AttachesEveryPath(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		w := newFakeWatcher()
		r := newTestRegistrar(t, newFakeFactory(w))

		out, err := r.Register(t.Context(), testOptions(1), []string{"/src/a", "/src/b"})
		require.NoError(t, err)
		require.NotNil(t, out)

		assert.Equal(t, []string{"/src/a", "/src/b"}, w.paths())
		assert.Equal(t, 1, r.Len())

		require.NoError(t, r.Close())
	})
}

func TestRegister_DuplicateUID(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		first, second := newFakeWatcher(), newFakeWatcher()
		r := newTestRegistrar(t, newFakeFactory(first, second))

		_, err := r.Register(t.Context(), testOptions(7), []string{"/src"})
		require.NoError(t, err)

		_, err = r.Register(t.Context(), testOptions(7), []string{"/other"})
		require.Error(t, err)
		require.ErrorIs(t, err, domain.ErrDuplicateUID)

		// The original session is untouched and no second watcher was created.
		assert.Equal(t, 1, r.Len())
		assert.False(t, first.isClosed())
		assert.Empty(t, second.paths())

		require.NoError(t, r.Close())
	})
}

func TestRegister_AttachFailureCreatesNoSession(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		w := newFakeWatcher()
		w.failOn = "/missing"
		w.addErr = errors.New("no such file or directory")
		r := newTestRegistrar(t, newFakeFactory(w))

		_, err := r.Register(t.Context(), testOptions(3), []string{"/src", "/missing"})
		require.Error(t, err)
		require.ErrorIs(t, err, domain.ErrWatchAttachFailed)

		assert.True(t, w.isClosed())
		assert.Zero(t, r.Len())
	})
}

func TestRegister_WatcherCreateFailure(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		factory := newFakeFactory()
		factory.err = errors.New("too many open files")
		r := newTestRegistrar(t, factory)

		_, err := r.Register(t.Context(), testOptions(3), []string{"/src"})
		require.Error(t, err)
		require.ErrorIs(t, err, domain.ErrWatcherCreateFailed)
		assert.Zero(t, r.Len())
	})
}

func TestRegister_SessionLimit(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		r := newTestRegistrar(t, newFakeFactory(newFakeWatcher(), newFakeWatcher()), registrar.WithMaxSessions(1))

		_, err := r.Register(t.Context(), testOptions(1), []string{"/a"})
		require.NoError(t, err)

		_, err = r.Register(t.Context(), testOptions(2), []string{"/b"})
		require.Error(t, err)
		require.ErrorIs(t, err, domain.ErrSessionLimitReached)

		require.NoError(t, r.Unregister(t.Context(), 1))

		_, err = r.Register(t.Context(), testOptions(2), []string{"/b"})
		require.NoError(t, err)

		require.NoError(t, r.Close())
	})
}

func TestUnregister_UnknownUID(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		r := newTestRegistrar(t, newFakeFactory())

		err := r.Unregister(t.Context(), 42)
		require.Error(t, err)
		require.ErrorIs(t, err, domain.ErrUIDNotFound)
	})
}

func TestUnregister_ReleasesWatcherAndClosesStream(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		first, second := newFakeWatcher(), newFakeWatcher()
		r := newTestRegistrar(t, newFakeFactory(first, second))

		out, err := r.Register(t.Context(), testOptions(5), []string{"/src"})
		require.NoError(t, err)

		require.NoError(t, r.Unregister(t.Context(), 5))
		assert.True(t, first.isClosed())
		assert.Zero(t, r.Len())

		_, ok := <-out
		assert.False(t, ok, "stream must be closed after unregister")

		// A second unregister of the same uid fails.
		err = r.Unregister(t.Context(), 5)
		require.ErrorIs(t, err, domain.ErrUIDNotFound)

		// The uid can be reused.
		_, err = r.Register(t.Context(), testOptions(5), []string{"/src"})
		require.NoError(t, err)
		require.NoError(t, r.Close())
	})
}

func TestSession_TrailingEdgeDebounce(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		w := newFakeWatcher()
		r := newTestRegistrar(t, newFakeFactory(w))

		out, err := r.Register(t.Context(), testOptions(1), []string{"/src"})
		require.NoError(t, err)

		w.emit("/src/main.go", ports.OpWrite)
		time.Sleep(60 * time.Millisecond)
		w.emit("/src/main.go", ports.OpWrite)
		time.Sleep(60 * time.Millisecond)

		// The second notification re-armed the window; nothing is flushed yet.
		assert.Empty(t, collect(out))

		time.Sleep(50 * time.Millisecond)
		got := collect(out)
		require.Len(t, got, 1)
		assert.Equal(t, domain.FSEvent{UID: 1, EventType: domain.EventChange, Path: "/src/main.go"}, got[0])

		require.NoError(t, r.Close())
	})
}

func TestSession_FlushOrderAndCoalescing(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		w := newFakeWatcher()
		r := newTestRegistrar(t, newFakeFactory(w))

		out, err := r.Register(t.Context(), testOptions(9), []string{"/src"})
		require.NoError(t, err)

		w.emit("/src/b.go", ports.OpWrite)
		w.emit("/src/a.go", ports.OpCreate)
		w.emit("/src/a.go", ports.OpWrite)
		w.emit("/src/tmp", ports.OpCreate)
		w.emit("/src/tmp", ports.OpRemove)
		w.emit("/src/old.go", ports.OpRename)
		w.emit("/src/gone.go", ports.OpRemove)

		time.Sleep(window + time.Millisecond)
		got := collect(out)

		assert.Equal(t, []domain.FSEvent{
			{UID: 9, EventType: domain.EventChange, Path: "/src/b.go"},
			{UID: 9, EventType: domain.EventCreate, Path: "/src/a.go"},
			{UID: 9, EventType: domain.EventDelete, Path: "/src/gone.go"},
		}, got)

		require.NoError(t, r.Close())
	})
}

func TestSession_InterestFilter(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		w := newFakeWatcher()
		r := newTestRegistrar(t, newFakeFactory(w))

		opts := testOptions(2)
		opts.WatchFor = []domain.EventType{domain.EventDelete}
		out, err := r.Register(t.Context(), opts, []string{"/src"})
		require.NoError(t, err)

		w.emit("/src/new.go", ports.OpCreate)
		w.emit("/src/main.go", ports.OpChmod)
		w.emit("/src/old.go", ports.OpRemove)

		time.Sleep(window + time.Millisecond)
		got := collect(out)

		require.Len(t, got, 1)
		assert.Equal(t, domain.EventDelete, got[0].EventType)
		assert.Equal(t, "/src/old.go", got[0].Path)

		require.NoError(t, r.Close())
	})
}

func TestSession_ReplacedFileMatchesCreateFilter(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		w := newFakeWatcher()
		r := newTestRegistrar(t, newFakeFactory(w))

		opts := testOptions(2)
		opts.WatchFor = []domain.EventType{domain.EventCreate}
		out, err := r.Register(t.Context(), opts, []string{"/src"})
		require.NoError(t, err)

		// Atomic save: the old file is removed and a new one takes its place.
		w.emit("/src/a", ports.OpRemove)
		w.emit("/src/a", ports.OpCreate)

		time.Sleep(window + time.Millisecond)
		got := collect(out)

		assert.Equal(t, []domain.FSEvent{
			{UID: 2, EventType: domain.EventCreate, Path: "/src/a"},
		}, got)

		require.NoError(t, r.Close())
	})
}

func TestSession_EmptyInterestFilterDeliversNothing(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		w := newFakeWatcher()
		r := newTestRegistrar(t, newFakeFactory(w))

		opts := testOptions(2)
		opts.WatchFor = nil
		out, err := r.Register(t.Context(), opts, []string{"/src"})
		require.NoError(t, err)

		w.emit("/src/main.go", ports.OpWrite)
		time.Sleep(window + time.Millisecond)
		assert.Empty(t, collect(out))

		require.NoError(t, r.Close())
	})
}

func TestSession_WatcherErrorDropsWindow(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		logger := mocks.NewMockLogger(ctrl)
		logger.EXPECT().Debug(gomock.Any()).AnyTimes()
		logger.EXPECT().Warn(gomock.Any()).Times(1)

		w := newFakeWatcher()
		r := registrar.New(newFakeFactory(w), logger, telemetry.NewNoOpTracer())

		out, err := r.Register(t.Context(), testOptions(4), []string{"/src"})
		require.NoError(t, err)

		w.emit("/src/a.go", ports.OpWrite)
		w.fail(errors.New("event queue overflow"))
		time.Sleep(window + time.Millisecond)
		assert.Empty(t, collect(out))

		// The session survives and the next window is delivered.
		assert.Equal(t, 1, r.Len())
		w.emit("/src/b.go", ports.OpWrite)
		time.Sleep(window + time.Millisecond)
		got := collect(out)
		require.Len(t, got, 1)
		assert.Equal(t, "/src/b.go", got[0].Path)

		require.NoError(t, r.Close())
	})
}

func TestSession_NoCrossSessionLeakage(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		wa, wb := newFakeWatcher(), newFakeWatcher()
		r := newTestRegistrar(t, newFakeFactory(wa, wb))

		outA, err := r.Register(t.Context(), testOptions(1), []string{"/shared"})
		require.NoError(t, err)
		outB, err := r.Register(t.Context(), testOptions(2), []string{"/shared"})
		require.NoError(t, err)

		wa.emit("/shared/x", ports.OpCreate)
		time.Sleep(window + time.Millisecond)

		gotA := collect(outA)
		require.Len(t, gotA, 1)
		assert.Equal(t, uint64(1), gotA[0].UID)
		assert.Empty(t, collect(outB))

		require.NoError(t, r.Unregister(t.Context(), 1))
		wb.emit("/shared/y", ports.OpWrite)
		time.Sleep(window + time.Millisecond)

		gotB := collect(outB)
		require.Len(t, gotB, 1)
		assert.Equal(t, uint64(2), gotB[0].UID)

		require.NoError(t, r.Close())
	})
}

func TestUnregister_DiscardsPendingWindow(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		w := newFakeWatcher()
		r := newTestRegistrar(t, newFakeFactory(w))

		out, err := r.Register(t.Context(), testOptions(6), []string{"/src"})
		require.NoError(t, err)

		w.emit("/src/a.go", ports.OpWrite)
		time.Sleep(window / 2)
		require.NoError(t, r.Unregister(t.Context(), 6))

		time.Sleep(window)
		_, ok := <-out
		assert.False(t, ok, "no event may follow unregister")
	})
}

func TestUnregister_WithStalledConsumer(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		w := newFakeWatcher()
		r := newTestRegistrar(t, newFakeFactory(w))

		out, err := r.Register(t.Context(), testOptions(8), []string{"/src"})
		require.NoError(t, err)

		w.emit("/src/a.go", ports.OpWrite)
		w.emit("/src/b.go", ports.OpWrite)
		time.Sleep(window + time.Millisecond)
		synctest.Wait()

		// The worker is blocked delivering; unregister must still complete.
		require.NoError(t, r.Unregister(t.Context(), 8))

		_, ok := <-out
		assert.False(t, ok)
	})
}

func TestClose_TearsDownEverySession(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		wa, wb := newFakeWatcher(), newFakeWatcher()
		r := newTestRegistrar(t, newFakeFactory(wa, wb))

		outA, err := r.Register(t.Context(), testOptions(1), []string{"/a"})
		require.NoError(t, err)
		outB, err := r.Register(t.Context(), testOptions(2), []string{"/b"})
		require.NoError(t, err)

		require.NoError(t, r.Close())
		assert.Equal(t, 0, r.Len())
		assert.True(t, wa.isClosed())
		assert.True(t, wb.isClosed())

		_, ok := <-outA
		assert.False(t, ok)
		_, ok = <-outB
		assert.False(t, ok)
	})
}
