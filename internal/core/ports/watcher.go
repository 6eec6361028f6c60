package ports

//go:generate go run go.uber.org/mock/mockgen -source=watcher.go -destination=mocks/mock_watcher.go -package=mocks

// WatchOp represents the kind of a raw file system notification.
type WatchOp uint8

const (
	// OpUnknown is a notification the primitive could not attribute to a known kind.
	OpUnknown WatchOp = iota
	// OpCreate indicates a file or directory was created.
	OpCreate
	// OpWrite indicates a file's content was modified.
	OpWrite
	// OpChmod indicates a file's metadata was modified.
	OpChmod
	// OpRemove indicates a file or directory was removed.
	OpRemove
	// OpRename indicates a file or directory was renamed away from Path.
	OpRename
)

// WatchEvent represents a raw file system notification, before classification.
type WatchEvent struct {
	// Path is the path the notification refers to. It may be empty.
	Path string
	// Operation is the kind of change that occurred.
	Operation WatchOp
}

// Watcher is one subscription to the OS notification primitive.
// Every path is watched individually; closing the watcher unsubscribes all of them.
type Watcher interface {
	// Add subscribes to notifications for path.
	Add(path string) error
	// Events returns the raw notification stream. It is closed by Close.
	Events() <-chan WatchEvent
	// Errors returns failures reported by the primitive while watching. It is closed by Close.
	Errors() <-chan error
	// Close unsubscribes every path and releases the primitive.
	Close() error
}

// WatcherFactory creates independent watchers, one per session.
type WatcherFactory interface {
	// NewWatcher returns a watcher with no paths attached.
	NewWatcher() (Watcher, error)
}
