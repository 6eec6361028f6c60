package domain

import (
	"fmt"

	"go.trai.ch/zerr"
)

var (
	// ErrDuplicateUID is returned when registering a uid that is already active.
	ErrDuplicateUID = zerr.New("watcher with this uid is already registered")

	// ErrUIDNotFound is returned when unregistering a uid that is not active.
	ErrUIDNotFound = zerr.New("watcher with this uid is already unregistered or does not exist")

	// ErrSessionLimitReached is returned when the configured session cap is exhausted.
	ErrSessionLimitReached = zerr.New("maximum number of watch sessions reached")

	// ErrWatchAttachFailed is returned when the notification primitive rejects a path.
	ErrWatchAttachFailed = zerr.New("failed to watch path")

	// ErrWatcherCreateFailed is returned when a notification primitive cannot be created.
	ErrWatcherCreateFailed = zerr.New("failed to create file watcher")

	// ErrInvalidPattern is reported when a pattern is not a valid glob.
	ErrInvalidPattern = zerr.New("pattern is not a valid glob pattern")

	// ErrPatternNoMatch is reported when a valid pattern matches no paths.
	ErrPatternNoMatch = zerr.New("pattern did not match any path")

	// ErrInvalidWorkingDir is returned when the working directory cannot be resolved.
	ErrInvalidWorkingDir = zerr.New("failed to resolve working directory")

	// ErrUnknownEventType is returned when an event type name is not recognized.
	ErrUnknownEventType = zerr.New("unknown event type, expected 'create', 'change' or 'delete'")

	// ErrMalformedCommand is returned when a command line is not valid JSON.
	ErrMalformedCommand = zerr.New("malformed command")

	// ErrUnknownCommand is returned when a command name is not recognized.
	ErrUnknownCommand = zerr.New("unknown command, expected 'register' or 'unregister'")

	// ErrMissingUID is returned when a register command has no uid.
	ErrMissingUID = zerr.New("missing uid")

	// ErrTransportRead is returned when the command stream cannot be read.
	ErrTransportRead = zerr.New("failed to read command stream")

	// ErrTransportWrite is returned when the output stream cannot be written.
	ErrTransportWrite = zerr.New("failed to write output stream")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidConfig is returned when a config value is out of range.
	ErrInvalidConfig = zerr.New("invalid configuration")
)

// Tag attaches key/value metadata to sentinel. The result renders like the
// sentinel and still matches it with errors.Is.
func Tag(sentinel error, key string, value any) error {
	return zerr.With(zerr.Wrap(sentinel, ""), key, value)
}

// Wrap reports cause under sentinel as "<sentinel>: <cause>". Both stay in the
// chain, so errors.Is matches either of them.
func Wrap(sentinel, cause error) error {
	return zerr.Wrap(fmt.Errorf("%w: %w", sentinel, cause), "")
}
