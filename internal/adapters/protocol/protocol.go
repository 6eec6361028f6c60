// Package protocol encodes and decodes the line-delimited JSON command protocol.
//
// Each input line holds exactly one command:
//
//	{"register": {"uid": 7, "cwd": ".", "debounce_changes": 400, "watch_for": ["create"], "patterns": ["src"], "ignores": []}}
//	{"unregister": 7}
//
// Output lines are either FSEvent objects or free-text diagnostics.
package protocol

import (
	"bytes"
	"encoding/json"
	"math"
	"time"

	"go.trai.ch/cheetah/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	registerKey   = "register"
	unregisterKey = "unregister"
)

// maxDebounceMillis is the longest window, in milliseconds, a time.Duration can hold.
const maxDebounceMillis = uint64(math.MaxInt64 / int64(time.Millisecond))

// Command is one decoded protocol command. Exactly one field is set.
type Command struct {
	Register   *domain.RegisterOptions
	Unregister *uint64
}

// registerRequest mirrors the register payload. Absent fields keep their defaults.
type registerRequest struct {
	UID             *uint64             `json:"uid"`
	Cwd             *string             `json:"cwd"`
	DebounceChanges *uint64             `json:"debounce_changes"`
	WatchFor        *[]domain.EventType `json:"watch_for"`
	Patterns        *[]string           `json:"patterns"`
	Ignores         *[]string           `json:"ignores"`
}

func (r registerRequest) options() domain.RegisterOptions {
	opts := domain.NewRegisterOptions(*r.UID)
	if r.Cwd != nil {
		opts.Cwd = *r.Cwd
	}
	if r.DebounceChanges != nil {
		//nolint:gosec // G115: bounded by maxDebounceMillis in decodeRegister
		opts.Debounce = time.Duration(*r.DebounceChanges) * time.Millisecond
	}
	if r.WatchFor != nil {
		opts.WatchFor = *r.WatchFor
	}
	if r.Patterns != nil {
		opts.Patterns = *r.Patterns
	}
	if r.Ignores != nil {
		opts.Ignores = *r.Ignores
	}
	return opts
}

// Decode parses one command line.
func Decode(line string) (Command, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(line), &envelope); err != nil {
		return Command{}, domain.Wrap(domain.ErrMalformedCommand, err)
	}
	if len(envelope) != 1 {
		return Command{}, domain.Tag(domain.ErrUnknownCommand, "keys", len(envelope))
	}

	for name, payload := range envelope {
		switch name {
		case registerKey:
			return decodeRegister(payload)
		case unregisterKey:
			return decodeUnregister(payload)
		default:
			return Command{}, domain.Tag(domain.ErrUnknownCommand, "command", name)
		}
	}
	return Command{}, domain.ErrUnknownCommand
}

func decodeRegister(payload json.RawMessage) (Command, error) {
	var req registerRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return Command{}, zerr.With(domain.Wrap(domain.ErrMalformedCommand, err), "command", registerKey)
	}
	if req.UID == nil {
		return Command{}, domain.Tag(domain.ErrMissingUID, "command", registerKey)
	}
	if req.DebounceChanges != nil && *req.DebounceChanges > maxDebounceMillis {
		err := zerr.With(domain.Tag(domain.ErrMalformedCommand, "command", registerKey), "debounce_changes", *req.DebounceChanges)
		return Command{}, zerr.With(err, "max", maxDebounceMillis)
	}
	opts := req.options()
	return Command{Register: &opts}, nil
}

func decodeUnregister(payload json.RawMessage) (Command, error) {
	if bytes.Equal(bytes.TrimSpace(payload), []byte("null")) {
		return Command{}, domain.Tag(domain.ErrMissingUID, "command", unregisterKey)
	}
	var uid uint64
	if err := json.Unmarshal(payload, &uid); err != nil {
		return Command{}, zerr.With(domain.Wrap(domain.ErrMalformedCommand, err), "command", unregisterKey)
	}
	return Command{Unregister: &uid}, nil
}

// EncodeEvent renders an event as one output line.
func EncodeEvent(event domain.FSEvent) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to encode event"), "uid", event.UID)
	}
	return string(data), nil
}
