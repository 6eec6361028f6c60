package protocol

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"go.trai.ch/cheetah/internal/core/domain"
	"go.trai.ch/zerr"
)

// Section headers written around the resolver diagnostics of a register command.
const (
	HeaderInvalidPatterns = "invalid patterns..."
	HeaderInvalidIgnores  = "invalid ignores..."
	HeaderWatchingPaths   = "watching paths..."
)

// ResolutionLines renders the resolver outcome as the diagnostic block that
// precedes a session's events. Sections are separated by an empty line.
func ResolutionLines(res *domain.Resolution) []string {
	lines := make([]string, 0, len(res.PatternErrors)+len(res.IgnoreErrors)+len(res.Paths)+5)

	lines = append(lines, HeaderInvalidPatterns)
	for _, err := range res.PatternErrors {
		lines = append(lines, FormatDiagnostic(err))
	}

	lines = append(lines, "", HeaderInvalidIgnores)
	for _, err := range res.IgnoreErrors {
		lines = append(lines, FormatDiagnostic(err))
	}

	lines = append(lines, "", HeaderWatchingPaths)
	lines = append(lines, res.Paths...)
	return lines
}

// FormatDiagnostic renders err as a single diagnostic line: the messages of
// the chain joined by ": ", followed by the collected metadata.
func FormatDiagnostic(err error) string {
	if err == nil {
		return ""
	}

	var (
		messages []string
		meta     = make(map[string]any)
	)
	for current := err; current != nil; current = errors.Unwrap(current) {
		zErr, ok := current.(*zerr.Error)
		if !ok {
			messages = appendMessage(messages, current.Error())
			break
		}
		messages = appendMessage(messages, zErr.Message())
		for k, v := range zErr.Metadata() {
			if _, exists := meta[k]; !exists {
				meta[k] = v
			}
		}
	}

	line := strings.Join(messages, ": ")
	if len(meta) == 0 {
		return line
	}

	pairs := make([]string, 0, len(meta))
	for _, k := range slices.Sorted(maps.Keys(meta)) {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, meta[k]))
	}
	return line + " (" + strings.Join(pairs, ", ") + ")"
}

// appendMessage skips empty messages and direct repeats, which occur when
// metadata is attached to a sentinel.
func appendMessage(messages []string, msg string) []string {
	msg = strings.ReplaceAll(msg, "\n", " ")
	if msg == "" {
		return messages
	}
	if n := len(messages); n > 0 && messages[n-1] == msg {
		return messages
	}
	return append(messages, msg)
}
