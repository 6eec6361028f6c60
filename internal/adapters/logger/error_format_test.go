package logger_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/cheetah/internal/adapters/logger"
	"go.trai.ch/cheetah/internal/core/domain"
	"go.trai.ch/zerr"
)

func TestFormatErrorEntries(t *testing.T) {
	tests := []struct {
		name    string
		entries []logger.ErrorEntry
		want    string
	}{
		{
			name:    "single entry",
			entries: []logger.ErrorEntry{{Message: "failed to watch path"}},
			want:    "Error: failed to watch path",
		},
		{
			name: "cause chain",
			entries: []logger.ErrorEntry{
				{Message: "failed to watch path"},
				{Message: "too many open files"},
			},
			want: "Error: failed to watch path\n\n  Caused by:\n    → too many open files",
		},
		{
			name: "metadata sorted under its entry",
			entries: []logger.ErrorEntry{
				{Message: "failed to watch path", Metadata: map[string]any{"uid": 7, "path": "/w"}},
				{Message: "permission denied", Metadata: map[string]any{"errno": 13}},
			},
			want: "Error: failed to watch path\n       path: /w\n       uid: 7\n\n" +
				"  Caused by:\n    → permission denied\n      errno: 13",
		},
		{
			name:    "multiline message",
			entries: []logger.ErrorEntry{{Message: "line1\nline2"}},
			want:    "Error: line1\n       line2",
		},
		{
			name:    "empty",
			entries: nil,
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, logger.FormatErrorEntriesExported(tt.entries))
		})
	}
}

func TestCollectErrorEntries(t *testing.T) {
	assert.Empty(t, logger.CollectErrorEntriesExported(nil))

	entries := logger.CollectErrorEntriesExported(errors.New("plain"))
	assert.Equal(t, []logger.ErrorEntry{{Message: "plain"}}, entries)

	err := zerr.Wrap(zerr.Wrap(errors.New("root cause"), "middle"), "outer")
	entries = logger.CollectErrorEntriesExported(err)
	messages := make([]string, 0, len(entries))
	for _, e := range entries {
		messages = append(messages, e.Message)
	}
	assert.Equal(t, []string{"outer", "middle", "root cause"}, messages)
}

func TestCollectErrorEntries_TaggedSentinel(t *testing.T) {
	err := domain.Tag(domain.ErrUIDNotFound, "uid", 7)

	entries := logger.CollectErrorEntriesExported(err)
	assert.Equal(t, []logger.ErrorEntry{
		{Message: domain.ErrUIDNotFound.Error(), Metadata: map[string]any{"uid": 7}},
	}, entries)
}

func TestCollectErrorEntries_WrappedCause(t *testing.T) {
	err := zerr.With(domain.Wrap(domain.ErrWatchAttachFailed, errors.New("permission denied")), "path", "/w")

	entries := logger.CollectErrorEntriesExported(err)
	assert.Equal(t, []logger.ErrorEntry{
		{Message: "failed to watch path: permission denied", Metadata: map[string]any{"path": "/w"}},
	}, entries)
}
