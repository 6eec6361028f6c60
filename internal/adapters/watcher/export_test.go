package watcher

import (
	"github.com/fsnotify/fsnotify"
	"go.trai.ch/cheetah/internal/core/ports"
)

// ConvertOp exposes convertOp for tests.
func ConvertOp(op fsnotify.Op) ports.WatchOp {
	return convertOp(op)
}
