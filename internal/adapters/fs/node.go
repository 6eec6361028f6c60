package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/cheetah/internal/core/ports"
)

// ResolverNodeID is the unique identifier for the path resolver Graft node.
const ResolverNodeID graft.ID = "adapter.fs.resolver"

func init() {
	graft.Register(graft.Node[ports.PathResolver]{
		ID:        ResolverNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.PathResolver, error) {
			return NewResolver(), nil
		},
	})
}
