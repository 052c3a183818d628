package health

import (
	"context"

	"github.com/kailas-cloud/celearn/internal/kb"
)

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// KnowledgeBase reports the size of the loaded knowledge base.
type KnowledgeBase interface {
	Stats() kb.Stats
}
