package vectorindex

import (
	"fmt"
	"os"
	"strings"

	"github.com/devcareer/compass-backend/internal/platform/logger"
)

// FromEnv selects the index backend. VECTOR_INDEX_PROVIDER=qdrant enables the
// Qdrant adapter (and then the QDRANT_* variables are required); anything else
// gets the in-memory index.
func FromEnv(log *logger.Logger) (Index, error) {
	provider := strings.ToLower(strings.TrimSpace(os.Getenv("VECTOR_INDEX_PROVIDER")))
	switch provider {
	case "", "memory":
		if log != nil {
			log.Info("in-memory vector index selected", "provider", "memory")
		}
		return NewMemoryIndex(), nil
	case "qdrant":
		cfg, err := ResolveQdrantConfigFromEnv()
		if err != nil {
			return nil, err
		}
		return NewQdrantIndex(log, cfg)
	default:
		return nil, fmt.Errorf("unknown VECTOR_INDEX_PROVIDER=%q; expected memory or qdrant", provider)
	}
}
