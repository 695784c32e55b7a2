package app

import (
	"github.com/devcareer/compass-backend/internal/platform/envutil"
)

type Config struct {
	LogMode string

	EmbedDim            int
	SimilarityThreshold float64
	TopK                int
	MinOverlap          float64

	ServiceVersion string
	Environment    string
}

// LoadConfig reads the tunables every run needs. Backend selection (vector
// index provider, snapshot DSN, neo4j, redis) stays with the components that
// own those variables.
func LoadConfig() Config {
	return Config{
		LogMode:             envutil.String("LOG_MODE", "development"),
		EmbedDim:            envutil.Int("EMBED_DIM", 0),
		SimilarityThreshold: envutil.Float("SIMILARITY_THRESHOLD", 0),
		TopK:                envutil.Int("QUERY_TOP_K", 0),
		MinOverlap:          envutil.Float("ROLE_MIN_OVERLAP", 0),
		ServiceVersion:      envutil.String("SERVICE_VERSION", "dev"),
		Environment:         envutil.String("ENVIRONMENT", "development"),
	}
}
