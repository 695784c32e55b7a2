package vectorindex

import "testing"

func TestResolveQdrantConfigFromEnvValid(t *testing.T) {
	t.Setenv("QDRANT_URL", "http://qdrant:6333")
	t.Setenv("QDRANT_COLLECTION_PREFIX", "devcareer")
	t.Setenv("QDRANT_VECTOR_DIM", "384")

	cfg, err := ResolveQdrantConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveQdrantConfigFromEnv: %v", err)
	}
	if cfg.URL != "http://qdrant:6333" {
		t.Fatalf("URL: want=%q got=%q", "http://qdrant:6333", cfg.URL)
	}
	if cfg.CollectionPrefix != "devcareer" {
		t.Fatalf("CollectionPrefix: want=%q got=%q", "devcareer", cfg.CollectionPrefix)
	}
	if cfg.VectorDim != 384 {
		t.Fatalf("VectorDim: want=%d got=%d", 384, cfg.VectorDim)
	}
}

func TestResolveQdrantConfigFromEnvDefaultPrefix(t *testing.T) {
	t.Setenv("QDRANT_URL", "http://qdrant:6333")
	t.Setenv("QDRANT_COLLECTION_PREFIX", "")
	t.Setenv("QDRANT_VECTOR_DIM", "384")

	cfg, err := ResolveQdrantConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveQdrantConfigFromEnv: %v", err)
	}
	if cfg.CollectionPrefix != "devcareer" {
		t.Fatalf("CollectionPrefix: want=%q got=%q", "devcareer", cfg.CollectionPrefix)
	}
}

func TestResolveQdrantConfigFromEnvMissingURL(t *testing.T) {
	t.Setenv("QDRANT_URL", "")
	t.Setenv("QDRANT_VECTOR_DIM", "384")

	_, err := ResolveQdrantConfigFromEnv()
	if err == nil {
		t.Fatalf("ResolveQdrantConfigFromEnv: expected error, got nil")
	}
	cfgErr, ok := err.(*ConfigError)
	if !ok {
		t.Fatalf("expected *ConfigError, got=%T", err)
	}
	if cfgErr.Code != ConfigErrorMissingURL {
		t.Fatalf("code: want=%q got=%q", ConfigErrorMissingURL, cfgErr.Code)
	}
}

func TestResolveQdrantConfigFromEnvInvalidURL(t *testing.T) {
	t.Setenv("QDRANT_URL", "qdrant:6333")
	t.Setenv("QDRANT_VECTOR_DIM", "384")

	_, err := ResolveQdrantConfigFromEnv()
	if err == nil {
		t.Fatalf("ResolveQdrantConfigFromEnv: expected error, got nil")
	}
	cfgErr, ok := err.(*ConfigError)
	if !ok {
		t.Fatalf("expected *ConfigError, got=%T", err)
	}
	if cfgErr.Code != ConfigErrorInvalidURL {
		t.Fatalf("code: want=%q got=%q", ConfigErrorInvalidURL, cfgErr.Code)
	}
}

func TestResolveQdrantConfigFromEnvMissingVectorDim(t *testing.T) {
	t.Setenv("QDRANT_URL", "http://qdrant:6333")
	t.Setenv("QDRANT_VECTOR_DIM", "")

	_, err := ResolveQdrantConfigFromEnv()
	if err == nil {
		t.Fatalf("ResolveQdrantConfigFromEnv: expected error, got nil")
	}
	cfgErr, ok := err.(*ConfigError)
	if !ok {
		t.Fatalf("expected *ConfigError, got=%T", err)
	}
	if cfgErr.Code != ConfigErrorMissingVectorDim {
		t.Fatalf("code: want=%q got=%q", ConfigErrorMissingVectorDim, cfgErr.Code)
	}
}

func TestResolveQdrantConfigFromEnvInvalidVectorDim(t *testing.T) {
	t.Setenv("QDRANT_URL", "http://qdrant:6333")
	t.Setenv("QDRANT_VECTOR_DIM", "0")

	_, err := ResolveQdrantConfigFromEnv()
	if err == nil {
		t.Fatalf("ResolveQdrantConfigFromEnv: expected error, got nil")
	}
	cfgErr, ok := err.(*ConfigError)
	if !ok {
		t.Fatalf("expected *ConfigError, got=%T", err)
	}
	if cfgErr.Code != ConfigErrorInvalidVectorDim {
		t.Fatalf("code: want=%q got=%q", ConfigErrorInvalidVectorDim, cfgErr.Code)
	}
}
