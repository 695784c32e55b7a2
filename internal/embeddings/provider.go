package embeddings

import (
	"context"
	"crypto/md5"
	"encoding/binary"
	"math"
	"math/rand"
	"sync"

	"github.com/devcareer/compass-backend/internal/platform/ctxutil"
	"github.com/devcareer/compass-backend/internal/platform/logger"
)

const DefaultDim = 384

// ModelClient is the learned-model path. The OpenAI platform client satisfies
// it; tests inject stubs.
type ModelClient interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// Provider turns free text into unit-length vectors of a fixed dimension.
// Embed never fails the caller: when the model path errors in any way the
// provider falls back to a deterministic hash-based embedding, so the same
// text always maps to the same vector even fully offline.
type Provider struct {
	log   *logger.Logger
	model ModelClient
	dim   int

	mu    sync.RWMutex
	cache map[string][]float32
}

// NewProvider builds a provider of dim-sized vectors. model may be nil, in
// which case every embedding takes the hash fallback.
func NewProvider(log *logger.Logger, model ModelClient, dim int) *Provider {
	if dim <= 0 {
		dim = DefaultDim
	}
	var scoped *logger.Logger
	if log != nil {
		scoped = log.With("service", "EmbeddingProvider")
	}
	return &Provider{
		log:   scoped,
		model: model,
		dim:   dim,
		cache: make(map[string][]float32),
	}
}

func (p *Provider) Dim() int { return p.dim }

func (p *Provider) Embed(ctx context.Context, text string) []float32 {
	p.mu.RLock()
	cached, ok := p.cache[text]
	p.mu.RUnlock()
	if ok {
		return cloneVector(cached)
	}

	vec := p.modelEmbed(ctx, text)
	if vec == nil {
		vec = HashEmbedding(text, p.dim)
	}

	p.mu.Lock()
	p.cache[text] = vec
	p.mu.Unlock()
	return cloneVector(vec)
}

func (p *Provider) modelEmbed(ctx context.Context, text string) []float32 {
	if p.model == nil {
		return nil
	}
	callCtx, cancel := ctxutil.Default(ctx)
	defer cancel()

	out, err := p.model.Embed(callCtx, []string{text})
	if err != nil {
		if p.log != nil {
			p.log.Warn("model embedding failed; using hash fallback", "error", err)
		}
		return nil
	}
	if len(out) != 1 || len(out[0]) == 0 {
		if p.log != nil {
			p.log.Warn("model embedding malformed; using hash fallback", "vectors", len(out))
		}
		return nil
	}
	vec := fitDim(out[0], p.dim)
	if !normalize(vec) {
		return nil
	}
	return vec
}

// HashEmbedding is the deterministic fallback: a stable hash of the text
// seeds a PRNG, dim standard-normal draws are taken, and the result is
// L2-normalized. Pure function of (text, dim).
func HashEmbedding(text string, dim int) []float32 {
	if dim <= 0 {
		dim = DefaultDim
	}
	sum := md5.Sum([]byte(text))
	seed := int64(binary.BigEndian.Uint64(sum[:8]) & math.MaxInt64)
	rng := rand.New(rand.NewSource(seed))

	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = float32(rng.NormFloat64())
	}
	// A zero draw across every component is not reachable in practice, but
	// normalize reports it and we fall through to a basis vector.
	if !normalize(vec) {
		vec[0] = 1
	}
	return vec
}

// Cosine is the similarity measure used for derived graph edges and the
// in-memory index.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := 0; i < len(a); i++ {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func fitDim(vec []float32, dim int) []float32 {
	if len(vec) == dim {
		return cloneVector(vec)
	}
	out := make([]float32, dim)
	copy(out, vec)
	return out
}

// normalize scales vec to unit L2 norm in place. Returns false when the
// vector has zero norm and cannot be normalized.
func normalize(vec []float32) bool {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return false
	}
	inv := 1.0 / math.Sqrt(sum)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) * inv)
	}
	return true
}

func cloneVector(vec []float32) []float32 {
	out := make([]float32, len(vec))
	copy(out, vec)
	return out
}
