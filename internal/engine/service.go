package engine

import (
	"context"
	"strconv"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/devcareer/compass-backend/internal/domain"
	"github.com/devcareer/compass-backend/internal/embeddings"
	"github.com/devcareer/compass-backend/internal/graph"
	"github.com/devcareer/compass-backend/internal/platform/logger"
	"github.com/devcareer/compass-backend/internal/roles"
	"github.com/devcareer/compass-backend/internal/vectorindex"
)

const (
	DefaultTopK = 5

	confidenceFloor = 0.1
	confidenceCeil  = 0.9
)

// roleScoringCategories gates stage 3: role scoring only makes sense for
// queries about where a skill set can lead.
var roleScoringCategories = map[Category]bool{
	CategoryCareerGuidance: true,
}

type Config struct {
	// TopK is the per-collection seed count. Zero means DefaultTopK.
	TopK int
	// MinOverlap discards roles below this core-skill overlap in stage 3.
	// Zero means DefaultMinOverlap.
	MinOverlap float64
}

// GraphMirror receives each freshly built graph. The neo4j mirror implements
// it; a sync failure degrades observability, not answers.
type GraphMirror interface {
	Sync(ctx context.Context, g *graph.Graph) error
}

// AnswerCache stores synthesized answers keyed by (query, category, graph
// version). Misses and backend failures both read as "not cached".
type AnswerCache interface {
	Get(ctx context.Context, key string) (*Answer, bool)
	Set(ctx context.Context, key string, answer *Answer)
}

// Service is the Graph-RAG query engine. The current graph hangs off an
// atomic pointer: Refresh builds a fresh graph and swaps it in while
// in-flight queries keep reading the version they started with.
type Service struct {
	log      *logger.Logger
	embedder *embeddings.Provider
	index    vectorindex.Index
	catalog  *roles.Catalog
	builder  *graph.Builder
	mirror   GraphMirror
	cache    AnswerCache
	cfg      Config
	tracer   trace.Tracer

	current atomic.Pointer[graph.Graph]
}

type Option func(*Service)

func WithMirror(m GraphMirror) Option { return func(s *Service) { s.mirror = m } }

func WithAnswerCache(c AnswerCache) Option { return func(s *Service) { s.cache = c } }

func NewService(
	log *logger.Logger,
	embedder *embeddings.Provider,
	index vectorindex.Index,
	catalog *roles.Catalog,
	builder *graph.Builder,
	cfg Config,
	opts ...Option,
) *Service {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.MinOverlap <= 0 {
		cfg.MinOverlap = DefaultMinOverlap
	}
	var scoped *logger.Logger
	if log != nil {
		scoped = log.With("service", "QueryEngine")
	}
	s := &Service{
		log:      scoped,
		embedder: embedder,
		index:    index,
		catalog:  catalog,
		builder:  builder,
		cfg:      cfg,
		tracer:   otel.Tracer("compass/engine"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh rebuilds the graph from a snapshot and re-seeds the similarity
// index. The graph pointer is swapped as soon as the build finishes, so
// queries see the new version even if index upserts then fail; upsert errors
// are returned for the operator but leave the engine serving.
func (s *Service) Refresh(ctx context.Context, snap *domain.Snapshot) error {
	ctx, span := s.tracer.Start(ctx, "engine.Refresh")
	defer span.End()

	g := s.builder.Build(ctx, snap)
	s.current.Store(g)
	span.SetAttributes(
		attribute.Int("graph.nodes", g.NodeCount()),
		attribute.Int("graph.edges", g.EdgeCount()),
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error { return s.upsertNodes(egCtx, g, graph.KindSkill, vectorindex.CollectionSkills) })
	eg.Go(func() error { return s.upsertNodes(egCtx, g, graph.KindPerson, vectorindex.CollectionPeople) })
	eg.Go(func() error { return s.upsertNodes(egCtx, g, graph.KindRepository, vectorindex.CollectionRepositories) })
	eg.Go(func() error { return s.upsertPostings(egCtx, snap) })
	err := eg.Wait()
	if err != nil && s.log != nil {
		s.log.Warn("similarity index refresh incomplete", "error", err)
	}

	if s.mirror != nil {
		if mirrorErr := s.mirror.Sync(ctx, g); mirrorErr != nil && s.log != nil {
			s.log.Warn("graph mirror sync failed", "error", mirrorErr)
		}
	}

	if s.log != nil {
		s.log.Info("engine refreshed",
			"graph_version", g.Version.String(),
			"nodes", g.NodeCount(),
			"edges", g.EdgeCount(),
		)
	}
	return err
}

func (s *Service) upsertNodes(ctx context.Context, g *graph.Graph, kind graph.NodeKind, collection vectorindex.Collection) error {
	var vectors []vectorindex.Vector
	g.ForEachNode(func(n graph.Node) {
		if n.Kind() != kind {
			return
		}
		vectors = append(vectors, vectorindex.Vector{
			ID:         n.NodeID(),
			Values:     n.Vector(),
			Attributes: map[string]any{"name": n.Label(), "kind": string(n.Kind())},
		})
	})
	if len(vectors) == 0 {
		return nil
	}
	return s.index.Upsert(ctx, collection, vectors)
}

func (s *Service) upsertPostings(ctx context.Context, snap *domain.Snapshot) error {
	if snap == nil || len(snap.Postings) == 0 {
		return nil
	}
	vectors := make([]vectorindex.Vector, 0, len(snap.Postings))
	for _, p := range snap.Postings {
		vectors = append(vectors, vectorindex.Vector{
			ID:     postingID(p.ID),
			Values: s.embedder.Embed(ctx, embeddings.PostingText(p)),
			Attributes: map[string]any{
				"name":    p.Title,
				"kind":    "posting",
				"company": p.Company,
			},
		})
	}
	return s.index.Upsert(ctx, vectorindex.CollectionPostings, vectors)
}

// Query runs the four-stage pipeline. Any stage may come back empty and the
// pipeline still completes with reduced confidence; the only hard failures
// are an engine with no graph yet and an unknown category.
func (s *Service) Query(ctx context.Context, text string, category Category) (*Answer, error) {
	g := s.current.Load()
	if g == nil {
		return nil, &Error{Code: CodeNotInitialized, Message: "no graph built yet; call Refresh first"}
	}
	collections, ok := collectionsFor(category)
	if !ok {
		return nil, &Error{Code: CodeUnknownCategory, Message: "unknown query category " + string(category)}
	}

	ctx, span := s.tracer.Start(ctx, "engine.Query", trace.WithAttributes(
		attribute.String("query.category", string(category)),
		attribute.String("graph.version", g.Version.String()),
	))
	defer span.End()

	cacheKey := answerCacheKey(text, category, g.Version.String())
	if s.cache != nil {
		if cached, hit := s.cache.Get(ctx, cacheKey); hit {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return cached, nil
		}
	}

	seeds := s.seed(ctx, text, collections)

	_, expandSpan := s.tracer.Start(ctx, "engine.Query.expand")
	insights := expand(g, s.catalog, seeds, insightsFor(category))
	expandSpan.End()

	var roleMatches []RoleMatch
	if roleScoringCategories[category] {
		_, scoreSpan := s.tracer.Start(ctx, "engine.Query.score")
		roleMatches = scoreRoles(s.catalog, seedSkillNames(g, seeds), s.cfg.MinOverlap)
		scoreSpan.End()
	}

	answer := &Answer{
		Query:        text,
		Category:     category,
		GraphVersion: g.Version.String(),
		SeedResults:  seeds,
		Insights:     insights,
		RoleMatches:  roleMatches,
	}
	answer.Confidence = confidence(answer)
	answer.SynthesizedText = synthesize(answer)
	span.SetAttributes(
		attribute.Int("seeds", len(seeds)),
		attribute.Float64("confidence", answer.Confidence),
	)

	if s.cache != nil {
		s.cache.Set(ctx, cacheKey, answer)
	}
	return answer, nil
}

// seed is stage 1. A failed search leaves that collection's contribution
// empty rather than failing the query.
func (s *Service) seed(ctx context.Context, text string, collections []vectorindex.Collection) []SeedResult {
	ctx, span := s.tracer.Start(ctx, "engine.Query.seed")
	defer span.End()

	vector := s.embedder.Embed(ctx, text)
	var seeds []SeedResult
	for _, collection := range collections {
		matches, err := s.index.Search(ctx, collection, vector, s.cfg.TopK)
		if err != nil {
			if s.log != nil {
				s.log.Warn("seed search failed", "collection", string(collection), "error", err)
			}
			continue
		}
		for _, m := range matches {
			seeds = append(seeds, SeedResult{
				Collection: collection,
				ID:         m.ID,
				Label:      attributeString(m.Attributes, "name"),
				Score:      m.Score,
			})
		}
	}
	return seeds
}

// seedSkillNames resolves the seed hits that are skill nodes into skill names
// for role scoring.
func seedSkillNames(g *graph.Graph, seeds []SeedResult) []string {
	var names []string
	seen := make(map[string]struct{})
	for _, seed := range seeds {
		node, ok := g.Node(seed.ID)
		if !ok {
			continue
		}
		sk, ok := node.(*graph.SkillNode)
		if !ok {
			continue
		}
		if _, dup := seen[sk.Record.Name]; dup {
			continue
		}
		seen[sk.Record.Name] = struct{}{}
		names = append(names, sk.Record.Name)
	}
	return names
}

// confidence is the stage 4 weighting: up to 0.4 from seed volume, up to 0.6
// from non-empty insight kinds, clamped to [0.1, 0.9].
func confidence(answer *Answer) float64 {
	conf := 0.0
	if n := len(answer.SeedResults); n > 0 {
		seedPart := float64(n) / 15.0
		if seedPart > 0.4 {
			seedPart = 0.4
		}
		conf += seedPart
	}

	insightPart := 0.0
	for _, kind := range confidenceOrder {
		increment := confidenceIncrements[kind]
		switch {
		case kind == InsightRoleMatches && len(answer.RoleMatches) > 0:
			insightPart += increment
		case answer.Insights.present(kind):
			insightPart += increment
		}
	}
	if insightPart > 0.6 {
		insightPart = 0.6
	}
	conf += insightPart

	if conf < confidenceFloor {
		conf = confidenceFloor
	}
	if conf > confidenceCeil {
		conf = confidenceCeil
	}
	return conf
}

// Stats reports statistics for the current graph version.
func (s *Service) Stats() (graph.Stats, error) {
	g := s.current.Load()
	if g == nil {
		return graph.Stats{}, &Error{Code: CodeNotInitialized, Message: "no graph built yet; call Refresh first"}
	}
	return g.ComputeStats(), nil
}

// Graph returns the current graph snapshot, or nil before the first refresh.
func (s *Service) Graph() *graph.Graph {
	return s.current.Load()
}

func postingID(id int64) string {
	return "posting_" + strconv.FormatInt(id, 10)
}

func attributeString(attrs map[string]any, key string) string {
	if attrs == nil {
		return ""
	}
	if v, ok := attrs[key].(string); ok {
		return v
	}
	return ""
}
