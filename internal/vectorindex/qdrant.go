package vectorindex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/devcareer/compass-backend/internal/platform/ctxutil"
	"github.com/devcareer/compass-backend/internal/platform/logger"
)

const (
	payloadVectorIDKey = "_dc_vector_id"
	maxErrorBodyBytes  = 1024
)

var pointIDNamespaceUUID = uuid.MustParse("7d3b9a44-51f2-4c7e-9b0a-c2a4de7f6b21")

// QdrantIndex implements Index against the Qdrant REST API. Point ids are
// derived deterministically from (collection, vector id), so re-upserting the
// same entity after a graph rebuild replaces its point in place.
type QdrantIndex struct {
	log      *logger.Logger
	cfg      QdrantConfig
	baseURL  string
	distance map[Collection]string
	http     *http.Client
}

type qdrantEnvelope struct {
	Result json.RawMessage `json:"result"`
	Status json.RawMessage `json:"status"`
	Time   float64         `json:"time"`
}

type qdrantSearchResultItem struct {
	ID      json.RawMessage `json:"id"`
	Score   float64         `json:"score"`
	Payload map[string]any  `json:"payload"`
}

func NewQdrantIndex(log *logger.Logger, cfg QdrantConfig) (*QdrantIndex, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if err := ValidateQdrantConfig(cfg, true); err != nil {
		return nil, err
	}

	s := &QdrantIndex{
		log:      log.With("service", "QdrantIndex"),
		cfg:      cfg,
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		distance: make(map[Collection]string),
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	if err := s.verifyReady(context.Background()); err != nil {
		return nil, err
	}

	log.Info(
		"Qdrant index selected",
		"provider", "qdrant",
		"url", s.baseURL,
		"collection_prefix", cfg.CollectionPrefix,
		"vector_dim", cfg.VectorDim,
	)
	return s, nil
}

func (s *QdrantIndex) Upsert(ctx context.Context, collection Collection, vectors []Vector) error {
	if s == nil {
		return nil
	}
	const op = "upsert"
	if len(vectors) == 0 {
		return nil
	}

	points := make([]map[string]any, 0, len(vectors))
	for _, v := range vectors {
		vectorID := strings.TrimSpace(v.ID)
		if vectorID == "" {
			return opErr(op, OperationErrorValidation, "vector id is required", nil)
		}
		if len(v.Values) == 0 {
			return opErr(op, OperationErrorValidation, fmt.Sprintf("vector %q has empty values", vectorID), nil)
		}
		if s.cfg.VectorDim > 0 && len(v.Values) != s.cfg.VectorDim {
			return opErr(
				op,
				OperationErrorValidation,
				fmt.Sprintf(
					"vector %q dimension mismatch: expected=%d got=%d",
					vectorID,
					s.cfg.VectorDim,
					len(v.Values),
				),
				nil,
			)
		}
		payload := cloneAttributes(v.Attributes)
		payload[payloadVectorIDKey] = vectorID
		points = append(points, map[string]any{
			"id":      s.pointID(collection, vectorID),
			"vector":  v.Values,
			"payload": payload,
		})
	}

	req := map[string]any{"points": points}
	return s.doJSON(ctx, op, http.MethodPut, s.collectionPath(collection, "/points?wait=true"), req, nil)
}

func (s *QdrantIndex) Search(ctx context.Context, collection Collection, query []float32, topK int) ([]Match, error) {
	if s == nil {
		return nil, fmt.Errorf("qdrant index unavailable")
	}
	const op = "search"
	if len(query) == 0 {
		return nil, opErr(op, OperationErrorValidation, "query vector required", nil)
	}
	if s.cfg.VectorDim > 0 && len(query) != s.cfg.VectorDim {
		return nil, opErr(
			op,
			OperationErrorValidation,
			fmt.Sprintf("query vector dimension mismatch: expected=%d got=%d", s.cfg.VectorDim, len(query)),
			nil,
		)
	}
	if topK <= 0 {
		topK = 10
	}

	req := map[string]any{
		"vector":       query,
		"limit":        topK,
		"with_payload": true,
		"with_vector":  false,
	}
	var rawResults []qdrantSearchResultItem
	if err := s.doJSON(
		ctx,
		op,
		http.MethodPost,
		s.collectionPath(collection, "/points/search"),
		req,
		&rawResults,
	); err != nil {
		return nil, err
	}

	out := make([]Match, 0, len(rawResults))
	for _, item := range rawResults {
		id := s.extractVectorID(item)
		if id == "" {
			continue
		}
		out = append(out, Match{
			ID:         id,
			Score:      s.normalizeScore(collection, item.Score),
			Attributes: stripInternalKeys(item.Payload),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].ID < out[j].ID
		}
		return out[i].Score > out[j].Score
	})
	return out, nil
}

// CollectionName maps a logical collection to the Qdrant collection name.
// People live in the historical "developers" collection.
func (s *QdrantIndex) CollectionName(collection Collection) string {
	name := string(collection)
	if collection == CollectionPeople {
		name = "developers"
	}
	return s.cfg.CollectionPrefix + "_" + name
}

func (s *QdrantIndex) verifyReady(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("qdrant index not initialized")
	}
	const op = "bootstrap_verify"

	readyCtx, cancel := ctxutil.Default(ctx)
	defer cancel()
	readyReq, err := http.NewRequestWithContext(readyCtx, http.MethodGet, s.baseURL+"/readyz", nil)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build ready request failed", err)
	}
	readyResp, err := s.http.Do(readyReq)
	if err != nil {
		return classifyHTTPCallError(op, "qdrant ready check failed", err)
	}
	_ = readyResp.Body.Close()
	if readyResp.StatusCode < 200 || readyResp.StatusCode >= 300 {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: readyResp.StatusCode,
			Message:    fmt.Sprintf("qdrant ready check returned status=%d", readyResp.StatusCode),
		}
	}

	for _, collection := range Collections() {
		if err := s.ensureCollection(ctx, collection); err != nil {
			return err
		}
	}
	return nil
}

// ensureCollection creates a missing collection with a cosine vector space and
// records the distance metric of existing ones for score normalization.
func (s *QdrantIndex) ensureCollection(ctx context.Context, collection Collection) error {
	const op = "bootstrap_verify"

	var result struct {
		Config struct {
			Params struct {
				Vectors struct {
					Size     int    `json:"size"`
					Distance string `json:"distance"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	}
	err := s.doJSON(ctx, op, http.MethodGet, s.collectionPath(collection, ""), nil, &result)
	if err == nil {
		size := result.Config.Params.Vectors.Size
		if size != 0 && size != s.cfg.VectorDim {
			return &OperationError{
				Code:      OperationErrorValidation,
				Operation: op,
				Message: fmt.Sprintf(
					"qdrant collection %q vector size mismatch: expected=%d actual=%d",
					s.CollectionName(collection),
					s.cfg.VectorDim,
					size,
				),
			}
		}
		s.distance[collection] = strings.TrimSpace(result.Config.Params.Vectors.Distance)
		return nil
	}

	var opErrTyped *OperationError
	if !errors.As(err, &opErrTyped) || opErrTyped.StatusCode != http.StatusNotFound {
		return err
	}

	create := map[string]any{
		"vectors": map[string]any{
			"size":     s.cfg.VectorDim,
			"distance": "Cosine",
		},
	}
	if err := s.doJSON(ctx, op, http.MethodPut, s.collectionPath(collection, ""), create, nil); err != nil {
		return err
	}
	s.distance[collection] = "Cosine"
	s.log.Info("qdrant collection created", "collection", s.CollectionName(collection), "vector_dim", s.cfg.VectorDim)
	return nil
}

func (s *QdrantIndex) doJSON(ctx context.Context, op, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return opErr(op, OperationErrorEncodeFailed, "encode request failed", err)
		}
		body = &buf
	}

	callCtx, cancel := ctxutil.Default(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(callCtx, method, s.baseURL+path, body)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build request failed", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return classifyHTTPCallError(op, "qdrant request failed", err)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 10*maxErrorBodyBytes))
	if readErr != nil {
		return opErr(op, OperationErrorDecodeFailed, "read response failed", readErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("qdrant http status=%d body=%q", resp.StatusCode, truncateBody(raw)),
		}
	}

	var envelope qdrantEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode qdrant envelope failed", err)
	}
	if statusErr := parseEnvelopeStatus(envelope.Status); statusErr != "" {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    statusErr,
		}
	}

	if out == nil {
		return nil
	}
	if len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode qdrant result failed", err)
	}
	return nil
}

func classifyHTTPCallError(op, message string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return opErr(op, OperationErrorTimeout, message, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return opErr(op, OperationErrorTimeout, message, err)
	}
	return opErr(op, OperationErrorTransportFailed, message, err)
}

func parseEnvelopeStatus(raw json.RawMessage) string {
	status := strings.TrimSpace(string(raw))
	if status == "" || status == "null" {
		return ""
	}

	var statusString string
	if err := json.Unmarshal(raw, &statusString); err == nil {
		if strings.EqualFold(statusString, "ok") {
			return ""
		}
		return fmt.Sprintf("qdrant status=%q", statusString)
	}

	var statusObject struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &statusObject); err == nil {
		if strings.TrimSpace(statusObject.Error) != "" {
			return strings.TrimSpace(statusObject.Error)
		}
	}

	return fmt.Sprintf("qdrant status=%s", status)
}

func truncateBody(raw []byte) string {
	if len(raw) <= maxErrorBodyBytes {
		return string(raw)
	}
	return string(raw[:maxErrorBodyBytes]) + "..."
}

func cloneAttributes(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func stripInternalKeys(payload map[string]any) map[string]any {
	if len(payload) == 0 {
		return nil
	}
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		if strings.HasPrefix(k, "_dc_") {
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (s *QdrantIndex) pointID(collection Collection, vectorID string) string {
	deterministic := uuid.NewSHA1(pointIDNamespaceUUID, []byte(s.CollectionName(collection)+"|"+vectorID))
	return deterministic.String()
}

func (s *QdrantIndex) collectionPath(collection Collection, suffix string) string {
	path := "/collections/" + s.CollectionName(collection)
	if strings.TrimSpace(suffix) == "" {
		return path
	}
	return path + suffix
}

func (s *QdrantIndex) extractVectorID(item qdrantSearchResultItem) string {
	if payloadID, ok := item.Payload[payloadVectorIDKey].(string); ok {
		id := strings.TrimSpace(payloadID)
		if id != "" {
			return id
		}
	}
	return decodePointID(item.ID)
}

func decodePointID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var idString string
	if err := json.Unmarshal(raw, &idString); err == nil {
		return strings.TrimSpace(idString)
	}
	var idNumber int64
	if err := json.Unmarshal(raw, &idNumber); err == nil {
		return fmt.Sprintf("%d", idNumber)
	}
	return strings.TrimSpace(string(raw))
}

func (s *QdrantIndex) normalizeScore(collection Collection, score float64) float64 {
	switch strings.ToLower(strings.TrimSpace(s.distance[collection])) {
	case "euclid", "manhattan":
		if score < 0 {
			score = -score
		}
		return 1.0 / (1.0 + score)
	default:
		return score
	}
}
