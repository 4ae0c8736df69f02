// ABOUTME: Qdrant-backed phrase store speaking the raw gRPC API
// ABOUTME: Maps phrase records to points with keyword payload indexes for per-user filtering
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	pb "github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/harper/echomind/internal/models"
	"github.com/harper/echomind/internal/storage"
)

// Payload keys
const (
	keyUserID         = "user_id"
	keySeq            = "seq"
	keyCategory       = "category"
	keyPhrase         = "phrase"
	keyTimeOfDay      = "time_of_day"
	keyDayOfWeek      = "day_of_week"
	keyLocation       = "location"
	keyContextSummary = "context_summary"
	keyDegraded       = "degraded"
	keyTimestamp      = "timestamp"
)

// Store implements storage.PhraseStore on a Qdrant collection.
// Sequence assignment is serialized in-process; run one writer per user.
type Store struct {
	conn        *grpc.ClientConn
	collections pb.CollectionsClient
	points      pb.PointsClient
	collection  string
	logger      *zap.Logger

	seqMu sync.Mutex

	cfgMu     sync.RWMutex
	dimension int
	metric    storage.Metric
	loaded    bool
}

var _ storage.PhraseStore = (*Store)(nil)

// Dial connects to Qdrant's gRPC port and returns a store for collection
func Dial(host string, port int, collection string, logger *zap.Logger) (*Store, error) {
	addr := fmt.Sprintf("%s:%d", host, port)

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, storage.Unavailable("dial qdrant", err)
	}

	s := New(pb.NewCollectionsClient(conn), pb.NewPointsClient(conn), collection, logger)
	s.conn = conn
	return s, nil
}

// New creates a store over existing gRPC clients
func New(collections pb.CollectionsClient, points pb.PointsClient, collection string, logger *zap.Logger) *Store {
	if collection == "" {
		collection = storage.DefaultCollection
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		collections: collections,
		points:      points,
		collection:  collection,
		logger:      logger.Named("qdrant"),
	}
}

// EnsureCollection creates the collection and its payload indexes, or
// verifies an existing collection's vector configuration.
func (s *Store) EnsureCollection(ctx context.Context, dimension int, metric storage.Metric) error {
	if dimension <= 0 {
		return fmt.Errorf("dimension must be positive, got %d", dimension)
	}
	if !metric.Valid() {
		return fmt.Errorf("invalid metric %q", metric)
	}

	gotDim, gotMetric, err := s.describe(ctx)
	switch {
	case errors.Is(err, storage.ErrCollectionNotFound):
		if err := s.create(ctx, dimension, metric); err != nil {
			return err
		}
	case err != nil:
		return err
	case gotDim != dimension || gotMetric != metric:
		return &storage.SchemaMismatchError{
			Collection:    s.collection,
			WantDimension: dimension,
			WantMetric:    metric,
			GotDimension:  gotDim,
			GotMetric:     gotMetric,
		}
	}

	// Existing collections may lack the indexes ordered scrolls need.
	if err := s.ensureIndexes(ctx); err != nil {
		return err
	}

	s.setConfig(dimension, metric)
	return nil
}

func (s *Store) create(ctx context.Context, dimension int, metric storage.Metric) error {
	s.logger.Info("creating collection",
		zap.String("collection", s.collection),
		zap.Int("dimension", dimension),
		zap.String("metric", string(metric)))

	_, err := s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(dimension),
					Distance: toDistance(metric),
				},
			},
		},
	})
	if err != nil {
		return storage.Unavailable("create collection", err)
	}
	return nil
}

// ensureIndexes creates the payload indexes; Qdrant accepts repeats
func (s *Store) ensureIndexes(ctx context.Context) error {
	wait := true
	indexes := []struct {
		field string
		typ   pb.FieldType
	}{
		{keyUserID, pb.FieldType_FieldTypeKeyword},
		{keyCategory, pb.FieldType_FieldTypeKeyword},
		{keyDegraded, pb.FieldType_FieldTypeBool},
		{keySeq, pb.FieldType_FieldTypeInteger},
	}
	for _, idx := range indexes {
		typ := idx.typ
		if _, err := s.points.CreateFieldIndex(ctx, &pb.CreateFieldIndexCollection{
			CollectionName: s.collection,
			FieldName:      idx.field,
			FieldType:      &typ,
			Wait:           &wait,
		}); err != nil {
			return storage.Unavailable("create index "+idx.field, err)
		}
	}
	return nil
}

// describe reads the collection's vector configuration from the server
func (s *Store) describe(ctx context.Context) (int, storage.Metric, error) {
	resp, err := s.collections.Get(ctx, &pb.GetCollectionInfoRequest{CollectionName: s.collection})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return 0, "", fmt.Errorf("%w: %s", storage.ErrCollectionNotFound, s.collection)
		}
		return 0, "", storage.Unavailable("get collection", err)
	}

	params := resp.GetResult().GetConfig().GetParams().GetVectorsConfig().GetParams()
	if params == nil {
		return 0, "", storage.Unavailable("get collection",
			fmt.Errorf("collection %q has no single unnamed vector", s.collection))
	}
	return int(params.GetSize()), fromDistance(params.GetDistance()), nil
}

// Insert upserts rec as a point. Without an explicit Seq the next sequence
// is one past the user's highest stored seq.
func (s *Store) Insert(ctx context.Context, rec *models.PhraseRecord) (*models.PhraseRecord, error) {
	if err := storage.ValidateRecord(rec); err != nil {
		return nil, err
	}

	dim, _, err := s.config(ctx)
	if err != nil {
		return nil, err
	}
	if err := storage.CheckDimension(rec.Embedding, dim); err != nil {
		return nil, err
	}

	s.seqMu.Lock()
	defer s.seqMu.Unlock()

	stored := *rec
	stored.Embedding = append([]float32(nil), rec.Embedding...)
	stored.Degraded = storage.IsZeroVector(stored.Embedding)
	if stored.Timestamp.IsZero() {
		stored.Timestamp = time.Now().UTC()
	}
	if stored.Seq <= 0 {
		last, err := s.lastSeq(ctx, stored.UserID)
		if err != nil {
			return nil, err
		}
		stored.Seq = last + 1
	}
	stored.ID = storage.PointID(stored.UserID, stored.Seq)

	wait := true
	_, err = s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points: []*pb.PointStruct{{
			Id: &pb.PointId{PointIdOptions: &pb.PointId_Num{Num: stored.ID}},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: stored.Embedding},
				},
			},
			Payload: toPayload(&stored),
		}},
	})
	if err != nil {
		return nil, storage.Unavailable("upsert", err)
	}

	s.logger.Debug("stored phrase",
		zap.String("user_id", stored.UserID),
		zap.Int64("seq", stored.Seq),
		zap.Bool("degraded", stored.Degraded))

	return &stored, nil
}

func (s *Store) lastSeq(ctx context.Context, userID string) (int64, error) {
	limit := uint32(1)
	dir := pb.Direction_Desc
	resp, err := s.points.Scroll(ctx, &pb.ScrollPoints{
		CollectionName: s.collection,
		Filter:         s.filter(storage.Filter{UserID: userID}, false),
		Limit:          &limit,
		OrderBy:        &pb.OrderBy{Key: keySeq, Direction: &dir},
		WithPayload:    payloadOn(),
	})
	if err != nil {
		return 0, storage.Unavailable("read sequence", err)
	}
	if len(resp.GetResult()) == 0 {
		return 0, nil
	}
	return resp.GetResult()[0].GetPayload()[keySeq].GetIntegerValue(), nil
}

// SearchByVector runs a filtered nearest-neighbour search for userID.
// Euclidean distances are negated so higher scores are always closer.
func (s *Store) SearchByVector(ctx context.Context, query []float32, userID string, limit int) ([]models.ScoredRecord, error) {
	dim, metric, err := s.config(ctx)
	if err != nil {
		return nil, err
	}
	if err := storage.CheckDimension(query, dim); err != nil {
		return nil, err
	}

	results := []models.ScoredRecord{}
	if limit <= 0 || storage.IsZeroVector(query) {
		return results, nil
	}

	resp, err := s.points.Search(ctx, &pb.SearchPoints{
		CollectionName: s.collection,
		Vector:         query,
		Filter:         s.filter(storage.Filter{UserID: userID}, true),
		Limit:          uint64(limit),
		WithPayload:    payloadOn(),
	})
	if err != nil {
		return nil, storage.Unavailable("search", err)
	}

	for _, point := range resp.GetResult() {
		rec, err := fromPayload(point.GetId().GetNum(), point.GetPayload())
		if err != nil {
			s.logger.Warn("skipping malformed point", zap.Uint64("id", point.GetId().GetNum()), zap.Error(err))
			continue
		}
		score := float64(point.GetScore())
		if metric == storage.MetricEuclid {
			score = -score
		}
		results = append(results, models.ScoredRecord{Record: *rec, Score: score})
	}

	return results, nil
}

// ScanByFilter returns matching records ordered by per-user sequence.
// Embeddings are not fetched.
func (s *Store) ScanByFilter(ctx context.Context, filter storage.Filter, limit int) ([]models.PhraseRecord, error) {
	if _, _, err := s.config(ctx); err != nil {
		return nil, err
	}

	records := []models.PhraseRecord{}
	if limit <= 0 {
		return records, nil
	}

	lim := uint32(limit)
	dir := pb.Direction_Asc
	resp, err := s.points.Scroll(ctx, &pb.ScrollPoints{
		CollectionName: s.collection,
		Filter:         s.filter(filter, false),
		Limit:          &lim,
		OrderBy:        &pb.OrderBy{Key: keySeq, Direction: &dir},
		WithPayload:    payloadOn(),
	})
	if err != nil {
		return nil, storage.Unavailable("scroll", err)
	}

	for _, point := range resp.GetResult() {
		rec, err := fromPayload(point.GetId().GetNum(), point.GetPayload())
		if err != nil {
			s.logger.Warn("skipping malformed point", zap.Uint64("id", point.GetId().GetNum()), zap.Error(err))
			continue
		}
		records = append(records, *rec)
	}
	return records, nil
}

// Count returns the exact number of points matching filter
func (s *Store) Count(ctx context.Context, filter storage.Filter) (int, error) {
	if _, _, err := s.config(ctx); err != nil {
		return 0, err
	}

	exact := true
	resp, err := s.points.Count(ctx, &pb.CountPoints{
		CollectionName: s.collection,
		Filter:         s.filter(filter, false),
		Exact:          &exact,
	})
	if err != nil {
		return 0, storage.Unavailable("count", err)
	}
	return int(resp.GetResult().GetCount()), nil
}

// Close closes the gRPC connection when the store dialed it
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *Store) config(ctx context.Context) (int, storage.Metric, error) {
	s.cfgMu.RLock()
	if s.loaded {
		dim, metric := s.dimension, s.metric
		s.cfgMu.RUnlock()
		return dim, metric, nil
	}
	s.cfgMu.RUnlock()

	dim, metric, err := s.describe(ctx)
	if err != nil {
		return 0, "", err
	}
	s.setConfig(dim, metric)
	return dim, metric, nil
}

func (s *Store) setConfig(dim int, metric storage.Metric) {
	s.cfgMu.Lock()
	s.dimension, s.metric, s.loaded = dim, metric, true
	s.cfgMu.Unlock()
}

// filter builds exact keyword conditions; excludeDegraded drops zero-vector points
func (s *Store) filter(f storage.Filter, excludeDegraded bool) *pb.Filter {
	out := &pb.Filter{}
	if f.UserID != "" {
		out.Must = append(out.Must, keywordCondition(keyUserID, f.UserID))
	}
	if f.Category != "" {
		out.Must = append(out.Must, keywordCondition(keyCategory, f.Category))
	}
	if excludeDegraded {
		out.MustNot = append(out.MustNot, &pb.Condition{
			ConditionOneOf: &pb.Condition_Field{
				Field: &pb.FieldCondition{
					Key:   keyDegraded,
					Match: &pb.Match{MatchValue: &pb.Match_Boolean{Boolean: true}},
				},
			},
		})
	}
	return out
}

func keywordCondition(key, value string) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{
				Key:   key,
				Match: &pb.Match{MatchValue: &pb.Match_Keyword{Keyword: value}},
			},
		},
	}
}

func payloadOn() *pb.WithPayloadSelector {
	return &pb.WithPayloadSelector{
		SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
	}
}

func toDistance(m storage.Metric) pb.Distance {
	switch m {
	case storage.MetricDot:
		return pb.Distance_Dot
	case storage.MetricEuclid:
		return pb.Distance_Euclid
	default:
		return pb.Distance_Cosine
	}
}

func fromDistance(d pb.Distance) storage.Metric {
	switch d {
	case pb.Distance_Dot:
		return storage.MetricDot
	case pb.Distance_Euclid:
		return storage.MetricEuclid
	case pb.Distance_Cosine:
		return storage.MetricCosine
	}
	return storage.Metric(d.String())
}

func str(v string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: v}}
}

func toPayload(rec *models.PhraseRecord) map[string]*pb.Value {
	return map[string]*pb.Value{
		keyUserID:         str(rec.UserID),
		keySeq:            {Kind: &pb.Value_IntegerValue{IntegerValue: rec.Seq}},
		keyCategory:       str(rec.Category),
		keyPhrase:         str(rec.Phrase),
		keyTimeOfDay:      str(rec.TimeOfDay),
		keyDayOfWeek:      str(rec.DayOfWeek),
		keyLocation:       str(rec.Location),
		keyContextSummary: str(rec.ContextSummary),
		keyDegraded:       {Kind: &pb.Value_BoolValue{BoolValue: rec.Degraded}},
		keyTimestamp:      str(rec.Timestamp.UTC().Format(time.RFC3339Nano)),
	}
}

func fromPayload(id uint64, p map[string]*pb.Value) (*models.PhraseRecord, error) {
	rec := &models.PhraseRecord{
		ID:             id,
		UserID:         p[keyUserID].GetStringValue(),
		Seq:            p[keySeq].GetIntegerValue(),
		Category:       p[keyCategory].GetStringValue(),
		Phrase:         p[keyPhrase].GetStringValue(),
		TimeOfDay:      p[keyTimeOfDay].GetStringValue(),
		DayOfWeek:      p[keyDayOfWeek].GetStringValue(),
		Location:       p[keyLocation].GetStringValue(),
		ContextSummary: p[keyContextSummary].GetStringValue(),
		Degraded:       p[keyDegraded].GetBoolValue(),
	}
	if rec.UserID == "" || rec.Phrase == "" {
		return nil, errors.New("payload missing user_id or phrase")
	}
	if ts := p[keyTimestamp].GetStringValue(); ts != "" {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
		}
		rec.Timestamp = t
	}
	return rec, nil
}
