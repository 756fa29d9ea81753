// Package qdrant adapts a Qdrant collection to vector.Index over gRPC.
package qdrant

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/vector"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// idPayloadKey holds the original point ID; Qdrant only accepts numeric or
// UUID identifiers.
const idPayloadKey = "_id"

// Index implements vector.Index on a Qdrant collection. The collection must
// exist and use cosine distance.
type Index struct {
	conn       *grpc.ClientConn
	points     pb.PointsClient
	collection string
	logger     *slog.Logger
}

var _ vector.Index = (*Index)(nil)

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger. A nil logger falls back to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(i *Index) {
		if logger == nil {
			logger = slog.Default()
		}
		i.logger = logger.With("component", "qdrant")
	}
}

// New connects to Qdrant at host:port.
func New(host string, port int, collection string, opts ...Option) (*Index, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant connect: %w", err)
	}
	idx := &Index{
		conn:       conn,
		points:     pb.NewPointsClient(conn),
		collection: collection,
		logger:     slog.Default().With("component", "qdrant"),
	}
	for _, opt := range opts {
		opt(idx)
	}
	idx.logger.Debug("qdrant client created", "addr", addr, "collection", collection)
	return idx, nil
}

// Upsert implements vector.Index.
func (i *Index) Upsert(ctx context.Context, points ...vector.Point) error {
	if len(points) == 0 {
		return nil
	}
	structs := make([]*pb.PointStruct, len(points))
	for n, p := range points {
		structs[n] = &pb.PointStruct{
			Id:      numericID(p.ID),
			Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: p.Vector}}},
			Payload: toPayload(p.ID, p.Metadata),
		}
	}
	_, err := i.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: i.collection,
		Points:         structs,
	})
	return err
}

// Delete implements vector.Index.
func (i *Index) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	pointIDs := make([]*pb.PointId, len(ids))
	for n, id := range ids {
		pointIDs[n] = numericID(id)
	}
	_, err := i.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: i.collection,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{Points: &pb.PointsIdsList{Ids: pointIDs}},
		},
	})
	return err
}

// SearchKNN implements vector.Store.
func (i *Index) SearchKNN(ctx context.Context, query []float32, k int) ([]core.Candidate, error) {
	return i.search(ctx, query, k)
}

// SearchFiltered implements vector.Store. Predicates are Go functions, so
// filtering happens client side over k*OversampleFactor neighbors.
func (i *Index) SearchFiltered(ctx context.Context, query []float32, k int, pred vector.Predicate) ([]core.Candidate, error) {
	candidates, err := i.search(ctx, query, k*vector.OversampleFactor)
	if err != nil {
		return nil, err
	}
	return vector.Filter(candidates, pred, k), nil
}

func (i *Index) search(ctx context.Context, query []float32, k int) ([]core.Candidate, error) {
	if k <= 0 {
		return nil, nil
	}
	resp, err := i.points.Search(ctx, &pb.SearchPoints{
		CollectionName: i.collection,
		Vector:         query,
		Limit:          uint64(k),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, err
	}

	candidates := make([]core.Candidate, 0, len(resp.Result))
	for _, pt := range resp.Result {
		id, meta := fromPayload(pt.Payload)
		candidates = append(candidates, vector.NewCandidate(id, pt.Score, meta))
	}
	vector.SortCandidates(candidates)
	return candidates, nil
}

// Close closes the gRPC connection.
func (i *Index) Close() error {
	return i.conn.Close()
}

func numericID(id string) *pb.PointId {
	return &pb.PointId{PointIdOptions: &pb.PointId_Num{Num: uint64(core.IDFromContent(id))}}
}

func toPayload(id string, metadata map[string]string) map[string]*pb.Value {
	payload := make(map[string]*pb.Value, len(metadata)+1)
	for k, v := range metadata {
		payload[k] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: v}}
	}
	payload[idPayloadKey] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: id}}
	return payload
}

func fromPayload(payload map[string]*pb.Value) (string, map[string]string) {
	var id string
	meta := make(map[string]string, len(payload))
	for k, v := range payload {
		if k == idPayloadKey {
			id = v.GetStringValue()
			continue
		}
		meta[k] = v.GetStringValue()
	}
	return id, meta
}
