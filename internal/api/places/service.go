package places

import (
	"context"
	"log/slog"
	"sort"

	"github.com/FACorreiaa/go-nearby-guide/internal/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ Service = (*ServiceImpl)(nil)

// categoryHints are the fixed suggest passes, one query each. The empty hint
// lets the upstream rank whatever it considers notable around the point.
var categoryHints = []string{"", "attraction", "museum", "monument", "park"}

// Service defines the nearby-place discovery contract.
type Service interface {
	// FindNearby returns candidates within the distance threshold, sorted
	// nearest-first. Upstream failures degrade to an empty list.
	FindNearby(ctx context.Context, coord types.Coordinate, hint string) []types.PlaceCandidate

	// AggregateNearby runs FindNearby across the fixed category hints and
	// deduplicates the merged results by title.
	AggregateNearby(ctx context.Context, coord types.Coordinate) []types.PlaceCandidate
}

type ServiceImpl struct {
	logger       *slog.Logger
	client       Client
	radiusMeters float64
}

func NewServiceImpl(client Client, radiusMeters float64, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:       logger,
		client:       client,
		radiusMeters: radiusMeters,
	}
}

func (s *ServiceImpl) FindNearby(ctx context.Context, coord types.Coordinate, hint string) []types.PlaceCandidate {
	ctx, span := otel.Tracer("PlacesService").Start(ctx, "FindNearby", trace.WithAttributes(
		attribute.String("hint", hint),
	))
	defer span.End()

	raw, err := s.client.Suggest(ctx, coord, hint)
	if err != nil {
		// Fail-soft: a broken suggest pass is an empty pass.
		s.logger.WarnContext(ctx, "suggest call failed, treating as empty",
			slog.String("hint", hint), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Suggest call failed")
		return nil
	}

	candidates := make([]types.PlaceCandidate, 0, len(raw))
	for _, c := range raw {
		if c.DistanceMeters <= s.radiusMeters {
			candidates = append(candidates, c)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].DistanceMeters < candidates[j].DistanceMeters
	})

	span.SetAttributes(attribute.Int("candidates.count", len(candidates)))
	span.SetStatus(codes.Ok, "Candidates found")
	return candidates
}

func (s *ServiceImpl) AggregateNearby(ctx context.Context, coord types.Coordinate) []types.PlaceCandidate {
	ctx, span := otel.Tracer("PlacesService").Start(ctx, "AggregateNearby")
	defer span.End()

	var merged []types.PlaceCandidate
	for _, hint := range categoryHints {
		merged = append(merged, s.FindNearby(ctx, coord, hint)...)
	}

	unique := dedupeByTitle(merged)
	span.SetAttributes(
		attribute.Int("candidates.merged", len(merged)),
		attribute.Int("candidates.unique", len(unique)),
	)
	span.SetStatus(codes.Ok, "Candidates aggregated")
	return unique
}

// dedupeByTitle keeps the first-seen representative per exact title.
func dedupeByTitle(candidates []types.PlaceCandidate) []types.PlaceCandidate {
	seen := make(map[string]struct{}, len(candidates))
	unique := make([]types.PlaceCandidate, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c.Title]; ok {
			continue
		}
		seen[c.Title] = struct{}{}
		unique = append(unique, c)
	}
	return unique
}
