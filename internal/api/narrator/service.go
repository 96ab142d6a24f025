package narrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/FACorreiaa/go-nearby-guide/internal/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"
)

var _ Service = (*ServiceImpl)(nil)

// AI is the language-model capability the narrator depends on.
type AI interface {
	GenerateContent(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error)
}

// Service defines the interest-filter and narration contracts.
type Service interface {
	// FilterInteresting shrinks the candidate list to tourist-interesting
	// places. Malformed or empty model output falls back to the full list;
	// the outcome records which branch was taken. Lists of zero or one
	// candidate skip the model call entirely.
	FilterInteresting(ctx context.Context, candidates []types.PlaceCandidate) types.FilterOutcome

	// Narrate produces a free-text description of the chosen place.
	Narrate(ctx context.Context, coord types.Coordinate, place types.PlaceCandidate) (string, error)
}

type ServiceImpl struct {
	logger      *slog.Logger
	ai          AI
	temperature float32
}

func NewServiceImpl(ai AI, temperature float32, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:      logger,
		ai:          ai,
		temperature: temperature,
	}
}

func (s *ServiceImpl) FilterInteresting(ctx context.Context, candidates []types.PlaceCandidate) types.FilterOutcome {
	ctx, span := otel.Tracer("NarratorService").Start(ctx, "FilterInteresting", trace.WithAttributes(
		attribute.Int("candidates.count", len(candidates)),
	))
	defer span.End()

	if len(candidates) <= 1 {
		span.SetStatus(codes.Ok, "Too few candidates, filter skipped")
		return types.FilterOutcome{Places: candidates, Applied: false, FallbackReason: "too few candidates"}
	}

	serialized, err := json.Marshal(candidates)
	if err != nil {
		// Plain structs marshal; treat a failure like any other fallback.
		s.logger.WarnContext(ctx, "failed to serialize candidates for filter", slog.Any("error", err))
		span.RecordError(err)
		return types.FilterOutcome{Places: candidates, Applied: false, FallbackReason: "serialization failed"}
	}

	response, err := s.ai.GenerateContent(ctx, getInterestFilterPrompt(string(serialized)), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		s.logger.WarnContext(ctx, "interest filter call failed, using unfiltered list", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Filter call failed")
		return types.FilterOutcome{Places: candidates, Applied: false, FallbackReason: "model call failed"}
	}

	filtered, err := parseFilteredPlaces(response)
	if err != nil {
		s.logger.WarnContext(ctx, "interest filter returned unparseable output, using unfiltered list", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Filter output unparseable")
		return types.FilterOutcome{Places: candidates, Applied: false, FallbackReason: "unparseable response"}
	}
	if len(filtered) == 0 {
		s.logger.WarnContext(ctx, "interest filter selected nothing, using unfiltered list")
		span.SetStatus(codes.Ok, "Filter selected nothing")
		return types.FilterOutcome{Places: candidates, Applied: false, FallbackReason: "empty selection"}
	}

	span.SetAttributes(attribute.Int("candidates.filtered", len(filtered)))
	span.SetStatus(codes.Ok, "Filter applied")
	return types.FilterOutcome{Places: filtered, Applied: true}
}

func (s *ServiceImpl) Narrate(ctx context.Context, coord types.Coordinate, place types.PlaceCandidate) (string, error) {
	ctx, span := otel.Tracer("NarratorService").Start(ctx, "Narrate", trace.WithAttributes(
		attribute.String("place.title", place.Title),
	))
	defer span.End()

	narration, err := s.ai.GenerateContent(ctx, getNarrationPrompt(coord, place), &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](s.temperature),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: tourGuidePersona}},
		},
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "narration call failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Narration call failed")
		return "", fmt.Errorf("failed to narrate place: %w", err)
	}

	span.SetAttributes(attribute.Int("narration.length", len(narration)))
	span.SetStatus(codes.Ok, "Narration generated")
	return narration, nil
}
