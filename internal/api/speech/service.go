package speech

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"
)

var _ Service = (*ServiceImpl)(nil)

// AI is the speech-synthesis capability; it shares the generative client but
// is bound to a TTS model.
type AI interface {
	GenerateResponse(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Service turns narration text into a uniquely named temporary audio file.
// The caller owns the file and must remove it after sending.
type Service interface {
	Synthesize(ctx context.Context, text string) (string, error)
}

type ServiceImpl struct {
	logger *slog.Logger
	ai     AI
	voice  string
}

func NewServiceImpl(ai AI, voice string, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		ai:     ai,
		voice:  voice,
	}
}

func (s *ServiceImpl) Synthesize(ctx context.Context, text string) (string, error) {
	ctx, span := otel.Tracer("SpeechService").Start(ctx, "Synthesize")
	defer span.End()

	response, err := s.ai.GenerateResponse(ctx, text, &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: s.voice},
			},
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Speech synthesis failed")
		return "", fmt.Errorf("failed to synthesize speech: %w", err)
	}

	pcm, err := extractAudio(response)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "No audio in response")
		return "", err
	}

	// Random names keep concurrent syntheses from colliding.
	path := filepath.Join(os.TempDir(), fmt.Sprintf("narration-%s.wav", uuid.New()))
	if err := os.WriteFile(path, wavFromPCM(pcm), 0o600); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to write audio file")
		return "", fmt.Errorf("failed to write audio file: %w", err)
	}

	s.logger.DebugContext(ctx, "synthesized narration audio",
		slog.String("path", path), slog.Int("pcm_bytes", len(pcm)))
	span.SetAttributes(attribute.Int("audio.pcm_bytes", len(pcm)))
	span.SetStatus(codes.Ok, "Speech synthesized")
	return path, nil
}

func extractAudio(response *genai.GenerateContentResponse) ([]byte, error) {
	if response == nil {
		return nil, fmt.Errorf("speech response is empty")
	}
	for _, cand := range response.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, nil
			}
		}
	}
	return nil, fmt.Errorf("speech response carries no audio data")
}
