package speech

import (
	"context"
	"encoding/binary"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// MockAI is a mock implementation of AI
type MockAI struct {
	mock.Mock
}

func (m *MockAI) GenerateResponse(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	args := m.Called(ctx, prompt, config)
	var resp *genai.GenerateContentResponse
	if args.Get(0) != nil {
		resp = args.Get(0).(*genai.GenerateContentResponse)
	}
	return resp, args.Error(1)
}

func setupSpeechServiceTest() (*ServiceImpl, *MockAI) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	mockAI := new(MockAI)
	service := NewServiceImpl(mockAI, "Kore", logger)
	return service, mockAI
}

func audioResponse(pcm []byte) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []*genai.Part{
						{InlineData: &genai.Blob{MIMEType: "audio/L16;rate=24000", Data: pcm}},
					},
				},
			},
		},
	}
}

func TestSpeechServiceImpl_Synthesize(t *testing.T) {
	ctx := context.Background()

	t.Run("writes a wav file the caller can remove", func(t *testing.T) {
		service, mockAI := setupSpeechServiceTest()
		pcm := []byte{0x01, 0x02, 0x03, 0x04}
		mockAI.On("GenerateResponse", mock.Anything, "hello there", mock.Anything).
			Return(audioResponse(pcm), nil).Once()

		path, err := service.Synthesize(ctx, "hello there")
		require.NoError(t, err)
		defer os.Remove(path)

		assert.True(t, strings.HasPrefix(path, os.TempDir()))
		assert.Contains(t, path, "narration-")
		assert.True(t, strings.HasSuffix(path, ".wav"))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "RIFF", string(data[0:4]))
		assert.Equal(t, "WAVE", string(data[8:12]))
		assert.Equal(t, pcm, data[len(data)-len(pcm):])
		mockAI.AssertExpectations(t)
	})

	t.Run("model error is wrapped", func(t *testing.T) {
		service, mockAI := setupSpeechServiceTest()
		mockAI.On("GenerateResponse", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("unavailable")).Once()

		_, err := service.Synthesize(ctx, "hello")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to synthesize speech")
	})

	t.Run("response without audio parts is an error", func(t *testing.T) {
		service, mockAI := setupSpeechServiceTest()
		mockAI.On("GenerateResponse", mock.Anything, mock.Anything, mock.Anything).
			Return(&genai.GenerateContentResponse{}, nil).Once()

		_, err := service.Synthesize(ctx, "hello")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no audio")
	})
}

func TestWavFromPCM(t *testing.T) {
	pcm := make([]byte, 480)
	wav := wavFromPCM(pcm)

	require.Len(t, wav, 44+len(pcm))
	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, uint32(36+len(pcm)), binary.LittleEndian.Uint32(wav[4:8]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, "fmt ", string(wav[12:16]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[20:22]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[22:24]))
	assert.Equal(t, uint32(24000), binary.LittleEndian.Uint32(wav[24:28]))
	assert.Equal(t, uint32(48000), binary.LittleEndian.Uint32(wav[28:32]))
	assert.Equal(t, uint16(2), binary.LittleEndian.Uint16(wav[32:34]))
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(wav[34:36]))
	assert.Equal(t, "data", string(wav[36:40]))
	assert.Equal(t, uint32(len(pcm)), binary.LittleEndian.Uint32(wav[40:44]))
}
