package bot

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/FACorreiaa/go-nearby-guide/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTransport is a mock implementation of Transport
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) SendMessage(ctx context.Context, chatID int64, text string) error {
	args := m.Called(ctx, chatID, text)
	return args.Error(0)
}

func (m *MockTransport) SendMessageWithButton(ctx context.Context, chatID int64, text, buttonText, buttonURL string) error {
	args := m.Called(ctx, chatID, text, buttonText, buttonURL)
	return args.Error(0)
}

func (m *MockTransport) SendChatAction(ctx context.Context, chatID int64, action string) error {
	args := m.Called(ctx, chatID, action)
	return args.Error(0)
}

func (m *MockTransport) SendVoice(ctx context.Context, chatID int64, filePath string) error {
	args := m.Called(ctx, chatID, filePath)
	return args.Error(0)
}

// MockSpeech is a mock implementation of speech.Service
type MockSpeech struct {
	mock.Mock
}

func (m *MockSpeech) Synthesize(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestSearchURL(t *testing.T) {
	t.Run("encodes title and subtitle", func(t *testing.T) {
		got := searchURL(types.PlaceCandidate{Title: "Old Fort", Subtitle: "Fortress & Museum"})
		assert.Equal(t, "https://www.google.com/search?q=Old+Fort+Fortress+%26+Museum", got)
	})

	t.Run("skips empty subtitle", func(t *testing.T) {
		got := searchURL(types.PlaceCandidate{Title: "Old Fort"})
		assert.Equal(t, "https://www.google.com/search?q=Old+Fort", got)
	})
}

func TestDispatcher_Deliver(t *testing.T) {
	ctx := context.Background()
	place := types.PlaceCandidate{Title: "Old Fort", Subtitle: "Fortress", DistanceMeters: 50, DistanceText: "50 m"}

	t.Run("text reply carries the search button", func(t *testing.T) {
		transport := new(MockTransport)
		transport.On("SendMessageWithButton", ctx, int64(7), "A story.", searchButtonText,
			"https://www.google.com/search?q=Old+Fort+Fortress").Return(nil).Once()

		d := NewDispatcher(transport, nil, false, testLogger())
		voice, err := d.Deliver(ctx, 7, place, "A story.")
		require.NoError(t, err)
		assert.False(t, voice)
		transport.AssertExpectations(t)
	})

	t.Run("voice reply removes the temp file after sending", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "narration-test.wav")
		require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0o600))

		transport := new(MockTransport)
		transport.On("SendChatAction", ctx, int64(7), ActionRecordVoice).Return(nil).Once()
		transport.On("SendVoice", ctx, int64(7), path).Return(nil).Once()
		speechSvc := new(MockSpeech)
		speechSvc.On("Synthesize", ctx, "A story.").Return(path, nil).Once()

		d := NewDispatcher(transport, speechSvc, true, testLogger())
		voice, err := d.Deliver(ctx, 7, place, "A story.")
		require.NoError(t, err)
		assert.True(t, voice)
		assert.NoFileExists(t, path)
		transport.AssertExpectations(t)
		speechSvc.AssertExpectations(t)
	})

	t.Run("synthesis failure falls back to text", func(t *testing.T) {
		transport := new(MockTransport)
		transport.On("SendChatAction", ctx, int64(7), ActionRecordVoice).Return(nil).Once()
		transport.On("SendMessageWithButton", ctx, int64(7), "A story.", searchButtonText, mock.Anything).Return(nil).Once()
		speechSvc := new(MockSpeech)
		speechSvc.On("Synthesize", ctx, "A story.").Return("", errors.New("no audio")).Once()

		d := NewDispatcher(transport, speechSvc, true, testLogger())
		voice, err := d.Deliver(ctx, 7, place, "A story.")
		require.NoError(t, err)
		assert.False(t, voice)
		transport.AssertExpectations(t)
	})

	t.Run("upload failure falls back to text and still removes the file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "narration-test.wav")
		require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0o600))

		transport := new(MockTransport)
		transport.On("SendChatAction", ctx, int64(7), ActionRecordVoice).Return(nil).Once()
		transport.On("SendVoice", ctx, int64(7), path).Return(errors.New("413")).Once()
		transport.On("SendMessageWithButton", ctx, int64(7), "A story.", searchButtonText, mock.Anything).Return(nil).Once()
		speechSvc := new(MockSpeech)
		speechSvc.On("Synthesize", ctx, "A story.").Return(path, nil).Once()

		d := NewDispatcher(transport, speechSvc, true, testLogger())
		voice, err := d.Deliver(ctx, 7, place, "A story.")
		require.NoError(t, err)
		assert.False(t, voice)
		assert.NoFileExists(t, path)
		transport.AssertExpectations(t)
	})

	t.Run("voice disabled never touches the synthesizer", func(t *testing.T) {
		transport := new(MockTransport)
		transport.On("SendMessageWithButton", ctx, int64(7), "A story.", searchButtonText, mock.Anything).Return(nil).Once()
		speechSvc := new(MockSpeech)

		d := NewDispatcher(transport, speechSvc, false, testLogger())
		_, err := d.Deliver(ctx, 7, place, "A story.")
		require.NoError(t, err)
		speechSvc.AssertNotCalled(t, "Synthesize")
	})
}
