package bot

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTelegramAPI_GetMe(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/bottest-token/getMe", r.URL.Path)
			_, _ = w.Write([]byte(`{"ok": true, "result": {"id": 99, "is_bot": true, "username": "nearby_guide_bot"}}`))
		}))
		defer server.Close()

		api := NewTelegramAPI(server.Client(), server.URL, "test-token")
		me, err := api.GetMe(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(99), me.ID)
		assert.Equal(t, "nearby_guide_bot", me.Username)
	})

	t.Run("unauthorized", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"ok": false, "error_code": 401}`))
		}))
		defer server.Close()

		api := NewTelegramAPI(server.Client(), server.URL, "bad-token")
		_, err := api.GetMe(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
	})
}

func TestTelegramAPI_GetUpdates(t *testing.T) {
	t.Run("advances the offset past the newest update", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/bottest-token/getUpdates", r.URL.Path)
			assert.Equal(t, "10", r.URL.Query().Get("offset"))
			_, _ = w.Write([]byte(`{"ok": true, "result": [
				{"update_id": 10, "message": {"message_id": 1, "chat": {"id": 42}, "text": "/start"}},
				{"update_id": 11, "edited_message": {"message_id": 2, "chat": {"id": 42}, "location": {"latitude": 55.75, "longitude": 37.61}}}
			]}`))
		}))
		defer server.Close()

		api := NewTelegramAPI(server.Client(), server.URL, "test-token")
		updates, next, err := api.GetUpdates(context.Background(), 10, time.Second)
		require.NoError(t, err)
		require.Len(t, updates, 2)
		assert.Equal(t, int64(12), next)

		assert.Equal(t, "/start", updates[0].Message.Text)
		require.NotNil(t, updates[1].EditedMessage)
		require.NotNil(t, updates[1].EditedMessage.Location)
		assert.InDelta(t, 55.75, updates[1].EditedMessage.Location.Latitude, 1e-9)
	})

	t.Run("keeps the offset on a failed poll", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		api := NewTelegramAPI(server.Client(), server.URL, "test-token")
		_, next, err := api.GetUpdates(context.Background(), 7, time.Second)
		require.Error(t, err)
		assert.Equal(t, int64(7), next)
	})
}

func TestTelegramAPI_SendMessageWithButton(t *testing.T) {
	var got sendMessageRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/sendMessage", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	api := NewTelegramAPI(server.Client(), server.URL, "test-token")
	err := api.SendMessageWithButton(context.Background(), 42, "About the fort.", "Find out more", "https://example.com/q")
	require.NoError(t, err)

	assert.Equal(t, int64(42), got.ChatID)
	assert.Equal(t, "About the fort.", got.Text)
	assert.True(t, got.DisableWebPagePreview)
	require.NotNil(t, got.ReplyMarkup)
	require.Len(t, got.ReplyMarkup.InlineKeyboard, 1)
	require.Len(t, got.ReplyMarkup.InlineKeyboard[0], 1)
	assert.Equal(t, "Find out more", got.ReplyMarkup.InlineKeyboard[0][0].Text)
	assert.Equal(t, "https://example.com/q", got.ReplyMarkup.InlineKeyboard[0][0].URL)
}

func TestTelegramAPI_SendMessage_OKFalse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok": false}`))
	}))
	defer server.Close()

	api := NewTelegramAPI(server.Client(), server.URL, "test-token")
	err := api.SendMessage(context.Background(), 42, "hello")
	require.Error(t, err)
}

func TestTelegramAPI_SendVoice(t *testing.T) {
	t.Run("uploads the file as multipart", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "narration-test.wav")
		require.NoError(t, os.WriteFile(path, []byte("RIFFfakewav"), 0o600))

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/bottest-token/sendVoice", r.URL.Path)
			require.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "42", r.FormValue("chat_id"))

			file, header, err := r.FormFile("voice")
			require.NoError(t, err)
			defer file.Close()
			assert.Equal(t, "narration-test.wav", header.Filename)
			body, err := io.ReadAll(file)
			require.NoError(t, err)
			assert.Equal(t, "RIFFfakewav", string(body))

			_, _ = w.Write([]byte(`{"ok": true}`))
		}))
		defer server.Close()

		api := NewTelegramAPI(server.Client(), server.URL, "test-token")
		require.NoError(t, api.SendVoice(context.Background(), 42, path))
	})

	t.Run("missing file path", func(t *testing.T) {
		api := NewTelegramAPI(nil, "https://api.telegram.invalid", "test-token")
		err := api.SendVoice(context.Background(), 42, "  ")
		require.Error(t, err)
	})
}
