package bot

import (
	"context"
	"log/slog"
	"net/url"
	"os"

	"github.com/FACorreiaa/go-nearby-guide/internal/api/speech"
	"github.com/FACorreiaa/go-nearby-guide/internal/types"
)

const searchButtonText = "Find out more"

// Dispatcher delivers a finished narration back through the chat transport:
// a text reply with one inline search button, or a voice attachment when
// synthesis is enabled. Every synthesis or upload failure falls back to text.
type Dispatcher struct {
	logger       *slog.Logger
	transport    Transport
	speech       speech.Service
	voiceEnabled bool
}

func NewDispatcher(transport Transport, speechService speech.Service, voiceEnabled bool, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		logger:       logger,
		transport:    transport,
		speech:       speechService,
		voiceEnabled: voiceEnabled,
	}
}

// Deliver sends the narration and reports whether it went out as voice.
func (d *Dispatcher) Deliver(ctx context.Context, chatID int64, place types.PlaceCandidate, narration string) (bool, error) {
	if d.voiceEnabled && d.speech != nil {
		if err := d.deliverVoice(ctx, chatID, narration); err == nil {
			return true, nil
		} else {
			d.logger.WarnContext(ctx, "voice delivery failed, falling back to text",
				slog.String("place", place.Title), slog.Any("error", err))
		}
	}
	return false, d.transport.SendMessageWithButton(ctx, chatID, narration, searchButtonText, searchURL(place))
}

func (d *Dispatcher) deliverVoice(ctx context.Context, chatID int64, narration string) error {
	_ = d.transport.SendChatAction(ctx, chatID, ActionRecordVoice)

	path, err := d.speech.Synthesize(ctx, narration)
	if err != nil {
		return err
	}
	// Cleanup is unconditional, send errors included.
	defer os.Remove(path)

	return d.transport.SendVoice(ctx, chatID, path)
}

// searchURL builds the inline button target: a web search for the place's
// name and category, percent-encoded.
func searchURL(place types.PlaceCandidate) string {
	query := place.Title
	if place.Subtitle != "" {
		query += " " + place.Subtitle
	}
	return "https://www.google.com/search?q=" + url.QueryEscape(query)
}
