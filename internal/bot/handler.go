package bot

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	appmetrics "github.com/FACorreiaa/go-nearby-guide/app/observability/metrics"
	"github.com/FACorreiaa/go-nearby-guide/internal/api/narrator"
	"github.com/FACorreiaa/go-nearby-guide/internal/api/places"
	"github.com/FACorreiaa/go-nearby-guide/internal/api/session"
	"github.com/FACorreiaa/go-nearby-guide/internal/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Fixed user-visible replies. All of them are suppressed for live-tracking
// updates except the narration itself.
const (
	msgPleaseWait    = "Please wait a minute before sending a new location."
	msgNothingNearby = "I couldn't find anything notable around here. Try another spot!"
	msgNothingNew    = "Nothing new nearby — I've already told you about everything around here."
	msgNoInfo        = "There's a place right next to you, but I couldn't find anything to tell about it."
)

// Handler runs the per-event pipeline: cooldown gate, candidate discovery,
// told-places filtering, interest filtering, narration, delivery.
type Handler struct {
	logger     *slog.Logger
	places     places.Service
	narrator   narrator.Service
	sessions   *session.Store
	transport  Transport
	dispatcher *Dispatcher
	metrics    *appmetrics.AppMetrics // nil disables counters (tests)
}

func NewHandler(
	placesService places.Service,
	narratorService narrator.Service,
	sessions *session.Store,
	transport Transport,
	dispatcher *Dispatcher,
	m *appmetrics.AppMetrics,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		logger:     logger,
		places:     placesService,
		narrator:   narratorService,
		sessions:   sessions,
		transport:  transport,
		dispatcher: dispatcher,
		metrics:    m,
	}
}

// HandleLocation processes one location event end to end. Every failure mode
// degrades to a fixed message or to silence; nothing here returns an error
// because there is nobody upstream to handle one.
func (h *Handler) HandleLocation(ctx context.Context, event types.LocationEvent) {
	start := time.Now()
	ctx, span := otel.Tracer("Bot").Start(ctx, "HandleLocation", trace.WithAttributes(
		attribute.Int64("user.id", event.UserID),
		attribute.Bool("event.live", event.Live),
	))
	defer span.End()

	if h.metrics != nil {
		h.metrics.LocationEventsTotal.Add(ctx, 1)
	}

	// The cooldown timestamp is written on acceptance, before any upstream
	// call, so at most one pipeline per user is normally in flight.
	if !h.sessions.TryAcquire(event.UserID) {
		if h.metrics != nil {
			h.metrics.CooldownRejectionsTotal.Add(ctx, 1)
		}
		span.SetStatus(codes.Ok, "Rejected by cooldown")
		if !event.Live {
			h.reply(ctx, event.ChatID, msgPleaseWait)
		}
		return
	}

	_ = h.transport.SendChatAction(ctx, event.ChatID, ActionTyping)
	candidates := h.places.AggregateNearby(ctx, event.Location)
	if len(candidates) == 0 {
		if h.metrics != nil {
			h.metrics.EmptyResultsTotal.Add(ctx, 1)
		}
		span.SetStatus(codes.Ok, "Nothing nearby")
		if !event.Live {
			h.reply(ctx, event.ChatID, msgNothingNearby)
		}
		return
	}

	fresh := make([]types.PlaceCandidate, 0, len(candidates))
	for _, c := range candidates {
		if !h.sessions.WasTold(event.UserID, c.Title) {
			fresh = append(fresh, c)
		}
	}
	if len(fresh) == 0 {
		if h.metrics != nil {
			h.metrics.EmptyResultsTotal.Add(ctx, 1)
		}
		span.SetStatus(codes.Ok, "All candidates already told")
		if !event.Live {
			h.reply(ctx, event.ChatID, msgNothingNew)
		}
		return
	}

	if len(fresh) > 1 {
		_ = h.transport.SendChatAction(ctx, event.ChatID, ActionTyping)
	}
	outcome := h.narrator.FilterInteresting(ctx, fresh)
	picked := outcome.Places
	if len(picked) == 0 {
		picked = fresh
	}
	sort.SliceStable(picked, func(i, j int) bool {
		return picked[i].DistanceMeters < picked[j].DistanceMeters
	})
	place := picked[0]

	// Write-once guard: the filter may have resurrected a told place when
	// everything fresh was dropped, so re-check before narrating.
	if h.sessions.WasTold(event.UserID, place.Title) {
		span.SetStatus(codes.Ok, "Chosen place already told")
		if !event.Live {
			h.reply(ctx, event.ChatID, msgNothingNew)
		}
		return
	}
	h.sessions.MarkTold(event.UserID, place.Title)

	_ = h.transport.SendChatAction(ctx, event.ChatID, ActionTyping)
	narration, err := h.narrator.Narrate(ctx, event.Location, place)
	if err != nil || strings.TrimSpace(narration) == "" {
		if err != nil && h.metrics != nil {
			h.metrics.UpstreamErrorsTotal.Add(ctx, 1)
		}
		span.SetStatus(codes.Ok, "Narration unavailable")
		if !event.Live {
			h.reply(ctx, event.ChatID, msgNoInfo)
		}
		return
	}

	voice, err := h.dispatcher.Deliver(ctx, event.ChatID, place, narration)
	if err != nil {
		// Transport failure: log and move on, the process must keep serving.
		h.logger.ErrorContext(ctx, "failed to deliver narration",
			slog.Int64("chat_id", event.ChatID), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Delivery failed")
		return
	}

	if h.metrics != nil {
		h.metrics.NarrationsTotal.Add(ctx, 1)
		if voice {
			h.metrics.VoiceRepliesTotal.Add(ctx, 1)
		}
		h.metrics.PipelineDurationSeconds.Record(ctx, time.Since(start).Seconds())
	}
	span.SetAttributes(attribute.String("place.title", place.Title), attribute.Bool("reply.voice", voice))
	span.SetStatus(codes.Ok, "Narration delivered")
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string) {
	if err := h.transport.SendMessage(ctx, chatID, text); err != nil {
		h.logger.ErrorContext(ctx, "failed to send reply",
			slog.Int64("chat_id", chatID), slog.Any("error", err))
	}
}
