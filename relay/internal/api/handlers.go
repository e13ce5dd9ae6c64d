package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/AstreaTSS/basic-discord-html-viewer/pkg/logger"
	"github.com/AstreaTSS/basic-discord-html-viewer/pkg/models"
	"github.com/AstreaTSS/basic-discord-html-viewer/relay/internal/proxy"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const htmlContentType = "text/html; charset=utf-8"

// sinkTimeout bounds how long a stats or event write may hold up a response.
const sinkTimeout = time.Second

// StatsStore keeps per-outcome counters for /display.
type StatsStore interface {
	IncrOutcome(ctx context.Context, outcome string) error
	Outcomes(ctx context.Context) (map[string]int64, error)
	IsConnected(ctx context.Context) bool
}

// EventPublisher receives one event per finished /display request.
type EventPublisher interface {
	PublishDisplayEvent(event models.DisplayEvent) error
	IsConnected() bool
}

type Handler struct {
	fetcher *proxy.Fetcher
	stats   StatsStore
	events  EventPublisher
}

// NewHandler wires the shared fetcher and the optional sinks. stats and
// events may be nil.
func NewHandler(fetcher *proxy.Fetcher, stats StatsStore, events EventPublisher) *Handler {
	return &Handler{
		fetcher: fetcher,
		stats:   stats,
		events:  events,
	}
}

// Root godoc
// @Summary Liveness message
// @Tags meta
// @Produce json
// @Success 200 {object} models.MessageResponse
// @Router / [get]
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Hello World"})
}

// Head godoc
// @Summary Liveness probe for HEAD requests
// @Tags meta
// @Success 200 {object} models.MessageResponse
// @Router / [head]
func (h *Handler) Head(c *gin.Context) {
	c.JSON(http.StatusOK, models.MessageResponse{Message: "HEAD request received"})
}

// Display godoc
// @Summary Relay a Discord HTML attachment
// @Description Validates a Discord CDN attachment URL with its is/hm signature, fetches it and serves it as HTML
// @Tags relay
// @Produce html
// @Produce json
// @Param url query string true "Attachment URL"
// @Param is query string true "Signature issue timestamp"
// @Param hm query string true "Signature HMAC"
// @Success 200 {string} string "Attachment content"
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /display [get]
func (h *Handler) Display(c *gin.Context) {
	start := time.Now()

	var req models.DisplayRequest
	// Only string fields; an unbindable query leaves them empty and fails validation below.
	_ = c.ShouldBindQuery(&req)

	var body []byte
	target, err := proxy.Validate(req.URL, req.Is, req.Hm)
	if err == nil {
		body, err = h.fetcher.Fetch(c.Request.Context(), target)
	}

	outcome, message := proxy.Describe(err)
	h.record(c, target, outcome, len(body), time.Since(start))

	if err != nil {
		entry := logger.Log.WithFields(logrus.Fields{
			"request_id": requestID(c),
			"outcome":    outcome,
		})
		if target != nil {
			entry = entry.WithField("target", redact(target))
		}
		if statusForOutcome(outcome) >= http.StatusInternalServerError {
			entry.Warnf("Display failed: %v", err)
		} else {
			entry.Infof("Display rejected: %v", err)
		}

		c.JSON(statusForOutcome(outcome), models.ErrorResponse{Error: message})
		return
	}

	c.Data(http.StatusOK, htmlContentType, body)
}

// HealthCheck godoc
// @Summary Health check
// @Description Reports whether the optional Redis and NATS sinks are reachable
// @Tags meta
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Router /health [get]
func (h *Handler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), sinkTimeout)
	defer cancel()

	resp := models.HealthResponse{Status: "ok"}
	if h.stats != nil {
		resp.Redis = h.stats.IsConnected(ctx)
	}
	if h.events != nil {
		resp.NATS = h.events.IsConnected()
	}

	c.JSON(http.StatusOK, resp)
}

// Stats godoc
// @Summary Display outcome counters
// @Tags meta
// @Produce json
// @Success 200 {object} models.StatsResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /stats [get]
// @Security BasicAuth
func (h *Handler) Stats(c *gin.Context) {
	if h.stats == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "Stats store unavailable"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), sinkTimeout)
	defer cancel()

	outcomes, err := h.stats.Outcomes(ctx)
	if err != nil {
		logger.Log.WithField("request_id", requestID(c)).Errorf("Failed to read stats: %v", err)
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "Stats store unavailable"})
		return
	}

	c.JSON(http.StatusOK, models.StatsResponse{Outcomes: outcomes})
}

// record pushes the outcome to the optional sinks. Sink failures are logged
// and never change the response.
func (h *Handler) record(c *gin.Context, target *url.URL, outcome string, size int, elapsed time.Duration) {
	if h.stats == nil && h.events == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), sinkTimeout)
	defer cancel()

	if h.stats != nil {
		if err := h.stats.IncrOutcome(ctx, outcome); err != nil {
			logger.Log.Warnf("Failed to record outcome %s: %v", outcome, err)
		}
	}

	if h.events != nil {
		event := models.DisplayEvent{
			ID:         uuid.NewString(),
			RequestID:  requestID(c),
			Outcome:    outcome,
			Bytes:      size,
			DurationMs: elapsed.Milliseconds(),
			Timestamp:  time.Now().UTC(),
		}
		if target != nil {
			event.Host = target.Host
			event.Path = target.Path
		}
		if err := h.events.PublishDisplayEvent(event); err != nil {
			logger.Log.Warnf("Failed to publish display event: %v", err)
		}
	}
}

func statusForOutcome(outcome string) int {
	switch outcome {
	case proxy.OutcomeOK:
		return http.StatusOK
	case proxy.OutcomeMissingParameter, proxy.OutcomePatternMismatch, proxy.OutcomeMalformedURL:
		return http.StatusBadRequest
	case proxy.OutcomeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

// redact drops the query string, which carries the is/hm signature.
func redact(u *url.URL) string {
	return u.Scheme + "://" + u.Host + u.Path
}
