package registration

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/crvs/bridge/internal/platform/crvs"
)

// DeliveryRecorder logs inbound webhook deliveries with enough context to
// replay them later.
type DeliveryRecorder interface {
	Record(ctx context.Context, eventType string, payload []byte) (uuid.UUID, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

// Handler receives CRVS webhook notifications.
type Handler struct {
	svc        *Service
	deliveries DeliveryRecorder
	secret     string
	logger     zerolog.Logger
}

func NewHandler(svc *Service, deliveries DeliveryRecorder, secret string, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, deliveries: deliveries, secret: secret, logger: logger}
}

// RegisterRoutes registers the webhook receiver.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/webhooks", h.Receive)
}

// Receive verifies the delivery signature and processes the notification.
// The upstream system cannot selectively redeliver, so transformation
// failures are logged and the delivery is acknowledged anyway; only
// signature failures are rejected.
func (h *Handler) Receive(c echo.Context) error {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}

	sig := crvs.SignatureFromHeader(c.Request().Header)
	if sig == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing signature")
	}
	if !crvs.VerifySignature(h.secret, raw, sig) {
		h.logger.Warn().Msg("webhook signature mismatch")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid signature")
	}

	ctx := c.Request().Context()

	var n crvs.Notification
	if err := json.Unmarshal(raw, &n); err != nil {
		h.logger.Error().Err(err).Msg("undecodable webhook payload")
		return c.String(http.StatusOK, "OK")
	}

	topic := n.Topic()
	deliveryID, recErr := h.deliveries.Record(ctx, topic, raw)
	if recErr != nil {
		h.logger.Error().Err(recErr).Str("event_id", n.ID).Msg("failed to record delivery")
	}

	if topic != crvs.TopicBirthRegistered {
		h.logger.Info().Str("topic", topic).Str("event_id", n.ID).Msg("ignoring non-birth topic")
		h.markProcessed(ctx, deliveryID, recErr)
		return c.String(http.StatusOK, "OK")
	}

	if _, err := h.svc.Process(ctx, &n); err != nil {
		h.logger.Error().Err(err).
			Str("event_id", n.ID).
			Str("timestamp", n.Timestamp).
			Msg("failed to process birth registration")
		if recErr == nil {
			if mErr := h.deliveries.MarkFailed(ctx, deliveryID, err.Error()); mErr != nil {
				h.logger.Error().Err(mErr).Msg("failed to mark delivery failed")
			}
		}
		return c.String(http.StatusOK, "OK")
	}

	h.markProcessed(ctx, deliveryID, recErr)
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) markProcessed(ctx context.Context, id uuid.UUID, recErr error) {
	if recErr != nil {
		return
	}
	if err := h.deliveries.MarkProcessed(ctx, id); err != nil {
		h.logger.Error().Err(err).Msg("failed to mark delivery processed")
	}
}
