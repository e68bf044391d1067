package handler

import (
	"io"
	"net/http"

	"github.com/TESCHEL/clienthub/internal/billing"
	"github.com/TESCHEL/clienthub/pkg/logger"
	"github.com/TESCHEL/clienthub/prometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// PaymentWebhook receives signed event deliveries from the payment provider.
// The signature is checked over the raw body before anything is decoded; a
// delivery that fails verification is rejected wholesale. Verified events go
// through the reconciler, which is idempotent, so the provider is free to
// redeliver on any non-2xx response.
func (h *Handler) PaymentWebhook(c echo.Context) error {
	log := logger.FromEcho(c)

	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		log.Error("Failed to read webhook body", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable body"})
	}

	header := c.Request().Header.Get("Stripe-Signature")
	if err := billing.VerifySignature(payload, header, h.payment.WebhookSecret, billing.DefaultTolerance); err != nil {
		prometheus.WebhookSignatureFailureCounter.Inc()
		log.Warn("Webhook signature verification failed", zap.Error(err))
		return fail(c, err)
	}

	evt, err := billing.ParseEvent(payload)
	if err != nil {
		log.Warn("Failed to decode webhook event", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed event"})
	}

	outcome, err := h.reconciler.Process(evt)
	if err != nil {
		prometheus.WebhookEventCounter.WithLabelValues(evt.Type, "error").Inc()
		log.Error("Failed to process webhook event",
			zap.String("event_id", evt.ID),
			zap.String("type", evt.Type),
			zap.Error(err))
		return fail(c, err)
	}

	prometheus.WebhookEventCounter.WithLabelValues(evt.Type, outcome).Inc()
	log.Info("Webhook event processed",
		zap.String("event_id", evt.ID),
		zap.String("type", evt.Type),
		zap.String("outcome", outcome))

	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
