package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bookwell-inc/bookwell/internal/application/reconciliation"
	"github.com/bookwell-inc/bookwell/internal/infrastructure/stripe"
	"github.com/bookwell-inc/bookwell/internal/shared/constants"
	"github.com/bookwell-inc/bookwell/internal/shared/logger"
	"github.com/bookwell-inc/bookwell/internal/shared/utils"
)

// Stripe caps event bodies well below this.
const maxWebhookBodyBytes = 512 << 10

type WebhookHandler struct {
	verifier webhookVerifier
	ingestUC ingestWebhookUseCase
	logger   logger.Interface
}

func NewWebhookHandler(verifier webhookVerifier, ingestUC ingestWebhookUseCase, logger logger.Interface) *WebhookHandler {
	return &WebhookHandler{
		verifier: verifier,
		ingestUC: ingestUC,
		logger:   logger,
	}
}

// HandleStripe answers 200 for applied, skipped and duplicate events so Stripe
// stops redelivering, 400 for requests that fail verification and 500 for
// transient failures.
func (h *WebhookHandler) HandleStripe(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		h.logger.Warnw("failed to read webhook body", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "failed to read request body")
		return
	}

	event, err := h.verifier.Verify(payload, c.GetHeader(constants.HeaderStripeSignature))
	if err != nil {
		if !errors.Is(err, stripe.ErrInvalidEvent) {
			h.logger.Errorw("webhook verification failed", "error", err)
		} else {
			h.logger.Warnw("webhook rejected", "error", err)
		}
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid webhook signature or payload")
		return
	}

	result, err := h.ingestUC.Execute(c.Request.Context(), reconciliation.IngestWebhookCommand{
		Provider:  constants.ProviderStripe,
		EventID:   event.ID,
		EventType: event.Type,
		Payload:   event.Object,
	})
	if err != nil {
		h.logger.Errorw("webhook processing failed, requesting redelivery",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", err)
		utils.ErrorResponse(c, http.StatusInternalServerError, "webhook processing failed")
		return
	}

	h.logger.Infow("webhook handled",
		"event_id", event.ID,
		"event_type", event.Type,
		"outcome", result.Outcome,
		"reason", result.Reason)
	utils.SuccessResponse(c, http.StatusOK, "webhook received", result)
}
