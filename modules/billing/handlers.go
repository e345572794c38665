package billing

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrymomot/chatbill/core"
	"github.com/dmitrymomot/chatbill/pkg/subscription"
	"github.com/dmitrymomot/chatbill/pkg/webhook"
)

// signatureHeader carries the webhook signature computed by the gateway
// over the raw request body.
const signatureHeader = "X-Razorpay-Signature"

// maxWebhookBody bounds webhook payload size. Gateway events are small;
// anything larger is not a legitimate delivery.
const maxWebhookBody = 1 << 20

// Handler exposes the billing service over HTTP.
type Handler struct {
	svc        *Service
	dispatcher *webhook.Dispatcher
	validate   *validator.Validate
	log        *slog.Logger
}

func NewHandler(svc *Service, dispatcher *webhook.Dispatcher, log *slog.Logger) *Handler {
	return &Handler{
		svc:        svc,
		dispatcher: dispatcher,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		log:        log,
	}
}

// HandleWebhook receives gateway event deliveries. The signature is
// verified over the exact raw bytes before any parsing; a body that was
// re-serialized would not verify. Response codes tell the gateway whether
// to retry: 2xx acknowledges, 4xx rejects permanently, 5xx retries.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		core.Error(w, r, core.ErrBadRequest)
		return
	}

	sig := r.Header.Get(signatureHeader)
	if err := webhook.VerifySignature(h.svc.cfg.RazorpayWebhookSecret, body, sig); err != nil {
		switch {
		case errors.Is(err, webhook.ErrMissingSecret):
			// Deployment misconfiguration, not a client fault.
			core.Error(w, r, core.ErrInternalServerError)
		case errors.Is(err, webhook.ErrMissingSignature):
			core.Error(w, r, core.ErrBadRequest)
		default:
			h.log.WarnContext(r.Context(), "security event",
				slog.String("event", "webhook_signature_mismatch"),
				slog.String("signature", webhook.SafePrefix(sig)))
			core.Error(w, r, core.ErrForbidden)
		}
		return
	}

	event, err := webhook.ParseEvent(body)
	if err != nil {
		core.Error(w, r, core.ErrBadRequest)
		return
	}

	if err := h.dispatcher.Dispatch(r.Context(), event); err != nil {
		// Replays and unknown events are acknowledged inside the
		// dispatcher. State conflicts (wrong amount, unknown or expired
		// order) are permanent, so they map to 4xx to stop redelivery;
		// only transient failures fall through as 500 and get retried.
		core.Error(w, r, mapServiceError(err))
		return
	}

	core.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleCreateOrder opens a checkout order for the authenticated user.
func (h *Handler) HandleCreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		core.Error(w, r, core.ErrUnauthorized)
		return
	}

	var req CreateOrderRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.svc.CreateOrder(r.Context(), userID, req.PlanID)
	if err != nil {
		core.Error(w, r, mapServiceError(err))
		return
	}
	core.JSON(w, r, http.StatusCreated, resp)
}

// HandleVerifyPayment applies a checkout callback for the authenticated user.
func (h *Handler) HandleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		core.Error(w, r, core.ErrUnauthorized)
		return
	}

	var req VerifyPaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	access, err := h.svc.VerifyPayment(r.Context(), userID, req)
	if err != nil {
		core.Error(w, r, mapServiceError(err))
		return
	}
	core.JSON(w, r, http.StatusOK, accessResponse(access))
}

// HandleGetSubscription returns the caller's access snapshot.
func (h *Handler) HandleGetSubscription(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		core.Error(w, r, core.ErrUnauthorized)
		return
	}

	access, err := h.svc.GetAccess(r.Context(), userID)
	if err != nil {
		core.Error(w, r, mapServiceError(err))
		return
	}
	core.JSON(w, r, http.StatusOK, accessResponse(access))
}

// HandleStartTrial grants the caller's one-time trial.
func (h *Handler) HandleStartTrial(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		core.Error(w, r, core.ErrUnauthorized)
		return
	}

	access, err := h.svc.StartTrial(r.Context(), userID)
	if err != nil {
		core.Error(w, r, mapServiceError(err))
		return
	}
	core.JSON(w, r, http.StatusOK, accessResponse(access))
}

// decode unmarshals and validates the request body, writing a 400 on
// failure. Validation failures return the envelope's generic bad_request
// code; field-level details are not leaked.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.Error(w, r, core.ErrBadRequest)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		core.Error(w, r, core.ErrBadRequest)
		return false
	}
	return true
}

// mapServiceError translates domain errors into HTTP envelope errors.
// Unknown errors fall through to a generic 500 inside core.Error.
func mapServiceError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidPlan):
		return core.NewHTTPError(http.StatusBadRequest, "invalid_plan")
	case errors.Is(err, ErrOrderNotFound):
		return core.ErrNotFound
	case errors.Is(err, ErrOrderOwnershipViolation):
		return core.ErrForbidden
	case errors.Is(err, ErrOrderAlreadyProcessed):
		return core.ErrConflict
	case errors.Is(err, ErrOrderExpired):
		return core.NewHTTPError(http.StatusGone, "order_expired")
	case errors.Is(err, ErrAmountMismatch):
		return core.NewHTTPError(http.StatusBadRequest, "amount_mismatch")
	case errors.Is(err, webhook.ErrSignatureMismatch):
		return core.NewHTTPError(http.StatusBadRequest, "invalid_signature")
	case errors.Is(err, ErrTrialAlreadyUsed):
		return core.NewHTTPError(http.StatusConflict, "trial_already_used")
	case errors.Is(err, ErrTrialUnavailable):
		return core.NewHTTPError(http.StatusConflict, "trial_unavailable")
	case errors.Is(err, ErrGatewayFailure):
		return core.NewHTTPError(http.StatusBadGateway, "gateway_unavailable")
	}
	return err
}

func accessResponse(a *subscription.Access) AccessResponse {
	return AccessResponse{
		HasAccess:     a.HasAccess,
		Status:        a.Status,
		Tier:          a.Tier,
		DaysRemaining: a.DaysRemaining,
		Restrictions:  a.Restrictions,
	}
}
