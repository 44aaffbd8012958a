package handlers

import (
	"io"
	"net/http"

	"github.com/pratik-mahalle/parlour/internal/api/dto"
	"github.com/pratik-mahalle/parlour/internal/pkg/errors"
	"github.com/pratik-mahalle/parlour/internal/pkg/logger"
	"github.com/pratik-mahalle/parlour/internal/pkg/utils"
	"github.com/pratik-mahalle/parlour/internal/pkg/validator"
	"github.com/pratik-mahalle/parlour/internal/services"
)

// Stripe invoices with many line items run to several hundred kilobytes
const maxWebhookBytes = 1 << 20

// BillingHandler handles pricing, checkout, cancellation and provider webhooks
type BillingHandler struct {
	billing     *services.BillingService
	frontendURL string
	logger      *logger.Logger
	validator   *validator.Validator
}

// NewBillingHandler creates a new BillingHandler. frontendURL is the
// checkout redirect base used when a request carries no Origin.
func NewBillingHandler(billing *services.BillingService, frontendURL string, log *logger.Logger, val *validator.Validator) *BillingHandler {
	return &BillingHandler{
		billing:     billing,
		frontendURL: frontendURL,
		logger:      log,
		validator:   val,
	}
}

// Pricing returns the price table
// @Summary Pricing
// @Tags Billing
// @Produce json
// @Success 200 {object} billing.Pricing "Prices"
// @Router /pricing [get]
func (h *BillingHandler) Pricing(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, h.billing.Pricing())
}

// CreateCheckout opens a hosted checkout session
// @Summary Create checkout session
// @Description Creates the billing customer first when the account has none
// @Tags Billing
// @Accept json
// @Produce json
// @Param request body dto.CheckoutRequest true "Price to subscribe to"
// @Success 200 {object} billing.CheckoutSession "Checkout session"
// @Failure 400 {object} utils.ErrorResponse "Unknown price"
// @Failure 500 {object} utils.ErrorResponse "Provider failure"
// @Failure 503 {object} utils.ErrorResponse "Billing not configured"
// @Security BearerAuth
// @Router /create-checkout-session [post]
func (h *BillingHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	userID, appErr := requireUserID(r)
	if appErr != nil {
		utils.WriteError(w, appErr)
		return
	}

	var req dto.CheckoutRequest
	if appErr := decodeAndValidate(w, r, h.validator, &req); appErr != nil {
		utils.WriteError(w, appErr)
		return
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = h.frontendURL
	}

	sess, err := h.billing.CreateCheckout(r.Context(), userID, req.PriceID, origin)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, sess)
}

// CancelSubscription cancels the caller's subscription
// @Summary Cancel subscription
// @Tags Billing
// @Produce json
// @Success 200 {object} utils.MessageResponse "Cancellation requested"
// @Failure 404 {object} utils.ErrorResponse "No active subscription"
// @Failure 500 {object} utils.ErrorResponse "Provider failure"
// @Security BearerAuth
// @Router /cancel-subscription [post]
func (h *BillingHandler) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	userID, appErr := requireUserID(r)
	if appErr != nil {
		utils.WriteError(w, appErr)
		return
	}

	if err := h.billing.CancelSubscription(r.Context(), userID); err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccessWithMessage(w, http.StatusOK, "Subscription cancellation requested")
}

// Webhook receives billing provider events
// @Summary Billing webhook
// @Description Raw provider payload verified against the Stripe-Signature header
// @Tags Billing
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Provider signature"
// @Success 200 {object} dto.WebhookResponse "Processed"
// @Failure 400 {object} utils.ErrorResponse "Verification or processing failed"
// @Router /stripe-webhook [post]
func (h *BillingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		utils.WriteError(w, errors.BadRequest("Webhook processing failed"))
		return
	}

	if err := h.billing.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, dto.WebhookResponse{Received: true})
}
