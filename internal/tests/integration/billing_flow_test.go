package integration

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/pratik-mahalle/parlour/internal/domain/billing"
	"github.com/pratik-mahalle/parlour/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusResponse struct {
	User struct {
		SubscriptionStatus string `json:"subscriptionStatus"`
	} `json:"user"`
	Usage struct {
		SubscriptionStatus string           `json:"subscriptionStatus"`
		Limits             map[string]int64 `json:"limits"`
		NearLimit          map[string]bool  `json:"nearLimit"`
		Features           map[string]bool  `json:"features"`
	} `json:"usage"`
}

func (h *harness) status(token string) statusResponse {
	h.t.Helper()
	var out statusResponse
	resp := h.do(http.MethodGet, "/auth/status", token, nil, &out)
	require.Equal(h.t, http.StatusOK, resp.StatusCode)
	return out
}

func (h *harness) setMessages(userID string, n int64) {
	h.t.Helper()
	_, err := h.store.MutateUsage(context.Background(), userID, func(u *user.Usage) error {
		u.Messages = n
		return nil
	})
	require.NoError(h.t, err)
}

func TestBilling_SubscriptionLifecycle(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	reg := h.register("patron@example.com")
	customer := "cus_" + reg.User.ID
	h.setMessages(reg.User.ID, 60)

	resp := h.do(http.MethodPost, "/chat", reg.Token, map[string]string{"user": "Once more"}, nil)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	h.billing.AddEvent(`{"id":"evt_1"}`, billing.Event{
		ID:             "evt_1",
		Type:           billing.SubscriptionChanged,
		CustomerID:     customer,
		SubscriptionID: "sub_1",
		Status:         "active",
	})
	resp = h.webhook(`{"id":"evt_1"}`, webhookSecret)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	st := h.status(reg.Token)
	assert.Equal(t, "active", st.User.SubscriptionStatus)
	assert.EqualValues(t, -1, st.Usage.Limits["messagesPerMonth"])
	assert.True(t, st.Usage.Features["unlimited_messages"])

	var out chatResponse
	resp = h.do(http.MethodPost, "/chat", reg.Token, map[string]string{"user": "Once more"}, &out)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, -1, out.Usage.Remaining)
	assert.EqualValues(t, -1, out.Usage.Limit)

	// replayed deliveries converge on the same state
	resp = h.webhook(`{"id":"evt_1"}`, webhookSecret)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "active", h.status(reg.Token).User.SubscriptionStatus)

	resp = h.do(http.MethodPost, "/cancel-subscription", reg.Token, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"sub_1"}, h.billing.Cancelled)
	assert.Equal(t, "active", h.status(reg.Token).User.SubscriptionStatus, "tier changes only on the provider event")

	h.billing.AddEvent(`{"id":"evt_2"}`, billing.Event{
		ID:             "evt_2",
		Type:           billing.SubscriptionCancelled,
		CustomerID:     customer,
		SubscriptionID: "sub_1",
		Status:         "canceled",
	})
	resp = h.webhook(`{"id":"evt_2"}`, webhookSecret)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	st = h.status(reg.Token)
	assert.Equal(t, "cancelled", st.User.SubscriptionStatus)
	assert.EqualValues(t, 10, st.Usage.Limits["messagesPerMonth"])

	var denied limitResponse
	resp = h.do(http.MethodPost, "/chat", reg.Token, map[string]string{"user": "Hello?"}, &denied)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.EqualValues(t, 10, denied.Limit)
	assert.EqualValues(t, 0, denied.Remaining)
}

func TestBilling_PaymentFailedDowngrades(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	reg := h.register("late@example.com")

	h.billing.AddEvent("failed", billing.Event{Type: billing.PaymentFailed, CustomerID: "cus_" + reg.User.ID})
	resp := h.webhook("failed", webhookSecret)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "past_due", h.status(reg.Token).User.SubscriptionStatus)

	for i := 0; i < 10; i++ {
		resp = h.do(http.MethodPost, "/chat", reg.Token, map[string]string{"user": "Hi"}, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, "message %d", i+1)
	}
	resp = h.do(http.MethodPost, "/chat", reg.Token, map[string]string{"user": "Hi"}, nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	h.billing.AddEvent("paid", billing.Event{Type: billing.PaymentSucceeded, CustomerID: "cus_" + reg.User.ID})
	resp = h.webhook("paid", webhookSecret)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "active", h.status(reg.Token).User.SubscriptionStatus)
}

func TestBilling_WebhookRejections(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	reg := h.register("victim@example.com")
	h.billing.AddEvent("forged", billing.Event{
		Type:       billing.SubscriptionChanged,
		CustomerID: "cus_" + reg.User.ID,
		Status:     "active",
	})

	resp := h.webhook("forged", "not-the-secret")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "free", h.status(reg.Token).User.SubscriptionStatus)

	resp = h.webhook("garbage", webhookSecret)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBilling_LargeInvoiceWebhook(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	reg := h.register("bulk@example.com")

	// an invoice event padded out like one carrying hundreds of line items
	payload := `{"type":"invoice.payment_succeeded","lines":"` + strings.Repeat("x", 300<<10) + `"}`
	h.billing.AddEvent(payload, billing.Event{
		Type:       billing.PaymentSucceeded,
		CustomerID: "cus_" + reg.User.ID,
	})

	resp := h.webhook(payload, webhookSecret)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "active", h.status(reg.Token).User.SubscriptionStatus)
}

func TestBilling_IgnoredAndUnmatchedEvents(t *testing.T) {
	h := newHarness(t, harnessOptions{})

	h.billing.AddEvent("other", billing.Event{ProviderType: "charge.refunded"})
	h.billing.AddEvent("stranger", billing.Event{Type: billing.PaymentFailed, CustomerID: "cus_nobody"})

	for _, payload := range []string{"other", "stranger"} {
		resp := h.webhook(payload, webhookSecret)
		assert.Equal(t, http.StatusOK, resp.StatusCode, payload)
	}
}

func TestBilling_Checkout(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	reg := h.register("buyer@example.com")

	var sess struct {
		SessionID string `json:"sessionId"`
		URL       string `json:"url"`
	}
	resp := h.do(http.MethodPost, "/create-checkout-session", reg.Token, map[string]string{"priceId": "price_monthly"}, &sess)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "cs_test_cus_"+reg.User.ID, sess.SessionID)
	assert.Equal(t, "https://checkout.example.com/price_monthly", sess.URL)

	var body map[string]interface{}
	resp = h.do(http.MethodPost, "/create-checkout-session", reg.Token, map[string]string{"priceId": "price_gold"}, &body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Unknown price", body["error"])

	resp = h.do(http.MethodPost, "/create-checkout-session", reg.Token, map[string]string{}, &body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])

	resp = h.do(http.MethodPost, "/create-checkout-session", "", map[string]string{"priceId": "price_monthly"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestBilling_CancelWithoutSubscription(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	reg := h.register("nosub@example.com")

	var body map[string]interface{}
	resp := h.do(http.MethodPost, "/cancel-subscription", reg.Token, nil, &body)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["code"])
	assert.Empty(t, h.billing.Cancelled)
}

func TestBilling_Pricing(t *testing.T) {
	h := newHarness(t, harnessOptions{})

	var pricing struct {
		Monthly struct {
			PriceID string `json:"priceId"`
			Amount  int64  `json:"amount"`
		} `json:"monthly"`
		Yearly struct {
			PriceID string `json:"priceId"`
		} `json:"yearly"`
	}
	resp := h.do(http.MethodGet, "/pricing", "", nil, &pricing)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "price_monthly", pricing.Monthly.PriceID)
	assert.Equal(t, "price_yearly", pricing.Yearly.PriceID)
	assert.Positive(t, pricing.Monthly.Amount)
}

func TestAnalytics_UsagePercentages(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	reg := h.register("curious@example.com")
	h.setMessages(reg.User.ID, 45)

	var out struct {
		User struct {
			ID                 string `json:"id"`
			SubscriptionStatus string `json:"subscriptionStatus"`
		} `json:"user"`
		Usage struct {
			Messages int64 `json:"messagesThisMonth"`
		} `json:"usage"`
		UsagePercentage map[string]float64 `json:"usagePercentage"`
	}
	resp := h.do(http.MethodGet, "/analytics", reg.Token, nil, &out)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, reg.User.ID, out.User.ID)
	assert.Equal(t, "free", out.User.SubscriptionStatus)
	assert.EqualValues(t, 45, out.Usage.Messages)
	assert.InDelta(t, 90.0, out.UsagePercentage["messages"], 0.001)
	assert.InDelta(t, 0.0, out.UsagePercentage["computeTime"], 0.001)

	assert.True(t, h.status(reg.Token).Usage.NearLimit["messages"])
}
