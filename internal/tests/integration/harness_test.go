package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pratik-mahalle/parlour/internal/api/handlers"
	"github.com/pratik-mahalle/parlour/internal/api/middleware"
	"github.com/pratik-mahalle/parlour/internal/api/router"
	"github.com/pratik-mahalle/parlour/internal/auth"
	"github.com/pratik-mahalle/parlour/internal/config"
	"github.com/pratik-mahalle/parlour/internal/domain/character"
	"github.com/pratik-mahalle/parlour/internal/pkg/validator"
	"github.com/pratik-mahalle/parlour/internal/repository/memory"
	"github.com/pratik-mahalle/parlour/internal/services"
	"github.com/pratik-mahalle/parlour/internal/testutil"
)

const webhookSecret = "whsec_integration"

type harness struct {
	t         *testing.T
	server    *httptest.Server
	store     *memory.Store
	clock     *testutil.Clock
	billing   *testutil.FakeBilling
	generator *testutil.FakeGenerator
}

type harnessOptions struct {
	strict bool
}

func newHarness(t *testing.T, opts harnessOptions) *harness {
	t.Helper()

	clock := testutil.NewClock(time.Date(2026, time.January, 15, 10, 0, 0, 0, time.UTC))
	store := memory.New(clock.Now)
	fakeBilling := testutil.NewFakeBilling(webhookSecret)
	gen := &testutil.FakeGenerator{}
	log := testutil.NewLogger()
	val := validator.New()

	cfg := &config.Config{
		Server: config.ServerConfig{
			FrontendURL:    "http://localhost:5173",
			RateLimitRPS:   1000,
			RateLimitBurst: 1000,
		},
		Auth:  config.AuthConfig{JWTSecret: "integration-secret", TokenExpiry: 24 * time.Hour},
		Quota: config.QuotaConfig{StrictAdmission: opts.strict, TTSComputeEstimate: 5},
		Billing: config.BillingConfig{
			MonthlyPriceID: "price_monthly",
			YearlyPriceID:  "price_yearly",
			SuccessPath:    "/success?session_id={CHECKOUT_SESSION_ID}",
			CancelPath:     "/cancel",
		},
	}

	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry, auth.WithClock(clock.Now))
	accounts := services.NewAccountService(store, store, issuer, 24*time.Hour, log,
		services.WithAccountClock(clock.Now),
		services.WithCustomerProvisioning(fakeBilling),
	)
	ledger := services.NewUsageLedger(store, log, services.WithLedgerClock(clock.Now))
	reconciler := services.NewBillingReconciler(store, store, log)
	billingSvc := services.NewBillingService(accounts, fakeBilling, reconciler, cfg.Billing, log)
	chat := services.NewChatService(character.Default(), gen, log)
	speech := services.NewSpeechService(&testutil.FakeSynthesizer{}, "Joanna", log)

	h := &router.Handlers{
		Health:    handlers.NewHealthHandler(store, gen, "fake", log),
		Auth:      handlers.NewAuthHandler(accounts, ledger, log, val),
		Chat:      handlers.NewChatHandler(chat, speech, log, val),
		Billing:   handlers.NewBillingHandler(billingSvc, cfg.Server.FrontendURL, log, val),
		Analytics: handlers.NewAnalyticsHandler(accounts, ledger, log),
	}
	deps := router.Deps{
		Verifier: issuer,
		Gate:     middleware.NewGate(ledger, opts.strict, log),
	}

	ts := httptest.NewServer(router.New(cfg, log, h, deps))
	t.Cleanup(ts.Close)

	return &harness{
		t:         t,
		server:    ts,
		store:     store,
		clock:     clock,
		billing:   fakeBilling,
		generator: gen,
	}
}

// do sends a JSON request and decodes a JSON response into out when non-nil
func (h *harness) do(method, path, token string, body interface{}, out interface{}) *http.Response {
	h.t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			h.t.Fatalf("marshal body: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, h.server.URL+path, rdr)
	if err != nil {
		h.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		h.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		h.t.Fatalf("read body: %v", err)
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			h.t.Fatalf("decode %s %s response %q: %v", method, path, raw, err)
		}
	}
	return resp
}

type registration struct {
	User struct {
		ID                 string `json:"id"`
		Email              string `json:"email"`
		SubscriptionStatus string `json:"subscriptionStatus"`
	} `json:"user"`
	Token     string `json:"token"`
	SessionID string `json:"sessionId"`
}

func (h *harness) register(email string) registration {
	h.t.Helper()
	var reg registration
	resp := h.do(http.MethodPost, "/auth/register", "", map[string]string{"email": email, "name": "Guest"}, &reg)
	if resp.StatusCode != http.StatusCreated {
		h.t.Fatalf("register %s: status %d", email, resp.StatusCode)
	}
	return reg
}

// webhook posts a raw payload the fake billing provider knows how to decode
func (h *harness) webhook(payload, signature string) *http.Response {
	h.t.Helper()
	req, err := http.NewRequest(http.MethodPost, h.server.URL+"/stripe-webhook", bytes.NewBufferString(payload))
	if err != nil {
		h.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Stripe-Signature", signature)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		h.t.Fatalf("webhook: %v", err)
	}
	resp.Body.Close()
	return resp
}
