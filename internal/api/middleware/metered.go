package middleware

import (
	"bytes"
	"context"
	"math"
	"net/http"
	"time"

	"github.com/pratik-mahalle/parlour/internal/domain/usage"
	"github.com/pratik-mahalle/parlour/internal/domain/user"
	"github.com/pratik-mahalle/parlour/internal/pkg/errors"
	"github.com/pratik-mahalle/parlour/internal/pkg/logger"
	"github.com/pratik-mahalle/parlour/internal/pkg/utils"
)

// DecisionKey is the context key for the admission decision of a metered request
const DecisionKey ContextKey = "usageDecision"

// GetDecision returns the admission decision the gate made for r
func GetDecision(r *http.Request) (usage.Decision, bool) {
	d, ok := r.Context().Value(DecisionKey).(usage.Decision)
	return d, ok
}

// meteredWriter holds the response until usage has been recorded
type meteredWriter struct {
	http.ResponseWriter
	status int
	wrote  bool
	buf    bytes.Buffer
}

func (mw *meteredWriter) WriteHeader(code int) {
	if mw.wrote {
		return
	}
	mw.status = code
	mw.wrote = true
}

func (mw *meteredWriter) Write(b []byte) (int, error) {
	if !mw.wrote {
		mw.WriteHeader(http.StatusOK)
	}
	return mw.buf.Write(b)
}

func (mw *meteredWriter) Unwrap() http.ResponseWriter {
	return mw.ResponseWriter
}

func (mw *meteredWriter) flush() {
	if !mw.wrote {
		return
	}
	mw.ResponseWriter.WriteHeader(mw.status)
	_, _ = mw.ResponseWriter.Write(mw.buf.Bytes())
}

// Gate admits metered requests against the usage ledger and records what
// each admitted request actually consumed
type Gate struct {
	ledger usage.Ledger
	strict bool
	logger *logger.Logger
}

// NewGate creates a gate. With strict set, admission reserves the gated
// amount atomically instead of only checking it.
func NewGate(ledger usage.Ledger, strict bool, log *logger.Logger) *Gate {
	return &Gate{
		ledger: ledger,
		strict: strict,
		logger: log.WithComponent("gate"),
	}
}

// Metered gates a route on amount of resource. It must run after
// AuthMiddleware.
func (g *Gate) Metered(resource usage.Resource, amount int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserID(r)
			if !ok {
				utils.WriteError(w, errors.Unauthorized("Access token required"))
				return
			}

			var (
				d   usage.Decision
				err error
			)
			if g.strict {
				d, err = g.ledger.Reserve(r.Context(), userID, resource, amount)
			} else {
				d, err = g.ledger.CheckLimit(r.Context(), userID, resource, amount)
			}
			if err != nil {
				utils.WriteErr(w, err)
				return
			}
			if !d.Allowed {
				g.deny(w, r, userID, d)
				return
			}

			start := time.Now()
			mw := &meteredWriter{ResponseWriter: w}
			next.ServeHTTP(mw, r.WithContext(context.WithValue(r.Context(), DecisionKey, d)))

			if mw.wrote {
				delta := consumption(time.Since(start), mw.buf.Len())
				if g.strict {
					delta = withoutReserved(delta, resource, amount)
				}
				g.record(r, userID, delta)
			}
			mw.flush()
		})
	}
}

func (g *Gate) deny(w http.ResponseWriter, r *http.Request, userID string, d usage.Decision) {
	body := utils.LimitExceededResponse{
		Resource:  string(d.Resource),
		Current:   d.Current,
		Limit:     d.Limit,
		Remaining: d.Remaining,
	}
	if snap, err := g.ledger.Snapshot(r.Context(), userID); err == nil {
		body.Limits = snap.Limits
	}
	AddLogField(w, "limit_exceeded", string(d.Resource))
	utils.WriteLimitExceeded(w, errors.LimitExceeded(d.Reason), body)
}

func (g *Gate) record(r *http.Request, userID string, delta user.UsageDelta) {
	if delta.IsZero() {
		return
	}
	// the commit outlives a client that hung up after the body was produced
	ctx := context.WithoutCancel(r.Context())
	if err := g.ledger.RecordUsage(ctx, userID, delta); err != nil {
		g.logger.WithError(err).WithFields(map[string]interface{}{
			"user_id":    userID,
			"request_id": GetRequestID(r),
		}).Error("Failed to record usage")
	}
}

// consumption is one message, the elapsed seconds rounded to the nearest
// whole second, and a token estimate of a quarter of the response bytes
// rounded up
func consumption(elapsed time.Duration, responseBytes int) user.UsageDelta {
	return user.UsageDelta{
		Messages:       1,
		ComputeSeconds: int64(math.Round(elapsed.Seconds())),
		Tokens:         int64((responseBytes + 3) / 4),
	}
}

func withoutReserved(d user.UsageDelta, r usage.Resource, amount int64) user.UsageDelta {
	switch r {
	case usage.Messages:
		d.Messages = max(0, d.Messages-amount)
	case usage.ComputeTime:
		d.ComputeSeconds = max(0, d.ComputeSeconds-amount)
	case usage.Tokens:
		d.Tokens = max(0, d.Tokens-amount)
	}
	return d
}
