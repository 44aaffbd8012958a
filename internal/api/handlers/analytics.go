package handlers

import (
	"net/http"

	"github.com/pratik-mahalle/parlour/internal/api/dto"
	"github.com/pratik-mahalle/parlour/internal/pkg/logger"
	"github.com/pratik-mahalle/parlour/internal/pkg/utils"
	"github.com/pratik-mahalle/parlour/internal/services"
)

// AnalyticsHandler reports usage statistics
type AnalyticsHandler struct {
	accounts *services.AccountService
	ledger   *services.UsageLedger
	logger   *logger.Logger
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(accounts *services.AccountService, ledger *services.UsageLedger, log *logger.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		accounts: accounts,
		ledger:   ledger,
		logger:   log,
	}
}

// Get returns usage as a percentage of each quota
// @Summary Usage analytics
// @Description Percentage of each monthly quota used; unlimited quotas report 0
// @Tags Analytics
// @Produce json
// @Success 200 {object} dto.AnalyticsResponse "Usage statistics"
// @Failure 404 {object} utils.ErrorResponse "User not found"
// @Security BearerAuth
// @Router /analytics [get]
func (h *AnalyticsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, appErr := requireUserID(r)
	if appErr != nil {
		utils.WriteError(w, appErr)
		return
	}

	u, err := h.accounts.GetUser(r.Context(), userID)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	an, err := h.ledger.Analytics(r.Context(), userID)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}

	pct := make(map[string]float64, len(an.Percentages))
	for res, v := range an.Percentages {
		pct[string(res)] = v
	}

	utils.WriteSuccess(w, http.StatusOK, dto.AnalyticsResponse{
		User: dto.AnalyticsUserDTO{
			ID:                 u.ID,
			Email:              u.Email,
			SubscriptionStatus: u.Tier,
			CreatedAt:          u.CreatedAt,
		},
		Usage:           an.Snapshot.Usage,
		Limits:          an.Snapshot.Limits,
		UsagePercentage: pct,
	})
}
