package handlers

import (
	"net/http"

	"github.com/pratik-mahalle/parlour/internal/api/dto"
	"github.com/pratik-mahalle/parlour/internal/pkg/logger"
	"github.com/pratik-mahalle/parlour/internal/pkg/utils"
	"github.com/pratik-mahalle/parlour/internal/pkg/validator"
	"github.com/pratik-mahalle/parlour/internal/services"
)

// AuthHandler handles registration and account status
type AuthHandler struct {
	accounts  *services.AccountService
	ledger    *services.UsageLedger
	logger    *logger.Logger
	validator *validator.Validator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	accounts *services.AccountService,
	ledger *services.UsageLedger,
	log *logger.Logger,
	val *validator.Validator,
) *AuthHandler {
	return &AuthHandler{
		accounts:  accounts,
		ledger:    ledger,
		logger:    log,
		validator: val,
	}
}

// Register handles user registration
// @Summary Register
// @Description Create a free-tier account and receive a bearer token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration details"
// @Success 201 {object} dto.RegisterResponse "Account created"
// @Failure 400 {object} utils.ErrorResponse "Invalid request"
// @Failure 409 {object} utils.ErrorResponse "Email already registered"
// @Failure 500 {object} utils.ErrorResponse "Internal server error"
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if appErr := decodeAndValidate(w, r, h.validator, &req); appErr != nil {
		utils.WriteError(w, appErr)
		return
	}

	reg, err := h.accounts.Register(r.Context(), req.Email, req.Name)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, dto.RegisterResponse{
		Success:   true,
		User:      dto.ToUserDTO(reg.User),
		Token:     reg.Token.Token,
		SessionID: reg.Session.ID,
		ExpiresAt: reg.Token.ExpiresAt,
	})
}

// Login reissues a token for an existing account
// @Summary Login
// @Description Issue a fresh bearer token for a registered email, resuming a live session when one is named
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Account email and optional session id"
// @Success 200 {object} dto.RegisterResponse "Token issued"
// @Failure 400 {object} utils.ErrorResponse "Invalid request"
// @Failure 404 {object} utils.ErrorResponse "User not found"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if appErr := decodeAndValidate(w, r, h.validator, &req); appErr != nil {
		utils.WriteError(w, appErr)
		return
	}

	reg, err := h.accounts.Login(r.Context(), req.Email, req.SessionID)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.RegisterResponse{
		Success:   true,
		User:      dto.ToUserDTO(reg.User),
		Token:     reg.Token.Token,
		SessionID: reg.Session.ID,
		ExpiresAt: reg.Token.ExpiresAt,
	})
}

// Status returns the caller's account and usage standing
// @Summary Account status
// @Description Current tier, usage this month, quotas, near-limit flags and feature access
// @Tags Auth
// @Produce json
// @Success 200 {object} dto.StatusResponse "Account status"
// @Failure 401 {object} utils.ErrorResponse "Missing token"
// @Failure 403 {object} utils.ErrorResponse "Invalid token"
// @Failure 404 {object} utils.ErrorResponse "User not found"
// @Security BearerAuth
// @Router /auth/status [get]
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, appErr := requireUserID(r)
	if appErr != nil {
		utils.WriteError(w, appErr)
		return
	}

	st, err := h.ledger.Status(r.Context(), userID)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}

	near := make(map[string]bool, len(st.NearLimit))
	for res, v := range st.NearLimit {
		near[string(res)] = v
	}

	utils.WriteSuccess(w, http.StatusOK, dto.StatusResponse{
		User: dto.ToUserDTO(st.User),
		Usage: dto.UsageStatusDTO{
			SubscriptionStatus: st.User.Tier,
			Usage:              st.Snapshot.Usage,
			Limits:             st.Snapshot.Limits,
			NearLimit:          near,
			Features:           st.Features,
		},
	})
}
