package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/walletwise/walletwise/internal/application/entitlement"
	subdto "github.com/walletwise/walletwise/internal/application/subscription/dto"
	"github.com/walletwise/walletwise/internal/shared/biztime"
	"github.com/walletwise/walletwise/internal/shared/constants"
	"github.com/walletwise/walletwise/internal/shared/errors"
	"github.com/walletwise/walletwise/internal/shared/logger"
	"github.com/walletwise/walletwise/internal/shared/utils"
)

type SubscriptionHandler struct {
	lifecycle   SubscriptionLifecycle
	entitlement EntitlementResolver
	clock       biztime.Clock
	logger      logger.Interface
}

func NewSubscriptionHandler(
	lifecycle SubscriptionLifecycle,
	entitlement EntitlementResolver,
	clock biztime.Clock,
	logger logger.Interface,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		lifecycle:   lifecycle,
		entitlement: entitlement,
		clock:       clock,
		logger:      logger,
	}
}

// GetActiveSubscription handles GET /subscription
func (h *SubscriptionHandler) GetActiveSubscription(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	sub, err := h.lifecycle.GetActiveSubscription(c.Request.Context(), userID)
	if err != nil {
		h.logger.Warnw("failed to get active subscription", "user_id", userID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", subdto.ToSubscriptionDTO(sub, h.clock.Now()))
}

// ListHistory handles GET /subscription/history. Records come newest first.
func (h *SubscriptionHandler) ListHistory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	subs, err := h.lifecycle.ListSubscriptionHistory(c.Request.Context(), userID)
	if err != nil {
		h.logger.Errorw("failed to list subscription history", "user_id", userID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	pagination := utils.ParsePagination(c)
	start, end := utils.ApplyPagination(len(subs), pagination.Page, pagination.PageSize)

	utils.ListSuccessResponse(c, subdto.ToSubscriptionDTOList(subs[start:end], h.clock.Now()),
		int64(len(subs)), pagination.Page, pagination.PageSize)
}

// StartTrial handles POST /subscription/trial
func (h *SubscriptionHandler) StartTrial(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	sub, err := h.lifecycle.CreateTrialSelfService(c.Request.Context(), userID)
	if err != nil {
		h.logger.Warnw("self-service trial rejected", "user_id", userID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, subdto.ToSubscriptionDTO(sub, h.clock.Now()), "Trial started successfully")
}

// Cancel handles POST /subscription/cancel
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.lifecycle.CancelSubscription(c.Request.Context(), userID); err != nil {
		h.logger.Warnw("failed to cancel subscription", "user_id", userID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Subscription cancelled successfully", nil)
}

// GetEntitlement handles GET /subscription/entitlement. It never fails: a
// user whose subscription cannot be read is reported with tier NONE.
func (h *SubscriptionHandler) GetEntitlement(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	tier := h.entitlement.ResolveTier(ctx, userID)

	result := &subdto.EntitlementDTO{
		Tier:                 string(tier),
		IsPremium:            tier == entitlement.TierPremium,
		RemainingReportQuota: h.entitlement.RemainingReportQuota(ctx, userID),
	}

	if tier != entitlement.TierNone {
		if sub, err := h.lifecycle.GetActiveSubscription(ctx, userID); err == nil {
			result.Subscription = subdto.ToSubscriptionDTO(sub, h.clock.Now())
		}
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

func currentUserID(c *gin.Context) (uint, bool) {
	value, exists := c.Get(constants.ContextKeyUserID)
	if userID, ok := value.(uint); exists && ok && userID != 0 {
		return userID, true
	}
	utils.ErrorResponseWithError(c, errors.NewUnauthorizedError("user not authenticated"))
	return 0, false
}
