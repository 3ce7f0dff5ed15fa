package handlers

import (
	"crypto/subtle"
	"errors"
	"log/slog"

	"github.com/campusfind/campusfind-backend/internal/apperr"
	"github.com/campusfind/campusfind-backend/internal/config"
	"github.com/campusfind/campusfind-backend/internal/dto"
	"github.com/campusfind/campusfind-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type WebhookHandler struct {
	rewardService *services.RewardService
	cfg           *config.Config
}

func NewWebhookHandler(rewardService *services.RewardService, cfg *config.Config) *WebhookHandler {
	return &WebhookHandler{rewardService: rewardService, cfg: cfg}
}

// HandleMpesaCallback receives the gateway's asynchronous payment outcome.
// Authenticated with a shared secret; duplicate and out-of-order deliveries
// are acknowledged with 200 so the gateway stops retrying.
func (h *WebhookHandler) HandleMpesaCallback(c *fiber.Ctx) error {
	if h.cfg.WebhookSecret == "" {
		return fail(c, fiber.StatusNotFound, "Webhooks not configured")
	}

	secret := c.Get("X-Webhook-Secret")
	if subtle.ConstantTimeCompare([]byte(secret), []byte(h.cfg.WebhookSecret)) != 1 {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.MpesaCallbackRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid webhook payload")
	}

	success := req.ResultCode == 0
	reward, err := h.rewardService.HandleGatewayCallback(
		req.RewardID, success, req.TransactionRef, req.ResultDesc, c.Body())
	if err != nil {
		var stateErr *apperr.StateError
		if errors.As(err, &stateErr) {
			slog.Info("duplicate gateway callback ignored",
				"reward_id", req.RewardID.String(), "current", stateErr.Current)
			return c.JSON(fiber.Map{"received": true, "duplicate": true})
		}
		slog.Error("gateway callback processing failed",
			"reward_id", req.RewardID.String(), "error", err)
		return respondError(c, err)
	}

	slog.Info("gateway callback processed",
		"reward_id", reward.ID.String(), "status", string(reward.Status))
	return c.JSON(fiber.Map{"received": true})
}
