package handlers

import (
	"github.com/campusfind/campusfind-backend/internal/dto"
	"github.com/campusfind/campusfind-backend/internal/identity"
	"github.com/campusfind/campusfind-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type RewardHandler struct {
	rewardService *services.RewardService
}

func NewRewardHandler(rewardService *services.RewardService) *RewardHandler {
	return &RewardHandler{rewardService: rewardService}
}

func (h *RewardHandler) Create(c *fiber.Ctx) error {
	reportID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid report id")
	}

	actor := actorFromCtx(c)
	if !actor.Known() {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.CreateRewardRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	reward, err := h.rewardService.Create(reportID, actor, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(reward)
}

func (h *RewardHandler) InitiatePayment(c *fiber.Ctx) error {
	rewardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid reward id")
	}

	actor := actorFromCtx(c)
	if !actor.Known() {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	reward, err := h.rewardService.InitiatePayment(c.Context(), rewardID, actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(reward)
}

func (h *RewardHandler) ListMine(c *fiber.Ctx) error {
	userID, err := identity.UserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	given, received, err := h.rewardService.ListForUser(userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"rewards_given":    given,
		"rewards_received": received,
	})
}
