package handlers

import (
	"github.com/campusfind/campusfind-backend/internal/dto"
	"github.com/campusfind/campusfind-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ClaimHandler struct {
	claimService *services.ClaimService
}

func NewClaimHandler(claimService *services.ClaimService) *ClaimHandler {
	return &ClaimHandler{claimService: claimService}
}

func (h *ClaimHandler) Create(c *fiber.Ctx) error {
	reportID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid report id")
	}

	actor := actorFromCtx(c)
	if !actor.Known() {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.CreateClaimRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	claim, err := h.claimService.Create(reportID, actor, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(claim)
}

func (h *ClaimHandler) Approve(c *fiber.Ctx) error {
	claimID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid claim id")
	}

	claim, err := h.claimService.Approve(claimID, actorFromCtx(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(claim)
}

func (h *ClaimHandler) Reject(c *fiber.Ctx) error {
	claimID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid claim id")
	}

	var req dto.ModerateReportRequest
	_ = c.BodyParser(&req)

	claim, err := h.claimService.Reject(claimID, actorFromCtx(c), req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(claim)
}

func (h *ClaimHandler) ListByReport(c *fiber.Ctx) error {
	reportID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid report id")
	}

	claims, err := h.claimService.ListByReport(reportID, actorFromCtx(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"claims": claims})
}
