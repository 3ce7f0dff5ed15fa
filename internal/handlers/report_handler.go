package handlers

import (
	"github.com/campusfind/campusfind-backend/internal/dto"
	"github.com/campusfind/campusfind-backend/internal/identity"
	"github.com/campusfind/campusfind-backend/internal/lifecycle"
	"github.com/campusfind/campusfind-backend/internal/models"
	"github.com/campusfind/campusfind-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ReportHandler struct {
	reportService *services.ReportService
}

func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func actorFromCtx(c *fiber.Ctx) lifecycle.Actor {
	userID, err := identity.UserID(c)
	if err != nil {
		return lifecycle.Actor{}
	}
	return lifecycle.Actor{ID: userID, Role: identity.Role(c)}
}

func (h *ReportHandler) Submit(c *fiber.Ctx) error {
	actor := actorFromCtx(c)
	if !actor.Known() {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.SubmitReportRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	report, err := h.reportService.Submit(actor, &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(report)
}

func (h *ReportHandler) Get(c *fiber.Ctx) error {
	reportID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid report id")
	}

	report, err := h.reportService.Get(reportID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

func (h *ReportHandler) List(c *fiber.Ctx) error {
	actor := actorFromCtx(c)

	reports, total, err := h.reportService.List(
		actor,
		models.ReportStatus(c.Query("status")),
		models.Category(c.Query("category")),
		models.Disposition(c.Query("disposition")),
		c.QueryInt("limit", 20),
		c.QueryInt("offset", 0),
	)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"reports": reports, "total": total})
}

func (h *ReportHandler) Approve(c *fiber.Ctx) error {
	reportID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid report id")
	}

	report, err := h.reportService.Approve(reportID, actorFromCtx(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

func (h *ReportHandler) Reject(c *fiber.Ctx) error {
	reportID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid report id")
	}

	var req dto.ModerateReportRequest
	_ = c.BodyParser(&req) // reason is optional

	report, err := h.reportService.Reject(reportID, actorFromCtx(c), req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}
