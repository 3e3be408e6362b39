package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// SLAHandler exposes deadline status and previews.
type SLAHandler struct {
	service *service.SLAService
}

// NewSLAHandler constructs handler.
func NewSLAHandler(slaService *service.SLAService) *SLAHandler {
	return &SLAHandler{service: slaService}
}

// Status GET /api/v1/tickets/:id/sla.
func (h *SLAHandler) Status(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	status, err := h.service.Status(c.UserContext(), *principal, c.Params("id"))
	if err != nil {
		return err
	}
	resp := dto.SLAStatusResponse{
		TicketID:              status.TicketID,
		PolicyID:              status.PolicyID,
		EvaluatedAt:           status.EvaluatedAt,
		FirstResponseDueAt:    status.FirstResponseDueAt,
		ResolutionDueAt:       status.ResolutionDueAt,
		FirstResponseBreached: status.FirstResponseBreached,
		ResolutionBreached:    status.ResolutionBreached,
		BusinessHours:         status.BusinessHours,
	}
	if status.ResolutionRemaining != nil {
		minutes := int64(status.ResolutionRemaining.Minutes())
		resp.ResolutionRemainingMinutes = &minutes
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Preview POST /api/v1/sla/preview.
func (h *SLAHandler) Preview(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.SLAPreviewRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	preview, err := h.service.PreviewDeadlines(c.UserContext(), *principal, service.PreviewInput{
		PolicyID: req.PolicyID,
		BrandID:  req.BrandID,
		Channel:  req.Channel,
		Priority: req.Priority,
		Anchor:   req.Anchor,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SLAPreviewResponse{
		PolicyID:             preview.PolicyID,
		Anchor:               preview.Anchor,
		UseBusinessHours:     preview.Budget.UseBusinessHours,
		FirstResponseMinutes: preview.Budget.FirstResponseMinutes,
		ResolutionMinutes:    preview.Budget.ResolutionMinutes,
		FirstResponseDueAt:   preview.Deadlines.FirstResponseDueAt,
		ResolutionDueAt:      preview.Deadlines.ResolutionDueAt,
		SlaDueAt:             preview.Deadlines.SlaDueAt,
	}})
}
