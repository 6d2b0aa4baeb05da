package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grievance-desk/internal/api/dto"
	"github.com/spec-kit/grievance-desk/internal/auth"
	"github.com/spec-kit/grievance-desk/internal/service"
	apperrors "github.com/spec-kit/grievance-desk/pkg/util/errorutil"
)

// TicketsHandler serves ticket intake and the read API.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	raw := map[string]any{}
	if err := c.BodyParser(&raw); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if len(raw) == 0 {
		return apperrors.NewValidationError("empty payload", nil)
	}

	res, err := h.service.SubmitRaw(c.UserContext(), raw)
	if err != nil {
		return err
	}
	warnings := make([]string, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		warnings = append(warnings, w.String())
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.IntakeResponse{
		Ticket:          ticketResponse(res.Ticket),
		Acknowledgement: service.ComposeAcknowledgement(res.Acknowledgement),
		Warnings:        warnings,
	}})
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	views, err := h.service.List(c.UserContext(), parseTicketFilter(c))
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(views))
	for _, view := range views {
		items = append(items, ticketResponse(view))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	view, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(*view)})
}

// UpdateStatus PATCH /api/tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Status) == "" {
		return apperrors.NewValidationError("status required", nil)
	}
	actor := ""
	if principal, ok := auth.PrincipalFromContext(c); ok {
		actor = principal.SubjectID
	}
	view, err := h.service.UpdateStatus(c.UserContext(), c.Params("id"), req.Status, actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(*view)})
}

// History GET /api/tickets/:id/history.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	entries, err := h.service.History(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.TicketHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.TicketHistoryResponse{
			ID:        entry.ID,
			ChangedBy: entry.ChangedBy,
			OldStatus: string(entry.OldStatus),
			NewStatus: string(entry.NewStatus),
			CreatedAt: entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// parseTicketFilter reads filters from the query string. "All" is
// accepted as an explicit no-op for dropdown-driven clients.
func parseTicketFilter(c *fiber.Ctx) service.TicketFilter {
	return service.TicketFilter{
		Category: filterValue(c.Query("category")),
		Status:   filterValue(c.Query("status")),
		Severity: filterValue(c.Query("severity")),
		Officer:  filterValue(c.Query("officer")),
		Search:   c.Query("search"),
	}
}

func filterValue(v string) string {
	if v == "All" {
		return ""
	}
	return v
}

func ticketResponse(view service.TicketView) dto.TicketResponse {
	t := view.Ticket
	resp := dto.TicketResponse{
		TicketID:    t.ID,
		Timestamp:   t.Timestamp.UTC(),
		Category:    t.Category,
		Description: t.Description,
		Severity:    string(t.Severity),
		Status:      string(t.Status),
		Officer:     t.Officer,
		MapLink:     t.MapLink(),
		PhotoURL:    t.PhotoURL,
		Escalation: dto.EscalationResponse{
			Applicable: view.Escalation.Applicable,
			Escalated:  view.Escalation.Escalated,
			Assignee:   view.Escalation.Assignee,
			Message:    view.Escalation.Message,
		},
	}
	if t.Location != nil {
		lat, long := t.Location.Lat, t.Location.Long
		resp.Lat = &lat
		resp.Long = &long
	}
	return resp
}
