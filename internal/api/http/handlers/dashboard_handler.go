package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grievance-desk/internal/api/dto"
	"github.com/spec-kit/grievance-desk/internal/routing"
	"github.com/spec-kit/grievance-desk/internal/service"
)

// DashboardHandler serves aggregate views for the admin dashboard.
type DashboardHandler struct {
	tickets *service.TicketService
	queries *service.QueryService
	routes  *routing.Table
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(tickets *service.TicketService, queries *service.QueryService, routes *routing.Table) *DashboardHandler {
	return &DashboardHandler{tickets: tickets, queries: queries, routes: routes}
}

// Stats GET /api/stats.
func (h *DashboardHandler) Stats(c *fiber.Ctx) error {
	summary, err := h.queries.Summarize(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SummaryResponse{
		Total:               summary.Total,
		Open:                summary.Open,
		Resolved:            summary.Resolved,
		BreakdownByCategory: summary.ByCategory,
		BreakdownByStatus:   summary.ByStatus,
	}})
}

// Filters GET /api/filters.
func (h *DashboardHandler) Filters(c *fiber.Ctx) error {
	values, err := h.queries.DistinctValues(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FiltersResponse{
		Categories: values.Categories,
		Statuses:   values.Statuses,
		Severities: values.Severities,
		Officers:   values.Officers,
	}})
}

// Routing GET /api/routing.
func (h *DashboardHandler) Routing(c *fiber.Ctx) error {
	out := make(map[string]dto.RoutingEntryResponse, h.routes.Len())
	for _, entry := range h.routes.Entries() {
		out[entry.Category] = dto.RoutingEntryResponse{
			L1:  entry.Primary,
			L2:  entry.Secondary,
			SLA: entry.SLAHours,
		}
	}
	return c.JSON(fiber.Map{"data": out})
}

// Locations GET /api/locations. Tickets without coordinates are omitted.
func (h *DashboardHandler) Locations(c *fiber.Ctx) error {
	views, err := h.tickets.List(c.UserContext(), parseTicketFilter(c))
	if err != nil {
		return err
	}
	markers := make([]dto.LocationResponse, 0, len(views))
	for _, view := range views {
		t := view.Ticket
		if t.Location == nil {
			continue
		}
		markers = append(markers, dto.LocationResponse{
			TicketID:    t.ID,
			Lat:         t.Location.Lat,
			Long:        t.Location.Long,
			Category:    t.Category,
			Severity:    string(t.Severity),
			Status:      string(t.Status),
			Description: t.Description,
			Escalated:   view.Escalation.Escalated,
		})
	}
	return c.JSON(fiber.Map{"data": markers})
}
