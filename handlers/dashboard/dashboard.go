package dashboard

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sahilchouksey/intern-track/model"
	"github.com/sahilchouksey/intern-track/services"
	"github.com/sahilchouksey/intern-track/utils/middleware"
	"github.com/sahilchouksey/intern-track/utils/response"
)

// DashboardHandler serves the college and faculty summary counts
type DashboardHandler struct {
	dashboards *services.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboards *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards}
}

// GetDashboard handles GET /api/v1/dashboard
func (h *DashboardHandler) GetDashboard(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	switch user.Role {
	case model.RoleCollege:
		d, err := h.dashboards.College(c.UserContext(), user.ID)
		if err != nil {
			return response.FromError(c, err)
		}
		return response.Success(c, d)
	case model.RoleFaculty:
		d, err := h.dashboards.Faculty(c.UserContext(), user.ID)
		if err != nil {
			return response.FromError(c, err)
		}
		return response.Success(c, d)
	}
	return response.Forbidden(c, "Dashboards are available to colleges and faculty")
}
