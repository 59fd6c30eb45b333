// Package live streams collection snapshots to clients as server-sent
// events. Every change to a watched collection re-sends the full list.
package live

import (
	"bufio"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sahilchouksey/intern-track/model"
	"github.com/sahilchouksey/intern-track/services"
	"github.com/sahilchouksey/intern-track/services/realtime"
	"github.com/sahilchouksey/intern-track/utils/middleware"
	"github.com/sahilchouksey/intern-track/utils/response"
	"github.com/sahilchouksey/intern-track/utils/sse"
)

// DefaultKeepAlive is how often an idle stream sends a comment line
const DefaultKeepAlive = 20 * time.Second

// Services are the owners of the watched queries
type Services struct {
	Internships  *services.InternshipService
	Applications *services.ApplicationService
	Logbooks     *services.LogbookService
	Certificates *services.CertificateService
	Plans        *services.PlanService
}

// LiveHandler serves the live list endpoints
type LiveHandler struct {
	hub       *realtime.Hub
	svc       Services
	logger    *zap.Logger
	KeepAlive time.Duration
}

// NewLiveHandler creates a new live handler
func NewLiveHandler(hub *realtime.Hub, svc Services, logger *zap.Logger) *LiveHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LiveHandler{hub: hub, svc: svc, logger: logger, KeepAlive: DefaultKeepAlive}
}

// Applications handles GET /api/v1/live/applications (student)
func (h *LiveHandler) Applications(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	return stream[model.Application](c, h, model.CollectionApplications, h.svc.Applications.WatchByStudent(user.ID))
}

// Logbooks handles GET /api/v1/live/logbooks (student)
func (h *LiveHandler) Logbooks(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	return stream[model.LogbookEntry](c, h, model.CollectionLogbooks, h.svc.Logbooks.WatchByStudent(user.ID))
}

// Certificates handles GET /api/v1/live/certificates. Students watch their
// own; faculty and colleges watch the pending queue.
func (h *LiveHandler) Certificates(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	q := h.svc.Certificates.WatchPending()
	if user.Role == model.RoleStudent {
		q = h.svc.Certificates.WatchByStudent(user.ID)
	}
	return stream[model.Certificate](c, h, model.CollectionCertificates, q)
}

// Plans handles GET /api/v1/live/plans (student)
func (h *LiveHandler) Plans(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	return stream[model.Plan](c, h, model.CollectionPlans, h.svc.Plans.WatchByStudent(user.ID))
}

// Internships handles GET /api/v1/live/internships (company)
func (h *LiveHandler) Internships(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	return stream[model.Internship](c, h, model.CollectionInternships, h.svc.Internships.WatchByCompany(user.ID))
}

func stream[T any](c *fiber.Ctx, h *LiveHandler, collection string, q realtime.Query) error {
	if h.hub == nil {
		return response.ServiceUnavailable(c, "Live updates are unavailable")
	}

	sub, err := realtime.Subscribe[T](h.hub, collection, q)
	if err != nil {
		h.logger.Warn("failed to subscribe", zap.String("collection", collection), zap.Error(err))
		return response.ServiceUnavailable(c, "Live updates are unavailable")
	}

	keepAlive := h.KeepAlive
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}

	sse.SetHeaders(c)
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer sub.Cancel()

		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()

		for {
			select {
			case rows, ok := <-sub.C:
				if !ok {
					return
				}
				if err := sse.Send(w, sse.Event{Event: "snapshot", Data: rows}); err != nil {
					return
				}
			case <-ticker.C:
				if err := sse.SendKeepAlive(w); err != nil {
					return
				}
			}
		}
	})
	return nil
}
