package v1

import (
	"job-portal/internal/delivery/http/handler"
	"job-portal/internal/delivery/http/middleware"

	"github.com/gofiber/fiber/v3"
)

type Handlers struct {
	Session *handler.SessionHandler
	Portal  *handler.PortalHandler
	Auth    *middleware.SessionMiddleware
}

func Register(r fiber.Router, h Handlers) {
	if r == nil {
		return
	}

	if h.Session != nil {
		h.Session.RegisterRoutes(r.Group("/sessions"))
	}

	if h.Portal != nil && h.Auth != nil {
		portalGroup := r.Group("/portal", h.Auth.Middleware())
		h.Portal.RegisterRoutes(portalGroup)
	}
}
