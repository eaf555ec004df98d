package handler

import (
	"context"
	"time"

	"job-portal/internal/database/postgres"
	"job-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// SessionCounter is satisfied by the session registry.
type SessionCounter interface {
	Len() int
}

// PoolReporter is implemented by databases that expose connection stats.
type PoolReporter interface {
	Stats() postgres.PoolStats
}

type HealthHandler struct {
	sessions SessionCounter
	db       Pinger
	cache    Pinger
}

type healthResponse struct {
	Sessions int    `json:"sessions"`
	Database string `json:"database"`
	Cache    string `json:"cache"`

	DatabasePool *postgres.PoolStats `json:"database_pool,omitempty"`
}

// NewHealthHandler accepts nil db or cache for deployments without them.
func NewHealthHandler(sessions SessionCounter, db, cache Pinger) *HealthHandler {
	return &HealthHandler{sessions: sessions, db: db, cache: cache}
}

func (h *HealthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/health", h.Health)
}

func (h *HealthHandler) Health(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	res := healthResponse{
		Database: probe(ctx, h.db),
		Cache:    probe(ctx, h.cache),
	}
	if h.sessions != nil {
		res.Sessions = h.sessions.Len()
	}
	if pr, ok := h.db.(PoolReporter); ok && res.Database == "up" {
		st := pr.Stats()
		res.DatabasePool = &st
	}

	if res.Database == "down" {
		return response.Error(c, fiber.StatusServiceUnavailable, "degraded", res)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, res)
}

func probe(ctx context.Context, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	if err := p.Ping(ctx); err != nil {
		return "down"
	}
	return "up"
}
