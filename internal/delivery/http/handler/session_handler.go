package handler

import (
	"time"

	"job-portal/internal/delivery/http/dto"
	"job-portal/internal/delivery/http/middleware"
	"job-portal/internal/pkg/jwt"
	"job-portal/internal/pkg/response"
	"job-portal/internal/usecase/portal"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type SessionHandler struct {
	registry *portal.Registry
	jwt      jwt.Service
	tokenTTL time.Duration
	now      func() time.Time
}

type openSessionRequest struct {
	SessionID string `json:"session_id"`
}

func NewSessionHandler(registry *portal.Registry, jwtSvc jwt.Service, tokenTTL time.Duration) *SessionHandler {
	return &SessionHandler{registry: registry, jwt: jwtSvc, tokenTTL: tokenTTL, now: time.Now}
}

func (h *SessionHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Post("/", h.Open)
}

// Open starts an editor session, or reattaches to session_id when given.
func (h *SessionHandler) Open(c fiber.Ctx) error {
	var req openSessionRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().Body(&req); err != nil {
			return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
		}
	}

	id := uuid.Nil
	if req.SessionID != "" {
		parsed, err := uuid.Parse(req.SessionID)
		if err != nil || parsed == uuid.Nil {
			return middleware.NewAppError(fiber.StatusBadRequest, "Invalid session_id", nil, err)
		}
		id = parsed
	}

	sess := h.registry.Open(id)
	token, err := h.jwt.IssueSessionToken(sess.ID)
	if err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}

	return response.Success(c, fiber.StatusCreated, response.MessageCreated, dto.SessionResponse{
		SessionID: sess.ID,
		Token:     token,
		ExpiresIn: int64(h.tokenTTL / time.Second),
		View:      dto.NewViewResponse(sess.Controller.View(), h.now()),
	})
}
