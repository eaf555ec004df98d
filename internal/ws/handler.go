package ws

import (
	"net/http"

	"job-portal/internal/pkg/jwt"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// SessionChecker reports whether a session is live.
type SessionChecker interface {
	Exists(id uuid.UUID) bool
}

// Handler upgrades GET /ws?token=... to a websocket subscribed to the
// token's session. It is a plain net/http handler because the upgrade
// needs to hijack the connection.
type Handler struct {
	hub      *Hub
	jwt      jwt.Service
	sessions SessionChecker
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, jwtSvc jwt.Service, sessions SessionChecker, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		hub:      hub,
		jwt:      jwtSvc,
		sessions: sessions,
		logger:   logger.Named("ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.hub == nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	claims, err := h.jwt.ValidateToken(token)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if h.sessions != nil && !h.sessions.Exists(claims.SessionID) {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(h.hub, conn, claims.SessionID)
	h.hub.Register(client)
	go client.WritePump()
	go client.ReadPump()
}

// Mux serves the handler under /ws.
func (h *Handler) Mux() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /ws", h)
	return mux
}
