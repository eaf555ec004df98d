package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"job-portal/internal/config"
	"job-portal/internal/delivery/http/handler"
	"job-portal/internal/delivery/http/middleware"
	"job-portal/internal/delivery/http/routes"
	v1 "job-portal/internal/delivery/http/routes/v1"
	"job-portal/internal/ws"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

type App struct {
	Fiber     *fiber.App
	WS        *http.Server
	Container *Container
}

// New builds the fiber app and the websocket server over c.
func New(c *Container) *App {
	f := fiber.New(fiber.Config{AppName: c.Config.App.AppName})

	registerGlobalMiddleware(f, c.Logger)
	registerRoutes(f, c)

	wsHandler := ws.NewHandler(c.Hub, c.JWT, c.Registry, c.Logger)
	wsServer := &http.Server{
		Handler:           wsHandler.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &App{Fiber: f, WS: wsServer, Container: c}
}

// Bootstrap wires everything from cfg. The cleanup func closes the stores.
func Bootstrap(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, func() error, error) {
	c, err := NewContainer(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return New(c), c.Close, nil
}

func registerGlobalMiddleware(app *fiber.App, logger *zap.Logger) {
	if app == nil {
		return
	}

	accessMw := middleware.NewAccessLogMiddleware(logger.Named("http"))
	errMw := middleware.NewErrorMiddleware(logger.Named("http"))
	app.Use(accessMw.Middleware())
	app.Use(errMw.Middleware())
}

func registerRoutes(app *fiber.App, c *Container) {
	if app == nil {
		return
	}

	var db, cacheProbe handler.Pinger
	if c.DB != nil {
		db = c.DB
	}
	if c.Cache.Available() {
		cacheProbe = c.Cache
	}

	health := handler.NewHealthHandler(c.Registry, db, cacheProbe)
	handlers := v1.Handlers{
		Session: handler.NewSessionHandler(c.Registry, c.JWT, c.Config.Session.TokenTTL),
		Portal:  handler.NewPortalHandler(c.Snapshots, nil),
		Auth:    middleware.NewSessionMiddleware(c.JWT, c.Registry),
	}

	routes.NewRegistry(health, handlers).Register(app)
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
