package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	transferhandler "github.com/testes001/myfinbank-sub003/internal/transfer/handler"
)

func RegisterRoutes(app *fiber.App, h *AuthHandler, th *transferhandler.TransferHandler, registry *prometheus.Registry) {
	app.Post("/api/v1/register", h.Register)
	app.Post("/api/v1/login", h.Login)
	app.Post("/api/v1/refresh", h.Refresh)
	app.Delete("/api/v1/session", h.Logout)

	transfers := app.Group("/api/v1/transfers", h.RequireAuth())
	transfers.Post("/", th.Create)
	transfers.Get("/:id", th.Get)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
}
