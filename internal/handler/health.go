package handler

import (
	"context"
	"time"

	"hostelhub-backend/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
)

type HealthHandler struct {
	pool     *pgxpool.Pool
	presence *service.PresenceRegistry
}

func NewHealthHandler(pool *pgxpool.Pool, presence *service.PresenceRegistry) *HealthHandler {
	return &HealthHandler{pool: pool, presence: presence}
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "online_users": h.presence.OnlineCount()})
}

func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := h.pool.Ping(ctx); err != nil {
		return c.Status(503).JSON(fiber.Map{"status": "not ready", "error": "database unreachable"})
	}

	return c.JSON(fiber.Map{"status": "ready"})
}
