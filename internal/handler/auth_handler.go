package handler

import (
	"errors"

	"hostelhub-backend/internal/model"
	"hostelhub-backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authSvc *service.AuthService
}

func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req model.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		return c.Status(400).JSON(fiber.Map{"error": "username, email and password are required"})
	}

	resp, err := h.authSvc.Register(c.Context(), &req)
	if err != nil {
		return authError(c, err)
	}

	return c.Status(201).JSON(resp)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req model.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	if req.Username == "" || req.Password == "" {
		return c.Status(400).JSON(fiber.Map{"error": "username and password are required"})
	}

	resp, err := h.authSvc.Login(c.Context(), &req)
	if err != nil {
		return authError(c, err)
	}

	return c.JSON(resp)
}

func authError(c *fiber.Ctx, err error) error {
	var ve *model.ValidationError
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.Status(401).JSON(fiber.Map{"error": "invalid credentials"})
	case errors.Is(err, service.ErrWeakPassword), errors.Is(err, service.ErrInvalidUsername):
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &ve):
		return c.Status(409).JSON(fiber.Map{"error": ve.Msg})
	default:
		return c.Status(500).JSON(fiber.Map{"error": "internal error"})
	}
}
