package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nft-bazaar/bazaar/internal/auth"
)

// RegisterAuthRoutes wires participant registration and login.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter fiber.Handler) {
	r.Post("/participants", h.Register)
	if rateLimiter != nil {
		r.Post("/auth/login", rateLimiter, h.Login)
	} else {
		r.Post("/auth/login", h.Login)
	}
}
