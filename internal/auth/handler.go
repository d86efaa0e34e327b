package auth

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/nft-bazaar/bazaar/internal/identity"
)

// Handler exposes registration and login endpoints.
type Handler struct {
	ids *identity.Service
	svc *Service
}

// NewHandler builds an auth handler.
func NewHandler(ids *identity.Service, svc *Service) *Handler {
	return &Handler{ids: ids, svc: svc}
}

type credentialsRequest struct {
	Address    string `json:"address"`
	Passphrase string `json:"passphrase"`
}

// Register onboards a participant.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	p, err := h.ids.Register(c.UserContext(), identity.Credentials{Address: req.Address, Passphrase: req.Passphrase})
	if err != nil {
		if errors.Is(err, identity.ErrParticipantExists) {
			return fiber.NewError(http.StatusConflict, err.Error())
		}
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"id":         p.ID,
		"address":    p.Address,
		"created_at": p.CreatedAt,
	})
}

// Login validates credentials and returns an access token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	p, err := h.ids.Authenticate(c.UserContext(), identity.Credentials{Address: req.Address, Passphrase: req.Passphrase})
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	}
	token, err := h.svc.Issue(p)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"address":      p.Address,
		"access_token": token.AccessToken,
		"expires_in":   token.ExpiresIn,
	})
}

// Logout revokes every token issued to the caller.
func (h *Handler) Logout(c *fiber.Ctx) error {
	caller, _ := c.Locals("caller").(string)
	if err := h.svc.Logout(c.UserContext(), caller); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "logged_out"})
}
