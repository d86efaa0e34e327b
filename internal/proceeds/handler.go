package proceeds

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/nft-bazaar/bazaar/internal/identity"
	"github.com/nft-bazaar/bazaar/internal/market"
)

// Handler exposes proceeds endpoints.
type Handler struct {
	service *Service
	prices  market.PriceFormat
}

// NewHandler builds a proceeds HTTP handler.
func NewHandler(service *Service, prices market.PriceFormat) *Handler {
	return &Handler{service: service, prices: prices}
}

// Balance returns the proceeds owed to an address.
func (h *Handler) Balance(c *fiber.Ctx) error {
	address, err := identity.NormalizeAddress(c.Params("address"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	balance, err := h.service.Balance(c.UserContext(), address)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"address":        balance.Address,
		"amount":         balance.Amount,
		"amount_display": h.prices.Format(balance.Amount),
		"timestamp":      balance.AsOf,
	})
}

// Withdraw pays out the caller's proceeds.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	caller, _ := c.Locals("caller").(string)
	withdrawal, err := h.service.Withdraw(c.UserContext(), caller)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoProceeds):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrPayoutFailed):
			return fiber.NewError(http.StatusBadGateway, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"address":        withdrawal.Address,
		"amount":         withdrawal.Amount,
		"amount_display": h.prices.Format(withdrawal.Amount),
		"reference":      withdrawal.Reference,
		"completed_at":   withdrawal.CompletedAt,
	})
}
