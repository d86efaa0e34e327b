package registry

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/nft-bazaar/bazaar/internal/identity"
)

// Handler exposes the in-memory collection for the mint, approve and list
// flow in development environments.
type Handler struct {
	registry *Memory
}

// NewHandler builds a collection handler.
func NewHandler(registry *Memory) *Handler {
	return &Handler{registry: registry}
}

type approveRequest struct {
	Approved string `json:"approved"`
}

type operatorRequest struct {
	Operator string `json:"operator"`
	Approved bool   `json:"approved"`
}

// Mint creates the next token of the collection for the caller.
func (h *Handler) Mint(c *fiber.Ctx) error {
	collection := c.Params("collection")
	caller, _ := c.Locals("caller").(string)
	tokenID, err := h.registry.Mint(c.UserContext(), collection, caller)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"collection": collection,
		"token_id":   tokenID,
		"owner":      caller,
	})
}

// Approve authorizes an address to move one of the caller's tokens.
func (h *Handler) Approve(c *fiber.Ctx) error {
	collection := c.Params("collection")
	tokenID, err := strconv.ParseInt(c.Params("tokenId"), 10, 64)
	if err != nil || tokenID < 0 {
		return fiber.NewError(http.StatusBadRequest, "invalid token id")
	}
	var req approveRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	approved := ""
	if req.Approved != "" {
		if approved, err = identity.NormalizeAddress(req.Approved); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}
	caller, _ := c.Locals("caller").(string)
	if err := h.registry.Approve(c.UserContext(), collection, tokenID, caller, approved); err != nil {
		return toHTTPError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"collection": collection,
		"token_id":   tokenID,
		"approved":   approved,
	})
}

// SetOperator grants or revokes an operator over all of the caller's tokens in the collection.
func (h *Handler) SetOperator(c *fiber.Ctx) error {
	collection := c.Params("collection")
	var req operatorRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	operator, err := identity.NormalizeAddress(req.Operator)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	caller, _ := c.Locals("caller").(string)
	if err := h.registry.SetApprovalForAll(c.UserContext(), collection, caller, operator, req.Approved); err != nil {
		return toHTTPError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"collection": collection,
		"operator":   operator,
		"approved":   req.Approved,
	})
}

// Owner reports the current owner of a token.
func (h *Handler) Owner(c *fiber.Ctx) error {
	collection := c.Params("collection")
	tokenID, err := strconv.ParseInt(c.Params("tokenId"), 10, 64)
	if err != nil || tokenID < 0 {
		return fiber.NewError(http.StatusBadRequest, "invalid token id")
	}
	owner, err := h.registry.OwnerOf(c.UserContext(), collection, tokenID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"collection": collection,
		"token_id":   tokenID,
		"owner":      owner,
	})
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrAssetNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrTransferNotAuthorized), errors.Is(err, ErrNotTokenOwner):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrInvalidRecipient):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
