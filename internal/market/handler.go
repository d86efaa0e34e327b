package market

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/nft-bazaar/bazaar/internal/ledger"
	"github.com/nft-bazaar/bazaar/internal/registry"
)

// Handler exposes listing endpoints.
type Handler struct {
	service *Service
	prices  PriceFormat
}

// NewHandler constructs a listing handler.
func NewHandler(service *Service, prices PriceFormat) *Handler {
	return &Handler{service: service, prices: prices}
}

type listRequest struct {
	Collection string `json:"collection"`
	TokenID    *int64 `json:"token_id"`
	Price      int64  `json:"price"`
}

type updateRequest struct {
	Price int64 `json:"price"`
}

type buyRequest struct {
	Amount int64 `json:"amount"`
}

type listingResponse struct {
	Collection   string `json:"collection"`
	TokenID      int64  `json:"token_id"`
	Seller       string `json:"seller"`
	Price        int64  `json:"price"`
	PriceDisplay string `json:"price_display"`
}

// List creates a listing owned by the authenticated caller.
func (h *Handler) List(c *fiber.Ctx) error {
	var req listRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Collection == "" || req.TokenID == nil || *req.TokenID < 0 {
		return fiber.NewError(http.StatusBadRequest, "collection and a non-negative token_id are required")
	}
	tokenID := *req.TokenID
	caller, _ := c.Locals("caller").(string)

	listing, err := h.service.ListItem(c.UserContext(), ListInput{
		Collection: req.Collection,
		TokenID:    tokenID,
		Price:      req.Price,
		Caller:     caller,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(http.StatusCreated).JSON(h.toResponse(req.Collection, tokenID, listing))
}

// Update changes the price of the caller's listing.
func (h *Handler) Update(c *fiber.Ctx) error {
	collection, tokenID, err := assetParams(c)
	if err != nil {
		return err
	}
	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	caller, _ := c.Locals("caller").(string)

	listing, err := h.service.UpdateListing(c.UserContext(), UpdateInput{
		Collection: collection,
		TokenID:    tokenID,
		NewPrice:   req.Price,
		Caller:     caller,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(http.StatusOK).JSON(h.toResponse(collection, tokenID, listing))
}

// Cancel removes the caller's listing.
func (h *Handler) Cancel(c *fiber.Ctx) error {
	collection, tokenID, err := assetParams(c)
	if err != nil {
		return err
	}
	caller, _ := c.Locals("caller").(string)

	if err := h.service.CancelItem(c.UserContext(), CancelInput{Collection: collection, TokenID: tokenID, Caller: caller}); err != nil {
		return toHTTPError(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// Buy purchases a listed asset for the caller.
func (h *Handler) Buy(c *fiber.Ctx) error {
	collection, tokenID, err := assetParams(c)
	if err != nil {
		return err
	}
	var req buyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	caller, _ := c.Locals("caller").(string)

	purchase, err := h.service.BuyItem(c.UserContext(), BuyInput{
		Collection: collection,
		TokenID:    tokenID,
		Paid:       req.Amount,
		Buyer:      caller,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"reference":    purchase.Reference,
		"collection":   purchase.Collection,
		"token_id":     purchase.TokenID,
		"seller":       purchase.Seller,
		"buyer":        purchase.Buyer,
		"listed_price": purchase.ListedPrice,
		"paid":         purchase.Paid,
		"paid_display": h.prices.Format(purchase.Paid),
		"completed_at": purchase.CompletedAt.Format(time.RFC3339Nano),
	})
}

// Get returns the active listing for an asset.
func (h *Handler) Get(c *fiber.Ctx) error {
	collection, tokenID, err := assetParams(c)
	if err != nil {
		return err
	}
	listing, ok, err := h.service.GetListing(c.UserContext(), collection, tokenID)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return fiber.NewError(http.StatusNotFound, ErrNotListed.Error())
	}
	return c.Status(http.StatusOK).JSON(h.toResponse(collection, tokenID, listing))
}

func (h *Handler) toResponse(collection string, tokenID int64, listing ledger.Listing) listingResponse {
	return listingResponse{
		Collection:   collection,
		TokenID:      tokenID,
		Seller:       listing.Seller,
		Price:        listing.Price,
		PriceDisplay: h.prices.Format(listing.Price),
	}
}

func assetParams(c *fiber.Ctx) (string, int64, error) {
	collection := c.Params("collection")
	tokenID, err := strconv.ParseInt(c.Params("tokenId"), 10, 64)
	if err != nil || tokenID < 0 {
		return "", 0, fiber.NewError(http.StatusBadRequest, "invalid token id")
	}
	return collection, tokenID, nil
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrNotListed), errors.Is(err, registry.ErrAssetNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotOwner):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrAlreadyListed):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrPriceNotMet):
		return fiber.NewError(http.StatusPaymentRequired, err.Error())
	case errors.Is(err, ErrPriceMustBeAboveZero), errors.Is(err, ErrNotApprovedForMarketplace):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, registry.ErrTransferNotAuthorized), errors.Is(err, registry.ErrNotTokenOwner):
		return fiber.NewError(http.StatusConflict, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
