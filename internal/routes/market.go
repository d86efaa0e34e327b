package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nft-bazaar/bazaar/internal/market"
	"github.com/nft-bazaar/bazaar/internal/proceeds"
	"github.com/nft-bazaar/bazaar/internal/registry"
)

// RegisterMarketRoutes wires the listing lifecycle.
func RegisterMarketRoutes(r fiber.Router, h *market.Handler) {
	group := r.Group("/listings")
	group.Post("", h.List)
	group.Get("/:collection/:tokenId", h.Get)
	group.Put("/:collection/:tokenId", h.Update)
	group.Delete("/:collection/:tokenId", h.Cancel)
	group.Post("/:collection/:tokenId/buy", h.Buy)
}

// RegisterProceedsRoutes wires balance lookups and withdrawals.
func RegisterProceedsRoutes(r fiber.Router, h *proceeds.Handler) {
	group := r.Group("/proceeds")
	group.Post("/withdraw", h.Withdraw)
	group.Get("/:address", h.Balance)
}

// RegisterCollectionRoutes wires the development asset collection.
func RegisterCollectionRoutes(r fiber.Router, h *registry.Handler) {
	group := r.Group("/collections/:collection")
	group.Post("/mint", h.Mint)
	group.Post("/operators", h.SetOperator)
	group.Post("/assets/:tokenId/approve", h.Approve)
	group.Get("/assets/:tokenId/owner", h.Owner)
}
