package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/nft-bazaar/bazaar/internal/auth"
	"github.com/nft-bazaar/bazaar/internal/config"
	"github.com/nft-bazaar/bazaar/internal/identity"
	"github.com/nft-bazaar/bazaar/internal/ledger"
	"github.com/nft-bazaar/bazaar/internal/market"
	"github.com/nft-bazaar/bazaar/internal/middleware"
	"github.com/nft-bazaar/bazaar/internal/notification"
	"github.com/nft-bazaar/bazaar/internal/proceeds"
	"github.com/nft-bazaar/bazaar/internal/registry"
)

const loginAttemptsPerMinute = 5

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	// [HH:MM:SS] 200 -  145ms METHOD /path
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	var store ledger.Store
	var identityRepo identity.Repository
	if d.DB != nil {
		store = ledger.NewPostgresStore(d.DB)
		identityRepo = identity.NewPostgresRepository(d.DB)
	} else {
		store = ledger.NewInMemory()
		identityRepo = identity.NewMemoryRepository()
	}

	publishers := notification.Multi{notification.NewLoggerPublisher(d.Logger)}
	if d.Cache != nil {
		publishers = append(publishers, notification.NewRedisPublisher(d.Cache, d.Cfg.EventsChannel))
	}

	collection := registry.NewMemory()
	prices := market.PriceFormat{Decimals: d.Cfg.PriceDecimals, Symbol: d.Cfg.PriceSymbol}

	marketSvc := market.NewService(store, collection.As(d.Cfg.MarketplaceOperator), publishers, d.Cfg.MarketplaceOperator, d.Logger)
	proceedsSvc := proceeds.NewService(store, nil, d.Logger)
	identitySvc := identity.NewService(identityRepo)
	authSvc := auth.NewService(d.Cfg.JWTSecret, d.Cfg.AccessTokenTTL, identityRepo)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("request_id").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"operator":   d.Cfg.MarketplaceOperator,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	authHandler := auth.NewHandler(identitySvc, authSvc)
	RegisterAuthRoutes(api, authHandler, middleware.LoginRateLimit(d.Cache, loginAttemptsPerMinute))

	protected := api.Group("", middleware.CallerAuth(authSvc))
	if d.Cache != nil {
		protected.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}
	protected.Post("/auth/logout", authHandler.Logout)
	RegisterMarketRoutes(protected, market.NewHandler(marketSvc, prices))
	RegisterProceedsRoutes(protected, proceeds.NewHandler(proceedsSvc, prices))
	RegisterCollectionRoutes(protected, registry.NewHandler(collection))

	return nil
}
