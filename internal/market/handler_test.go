package market

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandlerApp(f *fixture) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("caller", alice)
		return c.Next()
	})
	app.Post("/listings", NewHandler(f.svc, PriceFormat{Decimals: 9, Symbol: "GWEI"}).List)
	return app
}

func TestHandlerListRequiresTokenID(t *testing.T) {
	f := newFixture(t)
	id := f.mintApproved(t, alice)
	require.Equal(t, int64(0), id)
	app := newHandlerApp(f)

	cases := []struct {
		name   string
		body   string
		status int
	}{
		{"missing token_id", `{"collection":"dogs","price":10}`, fiber.StatusBadRequest},
		{"negative token_id", `{"collection":"dogs","token_id":-1,"price":10}`, fiber.StatusBadRequest},
		{"missing collection", `{"token_id":0,"price":10}`, fiber.StatusBadRequest},
		{"explicit token zero", `{"collection":"dogs","token_id":0,"price":10}`, fiber.StatusCreated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodPost, "/listings", strings.NewReader(tc.body))
			req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}

	_, ok, err := f.svc.GetListing(context.Background(), collection, id)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, f.events.Events(), 1)
}
