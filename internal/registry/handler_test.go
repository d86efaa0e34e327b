package registry

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func newHandlerApp(reg *Memory) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("caller", c.Get("X-Test-Caller"))
		return c.Next()
	})
	h := NewHandler(reg)
	app.Post("/collections/:collection/operators", h.SetOperator)
	app.Post("/collections/:collection/assets/:tokenId/approve", h.Approve)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path, caller, body string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set("X-Test-Caller", caller)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp.StatusCode
}

func TestHandlerNormalizesApprovedAddress(t *testing.T) {
	reg := NewMemory()
	ctx := context.Background()
	id, _ := reg.Mint(ctx, "dogs", "0xalice")
	app := newHandlerApp(reg)

	status := postJSON(t, app, "/collections/dogs/assets/0/approve", "0xalice", `{"approved":" Bazaar-Market "}`)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200 got %d", status)
	}
	if ok, _ := reg.IsApprovedForTransferBy(ctx, "dogs", id, "bazaar-market"); !ok {
		t.Fatalf("expected lowercased operator to be approved")
	}
}

func TestHandlerNormalizesOperator(t *testing.T) {
	reg := NewMemory()
	ctx := context.Background()
	id, _ := reg.Mint(ctx, "dogs", "0xalice")
	app := newHandlerApp(reg)

	status := postJSON(t, app, "/collections/dogs/operators", "0xalice", `{"operator":"BAZAAR-MARKET","approved":true}`)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200 got %d", status)
	}
	if ok, _ := reg.IsApprovedForTransferBy(ctx, "dogs", id, "bazaar-market"); !ok {
		t.Fatalf("expected lowercased operator to be approved for all")
	}

	if status := postJSON(t, app, "/collections/dogs/operators", "0xalice", `{"operator":"  ","approved":true}`); status != fiber.StatusBadRequest {
		t.Fatalf("expected blank operator to be rejected, got %d", status)
	}
}
