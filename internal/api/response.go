package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/acertax/connect/internal/chat"
)

// Machine-checkable error codes on the failure envelope.
const (
	codeInvalid         = "invalid_request"
	codeUnauthenticated = "unauthenticated"
	codeForbidden       = "forbidden"
	codeNotFound        = "not_found"
	codeStoreFailure    = "store_failure"
)

func ok(c *fiber.Ctx, data fiber.Map) error {
	body := fiber.Map{"ok": true}
	for k, v := range data {
		body[k] = v
	}
	return c.JSON(body)
}

func fail(c *fiber.Ctx, status int, code string) error {
	return c.Status(status).JSON(fiber.Map{"ok": false, "error": code})
}

// svcFail maps service sentinels onto the envelope statuses.
func svcFail(c *fiber.Ctx, err error) error {
	switch err {
	case chat.ErrValidation:
		return fail(c, fiber.StatusBadRequest, codeInvalid)
	case chat.ErrUnauthorized:
		return fail(c, fiber.StatusUnauthorized, codeUnauthenticated)
	case chat.ErrForbidden:
		return fail(c, fiber.StatusForbidden, codeForbidden)
	case chat.ErrNotFound:
		return fail(c, fiber.StatusNotFound, codeNotFound)
	default:
		return fail(c, fiber.StatusInternalServerError, codeStoreFailure)
	}
}
