package middlewares

import (
	"github.com/gofiber/fiber/v2"

	"github.com/payvest/ledger/controllers/helpers"
	"github.com/payvest/ledger/ledger"
)

func AdminVaildator(c *fiber.Ctx) error {
	CurrentUser := helpers.GetCurrentUser(c)

	if CurrentUser == nil || !CurrentUser.IsAdmin() {
		return c.Status(403).JSON(helpers.Errors{
			Errors: []string{helpers.AuthzInvalidPermission},
			Kind:   string(ledger.KindAuth),
		})
	}

	return c.Next()
}
