package rest

import "github.com/gofiber/fiber/v2"

// ownerID resolves the calling account from the basic-auth username set by
// the auth middleware. Handlers behind the authenticated group can rely on
// it being present.
func ownerID(c *fiber.Ctx) string {
	if username, ok := c.Locals("username").(string); ok {
		return username
	}
	return ""
}
