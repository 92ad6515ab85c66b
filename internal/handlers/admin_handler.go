package handlers

import (
	"errors"
	"strconv"

	"github.com/arzan03/codedrop/internal/models"
	"github.com/arzan03/codedrop/internal/services"
	"github.com/gofiber/fiber/v2"
)

var optionStore services.OptionStore

// InitAdminHandler wires the admin handlers to the option store. The code
// service and auth service come from InitCodeHandler.
func InitAdminHandler(opts services.OptionStore) {
	optionStore = opts
}

// AdminLoginHandler exchanges the shared admin password for a session token.
func AdminLoginHandler(c *fiber.Ctx) error {
	var request struct {
		Password string `json:"password"`
	}
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if !authService.Enabled() {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Admin password not configured"})
	}

	token, err := authService.Login(request.Password)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Wrong password"})
	}
	return c.JSON(fiber.Map{"token": token})
}

// AdminListCodes returns one page of code records.
func AdminListCodes(c *fiber.Ctx) error {
	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	size, _ := strconv.ParseInt(c.Query("size", "10"), 10, 64)

	items, total, err := codeService.AdminList(c.Context(), page, size)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch records"})
	}

	return c.JSON(fiber.Map{
		"data": items,
		"paginate": fiber.Map{
			"page":  page,
			"size":  size,
			"total": total,
		},
	})
}

// AdminDeleteCode force-removes a share and its blob.
func AdminDeleteCode(c *fiber.Ctx) error {
	code := c.Params("code")
	err := codeService.AdminDelete(c.Context(), code)
	switch {
	case err == nil:
		return c.JSON(fiber.Map{"message": "Share deleted"})
	case errors.Is(err, models.ErrCodeNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Code does not exist"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete share"})
	}
}

// AdminGetConfig returns the stored options.
func AdminGetConfig(c *fiber.Ctx) error {
	data, err := optionStore.All(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch config"})
	}
	return c.JSON(fiber.Map{"data": data})
}

// AdminPatchConfig updates stored options from a key/value body.
func AdminPatchConfig(c *fiber.Ctx) error {
	var updates map[string]string
	if err := c.BodyParser(&updates); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	for key, value := range updates {
		if err := optionStore.Set(c.Context(), key, value); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update config"})
		}
	}
	return c.JSON(fiber.Map{"message": "Config updated"})
}
