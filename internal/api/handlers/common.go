package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func getOrganizationID(c *fiber.Ctx) (uuid.UUID, error) {
	organizationID, ok := c.Locals("organizationID").(uuid.UUID)
	if !ok || organizationID == uuid.Nil {
		return uuid.Nil, fiber.ErrUnauthorized
	}
	return organizationID, nil
}

func getUserID(c *fiber.Ctx) (uuid.UUID, error) {
	userID, ok := c.Locals("userID").(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, fiber.ErrUnauthorized
	}
	return userID, nil
}

func parseIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}
