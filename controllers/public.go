package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/payvest/ledger/config"
)

func GetTimestamp(c *fiber.Ctx) error {
	return c.Status(200).JSON(time.Now())
}

// GetHealth reports whether the database answers within a second.
func GetHealth(c *fiber.Ctx) error {
	if config.DataBase == nil {
		return c.Status(200).JSON(fiber.Map{"status": "ok"})
	}

	db, err := config.DataBase.DB()
	if err != nil {
		return c.Status(503).JSON(fiber.Map{"status": "unavailable"})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return c.Status(503).JSON(fiber.Map{"status": "unavailable"})
	}

	return c.Status(200).JSON(fiber.Map{"status": "ok"})
}
