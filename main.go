package main

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"

	"github.com/petomi/doodle-mail-server/api"
	"github.com/petomi/doodle-mail-server/chat"
	"github.com/petomi/doodle-mail-server/config"
	"github.com/petomi/doodle-mail-server/database"
	"github.com/petomi/doodle-mail-server/room"
	"github.com/petomi/doodle-mail-server/routes"
)

func main() {
	cfg := config.MustLoad()

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	ctx := context.Background()
	store, err := database.Connect(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer store.Close(ctx)

	if err := store.EnsureIndexes(ctx); err != nil {
		logrus.WithError(err).Fatal("Failed to create indexes")
	}

	rooms := room.NewService(store)
	auth := &api.AuthHandler{Users: store, JWTSecret: cfg.JWTSecret}
	roomHandler := &api.RoomHandler{Rooms: rooms, Users: store, JWTSecret: cfg.JWTSecret}
	hub := chat.NewHub(rooms, store, cfg.JWTSecret)

	app := fiber.New()
	app.Use(cors.New(cors.Config{
		AllowCredentials: true,
	}))
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	routes.Setup(app, auth, roomHandler, hub)

	logrus.WithField("port", cfg.Port).Info("Starting server")
	if err := app.Listen(":" + cfg.Port); err != nil {
		logrus.WithError(err).Fatal("Server stopped")
	}
}
