package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/petomi/doodle-mail-server/api"
	"github.com/petomi/doodle-mail-server/chat"
)

func Setup(app *fiber.App, auth *api.AuthHandler, rooms *api.RoomHandler, hub *chat.Hub) {
	// Authentication
	app.Post("/api/register", auth.Register)
	app.Post("/api/login", auth.Login)
	app.Get("/api/getuser", auth.GetUserAuth)
	app.Post("/api/logout", auth.Logout)
	// Rooms
	app.Post("/api/rooms", rooms.CreateRoom)
	app.Post("/api/rooms/join", rooms.JoinRoom)
	app.Post("/api/rooms/leave", rooms.LeaveRoom)
	app.Get("/api/rooms/:code", rooms.GetRoomInfo)
	// Messages
	app.Get("/api/rooms/:id/messages", rooms.GetRoomMessages)
	app.Post("/api/rooms/:id/messages", rooms.PostMessages)
	app.Delete("/api/messages/:id", rooms.DeleteMessage)
	// Websocket
	app.Get("/ws/:code", websocket.New(hub.Connect))
}
