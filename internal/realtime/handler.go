package realtime

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type subscribeMessage struct {
	Action  string `json:"action"`
	TableID uint   `json:"table_id"`
}

// StaffAuth reports whether the given access token belongs to a staff,
// kitchen or admin user. Wired from the auth package in main to keep this
// package free of JWT details.
type StaffAuth func(token string) bool

func UpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

// Handler upgrades the connection and pumps hub messages to the socket.
// Staff/kitchen dashboards authenticate with ?token= and join the staff
// room; customer pages subscribe to their table's room instead.
func Handler(hub *Hub, isStaff StaffAuth) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		client := hub.Register(uuid.NewString())
		defer func() {
			hub.Unregister(client)
			conn.Close()
		}()

		if token := strings.TrimSpace(conn.Query("token")); token != "" && isStaff(token) {
			hub.Join(client, RoomStaff)
		}

		// writer drains until Unregister closes the channel
		go func() {
			for payload := range client.Send {
				if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
					return
				}
			}
		}()

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var msg subscribeMessage
			if err := json.Unmarshal(raw, &msg); err != nil || msg.TableID == 0 {
				continue
			}
			switch msg.Action {
			case "subscribe":
				hub.Join(client, TableRoom(msg.TableID))
			case "unsubscribe":
				hub.Leave(client, TableRoom(msg.TableID))
			}
		}
	})
}
