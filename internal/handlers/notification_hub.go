// impactflow-crm/internal/handlers/notification_hub.go
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"impactflow-crm/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Для разработки разрешаем все источники
	},
}

// GlobalHub - единственный экземпляр хаба уведомлений для всего приложения.
var GlobalHub = NewHub()

// Client - одно websocket-соединение пользователя.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID uint
}

// Hub рассылает созданные уведомления подключенным пользователям.
// Доставка best-effort: офлайн-пользователи получат уведомления
// из БД при следующем запросе списка.
type Hub struct {
	clients    map[uint]*Client
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uint]*Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.userID] = client
			h.mu.Unlock()
			slog.Info("Notification client registered", "userID", client.userID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.userID]; ok {
				delete(h.clients, client.userID)
				close(client.send)
			}
			h.mu.Unlock()
			slog.Info("Notification client unregistered", "userID", client.userID)
		}
	}
}

// Push отправляет уведомление пользователю, если тот подключен.
func (h *Hub) Push(n *models.Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		slog.Error("Failed to marshal notification for push", "error", err)
		return
	}

	h.mu.Lock()
	client, ok := h.clients[n.UserID]
	h.mu.Unlock()
	if !ok {
		return
	}

	select {
	case client.send <- data:
	default:
		// Буфер клиента переполнен - соединение считаем мертвым.
		h.unregister <- client
	}
}

// NotificationsWSEndpoint апгрейдит соединение и регистрирует клиента в хабе.
func NotificationsWSEndpoint(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("Failed to upgrade websocket connection", "error", err, "user_id", userID)
		return
	}

	client := &Client{
		hub:    GlobalHub,
		conn:   conn,
		send:   make(chan []byte, 32),
		userID: userID,
	}
	GlobalHub.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	for {
		// Входящие сообщения не ожидаются, читаем только для обнаружения разрыва.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
