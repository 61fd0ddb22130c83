package handlers

import (
	"net/http"

	"github.com/dom/pixelcart/internal/service"
	"github.com/dom/pixelcart/internal/websocket"
	ws "github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	hub         *websocket.Hub
	authService *service.AuthService
	logger      *logrus.Logger
}

func NewWebSocketHandler(hub *websocket.Hub, authService *service.AuthService, logger *logrus.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		authService: authService,
		logger:      logger,
	}
}

func (h *WebSocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		unauthorized(w)
		return
	}

	userID, err := h.authService.UserIDFromToken(token)
	if err != nil {
		unauthorized(w)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	h.logger.WithFields(logrus.Fields{
		"remote":  r.RemoteAddr,
		"user_id": userID,
	}).Info("WebSocket connected")

	client := websocket.NewClient(h.hub, conn, userID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
