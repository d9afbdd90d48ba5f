package handler

import (
	"log"
	"net/http"
	"strings"

	"github.com/gdmtrack/monitoring-service/internal/adapters/middleware"
	"github.com/gdmtrack/monitoring-service/internal/adapters/websocket"
)

// WebSocketHandler handles WebSocket connections for the realtime alert feed
type WebSocketHandler struct {
	hub            *websocket.Hub
	authMiddleware *middleware.AuthMiddleware
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *websocket.Hub, authMiddleware *middleware.AuthMiddleware) *WebSocketHandler {
	return &WebSocketHandler{
		hub:            hub,
		authMiddleware: authMiddleware,
	}
}

// HandleWebSocket handles GET /ws/alerts - WebSocket upgrade and connection.
// Browsers can't set an Authorization header on the upgrade request, so a
// token query parameter is accepted as fallback.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	tokenString := ""
	if authHeader != "" {
		tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
	}

	if tokenString == "" {
		tokenString = r.URL.Query().Get("token")
	}

	if tokenString == "" {
		log.Printf("WebSocket connection rejected: missing token")
		http.Error(w, "unauthorized: missing token", http.StatusUnauthorized)
		return
	}

	userID, role, ok := h.validateToken(tokenString)
	if !ok || userID == "" {
		log.Printf("WebSocket connection rejected: invalid token")
		http.Error(w, "unauthorized: invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	roleLabel := strings.ToLower(role)
	client := websocket.NewClient(h.hub, conn, userID, role)
	// balance the gauge when the hub drops the connection
	client.SetCloseHook(func() {
		WebSocketConnections.WithLabelValues(roleLabel).Dec()
	})
	client.Start()

	WebSocketConnections.WithLabelValues(roleLabel).Inc()
}

func (h *WebSocketHandler) validateToken(tokenString string) (userID, role string, ok bool) {
	if h.authMiddleware == nil {
		return "", "", false
	}

	claims, _, err := h.authMiddleware.GetClaimsFromCacheOrParse(tokenString)
	if err != nil {
		log.Printf("Token validation failed: %v", err)
		return "", "", false
	}

	userIDClaim, ok := claims["sub"].(string)
	if !ok || userIDClaim == "" {
		log.Printf("Missing or invalid 'sub' claim")
		return "", "", false
	}

	roleClaim, ok := claims["role"].(string)
	if !ok || roleClaim == "" {
		log.Printf("Missing or invalid 'role' claim")
		return "", "", false
	}

	return userIDClaim, roleClaim, true
}
