package handlers

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"smartshop_back_end/internal/auth"
	"smartshop_back_end/internal/errs"
	"smartshop_back_end/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

type cartMessage struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Cart    any    `json:"cart,omitempty"`
}

func (h *Handler) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{CheckOrigin: h.allowOrigin}
}

// allowOrigin accepte les clients sans Origin (apps, tests) et les origines CORS configurées
func (h *Handler) allowOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	for _, allowed := range h.origins {
		if allowed == "*" || allowed == origin || allowed == u.Scheme+"://"+u.Host {
			return true
		}
	}
	return false
}

// viewer : le navigateur ne peut pas poser de header sur un websocket, le token passe aussi en query
func (h *Handler) viewer(c *gin.Context) (*auth.Viewer, error) {
	if v := auth.FromContext(c.Request.Context()); v != nil {
		return v, nil
	}
	token := c.Query("token")
	if token == "" {
		return nil, errs.ErrUnauthenticated
	}
	return h.svc.Auth.ViewerFromToken(c.Request.Context(), token)
}

// CartWebSocket pousse le panier à jour à chaque modification faite depuis un autre onglet
func (h *Handler) CartWebSocket(c *gin.Context) {
	v, err := h.viewer(c)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	conn, err := h.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Ctx(c.Request.Context()).Warn().Err(err).Msg("❌ Erreur upgrade WebSocket")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	logger := log.Ctx(ctx).With().Str("user_id", v.UserID.String()).Logger()

	updates, unsubscribe, err := h.svc.Cart.Watch(ctx, v.UserID)
	if err != nil {
		logger.Error().Err(err).Msg("❌ Abonnement panier")
		return
	}
	defer unsubscribe()

	// lecture seule pour détecter la fermeture côté client
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(msg cartMessage) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		return conn.WriteJSON(msg)
	}
	push := func() error {
		cart, err := h.svc.Cart.CartFor(ctx, v.UserID)
		if err != nil {
			logger.Warn().Err(err).Msg("⚠️ Lecture panier pour WebSocket")
			return nil
		}
		return send(cartMessage{Type: "cart_updated", Cart: cart})
	}

	if err := send(cartMessage{Type: "connected", Message: "Synchronisation panier activée"}); err != nil {
		return
	}
	if err := push(); err != nil {
		return
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-updates:
			if !ok {
				return
			}
			if err := push(); err != nil {
				logger.Debug().Err(err).Msg("WebSocket panier fermé")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
