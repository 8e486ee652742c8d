package ws

import (
	"net/http"
	"strings"

	"audio-recorder/constant"
	"audio-recorder/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Serve authenticates and upgrades a WebSocket connection. A missing or
// invalid credential terminates the handshake; structured error events are
// reserved for post-connect protocol violations.
func Serve(hub *Hub, tokens *token.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		raw := c.Query("token")
		if raw == "" {
			raw = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}
		if raw == "" {
			zerolog.Ctx(ctx).Warn().Msg("websocket connect without token")
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		claims, err := tokens.Verify(raw)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("websocket authentication failed")
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("websocket upgrade failed")
			return
		}

		client := newClient(hub, conn, claims.UserID)
		hub.register(client)

		zerolog.Ctx(ctx).Info().
			Str("user_id", claims.UserID.String()).
			Str("email", claims.Email).
			Msg("websocket client connected")

		client.emit(ctx, constant.EventConnected, map[string]interface{}{
			"message": "connected to audio gateway",
			"userId":  claims.UserID,
		})

		go client.writePump(ctx)
		go client.readPump(ctx)
	}
}
