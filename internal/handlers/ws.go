package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/codehivehq/codehive/backend/internal/chat"
	"github.com/codehivehq/codehive/backend/internal/config"
	"github.com/codehivehq/codehive/backend/internal/services"
	"github.com/codehivehq/codehive/backend/internal/utils"
	"github.com/codehivehq/codehive/backend/pkg/logger"
	"github.com/codehivehq/codehive/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WSHandler upgrades chat connections and binds each one to a project room.
type WSHandler struct {
	hub      chat.Broadcaster
	projects *services.ProjectService
	cfg      config.ChatConfig

	upgrader websocket.Upgrader
}

func NewWSHandler(hub chat.Broadcaster, projects *services.ProjectService, cfg config.ChatConfig) *WSHandler {
	return &WSHandler{
		hub:      hub,
		projects: projects,
		cfg:      cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origins are enforced at the CORS layer; the token is the gate here.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// bearerToken pulls the token from the `token` query parameter or the
// Authorization header, mirroring a socket handshake.
func bearerToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	auth := c.GetHeader("Authorization")
	if parts := strings.SplitN(auth, " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// JoinProject authenticates the handshake, verifies the project exists, and
// hands the connection to the session layer. Failures reject the attempt
// before the upgrade, so no partial join is ever visible to the room.
//
// Membership is deliberately not re-checked here: room access is granted on
// a valid token plus an existing project, and a later role change does not
// evict an already-joined connection.
func (h *WSHandler) JoinProject(c *gin.Context) {
	log := logger.With("chat")
	log.Debug().Str("state", chat.StateConnecting.String()).Str("ip", c.ClientIP()).Msg("chat handshake")

	token := bearerToken(c)
	if token == "" {
		response.Unauthorized(c, "token required")
		return
	}

	log.Debug().Str("state", chat.StateAuthenticating.String()).Msg("chat handshake")
	claims, err := utils.ParseToken(token)
	if err != nil {
		response.Unauthorized(c, "invalid or expired token")
		return
	}

	projectID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || projectID == 0 {
		response.BadRequest(c, "invalid project id")
		return
	}

	// System-internal read: existence only, membership is not enforced here.
	if _, err := h.projects.Get(c.Request.Context(), uint(projectID), nil); err != nil {
		response.Error(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	session := chat.NewSession(conn, h.hub, uint(projectID), claims.UserID, h.cfg.MaxMessageBytes)
	session.Run()
}
