package realtime

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/joshua-takyi/handyhub/internal/helpers"
	"github.com/joshua-takyi/handyhub/internal/models"
)

const eventTimeout = 10 * time.Second

// Handler is one realtime channel.
type Handler interface {
	Connect(c Conn)
	Disconnect(c Conn)
	Handle(ctx context.Context, c Conn, env Envelope)
}

// Server authenticates and upgrades WebSocket requests, then runs the connection loops.
type Server struct {
	verifier   helpers.Verifier
	upgrader   websocket.Upgrader
	sendBuffer int
	logger     *slog.Logger
}

func NewServer(verifier helpers.Verifier, allowedOrigins []string, sendBuffer int, logger *slog.Logger) *Server {
	return &Server{
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		sendBuffer: sendBuffer,
		logger:     logger,
	}
}

// Serve returns the gin handler for one channel. Unauthenticated requests are refused with
// 401 before the upgrade.
func (s *Server) Serve(h Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := s.verifier.Verify(helpers.TokenFromRequest(c.Request, true))
		if err != nil {
			s.logger.Debug("Socket authentication failed", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.AppErrorResponse(models.Unauthorized("Unauthorized")))
			return
		}

		ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// the upgrader has already written an error response
			s.logger.Warn("WebSocket upgrade failed", "user_id", identity.UserID, "error", err)
			return
		}

		conn := newWSConn(ws, identity.UserID, s.sendBuffer, s.logger)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		h.Connect(conn)
		defer h.Disconnect(conn)

		go conn.writePump()
		conn.readPump(ctx, func(ctx context.Context, env Envelope) {
			evCtx, evCancel := context.WithTimeout(ctx, eventTimeout)
			defer evCancel()
			h.Handle(evCtx, conn, env)
		})
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := map[string]bool{}
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || set["*"] || set[origin] {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}
