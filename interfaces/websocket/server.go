package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"flowbuilder/pkg/auth"
)

// ServerConfig holds upgrade settings
type ServerConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	MaxConnections  int
	// AllowedOrigins lists accepted Origin headers; "*" or empty allows any
	AllowedOrigins []string
}

// DefaultServerConfig returns default websocket settings
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		MaxConnections:  256,
	}
}

// Server upgrades HTTP requests and attaches them to the hub. It expects
// any authentication to have run already.
type Server struct {
	hub      *Hub
	upgrader websocket.Upgrader
	maxConns int
	logger   *zap.Logger
}

// NewServer creates a websocket endpoint
func NewServer(hub *Hub, cfg ServerConfig, logger *zap.Logger) *Server {
	return &Server{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     originChecker(cfg.AllowedOrigins),
		},
		maxConns: cfg.MaxConnections,
		logger:   logger,
	}
}

// ServeHTTP handles GET /ws
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.maxConns > 0 && s.hub.ConnectionCount() >= s.maxConns {
		s.logger.Warn("Connection limit reached", zap.Int("limit", s.maxConns))
		http.Error(w, "Connection limit exceeded", http.StatusServiceUnavailable)
		return
	}

	userID := "anonymous"
	if user, err := auth.GetUserFromContext(r.Context()); err == nil {
		userID = user.UserID
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		s.logger.Warn("Failed to upgrade connection",
			zap.Error(err),
			zap.String("remoteAddr", r.RemoteAddr),
		)
		return
	}

	newClient(userID, s.hub, conn, s.logger).start()
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(r *http.Request) bool { return true }
		}
		set[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
