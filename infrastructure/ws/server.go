// Package ws serves the /chat WebSocket endpoint and adapts each accepted
// socket to the dispatch engine's transport contract: one open event, one
// message event per text frame, one close event.
package ws

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"chat-relay/contract"
)

// EventHandler is the engine side of the transport contract.
type EventHandler interface {
	OnOpen(conn contract.Conn)
	OnMessage(conn contract.Conn, raw string)
	OnClose(conn contract.Conn)
}

// Options tune the transport; zero values fall back to sensible defaults.
type Options struct {
	OriginPolicy   OriginPolicy
	AllowedOrigins []string
	SendBuffer     int
	MaxMessageSize int64
}

type Server struct {
	log      *slog.Logger
	handler  EventHandler
	upgrader websocket.Upgrader
	opts     Options
}

func NewServer(log *slog.Logger, handler EventHandler, opts Options) *Server {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 256
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = 4096
	}
	return &Server{
		log:     log,
		handler: handler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(opts.OriginPolicy, opts.AllowedOrigins),
		},
		opts: opts,
	}
}

// Handler returns the mux carrying the /chat endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat", s.serveChat)
	return mux
}

func (s *Server) serveChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	socket, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	c := newConn(socket, s.opts.SendBuffer, s.log)
	s.log.Info("Connection accepted", "conn", c.ID(), "remote", r.RemoteAddr)

	go c.writePump()
	s.handler.OnOpen(c)

	// The read pump owns the connection's event loop: it blocks this handler
	// goroutine, and its return is the authoritative close signal.
	c.readPump(s.opts.MaxMessageSize, func(raw string) {
		s.handler.OnMessage(c, raw)
	})
	s.handler.OnClose(c)
	s.log.Info("Connection closed", "conn", c.ID())
}
