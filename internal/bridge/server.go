package bridge

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Server is the built-in bridge: it serves the noVNC assets and proxies
// websocket frames at /websockify to the VNC TCP port on loopback. It
// replaces the external websockify process when Mode is "builtin".
type Server struct {
	cfg      Config
	upgrader websocket.Upgrader
	srv      *http.Server
	ln       net.Listener
}

func NewServer(cfg Config) *Server {
	return &Server{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  32 * 1024,
			WriteBufferSize: 32 * 1024,
			// noVNC speaks the binary RFB subprotocol.
			Subprotocols: []string{"binary"},
			// The host environment is trusted; the VNC server itself is
			// unauthenticated too.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler serves the asset tree at / and the proxy at /websockify.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/websockify", s.handleProxy)
	mux.Handle("/", http.FileServer(http.Dir(s.cfg.AssetsDir)))
	return mux
}

// Start binds the browser-facing port on all interfaces and serves in the
// background. It returns once the listener is bound, so a subsequent
// readiness probe succeeds immediately.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("bridge listen :%d: %w", s.cfg.Port, err)
	}
	s.ln = ln
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("bridge server stopped", "err", err)
		}
	}()
	return nil
}

func (s *Server) Close() error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Close()
}

// Addr returns the bound listener address, for tests that start on :0.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	backend := fmt.Sprintf("127.0.0.1:%d", s.cfg.VNCPort)
	tcp, err := net.DialTimeout("tcp", backend, 5*time.Second)
	if err != nil {
		slog.Warn("bridge backend dial failed", "backend", backend, "err", err)
		http.Error(w, "vnc backend unavailable", http.StatusBadGateway)
		return
	}
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		_ = tcp.Close()
		slog.Warn("bridge upgrade failed", "err", err)
		return
	}
	go s.pumpToTCP(ws, tcp)
	s.pumpToWS(tcp, ws)
}

// pumpToTCP copies websocket frames to the raw TCP side.
func (s *Server) pumpToTCP(ws *websocket.Conn, tcp net.Conn) {
	defer func() { _ = tcp.Close(); _ = ws.Close() }()
	for {
		mt, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.BinaryMessage && mt != websocket.TextMessage {
			continue
		}
		if _, err := tcp.Write(data); err != nil {
			return
		}
	}
}

// pumpToWS copies raw TCP bytes into binary websocket frames.
func (s *Server) pumpToWS(tcp net.Conn, ws *websocket.Conn) {
	defer func() { _ = tcp.Close(); _ = ws.Close() }()
	buf := make([]byte, 32*1024)
	for {
		n, err := tcp.Read(buf)
		if n > 0 {
			if werr := ws.WriteMessage(websocket.BinaryMessage, buf[:n]); werr != nil {
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				slog.Debug("bridge tcp read ended", "err", err)
			}
			return
		}
	}
}
