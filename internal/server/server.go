package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"memetrader/config"
	"memetrader/internal/session"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// reportInterval is how often the live session count is logged.
const reportInterval = time.Minute

// Server accepts WebSocket connections and gives each its own session.
type Server struct {
	cfg      config.ServerConfig
	factory  *session.Factory
	sessions *session.MemorySessionStore
	upgrader websocket.Upgrader
	logger   *zap.Logger

	baseCtx context.Context
}

func New(cfg config.ServerConfig, factory *session.Factory, sessions *session.MemorySessionStore, logger *zap.Logger) *Server {
	return &Server{
		cfg:      cfg,
		factory:  factory,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(cfg.AllowedOrigins),
		},
		logger:  logger,
		baseCtx: context.Background(),
	}
}

// checkOrigin returns nil (gorilla's same-origin check) when allowed is empty.
func checkOrigin(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.TrimRight(strings.ToLower(o), "/")] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return set[strings.ToLower(origin)]
	}
}

// Handler routes /ws and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	mux.HandleFunc("/healthz", s.serveHealth)
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.baseCtx = ctx
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go s.reportSessions(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("shutdown failed", zap.Error(err))
		}
	}()

	s.logger.Info("listening", zap.String("addr", s.cfg.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return nil
}

func (s *Server) serveHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "ok sessions=%d\n", s.sessions.Count())
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error.
		s.logger.Warn("websocket upgrade failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}
	defer conn.Close()

	sess, err := s.factory.New()
	if err != nil {
		s.logger.Error("failed to open session", zap.Error(err))
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "session unavailable"))
		return
	}

	s.sessions.Add(sess)
	defer s.sessions.Remove(sess.ID)

	logger := s.logger.With(zap.String("session", sess.ID.String()), zap.String("remote", r.RemoteAddr))
	logger.Info("session connected")
	s.runSession(conn, sess, logger)
	logger.Info("session closed",
		zap.Int("rounds", sess.Round()),
		zap.Int("trades", len(sess.History())),
		zap.Duration("duration", time.Since(sess.CreatedAt)),
	)
}

// runSession handles one message at a time: read, run to completion, reply.
func (s *Server) runSession(conn *websocket.Conn, sess *session.Session, logger *zap.Logger) {
	ctx, cancel := context.WithCancel(s.baseCtx)
	defer cancel()

	if s.cfg.ReadLimit > 0 {
		conn.SetReadLimit(s.cfg.ReadLimit)
	}
	handle := session.MakeMessageHandler(logger, sess)

	if err := s.write(conn, handle(ctx, []byte(`{"op":"state"}`))); err != nil {
		logger.Warn("failed to send greeting", zap.Error(err))
		return
	}

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		if err := s.write(conn, handle(ctx, msg)); err != nil {
			logger.Warn("websocket write error", zap.Error(err))
			return
		}
	}
}

func (s *Server) write(conn *websocket.Conn, reply []byte) error {
	if s.cfg.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	return conn.WriteMessage(websocket.TextMessage, reply)
}

// reportSessions periodically logs the live session count.
func (s *Server) reportSessions(ctx context.Context) {
	ticker := time.NewTicker(reportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.logger.Info("active sessions", zap.Int("count", s.sessions.Count()))
		}
	}
}
