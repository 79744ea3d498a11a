package api

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/selivandex/newsdesk/internal/feed"
	"github.com/selivandex/newsdesk/pkg/logger"
	"github.com/selivandex/newsdesk/pkg/worker"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512
)

// StreamMessage is pushed to dashboard subscribers
type StreamMessage struct {
	Type string `json:"type"`
	DashboardResponse
}

func (s *Server) buildDashboard(ctx context.Context, filter feed.Filter) DashboardResponse {
	return DashboardResponse{
		Filter:      filter,
		Panels:      s.dashboard.Build(ctx, s.watchlist.Companies(), filter),
		GeneratedAt: time.Now().UTC(),
	}
}

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
}

// checkOrigin applies the CORS origin list to WebSocket handshakes
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return len(s.cfg.AllowedOrigins) == 0
}

// dashboardStream pushes the dashboard to one connection
type dashboardStream struct {
	server  *Server
	conn    *websocket.Conn
	filter  feed.Filter
	writeMu sync.Mutex
}

func (ds *dashboardStream) Name() string {
	return "dashboard-stream"
}

// Run builds and sends one dashboard snapshot
func (ds *dashboardStream) Run(ctx context.Context) error {
	msg := StreamMessage{
		Type:              "dashboard",
		DashboardResponse: ds.server.buildDashboard(ctx, ds.filter),
	}
	if ctx.Err() != nil {
		return nil
	}
	return ds.write(func() error { return ds.conn.WriteJSON(msg) })
}

func (ds *dashboardStream) ping() error {
	return ds.write(func() error { return ds.conn.WriteMessage(websocket.PingMessage, nil) })
}

func (ds *dashboardStream) write(fn func() error) error {
	ds.writeMu.Lock()
	defer ds.writeMu.Unlock()
	_ = ds.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return fn()
}

// handleStream upgrades to WebSocket and pushes the dashboard on connect
// and then every stream interval until the client goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	filter, err := feed.ParseFilter(r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	s.streams.Add(1)
	defer s.streams.Done()

	ctx, cancel := context.WithCancel(s.streamCtx)
	defer cancel()

	stream := &dashboardStream{server: s, conn: conn, filter: filter}

	logger.Info("dashboard stream opened",
		zap.String("remote", r.RemoteAddr),
		zap.String("filter", string(filter)),
	)

	pusher := worker.RunBackground(ctx, stream, s.cfg.StreamInterval)
	go s.keepAlive(ctx, stream)

	// closing the socket unblocks the read loop on shutdown
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	readLoop(conn)

	cancel()
	pusher.Stop(writeWait)

	logger.Info("dashboard stream closed", zap.String("remote", r.RemoteAddr))
}

func (s *Server) keepAlive(ctx context.Context, stream *dashboardStream) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := stream.ping(); err != nil {
				return
			}
		}
	}
}

// readLoop drains client frames so pongs and close messages are processed
func readLoop(conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}
	}
}
