package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/quickspell/core/logging"
	"github.com/quickspell/core/session"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// SnapshotStream fans session snapshots out to websocket clients. Each
// client gets its own session subscription; a slow client drops frames
// rather than stalling the session or its peers.
type SnapshotStream struct {
	session  *session.Session
	upgrader websocket.Upgrader
	logger   *logrus.Entry

	mu      sync.Mutex
	clients map[*streamClient]struct{}
	closed  bool
}

type streamClient struct {
	conn *websocket.Conn
	sub  chan session.Snapshot
	done chan struct{}
}

// NewSnapshotStream creates a stream fed by the given session.
func NewSnapshotStream(sess *session.Session) *SnapshotStream {
	return &SnapshotStream{
		session: sess,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The socket itself is the trust boundary; it is mode 0600
			// on the local filesystem.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  logging.NewLogger("stream"),
		clients: make(map[*streamClient]struct{}),
	}
}

// HandleWebSocket upgrades the connection and streams snapshots until the
// client disconnects.
func (s *SnapshotStream) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Error("Failed to upgrade websocket connection")
		return
	}

	client := &streamClient{
		conn: conn,
		sub:  s.session.Subscribe(),
		done: make(chan struct{}),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.session.Unsubscribe(client.sub)
		conn.Close()
		return
	}
	s.clients[client] = struct{}{}
	s.mu.Unlock()

	s.logger.Debug("Websocket client connected")

	go s.writePump(client)
	go s.readPump(client)
}

// writePump pushes snapshots and keepalive pings to one client.
func (s *SnapshotStream) writePump(client *streamClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.drop(client)
	}()

	for {
		select {
		case snap, ok := <-client.sub:
			if !ok {
				return
			}
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteJSON(snap); err != nil {
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-client.done:
			return
		}
	}
}

// readPump discards client frames; its job is noticing disconnects.
func (s *SnapshotStream) readPump(client *streamClient) {
	defer s.drop(client)
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.WithError(err).Debug("Websocket read failed")
			}
			return
		}
	}
}

func (s *SnapshotStream) drop(client *streamClient) {
	s.mu.Lock()
	_, ok := s.clients[client]
	if ok {
		delete(s.clients, client)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	close(client.done)
	s.session.Unsubscribe(client.sub)
	client.conn.Close()
	s.logger.Debug("Websocket client disconnected")
}

// Close disconnects every client.
func (s *SnapshotStream) Close() {
	s.mu.Lock()
	s.closed = true
	clients := make([]*streamClient, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()
	for _, c := range clients {
		s.drop(c)
	}
}
