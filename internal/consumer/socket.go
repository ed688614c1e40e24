// internal/consumer/socket.go
// Socket is the minimal contract the consumer runtime needs from a
// connection: timed reads (so the socket pump can re-check its closing flag
// between frames) and plain writes. wsSocket adapts gorilla/websocket.Conn,
// the same library internal/handler upgrades HTTP connections with.
package consumer

import (
	"time"

	"github.com/gorilla/websocket"
)

// Socket abstracts the client-facing connection so the consumer runtime and
// its tests don't depend on gorilla/websocket directly.
type Socket interface {
	// ReadTimeout reads one frame, blocking at most d. A timeout returns
	// ErrConnectionClosed == false (ok=false, err=nil); a closed/broken
	// connection returns ok=false, err=ErrConnectionClosed.
	ReadTimeout(d time.Duration) (data []byte, ok bool, err error)
	WriteMessage(data []byte) error
	Close(code int, reason string) error
}

// wsSocket adapts *websocket.Conn to Socket.
type wsSocket struct {
	conn *websocket.Conn
}

// NewWSSocket wraps an upgraded gorilla/websocket connection.
func NewWSSocket(conn *websocket.Conn) Socket {
	return &wsSocket{conn: conn}
}

func (s *wsSocket) ReadTimeout(d time.Duration) ([]byte, bool, error) {
	_ = s.conn.SetReadDeadline(time.Now().Add(d))
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		if ne, ok := err.(interface{ Timeout() bool }); ok && ne.Timeout() {
			return nil, false, nil
		}
		return nil, false, ErrConnectionClosed
	}
	return data, true, nil
}

func (s *wsSocket) WriteMessage(data []byte) error {
	return s.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (s *wsSocket) Close(code int, reason string) error {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return s.conn.Close()
}
