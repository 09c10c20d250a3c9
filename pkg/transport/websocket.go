// ABOUTME: WebSocket transport carrying the byte stream in binary messages
// ABOUTME: Flattens incoming messages and writes each Write as one message
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const wsCloseTimeout = time.Second

// wsConn presents a WebSocket as a byte stream
type wsConn struct {
	conn   *websocket.Conn
	reader io.Reader

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    chan struct{}
}

func newWSConn(conn *websocket.Conn) *wsConn {
	return &wsConn{conn: conn, closed: make(chan struct{})}
}

func dialWebSocket(ctx context.Context, a Addr) (io.ReadWriteCloser, error) {
	u := a.String()
	log.Printf("Connecting to %s", u)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u, err)
	}
	return newWSConn(conn), nil
}

// Read returns bytes from the current binary message, moving on to the next
// message when it is exhausted. Text messages are skipped.
func (c *wsConn) Read(p []byte) (int, error) {
	for {
		if c.reader == nil {
			msgType, r, err := c.conn.NextReader()
			if err != nil {
				var ce *websocket.CloseError
				if errors.As(err, &ce) && ce.Code == websocket.CloseNormalClosure {
					return 0, io.EOF
				}
				select {
				case <-c.closed:
					return 0, io.EOF
				default:
				}
				return 0, err
			}
			if msgType != websocket.BinaryMessage {
				log.Printf("Warning: ignoring non-binary websocket message")
				continue
			}
			c.reader = r
		}

		n, err := c.reader.Read(p)
		if err == io.EOF {
			c.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (c *wsConn) Write(p []byte) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close sends a normal closure and closes the socket
func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		c.writeMu.Lock()
		c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsCloseTimeout))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}

// wsListener serves one upgrade path and hands connections to Accept
type wsListener struct {
	ln       net.Listener
	srv      *http.Server
	addr     Addr
	upgrader websocket.Upgrader
	conns    chan *wsConn
	done     chan struct{}
	once     sync.Once
}

func listenWebSocket(a Addr) (Listener, error) {
	ln, err := net.Listen("tcp", a.Host)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", a, err)
	}

	l := &wsListener{
		ln:   ln,
		addr: Addr{Scheme: "ws", Host: ln.Addr().String(), Path: a.Path},
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(chan *wsConn),
		done:  make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(a.Path, l.handle)
	l.srv = &http.Server{Handler: mux}

	go func() {
		if err := l.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("WebSocket server error: %v", err)
		}
	}()

	log.Printf("Listening on %s", l.addr)
	return l, nil
}

func (l *wsListener) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	c := newWSConn(conn)
	select {
	case l.conns <- c:
		log.Printf("Accepted websocket peer %s", r.RemoteAddr)
	case <-l.done:
		c.Close()
	}
}

func (l *wsListener) Accept(ctx context.Context) (io.ReadWriteCloser, error) {
	select {
	case c := <-l.conns:
		return c, nil
	case <-l.done:
		return nil, ErrListenerClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *wsListener) Addr() Addr { return l.addr }

func (l *wsListener) Close() error {
	var err error
	l.once.Do(func() {
		close(l.done)
		err = l.srv.Close()
	})
	return err
}
