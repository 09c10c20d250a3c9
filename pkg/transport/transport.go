// ABOUTME: Address parsing and scheme dispatch for transports
// ABOUTME: Dial and Listen select the implementation from the URL scheme
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// DefaultRFCOMMChannel is the radio's audio channel
const DefaultRFCOMMChannel = 2

var (
	// ErrUnsupportedScheme reports an address scheme with no transport
	ErrUnsupportedScheme = errors.New("transport: unsupported scheme")

	// ErrInvalidAddress reports an address that cannot be parsed
	ErrInvalidAddress = errors.New("transport: invalid address")

	// ErrListenerClosed is returned by Accept after Close
	ErrListenerClosed = errors.New("transport: listener closed")
)

// Addr is a parsed transport address
type Addr struct {
	Scheme  string
	Host    string // host:port for tcp and ws, the device address for rfcomm
	Path    string // ws only
	Channel int    // rfcomm only
}

func (a Addr) String() string {
	switch a.Scheme {
	case "rfcomm":
		return fmt.Sprintf("rfcomm://%s/%d", a.Host, a.Channel)
	case "ws":
		return "ws://" + a.Host + a.Path
	default:
		return a.Scheme + "://" + a.Host
	}
}

// ParseAddr parses a transport URL. A bare host:port is taken as tcp.
func ParseAddr(raw string) (Addr, error) {
	if !strings.Contains(raw, "://") {
		raw = "tcp://" + raw
	}

	// Device addresses contain colons, which url.Parse reads as a port
	if rest, ok := strings.CutPrefix(raw, "rfcomm://"); ok {
		return parseRFCOMM(rest)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Addr{}, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}

	switch u.Scheme {
	case "tcp":
		if _, _, err := net.SplitHostPort(u.Host); err != nil {
			return Addr{}, fmt.Errorf("%w: %q: %w", ErrInvalidAddress, raw, err)
		}
		return Addr{Scheme: "tcp", Host: u.Host}, nil
	case "ws":
		if u.Host == "" {
			return Addr{}, fmt.Errorf("%w: %q has no host", ErrInvalidAddress, raw)
		}
		path := u.Path
		if path == "" {
			path = "/"
		}
		return Addr{Scheme: "ws", Host: u.Host, Path: path}, nil
	default:
		return Addr{}, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}

func parseRFCOMM(rest string) (Addr, error) {
	device, channel, hasChannel := strings.Cut(rest, "/")
	if _, err := parseBDAddr(device); err != nil {
		return Addr{}, err
	}

	addr := Addr{Scheme: "rfcomm", Host: strings.ToUpper(device), Channel: DefaultRFCOMMChannel}
	if hasChannel && channel != "" {
		ch, err := strconv.Atoi(channel)
		if err != nil || ch < 1 || ch > 30 {
			return Addr{}, fmt.Errorf("%w: rfcomm channel %q (1-30)", ErrInvalidAddress, channel)
		}
		addr.Channel = ch
	}
	return addr, nil
}

// parseBDAddr converts AA:BB:CC:DD:EE:FF into the little-endian byte order
// the kernel expects
func parseBDAddr(s string) ([6]byte, error) {
	var out [6]byte
	parts := strings.Split(s, ":")
	if len(parts) != 6 {
		return out, fmt.Errorf("%w: device address %q", ErrInvalidAddress, s)
	}
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 16, 8)
		if err != nil || len(p) != 2 {
			return out, fmt.Errorf("%w: device address %q", ErrInvalidAddress, s)
		}
		out[5-i] = byte(v)
	}
	return out, nil
}

// Dial opens a transport to addr
func Dial(ctx context.Context, addr string) (io.ReadWriteCloser, error) {
	a, err := ParseAddr(addr)
	if err != nil {
		return nil, err
	}

	switch a.Scheme {
	case "tcp":
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", a.Host)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", a, err)
		}
		return conn, nil
	case "ws":
		return dialWebSocket(ctx, a)
	case "rfcomm":
		return dialRFCOMM(ctx, a)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, a.Scheme)
}

// Listener accepts incoming transports
type Listener interface {
	// Accept blocks until a peer connects, ctx is cancelled or the listener
	// is closed
	Accept(ctx context.Context) (io.ReadWriteCloser, error)
	Addr() Addr
	Close() error
}

// Listen opens a tcp or ws listener. Port 0 picks a free port; Addr reports it.
func Listen(addr string) (Listener, error) {
	a, err := ParseAddr(addr)
	if err != nil {
		return nil, err
	}

	switch a.Scheme {
	case "tcp":
		ln, err := net.Listen("tcp", a.Host)
		if err != nil {
			return nil, fmt.Errorf("listen %s: %w", a, err)
		}
		return &tcpListener{ln: ln, addr: Addr{Scheme: "tcp", Host: ln.Addr().String()}}, nil
	case "ws":
		return listenWebSocket(a)
	}
	return nil, fmt.Errorf("%w: cannot listen on %q", ErrUnsupportedScheme, a.Scheme)
}

// Port returns the numeric port of a tcp or ws address, or 0
func (a Addr) Port() int {
	_, port, err := net.SplitHostPort(a.Host)
	if err != nil {
		return 0
	}
	n, _ := strconv.Atoi(port)
	return n
}

type tcpListener struct {
	ln   net.Listener
	addr Addr
}

func (l *tcpListener) Accept(ctx context.Context) (io.ReadWriteCloser, error) {
	type result struct {
		conn net.Conn
		err  error
	}
	done := make(chan result, 1)
	go func() {
		conn, err := l.ln.Accept()
		done <- result{conn, err}
	}()

	select {
	case r := <-done:
		if errors.Is(r.err, net.ErrClosed) {
			return nil, ErrListenerClosed
		}
		return r.conn, r.err
	case <-ctx.Done():
		// Unblock the pending Accept; the listener is unusable afterwards
		l.ln.Close()
		if r := <-done; r.conn != nil {
			r.conn.Close()
		}
		return nil, ctx.Err()
	}
}

func (l *tcpListener) Addr() Addr   { return l.addr }
func (l *tcpListener) Close() error { return l.ln.Close() }

// Pipe returns two connected in-memory ends
func Pipe() (io.ReadWriteCloser, io.ReadWriteCloser) {
	return net.Pipe()
}
