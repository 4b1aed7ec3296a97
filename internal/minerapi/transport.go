package minerapi

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"
)

// maxReplyBytes bounds a single reply frame.
const maxReplyBytes = 4 << 20

// Transport performs one request/response exchange per TCP connection.
// It holds only read-only settings and is safe for concurrent use.
type Transport struct {
	host    string
	port    int
	timeout time.Duration
	dial    func(ctx context.Context, network, address string) (net.Conn, error)
}

// NewTransport builds a Transport for the daemon at host:port. timeout bounds
// connect, write, and the wait for the reply together.
func NewTransport(host string, port int, timeout time.Duration) *Transport {
	var dialer net.Dialer
	return &Transport{host: host, port: port, timeout: timeout, dial: dialer.DialContext}
}

// Address returns the dial target in host:port form.
func (t *Transport) Address() string {
	return net.JoinHostPort(t.host, strconv.Itoa(t.port))
}

// Send opens a connection, writes cmd, and returns the raw reply frame.
func (t *Transport) Send(ctx context.Context, cmd Command) ([]byte, error) {
	payload, err := EncodeCommand(cmd)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(t.timeout)
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	conn, err := t.dial(ctx, "tcp", t.Address())
	if err != nil {
		return nil, t.classify(ctx, fmt.Errorf("dial: %w", err))
	}
	defer conn.Close()

	if err := conn.SetDeadline(deadline); err != nil {
		return nil, t.classify(ctx, fmt.Errorf("set deadline: %w", err))
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	if _, err := conn.Write(payload); err != nil {
		return nil, t.classify(ctx, fmt.Errorf("write request: %w", err))
	}

	reply, err := readReply(conn)
	if err != nil {
		return nil, t.classify(ctx, fmt.Errorf("read reply: %w", err))
	}
	return reply, nil
}

// readReply collects one frame: everything up to the daemon's NUL terminator
// or the close of the connection, whichever comes first.
func readReply(r io.Reader) ([]byte, error) {
	reader := bufio.NewReader(io.LimitReader(r, maxReplyBytes))
	frame, err := reader.ReadBytes(0)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if len(frame) > 0 && frame[len(frame)-1] == 0 {
		frame = frame[:len(frame)-1]
	}
	if len(frame) == 0 {
		return nil, io.ErrUnexpectedEOF
	}
	return frame, nil
}

func (t *Transport) classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(ctxErr, context.DeadlineExceeded) {
		return &ConnectionError{Host: t.host, Port: t.port, Err: ctxErr}
	}
	if isTimeout(err) {
		return &TimeoutError{Host: t.host, Port: t.port}
	}
	return &ConnectionError{Host: t.host, Port: t.port, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
