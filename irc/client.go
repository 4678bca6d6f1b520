package irc

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/subculture-collective/chatlogd/logfile"
	"github.com/subculture-collective/chatlogd/telemetry"
)

const (
	// readBufferSize bounds a single receive. Twitch IRC lines are well under
	// this, but one read may still carry several lines concatenated.
	readBufferSize = 2048

	pingPrefix     = "PING"
	pongReply      = "PONG"
	lineTerminator = "\r\n"

	dialTimeout = 10 * time.Second
)

// connState tracks the lifecycle of the receive loop.
type connState int32

const (
	stateConnected connState = iota
	stateClosing
	stateClosed
)

// Filter optionally rewrites a decoded chunk before it reaches the sink
// (e.g., emote-to-text substitution). It must be pure and side-effect free.
type Filter func(string) string

// Client is a single-channel chat ingestor bound to one connection and one
// sink. It is not safe for concurrent use; run one Client per channel.
type Client struct {
	conn   net.Conn
	sink   logfile.Sink
	filter Filter
	state  atomic.Int32
	now    func() time.Time
	log    *slog.Logger
}

// Dial establishes the stream connection to the chat endpoint.
func Dial(ctx context.Context, addr string) (net.Conn, error) {
	d := net.Dialer{Timeout: dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &ConnError{Addr: addr, Op: "dial", Err: err}
	}
	return conn, nil
}

// NewClient wraps an established connection. filter may be nil.
func NewClient(conn net.Conn, sink logfile.Sink, filter Filter) *Client {
	c := &Client{
		conn:   conn,
		sink:   sink,
		filter: filter,
		now:    time.Now,
		log:    slog.Default().With(slog.String("component", "irc")),
	}
	c.state.Store(int32(stateConnected))
	return c
}

// Authenticate sends the credential, identity, and channel-join control lines.
// Twitch sends no acknowledgment; a bad token surfaces later as silence.
func (c *Client) Authenticate(token, nick, channel string) error {
	lines := []string{
		"PASS " + token,
		"NICK " + nick,
		"JOIN #" + strings.TrimPrefix(channel, "#"),
	}
	for _, line := range lines {
		if _, err := c.conn.Write([]byte(line + lineTerminator)); err != nil {
			return &ConnError{Op: "auth", Err: err}
		}
	}
	return nil
}

// ReceiveLoop reads chunks until the connection fails or ctx is canceled.
// Cancellation closes the connection from a watcher goroutine so the blocking
// read returns; the loop then exits cleanly with a nil error. A transport
// failure while still Connected returns a *ReadError.
func (c *Client) ReceiveLoop(ctx context.Context) error {
	watcherDone := make(chan struct{})
	loopDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		select {
		case <-ctx.Done():
			c.state.Store(int32(stateClosing))
			if err := c.conn.Close(); err != nil {
				c.log.Debug("close on cancel", slog.Any("err", err))
			}
		case <-loopDone:
		}
	}()
	defer func() {
		close(loopDone)
		<-watcherDone
		c.state.Store(int32(stateClosed))
	}()

	buf := make([]byte, readBufferSize)
	var carry []byte // incomplete trailing rune from the previous read
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			telemetry.IncChunksReceived()
			raw := append(append([]byte(nil), carry...), buf[:n]...)
			carry = nil // reset even when the chunk is skipped
			text, rest, ok := decodeChunk(raw)
			if !ok {
				// Genuinely invalid bytes, not a rune split at the chunk
				// boundary. Skip the chunk rather than kill the session.
				telemetry.IncDecodeSkips()
				c.log.Warn("skipping undecodable chunk", slog.Int("bytes", len(raw)))
			} else {
				carry = rest
				c.handleChunk(text)
			}
		}
		if err != nil {
			if connState(c.state.Load()) == stateClosing || errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				c.log.Info("receive loop stopped", slog.String("reason", "canceled"))
				return nil
			}
			return &ReadError{Err: err}
		}
	}
}

// handleChunk answers liveness probes and appends everything else. Empty
// chunks (possible when a read carried only a partial rune) are dropped.
func (c *Client) handleChunk(text string) {
	if text == "" {
		return
	}
	if strings.HasPrefix(text, pingPrefix) {
		if _, err := c.conn.Write([]byte(pongReply + lineTerminator)); err != nil {
			c.log.Warn("pong write failed", slog.Any("err", err))
			return
		}
		telemetry.IncPongsSent()
		return
	}
	if c.filter != nil {
		text = c.filter(text)
	}
	if err := c.sink.Append(c.now(), text); err != nil {
		telemetry.IncAppendErrors()
		c.log.Error("append failed", slog.Any("err", err))
		return
	}
	telemetry.IncRecordsAppended()
}

// decodeChunk validates a chunk as UTF-8. A trailing incomplete multi-byte
// sequence (TCP can split a rune across reads) is returned as carry for the
// next read. Invalid bytes anywhere else make the chunk undecodable.
func decodeChunk(b []byte) (text string, carry []byte, ok bool) {
	if utf8.Valid(b) {
		return string(b), nil, true
	}
	// Trim at most UTFMax-1 bytes off the tail looking for a valid prefix.
	cut := len(b)
	for cut > 0 && len(b)-cut < utf8.UTFMax {
		if utf8.Valid(b[:cut]) {
			tail := b[cut:]
			if len(tail) > 0 && !utf8.FullRune(tail) && startsRune(tail[0]) {
				return string(b[:cut]), append([]byte(nil), tail...), true
			}
			return "", nil, false
		}
		cut--
	}
	return "", nil, false
}

// startsRune reports whether b is a lead byte of a multi-byte UTF-8 sequence.
func startsRune(b byte) bool { return b >= 0xC0 && b <= 0xF4 }
