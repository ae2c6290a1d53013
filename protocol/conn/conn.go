package conn

import (
	"errors"
	"log/slog"
	"net"
	"sync"

	"github.com/steelforge/voxelcore/protocol/codec"
)

// ErrWrongState is returned when a packet arrives (or a send is
// attempted) outside the state it belongs to — the Go equivalent of
// assert_protocol's "close the connection" guard.
var ErrWrongState = errors.New("conn: packet not valid in current state")

// DisconnectKind selects which clientbound disconnect packet a kick
// uses, since Login/Configuration/Play each have their own.
type DisconnectKind int

const (
	DisconnectNone DisconnectKind = iota
	DisconnectLogin
	DisconnectGame
)

func disconnectKindFor(s State) DisconnectKind {
	switch s {
	case Login:
		return DisconnectLogin
	case Configuration, Play:
		return DisconnectGame
	default:
		return DisconnectNone
	}
}

// Sender writes one already-framed clientbound packet for the given
// connection state. Conn doesn't know about concrete packet types —
// the packet registry built on top of this package supplies them —
// mirroring the way component O's RawPacket stays opaque to this
// layer too.
type Sender interface {
	SendDisconnect(kind DisconnectKind, reason string) error
}

// Config configures a new Conn.
type Config struct {
	Logger        *slog.Logger
	RemoteAddr    net.Addr
	Sender        Sender
	OutgoingQueue int
}

// Conn tracks one client's position in the handshake/login state
// machine and its outgoing packet queue, the Go shape of
// JavaTcpClient's connection_protocol/outgoing_queue/cancel_token
// fields without the async-task machinery — this package owns state
// and framing, not goroutine scheduling, which belongs to whatever
// wires Conn to a net.Conn.
type Conn struct {
	log    *slog.Logger
	addr   net.Addr
	sender Sender

	mu    sync.Mutex
	state State

	outgoing chan codec.RawPacket

	closeOnce sync.Once
	closed    chan struct{}
}

func New(cfg Config) *Conn {
	if cfg.OutgoingQueue <= 0 {
		cfg.OutgoingQueue = 128
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Conn{
		log:      log,
		addr:     cfg.RemoteAddr,
		sender:   cfg.Sender,
		state:    Handshaking,
		outgoing: make(chan codec.RawPacket, cfg.OutgoingQueue),
		closed:   make(chan struct{}),
	}
}

// State returns the connection's current protocol state.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Assert reports whether the connection is currently in want, closing
// the connection (and logging) if it is not — the Go equivalent of
// assert_protocol.
func (c *Conn) Assert(want State) bool {
	c.mu.Lock()
	got := c.state
	c.mu.Unlock()
	if got != want {
		c.log.Warn("packet received in wrong connection state", "addr", c.addr, "want", want, "got", got)
		c.Close()
		return false
	}
	return true
}

// Transition moves the connection to a handshake intent's next state.
// Only valid from Handshaking; called once, right after
// ServerBoundHandshake::Intention is processed.
func (c *Conn) Transition(intent Intent) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Handshaking {
		return false
	}
	c.state = NextState(intent)
	return true
}

// EnterConfiguration moves Login -> Configuration once login
// finishes, and EnterPlay moves Configuration -> Play once
// configuration finishes; both are no-ops (returning false) from any
// other state.
func (c *Conn) EnterConfiguration() bool { return c.advance(Login, Configuration) }
func (c *Conn) EnterPlay() bool          { return c.advance(Configuration, Play) }

func (c *Conn) advance(from, to State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != from {
		return false
	}
	c.state = to
	return true
}

// Enqueue queues a packet for the outgoing writer goroutine. Returns
// false if the queue is full or the connection already closed,
// mirroring the Rust side's outgoing_queue being a bounded broadcast
// channel whose send failure just logs and moves on.
func (c *Conn) Enqueue(pkt codec.RawPacket) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.outgoing <- pkt:
		return true
	default:
		c.log.Warn("outgoing packet queue full, dropping packet", "addr", c.addr, "id", pkt.ID)
		return false
	}
}

// Outgoing exposes the queue for a writer goroutine to drain; callers
// should select on Done() alongside a receive from this channel.
func (c *Conn) Outgoing() <-chan codec.RawPacket { return c.outgoing }

// Done reports when the connection has been closed.
func (c *Conn) Done() <-chan struct{} { return c.closed }

// Kick sends the state-appropriate disconnect packet, then closes the
// connection — the three-way switch on connection_protocol in Rust's
// kick, generalized to a Sender so this package stays free of concrete
// packet types. Packets still queued are not flushed here.
func (c *Conn) Kick(reason string) {
	kind := disconnectKindFor(c.State())
	if kind != DisconnectNone && c.sender != nil {
		if err := c.sender.SendDisconnect(kind, reason); err != nil {
			c.log.Warn("failed to send disconnect packet", "addr", c.addr, "err", err)
		}
	}
	c.log.Debug("closing connection", "addr", c.addr, "reason", reason)
	c.Close()
}

// Close marks the connection done. It does not flush queued outgoing
// packets: they stay in the Outgoing() channel, and nothing in this
// package writes them out. Safe to call more than once.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
}

// IsValidPlayerName reports whether name is a legal vanilla username:
// 3-16 ASCII alphanumeric or underscore characters.
func IsValidPlayerName(name string) bool {
	if len(name) < 3 || len(name) > 16 {
		return false
	}
	for _, r := range name {
		if r == '_' {
			continue
		}
		if r >= '0' && r <= '9' {
			continue
		}
		if r >= 'a' && r <= 'z' {
			continue
		}
		if r >= 'A' && r <= 'Z' {
			continue
		}
		return false
	}
	return true
}
