package main

import (
	"bufio"
	"net"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const maxClients = 100 // grounded on types.h MAX_CLIENTS

// Client is one connected endpoint. Mutated by its own reader goroutine and
// by session broadcasts, which only ever send — never touch the identity
// fields below directly (SPEC_FULL.md §3 Client, §4.1).
type Client struct {
	ID            int
	TraceID       string // log-correlation only, never on the wire
	conn          net.Conn
	writer        *bufio.Writer
	writeMu       sync.Mutex
	RemoteAddr    string
	Authenticated bool
	Name          string
	SessionID     int // -1 when not in a session
	connected     bool
}

func (c *Client) send(line string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if !c.connected {
		return nil
	}
	if _, err := c.writer.WriteString(line); err != nil {
		return err
	}
	if err := c.writer.WriteByte('\n'); err != nil {
		return err
	}
	return c.writer.Flush()
}

// ClientRegistry accepts connections, assigns monotonic ids, and resolves
// id to connection for unicast sends. One mutex guards slot allocation and
// lookup; sends only take the lock long enough to resolve the connection
// (SPEC_FULL.md §4.1, §5 lock ordering: session → clients, never reversed).
type ClientRegistry struct {
	mu     sync.Mutex
	byID   map[int]*Client
	nextID int
	log    *log.Logger
}

func newClientRegistry(logger *log.Logger) *ClientRegistry {
	return &ClientRegistry{byID: make(map[int]*Client), nextID: 1, log: logger}
}

// Accept registers a newly-connected socket. Returns nil if capacity (100) is
// reached — the caller must close the connection without reply.
func (r *ClientRegistry) Accept(conn net.Conn) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.byID) >= maxClients {
		return nil
	}

	c := &Client{
		ID:         r.nextID,
		TraceID:    uuid.NewString(),
		conn:       conn,
		writer:     bufio.NewWriter(conn),
		RemoteAddr: conn.RemoteAddr().String(),
		SessionID:  -1,
		connected:  true,
	}
	r.nextID++
	r.byID[c.ID] = c
	r.log.Info("client connected", "id", c.ID, "remote", c.RemoteAddr, "trace", c.TraceID)
	return c
}

// Send is a best-effort unicast to a client by id; it silently no-ops for
// unknown or disconnected clients (send_to_client's -1-on-not-found, except
// the caller here has no retcode to inspect — matching broadcast_to_session's
// fire-and-forget loop).
func (r *ClientRegistry) Send(clientID int, frame string) {
	r.mu.Lock()
	c, ok := r.byID[clientID]
	r.mu.Unlock()
	if !ok || !c.connected {
		return
	}
	if err := c.send(frame); err != nil {
		r.log.Debug("send failed", "client", clientID, "err", err)
	}
}

// Disconnect marks a client's slot free and closes its connection. The
// caller is responsible for having already left any session (see server.go's
// connection handler, which calls Session.Leave before Disconnect).
func (r *ClientRegistry) Disconnect(c *Client) {
	r.mu.Lock()
	delete(r.byID, c.ID)
	r.mu.Unlock()

	c.writeMu.Lock()
	c.connected = false
	c.writeMu.Unlock()

	_ = c.conn.Close()
	r.log.Info("client disconnected", "id", c.ID, "remaining", r.Count())
}

// ClearSession resets a client's current-session marker, used once a session
// it was part of has ended (end_session clearing current_session_id).
func (r *ClientRegistry) ClearSession(clientID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byID[clientID]; ok {
		c.SessionID = -1
	}
}

func (r *ClientRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}
