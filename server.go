package main

import (
	"bufio"
	"context"
	"net"
	"strconv"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// serverState bundles the registries every handler and the round engine
// need, plus the run's cancellation context — the one thing every
// per-connection and per-session goroutine shares.
type serverState struct {
	ctx      context.Context
	accounts *AccountRegistry
	catalog  *Catalog
	clients  *ClientRegistry
	sessions *SessionRegistry
	log      *log.Logger
}

// Serve loads persistent state, then runs the TCP game socket and the UDP
// discovery responder until ctx is cancelled — grounded on server.c's
// init_server/run_server/cleanup_server, generalized from raw sockets +
// pthreads to net.Listener + an errgroup of goroutines.
func Serve(ctx context.Context, cfg *Config) error {
	logger := newLogger(cfg.verbose)

	accounts := newAccountRegistry(cfg.accountsFile, tag(logger, "accounts"))
	if err := accounts.Load(); err != nil {
		return err
	}

	catalog := newCatalog(tag(logger, "catalog"))
	if err := catalog.Load(cfg.questionsFile); err != nil {
		return err
	}

	st := &serverState{
		ctx:      ctx,
		accounts: accounts,
		catalog:  catalog,
		clients:  newClientRegistry(tag(logger, "clients")),
		sessions: newSessionRegistry(catalog, tag(logger, "sessions")),
		log:      logger,
	}

	listener, err := net.Listen("tcp", portAddr(cfg.tcpPort))
	if err != nil {
		return err
	}
	defer listener.Close()

	udpConn, err := net.ListenPacket("udp", portAddr(cfg.udpPort))
	if err != nil {
		return err
	}
	defer udpConn.Close()

	logger.Info("quiznet server listening", "name", cfg.name, "tcp", cfg.tcpPort, "udp", cfg.udpPort)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return acceptLoop(gctx, st, listener)
	})
	g.Go(func() error {
		return discoveryLoop(gctx, udpConn, cfg.name, cfg.tcpPort)
	})
	g.Go(func() error {
		<-gctx.Done()
		_ = listener.Close()
		_ = udpConn.Close()
		return nil
	})

	err = g.Wait()
	if gctx.Err() != nil {
		return nil // clean shutdown via context cancellation
	}
	return err
}

func portAddr(port int) string {
	return net.JoinHostPort("", strconv.Itoa(port))
}

// acceptLoop accepts connections until cancelled, handling each on its own
// goroutine — one goroutine per connection, as in the original's detached
// pthread-per-client model (SPEC_FULL.md §5).
func acceptLoop(ctx context.Context, st *serverState, listener net.Listener) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go handleConnection(ctx, st, conn)
	}
}

// handleConnection is the per-client reader loop: decode a request, dispatch
// it, write the response, repeat until EOF/error/cancellation, then clean up
// — grounded on server.c's client_handler/disconnect_client.
func handleConnection(ctx context.Context, st *serverState, conn net.Conn) {
	c := st.clients.Accept(conn)
	if c == nil {
		st.log.Warn("rejecting connection: at capacity", "remote", conn.RemoteAddr())
		_ = conn.Close()
		return
	}

	reader := bufio.NewReader(conn)
	for {
		req, err := readRequest(reader)
		if err != nil {
			break
		}
		if req.method == "" {
			continue
		}

		reply, apiErr := dispatch(st, c, req)
		if apiErr != nil {
			resp := frame{"statut": apiErr.status, "message": apiErr.message}
			if apiErr.action != "" {
				resp["action"] = apiErr.action
			}
			reply = resp.marshal()
		}
		if reply == "" {
			continue
		}
		if err := c.send(reply); err != nil {
			break
		}
	}

	if c.SessionID >= 0 {
		if s := st.sessions.Find(c.SessionID); s != nil {
			s.Leave(st.clients, c.ID)
		}
	}
	st.clients.Disconnect(c)
}
