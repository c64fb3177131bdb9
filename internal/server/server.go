package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	rand "math/rand/v2"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/lox/antepoker/internal/game"
	"github.com/lox/antepoker/internal/randutil"
	"github.com/lox/antepoker/internal/transport"
)

const shutdownTimeout = 5 * time.Second

// Option configures a Server
type Option func(*Server)

// WithGameOptions appends game options after those derived from the config.
func WithGameOptions(opts ...game.Option) Option {
	return func(s *Server) { s.gameOpts = append(s.gameOpts, opts...) }
}

// WithMatchObserver registers a callback invoked as each match completes.
func WithMatchObserver(fn func(MatchResult)) Option {
	return func(s *Server) { s.observer = fn }
}

// Server accepts connections on TCP and WebSocket listeners and seats them
// into matches in arrival order.
type Server struct {
	config   *ServerConfig
	logger   *log.Logger
	rng      *rand.Rand
	gameOpts []game.Option
	observer func(MatchResult)

	upgrader websocket.Upgrader
	conns    chan io.ReadWriteCloser

	started   atomic.Int64
	completed atomic.Int64
	waiting   atomic.Int64
}

// NewServer creates a server. The RNG seeds every match so a whole session
// can be replayed from one seed.
func NewServer(logger *log.Logger, rng *rand.Rand, config *ServerConfig, opts ...Option) (*Server, error) {
	if rng == nil {
		return nil, errors.New("rng is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	gameOpts, err := config.GameOptions()
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:   config,
		logger:   logger.WithPrefix("server"),
		rng:      rng,
		gameOpts: gameOpts,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Bots connect from anywhere
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		conns: make(chan io.ReadWriteCloser),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ListenAndServe opens the configured listeners and serves until ctx is
// cancelled or the configured number of matches has completed.
func (s *Server) ListenAndServe(ctx context.Context) error {
	tcp, err := net.Listen("tcp", s.config.TCPAddress())
	if err != nil {
		return fmt.Errorf("listen tcp: %w", err)
	}

	var ws net.Listener
	if addr := s.config.WebSocketAddress(); addr != "" {
		ws, err = net.Listen("tcp", addr)
		if err != nil {
			_ = tcp.Close()
			return fmt.Errorf("listen websocket: %w", err)
		}
	}
	return s.Serve(ctx, tcp, ws)
}

// Serve accepts raw streams on tcp and WebSocket upgrades on ws. Either
// listener may be nil. Both are closed when Serve returns.
func (s *Server) Serve(ctx context.Context, tcp, ws net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	if tcp != nil {
		s.logger.Info("Accepting TCP connections", "addr", tcp.Addr())
		g.Go(func() error { return s.acceptTCP(gctx, tcp) })
		g.Go(func() error {
			<-gctx.Done()
			_ = tcp.Close() // Unblocks Accept
			return nil
		})
	}

	if ws != nil {
		mux := http.NewServeMux()
		mux.Handle(s.config.Server.WebSocketPath, s.Handler(gctx))
		mux.HandleFunc("/health", s.handleHealth)
		mux.HandleFunc("/stats", s.handleStats)
		srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

		s.logger.Info("Accepting WebSocket connections", "addr", ws.Addr(), "path", s.config.Server.WebSocketPath)
		g.Go(func() error {
			if err := srv.Serve(ws); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("websocket server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		var matches errgroup.Group
		s.seatPlayers(gctx, &matches)
		err := matches.Wait()
		cancel()
		return err
	})

	return g.Wait()
}

// Handler returns the HTTP handler that upgrades requests to WebSocket
// streams and queues them for seating until ctx is done.
func (s *Server) Handler(ctx context.Context) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.logger.Error("Failed to upgrade connection", "error", err)
			return
		}
		s.logger.Debug("WebSocket client connected", "remote", r.RemoteAddr)
		s.enqueue(ctx, transport.NewWebSocketStream(conn))
	})
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK") // Ignore write errors for health check
}

// handleStats reports match counters as plain text
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintf(w, "Matches started: %d\n", s.started.Load())
	_, _ = fmt.Fprintf(w, "Matches completed: %d\n", s.completed.Load())
	_, _ = fmt.Fprintf(w, "Players waiting: %d\n", s.waiting.Load())
	_, _ = fmt.Fprintf(w, "Players per match: %d\n", s.config.Match.Players)
}

func (s *Server) acceptTCP(ctx context.Context, ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		s.logger.Debug("TCP client connected", "remote", conn.RemoteAddr())
		s.enqueue(ctx, conn)
	}
}

// enqueue hands a connection to the seating loop, or closes it once the
// server is shutting down.
func (s *Server) enqueue(ctx context.Context, conn io.ReadWriteCloser) {
	select {
	case s.conns <- conn:
	case <-ctx.Done():
		_ = conn.Close() // Ignore close errors during shutdown
	}
}

// seatPlayers groups connections into matches in arrival order. It returns
// when ctx is done or the match limit has been reached. Matches run on the
// given group.
func (s *Server) seatPlayers(ctx context.Context, matches *errgroup.Group) {
	size := s.config.Match.Players
	limit := s.config.Match.MaxMatches

	var (
		waiting []io.ReadWriteCloser
		started int
	)
	defer func() {
		s.waiting.Store(0)
		for _, conn := range waiting {
			_ = conn.Close() // Never seated
		}
	}()

	for limit == 0 || started < limit {
		select {
		case <-ctx.Done():
			return
		case conn := <-s.conns:
			waiting = append(waiting, conn)
			s.waiting.Store(int64(len(waiting)))
			s.logger.Info("Player waiting", "waiting", len(waiting), "needed", size)
			if len(waiting) < size {
				continue
			}

			m := newMatch(s.logger, randutil.Child(s.rng), waiting, s.config.Match.MaxRounds, s.gameOpts...)
			waiting = nil
			started++
			s.waiting.Store(0)
			s.started.Add(1)

			matches.Go(func() error {
				result := m.Run(ctx)
				s.completed.Add(1)
				if s.observer != nil {
					s.observer(result)
				}
				return nil
			})
		}
	}
}
