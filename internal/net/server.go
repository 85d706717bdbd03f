package net

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"sleipnir/internal/book"
	"sleipnir/internal/common"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const (
	maxRecvSize        = 4 * 1024
	defaultNWorkers    = 10
	defaultConnTimeout = 30 * time.Second
)

var (
	ErrImproperConversion = errors.New("improper task type conversion")
	ErrClientDoesNotExist = errors.New("client does not exist")
)

// ClientSession tracks one accepted TCP connection, tagged with a
// google/uuid session id used in log fields and ClientMessage correlation —
// the identity the teacher's ClientSession/ClientMessage pair never had of
// their own, keyed instead by a mutable local address string.
type ClientSession struct {
	id   uuid.UUID
	conn net.Conn
}

// ClientMessage links a parsed wire message to the session that sent it.
type ClientMessage struct {
	sessionID uuid.UUID
	message   Message
}

// Engine is the subset of internal/engine.Engine the server needs: symbol
// routing for orders plus a book lookup, used to find a symbol's tick size.
type Engine interface {
	PlaceOrder(symbol string, order common.Order) ([]common.Execution, error)
	CancelOrder(symbol string, id uint64) error
	Book(symbol string) (*book.Book, bool)
}

// Server runs a TCP accept loop over a tomb-supervised WorkerPool and an
// HTTP /metrics endpoint alongside it, wiring prometheus/client_golang the
// way the teacher never did for its own gRPC debug server.
type Server struct {
	address      string
	port         int
	metricsAddr  string
	engine       Engine
	tickSizeOf   func(symbol string) uint64
	pool         WorkerPool
	cancel       context.CancelFunc
	sessionsLock sync.Mutex
	sessions     map[uuid.UUID]ClientSession
	messages     chan ClientMessage
}

// New builds a Server. metricsAddr may be empty to disable the /metrics
// listener.
func New(address string, port int, metricsAddr string, engine Engine) *Server {
	return &Server{
		address:     address,
		port:        port,
		metricsAddr: metricsAddr,
		engine:      engine,
		pool:        NewWorkerPool(defaultNWorkers),
		sessions:    make(map[uuid.UUID]ClientSession),
		messages:    make(chan ClientMessage, 1),
		tickSizeOf: func(symbol string) uint64 {
			if b, ok := engine.Book(symbol); ok {
				return b.Config().TickSize
			}
			return 1
		},
	}
}

func (s *Server) Shutdown() {
	log.Info().Msg("server shutting down")
	if s.cancel != nil {
		s.cancel()
	}
}

// Run starts the TCP listener, the worker pool, the session handler and
// (if configured) the metrics HTTP server, blocking until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	defer s.Shutdown()

	ctx, s.cancel = context.WithCancel(ctx)
	t, ctx := tomb.WithContext(ctx)

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", s.address, s.port))
	if err != nil {
		return fmt.Errorf("unable to start listener: %w", err)
	}
	defer func() {
		if err := listener.Close(); err != nil {
			log.Error().Err(err).Msg("unable to close listener")
		}
	}()

	if s.metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv := &http.Server{Addr: s.metricsAddr, Handler: mux}
		t.Go(func() error {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		t.Go(func() error {
			<-t.Dying()
			return metricsSrv.Close()
		})
	}

	t.Go(func() error {
		s.pool.Setup(t, s.handleConnection)
		return nil
	})

	t.Go(func() error {
		return s.sessionHandler(t)
	})

	log.Info().Str("address", s.address).Int("port", s.port).Msg("server running")

	for {
		select {
		case <-ctx.Done():
			return t.Wait()
		default:
			conn, err := listener.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return t.Wait()
				}
				log.Error().Err(err).Msg("error accepting client")
				continue
			}

			id := s.addClientSession(conn)
			log.Info().Str("session", id.String()).Str("address", conn.RemoteAddr().String()).Msg("new client added")
			s.pool.AddTask(sessionTask{id: id, conn: conn})
		}
	}
}

// ReportTrade pushes an execution report to the session identified by
// sessionID. It is safe to call from internal/engine's Reporter callback.
func (s *Server) ReportTrade(sessionID uuid.UUID, symbol string, exec common.Execution) error {
	s.sessionsLock.Lock()
	session, ok := s.sessions[sessionID]
	s.sessionsLock.Unlock()
	if !ok {
		return ErrClientDoesNotExist
	}

	tickSize := s.tickSizeOf(symbol)
	wire, err := generateWireTradeReport(symbol, tickSize, exec)
	if err != nil {
		return err
	}

	if _, err := session.conn.Write(wire); err != nil {
		s.deleteClientSession(sessionID)
		return fmt.Errorf("unable to send report: %w", err)
	}
	return nil
}

// ReportError pushes an error report to the session identified by sessionID.
func (s *Server) ReportError(sessionID uuid.UUID, symbol string, orderID uint64, now uint64, cause error) error {
	s.sessionsLock.Lock()
	session, ok := s.sessions[sessionID]
	s.sessionsLock.Unlock()
	if !ok {
		return ErrClientDoesNotExist
	}

	wire, err := generateWireErrorReport(symbol, orderID, now, cause)
	if err != nil {
		return err
	}

	if _, err := session.conn.Write(wire); err != nil {
		s.deleteClientSession(sessionID)
		return fmt.Errorf("unable to send report: %w", err)
	}
	return nil
}

// sessionHandler drains parsed messages and dispatches them to the engine.
func (s *Server) sessionHandler(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case message := <-s.messages:
			if err := s.handleMessage(message); err != nil {
				log.Error().Err(err).Str("session", message.sessionID.String()).Msg("error handling message")
			}
		}
	}
}

func (s *Server) handleMessage(message ClientMessage) error {
	now := uint64(time.Now().UnixNano())
	switch message.message.GetType() {
	case NewOrder:
		m, ok := message.message.(NewOrderMessage)
		if !ok {
			return ErrInvalidMessageType
		}
		tickSize := s.tickSizeOf(m.Symbol)
		order := m.Order(tickSize)
		execs, err := s.engine.PlaceOrder(m.Symbol, order)
		for _, exec := range execs {
			if rerr := s.ReportTrade(message.sessionID, m.Symbol, exec); rerr != nil {
				log.Error().Err(rerr).Msg("failed to deliver trade report")
			}
		}
		if err != nil {
			return s.ReportError(message.sessionID, m.Symbol, order.ID, now, err)
		}
	case CancelOrder:
		m, ok := message.message.(CancelOrderMessage)
		if !ok {
			return ErrInvalidMessageType
		}
		if err := s.engine.CancelOrder(m.Symbol, m.OrderID); err != nil {
			return s.ReportError(message.sessionID, m.Symbol, m.OrderID, now, err)
		}
	case LogBook:
		log.Info().Msg("log book requested")
	default:
		return ErrInvalidMessageType
	}
	return nil
}

type sessionTask struct {
	id   uuid.UUID
	conn net.Conn
}

// handleConnection reads and dispatches the next message off a connection,
// then re-queues the connection for its next message. Any returned error is
// fatal to the worker that ran it, per WorkerPool's contract.
func (s *Server) handleConnection(t *tomb.Tomb, task any) error {
	st, ok := task.(sessionTask)
	if !ok {
		return ErrImproperConversion
	}
	conn := st.conn

	select {
	case <-t.Dying():
		return nil
	default:
	}

	if err := conn.SetDeadline(time.Now().Add(defaultConnTimeout)); err != nil {
		log.Error().Err(err).Str("session", st.id.String()).Msg("failed setting connection deadline")
		s.deleteClientSession(st.id)
		_ = conn.Close()
		return nil
	}

	buffer := make([]byte, maxRecvSize)
	n, err := conn.Read(buffer)
	if err != nil {
		s.deleteClientSession(st.id)
		_ = conn.Close()
		return nil
	}

	message, err := parseMessage(buffer[:n])
	if err != nil {
		log.Error().Err(err).Str("session", st.id.String()).Msg("error parsing message")
		s.pool.AddTask(st)
		return nil
	}

	s.messages <- ClientMessage{sessionID: st.id, message: message}
	s.pool.AddTask(st)
	return nil
}

func (s *Server) addClientSession(conn net.Conn) uuid.UUID {
	s.sessionsLock.Lock()
	defer s.sessionsLock.Unlock()

	id := uuid.New()
	s.sessions[id] = ClientSession{id: id, conn: conn}
	return id
}

func (s *Server) deleteClientSession(id uuid.UUID) {
	s.sessionsLock.Lock()
	defer s.sessionsLock.Unlock()
	delete(s.sessions, id)
}
