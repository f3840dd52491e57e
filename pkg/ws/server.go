package ws

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/LLIEPJIOK/stnet/pkg/ws/transport"
)

// ServerConfig задаёт параметры сервера. WriteTimeout отключает соединение,
// которое не принимает кадр дольше заданного времени; 0 — ждать сколько угодно.
type ServerConfig struct {
	Host            string
	Port            int
	HTML            string
	ReadBufferSize  int
	WriteBufferSize int
	QueueSize       int
	WriteTimeout    time.Duration
	CheckOrigin     func(r *http.Request) bool
	Logger          *slog.Logger
	Metrics         *Metrics
	Tracer          trace.Tracer
}

func DefaultServerConfig(port int, html string) ServerConfig {
	return ServerConfig{
		Port:            port,
		HTML:            html,
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		QueueSize:       transport.DefaultQueueSize,
		CheckOrigin:     func(r *http.Request) bool { return true },
		Logger:          slog.Default(),
	}
}

// Server раздаёт текстовые сообщения множеству WebSocket клиентов в одной
// горутине. Весь ввод-вывод копится в фоне и применяется только внутри
// Update; методы Server нельзя вызывать конкурентно.
type Server struct {
	reactor  *transport.Reactor
	listener *transport.Listener
	registry *registry
	inbound  inbox

	handler ConnectionHandler
	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
	closed  bool
}

func NewServer(cfg ServerConfig, onConnect, onDisconnect func(Connection)) (*Server, error) {
	return NewServerWithHandler(cfg, HandlerFuncs{OnConnect: onConnect, OnDisconnect: onDisconnect})
}

func NewServerWithHandler(cfg ServerConfig, handler ConnectionHandler) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if cfg.Tracer == nil {
		cfg.Tracer = defaultTracer()
	}

	if handler == nil {
		handler = HandlerFuncs{}
	}

	reactor := transport.NewReactor(cfg.QueueSize)

	listener, err := transport.Listen(reactor, transport.ListenerConfig{
		Addr:            net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     cfg.CheckOrigin,
		Handler:         newRouter(cfg.HTML, cfg.Metrics),
		WriteTimeout:    cfg.WriteTimeout,
		Logger:          cfg.Logger,
	})
	if err != nil {
		reactor.Close()
		return nil, fmt.Errorf("failed to start server: %w", err)
	}

	cfg.Logger.Info("server listening", "addr", listener.Addr().String())

	return &Server{
		reactor:  reactor,
		listener: listener,
		registry: newRegistry(),
		handler:  handler,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		tracer:   cfg.Tracer,
	}, nil
}

// Update обрабатывает все уже завершившиеся операции (рукопожатия, чтения,
// записи) и сразу возвращается. Обычные HTTP запросы обслуживаются в фоне и
// от Update не зависят. Ошибка означает отказ транспорта целиком, а не
// отдельного соединения.
func (s *Server) Update() error {
	if s.closed {
		return ErrServerClosed
	}

	n, err := traceUpdate(s.tracer, "ws.Server.Update", func() (int, error) {
		return s.reactor.Poll(s.handleEvent)
	})

	s.metrics.updated(n)

	if err != nil {
		s.logger.Error("server update failed", "error", err)
		return fmt.Errorf("%w: %w", ErrTransportFailed, err)
	}

	return nil
}

// Receive возвращает все сообщения, прочитанные с прошлого вызова. Порядок
// сохраняется в пределах одного соединения.
func (s *Server) Receive() []Message {
	return s.inbound.drain()
}

// Send ставит сообщения в очереди их соединений. Сообщения для отключённых
// соединений молча отбрасываются.
func (s *Server) Send(messages []Message) {
	for _, msg := range messages {
		if ch, ok := s.registry.lookup(msg.Connection); ok {
			ch.send(msg.Text)
		}
	}
}

// Disconnect закрывает соединение и уведомляет обработчик. Повторный вызов
// и неизвестный идентификатор ничего не делают.
func (s *Server) Disconnect(c Connection) {
	s.drop(c, reasonExplicit, nil)
}

func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Len возвращает число зарегистрированных соединений.
func (s *Server) Len() int {
	return s.registry.len()
}

// Close останавливает приём и закрывает все соединения без уведомлений.
// После Close реестр пуст.
func (s *Server) Close() error {
	if s.closed {
		return nil
	}

	s.closed = true

	err := s.listener.Close()

	s.registry.removeAll(func(_ Connection, ch *channel) {
		ch.disconnect()
		s.metrics.disconnected(reasonServerClosed)
	})

	s.reactor.Close()

	return err
}

func (s *Server) handleEvent(ev transport.Event) error {
	switch ev.Kind {
	case transport.EventUpgraded:
		s.completeHandshake(ev.Conn)
	case transport.EventUpgradeFailed:
		s.failHandshake(ev.Err)
	case transport.EventRead:
		ch, ok := s.registry.lookup(Connection{ID: ev.Token})
		if !ok {
			return nil
		}

		if ch.read(ev.Data, ev.Err) {
			s.drop(ch.id, reasonReadError, ev.Err)
			return nil
		}

		s.metrics.received()
	case transport.EventWritten:
		ch, ok := s.registry.lookup(Connection{ID: ev.Token})
		if !ok {
			return nil
		}

		if ch.written(ev.Err) {
			s.drop(ch.id, reasonWriteError, ev.Err)
			return nil
		}

		s.metrics.sent()
	case transport.EventFatal:
		return ev.Err
	default:
		s.logger.Debug("unexpected transport event", "kind", ev.Kind.String())
	}

	return nil
}

func (s *Server) completeHandshake(conn *transport.Conn) {
	ch := newChannel(&s.inbound)
	id := s.registry.insert(ch)
	ch.activate(id, conn)
	s.metrics.connected()

	s.logger.Info("client connected", "connection", id.String(), "remote_addr", conn.RemoteAddr())

	s.handler.HandleConnect(id)
}

func (s *Server) failHandshake(err error) {
	s.metrics.handshakeFailed()

	s.logger.Warn("failed to upgrade connection", "error", err)
}

// drop переводит канал в отключённое состояние: закрывает транспорт, удаляет
// запись из реестра и только затем уведомляет обработчик, поэтому повторный
// вход из обработчика ничего не делает.
func (s *Server) drop(c Connection, reason string, cause error) {
	ch, ok := s.registry.remove(c)
	if !ok {
		return
	}

	ch.disconnect()
	s.metrics.disconnected(reason)

	if cause != nil && transport.IsUnexpectedClose(cause) {
		s.logger.Warn("connection error", "connection", c.String(), "reason", reason, "error", cause)
	}

	s.logger.Info("client disconnected", "connection", c.String(), "reason", reason)

	s.handler.HandleDisconnect(c)
}
