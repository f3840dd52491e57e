package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// ListenerConfig: Handler отвечает на запросы без Upgrade (по умолчанию 404),
// WriteTimeout ограничивает запись одного кадра (0 — без ограничения).
type ListenerConfig struct {
	Addr            string
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
	Handler         http.Handler
	WriteTimeout    time.Duration
	Logger          *slog.Logger
}

func DefaultListenerConfig(addr string) ListenerConfig {
	return ListenerConfig{
		Addr:            addr,
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     func(r *http.Request) bool { return true },
		Handler:         http.NotFoundHandler(),
		Logger:          slog.Default(),
	}
}

// Listener принимает TCP соединения: обычные HTTP запросы обслуживает сам,
// а успешные WebSocket рукопожатия передаёт в реактор событием EventUpgraded.
type Listener struct {
	reactor      *Reactor
	ln           net.Listener
	srv          *http.Server
	upgrader     websocket.Upgrader
	handler      http.Handler
	writeTimeout time.Duration
	logger       *slog.Logger
}

func Listen(r *Reactor, cfg ListenerConfig) (*Listener, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if cfg.Handler == nil {
		cfg.Handler = http.NotFoundHandler()
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}

	l := &Listener{
		reactor: r,
		ln:      ln,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     cfg.CheckOrigin,
		},
		handler:      cfg.Handler,
		writeTimeout: cfg.WriteTimeout,
		logger:       cfg.Logger,
	}

	l.srv = &http.Server{
		Handler:     http.HandlerFunc(l.serveHTTP),
		BaseContext: func(net.Listener) context.Context { return r.Context() },
		ErrorLog:    slog.NewLogLogger(cfg.Logger.Handler(), slog.LevelDebug),
	}

	go l.serve()

	return l, nil
}

func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

func (l *Listener) Close() error {
	return l.srv.Close()
}

func (l *Listener) serve() {
	err := l.srv.Serve(l.ln)
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return
	}

	l.reactor.post(Event{Kind: EventFatal, Err: fmt.Errorf("accept loop: %w", err)})
}

// serveHTTP выполняется в горутине запроса. Обычные запросы обслуживает
// handler прямо здесь, поэтому медленный HTTP клиент не задерживает Poll.
// Владельцу реактора публикуется только итог рукопожатия.
func (l *Listener) serveHTTP(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		l.handler.ServeHTTP(w, r)
		return
	}

	if l.reactor.Closed() {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}

	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.reactor.post(Event{Kind: EventUpgradeFailed, Err: err})
		return
	}

	l.reactor.post(Event{Kind: EventUpgraded, Conn: newConn(l.reactor, conn, l.writeTimeout)})
}
