package ws

import (
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/LLIEPJIOK/stnet/pkg/ws/transport"
)

type ClientConfig struct {
	Address   string
	Port      string
	Path      string
	QueueSize int
	Logger    *slog.Logger
	Tracer    trace.Tracer
}

func DefaultClientConfig(address, port string) ClientConfig {
	return ClientConfig{
		Address:   address,
		Port:      port,
		Path:      "/",
		QueueSize: transport.DefaultQueueSize,
		Logger:    slog.Default(),
	}
}

// Client — однопоточный WebSocket клиент. Подключение начинается сразу при
// создании и продвигается вызовами Update. Повторных попыток нет: после
// отключения нужен новый Client.
type Client struct {
	reactor *transport.Reactor
	session *session
	logger  *slog.Logger
	tracer  trace.Tracer
	closed  bool
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if cfg.Tracer == nil {
		cfg.Tracer = defaultTracer()
	}

	reactor := transport.NewReactor(cfg.QueueSize)

	c := &Client{
		reactor: reactor,
		session: newSession(reactor, cfg.Address, cfg.Port, cfg.Path, cfg.Logger),
		logger:  cfg.Logger,
		tracer:  cfg.Tracer,
	}

	c.session.start()

	return c
}

// Update обрабатывает все уже завершившиеся операции и сразу возвращается.
func (c *Client) Update() error {
	if c.closed {
		return ErrClientClosed
	}

	_, err := traceUpdate(c.tracer, "ws.Client.Update", func() (int, error) {
		return c.reactor.Poll(c.session.handleEvent)
	})
	if err != nil {
		c.logger.Error("client update failed", "error", err)
		return fmt.Errorf("%w: %w", ErrTransportFailed, err)
	}

	return nil
}

// Send ставит текст в очередь отправки. Пустой текст и отправка после
// отключения игнорируются.
func (c *Client) Send(text string) {
	c.session.send(text)
}

// Receive возвращает склеенный текст всех кадров, полученных с прошлого вызова.
func (c *Client) Receive() string {
	return c.session.receive()
}

// Buffered возвращает число байт, ожидающих Receive.
func (c *Client) Buffered() int {
	return c.session.incoming.Len()
}

// Pending возвращает число сообщений, ещё не записанных в сокет, включая
// накопленные до завершения рукопожатия.
func (c *Client) Pending() int {
	return len(c.session.outbound)
}

func (c *Client) IsDisconnected() bool {
	return c.session.state == sessionClosed
}

func (c *Client) Close() error {
	if c.closed {
		return nil
	}

	c.closed = true
	c.session.close()
	c.reactor.Close()

	return nil
}
