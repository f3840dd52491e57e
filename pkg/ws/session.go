package ws

import (
	"log/slog"
	"net"
	"net/url"
	"strings"

	"github.com/LLIEPJIOK/stnet/pkg/ws/transport"
)

type sessionState uint8

const (
	sessionResolving sessionState = iota
	sessionConnecting
	sessionHandshaking
	sessionOpen
	sessionClosed
)

var sessionStateNames = [...]string{
	sessionResolving:   "resolving",
	sessionConnecting:  "connecting",
	sessionHandshaking: "handshaking",
	sessionOpen:        "open",
	sessionClosed:      "closed",
}

func (s sessionState) String() string {
	return sessionStateNames[s]
}

// У клиента ровно одна сессия, поэтому токен операций постоянный.
const sessionToken uint64 = 1

// session — клиентский аналог channel: resolve → connect → handshake →
// бесконечный цикл чтения. Любая ошибка на любом шаге окончательно переводит
// сессию в sessionClosed.
type session struct {
	state    sessionState
	reactor  *transport.Reactor
	conn     *transport.Conn
	host     string
	port     string
	target   *url.URL
	incoming strings.Builder
	outbound [][]byte
	logger   *slog.Logger
}

func newSession(r *transport.Reactor, host, port, path string, logger *slog.Logger) *session {
	if path == "" {
		path = "/"
	}

	return &session{
		state:   sessionResolving,
		reactor: r,
		host:    host,
		port:    port,
		target: &url.URL{
			Scheme: "ws",
			Host:   net.JoinHostPort(host, port),
			Path:   path,
		},
		logger: logger,
	}
}

func (s *session) start() {
	s.logger.Info("connecting to server", slog.String("url", s.target.String()))
	s.reactor.AsyncResolve(sessionToken, s.host)
}

func (s *session) handleEvent(ev transport.Event) error {
	switch ev.Kind {
	case transport.EventResolved:
		if s.state != sessionResolving {
			return nil
		}

		if ev.Err != nil {
			s.fail("resolve", ev.Err)
			return nil
		}

		s.state = sessionConnecting
		s.reactor.AsyncConnect(sessionToken, ev.Addrs, s.port)
	case transport.EventConnected:
		if s.state != sessionConnecting {
			if ev.NetConn != nil {
				_ = ev.NetConn.Close()
			}

			return nil
		}

		if ev.Err != nil {
			s.fail("connect", ev.Err)
			return nil
		}

		s.state = sessionHandshaking
		s.reactor.AsyncHandshake(sessionToken, ev.NetConn, s.target)
	case transport.EventHandshaken:
		if s.state != sessionHandshaking {
			if ev.Conn != nil {
				_ = ev.Conn.Close()
			}

			return nil
		}

		if ev.Err != nil {
			s.fail("handshake", ev.Err)
			return nil
		}

		s.open(ev.Conn)
	case transport.EventRead:
		if s.state != sessionOpen {
			return nil
		}

		if ev.Err != nil {
			s.fail("read", ev.Err)
			return nil
		}

		s.incoming.Write(ev.Data)
		s.conn.AsyncRead(sessionToken)
	case transport.EventWritten:
		if s.state != sessionOpen {
			return nil
		}

		if ev.Err != nil {
			s.fail("write", ev.Err)
			return nil
		}

		s.outbound[0] = nil
		s.outbound = s.outbound[1:]

		if len(s.outbound) > 0 {
			s.conn.AsyncWrite(sessionToken, s.outbound[0])
		}
	}

	return nil
}

// open запускает цикл чтения и отправляет то, что накопилось до рукопожатия.
func (s *session) open(conn *transport.Conn) {
	s.state = sessionOpen
	s.conn = conn

	s.logger.Info("connected to server", "url", s.target.String())

	conn.AsyncRead(sessionToken)

	if len(s.outbound) > 0 {
		conn.AsyncWrite(sessionToken, s.outbound[0])
	}
}

func (s *session) send(text string) {
	if s.state == sessionClosed || text == "" {
		return
	}

	s.outbound = append(s.outbound, []byte(text))
	if s.state == sessionOpen && len(s.outbound) == 1 {
		s.conn.AsyncWrite(sessionToken, s.outbound[0])
	}
}

func (s *session) receive() string {
	text := s.incoming.String()
	s.incoming.Reset()

	return text
}

func (s *session) fail(op string, err error) {
	if transport.IsUnexpectedClose(err) || op != "read" {
		s.logger.Warn("session failed", "op", op, "state", s.state.String(), "error", err)
	}

	s.close()
}

func (s *session) close() {
	if s.state == sessionClosed {
		return
	}

	s.state = sessionClosed
	s.outbound = nil

	if s.conn != nil {
		_ = s.conn.Close()
	}

	s.logger.Info("disconnected from server", "url", s.target.String())
}
