package transport

import (
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const closeGracePeriod = time.Second

// Conn — асинхронная обёртка над WebSocket соединением. Одновременно допускается
// не более одного AsyncRead и одного AsyncWrite; за этим следит владелец.
type Conn struct {
	ws           *websocket.Conn
	reactor      *Reactor
	writeTimeout time.Duration
	once         sync.Once
}

func newConn(r *Reactor, ws *websocket.Conn, writeTimeout time.Duration) *Conn {
	return &Conn{ws: ws, reactor: r, writeTimeout: writeTimeout}
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.ws.RemoteAddr()
}

// AsyncRead читает один кадр и публикует EventRead с данными или ошибкой.
func (c *Conn) AsyncRead(token uint64) {
	go func() {
		_, data, err := c.ws.ReadMessage()
		c.reactor.post(Event{Kind: EventRead, Token: token, Data: data, Err: err})
	}()
}

// AsyncWrite отправляет payload текстовым кадром и публикует EventWritten.
// Пир, который не читает дольше writeTimeout, получает ошибку записи.
func (c *Conn) AsyncWrite(token uint64, payload []byte) {
	go func() {
		if c.writeTimeout > 0 {
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
		}

		err := c.ws.WriteMessage(websocket.TextMessage, payload)
		c.reactor.post(Event{Kind: EventWritten, Token: token, Err: err})
	}()
}

// Close идемпотентен и не блокирует: кадр закрытия отправляется в фоне,
// после чего сокет закрывается и ожидающие операции завершаются с ошибкой.
func (c *Conn) Close() error {
	c.once.Do(func() {
		go func() {
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
			_ = c.ws.Close()
		}()
	})

	return nil
}

// IsUnexpectedClose отделяет обрывы соединения и таймауты от штатного
// закрытия пиром.
func IsUnexpectedClose(err error) bool {
	return err != nil && !websocket.IsCloseError(
		err,
		websocket.CloseGoingAway,
		websocket.CloseNormalClosure,
	)
}
