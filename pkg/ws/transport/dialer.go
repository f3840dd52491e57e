package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/gorilla/websocket"
)

var ErrNoAddresses = errors.New("no addresses resolved")

// AsyncResolve разрешает имя хоста и публикует EventResolved со списком адресов.
func (r *Reactor) AsyncResolve(token uint64, host string) {
	go func() {
		addrs, err := net.DefaultResolver.LookupHost(r.ctx, host)
		if err == nil && len(addrs) == 0 {
			err = ErrNoAddresses
		}

		r.post(Event{Kind: EventResolved, Token: token, Addrs: addrs, Err: err})
	}()
}

// AsyncConnect пробует адреса по порядку и публикует EventConnected с первым
// установленным TCP соединением.
func (r *Reactor) AsyncConnect(token uint64, addrs []string, port string) {
	go func() {
		var (
			dialer net.Dialer
			conn   net.Conn
			err    error = ErrNoAddresses
		)

		for _, addr := range addrs {
			conn, err = dialer.DialContext(r.ctx, "tcp", net.JoinHostPort(addr, port))
			if err == nil {
				break
			}
		}

		if err != nil {
			r.post(Event{Kind: EventConnected, Token: token, Err: fmt.Errorf("connect: %w", err)})
			return
		}

		r.post(Event{Kind: EventConnected, Token: token, NetConn: conn})
	}()
}

// AsyncHandshake выполняет WebSocket рукопожатие поверх уже установленного
// соединения и публикует EventHandshaken.
func (r *Reactor) AsyncHandshake(token uint64, netConn net.Conn, u *url.URL) {
	go func() {
		dialer := websocket.Dialer{
			NetDialContext: func(context.Context, string, string) (net.Conn, error) {
				return netConn, nil
			},
		}

		ws, _, err := dialer.DialContext(r.ctx, u.String(), nil)
		if err != nil {
			_ = netConn.Close()
			r.post(Event{Kind: EventHandshaken, Token: token, Err: fmt.Errorf("handshake: %w", err)})

			return
		}

		r.post(Event{Kind: EventHandshaken, Token: token, Conn: newConn(r, ws, 0)})
	}()
}
