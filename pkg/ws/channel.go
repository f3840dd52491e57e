package ws

import "github.com/LLIEPJIOK/stnet/pkg/ws/transport"

type channelState uint8

const (
	channelHandshaking channelState = iota
	channelActive
	channelDisconnecting
)

// inbox — общая для всех каналов очередь входящих сообщений сервера.
type inbox struct {
	messages []Message
}

func (in *inbox) push(m Message) {
	in.messages = append(in.messages, m)
}

func (in *inbox) drain() []Message {
	out := in.messages
	in.messages = nil

	return out
}

// channel ведёт одно принятое соединение. Чтение перезапускается после
// каждого кадра, а запись ведётся строго по одной: следующий элемент очереди
// уходит только после завершения предыдущего.
type channel struct {
	id       Connection
	conn     *transport.Conn
	state    channelState
	inbound  *inbox
	outbound [][]byte
}

func newChannel(inbound *inbox) *channel {
	return &channel{state: channelHandshaking, inbound: inbound}
}

func (ch *channel) activate(id Connection, conn *transport.Conn) {
	ch.id = id
	ch.conn = conn
	ch.state = channelActive

	conn.AsyncRead(id.ID)
}

func (ch *channel) send(text string) {
	if ch.state != channelActive || text == "" {
		return
	}

	ch.outbound = append(ch.outbound, []byte(text))
	if len(ch.outbound) == 1 {
		ch.conn.AsyncWrite(ch.id.ID, ch.outbound[0])
	}
}

// written обрабатывает завершение записи. true означает, что канал нужно
// отключить.
func (ch *channel) written(err error) bool {
	if ch.state != channelActive {
		return false
	}

	if err != nil {
		return true
	}

	ch.outbound[0] = nil
	ch.outbound = ch.outbound[1:]

	if len(ch.outbound) > 0 {
		ch.conn.AsyncWrite(ch.id.ID, ch.outbound[0])
	}

	return false
}

// read обрабатывает завершение чтения. true означает, что канал нужно
// отключить.
func (ch *channel) read(data []byte, err error) bool {
	if ch.state != channelActive {
		return false
	}

	if err != nil {
		return true
	}

	ch.inbound.push(Message{Connection: ch.id, Text: string(data)})
	ch.conn.AsyncRead(ch.id.ID)

	return false
}

func (ch *channel) disconnect() bool {
	if ch.state != channelActive {
		return false
	}

	ch.state = channelDisconnecting
	ch.outbound = nil
	_ = ch.conn.Close()

	return true
}
