package main

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/LLIEPJIOK/stnet/pkg/ws"
)

const (
	commandQuit     = "quit"
	commandShutdown = "shutdown"
)

// chatRoom отслеживает подключённых клиентов и рассылает им общий журнал.
type chatRoom struct {
	clients []ws.Connection
	logger  *slog.Logger
}

func newChatRoom(logger *slog.Logger) *chatRoom {
	return &chatRoom{logger: logger}
}

func (r *chatRoom) HandleConnect(c ws.Connection) {
	r.logger.Info("new connection found", "connection", c.String())
	r.clients = append(r.clients, c)
}

func (r *chatRoom) HandleDisconnect(c ws.Connection) {
	r.logger.Info("connection lost", "connection", c.String())
	r.clients = slices.DeleteFunc(r.clients, func(other ws.Connection) bool { return other == c })
}

type disconnecter interface {
	Disconnect(c ws.Connection)
}

// processMessages выполняет команды "quit" и "shutdown", остальные сообщения
// складывает в журнал вида "<id>> <text>".
func processMessages(d disconnecter, incoming []ws.Message) (string, bool) {
	var (
		log      strings.Builder
		shutdown bool
	)

	for _, msg := range incoming {
		switch msg.Text {
		case commandQuit:
			d.Disconnect(msg.Connection)
		case commandShutdown:
			shutdown = true
		default:
			log.WriteString(msg.Connection.String())
			log.WriteString("> ")
			log.WriteString(msg.Text)
			log.WriteString("\n")
		}
	}

	return log.String(), shutdown
}

func (r *chatRoom) buildOutgoing(log string) []ws.Message {
	if log == "" {
		return nil
	}

	outgoing := make([]ws.Message, 0, len(r.clients))
	for _, c := range r.clients {
		outgoing = append(outgoing, ws.Message{Connection: c, Text: log})
	}

	return outgoing
}
