package ws

import "strconv"

// Connection идентифицирует активное соединение сервера. ID уникален среди
// живых соединений и не переиспользуется после их удаления.
type Connection struct {
	ID uint64
}

func (c Connection) String() string {
	return strconv.FormatUint(c.ID, 10)
}

func newConnection(index, generation uint32) Connection {
	return Connection{ID: uint64(generation)<<32 | uint64(index)}
}

func (c Connection) index() uint32 {
	return uint32(c.ID)
}

func (c Connection) generation() uint32 {
	return uint32(c.ID >> 32)
}

// Message — текст, полученный от соединения или адресованный ему.
type Message struct {
	Connection Connection
	Text       string
}
