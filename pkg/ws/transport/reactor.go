// Package transport реализует асинхронный транспорт поверх gorilla/websocket:
// фоновые горутины выполняют блокирующий ввод-вывод и публикуют завершения
// в очередь Reactor, а владелец очереди обрабатывает их в своей горутине
// через Poll.
package transport

import (
	"context"
	"errors"
	"net"
	"sync"
)

var (
	ErrClosed = errors.New("reactor closed")
)

const DefaultQueueSize = 1024

type EventKind uint8

const (
	EventUpgraded EventKind = iota + 1
	EventUpgradeFailed
	EventResolved
	EventConnected
	EventHandshaken
	EventRead
	EventWritten
	EventFatal
)

var eventKindNames = map[EventKind]string{
	EventUpgraded:      "upgraded",
	EventUpgradeFailed: "upgrade_failed",
	EventResolved:      "resolved",
	EventConnected:     "connected",
	EventHandshaken:    "handshaken",
	EventRead:          "read",
	EventWritten:       "written",
	EventFatal:         "fatal",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}

	return "unknown"
}

// Event — завершение одной асинхронной операции. Token — значение, с которым
// операция была запущена; по нему владелец находит адресата.
type Event struct {
	Kind    EventKind
	Token   uint64
	Conn    *Conn
	NetConn net.Conn
	Addrs   []string
	Data    []byte
	Err     error
}

func (ev Event) release() {
	if ev.Conn != nil {
		_ = ev.Conn.Close()
	}

	if ev.NetConn != nil {
		_ = ev.NetConn.Close()
	}
}

type Reactor struct {
	events chan Event
	ctx    context.Context
	cancel context.CancelFunc

	// mu упорядочивает публикацию и закрытие: после Close в очереди не
	// остаётся событий с неосвобождёнными сокетами.
	mu     sync.RWMutex
	closed bool
}

func NewReactor(queueSize int) *Reactor {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Reactor{
		events: make(chan Event, queueSize),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Poll обрабатывает все готовые события, не дожидаясь новых. Ошибка fn
// прерывает обход и возвращается вызывающему.
func (r *Reactor) Poll(fn func(Event) error) (int, error) {
	if r.Closed() {
		return 0, ErrClosed
	}

	handled := 0

	for {
		select {
		case ev := <-r.events:
			handled++

			if err := fn(ev); err != nil {
				return handled, err
			}
		default:
			return handled, nil
		}
	}
}

func (r *Reactor) Context() context.Context {
	return r.ctx
}

func (r *Reactor) Closed() bool {
	return r.ctx.Err() != nil
}

// Close перестаёт принимать события. Незавершённые операции сами освобождают
// свои сокеты, если опубликовать результат уже нельзя.
func (r *Reactor) Close() {
	r.cancel()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true

	for {
		select {
		case ev := <-r.events:
			ev.release()
		default:
			return
		}
	}
}

func (r *Reactor) post(ev Event) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		ev.release()
		return false
	}

	select {
	case r.events <- ev:
		return true
	case <-r.ctx.Done():
		ev.release()
		return false
	}
}
