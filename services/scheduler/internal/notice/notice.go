// Package notice carries transient operator notices from the service layer to
// whoever is watching. A Bus lives as long as the process that created it.
package notice

import (
	"sync"
	"time"

	"github.com/diagnosis/demo-scheduler/pkg/logger"
	"github.com/google/uuid"
)

type Level string

const (
	Info    Level = "info"
	Success Level = "success"
	Error   Level = "error"
)

type Notice struct {
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id,omitempty"`
	At        time.Time `json:"at"`
}

// Emitter is the write side handed to code that raises notices.
type Emitter interface {
	Emit(level Level, message, requestID string)
}

type subscriber struct {
	id   string
	send chan Notice
}

type Bus struct {
	mu     sync.RWMutex
	subs   map[string]*subscriber
	buffer int
	now    func() time.Time
}

func NewBus(buffer int) *Bus {
	if buffer < 1 {
		buffer = 16
	}
	return &Bus{subs: make(map[string]*subscriber), buffer: buffer, now: time.Now}
}

// Subscribe returns a channel of notices and a cancel func that closes it.
func (b *Bus) Subscribe() (<-chan Notice, func()) {
	s := &subscriber{id: uuid.NewString(), send: make(chan Notice, b.buffer)}

	b.mu.Lock()
	b.subs[s.id] = s
	b.mu.Unlock()

	var once sync.Once
	return s.send, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, s.id)
			b.mu.Unlock()
			close(s.send)
		})
	}
}

// Publish never blocks. A subscriber whose buffer is full misses the notice.
func (b *Bus) Publish(n Notice) {
	if n.At.IsZero() {
		n.At = b.now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs {
		select {
		case s.send <- n:
		default:
			logger.Warn("Dropped notice for slow subscriber", "subscriber", s.id, "level", n.Level)
		}
	}
}

func (b *Bus) Emit(level Level, message, requestID string) {
	b.Publish(Notice{Level: level, Message: message, RequestID: requestID})
}

func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

var _ Emitter = (*Bus)(nil)
