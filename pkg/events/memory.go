package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryEventBus delivers events in-process and synchronously. Used when no
// NATS url is configured and in tests.
type MemoryEventBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]memorySub
	closed bool
}

type memorySub struct {
	subject string
	handler func(msg *Message)
}

func NewMemoryEventBus() *MemoryEventBus {
	return &MemoryEventBus{subs: make(map[int]memorySub)}
}

func (b *MemoryEventBus) Publish(_ context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return fmt.Errorf("event bus closed")
	}
	var handlers []func(msg *Message)
	for _, s := range b.subs {
		if SubjectMatches(s.subject, subject) {
			handlers = append(handlers, s.handler)
		}
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(&Message{Subject: subject, Data: payload, Timestamp: time.Now(), ID: uuid.NewString()})
	}
	return nil
}

func (b *MemoryEventBus) Subscribe(subject string, handler func(msg *Message)) (func() error, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, fmt.Errorf("event bus closed")
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = memorySub{subject: subject, handler: handler}

	return func() error {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
		return nil
	}, nil
}

func (b *MemoryEventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = make(map[int]memorySub)
	return nil
}

// SubjectMatches applies NATS wildcard rules: "*" matches one token and a
// trailing ">" matches one or more.
func SubjectMatches(pattern, subject string) bool {
	pt := strings.Split(pattern, ".")
	st := strings.Split(subject, ".")
	for i, p := range pt {
		if p == ">" {
			return i == len(pt)-1 && len(st) > i
		}
		if i >= len(st) {
			return false
		}
		if p != "*" && p != st[i] {
			return false
		}
	}
	return len(pt) == len(st)
}

var (
	_ EventBus = (*NATSEventBus)(nil)
	_ EventBus = (*MemoryEventBus)(nil)
)
