package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/diagnosis/demo-scheduler/pkg/logger"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

// Subscribe returns an unsubscribe func.
type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) (func() error, error)
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	ID        string
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url,
		nats.Name("demo-scheduler"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) (func() error, error) {
	sub, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
			ID:        uuid.NewString(),
		})
	})
	if err != nil {
		return nil, err
	}
	return sub.Unsubscribe, nil
}

func (n *NATSEventBus) Close() error {
	return n.conn.Drain()
}

// Subjects for demo request changes. RequestsAll matches every one of them.
const (
	RequestCreated = "demo_request.created"
	RequestUpdated = "demo_request.updated"
	RequestDeleted = "demo_request.deleted"
	RequestsAll    = "demo_request.>"
)

// Origin names the publishing instance so it can skip its own events.
type RequestChangedEvent struct {
	RequestID  string    `json:"request_id"`
	Origin     string    `json:"origin,omitempty"`
	Status     string    `json:"status,omitempty"`
	Changes    []string  `json:"changes,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
