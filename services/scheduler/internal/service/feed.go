package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/diagnosis/demo-scheduler/pkg/events"
	"github.com/diagnosis/demo-scheduler/pkg/logger"
)

const feedRefreshTimeout = 5 * time.Second

// Watch refreshes the board whenever another instance changes a request.
// The returned func unsubscribes.
func (s *Scheduler) Watch(sub events.Subscriber) (func() error, error) {
	return sub.Subscribe(events.RequestsAll, func(msg *events.Message) {
		var ev events.RequestChangedEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			logger.Warn("Malformed demo request event", "subject", msg.Subject, "error", err)
		} else if ev.Origin == s.origin {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), feedRefreshTimeout)
		defer cancel()
		if err := s.Refresh(ctx); err != nil {
			logger.Error("Failed to refresh board from change feed", "error", err, "subject", msg.Subject)
			return
		}
		logger.Debug("Board refreshed from change feed", "subject", msg.Subject, "request_id", ev.RequestID)
	})
}
