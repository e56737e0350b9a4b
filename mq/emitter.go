package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"kilnhouse/models"
	"kilnhouse/rdx"
)

// NotifyChannel is the Redis pub/sub channel the notification worker
// subscribes to. Emitters and the worker must agree on it.
const NotifyChannel = "notify-events"

// Notify logs an event without publishing it; used where losing the event
// is acceptable and Redis may not be up (tests, one-off scripts).
func Notify(eventName string, content models.Event) error {
	fmt.Println(eventName, "Notified", content)
	return nil
}

// Emit publishes a domain event to Redis for the notification worker.
func Emit(ctx context.Context, eventName string, content models.Event) {
	data, err := json.Marshal(content)
	if err != nil {
		log.Printf("[Emit] Failed to marshal event content: %v", err)
		return
	}

	if err := rdx.Conn.Publish(context.Background(), NotifyChannel, data).Err(); err != nil {
		log.Printf("[Emit] Failed to publish %s event to Redis: %v", eventName, err)
		return
	}
}
