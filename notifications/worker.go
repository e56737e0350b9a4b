package notifications

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"kilnhouse/db"
	"kilnhouse/models"
	"kilnhouse/mq"
	"kilnhouse/rdx"
	"kilnhouse/utils"
)

// StartWorker consumes events published by mq.Emit, persists the ones the
// studio team should act on, and pushes them to connected dashboards.
// Returns once the subscription is set up; stops when ctx is done.
func StartWorker(ctx context.Context, hub *Hub) {
	sub := rdx.Conn.Subscribe(ctx, mq.NotifyChannel)
	ch := sub.Channel()

	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				handleEvent(hub, []byte(msg.Payload))
			}
		}
	}()
}

// Kinds that warrant a persistent entry in the admin feed. Catalog edits
// and other chatter are broadcast-only at most.
func persistable(kind string) bool {
	switch kind {
	case "booking", "order", "custom_order", "payment", "invoice":
		return true
	}
	return false
}

func handleEvent(hub *Hub, payload []byte) {
	var ev models.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		log.Println("notifications: bad payload:", err)
		return
	}
	if !persistable(ev.Kind) {
		return
	}

	n := models.AdminNotification{
		NotificationID: utils.GenerateID(14),
		Kind:           ev.Kind,
		EntityType:     ev.EntityType,
		EntityID:       ev.EntityID,
		Title:          ev.Title,
		Body:           ev.Body,
		Read:           false,
		CreatedAt:      time.Now(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.NotificationsCollection.InsertOne(ctx, n); err != nil {
		log.Println("notifications: insert:", err)
	}

	if data, err := json.Marshal(n); err == nil {
		hub.Broadcast(AdminRoom, data)
	}
}
