package booking

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"kilnhouse/notifications"
	"kilnhouse/rdx"
)

var hub *notifications.Hub

// Init hands the package the shared websocket hub. Called once from main
// before the router starts serving.
func Init(h *notifications.Hub) {
	hub = h
}

// BroadcastAvailability recomputes the availability snapshot of one listing,
// refreshes its cache, and pushes it to the listing's websocket room. Runs
// after every slot mutation and every capacity change.
func BroadcastAvailability(entityType, entityID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	avail, err := snapshot(ctx, entityType, entityID)
	if err != nil {
		log.Printf("availability snapshot %s/%s: %v", entityType, entityID, err)
		return
	}
	data, err := json.Marshal(avail)
	if err != nil {
		return
	}

	if err := rdx.CacheAvailability(entityType, entityID, string(data), availabilityTTL); err != nil {
		log.Printf("availability cache %s/%s: %v", entityType, entityID, err)
	}
	if hub != nil {
		hub.Broadcast(notifications.EntityRoom(entityType, entityID), data)
	}
}
