package notifications

import (
	"testing"
	"time"
)

func TestHubRegisterBroadcastUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client := &Client{
		Send: make(chan []byte, 10),
		Room: AdminRoom,
	}

	hub.register <- client

	data := []byte(`{"kind":"booking","title":"hello test"}`)
	hub.broadcast <- broadcastMsg{Room: AdminRoom, Data: data}

	select {
	case got := <-client.Send:
		if string(got) != string(data) {
			t.Fatalf("expected %s, got %s", data, got)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for message")
	}

	hub.unregister <- client
}

func TestHubRoomIsolation(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	admin := &Client{Send: make(chan []byte, 10), Room: AdminRoom}
	watcher := &Client{Send: make(chan []byte, 10), Room: EntityRoom("workshop", "w1")}

	hub.register <- admin
	hub.register <- watcher

	hub.broadcast <- broadcastMsg{Room: EntityRoom("workshop", "w1"), Data: []byte("slots changed")}

	select {
	case got := <-watcher.Send:
		if string(got) != "slots changed" {
			t.Fatalf("unexpected payload %s", got)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for room message")
	}

	select {
	case got := <-admin.Send:
		t.Fatalf("admin room should not receive workshop traffic, got %s", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHubStopClosesClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := &Client{Send: make(chan []byte, 10), Room: AdminRoom}
	hub.register <- client

	hub.Stop()

	select {
	case _, open := <-client.Send:
		if open {
			t.Fatal("expected send channel to be closed")
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for close")
	}

	// broadcasting after Stop must not block
	done := make(chan struct{})
	go func() {
		hub.Broadcast(AdminRoom, []byte("late"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Broadcast blocked after Stop")
	}
}

func TestEntityRoom(t *testing.T) {
	if got := EntityRoom("workshop", "w42"); got != "workshop:w42" {
		t.Fatalf("unexpected room name %s", got)
	}
}
