package notifications

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"kilnhouse/db"
	"kilnhouse/middleware"
	"kilnhouse/models"
	"kilnhouse/rdx"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// AdminSocket streams studio events to back-office dashboards. Browsers
// cannot set an Authorization header on websockets, so the token rides in
// the query string.
func AdminSocket(hub *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		token := r.URL.Query().Get("token")
		claims, err := middleware.ParseToken(token)
		if err != nil || !middleware.HasRole(claims, "admin") {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		// logout drops the session from the token hash; refuse tokens that
		// are signed but no longer current
		if current, err := rdx.RdxHget("tokki", claims.UserID); err != nil || current != token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade:", err)
			return
		}
		client := &Client{
			Conn:   conn,
			Send:   make(chan []byte, 256),
			Room:   AdminRoom,
			UserID: claims.UserID,
		}

		// queue recent unread before the pumps start so a fresh dashboard
		// is not empty; the buffer comfortably holds the replay
		for _, n := range unreadHistory(30) {
			if data, err := json.Marshal(n); err == nil {
				client.Send <- data
			}
		}

		hub.register <- client
		go writePump(client)
		go readPump(client, hub)
	}
}

// AvailabilitySocket joins a storefront page to the availability room of one
// workshop or experience. No auth; the stream carries only spot counts.
// Clients fetch the current snapshot over REST first and then listen here.
func AvailabilitySocket(hub *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		entityType := ps.ByName("entityType")
		if entityType != "workshop" && entityType != "experience" {
			http.Error(w, "unknown entity type", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade:", err)
			return
		}
		client := &Client{
			Conn: conn,
			Send: make(chan []byte, 32),
			Room: EntityRoom(entityType, ps.ByName("entityId")),
		}

		hub.register <- client
		go writePump(client)
		go readPump(client, hub)
	}
}

// unreadHistory returns up to limit unread notifications, oldest first.
func unreadHistory(limit int64) []models.AdminNotification {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cur, err := db.NotificationsCollection.Find(ctx, bson.M{"read": false}, opts)
	if err != nil {
		log.Println("history find:", err)
		return nil
	}
	defer cur.Close(ctx)

	var history []models.AdminNotification
	if err := cur.All(ctx, &history); err != nil {
		log.Println("history decode:", err)
		return nil
	}
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}
	return history
}

func writePump(c *Client) {
	defer c.Conn.Close()
	for msg := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
}

// Dashboards only listen; reads just watch for the close.
func readPump(c *Client, hub *Hub) {
	defer func() {
		hub.unregister <- c
		c.Conn.Close()
	}()
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			break
		}
	}
}
