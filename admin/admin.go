// Package admin serves the back-office dashboard aggregates.
package admin

import (
	"context"
	"log"
	"net/http"
	"sort"
	"time"

	"kilnhouse/db"
	"kilnhouse/models"
	"kilnhouse/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type statusCount struct {
	Status string `bson:"_id"`
	Count  int64  `bson:"count"`
}

func countByStatus(ctx context.Context, coll *mongo.Collection) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   "$status",
			"count": bson.M{"$sum": 1},
		}}},
	}
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []statusCount
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// sumField totals one numeric field over documents matching the filter.
func sumField(ctx context.Context, coll *mongo.Collection, filter bson.M, field string) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$" + field},
		}}},
	}
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

type activityEntry struct {
	Kind   string    `json:"kind"`
	ID     string    `json:"id"`
	Title  string    `json:"title"`
	Status string    `json:"status"`
	Amount float64   `json:"amount,omitempty"`
	At     time.Time `json:"at"`
}

// recentActivity merges the latest orders, bookings and commission requests
// into one feed, newest first.
func recentActivity(ctx context.Context, limit int) ([]activityEntry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	var entries []activityEntry

	cursor, err := db.OrdersCollection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	for _, o := range orders {
		entries = append(entries, activityEntry{
			Kind:   "order",
			ID:     o.OrderID,
			Title:  o.Contact.Name,
			Status: o.Status,
			Amount: o.Total,
			At:     o.CreatedAt,
		})
	}

	cursor, err = db.BookingsCollection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, err
	}
	for _, b := range bookings {
		entries = append(entries, activityEntry{
			Kind:   "booking",
			ID:     b.BookingID,
			Title:  b.EntityTitle,
			Status: b.Status,
			Amount: b.Amount,
			At:     b.CreatedAt,
		})
	}

	cursor, err = db.CustomOrdersCollection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var requests []models.CustomOrderRequest
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	for _, c := range requests {
		entries = append(entries, activityEntry{
			Kind:   "custom_order",
			ID:     c.RequestID,
			Title:  c.Name,
			Status: c.Status,
			At:     c.CreatedAt,
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].At.After(entries[j].At) })
	if len(entries) > limit {
		entries = entries[:limit]
	}
	if entries == nil {
		entries = []activityEntry{}
	}
	return entries, nil
}

// GetDashboardStats returns the numbers the back-office landing page shows:
// status breakdowns, open work, and revenue from paid orders and bookings.
func GetDashboardStats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	orderCounts, err := countByStatus(ctx, db.OrdersCollection)
	if err != nil {
		log.Printf("dashboard order counts: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load dashboard stats")
		return
	}
	bookingCounts, err := countByStatus(ctx, db.BookingsCollection)
	if err != nil {
		log.Printf("dashboard booking counts: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load dashboard stats")
		return
	}

	pendingCustom, err := db.CustomOrdersCollection.CountDocuments(ctx, bson.M{
		"status": bson.M{"$in": []string{models.CustomNew, models.CustomReviewed, models.CustomQuoted}},
	})
	if err != nil {
		log.Printf("dashboard custom count: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load dashboard stats")
		return
	}

	unread, err := db.NotificationsCollection.CountDocuments(ctx, bson.M{"read": false})
	if err != nil {
		log.Printf("dashboard unread count: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load dashboard stats")
		return
	}

	// Cancelled and rejected rows are excluded: money either never arrived
	// or went back.
	orderRevenue, err := sumField(ctx, db.OrdersCollection, bson.M{
		"status": bson.M{"$in": []string{
			models.OrderConfirmed, models.OrderProcessing, models.OrderShipped, models.OrderDelivered,
		}},
	}, "total")
	if err != nil {
		log.Printf("dashboard order revenue: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load dashboard stats")
		return
	}
	bookingRevenue, err := sumField(ctx, db.BookingsCollection, bson.M{
		"status": bson.M{"$in": []string{models.BookingConfirmed, models.BookingCompleted}},
	}, "amount")
	if err != nil {
		log.Printf("dashboard booking revenue: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load dashboard stats")
		return
	}

	recent, err := recentActivity(ctx, 10)
	if err != nil {
		log.Printf("dashboard recent activity: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load dashboard stats")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"orders":               orderCounts,
		"bookings":             bookingCounts,
		"pending_custom":       pendingCustom,
		"unread_notifications": unread,
		"revenue": utils.M{
			"orders":   orderRevenue,
			"bookings": bookingRevenue,
			"total":    orderRevenue + bookingRevenue,
		},
		"recent": recent,
	})
}
