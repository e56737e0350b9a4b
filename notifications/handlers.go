package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"kilnhouse/db"
	"kilnhouse/models"
	"kilnhouse/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetNotifications lists the admin feed, newest first. ?unread=true keeps
// only unread entries.
func GetNotifications(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	q := utils.ParseQueryOptions(r)
	filter := bson.M{}
	if r.URL.Query().Get("unread") == "true" {
		filter["read"] = false
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((q.Page - 1) * q.Limit)).
		SetLimit(int64(q.Limit))

	cur, err := db.NotificationsCollection.Find(ctx, filter, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch notifications")
		return
	}
	defer cur.Close(ctx)

	var list []models.AdminNotification
	if err := cur.All(ctx, &list); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to decode notifications")
		return
	}
	if list == nil {
		list = []models.AdminNotification{}
	}

	unread, _ := db.NotificationsCollection.CountDocuments(ctx, bson.M{"read": false})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"notifications": list,
		"unread":        unread,
	})
}

type markReadRequest struct {
	ID  string `json:"id,omitempty"`
	All bool   `json:"all,omitempty"`
}

// MarkRead marks a single entry, or the whole feed with {"all": true}.
func MarkRead(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req markReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if !req.All && req.ID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Provide an id or all")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	filter := bson.M{"read": false}
	if !req.All {
		filter = bson.M{"notificationid": req.ID}
	}

	res, err := db.NotificationsCollection.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update notifications")
		return
	}
	if !req.All && res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Notification not found")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"updated": res.ModifiedCount})
}
