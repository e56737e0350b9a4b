package workshops

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"kilnhouse/db"
	"kilnhouse/filemgr"
	"kilnhouse/models"
	"kilnhouse/mq"
	"kilnhouse/rdx"
	"kilnhouse/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const maxGSTRate = 28

// CreateWorkshop adds a bookable class. Slots are managed separately.
func CreateWorkshop(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "Unable to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	title := r.FormValue("title")
	if len(title) == 0 || len(title) > 100 {
		http.Error(w, "Title must be between 1 and 100 characters.", http.StatusBadRequest)
		return
	}
	price, err := utils.ParseFloat(r.FormValue("price"))
	if err != nil || price <= 0 {
		http.Error(w, "Invalid price value. Must be a positive number.", http.StatusBadRequest)
		return
	}
	gstRate, err := utils.ParseFloat(r.FormValue("gst_rate"))
	if err != nil || gstRate < 0 || gstRate > maxGSTRate {
		http.Error(w, "Invalid GST rate.", http.StatusBadRequest)
		return
	}

	userID := utils.GetUserIDFromRequest(r)

	workshop := models.Workshop{
		WorkshopID:  utils.GenerateID(14),
		Title:       title,
		Description: r.FormValue("description"),
		Price:       price,
		GSTRate:     gstRate,
		Duration:    r.FormValue("duration"),
		Location:    r.FormValue("location"),
		Active:      true,
		CreatedBy:   userID,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if files := r.MultipartForm.File["image"]; len(files) > 0 {
		file, err := files[0].Open()
		if err != nil {
			http.Error(w, "Error retrieving image file: "+err.Error(), http.StatusBadRequest)
			return
		}
		origName, thumbName, err := filemgr.SaveImageWithThumb(file, files[0], filemgr.EntityWorkshop, filemgr.PicPhoto, 300)
		if err != nil {
			http.Error(w, "Image upload failed: "+err.Error(), http.StatusBadRequest)
			return
		}
		workshop.Image = origName
		workshop.Thumb = thumbName
	}

	if _, err := db.WorkshopsCollection.InsertOne(context.TODO(), workshop); err != nil {
		http.Error(w, "Failed to insert workshop: "+err.Error(), http.StatusInternalServerError)
		return
	}

	go mq.Emit(context.Background(), "workshop-created", models.Event{
		Kind: "catalog", EntityType: "workshop", EntityID: workshop.WorkshopID, Title: workshop.Title,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"ok":      true,
		"message": "Workshop created successfully.",
		"data":    workshop,
	})
}

func GetWorkshops(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	q := utils.ParseQueryOptions(r)

	filter := bson.M{}
	if r.URL.Query().Get("all") != "true" {
		filter["active"] = true
	}
	if q.Search != "" {
		filter["title"] = bson.M{"$regex": q.Search, "$options": "i"}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((q.Page - 1) * q.Limit)).
		SetLimit(int64(q.Limit))

	cursor, err := db.WorkshopsCollection.Find(ctx, filter, opts)
	if err != nil {
		http.Error(w, "Failed to fetch workshops", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	var list []models.Workshop
	if err := cursor.All(ctx, &list); err != nil {
		http.Error(w, "Failed to decode workshops", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []models.Workshop{}
	}

	utils.RespondWithJSON(w, http.StatusOK, list)
}

func GetWorkshop(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	workshopID := ps.ByName("id")
	cacheKey := "workshop:" + workshopID

	if cached, err := rdx.RdxGet(cacheKey); err == nil && cached != "" {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(cached))
		return
	}

	var workshop models.Workshop
	err := db.WorkshopsCollection.FindOne(context.TODO(), bson.M{"workshopid": workshopID}).Decode(&workshop)
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Workshop not found")
		return
	}

	if workshopJSON, err := json.Marshal(workshop); err == nil {
		_ = rdx.SetWithExpiry(cacheKey, string(workshopJSON), 10*time.Minute)
	}

	utils.RespondWithJSON(w, http.StatusOK, workshop)
}

func EditWorkshop(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	workshopID := ps.ByName("id")

	var input struct {
		Title       *string  `json:"title"`
		Description *string  `json:"description"`
		Price       *float64 `json:"price"`
		GSTRate     *float64 `json:"gst_rate"`
		Duration    *string  `json:"duration"`
		Location    *string  `json:"location"`
		Active      *bool    `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid input data", http.StatusBadRequest)
		return
	}

	updateFields := bson.M{"updated_at": time.Now()}
	if input.Title != nil {
		if len(*input.Title) == 0 || len(*input.Title) > 100 {
			http.Error(w, "Title must be between 1 and 100 characters.", http.StatusBadRequest)
			return
		}
		updateFields["title"] = *input.Title
	}
	if input.Description != nil {
		updateFields["description"] = *input.Description
	}
	if input.Price != nil {
		if *input.Price <= 0 {
			http.Error(w, "Price must be positive.", http.StatusBadRequest)
			return
		}
		updateFields["price"] = *input.Price
	}
	if input.GSTRate != nil {
		if *input.GSTRate < 0 || *input.GSTRate > maxGSTRate {
			http.Error(w, "Invalid GST rate.", http.StatusBadRequest)
			return
		}
		updateFields["gst_rate"] = *input.GSTRate
	}
	if input.Duration != nil {
		updateFields["duration"] = *input.Duration
	}
	if input.Location != nil {
		updateFields["location"] = *input.Location
	}
	if input.Active != nil {
		updateFields["active"] = *input.Active
	}

	updateResult, err := db.WorkshopsCollection.UpdateOne(
		context.TODO(),
		bson.M{"workshopid": workshopID},
		bson.M{"$set": updateFields},
	)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to update workshop: %v", err), http.StatusInternalServerError)
		return
	}
	if updateResult.MatchedCount == 0 {
		http.Error(w, "Workshop not found", http.StatusNotFound)
		return
	}

	rdx.RdxDel("workshop:" + workshopID)

	go mq.Emit(context.Background(), "workshop-edited", models.Event{
		Kind: "catalog", EntityType: "workshop", EntityID: workshopID,
	})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Workshop updated successfully"})
}

// DeleteWorkshop refuses while live bookings reference the workshop, then
// removes its slots along with the document.
func DeleteWorkshop(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	workshopID := ps.ByName("id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	live, err := db.BookingsCollection.CountDocuments(ctx, bson.M{
		"entityType": "workshop",
		"entityId":   workshopID,
		"status":     bson.M{"$in": []string{models.BookingPending, models.BookingConfirmed}},
	})
	if err != nil {
		http.Error(w, "Failed to check bookings", http.StatusInternalServerError)
		return
	}
	if live > 0 {
		utils.RespondWithError(w, http.StatusConflict,
			fmt.Sprintf("Workshop has %d active bookings; cancel them first", live))
		return
	}

	deleteResult, err := db.WorkshopsCollection.DeleteOne(ctx, bson.M{"workshopid": workshopID})
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to delete workshop: %v", err), http.StatusInternalServerError)
		return
	}
	if deleteResult.DeletedCount == 0 {
		http.Error(w, "Workshop not found", http.StatusNotFound)
		return
	}

	// cascade: slots belong to the workshop
	if _, err := db.SlotsCollection.DeleteMany(ctx, bson.M{"entityType": "workshop", "entityId": workshopID}); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Workshop deleted but slot cleanup failed")
		return
	}

	rdx.RdxDel("workshop:" + workshopID)
	rdx.InvalidateAvailability("workshop", workshopID)

	go mq.Emit(context.Background(), "workshop-deleted", models.Event{
		Kind: "catalog", EntityType: "workshop", EntityID: workshopID,
	})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Workshop deleted successfully"})
}
