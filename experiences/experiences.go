package experiences

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
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

// parseIncludes accepts repeated "includes" form values and comma lists.
func parseIncludes(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func CreateExperience(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
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

	experience := models.Experience{
		ExperienceID: utils.GenerateID(14),
		Title:        title,
		Description:  r.FormValue("description"),
		Price:        price,
		GSTRate:      gstRate,
		Duration:     r.FormValue("duration"),
		Includes:     parseIncludes(r.MultipartForm.Value["includes"]),
		Active:       true,
		CreatedBy:    utils.GetUserIDFromRequest(r),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if files := r.MultipartForm.File["image"]; len(files) > 0 {
		file, err := files[0].Open()
		if err != nil {
			http.Error(w, "Error retrieving image file: "+err.Error(), http.StatusBadRequest)
			return
		}
		origName, thumbName, err := filemgr.SaveImageWithThumb(file, files[0], filemgr.EntityExperience, filemgr.PicPhoto, 300)
		if err != nil {
			http.Error(w, "Image upload failed: "+err.Error(), http.StatusBadRequest)
			return
		}
		experience.Image = origName
		experience.Thumb = thumbName
	}

	if _, err := db.ExperiencesCollection.InsertOne(context.TODO(), experience); err != nil {
		http.Error(w, "Failed to insert experience: "+err.Error(), http.StatusInternalServerError)
		return
	}

	go mq.Emit(context.Background(), "experience-created", models.Event{
		Kind: "catalog", EntityType: "experience", EntityID: experience.ExperienceID, Title: experience.Title,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"ok":      true,
		"message": "Experience created successfully.",
		"data":    experience,
	})
}

func GetExperiences(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
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

	cursor, err := db.ExperiencesCollection.Find(ctx, filter, opts)
	if err != nil {
		http.Error(w, "Failed to fetch experiences", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	var list []models.Experience
	if err := cursor.All(ctx, &list); err != nil {
		http.Error(w, "Failed to decode experiences", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []models.Experience{}
	}

	utils.RespondWithJSON(w, http.StatusOK, list)
}

func GetExperience(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	experienceID := ps.ByName("id")
	cacheKey := "experience:" + experienceID

	if cached, err := rdx.RdxGet(cacheKey); err == nil && cached != "" {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(cached))
		return
	}

	var experience models.Experience
	err := db.ExperiencesCollection.FindOne(context.TODO(), bson.M{"experienceid": experienceID}).Decode(&experience)
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Experience not found")
		return
	}

	if experienceJSON, err := json.Marshal(experience); err == nil {
		_ = rdx.SetWithExpiry(cacheKey, string(experienceJSON), 10*time.Minute)
	}

	utils.RespondWithJSON(w, http.StatusOK, experience)
}

func EditExperience(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	experienceID := ps.ByName("id")

	var input struct {
		Title       *string   `json:"title"`
		Description *string   `json:"description"`
		Price       *float64  `json:"price"`
		GSTRate     *float64  `json:"gst_rate"`
		Duration    *string   `json:"duration"`
		Includes    *[]string `json:"includes"`
		Active      *bool     `json:"active"`
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
	if input.Includes != nil {
		updateFields["includes"] = parseIncludes(*input.Includes)
	}
	if input.Active != nil {
		updateFields["active"] = *input.Active
	}

	updateResult, err := db.ExperiencesCollection.UpdateOne(
		context.TODO(),
		bson.M{"experienceid": experienceID},
		bson.M{"$set": updateFields},
	)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to update experience: %v", err), http.StatusInternalServerError)
		return
	}
	if updateResult.MatchedCount == 0 {
		http.Error(w, "Experience not found", http.StatusNotFound)
		return
	}

	rdx.RdxDel("experience:" + experienceID)

	go mq.Emit(context.Background(), "experience-edited", models.Event{
		Kind: "catalog", EntityType: "experience", EntityID: experienceID,
	})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Experience updated successfully"})
}

// DeleteExperience mirrors workshop deletion: live bookings block it and
// slots go with the document.
func DeleteExperience(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	experienceID := ps.ByName("id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	live, err := db.BookingsCollection.CountDocuments(ctx, bson.M{
		"entityType": "experience",
		"entityId":   experienceID,
		"status":     bson.M{"$in": []string{models.BookingPending, models.BookingConfirmed}},
	})
	if err != nil {
		http.Error(w, "Failed to check bookings", http.StatusInternalServerError)
		return
	}
	if live > 0 {
		utils.RespondWithError(w, http.StatusConflict,
			fmt.Sprintf("Experience has %d active bookings; cancel them first", live))
		return
	}

	deleteResult, err := db.ExperiencesCollection.DeleteOne(ctx, bson.M{"experienceid": experienceID})
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to delete experience: %v", err), http.StatusInternalServerError)
		return
	}
	if deleteResult.DeletedCount == 0 {
		http.Error(w, "Experience not found", http.StatusNotFound)
		return
	}

	if _, err := db.SlotsCollection.DeleteMany(ctx, bson.M{"entityType": "experience", "entityId": experienceID}); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Experience deleted but slot cleanup failed")
		return
	}

	rdx.RdxDel("experience:" + experienceID)
	rdx.InvalidateAvailability("experience", experienceID)

	go mq.Emit(context.Background(), "experience-deleted", models.Event{
		Kind: "catalog", EntityType: "experience", EntityID: experienceID,
	})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Experience deleted successfully"})
}
