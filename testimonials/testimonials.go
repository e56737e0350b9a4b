// Package testimonials manages the customer video wall: uploads land
// unapproved and only approved clips reach the storefront.
package testimonials

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"kilnhouse/db"
	"kilnhouse/filemgr"
	"kilnhouse/models"
	"kilnhouse/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateTestimonial stores a clip either from an uploaded file or an
// external URL.
func CreateTestimonial(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := r.ParseMultipartForm(100 << 20); err != nil {
		http.Error(w, "Unable to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.FormValue("customer_name"))
	if name == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "A customer name is required")
		return
	}

	videoURL := strings.TrimSpace(r.FormValue("video_url"))
	if fileName, err := filemgr.SaveFormFile(r.MultipartForm, "video", filemgr.EntityTestimonial, filemgr.PicVideo, false); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Video upload failed: "+err.Error())
		return
	} else if fileName != "" {
		rel := filepath.Join(filemgr.ResolvePath(filemgr.EntityTestimonial, filemgr.PicVideo), fileName)
		videoURL = filemgr.PublicURL(filepath.ToSlash(rel))
	}
	if videoURL == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Provide a video file or a video URL")
		return
	}

	sortOrder, _ := utils.ParseInt(r.FormValue("sort_order"))

	testimonial := models.VideoTestimonial{
		TestimonialID: utils.GenerateID(14),
		CustomerName:  name,
		VideoURL:      videoURL,
		Caption:       r.FormValue("caption"),
		Approved:      false,
		SortOrder:     sortOrder,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := db.TestimonialsCollection.InsertOne(ctx, testimonial); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to save testimonial")
		return
	}

	utils.SendResponse(w, http.StatusCreated, testimonial, "Testimonial added. Approve it to publish.", nil)
}

// GetTestimonials serves the storefront wall: approved clips in sort order.
func GetTestimonials(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "sort_order", Value: 1}, {Key: "created_at", Value: -1}})
	cur, err := db.TestimonialsCollection.Find(ctx, bson.M{"approved": true}, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch testimonials")
		return
	}
	defer cur.Close(ctx)

	var testimonials []models.VideoTestimonial
	if err := cur.All(ctx, &testimonials); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to decode testimonials")
		return
	}
	if testimonials == nil {
		testimonials = []models.VideoTestimonial{}
	}

	utils.RespondWithJSON(w, http.StatusOK, testimonials)
}

// GetAllTestimonials lists everything, including unapproved, for the back
// office.
func GetAllTestimonials(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := db.TestimonialsCollection.Find(ctx, bson.M{}, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch testimonials")
		return
	}
	defer cur.Close(ctx)

	var testimonials []models.VideoTestimonial
	if err := cur.All(ctx, &testimonials); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to decode testimonials")
		return
	}
	if testimonials == nil {
		testimonials = []models.VideoTestimonial{}
	}

	utils.RespondWithJSON(w, http.StatusOK, testimonials)
}

// EditTestimonial updates caption, approval or ordering.
func EditTestimonial(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	testimonialID := ps.ByName("id")

	var input struct {
		CustomerName *string `json:"customer_name"`
		Caption      *string `json:"caption"`
		Approved     *bool   `json:"approved"`
		SortOrder    *int    `json:"sort_order"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updateFields := bson.M{"updated_at": time.Now()}
	if input.CustomerName != nil {
		if strings.TrimSpace(*input.CustomerName) == "" {
			utils.RespondWithError(w, http.StatusBadRequest, "Customer name cannot be empty")
			return
		}
		updateFields["customer_name"] = strings.TrimSpace(*input.CustomerName)
	}
	if input.Caption != nil {
		updateFields["caption"] = *input.Caption
	}
	if input.Approved != nil {
		updateFields["approved"] = *input.Approved
	}
	if input.SortOrder != nil {
		updateFields["sort_order"] = *input.SortOrder
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := db.TestimonialsCollection.UpdateOne(ctx,
		bson.M{"testimonialid": testimonialID},
		bson.M{"$set": updateFields},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update testimonial")
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Testimonial not found")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Testimonial updated"})
}

func DeleteTestimonial(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := db.TestimonialsCollection.DeleteOne(ctx, bson.M{"testimonialid": ps.ByName("id")})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to delete testimonial")
		return
	}
	if res.DeletedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Testimonial not found")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Testimonial deleted"})
}
