// Package custorders takes commission enquiries from the storefront and
// walks them through review in the back office.
package custorders

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
	"kilnhouse/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SubmitRequest accepts a public enquiry. Multipart so a reference photo can
// ride along.
func SubmitRequest(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "Unable to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	description := strings.TrimSpace(r.FormValue("description"))
	if name == "" || !strings.Contains(email, "@") {
		utils.RespondWithError(w, http.StatusBadRequest, "A name and valid email are required")
		return
	}
	if len(description) < 10 {
		utils.RespondWithError(w, http.StatusBadRequest, "Please describe the piece in a few words")
		return
	}

	request := models.CustomOrderRequest{
		RequestID:   utils.GenerateID(14),
		Name:        name,
		Email:       email,
		Phone:       r.FormValue("phone"),
		Description: description,
		Budget:      r.FormValue("budget"),
		Timeline:    r.FormValue("timeline"),
		Status:      models.CustomNew,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if fileName, err := filemgr.SaveFormFile(r.MultipartForm, "reference", filemgr.EntityCustom, filemgr.PicPhoto, false); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Reference upload failed: "+err.Error())
		return
	} else if fileName != "" {
		request.Reference = fileName
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := db.CustomOrdersCollection.InsertOne(ctx, request); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to submit request")
		return
	}

	go mq.Emit(context.Background(), "custom-order-submitted", models.Event{
		Kind:     "custom_order",
		EntityID: request.RequestID,
		Title:    "Commission enquiry from " + request.Name,
		Body:     utils.TruncateText(request.Description, 120),
	})

	utils.SendResponse(w, http.StatusCreated, utils.M{"requestid": request.RequestID},
		"Thanks! We will get back to you about your piece.", nil)
}

// GetRequests lists enquiries for the back office.
func GetRequests(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := utils.ParseQueryOptions(r)

	filter := bson.M{}
	if v := r.URL.Query().Get("status"); v != "" {
		filter["status"] = v
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((q.Page - 1) * q.Limit)).
		SetLimit(int64(q.Limit))

	cur, err := db.CustomOrdersCollection.Find(ctx, filter, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch requests")
		return
	}
	defer cur.Close(ctx)

	var requests []models.CustomOrderRequest
	if err := cur.All(ctx, &requests); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to decode requests")
		return
	}
	if requests == nil {
		requests = []models.CustomOrderRequest{}
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"requests": requests})
}

func GetRequest(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var request models.CustomOrderRequest
	err := db.CustomOrdersCollection.FindOne(context.TODO(), bson.M{"requestid": ps.ByName("id")}).Decode(&request)
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Request not found")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, request)
}

// UpdateRequestStatus moves an enquiry along review, optionally attaching a
// note (the quote usually lives there).
func UpdateRequestStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := ps.ByName("id")

	var body struct {
		Status    string  `json:"status"`
		AdminNote *string `json:"admin_note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !models.ValidCustomOrderStatus(body.Status) {
		utils.RespondWithError(w, http.StatusBadRequest, "Unknown status "+body.Status)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var request models.CustomOrderRequest
	if err := db.CustomOrdersCollection.FindOne(ctx, bson.M{"requestid": requestID}).Decode(&request); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Request not found")
		return
	}
	if !models.CanTransitionCustomOrder(request.Status, body.Status) {
		utils.RespondWithError(w, http.StatusConflict,
			fmt.Sprintf("Cannot move request from %s to %s", request.Status, body.Status))
		return
	}

	updateFields := bson.M{"status": body.Status, "updated_at": time.Now()}
	if body.AdminNote != nil {
		updateFields["admin_note"] = *body.AdminNote
	}
	if reviewer := utils.GetUsernameFromRequest(r); reviewer != "" {
		updateFields["reviewed_by"] = reviewer
	}

	if _, err := db.CustomOrdersCollection.UpdateOne(ctx,
		bson.M{"requestid": requestID, "status": request.Status},
		bson.M{"$set": updateFields},
	); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update request")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Request updated", "status": body.Status})
}
