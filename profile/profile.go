package profile

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"kilnhouse/db"
	"kilnhouse/gst"
	"kilnhouse/middleware"
	"kilnhouse/models"
	"kilnhouse/rdx"
	"kilnhouse/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

// GetProfile returns the authenticated user's own profile. Reads go through
// a Redis cache that EditProfile invalidates.
func GetProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	claims, err := middleware.ValidateJWT(r.Header.Get("Authorization"))
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if cachedJSON, err := GetCachedProfile(claims.Username); err == nil && cachedJSON != "" {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(cachedJSON))
		return
	}

	var user models.User
	err = db.UserCollection.FindOne(r.Context(), bson.M{"userid": claims.UserID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	profileJSON, err := json.Marshal(toProfileResponse(user))
	if err != nil {
		http.Error(w, "Failed to encode profile", http.StatusInternalServerError)
		return
	}
	_ = CacheProfile(claims.Username, string(profileJSON))

	w.Header().Set("Content-Type", "application/json")
	w.Write(profileJSON)
}

type editProfileRequest struct {
	Name        *string         `json:"name,omitempty"`
	PhoneNumber *string         `json:"phone_number,omitempty"`
	Address     *models.Address `json:"address,omitempty"`
	GSTIN       *string         `json:"gstin,omitempty"`
}

// EditProfile updates the caller's own contact fields. Only the fields in
// the body change.
func EditProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	claims, err := middleware.ValidateJWT(r.Header.Get("Authorization"))
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req editProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}

	updates := bson.M{"updated_at": time.Now()}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.PhoneNumber != nil {
		updates["phone_number"] = *req.PhoneNumber
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.GSTIN != nil {
		if *req.GSTIN != "" && !gst.ValidGSTIN(*req.GSTIN) {
			http.Error(w, "Invalid GSTIN", http.StatusBadRequest)
			return
		}
		updates["gstin"] = *req.GSTIN
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var user models.User
	err = db.UserCollection.FindOneAndUpdate(ctx,
		bson.M{"userid": claims.UserID},
		bson.M{"$set": updates},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to update profile", http.StatusInternalServerError)
		return
	}

	_ = InvalidateCachedProfile(claims.Username)

	utils.RespondWithJSON(w, http.StatusOK, toProfileResponse(user))
}

// ChangePassword verifies the current password before storing a new hash.
// Active refresh tokens are dropped, so other sessions must log in again.
func ChangePassword(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	claims, err := middleware.ValidateJWT(r.Header.Get("Authorization"))
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var input struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}
	if len(input.NewPassword) < 8 {
		http.Error(w, "Password must be at least 8 characters", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var user models.User
	if err := db.UserCollection.FindOne(ctx, bson.M{"userid": claims.UserID}).Decode(&user); err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.CurrentPassword)); err != nil {
		http.Error(w, "Current password is incorrect", http.StatusUnauthorized)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}

	_, err = db.UserCollection.UpdateOne(ctx,
		bson.M{"userid": claims.UserID},
		bson.M{
			"$set":   bson.M{"password": string(hashed), "updated_at": time.Now()},
			"$unset": bson.M{"refreshtoken": "", "refreshexp": ""},
		},
	)
	if err != nil {
		http.Error(w, "Failed to update password", http.StatusInternalServerError)
		return
	}

	utils.SendResponse(w, http.StatusOK, nil, "Password updated", nil)
}

func toProfileResponse(user models.User) models.UserProfileResponse {
	return models.UserProfileResponse{
		UserID:      user.UserID,
		Username:    user.Username,
		Name:        user.Name,
		Email:       user.Email,
		PhoneNumber: user.PhoneNumber,
		Address:     user.Address,
		GSTIN:       user.GSTIN,
	}
}

func CacheProfile(username string, profileJSON string) error {
	return rdx.SetWithExpiry("profile:"+username, profileJSON, 10*time.Minute)
}

func GetCachedProfile(username string) (string, error) {
	return rdx.RdxGet("profile:" + username)
}

func InvalidateCachedProfile(username string) error {
	return rdx.RdxDel("profile:" + username)
}
