package settings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"kilnhouse/db"
	"kilnhouse/filemgr"
	"kilnhouse/gst"
	"kilnhouse/models"
	"kilnhouse/mq"
	"kilnhouse/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotConfigured is returned by Require when the studio has never saved
// its business profile.
var ErrNotConfigured = errors.New("business settings not configured")

// Defaults used until the studio fills in its profile.
func defaultSettings() models.BusinessSettings {
	return models.BusinessSettings{
		Key:           models.SettingsKey,
		TradeName:     "Kiln House",
		InvoicePrefix: "INV",
		UpdatedAt:     time.Now(),
	}
}

// Load returns the business settings, falling back to defaults when the
// singleton has not been created yet.
func Load(ctx context.Context) (*models.BusinessSettings, error) {
	var s models.BusinessSettings
	err := db.SettingsCollection.FindOne(ctx, bson.M{"key": models.SettingsKey}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		def := defaultSettings()
		return &def, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Require returns the saved business settings or ErrNotConfigured when no
// profile exists. Invoices must not be issued against defaults.
func Require(ctx context.Context) (*models.BusinessSettings, error) {
	var s models.BusinessSettings
	err := db.SettingsCollection.FindOne(ctx, bson.M{"key": models.SettingsKey}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotConfigured
	}
	if err != nil {
		return nil, err
	}
	if s.TradeName == "" || s.Address.Line1 == "" {
		return nil, ErrNotConfigured
	}
	return &s, nil
}

// GetBusinessSettings returns the full profile. Initializes the singleton on
// first read so the admin form always has a document to edit.
func GetBusinessSettings(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var s models.BusinessSettings
	err := db.SettingsCollection.FindOne(ctx, bson.M{"key": models.SettingsKey}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		s = defaultSettings()
		_, _ = db.SettingsCollection.InsertOne(ctx, s)
	} else if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch settings")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, s)
}

// UpdateBusinessSettings upserts the singleton from the request body.
func UpdateBusinessSettings(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var s models.BusinessSettings
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	if s.GSTIN != "" && !gst.ValidGSTIN(s.GSTIN) {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid GSTIN")
		return
	}
	if s.GSTIN != "" && s.StateCode == "" {
		s.StateCode = gst.StateCodeFromGSTIN(s.GSTIN)
	}
	if s.ShippingFee < 0 || s.FreeShipAbove < 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Shipping amounts cannot be negative")
		return
	}

	s.Key = models.SettingsKey
	s.UpdatedAt = time.Now()

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	opts := options.Update().SetUpsert(true)
	_, err := db.SettingsCollection.UpdateOne(ctx, bson.M{"key": models.SettingsKey}, bson.M{"$set": s}, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update settings")
		return
	}

	mq.Notify("settings-updated", models.Event{Kind: "settings", Title: "Business settings updated"})

	utils.RespondWithJSON(w, http.StatusOK, s)
}

// GetPublicSettings exposes the subset the storefront needs. No bank
// details and no GSTIN here.
func GetPublicSettings(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	s, err := Load(ctx)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch settings")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"trade_name":      s.TradeName,
		"address":         s.Address,
		"state":           s.State,
		"phone":           s.Phone,
		"email":           s.Email,
		"logo":            logoURL(s.Logo),
		"shipping_fee":    s.ShippingFee,
		"free_ship_above": s.FreeShipAbove,
	})
}

func logoURL(path string) string {
	if path == "" {
		return ""
	}
	return filemgr.PublicURL(filepath.ToSlash(path))
}

// UploadLogo stores a new logo file and records its path on the singleton.
func UploadLogo(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := r.ParseMultipartForm(5 << 20); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Unable to parse form")
		return
	}

	fileName, err := filemgr.SaveFormFile(r.MultipartForm, "logo", filemgr.EntityBusiness, filemgr.PicLogo, true)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Logo upload failed: "+err.Error())
		return
	}

	logoPath := filepath.Join(filemgr.ResolvePath(filemgr.EntityBusiness, filemgr.PicLogo), fileName)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	opts := options.Update().SetUpsert(true)
	_, err = db.SettingsCollection.UpdateOne(ctx,
		bson.M{"key": models.SettingsKey},
		bson.M{"$set": bson.M{"logo": logoPath, "updated_at": time.Now()}},
		opts,
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to save logo")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"logo": logoURL(logoPath)})
}
