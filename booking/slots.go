package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"kilnhouse/db"
	"kilnhouse/models"
	"kilnhouse/rdx"
	"kilnhouse/slots"
	"kilnhouse/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const availabilityTTL = 2 * time.Minute

func loadSlots(ctx context.Context, entityType, entityID string) ([]models.Slot, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}})
	cur, err := db.SlotsCollection.Find(ctx, bson.M{"entityType": entityType, "entityId": entityID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []models.Slot
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// snapshot builds the grouped availability view; past dates are dropped.
func snapshot(ctx context.Context, entityType, entityID string) (slots.Availability, error) {
	docs, err := loadSlots(ctx, entityType, entityID)
	if err != nil {
		return slots.Availability{}, err
	}

	today := time.Now().Format("2006-01-02")
	flat := make([]slots.Slot, 0, len(docs))
	for _, d := range docs {
		if d.Date < today {
			continue
		}
		flat = append(flat, slots.Slot{Date: d.Date, Time: d.Time, MaxSpots: d.MaxSpots, Booked: d.Booked})
	}
	return slots.Group(flat), nil
}

// GetAvailability serves the storefront calendar for one listing.
func GetAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	entityType := ps.ByName("entityType")
	entityID := ps.ByName("entityId")
	if !validEntityType(entityType) {
		utils.RespondWithError(w, http.StatusBadRequest, "Unknown entity type")
		return
	}

	if cached, err := rdx.GetCachedAvailability(entityType, entityID); err == nil && cached != "" {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(cached))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	avail, err := snapshot(ctx, entityType, entityID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load availability")
		return
	}

	if data, err := json.Marshal(avail); err == nil {
		_ = rdx.CacheAvailability(entityType, entityID, string(data), availabilityTTL)
	}

	utils.RespondWithJSON(w, http.StatusOK, avail)
}

// GetSlots returns the raw slot documents for the admin editor.
func GetSlots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	entityType := ps.ByName("entityType")
	entityID := ps.ByName("entityId")
	if !validEntityType(entityType) {
		utils.RespondWithError(w, http.StatusBadRequest, "Unknown entity type")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	docs, err := loadSlots(ctx, entityType, entityID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load slots")
		return
	}
	if docs == nil {
		docs = []models.Slot{}
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"slots": docs})
}

func slotKey(date, t string) string {
	return date + " " + t
}

// normalizeIncoming validates dates and times and dedupes repeat
// (date, time) rows, last one winning. Booked counts in the payload are
// ignored; the stored documents are the source of truth for those.
func normalizeIncoming(in []slots.Slot) ([]slots.Slot, error) {
	seen := make(map[string]int)
	out := make([]slots.Slot, 0, len(in))
	for _, s := range in {
		if _, err := time.Parse("2006-01-02", s.Date); err != nil {
			return nil, fmt.Errorf("invalid date %q", s.Date)
		}
		if _, err := time.Parse("15:04", s.Time); err != nil {
			return nil, fmt.Errorf("invalid time %q", s.Time)
		}
		if s.MaxSpots < 1 {
			return nil, fmt.Errorf("slot %s %s needs max_spots of at least 1", s.Date, s.Time)
		}
		if i, dup := seen[slotKey(s.Date, s.Time)]; dup {
			out[i] = s
			continue
		}
		seen[slotKey(s.Date, s.Time)] = len(out)
		out = append(out, s)
	}
	return out, nil
}

// replaceConflicts lists slots whose booked guests would be stranded by the
// incoming set: removed slots with bookings, or a max_spots cut below booked.
func replaceConflicts(existing []models.Slot, incoming []slots.Slot) []string {
	newMax := make(map[string]int, len(incoming))
	for _, s := range incoming {
		newMax[slotKey(s.Date, s.Time)] = s.MaxSpots
	}

	var conflicts []string
	for _, e := range existing {
		if e.Booked == 0 {
			continue
		}
		max, kept := newMax[slotKey(e.Date, e.Time)]
		if !kept {
			conflicts = append(conflicts, fmt.Sprintf("%s %s has %d booked guests and cannot be removed", e.Date, e.Time, e.Booked))
		} else if max < e.Booked {
			conflicts = append(conflicts, fmt.Sprintf("%s %s has %d booked guests; max_spots %d is too low", e.Date, e.Time, e.Booked, max))
		}
	}
	return conflicts
}

// ReplaceSlots swaps a listing's slot set for the posted one. The payload may
// be flat or grouped by date. Stored booked counts carry over; slots that
// still hold bookings cannot be dropped or shrunk below them.
func ReplaceSlots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	entityType := ps.ByName("entityType")
	entityID := ps.ByName("entityId")
	if !validEntityType(entityType) {
		utils.RespondWithError(w, http.StatusBadRequest, "Unknown entity type")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	// Parse treats garbage as "no slots", which on this endpoint would wipe
	// the set. Reject bad JSON outright; an explicit [] still clears.
	if len(body) > 0 && !json.Valid(body) {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	incoming, err := normalizeIncoming(slots.Parse(body))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if _, err := findListing(ctx, entityType, entityID); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Listing not found")
		return
	}

	existing, err := loadSlots(ctx, entityType, entityID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load slots")
		return
	}

	if conflicts := replaceConflicts(existing, incoming); len(conflicts) > 0 {
		utils.RespondWithJSON(w, http.StatusConflict, utils.M{
			"success":   false,
			"message":   "Some slots still hold bookings",
			"conflicts": conflicts,
		})
		return
	}

	existingByKey := make(map[string]models.Slot, len(existing))
	for _, e := range existing {
		existingByKey[slotKey(e.Date, e.Time)] = e
	}
	keep := make(map[string]bool, len(incoming))

	var inserted, updated, deleted int
	for _, s := range incoming {
		key := slotKey(s.Date, s.Time)
		keep[key] = true
		if old, ok := existingByKey[key]; ok {
			if old.MaxSpots == s.MaxSpots {
				continue
			}
			if _, err := db.SlotsCollection.UpdateOne(ctx,
				bson.M{"slotid": old.SlotID},
				bson.M{"$set": bson.M{"max_spots": s.MaxSpots}},
			); err != nil {
				utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update slot")
				return
			}
			updated++
			continue
		}
		doc := models.Slot{
			SlotID:     utils.GenerateID(12),
			EntityType: entityType,
			EntityID:   entityID,
			Date:       s.Date,
			Time:       s.Time,
			MaxSpots:   s.MaxSpots,
			Booked:     0,
			CreatedAt:  time.Now().Unix(),
		}
		if _, err := db.SlotsCollection.InsertOne(ctx, doc); err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to insert slot")
			return
		}
		inserted++
	}

	for key, old := range existingByKey {
		if keep[key] {
			continue
		}
		if _, err := db.SlotsCollection.DeleteOne(ctx, bson.M{"slotid": old.SlotID}); err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to delete slot")
			return
		}
		deleted++
	}

	go BroadcastAvailability(entityType, entityID)

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success": true,
		"message": "Slots updated",
		"data":    utils.M{"inserted": inserted, "updated": updated, "deleted": deleted},
	})
}
