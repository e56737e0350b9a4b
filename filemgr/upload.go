package filemgr

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"kilnhouse/db"
	"kilnhouse/models"
	"kilnhouse/mq"
	"kilnhouse/rdx"
	"kilnhouse/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type entityMeta struct {
	collection  *mongo.Collection
	keyField    string
	cachePrefix string
}

func getEntityMeta(entityType string) entityMeta {
	switch strings.ToLower(entityType) {
	case "product":
		return entityMeta{db.ProductsCollection, "productid", "product:"}
	case "workshop":
		return entityMeta{db.WorkshopsCollection, "workshopid", "workshop:"}
	case "experience":
		return entityMeta{db.ExperiencesCollection, "experienceid", "experience:"}
	default:
		return entityMeta{}
	}
}

// EditImage replaces the main image (and regenerated thumbnail) of a catalog
// entity. Admin only, enforced at the route.
func EditImage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	entityTypeStr := ps.ByName("entitytype")
	entityID := ps.ByName("entityid")

	meta := getEntityMeta(entityTypeStr)
	if meta.collection == nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Unsupported entity type")
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Unable to parse form")
		return
	}
	files := r.MultipartForm.File["image"]
	if len(files) == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "No image file uploaded")
		return
	}
	if !utils.ValidateImageFileType(w, files[0]) {
		return
	}
	file, err := files[0].Open()
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Unable to read image")
		return
	}

	origName, thumbName, err := SaveImageWithThumb(file, files[0], EntityType(entityTypeStr), PicPhoto, 300)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("Image upload failed: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	updateFields := bson.M{
		"image":      origName,
		"thumb":      thumbName,
		"updated_at": time.Now(),
	}
	res, err := meta.collection.UpdateOne(ctx, bson.M{meta.keyField: entityID}, bson.M{"$set": updateFields})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Error updating %s", entityTypeStr))
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, fmt.Sprintf("%s not found", entityTypeStr))
		return
	}

	if err := rdx.RdxDel(meta.cachePrefix + entityID); err != nil {
		log.Printf("Cache deletion failed for %s ID: %s. Error: %v", entityTypeStr, entityID, err)
	}

	go mq.Emit(context.Background(), fmt.Sprintf("%s-edited", entityTypeStr), models.Event{
		Kind:       "catalog",
		EntityType: entityTypeStr,
		EntityID:   entityID,
		Title:      fmt.Sprintf("%s image updated", entityTypeStr),
	})

	utils.RespondWithJSON(w, http.StatusOK, updateFields)
}
