package products

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

// CreateProduct adds a catalog item. Multipart so the photo can ride along.
func CreateProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "Unable to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	name := r.FormValue("name")
	if len(name) == 0 || len(name) > 100 {
		http.Error(w, "Name must be between 1 and 100 characters.", http.StatusBadRequest)
		return
	}
	price, err := utils.ParseFloat(r.FormValue("price"))
	if err != nil || price <= 0 {
		http.Error(w, "Invalid price value. Must be a positive number.", http.StatusBadRequest)
		return
	}
	stock, err := utils.ParseInt(r.FormValue("stock"))
	if err != nil || stock < 0 {
		http.Error(w, "Invalid stock value. Must be a non-negative integer.", http.StatusBadRequest)
		return
	}
	gstRate, err := utils.ParseFloat(r.FormValue("gst_rate"))
	if err != nil || gstRate < 0 || gstRate > maxGSTRate {
		http.Error(w, "Invalid GST rate.", http.StatusBadRequest)
		return
	}

	product := models.Product{
		ProductID:   utils.GenerateID(14),
		Name:        name,
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
		Price:       price,
		GSTRate:     gstRate,
		HSNCode:     r.FormValue("hsn_code"),
		Stock:       stock,
		Active:      true,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if files := r.MultipartForm.File["image"]; len(files) > 0 {
		file, err := files[0].Open()
		if err != nil {
			http.Error(w, "Error retrieving image file: "+err.Error(), http.StatusBadRequest)
			return
		}
		origName, thumbName, err := filemgr.SaveImageWithThumb(file, files[0], filemgr.EntityProduct, filemgr.PicPhoto, 300)
		if err != nil {
			http.Error(w, "Image upload failed: "+err.Error(), http.StatusBadRequest)
			return
		}
		product.Image = origName
		product.Thumb = thumbName
	}

	if _, err := db.ProductsCollection.InsertOne(context.TODO(), product); err != nil {
		http.Error(w, "Failed to insert product: "+err.Error(), http.StatusInternalServerError)
		return
	}

	go mq.Emit(context.Background(), "product-created", models.Event{
		Kind: "catalog", EntityType: "product", EntityID: product.ProductID, Title: product.Name,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"ok":      true,
		"message": "Product created successfully.",
		"data":    product,
	})
}

// GetProducts lists the catalog. Customers see active items; the admin
// panel passes ?all=true.
func GetProducts(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	q := utils.ParseQueryOptions(r)

	filter := bson.M{}
	if r.URL.Query().Get("all") != "true" {
		filter["active"] = true
	}
	if q.Category != "" {
		filter["category"] = q.Category
	}
	if q.Search != "" {
		filter["name"] = bson.M{"$regex": q.Search, "$options": "i"}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((q.Page - 1) * q.Limit)).
		SetLimit(int64(q.Limit))

	cursor, err := db.ProductsCollection.Find(ctx, filter, opts)
	if err != nil {
		http.Error(w, "Failed to fetch products", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	var list []models.Product
	if err := cursor.All(ctx, &list); err != nil {
		http.Error(w, "Failed to decode products", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []models.Product{}
	}

	utils.RespondWithJSON(w, http.StatusOK, list)
}

// GetProduct reads through a short-lived Redis cache.
func GetProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	productID := ps.ByName("id")
	cacheKey := "product:" + productID

	if cached, err := rdx.RdxGet(cacheKey); err == nil && cached != "" {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(cached))
		return
	}

	var product models.Product
	err := db.ProductsCollection.FindOne(context.TODO(), bson.M{"productid": productID}).Decode(&product)
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Product not found")
		return
	}

	if productJSON, err := json.Marshal(product); err == nil {
		_ = rdx.SetWithExpiry(cacheKey, string(productJSON), 10*time.Minute)
	}

	utils.RespondWithJSON(w, http.StatusOK, product)
}

// GetProductCategories returns the distinct categories in use.
func GetProductCategories(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	values, err := db.ProductsCollection.Distinct(ctx, "category", bson.M{"active": true, "category": bson.M{"$ne": ""}})
	if err != nil {
		http.Error(w, "Failed to fetch categories", http.StatusInternalServerError)
		return
	}

	categories := []string{}
	for _, v := range values {
		if s, ok := v.(string); ok {
			categories = append(categories, s)
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, categories)
}

// EditProduct applies a partial update from a JSON body.
func EditProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	productID := ps.ByName("id")

	var input struct {
		Name        *string  `json:"name"`
		Description *string  `json:"description"`
		Category    *string  `json:"category"`
		Price       *float64 `json:"price"`
		GSTRate     *float64 `json:"gst_rate"`
		HSNCode     *string  `json:"hsn_code"`
		Stock       *int     `json:"stock"`
		Active      *bool    `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid input data", http.StatusBadRequest)
		return
	}

	updateFields := bson.M{"updated_at": time.Now()}
	if input.Name != nil {
		if len(*input.Name) == 0 || len(*input.Name) > 100 {
			http.Error(w, "Name must be between 1 and 100 characters.", http.StatusBadRequest)
			return
		}
		updateFields["name"] = *input.Name
	}
	if input.Description != nil {
		updateFields["description"] = *input.Description
	}
	if input.Category != nil {
		updateFields["category"] = *input.Category
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
	if input.HSNCode != nil {
		updateFields["hsn_code"] = *input.HSNCode
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			http.Error(w, "Stock cannot be negative.", http.StatusBadRequest)
			return
		}
		updateFields["stock"] = *input.Stock
	}
	if input.Active != nil {
		updateFields["active"] = *input.Active
	}

	updateResult, err := db.ProductsCollection.UpdateOne(
		context.TODO(),
		bson.M{"productid": productID},
		bson.M{"$set": updateFields},
	)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to update product: %v", err), http.StatusInternalServerError)
		return
	}
	if updateResult.MatchedCount == 0 {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}

	rdx.RdxDel("product:" + productID)

	go mq.Emit(context.Background(), "product-edited", models.Event{
		Kind: "catalog", EntityType: "product", EntityID: productID,
	})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Product updated successfully"})
}

// DeleteProduct removes the item. Past orders keep their own copies of
// name and price, so deletion does not touch them.
func DeleteProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	productID := ps.ByName("id")

	deleteResult, err := db.ProductsCollection.DeleteOne(context.TODO(), bson.M{"productid": productID})
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to delete product: %v", err), http.StatusInternalServerError)
		return
	}
	if deleteResult.DeletedCount == 0 {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}

	rdx.RdxDel("product:" + productID)

	go mq.Emit(context.Background(), "product-deleted", models.Event{
		Kind: "catalog", EntityType: "product", EntityID: productID,
	})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Product deleted successfully"})
}
