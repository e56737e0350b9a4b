package invoice

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"kilnhouse/db"
	"kilnhouse/filemgr"
	"kilnhouse/models"
	"kilnhouse/mq"
	"kilnhouse/rdx"
	"kilnhouse/settings"
	"kilnhouse/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func invoiceable(status string) bool {
	switch status {
	case models.OrderConfirmed, models.OrderProcessing, models.OrderShipped, models.OrderDelivered:
		return true
	}
	return false
}

// GenerateInvoice creates the PDF for a paid order. Repeated calls return
// the number assigned the first time; the filter on invoice_no makes sure
// two racing requests cannot both stamp the order.
func GenerateInvoice(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	orderID := ps.ByName("id")
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var order models.Order
	err := db.OrdersCollection.FindOne(ctx, bson.M{"orderid": orderID}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		utils.RespondWithError(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch order")
		return
	}

	if order.InvoiceNo != "" {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"number": order.InvoiceNo, "url": order.InvoiceURL})
		return
	}
	if !invoiceable(order.Status) {
		utils.RespondWithError(w, http.StatusBadRequest, "Order is not paid")
		return
	}

	// The lock only avoids rendering the same PDF twice; the conditional
	// update below is what keeps the number unique per order.
	lockKey := "invoice_lock:" + orderID
	if ok, lockErr := rdx.RdxSetNX(lockKey, "1", 30*time.Second); lockErr == nil {
		if !ok {
			utils.RespondWithError(w, http.StatusConflict, "Invoice generation already in progress")
			return
		}
		defer rdx.RdxDel(lockKey)
	}

	biz, err := settings.Require(ctx)
	if err == settings.ErrNotConfigured {
		utils.RespondWithError(w, http.StatusPreconditionFailed, "Business settings must be filled in before issuing invoices")
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load business settings")
		return
	}

	now := time.Now()
	number, err := NextNumber(ctx, biz.InvoicePrefix, now)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to assign invoice number")
		return
	}

	pdfBytes, err := Render(&order, biz, number, now)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to render invoice")
		return
	}

	if err := utils.EnsureDir(filemgr.InvoiceDir); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to store invoice")
		return
	}
	relPath := filepath.Join(filemgr.InvoiceDir, number+".pdf")
	if err := os.WriteFile(relPath, pdfBytes, 0644); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to store invoice")
		return
	}
	url := filemgr.PublicURL(filepath.ToSlash(relPath))

	res, err := db.OrdersCollection.UpdateOne(ctx,
		bson.M{"orderid": orderID, "invoice_no": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"invoice_no": number, "invoice_url": url, "updated_at": now}},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update order")
		return
	}
	if res.MatchedCount == 0 {
		// Lost the race; keep the number that actually landed on the order.
		os.Remove(relPath)
		if err := db.OrdersCollection.FindOne(ctx, bson.M{"orderid": orderID}).Decode(&order); err == nil && order.InvoiceNo != "" {
			utils.RespondWithJSON(w, http.StatusOK, utils.M{"number": order.InvoiceNo, "url": order.InvoiceURL})
			return
		}
		utils.RespondWithError(w, http.StatusConflict, "Invoice already generated")
		return
	}

	go mq.Emit(context.Background(), "invoice-generated", models.Event{
		Kind:       "invoice",
		EntityType: "order",
		EntityID:   orderID,
		Title:      "Invoice " + number,
		Body:       "Invoice generated for order " + orderID,
		Amount:     order.Total,
	})

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"number": number, "url": url})
}

// GetInvoice returns the stored invoice reference for an order.
func GetInvoice(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	orderID := ps.ByName("id")
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var order models.Order
	err := db.OrdersCollection.FindOne(ctx, bson.M{"orderid": orderID}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		utils.RespondWithError(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch order")
		return
	}
	if order.InvoiceNo == "" {
		utils.RespondWithError(w, http.StatusNotFound, "Invoice not generated yet")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"number": order.InvoiceNo, "url": order.InvoiceURL})
}
