// Package payments verifies gateway callbacks and keeps the payment ledger.
//
// The checkout widget posts razorpay_order_id, razorpay_payment_id and the
// gateway signature here. After the HMAC checks out, the matching entity
// (booking or order) is flipped to confirmed through its registered
// Confirmer and the payment lands in the ledger.
package payments

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"kilnhouse/db"
	"kilnhouse/models"
	"kilnhouse/mq"
	"kilnhouse/razorpay"
	"kilnhouse/rdx"
	"kilnhouse/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Confirmer flips one entity from pending to confirmed once its payment
// checks out. booking and orders register theirs in main.
type Confirmer func(ctx context.Context, entityID, gatewayOrderID, paymentID string) error

var (
	confirmers = make(map[string]Confirmer)
	cLock      sync.RWMutex
)

func Register(entityType string, fn Confirmer) {
	cLock.Lock()
	defer cLock.Unlock()
	confirmers[entityType] = fn
}

func confirmerFor(entityType string) (Confirmer, bool) {
	cLock.RLock()
	defer cLock.RUnlock()
	fn, ok := confirmers[entityType]
	return fn, ok
}

// verifyLockTTL bounds how long a payment id stays locked while one
// verification request is in flight.
const verifyLockTTL = 10 * time.Second

type verifyRequest struct {
	EntityType        string `json:"entityType"`
	EntityID          string `json:"entityId"`
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

func recordPayment(entityType, entityID, gatewayOrderID, paymentID string, amount float64, status string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rec := models.PaymentRecord{
		PaymentID:    utils.GetUUID(),
		EntityType:   entityType,
		EntityID:     entityID,
		RzpOrderID:   gatewayOrderID,
		RzpPaymentID: paymentID,
		Amount:       amount,
		Status:       status,
		CreatedAt:    time.Now(),
	}
	if _, err := db.PaymentsCollection.InsertOne(ctx, rec); err != nil {
		log.Printf("payment ledger insert failed for %s %s: %v", entityType, entityID, err)
	}
}

// amountFor reads the charged amount off the paid entity for the ledger row.
func amountFor(ctx context.Context, entityType, entityID string) float64 {
	switch entityType {
	case "booking":
		var b struct {
			Amount float64 `bson:"amount"`
		}
		if err := db.BookingsCollection.FindOne(ctx, bson.M{"bookingid": entityID}).Decode(&b); err == nil {
			return b.Amount
		}
	case "order":
		var o struct {
			Total float64 `bson:"total"`
		}
		if err := db.OrdersCollection.FindOne(ctx, bson.M{"orderid": entityID}).Decode(&o); err == nil {
			return o.Total
		}
	}
	return 0
}

// VerifyPayment is the checkout success callback.
func VerifyPayment(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.EntityType == "" || req.EntityID == "" ||
		req.RazorpayOrderID == "" || req.RazorpayPaymentID == "" || req.RazorpaySignature == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "All payment fields are required")
		return
	}

	confirm, ok := confirmerFor(req.EntityType)
	if !ok {
		utils.RespondWithError(w, http.StatusBadRequest, "Unsupported entity type")
		return
	}

	rzp := razorpay.NewClient()
	if !rzp.VerifySignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		log.Printf("bad payment signature for %s %s (payment %s)", req.EntityType, req.EntityID, req.RazorpayPaymentID)
		recordPayment(req.EntityType, req.EntityID, req.RazorpayOrderID, req.RazorpayPaymentID, 0, "failed")
		utils.RespondWithError(w, http.StatusBadRequest, "Payment signature verification failed")
		return
	}

	// One verification per payment id at a time. The confirmer is
	// idempotent, so a replay after the lock expires is still safe.
	lockKey := "payverify:" + req.RazorpayPaymentID
	acquired, err := rdx.RdxSetNX(lockKey, "1", verifyLockTTL)
	if err == nil && !acquired {
		utils.RespondWithError(w, http.StatusTooManyRequests, "Verification already in progress, please retry")
		return
	}
	defer rdx.RdxDel(lockKey)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := confirm(ctx, req.EntityID, req.RazorpayOrderID, req.RazorpayPaymentID); err != nil {
		log.Printf("payment confirm failed for %s %s: %v", req.EntityType, req.EntityID, err)
		utils.RespondWithError(w, http.StatusConflict, err.Error())
		return
	}

	amount := amountFor(ctx, req.EntityType, req.EntityID)
	recordPayment(req.EntityType, req.EntityID, req.RazorpayOrderID, req.RazorpayPaymentID, amount, "verified")

	go mq.Emit(context.Background(), "payment-received", models.Event{
		Kind:       "payment",
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		Title:      "Payment received",
		Amount:     amount,
	})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success": true,
		"message": "Payment verified",
	})
}

// GetPayments lists the ledger for the back office, newest first.
func GetPayments(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	filter := bson.M{}
	if t := q.Get("entityType"); t != "" {
		filter["entityType"] = t
	}
	if s := q.Get("status"); s != "" {
		filter["status"] = s
	}

	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	skip, _ := strconv.Atoi(q.Get("skip"))
	if skip < 0 {
		skip = 0
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(skip))

	cur, err := db.PaymentsCollection.Find(ctx, filter, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch payments")
		return
	}
	defer cur.Close(ctx)

	var payments []models.PaymentRecord
	if err := cur.All(ctx, &payments); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to decode payments")
		return
	}
	if payments == nil {
		payments = []models.PaymentRecord{}
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"payments": payments})
}
