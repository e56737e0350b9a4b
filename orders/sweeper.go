package orders

import (
	"context"
	"log"
	"time"

	"kilnhouse/db"
	"kilnhouse/models"

	"go.mongodb.org/mongo-driver/bson"
)

const checkoutTTL = 15 * time.Minute

// StartExpiryWorker rejects pending_payment orders whose checkout was
// abandoned and puts their stock back. Runs until ctx is cancelled.
func StartExpiryWorker(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				expireStale(ctx)
			}
		}
	}()
}

func expireStale(ctx context.Context) {
	cctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-checkoutTTL)
	cur, err := db.OrdersCollection.Find(cctx, bson.M{
		"status":     models.OrderPending,
		"created_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		log.Printf("order sweeper find: %v", err)
		return
	}
	defer cur.Close(cctx)

	var stale []models.Order
	if err := cur.All(cctx, &stale); err != nil {
		log.Printf("order sweeper decode: %v", err)
		return
	}

	for _, o := range stale {
		// a payment verified between the find and this update wins
		res, err := db.OrdersCollection.UpdateOne(cctx,
			bson.M{"orderid": o.OrderID, "status": models.OrderPending},
			bson.M{"$set": bson.M{"status": models.OrderCancelled, "updated_at": time.Now()}},
		)
		if err != nil || res.MatchedCount == 0 {
			continue
		}
		releaseItems(cctx, o.Items)
		log.Printf("expired order %s (%d items)", o.OrderID, len(o.Items))
	}
}
