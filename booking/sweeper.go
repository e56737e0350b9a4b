package booking

import (
	"context"
	"log"
	"time"

	"kilnhouse/db"
	"kilnhouse/models"

	"go.mongodb.org/mongo-driver/bson"
)

// checkoutTTL is how long a pending_payment booking may sit before its
// spots go back on sale.
const checkoutTTL = 15 * time.Minute

// StartExpiryWorker reaps bookings whose checkout was abandoned. Runs until
// ctx is cancelled.
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
	cur, err := db.BookingsCollection.Find(cctx, bson.M{
		"status":     models.BookingPending,
		"created_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		log.Printf("booking sweeper find: %v", err)
		return
	}
	defer cur.Close(cctx)

	var stale []models.Booking
	if err := cur.All(cctx, &stale); err != nil {
		log.Printf("booking sweeper decode: %v", err)
		return
	}

	for _, b := range stale {
		// payment verification may land between the find and this update;
		// the status filter makes the loser back off
		res, err := db.BookingsCollection.UpdateOne(cctx,
			bson.M{"bookingid": b.BookingID, "status": models.BookingPending},
			bson.M{"$set": bson.M{"status": models.BookingExpired, "updated_at": time.Now()}},
		)
		if err != nil || res.MatchedCount == 0 {
			continue
		}
		releaseSpots(cctx, b.EntityType, b.EntityID, b.Date, b.Time, b.Guests)
		BroadcastAvailability(b.EntityType, b.EntityID)
		log.Printf("expired booking %s (%s %s %s)", b.BookingID, b.EntityType, b.Date, b.Time)
	}
}
