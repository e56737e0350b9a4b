package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"kilnhouse/db"
	"kilnhouse/gst"
	"kilnhouse/models"
	"kilnhouse/mq"
	"kilnhouse/razorpay"
	"kilnhouse/slots"
	"kilnhouse/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrSlotMissing = errors.New("slot not found")
	ErrSlotFull    = errors.New("not enough spots left")
)

// Booking ids double as the lookup capability on the public confirmation
// page, so they carry more entropy than the catalog ids.
func genID() string {
	return utils.GenerateRandomDigitString(22)
}

func validEntityType(t string) bool {
	return t == "workshop" || t == "experience"
}

// listing is the slice of a workshop or experience document a booking needs.
type listing struct {
	Title  string  `bson:"title"`
	Price  float64 `bson:"price"`
	Active bool    `bson:"active"`
}

func findListing(ctx context.Context, entityType, entityID string) (*listing, error) {
	var coll *mongo.Collection
	var idField string
	switch entityType {
	case "workshop":
		coll, idField = db.WorkshopsCollection, "workshopid"
	case "experience":
		coll, idField = db.ExperiencesCollection, "experienceid"
	default:
		return nil, fmt.Errorf("unknown entity type %q", entityType)
	}

	var l listing
	if err := coll.FindOne(ctx, bson.M{idField: entityID}).Decode(&l); err != nil {
		return nil, err
	}
	return &l, nil
}

// reserveSpots takes guests from a slot in one conditional update. The
// filter and the $inc hit the same document together, so two checkouts
// cannot both take the last spots.
func reserveSpots(ctx context.Context, entityType, entityID, date, slotTime string, guests int) error {
	res, err := db.SlotsCollection.UpdateOne(ctx, bson.M{
		"entityType": entityType,
		"entityId":   entityID,
		"date":       date,
		"time":       slotTime,
		"$expr":      bson.M{"$lte": bson.A{bson.M{"$add": bson.A{"$booked", guests}}, "$max_spots"}},
	}, bson.M{"$inc": bson.M{"booked": guests}})
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	count, err := db.SlotsCollection.CountDocuments(ctx, bson.M{
		"entityType": entityType, "entityId": entityID, "date": date, "time": slotTime,
	})
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrSlotMissing
	}
	return ErrSlotFull
}

// releaseSpots gives reserved guests back, never dropping booked below zero.
func releaseSpots(ctx context.Context, entityType, entityID, date, slotTime string, guests int) {
	if guests <= 0 {
		return
	}
	_, err := db.SlotsCollection.UpdateOne(ctx, bson.M{
		"entityType": entityType,
		"entityId":   entityID,
		"date":       date,
		"time":       slotTime,
		"booked":     bson.M{"$gte": guests},
	}, bson.M{"$inc": bson.M{"booked": -guests}})
	if err != nil {
		log.Printf("release %d spots on %s/%s %s %s: %v", guests, entityType, entityID, date, slotTime, err)
	}
}

type createBookingRequest struct {
	EntityType string         `json:"entityType"`
	EntityID   string         `json:"entityId"`
	Date       string         `json:"date"`
	Time       string         `json:"time"`
	Guests     int            `json:"guests"`
	Contact    models.Contact `json:"contact"`
	Note       string         `json:"note"`
}

// CreateBooking reserves capacity and opens a gateway checkout. The booking
// stays pending_payment until the payment callback verifies, or the sweeper
// expires it.
func CreateBooking(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !validEntityType(req.EntityType) {
		utils.RespondWithError(w, http.StatusBadRequest, "Unknown entity type")
		return
	}
	if req.EntityID == "" || req.Date == "" || req.Time == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if utils.ParseDate(req.Date) == nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
		return
	}
	if req.Guests < 1 || req.Guests > slots.MaxGuests {
		utils.RespondWithError(w, http.StatusBadRequest,
			fmt.Sprintf("Guests must be between 1 and %d", slots.MaxGuests))
		return
	}
	req.Contact.Name = strings.TrimSpace(req.Contact.Name)
	req.Contact.Email = strings.ToLower(strings.TrimSpace(req.Contact.Email))
	if req.Contact.Name == "" || !strings.Contains(req.Contact.Email, "@") {
		utils.RespondWithError(w, http.StatusBadRequest, "A contact name and valid email are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	l, err := findListing(ctx, req.EntityType, req.EntityID)
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Listing not found")
		return
	}
	if !l.Active {
		utils.RespondWithError(w, http.StatusBadRequest, "This listing is not open for booking")
		return
	}

	// one live booking per email per listing per date
	dup, err := db.BookingsCollection.CountDocuments(ctx, bson.M{
		"entityType":    req.EntityType,
		"entityId":      req.EntityID,
		"date":          req.Date,
		"contact.email": req.Contact.Email,
		"status":        bson.M{"$nin": []string{models.BookingCancelled, models.BookingExpired}},
	})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to check existing bookings")
		return
	}
	if dup > 0 {
		utils.RespondWithError(w, http.StatusConflict, "You already have a booking for this date")
		return
	}

	// advisory read for a clear error; the conditional update in
	// reserveSpots is the real gate under concurrency
	var slotDoc models.Slot
	err = db.SlotsCollection.FindOne(ctx, bson.M{
		"entityType": req.EntityType, "entityId": req.EntityID, "date": req.Date, "time": req.Time,
	}).Decode(&slotDoc)
	if err == mongo.ErrNoDocuments {
		utils.RespondWithError(w, http.StatusNotFound, "No such time slot")
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to check the slot")
		return
	}
	if limit := slots.ClampGuests(slotDoc.MaxSpots - slotDoc.Booked); req.Guests > limit {
		utils.RespondWithError(w, http.StatusConflict,
			fmt.Sprintf("Only %d spots can be booked for this slot", limit))
		return
	}

	if err := reserveSpots(ctx, req.EntityType, req.EntityID, req.Date, req.Time, req.Guests); err != nil {
		switch err {
		case ErrSlotMissing:
			utils.RespondWithError(w, http.StatusNotFound, "No such time slot")
		case ErrSlotFull:
			utils.RespondWithError(w, http.StatusConflict, "Not enough spots left for this slot")
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to reserve spots")
		}
		return
	}

	booking := models.Booking{
		BookingID:   genID(),
		EntityType:  req.EntityType,
		EntityID:    req.EntityID,
		EntityTitle: l.Title,
		UserID:      utils.GetUserIDFromRequest(r),
		Contact:     req.Contact,
		Date:        req.Date,
		Time:        req.Time,
		Guests:      req.Guests,
		Note:        req.Note,
		Amount:      gst.Round2(l.Price * float64(req.Guests)),
		Status:      models.BookingPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if _, err := db.BookingsCollection.InsertOne(ctx, booking); err != nil {
		releaseSpots(ctx, req.EntityType, req.EntityID, req.Date, req.Time, req.Guests)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create booking")
		return
	}

	rzp := razorpay.NewClient()
	gatewayOrder, err := rzp.CreateOrder(ctx, razorpay.ToPaise(booking.Amount), booking.BookingID)
	if err != nil {
		// roll the reservation and the row back so the client can retry
		releaseSpots(ctx, req.EntityType, req.EntityID, req.Date, req.Time, req.Guests)
		db.BookingsCollection.DeleteOne(ctx, bson.M{"bookingid": booking.BookingID})
		log.Printf("gateway order for booking %s: %v", booking.BookingID, err)
		utils.RespondWithError(w, http.StatusBadGateway, "Payment gateway is unavailable, please try again")
		return
	}

	booking.RzpOrderID = gatewayOrder.ID
	if _, err := db.BookingsCollection.UpdateOne(ctx,
		bson.M{"bookingid": booking.BookingID},
		bson.M{"$set": bson.M{"rzp_order_id": gatewayOrder.ID, "updated_at": time.Now()}},
	); err != nil {
		log.Printf("store gateway order id on booking %s: %v", booking.BookingID, err)
	}

	go mq.Emit(context.Background(), "booking-created", models.Event{
		Kind:       "booking",
		EntityType: req.EntityType,
		EntityID:   booking.BookingID,
		Title:      "New booking for " + l.Title,
		Body:       fmt.Sprintf("%s, %d guests on %s %s", req.Contact.Name, req.Guests, req.Date, req.Time),
		Amount:     booking.Amount,
	})
	go BroadcastAvailability(req.EntityType, req.EntityID)

	utils.SendResponse(w, http.StatusCreated, utils.M{
		"booking": booking,
		"payment": utils.M{
			"razorpay_order_id": gatewayOrder.ID,
			"razorpay_key_id":   rzp.KeyID(),
			"amount":            razorpay.ToPaise(booking.Amount),
			"currency":          "INR",
		},
	}, "Booking created. Complete payment to confirm.", nil)
}

// GetBookings lists bookings for the back office with optional filters.
func GetBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := utils.ParseQueryOptions(r)

	filter := bson.M{}
	if v := r.URL.Query().Get("entityType"); v != "" {
		filter["entityType"] = v
	}
	if v := r.URL.Query().Get("entityId"); v != "" {
		filter["entityId"] = v
	}
	if v := r.URL.Query().Get("status"); v != "" {
		filter["status"] = v
	}
	if v := r.URL.Query().Get("date"); v != "" {
		filter["date"] = v
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((q.Page - 1) * q.Limit)).
		SetLimit(int64(q.Limit))

	cur, err := db.BookingsCollection.Find(ctx, filter, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch bookings")
		return
	}
	defer cur.Close(ctx)

	var bookings []models.Booking
	if err := cur.All(ctx, &bookings); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to decode bookings")
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"bookings": bookings})
}

// GetBooking returns one booking. The id is an unguessable capability, so
// guests can pull up their confirmation without an account.
func GetBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var booking models.Booking
	err := db.BookingsCollection.FindOne(context.TODO(), bson.M{"bookingid": ps.ByName("id")}).Decode(&booking)
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Booking not found")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, booking)
}

// CancelBooking releases the reserved spots of a live booking.
func CancelBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bookingID := ps.ByName("id")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var booking models.Booking
	if err := db.BookingsCollection.FindOne(ctx, bson.M{"bookingid": bookingID}).Decode(&booking); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Booking not found")
		return
	}
	if !models.CanTransitionBooking(booking.Status, models.BookingCancelled) {
		utils.RespondWithError(w, http.StatusConflict, "Booking can no longer be cancelled")
		return
	}

	// filter on the status we read so a concurrent verify or sweep loses
	res, err := db.BookingsCollection.UpdateOne(ctx,
		bson.M{"bookingid": bookingID, "status": booking.Status},
		bson.M{"$set": bson.M{"status": models.BookingCancelled, "updated_at": time.Now()}},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to cancel booking")
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusConflict, "Booking status changed, please retry")
		return
	}

	releaseSpots(ctx, booking.EntityType, booking.EntityID, booking.Date, booking.Time, booking.Guests)

	go mq.Emit(context.Background(), "booking-cancelled", models.Event{
		Kind:       "booking",
		EntityType: booking.EntityType,
		EntityID:   booking.BookingID,
		Title:      "Booking cancelled: " + booking.EntityTitle,
		Body:       fmt.Sprintf("%s, %d guests on %s %s", booking.Contact.Name, booking.Guests, booking.Date, booking.Time),
	})
	go BroadcastAvailability(booking.EntityType, booking.EntityID)

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Booking cancelled"})
}

// UpdateBookingStatus moves a booking along its lifecycle. Moving onto the
// rejecting branch hands the reserved spots back.
func UpdateBookingStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bookingID := ps.ByName("id")

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !models.ValidBookingStatus(body.Status) {
		utils.RespondWithError(w, http.StatusBadRequest, "Unknown status "+body.Status)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var booking models.Booking
	if err := db.BookingsCollection.FindOne(ctx, bson.M{"bookingid": bookingID}).Decode(&booking); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Booking not found")
		return
	}
	if !models.CanTransitionBooking(booking.Status, body.Status) {
		utils.RespondWithError(w, http.StatusConflict,
			fmt.Sprintf("Cannot move booking from %s to %s", booking.Status, body.Status))
		return
	}

	res, err := db.BookingsCollection.UpdateOne(ctx,
		bson.M{"bookingid": bookingID, "status": booking.Status},
		bson.M{"$set": bson.M{"status": body.Status, "updated_at": time.Now()}},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update booking")
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusConflict, "Booking status changed, please retry")
		return
	}

	if body.Status == models.BookingCancelled || body.Status == models.BookingExpired {
		releaseSpots(ctx, booking.EntityType, booking.EntityID, booking.Date, booking.Time, booking.Guests)
		go BroadcastAvailability(booking.EntityType, booking.EntityID)
	}

	go mq.Emit(context.Background(), "booking-status", models.Event{
		Kind:       "booking",
		EntityType: booking.EntityType,
		EntityID:   booking.BookingID,
		Title:      fmt.Sprintf("Booking %s: %s", body.Status, booking.EntityTitle),
		Body:       booking.Contact.Name + " on " + booking.Date + " " + booking.Time,
	})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Booking updated", "status": body.Status})
}

// ConfirmPayment flips a pending booking to confirmed after the gateway
// signature check. Called by the payment verifier; calling it again with the
// same payment id is a no-op.
func ConfirmPayment(ctx context.Context, bookingID, gatewayOrderID, paymentID string) error {
	res, err := db.BookingsCollection.UpdateOne(ctx, bson.M{
		"bookingid":    bookingID,
		"rzp_order_id": gatewayOrderID,
		"status":       models.BookingPending,
	}, bson.M{"$set": bson.M{
		"status":         models.BookingConfirmed,
		"rzp_payment_id": paymentID,
		"updated_at":     time.Now(),
	}})
	if err != nil {
		return err
	}

	var booking models.Booking
	if err := db.BookingsCollection.FindOne(ctx, bson.M{"bookingid": bookingID}).Decode(&booking); err != nil {
		return fmt.Errorf("booking %s not found", bookingID)
	}

	if res.MatchedCount == 0 {
		if booking.Status == models.BookingConfirmed && booking.RzpPaymentID == paymentID {
			return nil
		}
		return fmt.Errorf("booking %s is %s and cannot be confirmed", bookingID, booking.Status)
	}

	go mq.Emit(context.Background(), "booking-confirmed", models.Event{
		Kind:       "booking",
		EntityType: booking.EntityType,
		EntityID:   booking.BookingID,
		Title:      "Booking confirmed: " + booking.EntityTitle,
		Body:       fmt.Sprintf("%s, %d guests on %s %s", booking.Contact.Name, booking.Guests, booking.Date, booking.Time),
		Amount:     booking.Amount,
	})
	go BroadcastAvailability(booking.EntityType, booking.EntityID)
	return nil
}
