package orders

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"kilnhouse/db"
	"kilnhouse/gst"
	"kilnhouse/models"
	"kilnhouse/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// applyCoupon resolves a code against the stored coupons and returns the
// discount it grants on the given subtotal. The error text is shown to the
// shopper as-is.
func applyCoupon(ctx context.Context, code string, subtotal float64) (models.Discount, error) {
	code = utils.NormalizeCode(code)
	if code == "" {
		return models.Discount{}, errors.New("No coupon provided")
	}

	var coupon models.Coupon
	if err := db.CouponsCollection.FindOne(ctx, bson.M{"code": code}).Decode(&coupon); err != nil {
		return models.Discount{}, errors.New("Coupon not found")
	}
	if !coupon.Active {
		return models.Discount{}, errors.New("Coupon inactive")
	}
	if time.Now().After(coupon.ExpiresAt) {
		return models.Discount{}, errors.New("Coupon expired")
	}

	amount := 0.0
	if subtotal > 0 {
		amount = gst.Round2(subtotal * coupon.Discount / 100)
	}
	return models.Discount{Code: code, Amount: amount}, nil
}

type couponRequest struct {
	Code     string  `json:"code"`
	Subtotal float64 `json:"subtotal"`
}

type couponResponse struct {
	Valid    bool    `json:"valid"`
	Discount float64 `json:"discount"` // absolute amount, not %
	Message  string  `json:"message"`
}

// ValidateCoupon lets the cart page price a code before checkout.
func ValidateCoupon(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req couponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	d, err := applyCoupon(ctx, req.Code, req.Subtotal)
	if err != nil {
		utils.RespondWithJSON(w, http.StatusOK, couponResponse{Valid: false, Message: err.Error()})
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, couponResponse{
		Valid:    true,
		Discount: d.Amount,
		Message:  "Coupon applied successfully",
	})
}

// CreateCoupon upserts a coupon by code.
func CreateCoupon(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var coupon models.Coupon
	if err := json.NewDecoder(r.Body).Decode(&coupon); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	coupon.Code = utils.NormalizeCode(coupon.Code)
	if coupon.Code == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "A coupon code is required")
		return
	}
	if coupon.Discount <= 0 || coupon.Discount > 100 {
		utils.RespondWithError(w, http.StatusBadRequest, "Discount must be a percentage between 0 and 100")
		return
	}
	if coupon.ExpiresAt.IsZero() {
		utils.RespondWithError(w, http.StatusBadRequest, "An expiry date is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := db.CouponsCollection.UpdateOne(ctx,
		bson.M{"code": coupon.Code},
		bson.M{"$set": coupon},
		options.Update().SetUpsert(true),
	); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to save coupon")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Coupon saved", "data": coupon})
}

func GetCoupons(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cur, err := db.CouponsCollection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "expiresAt", Value: -1}}))
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch coupons")
		return
	}
	defer cur.Close(ctx)

	var coupons []models.Coupon
	if err := cur.All(ctx, &coupons); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to decode coupons")
		return
	}
	if coupons == nil {
		coupons = []models.Coupon{}
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"coupons": coupons})
}

func DeleteCoupon(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	code := utils.NormalizeCode(ps.ByName("code"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := db.CouponsCollection.DeleteOne(ctx, bson.M{"code": code})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to delete coupon")
		return
	}
	if res.DeletedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Coupon not found")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Coupon deleted"})
}
