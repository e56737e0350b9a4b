package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"kilnhouse/db"
	"kilnhouse/gst"
	"kilnhouse/models"
	"kilnhouse/mq"
	"kilnhouse/products"
	"kilnhouse/razorpay"
	"kilnhouse/settings"
	"kilnhouse/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func itemsSubtotal(items []models.OrderItem) float64 {
	var subtotal float64
	for _, it := range items {
		subtotal += it.UnitPrice * float64(it.Qty)
	}
	return gst.Round2(subtotal)
}

// computeTax spreads the discount proportionally across lines and taxes each
// at its own rate. Shipping is never taxed.
func computeTax(items []models.OrderItem, subtotal, discountAmount float64, interState bool) models.TaxBreakup {
	factor := 1.0
	if subtotal > 0 && discountAmount > 0 {
		factor = (subtotal - discountAmount) / subtotal
	}

	var tax models.TaxBreakup
	for _, it := range items {
		line := it.UnitPrice * float64(it.Qty)
		b := gst.Breakdown(gst.Round2(line*factor), it.GSTRate, interState)
		tax.CGST = gst.Round2(tax.CGST + b.CGST)
		tax.SGST = gst.Round2(tax.SGST + b.SGST)
		tax.IGST = gst.Round2(tax.IGST + b.IGST)
		tax.Total = gst.Round2(tax.Total + b.Total)
	}
	return tax
}

// shippingFee applies the flat fee with the free-shipping threshold checked
// against the goods value after discount.
func shippingFee(biz *models.BusinessSettings, taxable float64) float64 {
	if biz.FreeShipAbove > 0 && taxable >= biz.FreeShipAbove {
		return 0
	}
	return biz.ShippingFee
}

func releaseItems(ctx context.Context, items []models.OrderItem) {
	for _, it := range items {
		if err := products.ReleaseStock(ctx, it.ProductID, it.Qty); err != nil {
			log.Printf("release stock %s x%d: %v", it.ProductID, it.Qty, err)
		}
	}
}

type checkoutItem struct {
	ProductID string `json:"productid"`
	Qty       int    `json:"qty"`
}

type checkoutRequest struct {
	Items      []checkoutItem `json:"items"`
	Contact    models.Contact `json:"contact"`
	Shipping   models.Address `json:"shipping"`
	GSTIN      string         `json:"gstin"`
	CouponCode string         `json:"coupon_code"`
}

// CreateOrder runs checkout: prices the cart from the product documents,
// reserves stock, computes GST against the studio's state, and opens a
// gateway order. Everything rolls back if the gateway call fails.
func CreateOrder(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if len(req.Items) == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Cart is empty")
		return
	}
	req.Contact.Name = strings.TrimSpace(req.Contact.Name)
	req.Contact.Email = strings.ToLower(strings.TrimSpace(req.Contact.Email))
	if req.Contact.Name == "" || !strings.Contains(req.Contact.Email, "@") {
		utils.RespondWithError(w, http.StatusBadRequest, "A contact name and valid email are required")
		return
	}
	if req.Shipping.Line1 == "" || req.Shipping.City == "" || req.Shipping.Pincode == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "A shipping address with line1, city and pincode is required")
		return
	}
	req.GSTIN = strings.ToUpper(strings.TrimSpace(req.GSTIN))
	if req.GSTIN != "" {
		if !gst.ValidGSTIN(req.GSTIN) {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid GSTIN")
			return
		}
		if req.Shipping.StateCode == "" {
			req.Shipping.StateCode = gst.StateCodeFromGSTIN(req.GSTIN)
		}
	}

	// merge repeated lines so stock is reserved once per product
	qtyByProduct := make(map[string]int)
	var productOrder []string
	for _, it := range req.Items {
		if it.Qty < 1 {
			utils.RespondWithError(w, http.StatusBadRequest, "Item quantities must be at least 1")
			return
		}
		if _, seen := qtyByProduct[it.ProductID]; !seen {
			productOrder = append(productOrder, it.ProductID)
		}
		qtyByProduct[it.ProductID] += it.Qty
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	items := make([]models.OrderItem, 0, len(productOrder))
	for _, pid := range productOrder {
		var p models.Product
		if err := db.ProductsCollection.FindOne(ctx, bson.M{"productid": pid}).Decode(&p); err != nil {
			utils.RespondWithError(w, http.StatusNotFound, fmt.Sprintf("Product %s not found", pid))
			return
		}
		if !p.Active {
			utils.RespondWithError(w, http.StatusBadRequest, p.Name+" is no longer available")
			return
		}
		items = append(items, models.OrderItem{
			ProductID: p.ProductID,
			Name:      p.Name,
			HSNCode:   p.HSNCode,
			Qty:       qtyByProduct[pid],
			UnitPrice: p.Price,
			GSTRate:   p.GSTRate,
		})
	}

	subtotal := itemsSubtotal(items)

	var discount models.Discount
	if req.CouponCode != "" {
		d, err := applyCoupon(ctx, req.CouponCode, subtotal)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		discount = d
	}
	if discount.Amount > subtotal {
		discount.Amount = subtotal
	}

	biz, err := settings.Load(ctx)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load business settings")
		return
	}

	taxable := gst.Round2(subtotal - discount.Amount)
	interState := gst.InterState(req.Shipping.StateCode, biz.StateCode)
	tax := computeTax(items, subtotal, discount.Amount, interState)
	fee := shippingFee(biz, taxable)
	total := gst.Round2(taxable + tax.Total + fee)

	// reserve stock line by line; on any failure hand back what we took
	var reserved []models.OrderItem
	for _, it := range items {
		if err := products.ReserveStock(ctx, it.ProductID, it.Qty); err != nil {
			releaseItems(ctx, reserved)
			switch err {
			case products.ErrNotFound:
				utils.RespondWithError(w, http.StatusNotFound, fmt.Sprintf("Product %s not found", it.ProductID))
			case products.ErrUnavailable:
				utils.RespondWithError(w, http.StatusBadRequest, it.Name+" is no longer available")
			case products.ErrOutOfStock:
				utils.RespondWithError(w, http.StatusConflict, "Not enough stock of "+it.Name)
			default:
				utils.RespondWithError(w, http.StatusInternalServerError, "Failed to reserve stock")
			}
			return
		}
		reserved = append(reserved, it)
	}

	order := models.Order{
		OrderID:     utils.GenerateID(14),
		UserID:      utils.GetUserIDFromRequest(r),
		Contact:     req.Contact,
		GSTIN:       req.GSTIN,
		Shipping:    req.Shipping,
		Items:       items,
		Subtotal:    subtotal,
		Discount:    discount,
		ShippingFee: fee,
		Tax:         tax,
		Total:       total,
		Status:      models.OrderPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if _, err := db.OrdersCollection.InsertOne(ctx, order); err != nil {
		releaseItems(ctx, reserved)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create order")
		return
	}

	rzp := razorpay.NewClient()
	gatewayOrder, err := rzp.CreateOrder(ctx, razorpay.ToPaise(total), order.OrderID)
	if err != nil {
		releaseItems(ctx, reserved)
		db.OrdersCollection.DeleteOne(ctx, bson.M{"orderid": order.OrderID})
		log.Printf("gateway order for order %s: %v", order.OrderID, err)
		utils.RespondWithError(w, http.StatusBadGateway, "Payment gateway is unavailable, please try again")
		return
	}

	order.RzpOrderID = gatewayOrder.ID
	if _, err := db.OrdersCollection.UpdateOne(ctx,
		bson.M{"orderid": order.OrderID},
		bson.M{"$set": bson.M{"rzp_order_id": gatewayOrder.ID, "updated_at": time.Now()}},
	); err != nil {
		log.Printf("store gateway order id on order %s: %v", order.OrderID, err)
	}

	go mq.Emit(context.Background(), "order-created", models.Event{
		Kind:     "order",
		EntityID: order.OrderID,
		Title:    "New order from " + req.Contact.Name,
		Body:     fmt.Sprintf("%d items, %s %s", len(items), req.Shipping.City, req.Shipping.Pincode),
		Amount:   total,
	})

	utils.SendResponse(w, http.StatusCreated, utils.M{
		"order": order,
		"payment": utils.M{
			"razorpay_order_id": gatewayOrder.ID,
			"razorpay_key_id":   rzp.KeyID(),
			"amount":            razorpay.ToPaise(total),
			"currency":          "INR",
		},
	}, "Order created. Complete payment to confirm.", nil)
}

// GetOrders lists orders for the back office with optional filters.
func GetOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := utils.ParseQueryOptions(r)

	filter := bson.M{}
	if v := r.URL.Query().Get("status"); v != "" {
		filter["status"] = v
	}
	if v := r.URL.Query().Get("email"); v != "" {
		filter["contact.email"] = strings.ToLower(strings.TrimSpace(v))
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((q.Page - 1) * q.Limit)).
		SetLimit(int64(q.Limit))

	cur, err := db.OrdersCollection.Find(ctx, filter, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch orders")
		return
	}
	defer cur.Close(ctx)

	var orders []models.Order
	if err := cur.All(ctx, &orders); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to decode orders")
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"orders": orders})
}

// GetOrder returns one order; the id works as a capability for guests.
func GetOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var order models.Order
	err := db.OrdersCollection.FindOne(context.TODO(), bson.M{"orderid": ps.ByName("id")}).Decode(&order)
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Order not found")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, order)
}

// stockHeld reports whether goods are still reserved in this status.
// Shipped goods are gone and stay sold.
func stockHeld(status string) bool {
	switch status {
	case models.OrderPending, models.OrderConfirmed, models.OrderProcessing:
		return true
	}
	return false
}

// UpdateOrderStatus moves an order along its lifecycle. Entering the
// rejecting branch puts unshipped goods back in stock.
func UpdateOrderStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	orderID := ps.ByName("id")

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !models.ValidOrderStatus(body.Status) {
		utils.RespondWithError(w, http.StatusBadRequest, "Unknown status "+body.Status)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var order models.Order
	if err := db.OrdersCollection.FindOne(ctx, bson.M{"orderid": orderID}).Decode(&order); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Order not found")
		return
	}
	if !models.CanTransitionOrder(order.Status, body.Status) {
		utils.RespondWithError(w, http.StatusConflict,
			fmt.Sprintf("Cannot move order from %s to %s", order.Status, body.Status))
		return
	}

	res, err := db.OrdersCollection.UpdateOne(ctx,
		bson.M{"orderid": orderID, "status": order.Status},
		bson.M{"$set": bson.M{"status": body.Status, "updated_at": time.Now()}},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update order")
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusConflict, "Order status changed, please retry")
		return
	}

	if (body.Status == models.OrderCancelled || body.Status == models.OrderRejected) && stockHeld(order.Status) {
		releaseItems(ctx, order.Items)
	}

	go mq.Emit(context.Background(), "order-status", models.Event{
		Kind:     "order",
		EntityID: order.OrderID,
		Title:    fmt.Sprintf("Order %s: %s", body.Status, order.Contact.Name),
		Amount:   order.Total,
	})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Order updated", "status": body.Status})
}

// CancelOrder lets a shopper back out while the order is still unshipped.
func CancelOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	orderID := ps.ByName("id")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var order models.Order
	if err := db.OrdersCollection.FindOne(ctx, bson.M{"orderid": orderID}).Decode(&order); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Order not found")
		return
	}
	if !models.CanTransitionOrder(order.Status, models.OrderCancelled) {
		utils.RespondWithError(w, http.StatusConflict, "Order can no longer be cancelled")
		return
	}

	res, err := db.OrdersCollection.UpdateOne(ctx,
		bson.M{"orderid": orderID, "status": order.Status},
		bson.M{"$set": bson.M{"status": models.OrderCancelled, "updated_at": time.Now()}},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to cancel order")
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusConflict, "Order status changed, please retry")
		return
	}

	if stockHeld(order.Status) {
		releaseItems(ctx, order.Items)
	}

	go mq.Emit(context.Background(), "order-cancelled", models.Event{
		Kind:     "order",
		EntityID: order.OrderID,
		Title:    "Order cancelled by " + order.Contact.Name,
		Amount:   order.Total,
	})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Order cancelled"})
}

// ConfirmPayment flips a pending order to confirmed after the gateway
// signature check. Repeat calls with the same payment id are no-ops.
func ConfirmPayment(ctx context.Context, orderID, gatewayOrderID, paymentID string) error {
	res, err := db.OrdersCollection.UpdateOne(ctx, bson.M{
		"orderid":      orderID,
		"rzp_order_id": gatewayOrderID,
		"status":       models.OrderPending,
	}, bson.M{"$set": bson.M{
		"status":         models.OrderConfirmed,
		"rzp_payment_id": paymentID,
		"updated_at":     time.Now(),
	}})
	if err != nil {
		return err
	}

	var order models.Order
	if err := db.OrdersCollection.FindOne(ctx, bson.M{"orderid": orderID}).Decode(&order); err != nil {
		return fmt.Errorf("order %s not found", orderID)
	}

	if res.MatchedCount == 0 {
		if order.Status != models.OrderPending && order.RzpPaymentID == paymentID {
			return nil
		}
		return fmt.Errorf("order %s is %s and cannot be confirmed", orderID, order.Status)
	}

	go mq.Emit(context.Background(), "order-confirmed", models.Event{
		Kind:     "order",
		EntityID: order.OrderID,
		Title:    "Order confirmed: " + order.Contact.Name,
		Body:     fmt.Sprintf("%d items to %s", len(order.Items), order.Shipping.City),
		Amount:   order.Total,
	})
	return nil
}
