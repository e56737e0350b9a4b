package products

import (
	"context"
	"errors"
	"fmt"

	"kilnhouse/db"
	"kilnhouse/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound    = errors.New("product not found")
	ErrUnavailable = errors.New("product is not available")
	ErrOutOfStock  = errors.New("insufficient stock")
)

// ReserveStock decrements stock only when enough is left. The filter and
// the $inc run as one document update, so two checkouts cannot both take
// the last piece.
func ReserveStock(ctx context.Context, productID string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("invalid quantity %d", qty)
	}

	res, err := db.ProductsCollection.UpdateOne(ctx,
		bson.M{
			"productid": productID,
			"active":    true,
			"stock":     bson.M{"$gte": qty},
		},
		bson.M{"$inc": bson.M{"stock": -qty}},
	)
	if err != nil {
		return fmt.Errorf("reserve stock: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// Nothing matched: figure out whether the product is gone, inactive,
	// or just short on stock.
	var product models.Product
	err = db.ProductsCollection.FindOne(ctx, bson.M{"productid": productID}).Decode(&product)
	if err == mongo.ErrNoDocuments {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("reserve stock lookup: %w", err)
	}
	if !product.Active {
		return ErrUnavailable
	}
	return ErrOutOfStock
}

// ReleaseStock returns previously reserved quantity, used when a pending
// order is cancelled or expires.
func ReleaseStock(ctx context.Context, productID string, qty int) error {
	if qty <= 0 {
		return nil
	}
	_, err := db.ProductsCollection.UpdateOne(ctx,
		bson.M{"productid": productID},
		bson.M{"$inc": bson.M{"stock": qty}},
	)
	if err != nil {
		return fmt.Errorf("release stock: %w", err)
	}
	return nil
}
