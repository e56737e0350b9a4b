package invoice

import (
	"context"
	"fmt"
	"time"

	"kilnhouse/db"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FormatNumber renders an invoice number like INV-2024-0042. The sequence
// is zero-padded to four digits but grows past 9999 without truncation.
func FormatNumber(prefix string, year, seq int) string {
	if prefix == "" {
		prefix = "INV"
	}
	return fmt.Sprintf("%s-%d-%04d", prefix, year, seq)
}

// NextSeq atomically claims the next sequence number for the given year
// from a per-year counter document. Concurrent callers each get a distinct
// value; the counter is created on first use.
func NextSeq(ctx context.Context, year int) (int, error) {
	filter := bson.M{"_id": fmt.Sprintf("invoice-%d", year)}
	update := bson.M{"$inc": bson.M{"seq": 1}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var counter struct {
		Seq int `bson:"seq"`
	}
	if err := db.CountersCollection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&counter); err != nil {
		return 0, fmt.Errorf("invoice counter: %w", err)
	}
	return counter.Seq, nil
}

// NextNumber claims and formats the next invoice number for "now"'s year.
func NextNumber(ctx context.Context, prefix string, now time.Time) (string, error) {
	seq, err := NextSeq(ctx, now.Year())
	if err != nil {
		return "", err
	}
	return FormatNumber(prefix, now.Year(), seq), nil
}
