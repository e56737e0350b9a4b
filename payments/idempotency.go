package payments

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"kilnhouse/db"
	"kilnhouse/models"
	"kilnhouse/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InitIdempotencyIndexes creates the unique key index and the TTL index
// that expires stored replays after a day.
func InitIdempotencyIndexes(ctx context.Context) error {
	idxs := []mongo.IndexModel{
		{
			Keys:    bson.M{"key": 1},
			Options: options.Index().SetUnique(true).SetName("unique_key"),
		},
		{
			Keys:    bson.M{"expires_at": 1},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_expires_at"),
		},
	}
	_, err := db.IdempotencyCollection.Indexes().CreateMany(ctx, idxs)
	return err
}

func computeRequestHash(r *http.Request, bodyBytes []byte, userID string) string {
	h := sha256.New()
	h.Write([]byte(r.Method + ":" + r.URL.Path + ":" + userID + ":"))
	h.Write(bodyBytes)
	return hex.EncodeToString(h.Sum(nil))
}

// CaptureResponseWriter wraps http.ResponseWriter to capture status and body.
type CaptureResponseWriter struct {
	w           http.ResponseWriter
	statusCode  int
	buf         bytes.Buffer
	wroteHeader bool
}

func NewCaptureResponseWriter(w http.ResponseWriter) *CaptureResponseWriter {
	return &CaptureResponseWriter{w: w, statusCode: http.StatusOK}
}

func (c *CaptureResponseWriter) Header() http.Header {
	return c.w.Header()
}

func (c *CaptureResponseWriter) WriteHeader(statusCode int) {
	if !c.wroteHeader {
		c.statusCode = statusCode
		c.w.WriteHeader(statusCode)
		c.wroteHeader = true
	}
}

func (c *CaptureResponseWriter) Write(b []byte) (int, error) {
	c.buf.Write(b)
	return c.w.Write(b)
}

func (c *CaptureResponseWriter) Status() int {
	return c.statusCode
}

func (c *CaptureResponseWriter) BodyBytes() []byte {
	return c.buf.Bytes()
}

func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if we, ok := err.(mongo.WriteException); ok {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	return false
}

// IdempotencyMiddleware replays the stored response when a client retries a
// mutating request with the same Idempotency-Key. Without the header it is a
// pass-through. The unique index makes the insert the arbiter: whoever
// inserts first runs the handler, everyone else waits on the stored result.
// A same-key request with a different body is a client bug and gets 409.
func IdempotencyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("Idempotency-Key")
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		userID := utils.GetUserIDFromRequest(r)

		bodyBytes, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(bodyBytes))

		reqHash := computeRequestHash(r, bodyBytes, userID)
		now := time.Now()
		rec := models.IdempotencyRecord{
			Key:         key,
			Method:      r.Method,
			Path:        r.URL.Path,
			UserID:      userID,
			RequestHash: reqHash,
			CreatedAt:   now,
			ExpiresAt:   now.Add(24 * time.Hour),
		}

		ctx := r.Context()
		_, err = db.IdempotencyCollection.InsertOne(ctx, rec)
		if err == nil {
			crw := NewCaptureResponseWriter(w)
			next.ServeHTTP(crw, r)

			var parsed interface{}
			if err := json.Unmarshal(crw.BodyBytes(), &parsed); err != nil {
				parsed = string(crw.BodyBytes())
			}
			_, _ = db.IdempotencyCollection.UpdateOne(ctx,
				bson.M{"key": key},
				bson.M{"$set": bson.M{"response": map[string]interface{}{
					"status": crw.Status(),
					"body":   parsed,
				}}},
			)
			return
		}

		if !isDuplicateKeyError(err) {
			http.Error(w, "idempotency lookup error", http.StatusInternalServerError)
			return
		}

		var existing models.IdempotencyRecord
		if err := db.IdempotencyCollection.FindOne(ctx, bson.M{"key": key}).Decode(&existing); err != nil {
			http.Error(w, "idempotency lookup error", http.StatusInternalServerError)
			return
		}

		if existing.RequestHash != reqHash {
			http.Error(w, "idempotency-key conflict", http.StatusConflict)
			return
		}

		if existing.Response != nil {
			statusFloat, _ := existing.Response["status"].(float64)
			status := int(statusFloat)
			if status == 0 {
				status = http.StatusOK
			}
			utils.RespondWithJSON(w, status, existing.Response["body"])
			return
		}

		// First request is still in flight and has not stored its response
		// yet. Run the handler; verification itself is idempotent.
		next.ServeHTTP(w, r)
	})
}
