// Package razorpay is a minimal client for the two gateway calls checkout
// needs: creating an order and verifying the checkout callback signature.
package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

const baseURL = "https://api.razorpay.com/v1"

type Client struct {
	keyID     string
	keySecret string
	http      *http.Client
}

func NewClient() *Client {
	return &Client{
		keyID:     os.Getenv("RAZORPAY_KEY_ID"),
		keySecret: os.Getenv("RAZORPAY_KEY_SECRET"),
		http:      &http.Client{Timeout: 10 * time.Second},
	}
}

// KeyID is handed to the storefront so its checkout widget can open.
func (c *Client) KeyID() string {
	return c.keyID
}

type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// CreateOrder registers a pending amount with the gateway. Amount is in
// paise; the receipt ties the gateway order back to our entity id.
func (c *Client) CreateOrder(ctx context.Context, amountPaise int64, receipt string) (*Order, error) {
	if amountPaise <= 0 {
		return nil, fmt.Errorf("razorpay: non-positive amount %d", amountPaise)
	}

	body, err := json.Marshal(map[string]interface{}{
		"amount":   amountPaise,
		"currency": "INR",
		"receipt":  receipt,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("razorpay: order create failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error struct {
				Description string `json:"description"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return nil, fmt.Errorf("razorpay: order create returned %d: %s", resp.StatusCode, apiErr.Error.Description)
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("razorpay: decode order response: %w", err)
	}
	return &order, nil
}

// VerifySignature checks the HMAC the checkout widget sends back after a
// payment. The gateway signs "<order_id>|<payment_id>" with the key secret.
func (c *Client) VerifySignature(orderID, paymentID, signature string) bool {
	return VerifySignature(orderID, paymentID, signature, c.keySecret)
}

func VerifySignature(orderID, paymentID, signature, secret string) bool {
	if orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ToPaise converts a rupee amount to the integer paise the API expects.
func ToPaise(amount float64) int64 {
	return int64(amount*100 + 0.5)
}
