package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sign(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	secret := "test_secret"
	sig := sign("order_ABC123", "pay_XYZ789", secret)

	assert.True(t, VerifySignature("order_ABC123", "pay_XYZ789", sig, secret))
	assert.False(t, VerifySignature("order_ABC123", "pay_XYZ789", sig, "other_secret"))
	assert.False(t, VerifySignature("order_other", "pay_XYZ789", sig, secret))
	assert.False(t, VerifySignature("order_ABC123", "pay_other", sig, secret))
	assert.False(t, VerifySignature("order_ABC123", "pay_XYZ789", "deadbeef", secret))
}

func TestVerifySignatureEmptyInputs(t *testing.T) {
	secret := "test_secret"
	assert.False(t, VerifySignature("", "pay_XYZ789", sign("", "pay_XYZ789", secret), secret))
	assert.False(t, VerifySignature("order_ABC123", "", sign("order_ABC123", "", secret), secret))
	assert.False(t, VerifySignature("order_ABC123", "pay_XYZ789", "", secret))
}

func TestToPaise(t *testing.T) {
	assert.Equal(t, int64(100), ToPaise(1))
	assert.Equal(t, int64(149999), ToPaise(1499.99))
	assert.Equal(t, int64(1850), ToPaise(18.5))
	assert.Equal(t, int64(0), ToPaise(0))
}
