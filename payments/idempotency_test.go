package payments

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeRequestHashStable(t *testing.T) {
	body := []byte(`{"entityType":"booking","entityId":"abc"}`)

	r1 := httptest.NewRequest("POST", "/api/payments/verify", bytes.NewReader(body))
	r2 := httptest.NewRequest("POST", "/api/payments/verify", bytes.NewReader(body))
	assert.Equal(t, computeRequestHash(r1, body, "u1"), computeRequestHash(r2, body, "u1"))
}

func TestComputeRequestHashVaries(t *testing.T) {
	body := []byte(`{"entityType":"booking","entityId":"abc"}`)
	r := httptest.NewRequest("POST", "/api/payments/verify", bytes.NewReader(body))

	base := computeRequestHash(r, body, "u1")
	assert.NotEqual(t, base, computeRequestHash(r, body, "u2"), "user is part of the hash")
	assert.NotEqual(t, base, computeRequestHash(r, []byte(`{"entityId":"xyz"}`), "u1"), "body is part of the hash")

	other := httptest.NewRequest("POST", "/api/other", bytes.NewReader(body))
	assert.NotEqual(t, base, computeRequestHash(other, body, "u1"), "path is part of the hash")
}

func TestCaptureResponseWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	crw := NewCaptureResponseWriter(rec)

	crw.WriteHeader(201)
	crw.WriteHeader(500) // second call must not override
	_, err := crw.Write([]byte(`{"ok":true}`))
	assert.NoError(t, err)

	assert.Equal(t, 201, crw.Status())
	assert.Equal(t, 201, rec.Code)
	assert.Equal(t, `{"ok":true}`, string(crw.BodyBytes()))
	assert.Equal(t, `{"ok":true}`, rec.Body.String())
}

func TestCaptureResponseWriterDefaultsTo200(t *testing.T) {
	crw := NewCaptureResponseWriter(httptest.NewRecorder())
	_, _ = crw.Write([]byte("hi"))
	assert.Equal(t, 200, crw.Status())
}

func TestConfirmerRegistry(t *testing.T) {
	called := ""
	Register("booking", func(_ context.Context, entityID, _, _ string) error {
		called = entityID
		return nil
	})

	fn, ok := confirmerFor("booking")
	assert.True(t, ok)
	assert.NoError(t, fn(context.Background(), "bk123", "order_x", "pay_y"))
	assert.Equal(t, "bk123", called)

	_, ok = confirmerFor("subscription")
	assert.False(t, ok)
}

func TestIsDuplicateKeyError(t *testing.T) {
	assert.False(t, isDuplicateKeyError(nil))
	assert.False(t, isDuplicateKeyError(assert.AnError))
}
