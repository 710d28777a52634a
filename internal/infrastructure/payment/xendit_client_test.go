package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apporder "github.com/pasarlink/backend/internal/application/order"
	"github.com/pasarlink/backend/internal/infrastructure/config"
)

func newTestClient(baseURL string) *XenditClient {
	return NewXenditClient(config.XenditConfig{
		BaseURL:        baseURL,
		APIKey:         "xnd_development_test",
		InvoiceExpiry:  24 * time.Hour,
		RequestTimeout: time.Second,
	}, zap.NewNop())
}

func TestXenditClient_CreateInvoice(t *testing.T) {
	expiry := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/invoices", r.URL.Path)

		username, password, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "xnd_development_test", username)
		assert.Empty(t, password)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "SO-20260829-00001", body["external_id"])
		assert.Equal(t, "IDR", body["currency"])
		assert.Equal(t, float64(24*60*60), body["invoice_duration"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":          "inv-123",
			"invoice_url": "https://checkout.xendit.co/web/inv-123",
			"expiry_date": expiry,
			"status":      "PENDING",
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	invoice, err := client.CreateInvoice(context.Background(), apporder.InvoiceRequest{
		ExternalID:  "SO-20260829-00001",
		Amount:      decimal.NewFromInt(166500),
		PayerEmail:  "sari@example.com",
		Description: "Order SO-20260829-00001",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.xendit.co/web/inv-123", invoice.URL)
	assert.True(t, invoice.ExpiresAt.Equal(expiry))
}

func TestXenditClient_CreateInvoice_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error_code": "DUPLICATE_PAYMENT_REQUEST_ERROR",
			"message":    "external_id already used",
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.CreateInvoice(context.Background(), apporder.InvoiceRequest{
		ExternalID: "SO-20260829-00001",
		Amount:     decimal.NewFromInt(166500),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DUPLICATE_PAYMENT_REQUEST_ERROR")
}

func TestXenditClient_CreateInvoice_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "inv-123"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.CreateInvoice(context.Background(), apporder.InvoiceRequest{
		ExternalID: "SO-20260829-00002",
		Amount:     decimal.NewFromInt(1000),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invoice_url")
}
