package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apporder "github.com/pasarlink/backend/internal/application/order"
	"github.com/pasarlink/backend/internal/infrastructure/config"
)

// XenditClient issues payment invoices through the Xendit Invoice API.
// It implements the order application's Invoicer port.
type XenditClient struct {
	baseURL       string
	apiKey        string
	invoiceExpiry time.Duration
	httpClient    *http.Client
	logger        *zap.Logger
}

// NewXenditClient creates a new XenditClient from configuration
func NewXenditClient(cfg config.XenditConfig, logger *zap.Logger) *XenditClient {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	expiry := cfg.InvoiceExpiry
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &XenditClient{
		baseURL:       cfg.BaseURL,
		apiKey:        cfg.APIKey,
		invoiceExpiry: expiry,
		httpClient:    &http.Client{Timeout: timeout},
		logger:        logger,
	}
}

type createInvoiceRequest struct {
	ExternalID      string          `json:"external_id"`
	Amount          decimal.Decimal `json:"amount"`
	PayerEmail      string          `json:"payer_email,omitempty"`
	Description     string          `json:"description,omitempty"`
	InvoiceDuration int64           `json:"invoice_duration"`
	Currency        string          `json:"currency"`
}

type createInvoiceResponse struct {
	ID         string    `json:"id"`
	InvoiceURL string    `json:"invoice_url"`
	ExpiryDate time.Time `json:"expiry_date"`
	Status     string    `json:"status"`
}

type apiErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// CreateInvoice issues a payment invoice for the given order reference
func (c *XenditClient) CreateInvoice(ctx context.Context, req apporder.InvoiceRequest) (*apporder.Invoice, error) {
	payload := createInvoiceRequest{
		ExternalID:      req.ExternalID,
		Amount:          req.Amount,
		PayerEmail:      req.PayerEmail,
		Description:     req.Description,
		InvoiceDuration: int64(c.invoiceExpiry.Seconds()),
		Currency:        "IDR",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode invoice request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/invoices", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build invoice request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	// Xendit authenticates with the API key as the basic-auth username
	// and an empty password.
	httpReq.SetBasicAuth(c.apiKey, "")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("invoice request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read invoice response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiErrorResponse
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.ErrorCode != "" {
			c.logger.Warn("invoice creation rejected",
				zap.String("external_id", req.ExternalID),
				zap.String("error_code", apiErr.ErrorCode),
				zap.String("message", apiErr.Message))
			return nil, fmt.Errorf("invoice creation rejected: %s: %s", apiErr.ErrorCode, apiErr.Message)
		}
		return nil, fmt.Errorf("invoice creation failed with status %d", resp.StatusCode)
	}

	var created createInvoiceResponse
	if err := json.Unmarshal(respBody, &created); err != nil {
		return nil, fmt.Errorf("failed to decode invoice response: %w", err)
	}
	if created.InvoiceURL == "" {
		return nil, fmt.Errorf("invoice response missing invoice_url")
	}

	c.logger.Info("invoice created",
		zap.String("external_id", req.ExternalID),
		zap.String("invoice_id", created.ID))

	return &apporder.Invoice{
		URL:       created.InvoiceURL,
		ExpiresAt: created.ExpiryDate,
	}, nil
}
