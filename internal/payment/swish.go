package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"
)

// Request describes a payment request to create at the provider. Reference
// is the order number; it comes back in callbacks as payeePaymentReference.
type Request struct {
	Reference  string
	Amount     int64
	Currency   string
	PayerAlias string
	Message    string
}

// PaymentRequest is the provider's handle on a created payment.
type PaymentRequest struct {
	ID       string
	Location string
	Status   string
}

// Gateway creates payment requests. Status updates arrive later on the
// callback endpoint, not through this interface.
type Gateway interface {
	CreatePaymentRequest(ctx context.Context, req Request) (PaymentRequest, error)
}

// SwishClient talks to the Swish commerce API (or its merchant simulator).
type SwishClient struct {
	BaseURL     string
	PayeeAlias  string
	CallbackURL string
	HTTP        *http.Client
}

func NewSwishClient(baseURL, payeeAlias, callbackURL string) *SwishClient {
	return &SwishClient{
		BaseURL:     baseURL,
		PayeeAlias:  payeeAlias,
		CallbackURL: callbackURL,
		HTTP:        &http.Client{Timeout: 10 * time.Second},
	}
}

type swishPaymentRequest struct {
	PayeePaymentReference string `json:"payeePaymentReference"`
	PayeeAlias            string `json:"payeeAlias"`
	PayerAlias            string `json:"payerAlias,omitempty"`
	Amount                string `json:"amount"`
	Currency              string `json:"currency"`
	Message               string `json:"message,omitempty"`
	CallbackURL           string `json:"callbackUrl"`
}

func (c *SwishClient) CreatePaymentRequest(ctx context.Context, req Request) (PaymentRequest, error) {
	currency := req.Currency
	if currency == "" {
		currency = "SEK"
	}
	body, err := json.Marshal(swishPaymentRequest{
		PayeePaymentReference: req.Reference,
		PayeeAlias:            c.PayeeAlias,
		PayerAlias:            req.PayerAlias,
		Amount:                fmt.Sprintf("%d", req.Amount),
		Currency:              currency,
		Message:               req.Message,
		CallbackURL:           c.CallbackURL,
	})
	if err != nil {
		return PaymentRequest{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/api/v1/paymentrequests", bytes.NewReader(body))
	if err != nil {
		return PaymentRequest{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return PaymentRequest{}, fmt.Errorf("swish request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return PaymentRequest{}, fmt.Errorf("swish request: status %d: %s", resp.StatusCode, snippet)
	}

	location := resp.Header.Get("Location")
	return PaymentRequest{
		ID:       path.Base(location),
		Location: location,
		Status:   StatusCreated,
	}, nil
}
