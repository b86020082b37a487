package payos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client issues hosted payment links against the provider's REST API. The
// request body carries a signature over the five core fields so the provider
// can authenticate us with the same shared checksum key it signs webhooks
// with.
type Client struct {
	baseURL     string
	clientID    string
	apiKey      string
	checksumKey string
	returnURL   string
	cancelURL   string
	http        *http.Client
}

func NewClient(baseURL, clientID, apiKey, checksumKey, returnURL, cancelURL string) *Client {
	return &Client{
		baseURL:     baseURL,
		clientID:    clientID,
		apiKey:      apiKey,
		checksumKey: checksumKey,
		returnURL:   returnURL,
		cancelURL:   cancelURL,
		http:        &http.Client{Timeout: 15 * time.Second},
	}
}

type linkRequest struct {
	OrderCode   int64  `json:"orderCode"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	ReturnURL   string `json:"returnUrl"`
	CancelURL   string `json:"cancelUrl"`
	Signature   string `json:"signature"`
}

type linkResponse struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
	Data struct {
		CheckoutURL string `json:"checkoutUrl"`
	} `json:"data"`
}

func (c *Client) CreatePaymentLink(ctx context.Context, orderCode, amount int64, description string) (string, error) {
	req := linkRequest{
		OrderCode:   orderCode,
		Amount:      amount,
		Description: description,
		ReturnURL:   c.returnURL,
		CancelURL:   c.cancelURL,
	}
	req.Signature = Sign(map[string]any{
		"orderCode":   orderCode,
		"amount":      amount,
		"description": description,
		"returnUrl":   c.returnURL,
		"cancelUrl":   c.cancelURL,
	}, c.checksumKey)

	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/payment-requests", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-client-id", c.clientID)
	httpReq.Header.Set("x-api-key", c.apiKey)

	res, err := c.http.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	raw, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", fmt.Errorf("create payment link failed: %s (%d)", string(raw), res.StatusCode)
	}

	var out linkResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("parse payment link response: %w", err)
	}
	if out.Code != "00" {
		return "", fmt.Errorf("provider rejected payment link: %s %s", out.Code, out.Desc)
	}
	return out.Data.CheckoutURL, nil
}
