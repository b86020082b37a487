package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ntdung97/spacebook/internal/adapter/payment/payos"
	"github.com/ntdung97/spacebook/internal/core/services"
)

// WebhookHandler receives payment-provider callbacks. The response is always
// a generic success so the provider learns nothing about internal validation;
// a payload that fails signature verification is logged and simply not acted
// on.
type WebhookHandler struct {
	svc         *services.LifecycleService
	checksumKey string
}

func NewWebhookHandler(svc *services.LifecycleService, checksumKey string) *WebhookHandler {
	return &WebhookHandler{svc: svc, checksumKey: checksumKey}
}

type webhookBody struct {
	Code      string         `json:"code"`
	Desc      string         `json:"desc"`
	Success   bool           `json:"success"`
	Data      map[string]any `json:"data"`
	Signature string         `json:"signature"`
}

func (h *WebhookHandler) Handle(c *gin.Context) {
	ack := gin.H{"code": "00", "desc": "success"}

	var body webhookBody
	if err := c.ShouldBindJSON(&body); err != nil {
		log.Printf("[webhook] malformed body: %v", err)
		c.JSON(http.StatusOK, ack)
		return
	}

	if !payos.Verify(body.Data, body.Signature, h.checksumKey) {
		log.Printf("[webhook] signature mismatch for order %v", body.Data["orderCode"])
		c.JSON(http.StatusOK, ack)
		return
	}

	orderCode, ok := numberField(body.Data, "orderCode")
	if !ok {
		log.Printf("[webhook] payload without orderCode")
		c.JSON(http.StatusOK, ack)
		return
	}
	amount, _ := numberField(body.Data, "amount")

	if body.Success && body.Code == "00" {
		method, _ := body.Data["paymentMethod"].(string)
		if method == "" {
			method = "provider"
		}
		if err := h.svc.HandleWebhookPaid(c.Request.Context(), orderCode, amount, method); err != nil {
			log.Printf("[webhook] handle paid for order %d: %v", orderCode, err)
		}
	} else {
		h.svc.RecordFailedAttempt(c.Request.Context(), orderCode)
	}

	c.JSON(http.StatusOK, ack)
}

// numberField extracts an integer field from decoded JSON, where numbers
// arrive as float64.
func numberField(data map[string]any, key string) (int64, bool) {
	switch v := data[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	default:
		return 0, false
	}
}
