package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// HTTPSMSSender posts rendered texts to an SMS gateway.
type HTTPSMSSender struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

func NewHTTPSMSSender(endpoint, apiKey string) *HTTPSMSSender {
	return &HTTPSMSSender{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *HTTPSMSSender) Send(ctx context.Context, to, text string) error {
	body, err := json.Marshal(map[string]string{"to": to, "text": text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	res, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		raw, _ := io.ReadAll(res.Body)
		return fmt.Errorf("sms gateway returned %d: %s", res.StatusCode, string(raw))
	}
	return nil
}

// LogSMSSender is the dev fallback when no gateway is configured.
type LogSMSSender struct{}

func (LogSMSSender) Send(_ context.Context, to, text string) error {
	log.Printf("[sms] to=%s text=%q", to, text)
	return nil
}
