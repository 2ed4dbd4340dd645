package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// WhatsApp posts messages to an HTTP WhatsApp gateway.
type WhatsApp struct {
	url    string
	token  string
	client *http.Client
}

func NewWhatsApp(url, token string, timeout time.Duration) *WhatsApp {
	return &WhatsApp{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: timeout},
	}
}

type whatsAppMessage struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

func (w *WhatsApp) Send(ctx context.Context, phone, message string) error {
	body, err := json.Marshal(whatsAppMessage{Phone: phone, Message: message})
	if err != nil {
		return errors.Wrap(err, "marshal message")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "creating request")
	}
	req.Header.Set("Content-Type", "application/json")
	if w.token != "" {
		req.Header.Set("Authorization", "Bearer "+w.token)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "whatsapp request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return errors.Errorf("whatsapp gateway error (%d): %s", resp.StatusCode, string(b))
	}
	return nil
}
