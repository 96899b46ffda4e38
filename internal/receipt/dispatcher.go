// Package receipt delivers best-effort read receipts after a secret
// has been consumed. Delivery failures are logged and swallowed; they
// never reach the consumer of the secret.
package receipt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"secretlink/internal/domain"
)

// Receipt is the notification payload for a consumed secret. Target is
// the decrypted contact value for the channel: an email address, a
// phone number, or a webhook topic id.
type Receipt struct {
	Channel domain.ReceiptChannel
	Target  string
	Alias   string
	Locale  string
}

// Dispatcher sends a receipt over its channel.
type Dispatcher interface {
	Dispatch(ctx context.Context, r Receipt) error
}

type template struct {
	subject string
	body    string
}

// Fixed notification templates, parameterized by alias and locale.
var templates = map[string]template{
	"en": {
		subject: "Secret has been viewed",
		body:    "The following secret has been viewed and destroyed: %s",
	},
	"de": {
		subject: "Geheimnis zerstört",
		body:    "Das folgende Geheimnis wurde gelesen und zerstört: %s",
	},
	"fr": {
		subject: "Secret détruit",
		body:    "Le secret suivant a été lu et détruit: %s",
	},
}

func templateFor(locale string) template {
	if t, ok := templates[locale]; ok {
		return t
	}
	return templates["en"]
}

// Config holds the outbound endpoints for each channel.
type Config struct {
	// WebhookBaseURL is the base of the publish-subscribe relay; the
	// webhook id recorded on the secret is appended as the topic.
	WebhookBaseURL string

	// EmailEndpoint and SMSEndpoint are provider API URLs accepting a
	// JSON body. APIKey is sent on both.
	EmailEndpoint string
	SMSEndpoint   string
	APIKey        string

	Timeout time.Duration
}

// HTTPDispatcher delivers receipts over outbound HTTP calls.
type HTTPDispatcher struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

func NewHTTPDispatcher(cfg Config, logger *zap.Logger) *HTTPDispatcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPDispatcher{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (d *HTTPDispatcher) Dispatch(ctx context.Context, r Receipt) error {
	var err error
	switch r.Channel {
	case domain.ReceiptChannelWebhook:
		err = d.sendWebhook(ctx, r)
	case domain.ReceiptChannelEmail:
		err = d.sendEmail(ctx, r)
	case domain.ReceiptChannelSMS:
		err = d.sendSMS(ctx, r)
	default:
		err = fmt.Errorf("unknown receipt channel %q", r.Channel)
	}
	if err != nil {
		d.logger.Warn("receipt dispatch failed",
			zap.String("channel", string(r.Channel)),
			zap.String("alias", r.Alias),
			zap.Error(err))
	}
	return err
}

// sendWebhook publishes to an ntfy-style topic. The contact value is a
// topic id, so it never appears in logs even though it is not an
// address per se.
func (d *HTTPDispatcher) sendWebhook(ctx context.Context, r Receipt) error {
	if d.cfg.WebhookBaseURL == "" {
		return fmt.Errorf("webhook base url not configured")
	}
	tpl := templateFor(r.Locale)

	endpoint := strings.TrimSuffix(d.cfg.WebhookBaseURL, "/") + "/" + url.PathEscape(r.Target)
	body := fmt.Sprintf(tpl.body, r.Alias)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Title", tpl.subject)
	req.Header.Set("Priority", "urgent")
	req.Header.Set("Tags", "fire")

	return d.do(req)
}

func (d *HTTPDispatcher) sendEmail(ctx context.Context, r Receipt) error {
	if d.cfg.EmailEndpoint == "" {
		return fmt.Errorf("email endpoint not configured")
	}
	tpl := templateFor(r.Locale)

	payload := map[string]string{
		"to":      r.Target,
		"subject": tpl.subject,
		"text":    fmt.Sprintf(tpl.body, r.Alias),
	}
	return d.postJSON(ctx, d.cfg.EmailEndpoint, payload)
}

func (d *HTTPDispatcher) sendSMS(ctx context.Context, r Receipt) error {
	if d.cfg.SMSEndpoint == "" {
		return fmt.Errorf("sms endpoint not configured")
	}
	tpl := templateFor(r.Locale)

	payload := map[string]string{
		"to":   "+" + strings.TrimPrefix(r.Target, "+"),
		"text": fmt.Sprintf(tpl.body, r.Alias),
	}
	return d.postJSON(ctx, d.cfg.SMSEndpoint, payload)
}

func (d *HTTPDispatcher) postJSON(ctx context.Context, endpoint string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if d.cfg.APIKey != "" {
		req.Header.Set("X-API-KEY", d.cfg.APIKey)
	}
	return d.do(req)
}

func (d *HTTPDispatcher) do(req *http.Request) error {
	res, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", res.StatusCode)
	}
	return nil
}
