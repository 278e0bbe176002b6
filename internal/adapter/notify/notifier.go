package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/polkiloo/pizzeria/internal/domain/model"
)

// OrderEvent describes an order change shown on kitchen and admin displays.
type OrderEvent struct {
	OrderID  int64
	Number   string
	Previous *model.OrderState
	Current  model.OrderState
	Actor    string
	At       time.Time
}

// Notifier delivers order events to the displays.
type Notifier interface {
	Notify(ctx context.Context, event OrderEvent) error
}

// WebhookNotifier posts events as JSON to a configured URL.
type WebhookNotifier struct {
	endpoint   *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

// payload mirrors JSON body sent to the webhook.
type payload struct {
	OrderID  int64   `json:"order_id"`
	Number   string  `json:"number"`
	Previous *string `json:"previous_state"`
	Current  string  `json:"state"`
	Actor    string  `json:"actor"`
	At       string  `json:"at"`
}

// NewWebhookNotifier creates webhook notifier with default timeout.
func NewWebhookNotifier(endpoint string, logger *slog.Logger) (*WebhookNotifier, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse webhook url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("webhook url must be absolute")
	}
	return &WebhookNotifier{
		endpoint: parsed,
		logger:   logger,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}, nil
}

// Notify posts the event. Any non-2xx answer is an error.
func (n *WebhookNotifier) Notify(ctx context.Context, event OrderEvent) error {
	body := payload{
		OrderID: event.OrderID,
		Number:  event.Number,
		Current: string(event.Current),
		Actor:   event.Actor,
		At:      event.At.UTC().Format(time.RFC3339),
	}
	if event.Previous != nil {
		prev := string(*event.Previous)
		body.Previous = &prev
	}

	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint.String(), bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		n.logger.Error("webhook request failed", slog.Int("status", resp.StatusCode), slog.String("body", string(respBody)))
		return fmt.Errorf("webhook error: %s", resp.Status)
	}
	return nil
}

// LogNotifier writes events to the log when no webhook is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates log-only notifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, event OrderEvent) error {
	attrs := []any{
		slog.Int64("order_id", event.OrderID),
		slog.String("number", event.Number),
		slog.String("state", string(event.Current)),
		slog.String("actor", event.Actor),
		slog.Time("at", event.At),
	}
	if event.Previous != nil {
		attrs = append(attrs, slog.String("previous_state", string(*event.Previous)))
	}
	n.logger.InfoContext(ctx, "order event", attrs...)
	return nil
}
