package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// queueSize bounds the pending intervention queue. Interventions arrive at
// most once per cooldown window, so a small buffer is plenty.
const queueSize = 16

// webhookTimeout bounds each webhook delivery attempt.
const webhookTimeout = 5 * time.Second

// Dispatcher fans intervention events out to notifications and an optional
// webhook. Submission never blocks the scoring pipeline: when the queue is
// full the event is dropped and logged.
type Dispatcher struct {
	queue      chan Intervention
	webhookURL string
	client     *http.Client
	notify     func(Intervention) error
	log        zerolog.Logger
}

// NewDispatcher creates a dispatcher. webhookURL may be empty, in which case
// only desktop notifications are sent.
func NewDispatcher(webhookURL string, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		queue:      make(chan Intervention, queueSize),
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: webhookTimeout},
		notify:     Notify,
		log:        log,
	}
}

// Dispatch enqueues an intervention for delivery. It never blocks: if the
// queue is full the intervention is dropped.
func (d *Dispatcher) Dispatch(iv Intervention) {
	select {
	case d.queue <- iv:
	default:
		d.log.Warn().
			Str("session_id", iv.SessionID).
			Float64("band", iv.Event.Band).
			Msg("dispatch queue full, dropping intervention")
	}
}

// Run delivers queued interventions until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case iv := <-d.queue:
			d.deliver(ctx, iv)
		}
	}
}

// deliver sends one intervention to every configured sink. Delivery failures
// are logged but never propagated: a broken webhook must not stop tracking.
func (d *Dispatcher) deliver(ctx context.Context, iv Intervention) {
	d.log.Info().
		Str("session_id", iv.SessionID).
		Float64("band", iv.Event.Band).
		Float64("score", iv.Event.Score).
		Time("at", iv.Event.Timestamp).
		Msg("intervention")

	if err := d.notify(iv); err != nil {
		d.log.Warn().Err(err).Msg("desktop notification failed")
	}

	if d.webhookURL != "" {
		if err := d.postWebhook(ctx, iv); err != nil {
			d.log.Warn().Err(err).Str("url", d.webhookURL).Msg("webhook delivery failed")
		}
	}
}

// postWebhook POSTs the intervention as JSON to the configured URL.
func (d *Dispatcher) postWebhook(ctx context.Context, iv Intervention) error {
	body, err := json.Marshal(iv)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, webhookTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}
