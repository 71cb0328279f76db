// Package calendar is the one-way calendar export collaborator. The
// exporter is an injected capability with an explicit state instead of
// process-wide enabled/initialized flags.
package calendar

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ginecare/booking-platform/internal/events"
	"github.com/ginecare/booking-platform/pkg/logging"
)

// State describes whether the exporter can accept appointments.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateDisabled
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateDisabled:
		return "disabled"
	default:
		return "uninitialized"
	}
}

// Exporter pushes appointment events to an external calendar. Export
// failures must never un-book an appointment; callers run the exporter
// behind the outbox deliverer.
type Exporter interface {
	State() State
	Export(ctx context.Context, entry events.OutboxEntry) error
}

// PushExporter POSTs raw event payloads to a configured endpoint.
type PushExporter struct {
	url    string
	token  string
	client *http.Client
	logger *logging.Logger
}

// NewPushExporter creates an exporter for the given endpoint. An empty URL
// yields a disabled exporter rather than a nil one.
func NewPushExporter(url, token string, logger *logging.Logger) *PushExporter {
	if logger == nil {
		logger = logging.Default()
	}
	return &PushExporter{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

func (e *PushExporter) State() State {
	if e == nil || e.client == nil {
		return StateUninitialized
	}
	if e.url == "" {
		return StateDisabled
	}
	return StateReady
}

// Export pushes one event. Disabled and uninitialized exporters skip
// silently so bookings proceed without the integration.
func (e *PushExporter) Export(ctx context.Context, entry events.OutboxEntry) error {
	if e.State() != StateReady {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(entry.Payload))
	if err != nil {
		return fmt.Errorf("calendar: build export request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Type", entry.Type)
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("calendar: export: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("calendar: export returned status %d", resp.StatusCode)
	}
	e.logger.Debug("calendar event exported", "type", entry.Type, "event_id", entry.ID)
	return nil
}

// Handler adapts an Exporter to the outbox deliverer.
type Handler struct {
	exporter Exporter
}

func NewHandler(exporter Exporter) *Handler {
	return &Handler{exporter: exporter}
}

// Handle implements events.DeliveryHandler.
func (h *Handler) Handle(ctx context.Context, entry events.OutboxEntry) error {
	if h == nil || h.exporter == nil {
		return nil
	}
	return h.exporter.Export(ctx, entry)
}
