package notification

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/Akechi360/clinic-ops/internal"
	"github.com/Akechi360/clinic-ops/internal/core/events"
)

// Message is the wire shape accepted by the ntfy-compatible relay.
type Message struct {
	Topic    string   `json:"topic"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Priority int      `json:"priority,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

const (
	PriorityDefault = 3
	PriorityHigh    = 4
)

// Dispatcher pushes messages to the relay. Delivery is fire-and-forget:
// failures are logged and never propagated, and nothing is retried.
type Dispatcher struct {
	client *resty.Client
	cfg    internal.NotificationConfig
	logger *slog.Logger
}

func NewDispatcher(cfg internal.NotificationConfig, logger *slog.Logger) *Dispatcher {
	client := resty.New().
		SetBaseURL(cfg.RelayURL).
		SetTimeout(cfg.Timeout)

	return &Dispatcher{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// Notify sends one message. The error surface is deliberately void.
func (d *Dispatcher) Notify(ctx context.Context, msg Message) {
	if !d.cfg.Enabled {
		return
	}
	if msg.Topic == "" {
		msg.Topic = d.cfg.DefaultTopic
	}
	if msg.Priority == 0 {
		msg.Priority = PriorityDefault
	}

	resp, err := d.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(msg).
		Post("/")
	if err != nil {
		d.logger.Warn("notification delivery failed", "title", msg.Title, "error", err)
		return
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		d.logger.Warn("notification relay rejected message",
			"title", msg.Title,
			"status", resp.StatusCode())
	}
}

// SubscribeAll registers the dispatcher on every domain event topic.
func (d *Dispatcher) SubscribeAll(bus *events.EventBus) {
	bus.Subscribe(events.TypeTicketCreated, d.handleEvent)
	bus.Subscribe(events.TypeApprovalCreated, d.handleEvent)
	bus.Subscribe(events.TypeApprovalDecided, d.handleEvent)
	bus.Subscribe(events.TypeMaintenanceUpdated, d.handleEvent)
}

func (d *Dispatcher) handleEvent(ctx context.Context, event events.Event) error {
	data, _ := event.Payload().(map[string]interface{})

	msg := Message{Priority: PriorityDefault}
	switch event.EventType() {
	case events.TypeTicketCreated:
		msg.Title = "New support ticket"
		msg.Message = fmt.Sprintf("%s: %s (reported by %s)",
			str(data, "display_id"), str(data, "subject"), str(data, "reporter"))
		msg.Tags = []string{"ticket"}
	case events.TypeApprovalCreated:
		msg.Title = "New approval request"
		msg.Message = fmt.Sprintf("%s: %s (requested by %s)",
			str(data, "display_id"), str(data, "subject"), str(data, "requester"))
		msg.Tags = []string{"approval"}
	case events.TypeApprovalDecided:
		decision := str(data, "decision")
		msg.Title = fmt.Sprintf("Approval request %s", decision)
		msg.Message = fmt.Sprintf("%s: %s (%s by %s)",
			str(data, "display_id"), str(data, "subject"), decision, str(data, "approver"))
		msg.Tags = []string{"approval", decision}
		if decision == "rejected" {
			msg.Priority = PriorityHigh
		}
	case events.TypeMaintenanceUpdated:
		msg.Title = "Maintenance case updated"
		msg.Message = fmt.Sprintf("%s: %s is now %s",
			str(data, "display_id"), str(data, "title"), str(data, "status"))
		msg.Tags = []string{"maintenance"}
	default:
		return nil
	}

	d.Notify(ctx, msg)
	return nil
}

func str(data map[string]interface{}, key string) string {
	if data == nil {
		return ""
	}
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}
