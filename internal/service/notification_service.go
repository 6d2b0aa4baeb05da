package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/grievance-desk/internal/config"
	"github.com/spec-kit/grievance-desk/internal/events"
)

// NotificationService composes reporter acknowledgements and relays
// domain events to the outbound channel.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketSLABreached, n.handleTicketSLABreached)
}

// ComposeAcknowledgement renders the reply sent to a reporter once their
// ticket is opened.
func ComposeAcknowledgement(ack Acknowledgement) string {
	var b strings.Builder
	b.WriteString("Your grievance has been registered.\n")
	fmt.Fprintf(&b, "Ticket: #%s\n", ack.TicketID)
	fmt.Fprintf(&b, "Category: %s\n", ack.Category)
	fmt.Fprintf(&b, "Assigned to: %s", ack.Officer)
	return b.String()
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return fmt.Errorf("ticket_created: unexpected payload %T", event.Payload)
	}
	text := ComposeAcknowledgement(Acknowledgement{
		TicketID: event.TicketID,
		Officer:  payload.Officer,
		Category: payload.Category,
	})
	n.logger.Info("TicketCreated",
		zap.String("ticket_id", event.TicketID),
		zap.String("officer", payload.Officer),
		zap.String("category", payload.Category))
	if payload.ChatID != "" {
		n.logger.Debug("acknowledgement ready",
			zap.String("chat_id", payload.ChatID),
			zap.String("text", text))
	}
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketStatusChanged", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleTicketSLABreached(ctx context.Context, event events.Event) error {
	n.logger.Warn("TicketSLABreached", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

// sendWebhookNotificationStub logs the delivery it would make. No request is sent.
func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}
