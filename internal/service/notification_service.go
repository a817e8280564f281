package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/sales-assistant/internal/config"
	"github.com/spec-kit/sales-assistant/internal/events"
)

// NotificationService turns account and pipeline events into operator notifications.
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
	n.dispatcher.Subscribe(events.EventUserRegistered, n.handleUserRegistered)
	n.dispatcher.Subscribe(events.EventUserApproved, n.handleUserApproved)
	n.dispatcher.Subscribe(events.EventCustomerCreated, n.handleCustomerCreated)
	n.dispatcher.Subscribe(events.EventKnowledgeAdded, n.handleKnowledgeAdded)
}

// handleUserRegistered tells the operator that an account is waiting for approval.
func (n *NotificationService) handleUserRegistered(ctx context.Context, event events.Event) error {
	n.logger.Info("UserRegistered: approval required",
		zap.String("user_id", event.SubjectID),
		zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleUserApproved(ctx context.Context, event events.Event) error {
	n.logger.Info("UserApproved",
		zap.String("user_id", event.SubjectID),
		zap.String("approved_by", event.ActorID))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleCustomerCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("CustomerCreated",
		zap.String("customer_id", event.SubjectID),
		zap.String("owner_id", event.ActorID),
		zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleKnowledgeAdded(_ context.Context, event events.Event) error {
	n.logger.Debug("KnowledgeAdded",
		zap.String("fact_id", event.SubjectID),
		zap.String("owner_id", event.ActorID),
		zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("subject_id", event.SubjectID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("subject_id", event.SubjectID),
		zap.String("event_type", string(event.Type)))
}
