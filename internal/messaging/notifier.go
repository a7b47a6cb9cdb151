package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/model"
)

const notificationQueue = "tenant_notifications"

// Notifier publishes alerts and daily reports to the notification
// queue, where the delivery service (email/WhatsApp) consumes them.
type Notifier struct {
	rabbit *RabbitClient
	logger *zap.Logger
}

// NewNotifier wraps a rabbit client. It declares the notification
// queue up front so publishes cannot race the consumer's declare.
func NewNotifier(rabbit *RabbitClient, logger *zap.Logger) (*Notifier, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := rabbit.channel.QueueDeclare(notificationQueue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare notification queue: %w", err)
	}
	return &Notifier{rabbit: rabbit, logger: logger}, nil
}

type notification struct {
	Kind     string            `json:"kind"` // "alert" or "daily_report"
	TenantID string            `json:"tenant_id"`
	Email    string            `json:"email,omitempty"`
	Phone    string            `json:"phone,omitempty"`
	Subject  string            `json:"subject,omitempty"`
	Message  string            `json:"message,omitempty"`
	Stats    *model.DailyStats `json:"stats,omitempty"`
	SentAt   time.Time         `json:"sent_at"`
}

// SendAlert publishes a one-off alert for a tenant.
func (n *Notifier) SendAlert(ctx context.Context, tenant model.Tenant, subject, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return n.publish(notification{
		Kind:     "alert",
		TenantID: tenant.ID.String(),
		Email:    tenant.Email,
		Phone:    tenant.Phone,
		Subject:  subject,
		Message:  message,
		SentAt:   time.Now().UTC(),
	})
}

// SendDailyReport publishes a tenant's end-of-day stats.
func (n *Notifier) SendDailyReport(ctx context.Context, tenant model.Tenant, stats model.DailyStats) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return n.publish(notification{
		Kind:     "daily_report",
		TenantID: tenant.ID.String(),
		Email:    tenant.Email,
		Stats:    &stats,
		SentAt:   time.Now().UTC(),
	})
}

func (n *Notifier) publish(msg notification) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := n.rabbit.Publish(notificationQueue, body); err != nil {
		return err
	}
	n.logger.Debug("notification published",
		zap.String("kind", msg.Kind),
		zap.String("tenant_id", msg.TenantID))
	return nil
}
