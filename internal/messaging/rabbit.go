// Package messaging adapts RabbitMQ to the control plane's CallQueue
// and Notifier contracts. Each tenant gets a durable pending-calls
// queue with a dead-letter queue, plus a results queue fed by the
// dialer.
package messaging

import (
	"fmt"

	"github.com/streadway/amqp"

	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/metrics"
)

const dialerQueue = "dialer_calls"

type RabbitClient struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	URL     string
}

func NewRabbitClient(url string) (*RabbitClient, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	return &RabbitClient{
		conn:    conn,
		channel: ch,
		URL:     url,
	}, nil
}

func (r *RabbitClient) GetChannel() *amqp.Channel {
	return r.channel
}

func (r *RabbitClient) GetConnection() *amqp.Connection {
	return r.conn
}

// DeclareTenantQueues creates the durable per-tenant queues: pending
// calls (dead-lettered on reject), call results, and the shared
// dialer queue.
func (r *RabbitClient) DeclareTenantQueues(tenantID string) error {
	callQueue := callQueueName(tenantID)
	dlqName := fmt.Sprintf("tenant_%s_calls_dlq", tenantID)
	resultQueue := resultQueueName(tenantID)

	if _, err := r.channel.QueueDeclare(dlqName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}

	args := amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": dlqName,
	}
	if _, err := r.channel.QueueDeclare(callQueue, true, false, false, false, args); err != nil {
		return fmt.Errorf("declare call queue: %w", err)
	}
	if _, err := r.channel.QueueDeclare(resultQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare result queue: %w", err)
	}
	if _, err := r.channel.QueueDeclare(dialerQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare dialer queue: %w", err)
	}
	return nil
}

// Publish sends a message to the named queue via the default
// exchange.
func (r *RabbitClient) Publish(queue string, body []byte) error {
	err := r.channel.Publish(
		"",    // default exchange
		queue, // routing key (queue name)
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to queue %s: %w", queue, err)
	}
	return nil
}

// Close cleans up connection and channel
func (r *RabbitClient) Close() error {
	if err := r.channel.Close(); err != nil {
		return err
	}
	return r.conn.Close()
}

// UpdateQueueDepth refreshes the pending-calls gauge for a tenant.
func (r *RabbitClient) UpdateQueueDepth(tenantID string) error {
	q, err := r.channel.QueueInspect(callQueueName(tenantID))
	if err != nil {
		return fmt.Errorf("inspect queue for %s: %w", tenantID, err)
	}
	metrics.QueueDepth.WithLabelValues(tenantID).Set(float64(q.Messages))
	return nil
}

func callQueueName(tenantID string) string {
	return fmt.Sprintf("tenant_%s_calls", tenantID)
}

func resultQueueName(tenantID string) string {
	return fmt.Sprintf("tenant_%s_results", tenantID)
}
