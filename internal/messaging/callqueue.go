package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/model"
)

// resultBatchLimit caps how many results one CollectResults call
// pulls, so a chatty dialer cannot stall a cycle.
const resultBatchLimit = 50

// CallQueue implements the automation loop's CallQueue contract over
// RabbitMQ. Draining moves pending calls onto the shared dialer
// queue; the dialer writes outcomes to the tenant's results queue.
type CallQueue struct {
	rabbit *RabbitClient
	logger *zap.Logger
}

// NewCallQueue wraps a rabbit client.
func NewCallQueue(rabbit *RabbitClient, logger *zap.Logger) *CallQueue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CallQueue{rabbit: rabbit, logger: logger}
}

// Enqueue publishes one outbound call to the tenant's pending queue.
func (q *CallQueue) Enqueue(ctx context.Context, call model.OutboundCall) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(call)
	if err != nil {
		return fmt.Errorf("marshal call: %w", err)
	}
	return q.rabbit.Publish(callQueueName(call.TenantID.String()), body)
}

// Drain moves up to max pending calls to the dialer queue and returns
// how many were handed over. A mid-drain publish failure stops the
// drain; already-moved calls stay counted.
func (q *CallQueue) Drain(ctx context.Context, tenantID uuid.UUID, max int) (int, error) {
	pending := callQueueName(tenantID.String())
	placed := 0
	for placed < max {
		if err := ctx.Err(); err != nil {
			return placed, err
		}
		msg, ok, err := q.rabbit.channel.Get(pending, false)
		if err != nil {
			return placed, fmt.Errorf("get pending call: %w", err)
		}
		if !ok {
			break
		}
		if err := q.rabbit.Publish(dialerQueue, msg.Body); err != nil {
			_ = msg.Nack(false, true) // requeue, retry next cycle
			return placed, err
		}
		_ = msg.Ack(false)
		placed++
	}
	if err := q.rabbit.UpdateQueueDepth(tenantID.String()); err != nil {
		q.logger.Debug("queue depth refresh failed", zap.Error(err))
	}
	return placed, nil
}

// CollectResults pulls completed-call outcomes from the tenant's
// results queue. Malformed payloads are rejected to the dead-letter
// side rather than failing the batch.
func (q *CallQueue) CollectResults(ctx context.Context, tenantID uuid.UUID) ([]model.CallResult, error) {
	queue := resultQueueName(tenantID.String())
	var results []model.CallResult
	for len(results) < resultBatchLimit {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		msg, ok, err := q.rabbit.channel.Get(queue, false)
		if err != nil {
			return results, fmt.Errorf("get call result: %w", err)
		}
		if !ok {
			break
		}
		var result model.CallResult
		if err := json.Unmarshal(msg.Body, &result); err != nil {
			q.logger.Warn("dropping malformed call result",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err))
			_ = msg.Nack(false, false)
			continue
		}
		_ = msg.Ack(false)
		results = append(results, result)
	}
	return results, nil
}
