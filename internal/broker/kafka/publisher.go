package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wb-go/wbf/retry"

	"rentspace/internal/broker"
	"rentspace/internal/domain"
)

// ReprocessPublisher serializes reprocess tasks onto the task topic, keyed by
// photo ID so retries for one photo stay on one partition.
type ReprocessPublisher struct {
	producer broker.Producer
	strategy retry.Strategy
}

func NewReprocessPublisher(producer broker.Producer, strategy retry.Strategy) *ReprocessPublisher {
	return &ReprocessPublisher{producer: producer, strategy: strategy}
}

func (p *ReprocessPublisher) Send(ctx context.Context, task *domain.ReprocessTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal reprocess task: %w", err)
	}
	if err := p.producer.Send(ctx, p.strategy, []byte(task.PhotoID), payload); err != nil {
		return fmt.Errorf("failed to send reprocess task: %w", err)
	}
	return nil
}

func (p *ReprocessPublisher) Close() error {
	return p.producer.Close()
}
