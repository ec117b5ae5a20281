package service

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"

	"resident-sim-be/internal/constant"
	"resident-sim-be/internal/pkg/logger"
	"resident-sim-be/pkg/rag"
)

// IConsumerService warms case indexes in the background so the first chat
// exchange against a fresh case does not pay the full ingestion cost.
type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber message.Subscriber
	topic      string
	cases      ICaseService
	retriever  *rag.Retriever
	log        logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topic string,
	cases ICaseService,
	retriever *rag.Retriever,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topic:      topic,
		cases:      cases,
		retriever:  retriever,
		log:        log,
	}
}

func (c *consumerService) Consume(ctx context.Context) error {
	messages, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		return err
	}

	for msg := range messages {
		caseID := string(msg.Payload)
		c.warm(ctx, caseID)
		msg.Ack()
	}

	return nil
}

func (c *consumerService) warm(ctx context.Context, caseID string) {
	cs := c.cases.Resolve(caseID)

	for _, phase := range []string{constant.PhaseHistory, constant.PhaseExam} {
		ns := c.cases.Namespace(cs.ID, phase)
		if err := c.retriever.EnsureIndex(ctx, ns, c.cases.DocForPhase(cs, phase)); err != nil {
			c.log.Warn("consumer", "index warm failed", map[string]interface{}{
				"case_id": cs.ID,
				"phase":   phase,
				"error":   err.Error(),
			})
			continue
		}
		c.log.Info("consumer", "index warmed", map[string]interface{}{
			"case_id": cs.ID,
			"phase":   phase,
			"chunks":  c.retriever.ChunkCount(ns),
		})
	}
}
