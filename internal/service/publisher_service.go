package service

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// IPublisherService announces cases whose indexes should be warmed.
type IPublisherService interface {
	PublishIndexWarm(caseID string) error
}

type publisherService struct {
	topic     string
	publisher message.Publisher
}

func NewPublisherService(topic string, publisher message.Publisher) IPublisherService {
	return &publisherService{
		topic:     topic,
		publisher: publisher,
	}
}

func (p *publisherService) PublishIndexWarm(caseID string) error {
	msg := message.NewMessage(watermill.NewUUID(), []byte(caseID))
	return p.publisher.Publish(p.topic, msg)
}
