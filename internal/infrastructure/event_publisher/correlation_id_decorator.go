package event_publisher

import (
	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// CorrelationPublisherDecorator stamps every outgoing message with the
// correlation id from its context, minting one when the publish did not
// originate in a correlated request (scheduler cycles).
type CorrelationPublisherDecorator struct {
	message.Publisher
}

func (c CorrelationPublisherDecorator) Publish(topic string, messages ...*message.Message) error {
	for _, msg := range messages {
		correlationID := log.CorrelationIDFromContext(msg.Context())
		if correlationID == "" {
			correlationID = uuid.NewString()
		}
		msg.Metadata.Set("correlation_id", correlationID)
	}
	return c.Publisher.Publish(topic, messages...)
}
