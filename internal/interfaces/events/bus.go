package events

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
)

var marshaler = jsonMarshaler{
	JSONMarshaler: cqrs.JSONMarshaler{
		GenerateName: cqrs.StructName,
	},
}

// jsonMarshaler tags unmarshal failures so the router can tell a poison
// payload apart from a handler error and drop it instead of retrying.
type jsonMarshaler struct {
	cqrs.JSONMarshaler
}

func (m jsonMarshaler) Unmarshal(msg *message.Message, v interface{}) error {
	if err := m.JSONMarshaler.Unmarshal(msg, v); err != nil {
		return fmt.Errorf("%w: %v", ErrJsonUnmarshal, err)
	}
	return nil
}

func NewEventBus(
	pub message.Publisher,
	logger watermill.LoggerAdapter,
) (*cqrs.EventBus, error) {
	return cqrs.NewEventBusWithConfig(
		pub,
		cqrs.EventBusConfig{
			GeneratePublishTopic: func(params cqrs.GenerateEventPublishTopicParams) (string, error) {
				return TopicForEvent(params.EventName), nil
			},
			Marshaler: marshaler,
			Logger:    logger,
		},
	)
}
