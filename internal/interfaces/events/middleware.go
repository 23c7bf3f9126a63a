package events

import (
	"errors"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"boxoffice/internal/identity"
)

func CorrelationIDMiddleware(next message.HandlerFunc) message.HandlerFunc {
	return func(message *message.Message) ([]*message.Message, error) {
		correlationID := message.Metadata.Get("correlation_id")

		if correlationID == "" {
			correlationID = uuid.New().String()
		}

		ctx := log.ContextWithCorrelationID(message.Context(), correlationID)

		ctx = log.ToContext(ctx,
			logrus.WithFields(logrus.Fields{
				"correlation_id": correlationID,
				"message_uuid":   message.UUID,
			},
			))

		message.SetContext(ctx)

		return next(message)
	}
}

// ActorMiddleware installs the message-processing identity on every
// handled message's context. Chosen at composition time, never read
// from a process-wide global.
func ActorMiddleware(actor identity.Actor) message.HandlerMiddleware {
	return func(next message.HandlerFunc) message.HandlerFunc {
		return func(message *message.Message) ([]*message.Message, error) {
			message.SetContext(identity.WithActor(message.Context(), actor))
			return next(message)
		}
	}
}

func LoggingMiddleware(next message.HandlerFunc) message.HandlerFunc {
	return func(message *message.Message) ([]*message.Message, error) {
		log.FromContext(message.Context()).
			WithField("metadata", message.Metadata).
			Info("Handling a message")

		messages, err := next(message)

		if err != nil {
			log.FromContext(message.Context()).
				WithField("payload", string(message.Payload)).
				WithField("error", err).
				Error("Message handling error")
		}

		return messages, err
	}
}

var ErrJsonUnmarshal = errors.New("json unmarshal error")

func SkipMarshallingErrorsMiddleware(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		msgs, err := h(msg)

		if err != nil {
			if errors.Is(err, ErrJsonUnmarshal) {
				log.FromContext(msg.Context()).
					WithField("error", err).
					Warn("Error while unmarshalling message")
				// skip this malformed message
				return nil, nil
			}
		}

		return msgs, err
	}
}
