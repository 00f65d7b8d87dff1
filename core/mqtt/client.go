// Package mqtt defines the broker-facing interfaces used to receive
// scheduling requests and publish their results.
package mqtt

import "context"

// Handler receives one inbound message.
type Handler func(topic string, payload []byte)

// Publisher sends a payload to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// Client is a connected broker session.
type Client interface {
	Publisher
	// Subscribe registers h for topic; subscriptions survive reconnects.
	Subscribe(topic string, h Handler) error
	Disconnect()
}
