// Package events publishes catalog change notifications to a message broker
// so downstream consumers (search indexers, cache invalidators) can react.
// Publishing is fire-and-forget: a broker failure never fails the request
// that triggered it.
package events

import (
	"context"
	"encoding/json"
	"time"
)

const (
	ProductCreated = "product.created"
	ProductUpdated = "product.updated"
	ProductDeleted = "product.deleted"
)

// Event is the wire payload for a catalog change.
type Event struct {
	Type      string    `json:"type"`
	ProductID int       `json:"product_id"`
	At        time.Time `json:"at"`
}

// Backend defines the broker-agnostic operations used by the publisher.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Close() error
}

// Publisher emits catalog events on a fixed channel. A nil Publisher is
// valid and drops every event, which is how the feature is disabled.
type Publisher struct {
	backend Backend
	channel string
}

// NewPublisher constructs a Publisher for the provided backend and channel.
func NewPublisher(backend Backend, channel string) *Publisher {
	return &Publisher{backend: backend, channel: channel}
}

// ProductChanged publishes one catalog event and returns the broker message id.
func (p *Publisher) ProductChanged(ctx context.Context, eventType string, productID int) (string, error) {
	if p == nil {
		return "", nil
	}

	data, err := json.Marshal(Event{
		Type:      eventType,
		ProductID: productID,
		At:        time.Now().UTC(),
	})
	if err != nil {
		return "", err
	}

	return p.backend.Publish(ctx, p.channel, data, map[string]string{"type": eventType})
}

// Close closes the underlying backend.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.backend.Close()
}
