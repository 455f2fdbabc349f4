package publishers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// queueMessage is an event encoded once for every queue provider.
type queueMessage struct {
	ID         string
	Body       []byte
	Attributes map[string]string
}

// queueSender delivers an encoded message and returns the provider's message id.
type queueSender interface {
	Send(ctx context.Context, msg queueMessage) (string, error)
	Close() error
}

type queuePublisher struct {
	id       string
	provider string
	sender   queueSender
	log      Logger
}

func newQueuePublisher(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.Queue == nil {
		return nil, fmt.Errorf("publisher %q missing queue configuration", cfg.ID)
	}

	var (
		sender queueSender
		err    error
	)
	switch cfg.Queue.Provider {
	case QueueProviderAWSSQS:
		sender, err = newAWSSQSSender(ctx, cfg.Queue.AWS)
	case QueueProviderAWSSNS:
		sender, err = newAWSSNSSender(ctx, cfg.Queue.SNS)
	case QueueProviderGCP:
		sender, err = newGCPPubSubSender(ctx, cfg.Queue.GCP)
	default:
		err = fmt.Errorf("queue provider %q is not supported", cfg.Queue.Provider)
	}
	if err != nil {
		return nil, err
	}

	return &queuePublisher{
		id:       cfg.ID,
		provider: cfg.Queue.Provider,
		sender:   sender,
		log:      ensureLogger(log),
	}, nil
}

func (p *queuePublisher) ID() string   { return p.id }
func (p *queuePublisher) Type() string { return TypeQueue }
func (p *queuePublisher) Close() error { return p.sender.Close() }

func (p *queuePublisher) Publish(ctx context.Context, evt Event) error {
	msg, err := encodeEvent(evt)
	if err != nil {
		return err
	}
	msgID, err := p.sender.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("%s send: %w", p.provider, err)
	}
	p.log.DebugObj("queue publisher delivered event", "publisher_queue_delivery", map[string]any{
		"publisher_id": p.id,
		"provider":     p.provider,
		"event_id":     evt.ID,
		"message_id":   msgID,
	})
	return nil
}

// encodeEvent marshals evt and derives the routing attributes. Providers reject empty
// attribute values, so query is only set for searches.
func encodeEvent(evt Event) (queueMessage, error) {
	body, err := json.Marshal(evt)
	if err != nil {
		return queueMessage{}, fmt.Errorf("marshal event: %w", err)
	}
	attrs := map[string]string{
		"event_id":    evt.ID,
		"provider_id": evt.ProviderID,
		"count":       strconv.Itoa(evt.Count),
	}
	if evt.Query != "" {
		attrs["query"] = evt.Query
	}
	return queueMessage{ID: evt.ID, Body: body, Attributes: attrs}, nil
}
