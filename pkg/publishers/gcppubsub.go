package publishers

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// gcpPubSubSender delivers acquired-episode events to a Pub/Sub topic.
type gcpPubSubSender struct {
	topic *pubsub.Topic
	log   Logger
}

// newGCPPubSubPublisher creates a Pub/Sub-backed publisher from config.
func newGCPPubSubPublisher(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.GCP == nil {
		return nil, fmt.Errorf("publisher %q missing gcp configuration", cfg.ID)
	}
	sender, err := newGCPPubSubSender(ctx, cfg.GCP, log)
	if err != nil {
		return nil, err
	}
	return &senderPublisher{id: cfg.ID, typ: TypeGCPPubSub, sender: sender}, nil
}

// newGCPPubSubSender dials the Pub/Sub client and binds the topic.
func newGCPPubSubSender(ctx context.Context, cfg *GCPQueueConfig, log Logger) (*gcpPubSubSender, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	return &gcpPubSubSender{
		topic: client.Topic(cfg.Topic),
		log:   ensureLogger(log),
	}, nil
}

// Send marshals the event and publishes it, waiting for server ack.
func (g *gcpPubSubSender) Send(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	result := g.topic.Publish(ctx, &pubsub.Message{
		Data:       payload,
		Attributes: map[string]string{"episode_file": evt.File},
	})
	if _, err := result.Get(ctx); err != nil {
		g.log.ErrorObj("pubsub publisher send failed", "publisher_pubsub_error", map[string]any{
			"topic": g.topic.String(),
			"error": err.Error(),
		})
		return fmt.Errorf("publish to pubsub: %w", err)
	}
	return nil
}
