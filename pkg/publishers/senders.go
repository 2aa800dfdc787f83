package publishers

import "context"

// Publisher delivers acquired-episode events to one downstream sink.
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}

// sender is the transport-level delivery half of a publisher.
type sender interface {
	Send(ctx context.Context, evt Event) error
}

// senderPublisher adapts a sender into the Publisher interface.
type senderPublisher struct {
	id     string
	typ    string
	sender sender
}

func (p *senderPublisher) ID() string   { return p.id }
func (p *senderPublisher) Type() string { return p.typ }

func (p *senderPublisher) Publish(ctx context.Context, evt Event) error {
	return p.sender.Send(ctx, evt)
}
