package publishers

import "context"

// logPublisher writes acquired-episode events to the structured log.
// It is the default sink when no external publisher is configured.
type logPublisher struct {
	id  string
	log Logger
}

func newLogPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	return &logPublisher{id: cfg.ID, log: ensureLogger(log)}, nil
}

func (l *logPublisher) ID() string   { return l.id }
func (l *logPublisher) Type() string { return TypeLog }

func (l *logPublisher) Publish(_ context.Context, evt Event) error {
	l.log.InfoObj("episode acquired", "episode_event", evt)
	return nil
}
