package service

import (
	"context"

	"sales-forecast-client/internal/pkg/logger"
	"sales-forecast-client/pkg/events"
)

// EventSubscriber is the in-process bus the relay drains.
type EventSubscriber interface {
	Subscribe(ctx context.Context) (<-chan events.Event, error)
}

// EventSink receives relayed events, e.g. the NATS publisher.
type EventSink interface {
	Publish(ctx context.Context, event events.Event) error
}

type IRelayService interface {
	// Consume starts relaying in the background and returns once subscribed.
	// Relaying stops when ctx is done.
	Consume(ctx context.Context) error
	// Done is closed once the subscription channel is drained.
	Done() <-chan struct{}
}

type relayService struct {
	bus    EventSubscriber
	sinks  []EventSink
	logger logger.ILogger
	done   chan struct{}
}

func NewRelayService(bus EventSubscriber, log logger.ILogger, sinks ...EventSink) IRelayService {
	return &relayService{
		bus:    bus,
		sinks:  sinks,
		logger: log,
		done:   make(chan struct{}),
	}
}

func (rs *relayService) Consume(ctx context.Context) error {
	ch, err := rs.bus.Subscribe(ctx)
	if err != nil {
		return err
	}

	go func() {
		defer close(rs.done)
		for event := range ch {
			rs.process(ctx, event)
		}
	}()
	return nil
}

func (rs *relayService) Done() <-chan struct{} {
	return rs.done
}

func (rs *relayService) process(ctx context.Context, event events.Event) {
	rs.logger.Info("relay", event.EventType(), event.Payload())

	for _, sink := range rs.sinks {
		if err := sink.Publish(ctx, event); err != nil {
			// Sinks are best effort; a broken broker must not stall the bus.
			rs.logger.Warn("relay", "Failed to forward event", map[string]interface{}{
				"type":  event.EventType(),
				"error": err.Error(),
			})
		}
	}
}
