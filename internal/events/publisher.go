package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Aditya06pandey1368/LMS-Project/internal/config"
	"github.com/Aditya06pandey1368/LMS-Project/internal/logger"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"
)

// Bus bundles the publisher and subscriber of the configured driver.
// With the gochannel driver both sides are the same in-process pub/sub.
type Bus struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
	Topic      string

	shared bool
}

// NewBus creates the event bus selected by cfg.EventsDriver.
func NewBus(cfg *config.Config, log zerolog.Logger) (*Bus, error) {
	wmLog := logger.NewWatermillAdapter(log)

	switch cfg.EventsDriver {
	case config.EventsDriverKafka:
		pub, err := kafka.NewPublisher(kafka.PublisherConfig{
			Brokers:   cfg.KafkaBrokers,
			Marshaler: kafka.DefaultMarshaler{},
		}, wmLog)
		if err != nil {
			return nil, fmt.Errorf("create kafka publisher: %w", err)
		}
		sub, err := kafka.NewSubscriber(kafka.SubscriberConfig{
			Brokers:               cfg.KafkaBrokers,
			Unmarshaler:           kafka.DefaultMarshaler{},
			OverwriteSaramaConfig: kafka.DefaultSaramaSubscriberConfig(),
			ConsumerGroup:         cfg.EventsConsumerGroup,
		}, wmLog)
		if err != nil {
			_ = pub.Close()
			return nil, fmt.Errorf("create kafka subscriber: %w", err)
		}
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.EventsTopic).Msg("Using Kafka event bus")
		return &Bus{Publisher: pub, Subscriber: sub, Topic: cfg.EventsTopic}, nil

	case config.EventsDriverGoChannel, "":
		ps := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, wmLog)
		log.Info().Str("topic", cfg.EventsTopic).Msg("Using in-process event bus")
		return &Bus{Publisher: ps, Subscriber: ps, Topic: cfg.EventsTopic, shared: true}, nil

	default:
		return nil, fmt.Errorf("unknown events driver %q", cfg.EventsDriver)
	}
}

// Close shuts down both sides of the bus.
func (b *Bus) Close() error {
	err := b.Publisher.Close()
	if !b.shared {
		if subErr := b.Subscriber.Close(); subErr != nil && err == nil {
			err = subErr
		}
	}
	return err
}

// WatermillPublisher publishes MockTestEvents as JSON messages.
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
	log       zerolog.Logger
}

// NewWatermillPublisher creates a publisher writing to bus.Topic.
func NewWatermillPublisher(bus *Bus, log zerolog.Logger) *WatermillPublisher {
	return &WatermillPublisher{
		publisher: bus.Publisher,
		topic:     bus.Topic,
		log:       log.With().Str("component", "event_publisher").Logger(),
	}
}

// Publish sends event on the configured topic.
func (p *WatermillPublisher) Publish(ctx context.Context, event *MockTestEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", string(event.Type))
	msg.Metadata.Set("source", event.Source)
	msg.Metadata.Set("version", event.Version)
	msg.Metadata.Set("timestamp", event.Timestamp.Format(time.RFC3339))

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}

	p.log.Debug().
		Str("event_id", event.ID).
		Str("event_type", string(event.Type)).
		Str("session_id", event.SessionID.String()).
		Msg("Published event")
	return nil
}

// MemoryPublisher records events in memory.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []MockTestEvent
}

// NewMemoryPublisher creates an empty MemoryPublisher.
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

// Publish appends a copy of event.
func (m *MemoryPublisher) Publish(_ context.Context, event *MockTestEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *event)
	return nil
}

// Events returns a copy of everything published so far.
func (m *MemoryPublisher) Events() []MockTestEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockTestEvent(nil), m.events...)
}
