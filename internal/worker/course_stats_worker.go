package worker

import (
	"context"
	"time"

	"github.com/Aditya06pandey1368/LMS-Project/internal/config"
	"github.com/Aditya06pandey1368/LMS-Project/internal/events"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
)

// RecordRetryDelay is how long a failed message waits before it is nacked
// and redelivered.
const RecordRetryDelay = 2 * time.Second

// StatsRecorder folds one finished attempt into the course aggregates.
// It reports false when eventID was already counted.
type StatsRecorder interface {
	Record(ctx context.Context, eventID, courseID string, score int, passed bool) (bool, error)
}

// CourseStatsWorker projects finished mock test events into per-course
// statistics.
type CourseStatsWorker struct {
	subscriber message.Subscriber
	topic      string
	recorder   StatsRecorder
	retryDelay time.Duration
	messages   <-chan *message.Message
	log        zerolog.Logger
}

// NewCourseStatsWorker creates a worker reading topic from subscriber.
func NewCourseStatsWorker(subscriber message.Subscriber, topic string, recorder StatsRecorder, log zerolog.Logger) *CourseStatsWorker {
	return &CourseStatsWorker{
		subscriber: subscriber,
		topic:      topic,
		recorder:   recorder,
		retryDelay: RecordRetryDelay,
		log:        log.With().Str("component", config.WorkerKey.CourseStatsHandler).Logger(),
	}
}

// Subscribe opens the subscription. Events published after it returns are
// delivered to Run; call it before the service starts publishing.
func (w *CourseStatsWorker) Subscribe(ctx context.Context) error {
	messages, err := w.subscriber.Subscribe(ctx, w.topic)
	if err != nil {
		return err
	}
	w.messages = messages
	w.log.Info().Str("topic", w.topic).Msg("CourseStatsWorker subscribed")
	return nil
}

// Run consumes the subscription until ctx is done or the subscriber closes.
func (w *CourseStatsWorker) Run(ctx context.Context) {
	if w.messages == nil {
		w.log.Error().Msg("Run called before Subscribe")
		return
	}
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("CourseStatsWorker stopped")
			return
		case msg, ok := <-w.messages:
			if !ok {
				w.log.Info().Msg("Subscription closed")
				return
			}
			w.handle(ctx, msg)
		}
	}
}

func (w *CourseStatsWorker) handle(ctx context.Context, msg *message.Message) {
	event, err := events.Decode(msg.Payload)
	if err != nil {
		// A payload that cannot be parsed never will be; drop it.
		w.log.Error().Err(err).Str("message_id", msg.UUID).Msg("Invalid event payload")
		msg.Ack()
		return
	}
	if !event.IsTerminal() {
		msg.Ack()
		return
	}
	if event.Score == nil || event.Pass == nil {
		w.log.Warn().Str("event_id", event.ID).Msg("Terminal event without score")
		msg.Ack()
		return
	}

	recorded, err := w.recorder.Record(ctx, event.ID, event.CourseID, *event.Score, *event.Pass)
	if err != nil {
		w.log.Error().Err(err).Str("event_id", event.ID).Msg("Record failed, will retry")
		select {
		case <-ctx.Done():
		case <-time.After(w.retryDelay):
		}
		msg.Nack()
		return
	}

	if recorded {
		w.log.Debug().
			Str("event_id", event.ID).
			Str("course_id", event.CourseID).
			Int("score", *event.Score).
			Msg("Attempt recorded")
	}
	msg.Ack()
}
