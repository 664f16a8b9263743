package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/learnpath/engage-backend/internal/config"
	"github.com/learnpath/engage-backend/internal/engagement"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// TelemetryDispatcher forwards applied interactions to the persistence queue
// without ever blocking the recording path. When the buffer is full the event
// is dropped: raw telemetry is lossy by contract, the engine's in-memory
// counters are not.
type TelemetryDispatcher struct {
	rdb    *redis.Client
	log    zerolog.Logger
	events chan engagement.Event
}

// NewTelemetryDispatcher creates a dispatcher buffering up to bufferSize
// events between the engine and Redis.
func NewTelemetryDispatcher(rdb *redis.Client, bufferSize int, log zerolog.Logger) *TelemetryDispatcher {
	return &TelemetryDispatcher{
		rdb:    rdb,
		log:    log.With().Str("component", "telemetry_dispatcher").Logger(),
		events: make(chan engagement.Event, bufferSize),
	}
}

// InteractionRecorded implements engagement.Sink.
func (d *TelemetryDispatcher) InteractionRecorded(ev engagement.Event) {
	select {
	case d.events <- ev:
	default:
		d.log.Warn().
			Str("session_id", ev.SessionID).
			Str("user_id", ev.UserID).
			Msg("Telemetry buffer full, dropping event")
	}
}

// Run drains the buffer into the Redis queue. Call in a goroutine; it returns
// once ctx is cancelled and the buffer is empty.
func (d *TelemetryDispatcher) Run(ctx context.Context) {
	d.log.Info().Msg("Telemetry dispatcher started")

	for {
		select {
		case ev := <-d.events:
			d.push(ev)
		case <-ctx.Done():
			for {
				select {
				case ev := <-d.events:
					d.push(ev)
				default:
					d.log.Info().Msg("Telemetry dispatcher stopped")
					return
				}
			}
		}
	}
}

// push hands one event to the queue. Detached from any request context: an
// event that made it into the buffer belongs to the pipeline, not the caller.
func (d *TelemetryDispatcher) push(ev engagement.Event) {
	payload, err := json.Marshal(map[string]any{
		"id":          uuid.New().String(),
		"session_id":  ev.SessionID,
		"user_id":     ev.UserID,
		"type":        string(ev.Type),
		"correct":     ev.Correct,
		"data":        ev.Data,
		"occurred_at": ev.OccurredAt,
	})
	if err != nil {
		d.log.Error().Err(err).Msg("Marshal event error")
		return
	}

	if err := d.rdb.RPush(context.Background(), config.WorkerKey.PersistEventsQueue, payload).Err(); err != nil {
		d.log.Error().Err(err).Str("session_id", ev.SessionID).Msg("Telemetry queue push error")
	}
}
