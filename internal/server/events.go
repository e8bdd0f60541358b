package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Events fans review-pipeline notifications out to in-process SSE
// subscribers and mirrors them onto a Redis channel so external consumers
// (push notification workers, dashboards) can react without polling.
type Events struct {
	broker *Broker
	rdb    *redis.Client
	logger *slog.Logger
}

func NewEvents(broker *Broker, rdb *redis.Client, logger *slog.Logger) *Events {
	return &Events{broker: broker, rdb: rdb, logger: logger}
}

func (e *Events) Publish(ctx context.Context, teamID string, ev Event) {
	ev.TeamID = teamID
	e.broker.Publish(teamID, ev)

	if e.rdb == nil {
		return
	}
	data, _ := json.Marshal(ev)
	if err := e.rdb.Publish(ctx, "hunt:events:"+teamID, data).Err(); err != nil {
		e.logger.Warn("publishing event to redis", "team_id", teamID, "error", err)
	}
}
