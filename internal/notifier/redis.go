package notifier

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisNotifier publishes events over Redis pub/sub.  Display clients
// subscribe to the shared display channel and, per station screen, to
// that station's channel.
type RedisNotifier struct {
	rdb *redis.Client
}

// NewRedisNotifier returns a notifier over the given client.  A nil
// client yields a notifier that drops everything, mirroring how the
// cache and rate limiter degrade when Redis is down.
func NewRedisNotifier(rdb *redis.Client) Notifier {
	if rdb == nil {
		return Nop{}
	}
	return &RedisNotifier{rdb: rdb}
}

// Publish marshals the event and fans it out to its channels.  Errors
// are logged and dropped.
func (n *RedisNotifier) Publish(ctx context.Context, e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	body, err := json.Marshal(e)
	if err != nil {
		log.Printf("notifier: marshal %s failed: %v", e.Kind, err)
		return
	}
	// Detach from the request context so an aborted request cannot
	// cancel a post-commit notification mid-flight.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	for _, ch := range e.Channels() {
		if err := n.rdb.Publish(pubCtx, ch, body).Err(); err != nil {
			log.Printf("notifier: publish %s to %s failed: %v", e.Kind, ch, err)
		}
	}
}
