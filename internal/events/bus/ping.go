package bus

import (
	"context"
	"time"
)

// PingSubject carries bus liveness requests.
const PingSubject = "system.ping"

// PongType is the event type of a ping response.
const PongType = "system.pong"

// StartPingResponder answers liveness requests on the bus. Responders join a
// queue group so exactly one process replies to each ping, no matter how many
// instances are running.
func StartPingResponder(b EventBus, source string) (Subscription, error) {
	return b.QueueSubscribe(PingSubject, "ping", func(ctx context.Context, event *Event) error {
		reply := ReplySubject(event)
		if reply == "" {
			return nil
		}
		pong := NewEvent(PongType, source, map[string]interface{}{"source": source})
		return b.Publish(ctx, reply, pong)
	})
}

// Ping performs a request/reply round-trip over the bus and returns the
// responder's event. A timeout means no responder answered in time.
func Ping(ctx context.Context, b EventBus, source string, timeout time.Duration) (*Event, error) {
	return b.Request(ctx, PingSubject, NewEvent(PingSubject, source, nil), timeout)
}
