package heartbeat

import (
	"context"
	"time"

	"envcode-go/bus"
	"envcode-go/x/timex"
)

var (
	topicConfigHeartbeat = bus.Topic{"config", "heartbeat"}
	topicHeartbeat       = bus.Topic{"system", "heartbeat"}
)

type Service struct{}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	defer conn.Unsubscribe(cfgSub)

	tick := time.NewTicker(1 * time.Second)
	defer tick.Stop()

	started := time.Now()
	var seq uint32

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			seq++
			conn.Publish(conn.NewMessage(topicHeartbeat, map[string]any{
				"seq":       seq,
				"uptime_ms": time.Since(started).Milliseconds(),
				"ts_ms":     timex.NowMs(),
			}, true))
		case msg := <-cfgSub.Channel():
			if m, ok := msg.Payload.(map[string]any); ok {
				if interval, ok := asSeconds(m["interval"]); ok && interval > 0 {
					tick.Reset(interval)
				}
			}
		}
	}
}

func asSeconds(v any) (time.Duration, bool) {
	switch n := v.(type) {
	case int:
		return time.Duration(n) * time.Second, true
	case int64:
		return time.Duration(n) * time.Second, true
	case float64:
		return time.Duration(n * float64(time.Second)), true
	default:
		return 0, false
	}
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
