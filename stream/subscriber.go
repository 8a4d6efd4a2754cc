package stream

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// SubscribeEvents relays envelopes from the Redis events channel into the
// local hub. Every instance runs one subscriber, so an event published
// anywhere reaches every recipient session on every instance. It reconnects
// when the pub/sub channel closes and returns when ctx is canceled.
func SubscribeEvents(ctx context.Context, logger *log.Logger, rc *redis.Client, channel string, hub *Hub) {
	for {
		sub := rc.Subscribe(ctx, channel)
		ch := sub.Channel()
	recv:
		for {
			select {
			case <-ctx.Done():
				sub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break recv
				}
				var env Envelope
				if err := sonic.UnmarshalString(msg.Payload, &env); err != nil {
					logger.Errorf("decode event envelope: %v", err)
					continue
				}
				recipients := env.Recipients
				env.Recipients = nil
				for _, userID := range recipients {
					hub.Deliver(userID, env)
				}
			}
		}
		sub.Close()
		if ctx.Err() != nil {
			return
		}
		logger.Error("events channel closed, reconnecting")
		time.Sleep(time.Second)
	}
}
