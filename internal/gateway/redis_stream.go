package gateway

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// redisSubscription reads change notices from the shared pub/sub channel and
// forwards them to the session callback until Unsubscribe.
type redisSubscription struct {
	pubsub *redis.PubSub
	done   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

// SubscribeToChanges delivers remote change notifications for the session.
// The payload is opaque to the store, which reloads in full on any notice.
func (g *PostgresGateway) SubscribeToChanges(ctx context.Context, userID string, onChange func(Change)) (Subscription, error) {
	if g.redis == nil {
		// No live-update backend configured; sessions still work, they
		// just never see remote pushes.
		return noopSubscription{}, nil
	}

	pubsub := g.redis.Subscribe(ctx, changeChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	sub := &redisSubscription{
		pubsub: pubsub,
		done:   make(chan struct{}),
	}
	sub.wg.Add(1)
	go func() {
		defer sub.wg.Done()
		ch := pubsub.Channel()
		for {
			select {
			case <-sub.done:
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var change Change
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					g.logger.Warn("malformed change notice",
						zap.String("user_id", userID), zap.Error(err))
					continue
				}
				select {
				case <-sub.done:
					return
				default:
				}
				onChange(change)
			}
		}
	}()
	return sub, nil
}

// Unsubscribe tears down the stream. No callbacks run after it returns.
func (s *redisSubscription) Unsubscribe() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.pubsub.Close()
		s.wg.Wait()
	})
	return err
}

type noopSubscription struct{}

func (noopSubscription) Unsubscribe() error { return nil }
