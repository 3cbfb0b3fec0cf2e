package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis"
	"github.com/pkg/errors"

	"github.com/pledgeforprogress/pledged/pkg/model"
)

// Redis publishes events to a pub/sub channel and keeps per kind counters.
// Inside docker can be connected as:
//      docker exec -it redis redis-cli
// Subscribe to events:
//      127.0.0.1:6379> subscribe pledged/events
// View counters:
//      127.0.0.1:6379> hgetall pledged/stats
// Get top pledgers:
//      127.0.0.1:6379> zrevrange pledged/top 0 100 withscores
type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(redisURL string, prefix string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse redis url")
	}

	client := redis.NewClient(opts)
	if err := client.Ping().Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "failed to ping redis")
	}

	if prefix == "" {
		prefix = model.DefaultRedisPrefix
	}

	return &Redis{client: client, prefix: prefix}, nil
}

func (r *Redis) Publish(ctx context.Context, event *model.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event")
	}

	_, err = r.client.WithContext(ctx).TxPipelined(func(p redis.Pipeliner) error {
		p.Publish(r.Channel(), data)
		p.HIncrBy(r.statsKey(), string(event.Kind), 1)
		p.HSet(r.statsKey(), "total_pledged", event.TotalPledged)
		if event.Kind == model.EventPledgeRecorded {
			p.ZIncrBy(r.topKey(), float64(event.Amount), string(event.Caller))
		}
		return nil
	})

	return errors.Wrapf(err, "failed to publish event %d", event.Seq)
}

// count returns how many events of the given kind were published.
func (r *Redis) count(kind model.EventKind) (int64, error) {
	count, err := r.client.HGet(r.statsKey(), string(kind)).Int64()
	if err == redis.Nil {
		return 0, nil
	}

	return count, err
}

// topPledgers returns up to n addresses ordered by the amount they pledged.
func (r *Redis) topPledgers(n int64) ([]model.Address, error) {
	members, err := r.client.ZRevRange(r.topKey(), 0, n-1).Result()
	if err != nil {
		return nil, err
	}

	list := make([]model.Address, 0, len(members))
	for _, member := range members {
		list = append(list, model.Address(member))
	}

	return list, nil
}

// Channel is the pub/sub channel events are published to.
func (r *Redis) Channel() string {
	return fmt.Sprintf("%s/events", r.prefix)
}

func (r *Redis) statsKey() string {
	return fmt.Sprintf("%s/stats", r.prefix)
}

func (r *Redis) topKey() string {
	return fmt.Sprintf("%s/top", r.prefix)
}

func (r *Redis) Close() error {
	return r.client.Close()
}
