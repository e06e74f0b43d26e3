package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Redis stores each state key as a plain string under a shared prefix.
type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(addr, prefix string) *Redis {
	if prefix == "" {
		prefix = "offersearch:"
	}
	return &Redis{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		prefix: prefix,
	}
}

func (s *Redis) Close() error {
	return s.client.Close()
}

func (s *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return val, true, nil
}

// SetMany writes every pair in one MULTI/EXEC so readers never see a
// half-updated state.
func (s *Redis) SetMany(ctx context.Context, pairs map[string]string) error {
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for k, v := range pairs {
			p.Set(ctx, s.prefix+k, v, 0)
		}
		return nil
	})
	return err
}
