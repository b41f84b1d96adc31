package orchestration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "chunkalyze:instance:"

// RedisStore keeps instances in Redis as JSON values with a TTL, so status
// survives a process restart.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisOptions configures NewRedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s; %w", opts.Addr, err)
	}

	return NewRedisStoreFromClient(client, opts.TTL), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultInstanceTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Save(ctx context.Context, inst *Instance) error {
	data, err := json.Marshal(inst)
	if err != nil {
		return fmt.Errorf("failed to encode instance %s; %w", inst.ID, err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+inst.ID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save instance %s; %w", inst.ID, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Instance, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrInstanceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load instance %s; %w", id, err)
	}

	var inst Instance
	if err := json.Unmarshal(data, &inst); err != nil {
		return nil, fmt.Errorf("failed to decode instance %s; %w", id, err)
	}
	return &inst, nil
}

func (s *RedisStore) Counts(ctx context.Context) (map[RuntimeStatus]int, error) {
	counts := make(map[RuntimeStatus]int)

	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan instances; %w", err)
	}
	if len(keys) == 0 {
		return counts, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load instances; %w", err)
	}
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var inst struct {
			RuntimeStatus RuntimeStatus `json:"runtimeStatus"`
		}
		if err := json.Unmarshal([]byte(raw), &inst); err != nil {
			continue
		}
		counts[inst.RuntimeStatus]++
	}
	return counts, nil
}

// Ping checks connectivity; used by readiness checks.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
