package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/foodcart-backend/internal/cart"
	"github.com/angelmondragon/foodcart-backend/pkg/redis"
)

type snapshotRedis interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	CartKey(sessionID string) string
}

// RedisSnapshotStore keeps cart snapshots as JSON under fc:cart:<session>.
type RedisSnapshotStore struct {
	client snapshotRedis
	ttl    time.Duration
}

func NewRedisSnapshotStore(client snapshotRedis, ttl time.Duration) (*RedisSnapshotStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &RedisSnapshotStore{client: client, ttl: ttl}, nil
}

func (s *RedisSnapshotStore) Load(ctx context.Context, sessionID string) (cart.Snapshot, bool, error) {
	raw, err := s.client.Get(ctx, s.client.CartKey(sessionID))
	if errors.Is(err, redis.Nil) {
		return cart.Snapshot{}, false, nil
	}
	if err != nil {
		return cart.Snapshot{}, false, fmt.Errorf("get cart snapshot: %w", err)
	}
	var snap cart.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return cart.Snapshot{}, false, fmt.Errorf("decode cart snapshot: %w", err)
	}
	return snap, true, nil
}

// Save writes the snapshot. Empty carts are deleted instead of stored.
func (s *RedisSnapshotStore) Save(ctx context.Context, sessionID string, snap cart.Snapshot) error {
	if len(snap.Items) == 0 {
		return s.Delete(ctx, sessionID)
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode cart snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.client.CartKey(sessionID), string(payload), s.ttl); err != nil {
		return fmt.Errorf("set cart snapshot: %w", err)
	}
	return nil
}

func (s *RedisSnapshotStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.client.CartKey(sessionID)); err != nil {
		return fmt.Errorf("delete cart snapshot: %w", err)
	}
	return nil
}
