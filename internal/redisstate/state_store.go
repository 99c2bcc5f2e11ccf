package redisstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Zeeeepa/codegen-examples-sub000/internal/domain"
)

const (
	stateTTL  = 24 * time.Hour
	resultTTL = time.Hour
)

func stateKey(triggerID string) string  { return "trigger:state:" + triggerID }
func metaKey(triggerID string) string   { return "trigger:meta:" + triggerID }
func resultKey(triggerID string) string { return "trigger:result:" + triggerID }

// StateStore mirrors live trigger state in Redis for cheap status reads.
// Postgres stays the source of truth; entries here expire on their own.
type StateStore interface {
	SetStatus(ctx context.Context, triggerID string, status domain.TriggerStatus) error
	GetStatus(ctx context.Context, triggerID string) (domain.TriggerStatus, error)
	SetTriggerMeta(ctx context.Context, trigger *domain.WorkflowTrigger) error
	GetTriggerMeta(ctx context.Context, triggerID string) (*domain.WorkflowTrigger, error)
	SetResult(ctx context.Context, triggerID string, result []byte, ttl time.Duration) error
	GetResult(ctx context.Context, triggerID string) ([]byte, error)
}

type stateStore struct {
	client *redis.Client
}

// NewStateStore creates a Redis-backed StateStore.
func NewStateStore(client *redis.Client) StateStore {
	return &stateStore{client: client}
}

// NewClient creates and returns a new Redis client.
func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
		PoolSize:     10,
	})
}

func (s *stateStore) SetStatus(ctx context.Context, triggerID string, status domain.TriggerStatus) error {
	err := s.client.Set(ctx, stateKey(triggerID), string(status), stateTTL).Err()
	if err != nil {
		return fmt.Errorf("redis set status for %s: %w", triggerID, err)
	}
	return nil
}

func (s *stateStore) GetStatus(ctx context.Context, triggerID string) (domain.TriggerStatus, error) {
	val, err := s.client.Get(ctx, stateKey(triggerID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", &domain.TriggerNotFoundError{TriggerID: triggerID}
		}
		return "", fmt.Errorf("redis get status for %s: %w", triggerID, err)
	}
	return domain.TriggerStatus(val), nil
}

func (s *stateStore) SetTriggerMeta(ctx context.Context, trigger *domain.WorkflowTrigger) error {
	data, err := json.Marshal(trigger)
	if err != nil {
		return fmt.Errorf("marshal trigger meta: %w", err)
	}
	err = s.client.Set(ctx, metaKey(trigger.ID), data, stateTTL).Err()
	if err != nil {
		return fmt.Errorf("redis set meta for %s: %w", trigger.ID, err)
	}
	return nil
}

func (s *stateStore) GetTriggerMeta(ctx context.Context, triggerID string) (*domain.WorkflowTrigger, error) {
	data, err := s.client.Get(ctx, metaKey(triggerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, &domain.TriggerNotFoundError{TriggerID: triggerID}
		}
		return nil, fmt.Errorf("redis get meta for %s: %w", triggerID, err)
	}
	var trigger domain.WorkflowTrigger
	if err := json.Unmarshal(data, &trigger); err != nil {
		return nil, fmt.Errorf("unmarshal trigger meta: %w", err)
	}
	return &trigger, nil
}

func (s *stateStore) SetResult(ctx context.Context, triggerID string, result []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = resultTTL
	}
	err := s.client.Set(ctx, resultKey(triggerID), result, ttl).Err()
	if err != nil {
		return fmt.Errorf("redis set result for %s: %w", triggerID, err)
	}
	return nil
}

func (s *stateStore) GetResult(ctx context.Context, triggerID string) ([]byte, error) {
	data, err := s.client.Get(ctx, resultKey(triggerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, &domain.TriggerNotFoundError{TriggerID: triggerID}
		}
		return nil, fmt.Errorf("redis get result for %s: %w", triggerID, err)
	}
	return data, nil
}
