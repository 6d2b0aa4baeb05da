package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TicketIDPrefix starts every human-presentable ticket id.
const TicketIDPrefix = "TKT-"

// TicketIDGenerator issues ticket ids that are never reused.
type TicketIDGenerator interface {
	NextID(ctx context.Context) (string, error)
}

type redisSequence struct {
	client *redis.Client
	key    string
}

// NewRedisSequence issues monotonically increasing ids from an INCR counter,
// shared by every process pointing at the same Redis key.
func NewRedisSequence(client *redis.Client, key string) TicketIDGenerator {
	if key == "" {
		key = "grievance:ticket_seq"
	}
	return &redisSequence{client: client, key: key}
}

func (s *redisSequence) NextID(ctx context.Context) (string, error) {
	if s.client == nil {
		return "", errors.New("redis client not configured")
	}
	n, err := s.client.Incr(ctx, s.key).Result()
	if err != nil {
		return "", fmt.Errorf("next ticket id: %w", err)
	}
	return formatSequenceID(n), nil
}

type counterSequence struct {
	next atomic.Int64
}

// NewCounterSequence issues increasing ids from a process-local counter
// starting after start.
func NewCounterSequence(start int64) TicketIDGenerator {
	seq := &counterSequence{}
	seq.next.Store(start)
	return seq
}

func (s *counterSequence) NextID(context.Context) (string, error) {
	return formatSequenceID(s.next.Add(1)), nil
}

type randomKeys struct{}

// NewRandomKeys issues random 12 hex digit ids.
func NewRandomKeys() TicketIDGenerator {
	return randomKeys{}
}

func (randomKeys) NextID(context.Context) (string, error) {
	return TicketIDPrefix + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12]), nil
}

func formatSequenceID(n int64) string {
	return fmt.Sprintf("%s%06d", TicketIDPrefix, n)
}
