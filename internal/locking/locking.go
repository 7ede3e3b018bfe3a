// Package locking provides per-key mutual exclusion across recognition runs.
package locking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotObtained is returned when the key is already held by someone else
var ErrNotObtained = errors.New("lock not obtained")

// Lock is a held lock
type Lock interface {
	Release(ctx context.Context) error
}

// Locker obtains locks without waiting; a held key fails with ErrNotObtained
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

// ContractKey is the lock key for recognising one contract
func ContractKey(contractID string) string {
	return fmt.Sprintf("recognition:contract:%s", contractID)
}

// RedisLocker shares locks between processes through Redis
type RedisLocker struct {
	client *redislock.Client
}

// NewRedisLocker creates a locker on top of a Redis client
func NewRedisLocker(rdb redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: redislock.New(rdb)}
}

func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	lock, err := l.client.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrNotObtained
	}
	if err != nil {
		return nil, fmt.Errorf("obtain %s: %w", key, err)
	}
	return lock, nil
}

// MemoryLocker holds locks inside the current process. Used when Redis is not configured.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]memoryHold
}

// memoryHold is one obtain of a key; the token ties a release to that obtain
type memoryHold struct {
	token   string
	expires time.Time
}

// NewMemoryLocker creates an in-process locker
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]memoryHold)}
}

func (l *MemoryLocker) Obtain(_ context.Context, key string, ttl time.Duration) (Lock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if hold, ok := l.held[key]; ok && now.Before(hold.expires) {
		return nil, ErrNotObtained
	}
	token := uuid.NewString()
	l.held[key] = memoryHold{token: token, expires: now.Add(ttl)}
	return &memoryLock{locker: l, key: key, token: token}, nil
}

type memoryLock struct {
	locker *MemoryLocker
	key    string
	token  string
	once   sync.Once
}

// Release frees the key only while it is still held by this lock. An expired
// lock whose key was taken over leaves the new holder in place.
func (m *memoryLock) Release(_ context.Context) error {
	m.once.Do(func() {
		m.locker.mu.Lock()
		defer m.locker.mu.Unlock()
		if hold, ok := m.locker.held[m.key]; ok && hold.token == m.token {
			delete(m.locker.held, m.key)
		}
	})
	return nil
}
