package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rentalworks/backend/internal/domain/shared"
)

// RedisCompanyLocker serializes payment reconciliation per company using
// Redis. This is suitable for distributed deployments where multiple
// instances may receive payments for the same company.
type RedisCompanyLocker struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisCompanyLocker creates a new Redis-based company locker
func NewRedisCompanyLocker(cfg RedisConfig, ttl time.Duration) (*RedisCompanyLocker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCompanyLocker{
		client:    client,
		keyPrefix: "reconcile:lock:",
		ttl:       ttl,
	}, nil
}

// NewRedisCompanyLockerWithClient creates a locker with an existing Redis client.
// This is useful for testing or when sharing a client across components.
func NewRedisCompanyLockerWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisCompanyLocker {
	if keyPrefix == "" {
		keyPrefix = "reconcile:lock:"
	}
	return &RedisCompanyLocker{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// AcquireCompanyLock acquires an exclusive per-company lock via SETNX. The TTL
// guards against a crashed holder leaving the company locked forever; a normal
// release deletes the key immediately.
func (l *RedisCompanyLocker) AcquireCompanyLock(ctx context.Context, companyID uuid.UUID) (func(), error) {
	key := l.keyPrefix + companyID.String()
	token := uuid.NewString()

	acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire company lock: %w", err)
	}
	if !acquired {
		return nil, shared.ErrLockNotAcquired
	}

	release := func() {
		// Only delete the key if it still carries our token; after a TTL
		// expiry another holder may own the lock.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		l.client.Eval(releaseCtx,
			`if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`,
			[]string{key}, token)
	}
	return release, nil
}

// Close closes the underlying Redis connection
func (l *RedisCompanyLocker) Close() error {
	return l.client.Close()
}
