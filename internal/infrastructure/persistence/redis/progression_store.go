// Package redis implements the progression Store on Redis. Records live as
// JSON values under "leveling:"-prefixed keys; atomic updates use optimistic
// WATCH transactions so concurrent advances for one key never lose updates.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nebula-bot/nebula-hub/internal/domain/progression"
	"github.com/nebula-bot/nebula-hub/internal/domain/shared"
	"github.com/nebula-bot/nebula-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds Redis connection configuration.
type Config struct {
	// Host is the Redis server hostname.
	Host string

	// Port is the Redis server port.
	Port int

	// Password is the Redis authentication password (empty if no auth).
	Password string

	// DB is the Redis database number (0-15).
	DB int

	// PoolSize is the maximum number of socket connections.
	PoolSize int

	// DialTimeout is the timeout for establishing new connections.
	DialTimeout time.Duration

	// ReadTimeout is the timeout for socket reads.
	ReadTimeout time.Duration

	// WriteTimeout is the timeout for socket writes.
	WriteTimeout time.Duration
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         6379,
		DB:           0,
		PoolSize:     10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Addr returns the Redis address in "host:port" format.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS / KEYS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrConnection is returned when the Redis connection fails.
	ErrConnection = errors.New("redis: connection failed")

	// ErrTooMuchContention is returned when an optimistic update keeps
	// colliding past the retry budget.
	ErrTooMuchContention = errors.New("redis: too much contention on key")
)

// PrefixLeveling namespaces all progression record keys.
const PrefixLeveling = "leveling:"

// maxUpdateRetries bounds the optimistic WATCH retry loop.
const maxUpdateRetries = 16

// recordKey builds the storage key: "leveling:{communityId}.{userId}" for
// local scope, "leveling:global.{userId}" for global.
func recordKey(scope progression.Scope, user shared.UserID) string {
	return PrefixLeveling + scope.Key(user)
}

// recordPayload is the persisted record shape.
type recordPayload struct {
	Exp    int `json:"exp"`
	Levels int `json:"levels"`
}

// ══════════════════════════════════════════════════════════════════════════════
// STORE
// ══════════════════════════════════════════════════════════════════════════════

// ProgressionStore is a Redis-backed implementation of progression.Store.
type ProgressionStore struct {
	client *redis.Client
	logger *logger.Logger
}

// NewProgressionStore connects to Redis and returns the store.
func NewProgressionStore(cfg Config, log *logger.Logger) (*ProgressionStore, error) {
	if log == nil {
		log = logger.Default()
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	return &ProgressionStore{
		client: client,
		logger: log.Named("redis_store"),
	}, nil
}

// Close closes the Redis connection.
func (s *ProgressionStore) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable.
func (s *ProgressionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Get loads the record for a scope and user. A stored value that fails to
// decode is treated as absent rather than surfaced as a hard failure.
func (s *ProgressionStore) Get(ctx context.Context, scope progression.Scope, user shared.UserID) (progression.Record, error) {
	data, err := s.client.Get(ctx, recordKey(scope, user)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return progression.Record{}, shared.ErrRecordNotFound
		}
		return progression.Record{}, shared.WrapError("progression", "Get",
			shared.ErrStoreUnavailable, "redis get failed", err)
	}

	rec, ok := s.decode(scope, user, data)
	if !ok {
		return progression.Record{}, shared.ErrRecordNotFound
	}
	return rec, nil
}

// Save unconditionally persists a record. Records have no TTL.
func (s *ProgressionStore) Save(ctx context.Context, rec progression.Record) error {
	data, err := json.Marshal(recordPayload{Exp: rec.Exp.Int(), Levels: rec.Level.Int()})
	if err != nil {
		return shared.WrapError("progression", "Save", shared.ErrStoreUnavailable, "marshal record", err)
	}

	if err := s.client.Set(ctx, recordKey(rec.Scope, rec.UserID), data, 0).Err(); err != nil {
		return shared.WrapError("progression", "Save", shared.ErrStoreUnavailable, "redis set failed", err)
	}
	return nil
}

// Update atomically applies fn to the current record with an optimistic
// WATCH transaction. The closure may run multiple times under contention and
// must stay side-effect free.
func (s *ProgressionStore) Update(
	ctx context.Context,
	scope progression.Scope,
	user shared.UserID,
	fn progression.UpdateFunc,
) (progression.Record, error) {
	key := recordKey(scope, user)
	var updated progression.Record

	txn := func(tx *redis.Tx) error {
		current := progression.NewRecord(scope, user)
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			if rec, ok := s.decode(scope, user, data); ok {
				current = rec
			}
		case errors.Is(err, redis.Nil):
			// Lazily created below.
		default:
			return err
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		payload, err := json.Marshal(recordPayload{Exp: next.Exp.Int(), Levels: next.Level.Int()})
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		if err != nil {
			return err
		}

		updated = next
		return nil
	}

	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		err := s.client.Watch(ctx, txn, key)
		switch {
		case err == nil:
			return updated, nil
		case errors.Is(err, redis.TxFailedErr):
			// Another writer touched the key; retry against fresh state.
			continue
		default:
			var derr *shared.DomainError
			if errors.As(err, &derr) {
				// The closure rejected the update; not a store failure.
				return progression.Record{}, err
			}
			return progression.Record{}, shared.WrapError("progression", "Update",
				shared.ErrStoreUnavailable, "redis transaction failed", err)
		}
	}

	return progression.Record{}, shared.WrapError("progression", "Update",
		shared.ErrConcurrentModification, "optimistic update exhausted retries", ErrTooMuchContention)
}

// decode parses a stored payload into a record. Malformed payloads (the
// original system occasionally persisted non-numeric exp) report false and
// are handled as absent records.
func (s *ProgressionStore) decode(scope progression.Scope, user shared.UserID, data []byte) (progression.Record, bool) {
	var payload recordPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		s.logger.Warn("malformed progression record, treating as absent",
			logger.F("key", recordKey(scope, user)),
			logger.Err(err),
		)
		return progression.Record{}, false
	}
	if payload.Exp < 0 || payload.Levels < 0 {
		s.logger.Warn("negative progression record, treating as absent",
			logger.F("key", recordKey(scope, user)),
		)
		return progression.Record{}, false
	}

	return progression.Record{
		Scope:  scope,
		UserID: user,
		Exp:    shared.XP(payload.Exp),
		Level:  shared.Level(payload.Levels),
	}, true
}
