package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

type RedisStoreOptions struct {
	// host:port address.
	Endpoint string

	Password string
	DB       int

	// KeyPrefix namespaces every key written by this store.
	KeyPrefix string

	// DefaultTTL applies when Set is called without WithExpiration.
	DefaultTTL time.Duration

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RedisStore keeps msgpack-encoded values in Redis. Expiry is enforced by
// Redis itself, so it follows the server clock rather than an injected one.
type RedisStore[V any] struct {
	client     redis.Cmdable
	closer     func() error
	prefix     string
	defaultTTL time.Duration
}

// NewRedisStore connects to options.Endpoint and verifies the connection.
func NewRedisStore[V any](ctx context.Context, options *RedisStoreOptions) (*RedisStore[V], error) {
	if options.Endpoint == "" {
		return nil, errors.New("redis endpoint must be set")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         options.Endpoint,
		Password:     options.Password,
		DB:           options.DB,
		DialTimeout:  options.DialTimeout,
		ReadTimeout:  options.ReadTimeout,
		WriteTimeout: options.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.WithMessage(err, "redis.client.Ping failed")
	}

	s := NewRedisStoreWithClient[V](client, options.KeyPrefix, options.DefaultTTL)
	s.closer = client.Close
	return s, nil
}

// NewRedisStoreWithClient wraps an existing client. Close leaves the client open.
func NewRedisStoreWithClient[V any](client redis.Cmdable, prefix string, defaultTTL time.Duration) *RedisStore[V] {
	return &RedisStore[V]{
		client:     client,
		prefix:     prefix,
		defaultTTL: defaultTTL,
	}
}

func (s *RedisStore[V]) Set(ctx context.Context, key string, value V, opts ...SetOption) error {
	options := applyOptions(s.defaultTTL, opts)

	data, err := msgpack.Marshal(value)
	if err != nil {
		return errors.WithMessage(err, "msgpack.Marshal failed")
	}

	if options.IfNotExist {
		ok, err := s.client.SetNX(ctx, s.prefix+key, data, options.Expiration).Result()
		if err != nil {
			return errors.WithMessage(err, "redis.client.SetNX failed")
		}
		if !ok {
			return ErrConditionFailed
		}
		return nil
	}

	if err := s.client.Set(ctx, s.prefix+key, data, options.Expiration).Err(); err != nil {
		return errors.WithMessage(err, "redis.client.Set failed")
	}
	return nil
}

func (s *RedisStore[V]) Get(ctx context.Context, key string) (V, error) {
	var zero V

	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err == redis.Nil {
		return zero, ErrKeyNotFound
	}
	if err != nil {
		return zero, errors.WithMessage(err, "redis.client.Get failed")
	}

	var value V
	if err := msgpack.Unmarshal(data, &value); err != nil {
		return zero, errors.WithMessage(err, "msgpack.Unmarshal failed")
	}
	return value, nil
}

func (s *RedisStore[V]) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}
