package locker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisTTL   = 30 * time.Second
	defaultRetryDelay = 25 * time.Millisecond
	redisKeyPrefix    = "tablebooking:lock:"
)

// Освобождаем ключ только если он всё ещё принадлежит нашему токену
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// Продлеваем TTL только своего ключа
var extendScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('PEXPIRE', KEYS[1], ARGV[2])
	end
	return 0
`)

// Redis распределённые блокировки на SET NX PX
// Пока ключи удерживаются, TTL продлевается каждые ttl/3.
// Если процесс умер, ключи освобождаются не позже чем через ttl.
type Redis struct {
	client     redis.UniversalClient
	ttl        time.Duration
	retryDelay time.Duration
}

// NewRedis создает locker поверх клиента Redis
func NewRedis(client redis.UniversalClient, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = defaultRedisTTL
	}
	return &Redis{
		client:     client,
		ttl:        ttl,
		retryDelay: defaultRetryDelay,
	}
}

// Lock захватывает все ключи или ни одного
func (r *Redis) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = normalizeKeys(keys)
	token := uuid.NewString()
	held := make([]string, 0, len(keys))

	release := func() {
		// Контекст вызова может быть уже отменён, ключи всё равно нужно отпустить
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		for i := len(held) - 1; i >= 0; i-- {
			_ = releaseScript.Run(releaseCtx, r.client, []string{held[i]}, token).Err()
		}
	}

	for _, key := range keys {
		redisKey := redisKeyPrefix + key
		if err := r.acquire(ctx, redisKey, token); err != nil {
			release()
			return nil, fmt.Errorf("lock %s: %w", key, err)
		}
		held = append(held, redisKey)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.keepAlive(stop, held, token)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			release()
		})
	}, nil
}

// renewInterval период продления TTL
func renewInterval(ttl time.Duration) time.Duration {
	return max(ttl/3, time.Millisecond)
}

// keepAlive продлевает TTL удерживаемых ключей до закрытия stop
func (r *Redis) keepAlive(stop <-chan struct{}, keys []string, token string) {
	ticker := time.NewTicker(renewInterval(r.ttl))
	defer ticker.Stop()

	ttlMs := r.ttl.Milliseconds()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), renewInterval(r.ttl))
		for _, key := range keys {
			// Чужой или истёкший ключ не трогаем
			_ = extendScript.Run(ctx, r.client, []string{key}, token, ttlMs).Err()
		}
		cancel()
	}
}

func (r *Redis) acquire(ctx context.Context, key, token string) error {
	for {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %v", ErrLockTimeout, ctx.Err())
			}
			return err
		}
		if ok {
			return nil
		}

		timer := time.NewTimer(r.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: %v", ErrLockTimeout, ctx.Err())
		case <-timer.C:
		}
	}
}
