// Package locker сериализует операции над таблицами по ключам.
// Ключи одного вызова берутся в отсортированном порядке, поэтому два вызова
// с пересекающимися наборами ключей не могут взаимно заблокироваться.
package locker

import (
	"context"
	"errors"
	"sort"
	"time"
)

// ErrLockTimeout ключ не удалось захватить до отмены контекста
var ErrLockTimeout = errors.New("locker: lock acquisition timed out")

// Locker захватывает набор ключей и возвращает функцию освобождения
type Locker interface {
	Lock(ctx context.Context, keys ...string) (func(), error)
}

// normalizeKeys убирает дубликаты и пустые ключи, сортирует
func normalizeKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type timeoutLocker struct {
	Locker
	timeout time.Duration
}

// WithTimeout ограничивает время ожидания захвата ключей.
// Удержание ключей после захвата не ограничено.
func WithTimeout(l Locker, timeout time.Duration) Locker {
	if timeout <= 0 {
		return l
	}
	return &timeoutLocker{Locker: l, timeout: timeout}
}

func (t *timeoutLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.Locker.Lock(ctx, keys...)
}
