package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/switchboard/pkg/ports"
)

var _ ports.DistributedLocker = (*Locker)(nil)

// ErrLockAcquire is returned when the lock cannot be acquired.
var ErrLockAcquire = errors.New("failed to acquire distributed lock")

// unlockScript deletes the key only if it still holds our token.
var unlockScript = backend.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// extendScript resets the TTL only if the key still holds our token.
var extendScript = backend.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
else
	return 0
end
`)

const minRenewInterval = 10 * time.Millisecond

// Locker implements ports.DistributedLocker using Redis SET NX PX, renewing held
// leases every ttl/3.
type Locker struct {
	client   *backend.Client
	prefix   string
	interval time.Duration
}

// NewLocker creates a new Redis locker.
func NewLocker(client *backend.Client, prefix string) *Locker {
	return &Locker{
		client:   client,
		prefix:   prefix,
		interval: 100 * time.Millisecond,
	}
}

// Lock acquires the lock for key, polling until it is free or ctx is done.
// Each holder writes a unique token so only it can renew or release the lock.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (context.Context, ports.UnlockFunc, error) {
	lockKey := l.prefix + "lock:" + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			return nil, nil, fmt.Errorf("%w: %v", ErrLockAcquire, err)
		}
		if ok {
			leaseCtx, unlock := l.hold(ctx, lockKey, token, ttl)
			return leaseCtx, unlock, nil
		}

		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// hold starts the renewal loop of an acquired lease.
func (l *Locker) hold(ctx context.Context, lockKey, token string, ttl time.Duration) (context.Context, ports.UnlockFunc) {
	leaseCtx, cancel := context.WithCancelCause(ctx)
	stop := make(chan struct{})
	done := make(chan struct{})

	every := ttl / 3
	if every < minRenewInterval {
		every = minRenewInterval
	}

	go func() {
		defer close(done)
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-leaseCtx.Done():
				return
			case <-t.C:
				n, err := extendScript.Run(context.WithoutCancel(leaseCtx), l.client,
					[]string{lockKey}, token, ttl.Milliseconds()).Int64()
				if err == nil && n == 0 {
					cancel(ports.ErrLockLost)
					return
				}
				// Transient errors are retried on the next tick; the lease survives
				// until ttl runs out.
			}
		}
	}()

	var once sync.Once
	unlock := func(ctx context.Context) error {
		once.Do(func() { close(stop) })
		<-done
		defer cancel(nil)
		return unlockScript.Run(ctx, l.client, []string{lockKey}, token).Err()
	}
	return leaseCtx, unlock
}
