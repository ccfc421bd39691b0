package ports

import (
	"context"
	"errors"
	"time"
)

// ErrLockLost is the cancellation cause of a lock context whose lease could not be renewed.
var ErrLockLost = errors.New("session lock lost")

// UnlockFunc releases a session lock and stops its renewal.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serialises runs of one session across engine replicas that share a
// checkpoint store.
type DistributedLocker interface {
	// Lock blocks until the lock on key (a session id) is held or ctx is done.
	//
	// The lease lasts ttl and is renewed in the background until the UnlockFunc is called,
	// so a run may outlive ttl. The returned context derives from ctx and is cancelled with
	// cause ErrLockLost when a renewal finds the lease gone; work done under the lock must
	// use it so a replica that lost the session stops before its next checkpoint.
	Lock(ctx context.Context, key string, ttl time.Duration) (context.Context, UnlockFunc, error)
}
