package core

import (
	"context"

	"github.com/pkg/errors"
)

var ErrLockNotObtained = errors.New("resource is busy, try again")

type (
	// Locker serializes work on a shared resource, identified by key, across API instances.
	Locker interface {
		// Lock blocks until key is held or ctx is done.
		Lock(ctx context.Context, key string) (Lock, error)
	}

	Lock interface {
		Release(ctx context.Context) error
	}
)
