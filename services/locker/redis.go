package lockersvc

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
)

const keyPrefix = "sportschool:lock:"

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

func NewRedisClient(conf *core.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Address,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return client, nil
}

// redisClient is the part of *redis.Client the locker needs.
type redisClient interface {
	redis.Scripter
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

type redisLocker struct {
	client redisClient
	ttl    time.Duration
	retry  time.Duration
	logger core.Logger
}

var _ core.Locker = (*redisLocker)(nil)

// NewRedisLocker returns a core.Locker backed by redis SET NX. Locks expire after ttl
// so a crashed holder never blocks a key for longer than that.
func NewRedisLocker(client redisClient, ttl time.Duration, logger core.Logger) core.Locker {
	return &redisLocker{
		client: client,
		ttl:    ttl,
		retry:  50 * time.Millisecond,
		logger: logger,
	}
}

func (l *redisLocker) Lock(ctx context.Context, key string) (core.Lock, error) {
	key = keyPrefix + key
	token := uuid.NewString()

	// never wait longer than a lock can live
	ctx, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil && ctx.Err() == nil {
			return nil, errors.Wrap(err, "setting lock key")
		}
		if ok {
			return &redisLock{locker: l, key: key, token: token}, nil
		}

		select {
		case <-ctx.Done():
			return nil, core.ErrLockNotObtained
		case <-time.After(l.retry):
		}
	}
}

type redisLock struct {
	locker *redisLocker
	key    string
	token  string
}

func (lk *redisLock) Release(ctx context.Context) error {
	n, err := releaseScript.Run(ctx, lk.locker.client, []string{lk.key}, lk.token).Int()
	if err != nil {
		return errors.Wrap(err, "releasing lock")
	}
	if n == 0 {
		lk.locker.logger.Warn("lock expired before release", map[string]interface{}{"key": lk.key})
	}
	return nil
}
