package futurecash

import (
	"context"
	"time"

	model "github.com/glkeru/loyalty/futurecash/internal/models"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// Снятие блокировки только владельцем (сравнение токена)
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Блокировка периодических задач в redis: SET NX PX
type JobLock struct {
	client *redis.Client
}

func NewJobLock(client *redis.Client) *JobLock {
	return &JobLock{client}
}

func (l *JobLock) Lock(ctx context.Context, job string, ttl time.Duration) (func(ctx context.Context) error, error) {
	key := "futurecash:lock:" + job
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrLocked
	}
	return func(ctx context.Context) error {
		return unlockScript.Run(ctx, l.client, []string{key}, token).Err()
	}, nil
}
