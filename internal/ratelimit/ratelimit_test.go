package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEvaler struct {
	keys   []string
	args   []interface{}
	result int64
	err    error
}

func (f *fakeEvaler) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	f.keys = keys
	f.args = args
	cmd := redis.NewCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(f.result)
	}
	return cmd
}

func TestLocalLimiterPerKey(t *testing.T) {
	l, err := NewLocalLimiter(1, 2, 16, time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := l.Allow(ctx, "10.0.0.1")
	assert.False(t, ok, "burst exhausted")

	ok, _ = l.Allow(ctx, "10.0.0.2")
	assert.True(t, ok, "other clients have their own bucket")
}

func TestRedisLimiter(t *testing.T) {
	fake := &fakeEvaler{result: 1}
	l := NewRedisLimiter(fake, 5, 10)
	l.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }

	ok, err := l.Allow(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"eventboard:rate_limit:10.0.0.1"}, fake.keys)
	assert.Equal(t, []interface{}{int64(1_700_000_000_000), 5, 10, int64(3000)}, fake.args)

	fake.result = 0
	ok, err = l.Allow(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)

	fake.err = errors.New("connection refused")
	_, err = l.Allow(context.Background(), "10.0.0.1")
	assert.ErrorContains(t, err, "connection refused")
}
