package shutdown

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestManager_RunsFunctionsInReverseOrder(t *testing.T) {
	m := New(time.Second, zap.NewNop())

	var order []string
	m.Add("first", func(ctx context.Context) error {
		order = append(order, "first")
		return nil
	})
	m.Add("second", func(ctx context.Context) error {
		order = append(order, "second")
		return errors.New("boom")
	})
	m.Add("third", Close(closerFunc(func() error {
		order = append(order, "third")
		return nil
	})))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m.WaitContext(ctx)

	// a failing function does not stop the rest
	assert.Equal(t, []string{"third", "second", "first"}, order)
}

func TestManager_FunctionGetsDeadline(t *testing.T) {
	m := New(50*time.Millisecond, zap.NewNop())

	var hasDeadline bool
	m.Add("check", func(ctx context.Context) error {
		_, hasDeadline = ctx.Deadline()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m.WaitContext(ctx)

	assert.True(t, hasDeadline)
}
