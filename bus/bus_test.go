package bus_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/stateforward/go-asm/async"
	"github.com/stateforward/go-asm/bus"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var errBoom = errors.New("boom")

type calls struct {
	mu    sync.Mutex
	names []string
}

func (c *calls) handler(name string, result func() async.Result[bool]) bus.Handler[string] {
	return func(args string) async.Result[bool] {
		c.mu.Lock()
		c.names = append(c.names, name+":"+args)
		c.mu.Unlock()
		return result()
	}
}

func ok() async.Result[bool] {
	return async.Ready(true)
}

func fail() async.Result[bool] {
	return async.Failed[bool](errBoom)
}

func TestMemory(t *testing.T) {
	t.Run("no handlers", func(t *testing.T) {
		emission := bus.NewMemory[string]().Emit("missing", "x")
		assert.True(t, emission.IsImmediate())
		assert.NoError(t, emission.Err())
		assert.NoError(t, emission.Wait())
	})

	t.Run("calls handlers in registration order", func(t *testing.T) {
		c := &calls{}
		b := bus.NewMemory[string]()
		b.On("e", c.handler("first", ok))
		b.On("e", c.handler("second", ok))
		b.On("e", nil)
		b.On("other", c.handler("other", ok))
		assert.Equal(t, 2, b.Handlers("e"))

		emission := b.Emit("e", "x")
		assert.True(t, emission.IsImmediate())
		require.NoError(t, emission.Err())
		assert.Equal(t, []string{"first:x", "second:x"}, c.names)
	})

	t.Run("sync failure stops the emission", func(t *testing.T) {
		c := &calls{}
		b := bus.NewMemory[string]()
		b.On("e", c.handler("first", fail))
		b.On("e", c.handler("second", ok))

		emission := b.Emit("e", "x")
		assert.True(t, emission.IsImmediate())
		assert.ErrorIs(t, emission.Err(), errBoom)
		assert.Equal(t, []string{"first:x"}, c.names)
	})

	t.Run("pending handlers", func(t *testing.T) {
		c := &calls{}
		release := make(chan struct{})
		b := bus.NewMemory[string]()
		b.On("e", c.handler("slow", func() async.Result[bool] {
			return async.Pending(async.Go(func() (bool, error) {
				<-release
				return true, nil
			}))
		}))
		b.On("e", c.handler("fast", ok))

		emission := b.Emit("e", "x")
		require.False(t, emission.IsImmediate())
		assert.Equal(t, []string{"slow:x", "fast:x"}, c.names)
		assert.False(t, emission.Future().IsComplete())
		close(release)
		assert.NoError(t, emission.Wait())
	})

	t.Run("pending failure", func(t *testing.T) {
		b := bus.NewMemory[string]()
		b.On("e", func(string) async.Result[bool] {
			return async.Pending(async.Go(func() (bool, error) {
				return false, errBoom
			}))
		})
		b.On("e", func(string) async.Result[bool] {
			return async.Pending(async.Go(func() (bool, error) {
				return true, nil
			}))
		})
		emission := b.Emit("e", "x")
		require.False(t, emission.IsImmediate())
		assert.ErrorIs(t, emission.Wait(), errBoom)
	})

	t.Run("handlers registered while emitting wait for the next emission", func(t *testing.T) {
		c := &calls{}
		b := bus.NewMemory[string]()
		b.On("e", func(args string) async.Result[bool] {
			b.On("e", c.handler("late", ok))
			return async.Ready(true)
		})
		require.NoError(t, b.Emit("e", "1").Err())
		assert.Empty(t, c.names)
		require.NoError(t, b.Emit("e", "2").Err())
		assert.Equal(t, []string{"late:2"}, c.names)
	})
}
