package outbox

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	domoutbox "github.com/Zhima-Mochi/minishop-marketplace/internal/domain/outbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct{ name string }

func (e testEvent) EventName() string { return e.name }

func TestBusFansOutToEverySubscriber(t *testing.T) {
	bus := NewBus(nil)
	var got atomic.Int32
	var wg sync.WaitGroup
	wg.Add(2)
	for i := 0; i < 2; i++ {
		bus.Subscribe("order.placed", func(ctx context.Context, e domoutbox.Event) error {
			got.Add(1)
			wg.Done()
			return nil
		})
	}
	bus.Subscribe("other", func(context.Context, domoutbox.Event) error {
		t.Error("unrelated subscriber called")
		return nil
	})

	bus.Start(context.Background())
	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "order.placed"}))
	wg.Wait()
	bus.Stop(context.Background())

	assert.Equal(t, int32(2), got.Load())
}

func TestBusSurvivesPanicsAndErrors(t *testing.T) {
	bus := NewBus(nil)
	done := make(chan struct{})
	bus.Subscribe("e", func(context.Context, domoutbox.Event) error { panic("boom") })
	bus.Subscribe("e", func(context.Context, domoutbox.Event) error { return errors.New("fail") })
	bus.Subscribe("e", func(context.Context, domoutbox.Event) error {
		close(done)
		return nil
	})

	bus.Start(context.Background())
	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "e"}))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler not called")
	}
	bus.Stop(context.Background())
}

func TestBusHandlerTimeout(t *testing.T) {
	bus := NewBus(nil, WithHandlerTimeout(10*time.Millisecond))
	errc := make(chan error, 1)
	bus.Subscribe("slow", func(ctx context.Context, _ domoutbox.Event) error {
		<-ctx.Done()
		errc <- ctx.Err()
		return ctx.Err()
	})

	bus.Start(context.Background())
	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "slow"}))
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("handler never timed out")
	}
	bus.Stop(context.Background())
}

func TestStopDrainsQueueAndRejectsLatePublish(t *testing.T) {
	bus := NewBus(nil)
	var got atomic.Int32
	bus.Subscribe("e", func(context.Context, domoutbox.Event) error {
		got.Add(1)
		return nil
	})

	bus.Start(context.Background())
	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(context.Background(), testEvent{name: "e"}))
	}
	bus.Stop(context.Background())

	assert.Equal(t, int32(5), got.Load())
	assert.ErrorIs(t, bus.Publish(context.Background(), testEvent{name: "e"}), ErrBusStopped)
}

func TestPublishHonoursContextWhenQueueFull(t *testing.T) {
	bus := NewBus(nil, WithQueueSize(1))
	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "e"}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bus.Publish(ctx, testEvent{name: "e"}), context.DeadlineExceeded)
}
