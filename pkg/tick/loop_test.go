package tick_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/roguepath/pkg/tick"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop_FiresInRegistrationOrder(t *testing.T) {
	l := tick.New()
	var got []string
	l.Every(time.Second, func() { got = append(got, "spawn") })
	l.Every(time.Second, func() { got = append(got, "timer") })
	l.Every(2*time.Second, func() { got = append(got, "slow") })

	l.Advance(2 * time.Second)
	assert.Equal(t, []string{"spawn", "timer", "spawn", "timer", "slow"}, got)
	assert.Equal(t, 2*time.Second, l.Now())
}

func TestLoop_CancelStopsFurtherFiring(t *testing.T) {
	l := tick.New()
	var a, b int
	var cancelB func()
	l.Every(time.Second, func() {
		a++
		if a == 2 {
			cancelB()
		}
	})
	cancelB = l.Every(time.Second, func() { b++ })

	l.Advance(5 * time.Second)
	assert.Equal(t, 5, a)
	assert.Equal(t, 1, b, "cancelled within the same instant, before its turn")
	assert.Equal(t, 1, l.Pending())

	cancelB()
}

func TestLoop_PostRunsOnAdvanceAndDrain(t *testing.T) {
	l := tick.New()
	var order []string
	l.Every(time.Second, func() {
		order = append(order, "task")
		l.Post(func() { order = append(order, "posted-by-task") })
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		l.Post(func() { order = append(order, "external") })
	}()
	wg.Wait()

	l.Advance(time.Second)
	assert.Equal(t, []string{"external", "task", "posted-by-task"}, order)

	l.Post(func() { order = append(order, "late") })
	l.Drain()
	assert.Equal(t, "late", order[len(order)-1])
}

func TestLoop_Call(t *testing.T) {
	l := tick.New()
	ran := false
	err := l.Call(context.Background(), func() error {
		ran = true
		return errors.New("boom")
	})
	assert.True(t, ran)
	assert.EqualError(t, err, "boom")
}

func TestLoop_Run(t *testing.T) {
	l := tick.New(tick.WithResolution(time.Millisecond))
	fired := make(chan struct{}, 1)
	l.Every(time.Millisecond, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("task never fired")
	}
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
