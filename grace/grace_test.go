package grace_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/recharge-dashboard/grace"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"
)

func TestWindowClosesAfterDuration(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Now())
	w := grace.Start(clk, 2*time.Second)

	require.True(t, w.Open())
	clk.Step(1999 * time.Millisecond)
	require.True(t, w.Open())
	clk.Step(time.Millisecond)
	require.False(t, w.Open())
}

func TestMarkInitializedClosesEarly(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Now())
	w := grace.Start(clk, 2*time.Second)

	w.MarkInitialized()
	require.False(t, w.Open())

	w.MarkInitialized()
	require.False(t, w.Open())

	clk.Step(5 * time.Second)
	require.False(t, w.Open())
	w.MarkInitialized()
	require.False(t, w.Open())
}

func TestResetReopens(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Now())
	w := grace.Start(clk, time.Second)
	clk.Step(time.Second)
	require.False(t, w.Open())

	w.Reset()
	require.True(t, w.Open())
	clk.Step(time.Second)
	require.False(t, w.Open())
}

func TestStaleTimerDoesNotCloseResetWindow(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Now())
	w := grace.Start(clk, time.Second)

	clk.Step(500 * time.Millisecond)
	w.Reset()
	clk.Step(600 * time.Millisecond)
	require.True(t, w.Open(), "first timer was cancelled by Reset")

	clk.Step(400 * time.Millisecond)
	require.False(t, w.Open())
}

func TestStopCancelsTimer(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Now())
	w := grace.Start(clk, time.Second)

	w.Stop()
	require.False(t, w.Open())
	require.False(t, clk.HasWaiters())
}

func TestDefaults(t *testing.T) {
	w := grace.Start(nil, 0)
	defer w.Stop()
	require.Equal(t, grace.DefaultDuration, w.Duration())
	require.True(t, w.Open())
}
