package hardware_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/micro-nova/powctl-go/internal/hardware"
)

func TestRateLimited_ZeroIsPassthrough(t *testing.T) {
	m := hardware.NewMock()
	if got := hardware.RateLimited(m, 0); got != hardware.ChargerBus(m) {
		t.Error("RateLimited(bus, 0) should return bus unchanged")
	}
}

func TestRateLimited_Forwards(t *testing.T) {
	m := hardware.NewMock()
	bus := hardware.RateLimited(m, 1000)
	ctx := context.Background()

	if err := bus.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	if err := bus.SetBoostModeCurrentLimit(ctx, 500); err != nil {
		t.Fatal(err)
	}
	if got := m.BoostModeCurrentLimit(); got != 500 {
		t.Errorf("boost = %d, want 500", got)
	}
}

func TestRateLimited_Throttles(t *testing.T) {
	m := hardware.NewMock()
	bus := hardware.RateLimited(m, 20) // one op per 50ms
	ctx := context.Background()
	_ = bus.Initialize(ctx)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := bus.ResetWatchdogTimer(ctx); err != nil {
			t.Fatal(err)
		}
	}
	// first token is free, the next two wait ~50ms each
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("3 ops took %v, want >= ~100ms", elapsed)
	}
}

func TestRateLimited_ContextCancel(t *testing.T) {
	m := hardware.NewMock()
	bus := hardware.RateLimited(m, 1)
	_ = bus.Initialize(context.Background())

	_ = bus.ResetWatchdogTimer(context.Background()) // drain the burst

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := bus.ResetWatchdogTimer(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if n := m.WatchdogResets(); n != 1 {
		t.Errorf("resets = %d, want 1", n)
	}
}
