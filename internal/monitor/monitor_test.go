package monitor_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/micro-nova/powctl-go/internal/charger"
	"github.com/micro-nova/powctl-go/internal/events"
	"github.com/micro-nova/powctl-go/internal/gpio"
	"github.com/micro-nova/powctl-go/internal/hardware"
	"github.com/micro-nova/powctl-go/internal/interrupt"
	"github.com/micro-nova/powctl-go/internal/monitor"
	"github.com/micro-nova/powctl-go/internal/powctl"
)

func setup(t *testing.T, eventHandler bool) (*charger.Driver, *hardware.Mock, *interrupt.Registry, powctl.Device) {
	t.Helper()
	bus := hardware.NewMock()
	irq := interrupt.NewRegistry()
	reg := powctl.NewRegistry()
	drv := charger.NewDriver(reg, bus, gpio.NewMock(), irq, charger.Options{
		EventHandler: eventHandler,
		Retry:        powctl.RetryPolicy{MaxAttempts: 1},
	})
	if err := drv.InitializeDriver(context.Background()); err != nil {
		t.Fatalf("InitializeDriver: %v", err)
	}
	t.Cleanup(func() { drv.FinalizeDriver(context.Background()) })
	dev, err := reg.FindDevice(powctl.DeviceCodeBq24193)
	if err != nil {
		t.Fatalf("FindDevice: %v", err)
	}
	return drv, bus, irq, dev
}

func TestForwardEvents_NoEvent(t *testing.T) {
	drv, _, _, dev := setup(t, false)
	err := monitor.ForwardEvents(context.Background(), drv, dev, powctl.DeviceCodeBq24193, events.NewBus())
	if !errors.Is(err, powctl.ErrNotAvailable) {
		t.Fatalf("err = %v, want ErrNotAvailable", err)
	}
}

func TestForwardEvents_PublishesAndClears(t *testing.T) {
	drv, bus, irq, dev := setup(t, true)
	if err := drv.SetDeviceInterruptEnabled(dev, true); err != nil {
		t.Fatal(err)
	}
	bus.SetStatus(hardware.ChargerStatusFastCharging)

	nbus := events.NewBus()
	sub := nbus.Subscribe("test")
	defer nbus.Unsubscribe("test")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- monitor.ForwardEvents(ctx, drv, dev, powctl.DeviceCodeBq24193, nbus) }()

	irq.Dispatch(gpio.DeviceCodeBq24190Irq)

	select {
	case n := <-sub:
		if n.Status != "charging" {
			t.Errorf("Status = %q, want charging", n.Status)
		}
		if n.ChargeCurrentState != "charging" {
			t.Errorf("ChargeCurrentState = %q, want charging", n.ChargeCurrentState)
		}
		if n.Code != powctl.DeviceCodeBq24193.String() {
			t.Errorf("Code = %q", n.Code)
		}
		if n.Error != "" {
			t.Errorf("Error = %q, want empty", n.Error)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no notification published")
	}

	ev, _ := drv.GetDeviceSystemEvent(dev)
	if ev.IsSignaled() {
		t.Error("event still signaled after forwarding")
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("ForwardEvents returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ForwardEvents did not stop")
	}
}

func TestForwardEvents_ReportsBusError(t *testing.T) {
	drv, bus, irq, dev := setup(t, true)
	_ = drv.SetDeviceInterruptEnabled(dev, true)
	bus.FailAlways("GetChargerStatus", errors.New("nack"))

	nbus := events.NewBus()
	sub := nbus.Subscribe("test")
	defer nbus.Unsubscribe("test")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = monitor.ForwardEvents(ctx, drv, dev, powctl.DeviceCodeBq24193, nbus) }()

	irq.Dispatch(gpio.DeviceCodeBq24190Irq)

	select {
	case n := <-sub:
		if n.Error != "nack" {
			t.Errorf("Error = %q, want nack", n.Error)
		}
		if n.Status != "" {
			t.Errorf("Status = %q, want empty", n.Status)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no notification published")
	}
}

func TestKeepWatchdogAlive(t *testing.T) {
	drv, bus, _, dev := setup(t, false)
	ctx := context.Background()
	if err := drv.SetWatchdogTimerTimeout(dev, 20*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if err := drv.SetWatchdogTimerEnabled(ctx, dev, true); err != nil {
		t.Fatal(err)
	}
	base := bus.WatchdogResets()

	kctx, cancel := context.WithCancel(ctx)
	stopped := make(chan struct{})
	go func() {
		monitor.KeepWatchdogAlive(kctx, drv, dev, 5*time.Millisecond)
		close(stopped)
	}()

	deadline := time.After(2 * time.Second)
	for bus.WatchdogResets() < base+3 {
		select {
		case <-deadline:
			t.Fatalf("resets = %d, want >= %d", bus.WatchdogResets(), base+3)
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-stopped
}

func TestKeepWatchdogAlive_DisabledDoesNothing(t *testing.T) {
	drv, bus, _, dev := setup(t, false)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	monitor.KeepWatchdogAlive(ctx, drv, dev, 5*time.Millisecond)

	if n := bus.WatchdogResets(); n != 0 {
		t.Errorf("resets = %d, want 0 while disabled", n)
	}
}
