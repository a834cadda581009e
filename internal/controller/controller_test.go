package controller_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"testing"
	"time"

	"github.com/micro-nova/powctl-go/internal/charger"
	"github.com/micro-nova/powctl-go/internal/controller"
	"github.com/micro-nova/powctl-go/internal/events"
	"github.com/micro-nova/powctl-go/internal/gpio"
	"github.com/micro-nova/powctl-go/internal/hardware"
	"github.com/micro-nova/powctl-go/internal/interrupt"
	"github.com/micro-nova/powctl-go/internal/models"
	"github.com/micro-nova/powctl-go/internal/powctl"
)

type testEnv struct {
	ctrl *controller.Controller
	bus  *hardware.Mock
	pins *gpio.Mock
	irq  *interrupt.Registry
	nbus *events.Bus
	drv  *charger.Driver
	sub  *powctl.Subsystem
}

func newTestController(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		bus:  hardware.NewMock(),
		pins: gpio.NewMock(),
		irq:  interrupt.NewRegistry(),
		nbus: events.NewBus(),
	}
	sub := powctl.NewSubsystem(powctl.NewRegistry())
	env.sub = sub
	env.drv = charger.NewDriver(sub.Registry(), env.bus, env.pins, env.irq, charger.Options{
		EventHandler: true,
		Retry:        powctl.RetryPolicy{MaxAttempts: 2},
	})
	sub.AddDriver(env.drv)
	if err := sub.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	t.Cleanup(func() { sub.Finalize(context.Background()) })
	env.ctrl = controller.New(sub, env.drv, env.nbus)
	return env
}

func ptr[T any](v T) *T { return &v }

func TestCharger_Snapshot(t *testing.T) {
	env := newTestController(t)
	env.bus.SetStatus(hardware.ChargerStatusPreCharge)

	st, appErr := env.ctrl.Charger(context.Background())
	if appErr != nil {
		t.Fatalf("Charger() error = %v", appErr)
	}
	if st.Code != "0x39000001" {
		t.Errorf("Code = %q", st.Code)
	}
	if st.Status != "charging" {
		t.Errorf("Status = %q, want charging", st.Status)
	}
	if st.ChargeCurrentState != "charging" {
		t.Errorf("ChargeCurrentState = %q, want charging", st.ChargeCurrentState)
	}
	if st.FastChargeCurrentLimit != 2048 {
		t.Errorf("FastChargeCurrentLimit = %d, want mock default 2048", st.FastChargeCurrentLimit)
	}
}

func TestCharger_SnapshotBusFailure(t *testing.T) {
	env := newTestController(t)
	env.bus.FailAlways("GetVoltageClamp", errors.New("nack"))

	_, appErr := env.ctrl.Charger(context.Background())
	if appErr == nil {
		t.Fatal("Charger() error = nil, want hardware error")
	}
	if appErr.Status != http.StatusBadGateway {
		t.Errorf("Status = %d, want 502", appErr.Status)
	}
}

func TestUpdateCharger(t *testing.T) {
	env := newTestController(t)
	sub := env.nbus.Subscribe("t")
	defer env.nbus.Unsubscribe("t")

	st, appErr := env.ctrl.UpdateCharger(context.Background(), models.ChargerUpdate{
		Configuration:          ptr("otg"),
		ChargeCurrentState:     ptr("charging_force_20_percent"),
		FastChargeCurrentLimit: ptr(1024),
		HiZEnabled:             ptr(true),
		WatchdogTimeoutSec:     ptr(80),
		WatchdogEnabled:        ptr(true),
	})
	if appErr != nil {
		t.Fatalf("UpdateCharger() error = %v", appErr)
	}
	if st.ChargeCurrentState != "charging_force_20_percent" {
		t.Errorf("ChargeCurrentState = %q", st.ChargeCurrentState)
	}
	if st.FastChargeCurrentLimit != 1024 || !st.HiZEnabled {
		t.Errorf("snapshot = %+v", st)
	}
	if !st.WatchdogEnabled || st.WatchdogTimeoutSec != 80 {
		t.Errorf("watchdog = %v/%d, want true/80", st.WatchdogEnabled, st.WatchdogTimeoutSec)
	}
	if got := env.bus.Configuration(); got != hardware.ChargerConfigurationOtg {
		t.Errorf("bus configuration = %v, want otg", got)
	}
	if got := env.bus.WatchdogSetting(); got != 80 {
		t.Errorf("bus watchdog setting = %d, want 80", got)
	}

	select {
	case n := <-sub:
		if n.ChargeCurrentState != "charging_force_20_percent" {
			t.Errorf("notification = %+v", n)
		}
	case <-time.After(time.Second):
		t.Error("no notification published")
	}
}

func TestUpdateCharger_BadEnumTouchesNothing(t *testing.T) {
	env := newTestController(t)
	env.bus.ResetCalls()

	tests := []models.ChargerUpdate{
		{Configuration: ptr("turbo"), FastChargeCurrentLimit: ptr(100)},
		{ChargeCurrentState: ptr("unknown")},
		{WatchdogTimeoutSec: ptr(-1)},
		{WatchdogTimeoutSec: ptr(math.MaxInt)},
	}
	for i, upd := range tests {
		_, appErr := env.ctrl.UpdateCharger(context.Background(), upd)
		if appErr == nil || appErr.Status != http.StatusBadRequest {
			t.Errorf("case %d: error = %v, want 400", i, appErr)
			continue
		}
		if appErr.Field == "" {
			t.Errorf("case %d: Field not set", i)
		}
	}
	if calls := env.bus.Calls(); len(calls) != 0 {
		t.Errorf("bus calls = %v, want none", calls)
	}
}

func TestUpdateCharger_StopsAtFailure(t *testing.T) {
	env := newTestController(t)
	env.bus.FailAlways("SetChargeVoltageLimit", errors.New("nack"))

	_, appErr := env.ctrl.UpdateCharger(context.Background(), models.ChargerUpdate{
		FastChargeCurrentLimit: ptr(512),
		ChargeVoltageLimit:     ptr(4000),
		InputCurrentLimit:      ptr(900),
	})
	if appErr == nil || appErr.Status != http.StatusBadGateway {
		t.Fatalf("error = %v, want 502", appErr)
	}
	if n := env.bus.CallCount("SetFastChargeCurrentLimit"); n != 1 {
		t.Errorf("SetFastChargeCurrentLimit calls = %d, want 1", n)
	}
	if n := env.bus.CallCount("SetInputCurrentLimit"); n != 0 {
		t.Errorf("SetInputCurrentLimit calls = %d, want 0 after earlier failure", n)
	}
}

func TestResetWatchdog(t *testing.T) {
	env := newTestController(t)
	if appErr := env.ctrl.ResetWatchdog(context.Background()); appErr != nil {
		t.Fatalf("ResetWatchdog() = %v", appErr)
	}
	if n := env.bus.WatchdogResets(); n != 1 {
		t.Errorf("resets = %d, want 1", n)
	}
}

func TestSetInterruptEnabled(t *testing.T) {
	env := newTestController(t)
	dev, _ := env.sub.FindDevice(powctl.DeviceCodeBq24193)
	ev, err := env.drv.GetDeviceSystemEvent(dev)
	if err != nil {
		t.Fatal(err)
	}

	if appErr := env.ctrl.SetInterruptEnabled(true); appErr != nil {
		t.Fatalf("SetInterruptEnabled() = %v", appErr)
	}
	env.irq.Dispatch(gpio.DeviceCodeBq24190Irq)
	if !ev.IsSignaled() {
		t.Error("event not signaled after enabling interrupts")
	}
}

func TestDevices(t *testing.T) {
	env := newTestController(t)
	devs := env.ctrl.Devices()
	if len(devs) != 1 {
		t.Fatalf("Devices() = %v, want 1 entry", devs)
	}
	if devs[0].Code != "0x39000001" || devs[0].Type != "charger" {
		t.Errorf("Devices()[0] = %+v", devs[0])
	}
}

func TestFromError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{powctl.ErrInvalidArgument, http.StatusBadRequest},
		{fmt.Errorf("wrap: %w", powctl.ErrNotFound), http.StatusNotFound},
		{powctl.ErrNotAvailable, http.StatusConflict},
		{powctl.ErrAlreadyRegistered, http.StatusConflict},
		{context.DeadlineExceeded, http.StatusInternalServerError},
		{errors.New("i2c: nack"), http.StatusBadGateway},
		{models.ErrNotFound("x"), http.StatusNotFound},
	}
	for _, tc := range tests {
		if got := controller.FromError(tc.err); got.Status != tc.status {
			t.Errorf("FromError(%v).Status = %d, want %d", tc.err, got.Status, tc.status)
		}
	}
}
