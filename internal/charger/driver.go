package charger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/micro-nova/powctl-go/internal/events"
	"github.com/micro-nova/powctl-go/internal/gpio"
	"github.com/micro-nova/powctl-go/internal/hardware"
	"github.com/micro-nova/powctl-go/internal/interrupt"
	"github.com/micro-nova/powctl-go/internal/powctl"
)

// Options configures a Driver.
type Options struct {
	// EventHandler builds the device with a system event bound to the charger
	// interrupt line.
	EventHandler bool

	// Retry bounds every bus transaction. The zero value selects
	// powctl.DefaultRetryPolicy.
	Retry powctl.RetryPolicy
}

// Driver is the charger driver. Hardware sequences are serialized by the
// DriverBase mutex; reads of the enable line are not.
type Driver struct {
	powctl.DriverBase

	registry *powctl.Registry
	bus      hardware.ChargerBus
	gpioCtl  gpio.Controller
	irq      *interrupt.Registry
	policy   powctl.RetryPolicy

	device *Device
}

// NewDriver creates a charger driver. irq may be nil when opts.EventHandler
// is false.
func NewDriver(reg *powctl.Registry, bus hardware.ChargerBus, gpioCtl gpio.Controller, irq *interrupt.Registry, opts Options) *Driver {
	retry := opts.Retry
	if retry == (powctl.RetryPolicy{}) {
		retry = powctl.DefaultRetryPolicy()
	}
	return &Driver{
		DriverBase: powctl.NewDriverBase(opts.EventHandler),
		registry:   reg,
		bus:        bus,
		gpioCtl:    gpioCtl,
		irq:        irq,
		policy:     retry,
	}
}

var errNoInterruptRegistry = errors.New("charger: event-handler mode needs an interrupt registry")

// InitializeDriver brings up the bus and GPIO, builds the device, opens its
// enable line as an output and registers it under DeviceCodeBq24193. Errors
// are returned without unwinding.
func (d *Driver) InitializeDriver(ctx context.Context) error {
	if d.IsEventHandlerEnabled() && d.irq == nil {
		return errNoInterruptRegistry
	}
	if err := d.bus.Initialize(ctx); err != nil {
		return fmt.Errorf("charger: initialize bus: %w", err)
	}
	if err := d.gpioCtl.Initialize(); err != nil {
		return fmt.Errorf("charger: initialize gpio: %w", err)
	}

	dev := newDevice(d.IsEventHandlerEnabled())
	if dev.handler != nil {
		if err := d.irq.Register(dev.handler); err != nil {
			return fmt.Errorf("charger: register interrupt handler: %w", err)
		}
	}

	pad, err := d.gpioCtl.OpenSession(gpio.DeviceCodeBattChgEnableN)
	if err != nil {
		return fmt.Errorf("charger: open %s: %w", gpio.DeviceCodeBattChgEnableN, err)
	}
	dev.pad = pad
	if err := pad.SetDirection(gpio.DirectionOutput); err != nil {
		return fmt.Errorf("charger: configure %s: %w", gpio.DeviceCodeBattChgEnableN, err)
	}

	d.RegisterDevice(dev)
	if err := d.registry.RegisterDeviceCode(powctl.DeviceCodeBq24193, dev); err != nil {
		return fmt.Errorf("charger: %w", err)
	}
	d.device = dev

	slog.Info("charger: initialized", "code", powctl.DeviceCodeBq24193, "event_handler", dev.HasEventHandler())
	return nil
}

// FinalizeDriver undoes InitializeDriver in reverse order.
func (d *Driver) FinalizeDriver(ctx context.Context) {
	dev := d.device
	if dev == nil {
		return
	}
	if err := d.registry.UnregisterDeviceCode(powctl.DeviceCodeBq24193); err != nil {
		slog.Warn("charger: unregister device code", "err", err)
	}
	d.UnregisterDevice(dev)
	if err := dev.pad.Close(); err != nil {
		slog.Warn("charger: close enable line", "err", err)
	}
	if dev.handler != nil {
		d.irq.Unregister(dev.handler)
	}
	d.device = nil

	d.gpioCtl.Finalize()
	d.bus.Finalize()
	slog.Info("charger: finalized")
}

func (d *Driver) lockedRetry(ctx context.Context, op powctl.Op) error {
	return powctl.WithLock(d.Mutex(), powctl.WithRetry(ctx, d.policy, op))()
}

// retry is for steps inside a critical section the caller already holds.
func (d *Driver) retry(ctx context.Context, op powctl.Op) error {
	return powctl.WithRetry(ctx, d.policy, op)()
}

func (d *Driver) GetDeviceSystemEvent(dev powctl.Device) (*events.SystemEvent, error) {
	if dev == nil {
		return nil, powctl.ErrInvalidArgument
	}
	if !d.IsEventHandlerEnabled() {
		return nil, powctl.ErrNotAvailable
	}
	cd := powctl.SafeCast[*Device](dev)
	if cd.event == nil {
		return nil, powctl.ErrNotAvailable
	}
	return cd.event, nil
}

func (d *Driver) SetDeviceInterruptEnabled(dev powctl.Device, enable bool) error {
	if dev == nil {
		return powctl.ErrInvalidArgument
	}
	cd := powctl.SafeCast[*Device](dev)
	if cd.handler != nil {
		cd.handler.enabled.Store(enable)
	}
	return nil
}

func (d *Driver) GetDeviceErrorStatus(dev powctl.Device) (uint32, error) {
	panic("charger: GetDeviceErrorStatus not implemented")
}

func (d *Driver) SetDeviceErrorStatus(dev powctl.Device, status uint32) error {
	panic("charger: SetDeviceErrorStatus not implemented")
}

// GetChargeCurrentState reads the enable line without taking the driver
// mutex. Only the force-20% read is serialized.
func (d *Driver) GetChargeCurrentState(ctx context.Context, dev powctl.Device) (powctl.ChargeCurrentState, error) {
	if dev == nil {
		return powctl.ChargeCurrentStateUnknown, powctl.ErrInvalidArgument
	}
	if powctl.SafeCast[*Device](dev).pad.GetValue() == gpio.ValueHigh {
		return powctl.ChargeCurrentStateNotCharging, nil
	}

	var force bool
	err := d.lockedRetry(ctx, func() (err error) {
		force, err = d.bus.GetForce20PercentChargeCurrent(ctx)
		return err
	})
	if err != nil {
		return powctl.ChargeCurrentStateUnknown, err
	}
	if force {
		return powctl.ChargeCurrentStateChargingForce20Percent, nil
	}
	return powctl.ChargeCurrentStateCharging, nil
}

func (d *Driver) SetChargeCurrentState(ctx context.Context, dev powctl.Device, state powctl.ChargeCurrentState) error {
	if dev == nil {
		return powctl.ErrInvalidArgument
	}
	switch state {
	case powctl.ChargeCurrentStateNotCharging, powctl.ChargeCurrentStateCharging, powctl.ChargeCurrentStateChargingForce20Percent:
	default:
		return fmt.Errorf("%w: charge current state %s", powctl.ErrInvalidArgument, state)
	}

	mu := d.Mutex()
	mu.Lock()
	defer mu.Unlock()

	pad := powctl.SafeCast[*Device](dev).pad
	if state == powctl.ChargeCurrentStateNotCharging {
		if err := pad.SetValue(gpio.ValueHigh); err != nil {
			return fmt.Errorf("charger: disable charging: %w", err)
		}
		slog.Debug("charger: charge current state", "state", state)
		return nil
	}

	if err := pad.SetValue(gpio.ValueLow); err != nil {
		return fmt.Errorf("charger: enable charging: %w", err)
	}
	force := state == powctl.ChargeCurrentStateChargingForce20Percent
	if err := d.retry(ctx, func() error { return d.bus.SetForce20PercentChargeCurrent(ctx, force) }); err != nil {
		return err
	}
	slog.Debug("charger: charge current state", "state", state)
	return nil
}

func (d *Driver) GetFastChargeCurrentLimit(ctx context.Context, dev powctl.Device) (int, error) {
	if dev == nil {
		return 0, powctl.ErrInvalidArgument
	}
	var ma int
	err := d.lockedRetry(ctx, func() (err error) {
		ma, err = d.bus.GetFastChargeCurrentLimit(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}
	return ma, nil
}

func (d *Driver) SetFastChargeCurrentLimit(ctx context.Context, dev powctl.Device, ma int) error {
	if dev == nil {
		return powctl.ErrInvalidArgument
	}
	return d.lockedRetry(ctx, func() error { return d.bus.SetFastChargeCurrentLimit(ctx, ma) })
}

func (d *Driver) GetChargeVoltageLimit(ctx context.Context, dev powctl.Device) (int, error) {
	if dev == nil {
		return 0, powctl.ErrInvalidArgument
	}
	var mv int
	err := d.lockedRetry(ctx, func() (err error) {
		mv, err = d.bus.GetChargeVoltageLimit(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}
	return mv, nil
}

func (d *Driver) SetChargeVoltageLimit(ctx context.Context, dev powctl.Device, mv int) error {
	if dev == nil {
		return powctl.ErrInvalidArgument
	}
	return d.lockedRetry(ctx, func() error { return d.bus.SetChargeVoltageLimit(ctx, mv) })
}

// SetChargerConfiguration panics on a configuration outside the closed set.
func (d *Driver) SetChargerConfiguration(ctx context.Context, dev powctl.Device, cfg powctl.ChargerConfiguration) error {
	if dev == nil {
		return powctl.ErrInvalidArgument
	}

	var busCfg hardware.ChargerConfiguration
	switch cfg {
	case powctl.ChargerConfigurationChargeDisable:
		busCfg = hardware.ChargerConfigurationChargeDisable
	case powctl.ChargerConfigurationChargeBattery:
		busCfg = hardware.ChargerConfigurationChargeBattery
	case powctl.ChargerConfigurationOtg:
		busCfg = hardware.ChargerConfigurationOtg
	default:
		panic(fmt.Sprintf("charger: unmapped charger configuration %d", uint8(cfg)))
	}

	return d.lockedRetry(ctx, func() error { return d.bus.SetChargerConfiguration(ctx, busCfg) })
}

func (d *Driver) IsHiZEnabled(ctx context.Context, dev powctl.Device) (bool, error) {
	if dev == nil {
		return false, powctl.ErrInvalidArgument
	}
	var en bool
	err := d.lockedRetry(ctx, func() (err error) {
		en, err = d.bus.IsHiZEnabled(ctx)
		return err
	})
	if err != nil {
		return false, err
	}
	return en, nil
}

func (d *Driver) SetHiZEnabled(ctx context.Context, dev powctl.Device, enable bool) error {
	if dev == nil {
		return powctl.ErrInvalidArgument
	}
	return d.lockedRetry(ctx, func() error { return d.bus.SetHiZEnabled(ctx, enable) })
}

func (d *Driver) GetInputCurrentLimit(ctx context.Context, dev powctl.Device) (int, error) {
	if dev == nil {
		return 0, powctl.ErrInvalidArgument
	}
	var ma int
	err := d.lockedRetry(ctx, func() (err error) {
		ma, err = d.bus.GetInputCurrentLimit(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}
	return ma, nil
}

func (d *Driver) SetInputCurrentLimit(ctx context.Context, dev powctl.Device, ma int) error {
	if dev == nil {
		return powctl.ErrInvalidArgument
	}
	return d.lockedRetry(ctx, func() error { return d.bus.SetInputCurrentLimit(ctx, ma) })
}

func (d *Driver) SetInputVoltageLimit(ctx context.Context, dev powctl.Device, mv int) error {
	if dev == nil {
		return powctl.ErrInvalidArgument
	}
	return d.lockedRetry(ctx, func() error { return d.bus.SetInputVoltageLimit(ctx, mv) })
}

func (d *Driver) SetBoostModeCurrentLimit(ctx context.Context, dev powctl.Device, ma int) error {
	if dev == nil {
		return powctl.ErrInvalidArgument
	}
	return d.lockedRetry(ctx, func() error { return d.bus.SetBoostModeCurrentLimit(ctx, ma) })
}

// GetChargerStatus folds pre-charge and fast charging into Charging. A raw
// status outside the bus enumeration panics.
func (d *Driver) GetChargerStatus(ctx context.Context, dev powctl.Device) (powctl.ChargerStatus, error) {
	if dev == nil {
		return 0, powctl.ErrInvalidArgument
	}
	var raw hardware.ChargerStatus
	err := d.lockedRetry(ctx, func() (err error) {
		raw, err = d.bus.GetChargerStatus(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}

	switch raw {
	case hardware.ChargerStatusNotCharging:
		return powctl.ChargerStatusNotCharging, nil
	case hardware.ChargerStatusPreCharge, hardware.ChargerStatusFastCharging:
		return powctl.ChargerStatusCharging, nil
	case hardware.ChargerStatusChargeTerminationDone:
		return powctl.ChargerStatusChargeTerminationDone, nil
	default:
		panic(fmt.Sprintf("charger: unmapped bus status %s", raw))
	}
}

func (d *Driver) IsWatchdogTimerEnabled(dev powctl.Device) (bool, error) {
	if dev == nil {
		return false, powctl.ErrInvalidArgument
	}
	return powctl.SafeCast[*Device](dev).IsWatchdogTimerEnabled(), nil
}

// SetWatchdogTimerEnabled programs the IC watchdog. Enabling resets the counter
// and then writes the cached timeout, both inside one critical section.
// The host flag changes only when the whole sequence succeeds.
func (d *Driver) SetWatchdogTimerEnabled(ctx context.Context, dev powctl.Device, enable bool) error {
	if dev == nil {
		return powctl.ErrInvalidArgument
	}
	cd := powctl.SafeCast[*Device](dev)

	var err error
	if enable {
		seconds := int(cd.WatchdogTimerTimeout() / time.Second)
		err = powctl.WithLock(d.Mutex(), func() error {
			if err := d.retry(ctx, func() error { return d.bus.ResetWatchdogTimer(ctx) }); err != nil {
				return err
			}
			return d.retry(ctx, func() error { return d.bus.SetWatchdogTimerSetting(ctx, seconds) })
		})()
	} else {
		err = d.lockedRetry(ctx, func() error { return d.bus.SetWatchdogTimerSetting(ctx, 0) })
	}
	if err != nil {
		return err
	}

	cd.watchdogEnabled.Store(enable)
	slog.Info("charger: watchdog", "enabled", enable, "timeout", cd.WatchdogTimerTimeout())
	return nil
}

// SetWatchdogTimerTimeout only updates the cached timeout. It reaches the IC
// on the next enable.
func (d *Driver) SetWatchdogTimerTimeout(dev powctl.Device, timeout time.Duration) error {
	if dev == nil {
		return powctl.ErrInvalidArgument
	}
	if timeout < 0 {
		return fmt.Errorf("%w: negative watchdog timeout %s", powctl.ErrInvalidArgument, timeout)
	}
	powctl.SafeCast[*Device](dev).watchdogTimeout.Store(int64(timeout))
	return nil
}

func (d *Driver) GetWatchdogTimerTimeout(dev powctl.Device) (time.Duration, error) {
	if dev == nil {
		return 0, powctl.ErrInvalidArgument
	}
	return powctl.SafeCast[*Device](dev).WatchdogTimerTimeout(), nil
}

func (d *Driver) ResetWatchdogTimer(ctx context.Context, dev powctl.Device) error {
	if dev == nil {
		return powctl.ErrInvalidArgument
	}
	return d.lockedRetry(ctx, func() error { return d.bus.ResetWatchdogTimer(ctx) })
}

func (d *Driver) GetBatteryCompensation(ctx context.Context, dev powctl.Device) (int, error) {
	if dev == nil {
		return 0, powctl.ErrInvalidArgument
	}
	var mohm int
	err := d.lockedRetry(ctx, func() (err error) {
		mohm, err = d.bus.GetBatteryCompensation(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}
	return mohm, nil
}

func (d *Driver) SetBatteryCompensation(ctx context.Context, dev powctl.Device, mohm int) error {
	if dev == nil {
		return powctl.ErrInvalidArgument
	}
	return d.lockedRetry(ctx, func() error { return d.bus.SetBatteryCompensation(ctx, mohm) })
}

func (d *Driver) GetVoltageClamp(ctx context.Context, dev powctl.Device) (int, error) {
	if dev == nil {
		return 0, powctl.ErrInvalidArgument
	}
	var mv int
	err := d.lockedRetry(ctx, func() (err error) {
		mv, err = d.bus.GetVoltageClamp(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}
	return mv, nil
}

func (d *Driver) SetVoltageClamp(ctx context.Context, dev powctl.Device, mv int) error {
	if dev == nil {
		return powctl.ErrInvalidArgument
	}
	return d.lockedRetry(ctx, func() error { return d.bus.SetVoltageClamp(ctx, mv) })
}

var _ powctl.Charger = (*Driver)(nil)
