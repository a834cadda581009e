// Package charger implements the BQ24193 battery-charger driver on top of a
// register-level ChargerBus and the active-low charge-enable GPIO line.
package charger

import (
	"sync/atomic"
	"time"

	"github.com/micro-nova/powctl-go/internal/events"
	"github.com/micro-nova/powctl-go/internal/gpio"
	"github.com/micro-nova/powctl-go/internal/powctl"
)

// Device is the charger device handle. At most one exists per Driver, from
// InitializeDriver to FinalizeDriver.
type Device struct {
	pad gpio.Pad // charge-enable line, owned exclusively

	watchdogEnabled atomic.Bool
	watchdogTimeout atomic.Int64 // nanoseconds

	// set only in event-handler mode
	event   *events.SystemEvent
	handler *irqHandler
}

func newDevice(eventHandler bool) *Device {
	d := &Device{}
	if eventHandler {
		d.event = events.NewSystemEvent()
		d.handler = &irqHandler{dev: d}
	}
	return d
}

func (d *Device) DeviceType() powctl.DeviceType       { return powctl.DeviceTypeCharger }
func (d *Device) StaticDeviceType() powctl.DeviceType { return powctl.DeviceTypeCharger }

// IsWatchdogTimerEnabled returns the host-side flag, which reflects the last
// successful enable or disable.
func (d *Device) IsWatchdogTimerEnabled() bool { return d.watchdogEnabled.Load() }

// WatchdogTimerTimeout returns the cached timeout programmed on the next enable.
func (d *Device) WatchdogTimerTimeout() time.Duration {
	return time.Duration(d.watchdogTimeout.Load())
}

// HasEventHandler reports whether the device was built in event-handler mode.
func (d *Device) HasEventHandler() bool { return d.event != nil }

// irqHandler forwards charger interrupts to the device event while enabled.
type irqHandler struct {
	dev     *Device
	enabled atomic.Bool
}

func (h *irqHandler) Source() gpio.DeviceCode { return gpio.DeviceCodeBq24190Irq }

func (h *irqHandler) Signal() {
	if h.enabled.Load() {
		h.dev.event.Signal()
	}
}

var _ powctl.Typed = (*Device)(nil)
