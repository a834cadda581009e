// Package monitor runs the background loops that consume charger state: the
// interrupt event forwarder and the watchdog keep-alive.
package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/micro-nova/powctl-go/internal/events"
	"github.com/micro-nova/powctl-go/internal/models"
	"github.com/micro-nova/powctl-go/internal/powctl"
)

// EventSource is the part of the charger API the forwarder reads.
type EventSource interface {
	GetDeviceSystemEvent(dev powctl.Device) (*events.SystemEvent, error)
	GetChargerStatus(ctx context.Context, dev powctl.Device) (powctl.ChargerStatus, error)
	GetChargeCurrentState(ctx context.Context, dev powctl.Device) (powctl.ChargeCurrentState, error)
}

// Watchdog is the part of the charger API the keep-alive loop drives.
type Watchdog interface {
	IsWatchdogTimerEnabled(dev powctl.Device) (bool, error)
	GetWatchdogTimerTimeout(dev powctl.Device) (time.Duration, error)
	ResetWatchdogTimer(ctx context.Context, dev powctl.Device) error
}

// ForwardEvents waits on the device's system event and publishes a
// notification with the charger status for every occurrence. The event is
// cleared before the status is read so an interrupt raised meanwhile is not
// lost. It returns when ctx is done, or immediately if the device has no event.
func ForwardEvents(ctx context.Context, src EventSource, dev powctl.Device, code powctl.DeviceCode, bus *events.Bus) error {
	ev, err := src.GetDeviceSystemEvent(dev)
	if err != nil {
		return err
	}
	for {
		if err := ev.Wait(ctx); err != nil {
			return err
		}
		ev.Clear()

		n := models.Notification{Code: code.String(), Time: time.Now()}
		if st, err := src.GetChargerStatus(ctx, dev); err != nil {
			n.Error = err.Error()
		} else {
			n.Status = st.String()
		}
		if cs, err := src.GetChargeCurrentState(ctx, dev); err != nil {
			if n.Error == "" {
				n.Error = err.Error()
			}
		} else {
			n.ChargeCurrentState = cs.String()
		}
		if n.Error != "" {
			slog.Warn("monitor: charger read after interrupt", "code", code, "err", n.Error)
		}
		bus.Publish(n)
	}
}

// KeepWatchdogAlive resets the charger watchdog at half its cached timeout
// while the host flag says it is enabled. floor bounds the interval from
// below and is also the poll period while the watchdog is off.
func KeepWatchdogAlive(ctx context.Context, wd Watchdog, dev powctl.Device, floor time.Duration) {
	timer := time.NewTimer(interval(wd, dev, floor))
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if on, _ := wd.IsWatchdogTimerEnabled(dev); on {
				if err := wd.ResetWatchdogTimer(ctx, dev); err != nil {
					// Not fatal: next tick retries before the IC expires
					slog.Warn("monitor: watchdog reset failed", "err", err)
				}
			}
			timer.Reset(interval(wd, dev, floor))
		}
	}
}

func interval(wd Watchdog, dev powctl.Device, floor time.Duration) time.Duration {
	timeout, err := wd.GetWatchdogTimerTimeout(dev)
	if err != nil || timeout/2 < floor {
		return floor
	}
	return timeout / 2
}
