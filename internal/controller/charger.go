package controller

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/micro-nova/powctl-go/internal/models"
	"github.com/micro-nova/powctl-go/internal/powctl"
)

// maxWatchdogTimeoutSec is the largest timeout a time.Duration can hold.
const maxWatchdogTimeoutSec = math.MaxInt64 / int64(time.Second)

// UpdateCharger applies every non-nil field of upd in declaration order and
// returns a fresh snapshot. Enumerations are validated before any hardware is
// touched; a hardware failure stops the update where it happened.
func (c *Controller) UpdateCharger(ctx context.Context, upd models.ChargerUpdate) (models.ChargerState, *models.AppError) {
	var (
		cfg   powctl.ChargerConfiguration
		state powctl.ChargeCurrentState
		ok    bool
	)
	if upd.Configuration != nil {
		if cfg, ok = powctl.ParseChargerConfiguration(*upd.Configuration); !ok {
			return models.ChargerState{}, badField("configuration", *upd.Configuration)
		}
	}
	if upd.ChargeCurrentState != nil {
		if state, ok = powctl.ParseChargeCurrentState(*upd.ChargeCurrentState); !ok {
			return models.ChargerState{}, badField("charge_current_state", *upd.ChargeCurrentState)
		}
	}
	if v := upd.WatchdogTimeoutSec; v != nil && (*v < 0 || int64(*v) > maxWatchdogTimeoutSec) {
		return models.ChargerState{}, badField("watchdog_timeout_s", fmt.Sprint(*upd.WatchdogTimeoutSec))
	}

	dev, appErr := c.device()
	if appErr != nil {
		return models.ChargerState{}, appErr
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	steps := []struct {
		set bool
		fn  func() error
	}{
		{upd.Configuration != nil, func() error { return c.chg.SetChargerConfiguration(ctx, dev, cfg) }},
		{upd.ChargeCurrentState != nil, func() error { return c.chg.SetChargeCurrentState(ctx, dev, state) }},
		{upd.FastChargeCurrentLimit != nil, func() error { return c.chg.SetFastChargeCurrentLimit(ctx, dev, *upd.FastChargeCurrentLimit) }},
		{upd.ChargeVoltageLimit != nil, func() error { return c.chg.SetChargeVoltageLimit(ctx, dev, *upd.ChargeVoltageLimit) }},
		{upd.InputCurrentLimit != nil, func() error { return c.chg.SetInputCurrentLimit(ctx, dev, *upd.InputCurrentLimit) }},
		{upd.InputVoltageLimit != nil, func() error { return c.chg.SetInputVoltageLimit(ctx, dev, *upd.InputVoltageLimit) }},
		{upd.BoostModeCurrentLimit != nil, func() error { return c.chg.SetBoostModeCurrentLimit(ctx, dev, *upd.BoostModeCurrentLimit) }},
		{upd.HiZEnabled != nil, func() error { return c.chg.SetHiZEnabled(ctx, dev, *upd.HiZEnabled) }},
		{upd.BatteryCompensation != nil, func() error { return c.chg.SetBatteryCompensation(ctx, dev, *upd.BatteryCompensation) }},
		{upd.VoltageClamp != nil, func() error { return c.chg.SetVoltageClamp(ctx, dev, *upd.VoltageClamp) }},
		{upd.WatchdogTimeoutSec != nil, func() error {
			return c.chg.SetWatchdogTimerTimeout(dev, time.Duration(*upd.WatchdogTimeoutSec)*time.Second)
		}},
		{upd.WatchdogEnabled != nil, func() error { return c.chg.SetWatchdogTimerEnabled(ctx, dev, *upd.WatchdogEnabled) }},
	}
	for _, s := range steps {
		if !s.set {
			continue
		}
		if err := s.fn(); err != nil {
			return models.ChargerState{}, FromError(err)
		}
	}

	st, err := c.snapshot(ctx, dev)
	if err != nil {
		return models.ChargerState{}, FromError(err)
	}
	c.bus.Publish(models.Notification{
		Code:               st.Code,
		Status:             st.Status,
		ChargeCurrentState: st.ChargeCurrentState,
		Time:               time.Now(),
	})
	return st, nil
}

// ResetWatchdog restarts the charger watchdog countdown.
func (c *Controller) ResetWatchdog(ctx context.Context) *models.AppError {
	dev, appErr := c.device()
	if appErr != nil {
		return appErr
	}
	if err := c.chg.ResetWatchdogTimer(ctx, dev); err != nil {
		return FromError(err)
	}
	return nil
}

// SetInterruptEnabled switches interrupt forwarding for the charger.
func (c *Controller) SetInterruptEnabled(enabled bool) *models.AppError {
	dev, appErr := c.device()
	if appErr != nil {
		return appErr
	}
	if err := c.chg.SetDeviceInterruptEnabled(dev, enabled); err != nil {
		return FromError(err)
	}
	return nil
}

func badField(field, value string) *models.AppError {
	e := models.ErrBadRequest(fmt.Sprintf("invalid %s %q", field, value))
	e.Field = field
	return e
}
