package hardware

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedBus throttles transactions issued to an underlying ChargerBus.
// The charger shares its I2C segment with other PMIC devices, so a retry storm
// from one caller must not starve the rest.
type RateLimitedBus struct {
	bus     ChargerBus
	limiter *rate.Limiter
}

// RateLimited wraps bus so that at most opsPerSec transactions are issued per
// second, with a burst of one. opsPerSec <= 0 returns bus unchanged.
func RateLimited(bus ChargerBus, opsPerSec int) ChargerBus {
	if opsPerSec <= 0 {
		return bus
	}
	return &RateLimitedBus{
		bus:     bus,
		limiter: rate.NewLimiter(rate.Limit(opsPerSec), 1),
	}
}

func (r *RateLimitedBus) wait(ctx context.Context) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("bus rate limit: %w", err)
	}
	return nil
}

func (r *RateLimitedBus) Initialize(ctx context.Context) error { return r.bus.Initialize(ctx) }
func (r *RateLimitedBus) Finalize()                            { r.bus.Finalize() }

func (r *RateLimitedBus) GetForce20PercentChargeCurrent(ctx context.Context) (bool, error) {
	if err := r.wait(ctx); err != nil {
		return false, err
	}
	return r.bus.GetForce20PercentChargeCurrent(ctx)
}

func (r *RateLimitedBus) SetForce20PercentChargeCurrent(ctx context.Context, force bool) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	return r.bus.SetForce20PercentChargeCurrent(ctx, force)
}

func (r *RateLimitedBus) GetFastChargeCurrentLimit(ctx context.Context) (int, error) {
	if err := r.wait(ctx); err != nil {
		return 0, err
	}
	return r.bus.GetFastChargeCurrentLimit(ctx)
}

func (r *RateLimitedBus) SetFastChargeCurrentLimit(ctx context.Context, ma int) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	return r.bus.SetFastChargeCurrentLimit(ctx, ma)
}

func (r *RateLimitedBus) GetChargeVoltageLimit(ctx context.Context) (int, error) {
	if err := r.wait(ctx); err != nil {
		return 0, err
	}
	return r.bus.GetChargeVoltageLimit(ctx)
}

func (r *RateLimitedBus) SetChargeVoltageLimit(ctx context.Context, mv int) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	return r.bus.SetChargeVoltageLimit(ctx, mv)
}

func (r *RateLimitedBus) SetChargerConfiguration(ctx context.Context, cfg ChargerConfiguration) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	return r.bus.SetChargerConfiguration(ctx, cfg)
}

func (r *RateLimitedBus) IsHiZEnabled(ctx context.Context) (bool, error) {
	if err := r.wait(ctx); err != nil {
		return false, err
	}
	return r.bus.IsHiZEnabled(ctx)
}

func (r *RateLimitedBus) SetHiZEnabled(ctx context.Context, enable bool) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	return r.bus.SetHiZEnabled(ctx, enable)
}

func (r *RateLimitedBus) GetInputCurrentLimit(ctx context.Context) (int, error) {
	if err := r.wait(ctx); err != nil {
		return 0, err
	}
	return r.bus.GetInputCurrentLimit(ctx)
}

func (r *RateLimitedBus) SetInputCurrentLimit(ctx context.Context, ma int) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	return r.bus.SetInputCurrentLimit(ctx, ma)
}

func (r *RateLimitedBus) SetInputVoltageLimit(ctx context.Context, mv int) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	return r.bus.SetInputVoltageLimit(ctx, mv)
}

func (r *RateLimitedBus) SetBoostModeCurrentLimit(ctx context.Context, ma int) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	return r.bus.SetBoostModeCurrentLimit(ctx, ma)
}

func (r *RateLimitedBus) GetChargerStatus(ctx context.Context) (ChargerStatus, error) {
	if err := r.wait(ctx); err != nil {
		return 0, err
	}
	return r.bus.GetChargerStatus(ctx)
}

func (r *RateLimitedBus) ResetWatchdogTimer(ctx context.Context) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	return r.bus.ResetWatchdogTimer(ctx)
}

func (r *RateLimitedBus) SetWatchdogTimerSetting(ctx context.Context, seconds int) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	return r.bus.SetWatchdogTimerSetting(ctx, seconds)
}

func (r *RateLimitedBus) GetBatteryCompensation(ctx context.Context) (int, error) {
	if err := r.wait(ctx); err != nil {
		return 0, err
	}
	return r.bus.GetBatteryCompensation(ctx)
}

func (r *RateLimitedBus) SetBatteryCompensation(ctx context.Context, mohm int) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	return r.bus.SetBatteryCompensation(ctx, mohm)
}

func (r *RateLimitedBus) GetVoltageClamp(ctx context.Context) (int, error) {
	if err := r.wait(ctx); err != nil {
		return 0, err
	}
	return r.bus.GetVoltageClamp(ctx)
}

func (r *RateLimitedBus) SetVoltageClamp(ctx context.Context, mv int) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	return r.bus.SetVoltageClamp(ctx, mv)
}

var _ ChargerBus = (*RateLimitedBus)(nil)
