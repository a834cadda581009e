package powctl

import (
	"context"
	"time"
)

// ChargeCurrentState is the charge-current mode, independent of any IC encoding.
type ChargeCurrentState uint8

const (
	ChargeCurrentStateUnknown ChargeCurrentState = iota
	ChargeCurrentStateNotCharging
	ChargeCurrentStateCharging
	ChargeCurrentStateChargingForce20Percent
)

func (s ChargeCurrentState) String() string {
	switch s {
	case ChargeCurrentStateNotCharging:
		return "not_charging"
	case ChargeCurrentStateCharging:
		return "charging"
	case ChargeCurrentStateChargingForce20Percent:
		return "charging_force_20_percent"
	default:
		return "unknown"
	}
}

// ParseChargeCurrentState is the inverse of ChargeCurrentState.String.
func ParseChargeCurrentState(s string) (ChargeCurrentState, bool) {
	for _, st := range []ChargeCurrentState{
		ChargeCurrentStateNotCharging,
		ChargeCurrentStateCharging,
		ChargeCurrentStateChargingForce20Percent,
	} {
		if st.String() == s {
			return st, true
		}
	}
	return ChargeCurrentStateUnknown, false
}

// ChargerStatus is the abstract charging status.
type ChargerStatus uint8

const (
	ChargerStatusNotCharging ChargerStatus = iota + 1
	ChargerStatusCharging
	ChargerStatusChargeTerminationDone
)

func (s ChargerStatus) String() string {
	switch s {
	case ChargerStatusNotCharging:
		return "not_charging"
	case ChargerStatusCharging:
		return "charging"
	case ChargerStatusChargeTerminationDone:
		return "charge_termination_done"
	default:
		return "unknown"
	}
}

// ChargerConfiguration selects what the charger does with input power.
type ChargerConfiguration uint8

const (
	ChargerConfigurationChargeDisable ChargerConfiguration = iota + 1
	ChargerConfigurationChargeBattery
	ChargerConfigurationOtg
)

func (c ChargerConfiguration) String() string {
	switch c {
	case ChargerConfigurationChargeDisable:
		return "charge_disable"
	case ChargerConfigurationChargeBattery:
		return "charge_battery"
	case ChargerConfigurationOtg:
		return "otg"
	default:
		return "unknown"
	}
}

// ParseChargerConfiguration is the inverse of ChargerConfiguration.String.
func ParseChargerConfiguration(s string) (ChargerConfiguration, bool) {
	for _, c := range []ChargerConfiguration{
		ChargerConfigurationChargeDisable,
		ChargerConfigurationChargeBattery,
		ChargerConfigurationOtg,
	} {
		if c.String() == s {
			return c, true
		}
	}
	return 0, false
}

// Charger is the abstract charger API. Every call takes a device previously
// looked up in the Registry. Currents are in mA, voltages in mV and the
// battery compensation resistance in mΩ.
type Charger interface {
	Driver

	GetChargeCurrentState(ctx context.Context, dev Device) (ChargeCurrentState, error)
	SetChargeCurrentState(ctx context.Context, dev Device, state ChargeCurrentState) error

	GetFastChargeCurrentLimit(ctx context.Context, dev Device) (int, error)
	SetFastChargeCurrentLimit(ctx context.Context, dev Device, ma int) error

	GetChargeVoltageLimit(ctx context.Context, dev Device) (int, error)
	SetChargeVoltageLimit(ctx context.Context, dev Device, mv int) error

	SetChargerConfiguration(ctx context.Context, dev Device, cfg ChargerConfiguration) error

	IsHiZEnabled(ctx context.Context, dev Device) (bool, error)
	SetHiZEnabled(ctx context.Context, dev Device, enable bool) error

	GetInputCurrentLimit(ctx context.Context, dev Device) (int, error)
	SetInputCurrentLimit(ctx context.Context, dev Device, ma int) error
	SetInputVoltageLimit(ctx context.Context, dev Device, mv int) error
	SetBoostModeCurrentLimit(ctx context.Context, dev Device, ma int) error

	GetChargerStatus(ctx context.Context, dev Device) (ChargerStatus, error)

	IsWatchdogTimerEnabled(dev Device) (bool, error)
	SetWatchdogTimerEnabled(ctx context.Context, dev Device, enable bool) error
	SetWatchdogTimerTimeout(dev Device, timeout time.Duration) error
	GetWatchdogTimerTimeout(dev Device) (time.Duration, error)
	ResetWatchdogTimer(ctx context.Context, dev Device) error

	GetBatteryCompensation(ctx context.Context, dev Device) (int, error)
	SetBatteryCompensation(ctx context.Context, dev Device, mohm int) error

	GetVoltageClamp(ctx context.Context, dev Device) (int, error)
	SetVoltageClamp(ctx context.Context, dev Device, mv int) error
}
