// Package hardware defines the register-level bus driver the charger driver
// sits on, the bus-level enumerations it speaks, an in-memory mock and a
// rate-limiting decorator.
package hardware

import (
	"context"
	"fmt"
)

// ChargerConfiguration is the bus-level charge configuration field.
type ChargerConfiguration uint8

const (
	ChargerConfigurationChargeDisable ChargerConfiguration = 0
	ChargerConfigurationChargeBattery ChargerConfiguration = 1
	ChargerConfigurationOtg           ChargerConfiguration = 2
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
		return fmt.Sprintf("ChargerConfiguration(%d)", uint8(c))
	}
}

// ChargerStatus is the bus-level charge status field.
type ChargerStatus uint8

const (
	ChargerStatusNotCharging           ChargerStatus = 0
	ChargerStatusPreCharge             ChargerStatus = 1
	ChargerStatusFastCharging          ChargerStatus = 2
	ChargerStatusChargeTerminationDone ChargerStatus = 3
)

func (s ChargerStatus) String() string {
	switch s {
	case ChargerStatusNotCharging:
		return "not_charging"
	case ChargerStatusPreCharge:
		return "pre_charge"
	case ChargerStatusFastCharging:
		return "fast_charging"
	case ChargerStatusChargeTerminationDone:
		return "charge_termination_done"
	default:
		return fmt.Sprintf("ChargerStatus(%d)", uint8(s))
	}
}

// ChargerBus is the register-level driver for the charger IC. Every accessor is
// one bus transaction and may fail transiently; callers decide whether to retry.
// Implementations must be safe for concurrent use. Currents are in mA,
// voltages in mV, the battery compensation resistance in mΩ.
type ChargerBus interface {
	// Initialize opens the bus. Must be called before any other method.
	Initialize(ctx context.Context) error

	// Finalize releases the bus.
	Finalize()

	GetForce20PercentChargeCurrent(ctx context.Context) (bool, error)
	SetForce20PercentChargeCurrent(ctx context.Context, force bool) error

	GetFastChargeCurrentLimit(ctx context.Context) (int, error)
	SetFastChargeCurrentLimit(ctx context.Context, ma int) error

	GetChargeVoltageLimit(ctx context.Context) (int, error)
	SetChargeVoltageLimit(ctx context.Context, mv int) error

	SetChargerConfiguration(ctx context.Context, cfg ChargerConfiguration) error

	IsHiZEnabled(ctx context.Context) (bool, error)
	SetHiZEnabled(ctx context.Context, enable bool) error

	GetInputCurrentLimit(ctx context.Context) (int, error)
	SetInputCurrentLimit(ctx context.Context, ma int) error

	SetInputVoltageLimit(ctx context.Context, mv int) error

	SetBoostModeCurrentLimit(ctx context.Context, ma int) error

	GetChargerStatus(ctx context.Context) (ChargerStatus, error)

	// ResetWatchdogTimer restarts the IC's watchdog countdown.
	ResetWatchdogTimer(ctx context.Context) error

	// SetWatchdogTimerSetting programs the watchdog timeout; 0 disables it.
	SetWatchdogTimerSetting(ctx context.Context, seconds int) error

	GetBatteryCompensation(ctx context.Context) (int, error)
	SetBatteryCompensation(ctx context.Context, mohm int) error

	GetVoltageClamp(ctx context.Context) (int, error)
	SetVoltageClamp(ctx context.Context, mv int) error
}
