// Package controller sits between the HTTP API and the power-control
// subsystem: it resolves devices, translates JSON documents into charger calls
// and maps driver errors onto API errors.
package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/micro-nova/powctl-go/internal/events"
	"github.com/micro-nova/powctl-go/internal/models"
	"github.com/micro-nova/powctl-go/internal/powctl"
)

// Controller serves the charger registered under powctl.DeviceCodeBq24193.
// Multi-field updates run one at a time so a snapshot taken after an update
// reflects only that update.
type Controller struct {
	mu  sync.Mutex
	sub *powctl.Subsystem
	chg powctl.Charger
	bus *events.Bus
}

// New creates a controller over an initialized subsystem.
func New(sub *powctl.Subsystem, chg powctl.Charger, bus *events.Bus) *Controller {
	return &Controller{sub: sub, chg: chg, bus: bus}
}

func (c *Controller) device() (powctl.Device, *models.AppError) {
	dev, err := c.sub.FindDevice(powctl.DeviceCodeBq24193)
	if err != nil {
		return nil, FromError(err)
	}
	return dev, nil
}

// Charger reads every charger parameter. Any failed read fails the snapshot.
func (c *Controller) Charger(ctx context.Context) (models.ChargerState, *models.AppError) {
	dev, appErr := c.device()
	if appErr != nil {
		return models.ChargerState{}, appErr
	}
	st, err := c.snapshot(ctx, dev)
	if err != nil {
		return models.ChargerState{}, FromError(err)
	}
	return st, nil
}

func (c *Controller) snapshot(ctx context.Context, dev powctl.Device) (models.ChargerState, error) {
	st := models.ChargerState{Code: powctl.DeviceCodeBq24193.String()}

	cs, err := c.chg.GetChargeCurrentState(ctx, dev)
	if err != nil {
		return st, err
	}
	st.ChargeCurrentState = cs.String()

	status, err := c.chg.GetChargerStatus(ctx, dev)
	if err != nil {
		return st, err
	}
	st.Status = status.String()

	if st.FastChargeCurrentLimit, err = c.chg.GetFastChargeCurrentLimit(ctx, dev); err != nil {
		return st, err
	}
	if st.ChargeVoltageLimit, err = c.chg.GetChargeVoltageLimit(ctx, dev); err != nil {
		return st, err
	}
	if st.InputCurrentLimit, err = c.chg.GetInputCurrentLimit(ctx, dev); err != nil {
		return st, err
	}
	if st.HiZEnabled, err = c.chg.IsHiZEnabled(ctx, dev); err != nil {
		return st, err
	}
	if st.BatteryCompensation, err = c.chg.GetBatteryCompensation(ctx, dev); err != nil {
		return st, err
	}
	if st.VoltageClamp, err = c.chg.GetVoltageClamp(ctx, dev); err != nil {
		return st, err
	}
	if st.WatchdogEnabled, err = c.chg.IsWatchdogTimerEnabled(dev); err != nil {
		return st, err
	}
	timeout, err := c.chg.GetWatchdogTimerTimeout(dev)
	if err != nil {
		return st, err
	}
	st.WatchdogTimeoutSec = int(timeout / time.Second)
	return st, nil
}

// Devices lists every registered device code.
func (c *Controller) Devices() []models.DeviceInfo {
	reg := c.sub.Registry()
	codes := reg.Codes()
	out := make([]models.DeviceInfo, 0, len(codes))
	for _, code := range codes {
		dev, err := reg.FindDevice(code)
		if err != nil {
			continue // unregistered meanwhile
		}
		out = append(out, models.DeviceInfo{Code: code.String(), Type: dev.DeviceType().String()})
	}
	return out
}

// FromError maps a driver error onto an API error. Errors that are not one of
// the powctl kinds come from the bus and map to 502.
func FromError(err error) *models.AppError {
	var appErr *models.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, powctl.ErrInvalidArgument):
		return models.ErrBadRequest(err.Error())
	case errors.Is(err, powctl.ErrNotFound):
		return models.ErrNotFound(err.Error())
	case errors.Is(err, powctl.ErrNotAvailable), errors.Is(err, powctl.ErrAlreadyRegistered):
		return models.ErrConflict(err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return models.ErrInternal(err.Error())
	default:
		return models.ErrHardware(err.Error())
	}
}
