package powctl

import (
	"context"
	"fmt"
	"log/slog"
)

// Subsystem is the context object for one power-control stack: the registry
// shared by its drivers and the drivers themselves. Its lifetime is bounded by
// Initialize and Finalize, which must not run concurrently with other calls.
type Subsystem struct {
	registry *Registry
	drivers  []Driver
	active   int // drivers initialized so far
}

// NewSubsystem creates a subsystem around reg. Drivers are added with
// AddDriver before Initialize.
func NewSubsystem(reg *Registry) *Subsystem {
	return &Subsystem{registry: reg}
}

// Registry returns the subsystem's device-code registry.
func (s *Subsystem) Registry() *Registry { return s.registry }

// AddDriver appends a driver; drivers initialize in insertion order.
func (s *Subsystem) AddDriver(d Driver) {
	if s.active > 0 {
		panic("powctl: AddDriver after Initialize")
	}
	s.drivers = append(s.drivers, d)
}

// Initialize initializes every driver in order. The first failure is returned
// as is; drivers already initialized stay up (boot-time fail-fast, no unwind).
func (s *Subsystem) Initialize(ctx context.Context) error {
	for _, d := range s.drivers[s.active:] {
		if err := d.InitializeDriver(ctx); err != nil {
			return fmt.Errorf("powctl: initialize %T: %w", d, err)
		}
		s.active++
	}
	slog.Info("powctl: subsystem initialized", "drivers", s.active, "devices", len(s.registry.Codes()))
	return nil
}

// Finalize finalizes initialized drivers in reverse order.
func (s *Subsystem) Finalize(ctx context.Context) {
	for ; s.active > 0; s.active-- {
		s.drivers[s.active-1].FinalizeDriver(ctx)
	}
	slog.Info("powctl: subsystem finalized")
}

// FindDevice looks up a device by code.
func (s *Subsystem) FindDevice(code DeviceCode) (Device, error) {
	return s.registry.FindDevice(code)
}
