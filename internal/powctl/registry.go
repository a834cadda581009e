package powctl

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// Registry maps device codes to device instances. It is shared by every
// driver of a Subsystem and safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	devices map[DeviceCode]Device
}

// NewRegistry creates an empty device-code registry.
func NewRegistry() *Registry {
	return &Registry{devices: make(map[DeviceCode]Device)}
}

// RegisterDeviceCode binds code to dev. A code that is already bound fails
// with ErrAlreadyRegistered.
func (r *Registry) RegisterDeviceCode(code DeviceCode, dev Device) error {
	if dev == nil {
		return ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.devices[code]; exists {
		return fmt.Errorf("register %s: %w", code, ErrAlreadyRegistered)
	}
	r.devices[code] = dev
	slog.Debug("powctl: device code registered", "code", code, "type", dev.DeviceType())
	return nil
}

// UnregisterDeviceCode releases code. An absent code fails with ErrNotFound.
func (r *Registry) UnregisterDeviceCode(code DeviceCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.devices[code]; !exists {
		return fmt.Errorf("unregister %s: %w", code, ErrNotFound)
	}
	delete(r.devices, code)
	slog.Debug("powctl: device code unregistered", "code", code)
	return nil
}

// FindDevice returns the device bound to code.
func (r *Registry) FindDevice(code DeviceCode) (Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	dev, ok := r.devices[code]
	if !ok {
		return nil, fmt.Errorf("find %s: %w", code, ErrNotFound)
	}
	return dev, nil
}

// Codes returns the currently bound codes in ascending order.
func (r *Registry) Codes() []DeviceCode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codes := make([]DeviceCode, 0, len(r.devices))
	for c := range r.devices {
		codes = append(codes, c)
	}
	slices.Sort(codes)
	return codes
}
