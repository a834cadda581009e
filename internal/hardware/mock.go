package hardware

import (
	"context"
	"sync"
)

// Call records one bus transaction issued against the Mock.
type Call struct {
	Method string
	Arg    any // argument for setters, nil for getters
}

type failure struct {
	remaining int // < 0 fails forever
	err       error
}

// Mock is a thread-safe in-memory ChargerBus for testing and development.
// It keeps the last written value of every parameter, records every call and
// can be told to fail chosen methods.
type Mock struct {
	mu          sync.Mutex
	initialized bool

	force20         bool
	fastChargeMA    int
	chargeVoltageMV int
	config          ChargerConfiguration
	hiz             bool
	inputCurrentMA  int
	inputVoltageMV  int
	boostMA         int
	status          ChargerStatus
	watchdogSec     int
	watchdogResets  int
	batteryCompMOhm int
	clampMV         int

	calls    []Call
	failures map[string]*failure
	onCall   func(method string)
}

// NewMock creates a mock bus holding power-on defaults.
func NewMock() *Mock {
	return &Mock{
		fastChargeMA:    2048,
		chargeVoltageMV: 4208,
		config:          ChargerConfigurationChargeBattery,
		inputCurrentMA:  500,
		inputVoltageMV:  4360,
		boostMA:         1300,
		status:          ChargerStatusNotCharging,
		watchdogSec:     40,
		failures:        make(map[string]*failure),
	}
}

// FailNext makes the next n calls of method fail with err.
func (m *Mock) FailNext(method string, n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[method] = &failure{remaining: n, err: err}
}

// FailAlways makes every call of method fail with err.
func (m *Mock) FailAlways(method string, err error) {
	m.FailNext(method, -1, err)
}

// ClearFailures removes all configured failures.
func (m *Mock) ClearFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = make(map[string]*failure)
}

// OnCall installs a hook run at the start of every transaction, before the
// transaction's outcome is decided. Tests use it to observe locking.
func (m *Mock) OnCall(fn func(method string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onCall = fn
}

// Calls returns every recorded call, oldest first.
func (m *Mock) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times method was issued.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// ResetCalls clears the call log.
func (m *Mock) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// SetStatus sets the status returned by GetChargerStatus.
func (m *Mock) SetStatus(s ChargerStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = s
}

// Force20Percent returns the stored force-20% flag.
func (m *Mock) Force20Percent() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.force20
}

// Configuration returns the last configuration written.
func (m *Mock) Configuration() ChargerConfiguration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// WatchdogSetting returns the programmed watchdog timeout in seconds.
func (m *Mock) WatchdogSetting() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.watchdogSec
}

// WatchdogResets returns how many successful watchdog resets were issued.
func (m *Mock) WatchdogResets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.watchdogResets
}

// InputVoltageLimit returns the last input voltage limit written.
func (m *Mock) InputVoltageLimit() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inputVoltageMV
}

// BoostModeCurrentLimit returns the last boost current limit written.
func (m *Mock) BoostModeCurrentLimit() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.boostMA
}

// IsInitialized reports whether Initialize has been called without Finalize.
func (m *Mock) IsInitialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialized
}

// begin records a call and decides whether it fails. On success it returns
// with m.mu held so the caller can apply the effect; the caller must unlock.
func (m *Mock) begin(method string, arg any) error {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Method: method, Arg: arg})
	hook := m.onCall
	m.mu.Unlock()

	if hook != nil {
		hook(method)
	}

	m.mu.Lock()
	if !m.initialized {
		m.mu.Unlock()
		return ErrHardware("mock: bus not initialized")
	}
	if f, ok := m.failures[method]; ok && f.remaining != 0 {
		if f.remaining > 0 {
			f.remaining--
		}
		m.mu.Unlock()
		return f.err
	}
	return nil
}

func (m *Mock) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initialized = true
	return nil
}

func (m *Mock) Finalize() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initialized = false
}

func (m *Mock) GetForce20PercentChargeCurrent(ctx context.Context) (bool, error) {
	if err := m.begin("GetForce20PercentChargeCurrent", nil); err != nil {
		return false, err
	}
	defer m.mu.Unlock()
	return m.force20, nil
}

func (m *Mock) SetForce20PercentChargeCurrent(ctx context.Context, force bool) error {
	if err := m.begin("SetForce20PercentChargeCurrent", force); err != nil {
		return err
	}
	defer m.mu.Unlock()
	m.force20 = force
	return nil
}

func (m *Mock) GetFastChargeCurrentLimit(ctx context.Context) (int, error) {
	if err := m.begin("GetFastChargeCurrentLimit", nil); err != nil {
		return 0, err
	}
	defer m.mu.Unlock()
	return m.fastChargeMA, nil
}

func (m *Mock) SetFastChargeCurrentLimit(ctx context.Context, ma int) error {
	if err := m.begin("SetFastChargeCurrentLimit", ma); err != nil {
		return err
	}
	defer m.mu.Unlock()
	m.fastChargeMA = ma
	return nil
}

func (m *Mock) GetChargeVoltageLimit(ctx context.Context) (int, error) {
	if err := m.begin("GetChargeVoltageLimit", nil); err != nil {
		return 0, err
	}
	defer m.mu.Unlock()
	return m.chargeVoltageMV, nil
}

func (m *Mock) SetChargeVoltageLimit(ctx context.Context, mv int) error {
	if err := m.begin("SetChargeVoltageLimit", mv); err != nil {
		return err
	}
	defer m.mu.Unlock()
	m.chargeVoltageMV = mv
	return nil
}

func (m *Mock) SetChargerConfiguration(ctx context.Context, cfg ChargerConfiguration) error {
	if err := m.begin("SetChargerConfiguration", cfg); err != nil {
		return err
	}
	defer m.mu.Unlock()
	m.config = cfg
	return nil
}

func (m *Mock) IsHiZEnabled(ctx context.Context) (bool, error) {
	if err := m.begin("IsHiZEnabled", nil); err != nil {
		return false, err
	}
	defer m.mu.Unlock()
	return m.hiz, nil
}

func (m *Mock) SetHiZEnabled(ctx context.Context, enable bool) error {
	if err := m.begin("SetHiZEnabled", enable); err != nil {
		return err
	}
	defer m.mu.Unlock()
	m.hiz = enable
	return nil
}

func (m *Mock) GetInputCurrentLimit(ctx context.Context) (int, error) {
	if err := m.begin("GetInputCurrentLimit", nil); err != nil {
		return 0, err
	}
	defer m.mu.Unlock()
	return m.inputCurrentMA, nil
}

func (m *Mock) SetInputCurrentLimit(ctx context.Context, ma int) error {
	if err := m.begin("SetInputCurrentLimit", ma); err != nil {
		return err
	}
	defer m.mu.Unlock()
	m.inputCurrentMA = ma
	return nil
}

func (m *Mock) SetInputVoltageLimit(ctx context.Context, mv int) error {
	if err := m.begin("SetInputVoltageLimit", mv); err != nil {
		return err
	}
	defer m.mu.Unlock()
	m.inputVoltageMV = mv
	return nil
}

func (m *Mock) SetBoostModeCurrentLimit(ctx context.Context, ma int) error {
	if err := m.begin("SetBoostModeCurrentLimit", ma); err != nil {
		return err
	}
	defer m.mu.Unlock()
	m.boostMA = ma
	return nil
}

func (m *Mock) GetChargerStatus(ctx context.Context) (ChargerStatus, error) {
	if err := m.begin("GetChargerStatus", nil); err != nil {
		return 0, err
	}
	defer m.mu.Unlock()
	return m.status, nil
}

func (m *Mock) ResetWatchdogTimer(ctx context.Context) error {
	if err := m.begin("ResetWatchdogTimer", nil); err != nil {
		return err
	}
	defer m.mu.Unlock()
	m.watchdogResets++
	return nil
}

func (m *Mock) SetWatchdogTimerSetting(ctx context.Context, seconds int) error {
	if err := m.begin("SetWatchdogTimerSetting", seconds); err != nil {
		return err
	}
	defer m.mu.Unlock()
	m.watchdogSec = seconds
	return nil
}

func (m *Mock) GetBatteryCompensation(ctx context.Context) (int, error) {
	if err := m.begin("GetBatteryCompensation", nil); err != nil {
		return 0, err
	}
	defer m.mu.Unlock()
	return m.batteryCompMOhm, nil
}

func (m *Mock) SetBatteryCompensation(ctx context.Context, mohm int) error {
	if err := m.begin("SetBatteryCompensation", mohm); err != nil {
		return err
	}
	defer m.mu.Unlock()
	m.batteryCompMOhm = mohm
	return nil
}

func (m *Mock) GetVoltageClamp(ctx context.Context) (int, error) {
	if err := m.begin("GetVoltageClamp", nil); err != nil {
		return 0, err
	}
	defer m.mu.Unlock()
	return m.clampMV, nil
}

func (m *Mock) SetVoltageClamp(ctx context.Context, mv int) error {
	if err := m.begin("SetVoltageClamp", mv); err != nil {
		return err
	}
	defer m.mu.Unlock()
	m.clampMV = mv
	return nil
}

// HardwareError is returned when a hardware operation fails.
type HardwareError struct {
	msg string
}

func (e HardwareError) Error() string { return e.msg }

// ErrHardware creates a new hardware error.
func ErrHardware(msg string) error { return HardwareError{msg: msg} }

// Ensure Mock implements ChargerBus
var _ ChargerBus = (*Mock)(nil)
