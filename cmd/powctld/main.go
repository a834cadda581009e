// Command powctld is the power-control daemon: it brings up the BQ24193
// charger driver and serves its state over HTTP.
// Run with --mock to simulate all hardware.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/micro-nova/powctl-go/internal/api"
	"github.com/micro-nova/powctl-go/internal/auth"
	"github.com/micro-nova/powctl-go/internal/charger"
	"github.com/micro-nova/powctl-go/internal/config"
	"github.com/micro-nova/powctl-go/internal/controller"
	"github.com/micro-nova/powctl-go/internal/events"
	"github.com/micro-nova/powctl-go/internal/gpio"
	"github.com/micro-nova/powctl-go/internal/hardware"
	"github.com/micro-nova/powctl-go/internal/identity"
	"github.com/micro-nova/powctl-go/internal/interrupt"
	"github.com/micro-nova/powctl-go/internal/monitor"
	"github.com/micro-nova/powctl-go/internal/powctl"
	"github.com/micro-nova/powctl-go/internal/zeroconf"
)

func main() {
	var (
		cfgPath = flag.String("config", "/etc/powctl/powctld.yaml", "config file (missing file means defaults)")
		mock    = flag.Bool("mock", false, "simulate the charger bus and GPIO (no hardware required)")
		simBus  = flag.Bool("sim-bus", false, "drive real GPIO with a simulated charger bus")
		addr    = flag.String("addr", "", "HTTP listen address (overrides config)")
		metaDir = flag.String("metadata-dir", "", "directory holding metadata.json")
		debug   = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	// Configure logging
	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.HTTP.Addr = *addr
	}

	// Graceful shutdown context
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Only the simulated charger bus exists. With real pins it has to be
	// asked for explicitly.
	if err := checkBusFlags(*mock, *simBus); err != nil {
		slog.Error("refusing to start", "err", err)
		os.Exit(2)
	}
	if *simBus && !*mock {
		slog.Warn("SIMULATED CHARGER BUS: charge parameters and watchdog resets do not reach the IC",
			"enable_pin", cfg.GPIO.ChargeEnablePin, "irq_pin", cfg.GPIO.InterruptPin)
	}
	bus := hardware.RateLimited(hardware.NewMock(), cfg.Bus.MaxOpsPerSec)

	var (
		pins   gpio.Controller
		periph *gpio.PeriphController
	)
	if *mock {
		slog.Info("using simulated charger bus and mock GPIO")
		pins = gpio.NewMock()
	} else {
		periph = gpio.NewPeriph(map[gpio.DeviceCode]string{
			gpio.DeviceCodeBattChgEnableN: cfg.GPIO.ChargeEnablePin,
			gpio.DeviceCodeBq24190Irq:     cfg.GPIO.InterruptPin,
		})
		pins = periph
	}

	irq := interrupt.NewRegistry()
	sub := powctl.NewSubsystem(powctl.NewRegistry())
	drv := charger.NewDriver(sub.Registry(), bus, pins, irq, charger.Options{
		EventHandler: cfg.EventHandler,
		Retry:        cfg.RetryPolicy(),
	})
	sub.AddDriver(drv)
	if err := sub.Initialize(ctx); err != nil {
		slog.Error("power control initialization failed", "err", err)
		os.Exit(1)
	}

	dev, err := sub.FindDevice(powctl.DeviceCodeBq24193)
	if err != nil {
		slog.Error("charger device missing after initialization", "err", err)
		os.Exit(1)
	}

	// Interrupt line
	if cfg.EventHandler && periph != nil {
		edges, err := periph.OpenInterrupt(gpio.DeviceCodeBq24190Irq)
		if err != nil {
			slog.Error("charger interrupt setup failed", "err", err)
			os.Exit(1)
		}
		go func() {
			if err := irq.Watch(ctx, gpio.DeviceCodeBq24190Irq, edges); err != nil && ctx.Err() == nil {
				slog.Warn("interrupt watch stopped", "err", err)
			}
		}()
	}
	if cfg.EventHandler {
		if err := drv.SetDeviceInterruptEnabled(dev, true); err != nil {
			slog.Warn("cannot enable charger interrupt", "err", err)
		}
	}

	// Event bus
	nbus := events.NewBus()
	go func() {
		err := monitor.ForwardEvents(ctx, drv, dev, powctl.DeviceCodeBq24193, nbus)
		if err != nil && ctx.Err() == nil {
			slog.Info("charger event forwarding disabled", "err", err)
		}
	}()

	// Watchdog
	if cfg.Watchdog.Enabled {
		if err := drv.SetWatchdogTimerTimeout(dev, cfg.Watchdog.Timeout); err != nil {
			slog.Error("watchdog timeout rejected", "err", err)
			os.Exit(1)
		}
		if err := drv.SetWatchdogTimerEnabled(ctx, dev, true); err != nil {
			slog.Warn("watchdog enable failed", "err", err)
		}
	}
	go monitor.KeepWatchdogAlive(ctx, drv, dev, time.Second)

	ctrl := controller.New(sub, drv, nbus)

	// Auth service
	authSvc, err := auth.NewService(cfg.Auth.KeysFile)
	if err != nil {
		slog.Error("auth service initialization failed", "err", err)
		os.Exit(1)
	}
	defer authSvc.Close()

	// Zeroconf mDNS registration
	id := identity.Detect(*metaDir)
	if cfg.Zeroconf.Enabled {
		zc := zeroconf.New(cfg.Zeroconf.Name, listenPort(cfg.HTTP.Addr), id.TXT())
		go func() {
			if err := zc.Start(ctx); err != nil {
				slog.Warn("zeroconf failed", "err", err)
			}
		}()
	}

	// HTTP server
	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      api.NewRouter(ctrl, authSvc, nbus),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // 0 = no timeout (needed for SSE)
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("powctld listening", "addr", cfg.HTTP.Addr, "mock", *mock, "sim_bus", *simBus || *mock, "version", id.Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			cancel()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		slog.Warn("server shutdown error", "err", err)
	}

	// The watchdog stays armed: once resets stop, the IC falls back to its
	// power-on charge parameters.
	sub.Finalize(shutCtx)

	slog.Info("shutdown complete")
}

// checkBusFlags rejects real GPIO paired with a simulated bus unless the
// operator opted in with --sim-bus.
func checkBusFlags(mock, simBus bool) error {
	if !mock && !simBus {
		return errors.New("no register-level charger bus available; run with --mock, or --sim-bus to pair real GPIO with a simulated bus")
	}
	return nil
}

// listenPort extracts the TCP port from a listen address, defaulting to 80.
func listenPort(addr string) int {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return 80
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return 80
	}
	return port
}
