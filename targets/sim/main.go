//go:build !tinygo

// Command sim runs the hand controller on a PC. Servo writes are reported
// as text and the force sensor is synthetic, so a host tool can be tested
// against a virtual serial pair (for example one made with socat).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"handctl/config"
	"handctl/core"
	"handctl/host/serial"
	"handctl/logger"
	"handctl/protocol"
)

var (
	configFile = flag.String("config", "", "Path to configuration file (.toml, .yaml)")
	device     = flag.String("device", "", "Serial device to serve on (overrides config)")
	verbose    = flag.Bool("verbose", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	cfg := config.Default()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
			os.Exit(1)
		}
		cfg = *loaded
	}
	if *device != "" {
		cfg.Link.Device = *device
	}
	if *verbose {
		cfg.Logger.Level = "debug"
	}
	// No servos or ADC on a PC
	cfg.Mode = config.ModeDebug
	cfg.Sensor.Mode = config.SensorSynthetic

	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create a logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(&cfg, log); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Log) error {
	port, err := serial.Open(serial.FromLink(cfg.Link))
	if err != nil {
		return err
	}
	defer port.Close()

	// Telemetry only runs when a receive can time out
	timeout := time.Duration(cfg.Link.ReceiveTimeoutMs) * time.Millisecond
	if timeout == 0 {
		timeout = 10 * time.Millisecond
	}
	link := protocol.NewStreamLink(port, protocol.LinkConfig{ReceiveTimeout: timeout})

	ctrl, err := core.Build(cfg, core.Hardware{}, link, log.Module("core"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infof("serving on %s", cfg.Link.Device)
	if err := ctrl.Start(); err != nil {
		return err
	}

	err = ctrl.Run(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, protocol.ErrTransportClosed) {
		log.Info("shutting down")
		return nil
	}
	return err
}
