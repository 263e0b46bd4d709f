package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/shlex"

	"handctl/config"
	"handctl/host/bridge"
	"handctl/host/hand"
	"handctl/host/serial"
	"handctl/logger"
	"handctl/protocol"
)

var (
	configFile = flag.String("config", "", "Path to configuration file (.toml, .yaml)")
	device     = flag.String("device", "", "Serial device path (overrides config)")
	baud       = flag.Int("baud", 0, "Baud rate (ignored for USB CDC)")
	channels   = flag.Int("channels", 0, "Number of servo channels (overrides config)")
	list       = flag.Bool("list", false, "List serial ports and exit")
	runBridge  = flag.Bool("bridge", false, "Run the MQTT bridge instead of the shell")
	verbose    = flag.Bool("verbose", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	if *list {
		if err := listPorts(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create a logger: %v\n", err)
		os.Exit(1)
	}

	log.Module("main").Infof("connecting to %s", cfg.Link.Device)
	h, err := hand.Connect(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer h.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	if *runBridge {
		if err := serveBridge(ctx, h, cfg, log); err != nil {
			log.Error("bridge: ", err)
			os.Exit(1)
		}
		return
	}

	go printMessages(h)
	shell(ctx, h)
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		d := config.Default()
		cfg = &d
	}

	if *device != "" {
		cfg.Link.Device = *device
	}
	if *baud > 0 {
		cfg.Link.Baud = *baud
	}
	if *channels > 0 {
		cfg.Channels = *channels
	}
	if *verbose {
		cfg.Logger.Level = "debug"
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	config.Normalize(cfg)
	return cfg, nil
}

func listPorts() error {
	ports, err := serial.ListPorts()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found")
		return nil
	}
	for _, p := range ports {
		fmt.Println(p)
	}
	return nil
}

func serveBridge(ctx context.Context, h *hand.Hand, cfg *config.Config, log *logger.Log) error {
	b := bridge.New(h, cfg.MQTT, log)
	if err := b.Start(ctx); err != nil {
		return fmt.Errorf("failed to start MQTT service: %w", err)
	}
	defer b.Stop()

	err := b.Run(ctx)
	if errors.Is(err, context.Canceled) {
		log.Info("shutdown complete")
		return nil
	}
	return err
}

func printMessages(h *hand.Hand) {
	for msg := range h.Messages() {
		switch msg.Kind {
		case protocol.KindText:
			fmt.Printf("< %s\n", msg.Text())
		case protocol.KindForceRaw:
			if r, err := msg.Reading(); err == nil {
				fmt.Printf("< force %d at %d ms\n", r.Value, r.Timestamp)
			}
		default:
			fmt.Printf("< %v\n", msg)
		}
	}
}

func shell(ctx context.Context, h *hand.Hand) {
	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		if ctx.Err() != nil {
			return
		}

		args, err := shlex.Split(scanner.Text())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		if len(args) == 0 {
			continue
		}

		switch args[0] {
		case "quit", "exit", "q":
			fmt.Println("Goodbye!")
			return
		case "help", "?":
			printHelp()
		default:
			if err := runCommand(ctx, h, args); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

func runCommand(ctx context.Context, h *hand.Hand, args []string) error {
	switch args[0] {
	case "set":
		if len(args) != 3 {
			return fmt.Errorf("usage: set <id> <pos>")
		}
		id, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid channel %q", args[1])
		}
		pos, err := parseByte(args[2])
		if err != nil {
			return err
		}
		return h.SetPosition(id, pos)

	case "all":
		if len(args) != h.Channels()+1 {
			return fmt.Errorf("usage: all <p0> ... <p%d>", h.Channels()-1)
		}
		positions := make([]uint8, h.Channels())
		for i, s := range args[1:] {
			p, err := parseByte(s)
			if err != nil {
				return err
			}
			positions[i] = p
		}
		return h.SetAllPositions(positions)

	case "limits":
		if len(args) != 3 {
			return fmt.Errorf("usage: limits <min> <max>")
		}
		min, err := parseByte(args[1])
		if err != nil {
			return err
		}
		max, err := parseByte(args[2])
		if err != nil {
			return err
		}
		limits := make([]protocol.LimitPair, h.Channels())
		for i := range limits {
			limits[i] = protocol.LimitPair{Min: min, Max: max}
		}
		return h.SetLimits(limits)

	case "preset":
		if len(args) != 2 {
			return fmt.Errorf("usage: preset <n>")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid preset %q", args[1])
		}
		return h.Preset(n)

	case "sample":
		sctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		r, err := h.Sample(sctx)
		if err != nil {
			return fmt.Errorf("sample: %w", err)
		}
		fmt.Printf("force %d at %d ms\n", r.Value, r.Timestamp)
		return nil

	case "say":
		return h.Command(strings.Join(args[1:], " "))

	case "state":
		h.PrintState(os.Stdout)
		return nil
	}
	return fmt.Errorf("unknown command: %s (type 'help' for available commands)", args[0])
}

func parseByte(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q (want 0..255)", s)
	}
	return uint8(v), nil
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  set <id> <pos>     - Move one servo")
	fmt.Println("  all <p0> ... <pN>  - Move every servo")
	fmt.Println("  limits <min> <max> - Set every servo's limits")
	fmt.Println("  preset <n>         - Apply a preset")
	fmt.Println("  sample             - Request one force reading")
	fmt.Println("  say <text>         - Send a text command to the device")
	fmt.Println("  state              - Print the mirrored hand state")
	fmt.Println("  quit/exit/q        - Exit the program")
	fmt.Println()
}
