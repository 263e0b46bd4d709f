package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"handctl/protocol"
)

// DefaultTelemetryInterval is the reading period when telemetry is on
const DefaultTelemetryInterval = 100

// Replier is the outgoing half of the wire protocol. *protocol.Encoder
// satisfies it.
type Replier interface {
	TextSender
	SendChannelPosition(id int, pos uint8) error
	SendAllPositions(positions []uint8) error
	SendAllLimits(limits []uint8) error
	SendTimestampedReading(r protocol.Reading) error
}

// Dispatcher applies decoded messages to the bank and sampler and answers
// on the link. Range violations are clamped silently; invalid selectors are
// replaced by a default and reported with a text message.
type Dispatcher struct {
	bank     *Bank
	sampler  *Sampler
	presets  Presets
	out      Replier
	log      Logger
	commands *CommandRegistry

	telemetry         bool
	telemetryInterval uint32
}

// NewDispatcher wires a dispatcher and registers the built-in text commands
func NewDispatcher(bank *Bank, sampler *Sampler, presets Presets, out Replier, log Logger) *Dispatcher {
	if len(presets) == 0 {
		presets = DefaultPresets(bank.Channels(), bank.MaxPosition())
	}
	d := &Dispatcher{
		bank:              bank,
		sampler:           sampler,
		presets:           presets,
		out:               out,
		log:               orNop(log),
		commands:          NewCommandRegistry(),
		telemetryInterval: DefaultTelemetryInterval,
	}
	d.registerCommands()
	return d
}

// Commands returns the text command registry
func (d *Dispatcher) Commands() *CommandRegistry {
	return d.commands
}

// Telemetry reports whether periodic readings are on and their period in ms
func (d *Dispatcher) Telemetry() (bool, uint32) {
	return d.telemetry, d.telemetryInterval
}

// SetTelemetry turns periodic readings on or off. intervalMs 0 keeps the
// current period.
func (d *Dispatcher) SetTelemetry(on bool, intervalMs uint32) {
	d.telemetry = on
	if intervalMs > 0 {
		d.telemetryInterval = intervalMs
	}
}

// Handle processes one decoded message
func (d *Dispatcher) Handle(msg protocol.Message) error {
	switch msg.Kind {
	case protocol.KindChannelPosition:
		return d.setPosition(msg.Channel, msg.Position())

	case protocol.KindAllPositions:
		if _, err := d.bank.WriteAll(msg.Payload); err != nil {
			return err
		}
		return d.out.SendAllPositions(d.bank.Positions())

	case protocol.KindAllLimits:
		for id, l := range msg.Limits() {
			if err := d.setLimits(id, l.Min, l.Max); err != nil {
				return err
			}
		}
		return d.out.SendAllLimits(d.bank.FlatLimits())

	case protocol.KindForceRaw:
		return d.sendReading()

	case protocol.KindText:
		return d.Exec(msg.Text())
	}
	return nil
}

// Exec runs one text command line
func (d *Dispatcher) Exec(line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return d.out.SendText("Parse error: " + err.Error())
	}
	if len(args) == 0 {
		return nil
	}

	name := strings.ToLower(args[0])
	cmd, ok := d.commands.Lookup(name)
	if !ok {
		d.log.Debugf("unknown command %q", name)
		return d.out.SendText("Unknown command: " + name)
	}

	err = cmd.Handler(args[1:])
	if errors.Is(err, errUsage) {
		return d.out.SendText("Usage: " + cmd.Usage)
	}
	return err
}

// channel resolves a selector, substituting channel 0 for invalid ids
func (d *Dispatcher) channel(id int) (int, error) {
	if d.bank.Valid(id) {
		return id, nil
	}
	d.log.Warnf("invalid channel %d, using 0", id)
	return 0, d.out.SendText(fmt.Sprintf("Invalid servo: %d - using 0", id))
}

func (d *Dispatcher) setPosition(id int, pos uint8) error {
	id, err := d.channel(id)
	if err != nil {
		return err
	}
	applied, err := d.bank.Write(id, pos)
	if err != nil {
		return err
	}
	return d.out.SendChannelPosition(id, applied)
}

func (d *Dispatcher) setLimits(id int, min, max uint8) error {
	err := d.bank.SetLimits(id, min, max)
	if errors.Is(err, ErrInvalidLimits) {
		d.log.Warnf("%v", err)
		return d.out.SendText(fmt.Sprintf("Invalid limits for servo %d: %d,%d", id, min, max))
	}
	return err
}

func (d *Dispatcher) sendReading() error {
	if d.sampler == nil {
		return d.out.SendText("No sensor configured")
	}
	r, err := d.sampler.Reading()
	if err != nil {
		d.log.Warnf("%v", err)
		return d.out.SendText("Sensor error: " + err.Error())
	}
	return d.out.SendTimestampedReading(r)
}

// ApplyPreset drives preset i, falling back to preset 0 for an invalid index
func (d *Dispatcher) ApplyPreset(i int) error {
	p, ok := d.presets.Lookup(i)
	if !ok {
		d.log.Warnf("invalid preset %d, using 0", i)
		if err := d.out.SendText(fmt.Sprintf("Invalid servo configuration: %d - setting to 0", i)); err != nil {
			return err
		}
		p, _ = d.presets.Lookup(0)
	}
	if _, err := d.bank.WriteAll(p.Positions); err != nil {
		return err
	}
	return d.out.SendAllPositions(d.bank.Positions())
}

func (d *Dispatcher) sendPositions() error {
	positions := d.bank.Positions()
	if err := d.out.SendText("Servo positions: " + joinPositions(positions)); err != nil {
		return err
	}
	return d.out.SendAllPositions(positions)
}

func (d *Dispatcher) sendLimits() error {
	if err := d.out.SendText("Servo limits: " + joinLimits(d.bank.Limits())); err != nil {
		return err
	}
	return d.out.SendAllLimits(d.bank.FlatLimits())
}

func (d *Dispatcher) registerCommands() {
	d.commands.Register(Command{
		Name: "help", Usage: "help [command]", Help: "list commands",
		Handler: d.cmdHelp,
	})
	d.commands.Register(Command{
		Name: "version", Usage: "version", Help: "report firmware version",
		Handler: func([]string) error {
			return d.out.SendText("handctl " + protocol.Version)
		},
	})
	d.commands.Register(Command{
		Name: "positions", Usage: "positions", Help: "report every position",
		Handler: func([]string) error { return d.sendPositions() },
	})
	d.commands.Register(Command{
		Name: "limits", Usage: "limits", Help: "report every limit pair",
		Handler: func([]string) error { return d.sendLimits() },
	})
	d.commands.Register(Command{
		Name: "set", Usage: "set <id> <pos>", Help: "move one servo",
		Handler: d.cmdSet,
	})
	d.commands.Register(Command{
		Name: "limit", Usage: "limit <id> <min> <max>", Help: "change one servo's limits",
		Handler: d.cmdLimit,
	})
	d.commands.Register(Command{
		Name: "preset", Usage: "preset <n>", Help: "apply a preset",
		Handler: d.cmdPreset,
	})
	d.commands.Register(Command{
		Name: "presets", Usage: "presets", Help: "list presets",
		Handler: d.cmdPresets,
	})
	d.commands.Register(Command{
		Name: "home", Usage: "home", Help: "drive every servo to 0",
		Handler: func([]string) error {
			if err := d.bank.Home(); err != nil {
				return err
			}
			return d.out.SendAllPositions(d.bank.Positions())
		},
	})
	d.commands.Register(Command{
		Name: "sample", Usage: "sample", Help: "send one force reading",
		Handler: func([]string) error { return d.sendReading() },
	})
	d.commands.Register(Command{
		Name: "telemetry", Usage: "telemetry on|off [interval_ms]", Help: "periodic force readings",
		Handler: d.cmdTelemetry,
	})
	d.commands.Register(Command{
		Name: "echo", Usage: "echo <text>", Help: "send text back",
		Handler: func(args []string) error {
			return d.out.SendText(strings.Join(args, " "))
		},
	})
}

func (d *Dispatcher) cmdHelp(args []string) error {
	if len(args) == 1 {
		cmd, ok := d.commands.Lookup(strings.ToLower(args[0]))
		if !ok {
			return d.out.SendText("Unknown command: " + args[0])
		}
		return d.out.SendText(cmd.Usage + " - " + cmd.Help)
	}
	return d.out.SendText("Commands: " + strings.Join(d.commands.Names(), " "))
}

func (d *Dispatcher) cmdSet(args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return errUsage
	}
	pos, err := parsePosition(args[1])
	if err != nil {
		return errUsage
	}
	return d.setPosition(id, pos)
}

func (d *Dispatcher) cmdLimit(args []string) error {
	if len(args) != 3 {
		return errUsage
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return errUsage
	}
	min, err := parsePosition(args[1])
	if err != nil {
		return errUsage
	}
	max, err := parsePosition(args[2])
	if err != nil {
		return errUsage
	}
	if id, err = d.channel(id); err != nil {
		return err
	}
	if err := d.setLimits(id, min, max); err != nil {
		return err
	}
	return d.out.SendAllLimits(d.bank.FlatLimits())
}

func (d *Dispatcher) cmdPreset(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	i, err := strconv.Atoi(args[0])
	if err != nil {
		return errUsage
	}
	return d.ApplyPreset(i)
}

func (d *Dispatcher) cmdPresets([]string) error {
	for i, p := range d.presets {
		if err := d.out.SendText(fmt.Sprintf("%d: %s %s", i, p.Name, joinPositions(p.Positions))); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) cmdTelemetry(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errUsage
	}
	var interval uint32
	if len(args) == 2 {
		v, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil || v == 0 {
			return errUsage
		}
		interval = uint32(v)
	}
	switch strings.ToLower(args[0]) {
	case "on":
		d.SetTelemetry(true, interval)
	case "off":
		d.SetTelemetry(false, interval)
	default:
		return errUsage
	}
	on, period := d.Telemetry()
	if on {
		return d.out.SendText(fmt.Sprintf("Telemetry on every %d ms", period))
	}
	return d.out.SendText("Telemetry off")
}

// parsePosition reads a decimal position, saturating to 0..255
func parsePosition(s string) (uint8, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, nil
	}
	if v > 255 {
		return 255, nil
	}
	return uint8(v), nil
}
