package core

// ServoDriver is the drive capability the bank writes through. Targets
// implement it over their PWM hardware; position is already clamped.
type ServoDriver interface {
	Drive(channel int, position uint8) error
}

// ServoDriverFunc adapts a function to ServoDriver
type ServoDriverFunc func(channel int, position uint8) error

func (f ServoDriverFunc) Drive(channel int, position uint8) error {
	return f(channel, position)
}

// BatchDriver is implemented by drivers that take a whole-bank write in one
// call. Bank.WriteAll uses it when present; positions are already clamped.
type BatchDriver interface {
	ServoDriver
	DriveAll(positions []uint8) error
}

// TextSender is anything that can put a text message on the wire
type TextSender interface {
	SendText(s string) error
}

// Mode selects the drive capability at construction
type Mode string

const (
	ModeHardware Mode = "hardware"
	ModeDebug    Mode = "debug"
)

// DebugDriver reports every drive as a text message instead of moving
// hardware. It is what debug builds run.
type DebugDriver struct {
	out TextSender
	log Logger
}

// NewDebugDriver creates a DebugDriver. A nil out only logs.
func NewDebugDriver(out TextSender, log Logger) *DebugDriver {
	return &DebugDriver{out: out, log: orNop(log)}
}

func (d *DebugDriver) Drive(channel int, position uint8) error {
	msg := "Servo " + itoa(channel) + " set to " + utoa(uint32(position))
	d.log.Debugf("%s", msg)
	if d.out == nil {
		return nil
	}
	return d.out.SendText(msg)
}

// DriveAll reports a whole-bank write as one line
func (d *DebugDriver) DriveAll(positions []uint8) error {
	msg := "Servo positions set as follows: " + joinPositions(positions)
	d.log.Debugf("%s", msg)
	if d.out == nil {
		return nil
	}
	return d.out.SendText(msg)
}

// SelectDriver returns the driver for mode. hw is used for ModeHardware;
// ModeDebug ignores it.
func SelectDriver(mode Mode, hw ServoDriver, out TextSender, log Logger) (ServoDriver, error) {
	switch mode {
	case ModeHardware, "":
		if hw == nil {
			return nil, ErrInvalidMode
		}
		return hw, nil
	case ModeDebug:
		return NewDebugDriver(out, log), nil
	}
	return nil, ErrInvalidMode
}
