package core

// AnalogValue is the raw reading as seen by the rest of the firmware.
// Convention: 16-bit value, even if the hardware converts fewer bits.
type AnalogValue uint16

// AnalogReader is the sensor capability the sampler reads through
type AnalogReader interface {
	ReadAnalog(channel int) (AnalogValue, error)
}

// AnalogReaderFunc adapts a function to AnalogReader
type AnalogReaderFunc func(channel int) (AnalogValue, error)

func (f AnalogReaderFunc) ReadAnalog(channel int) (AnalogValue, error) {
	return f(channel)
}
