package core

import "errors"

var (
	ErrInvalidChannel  = errors.New("core: invalid channel")
	ErrInvalidLimits   = errors.New("core: invalid limits")
	ErrPositionCount   = errors.New("core: position count does not match channel count")
	ErrNoAnalogReader  = errors.New("core: live sampling requires an analog reader")
	ErrInvalidSampling = errors.New("core: invalid sampler configuration")
	ErrInvalidMode     = errors.New("core: invalid drive mode")
)
