package core

// Preset is a named vector of positions applied with one command
type Preset struct {
	Name      string
	Positions []uint8
}

// Presets is an indexed preset table; index 0 is the fallback
type Presets []Preset

// Lookup returns preset i
func (p Presets) Lookup(i int) (Preset, bool) {
	if i < 0 || i >= len(p) {
		return Preset{}, false
	}
	return p[i], true
}

// handPresets is the table used by six-channel hands with 180 degree servos
var handPresets = Presets{
	{Name: "zeros", Positions: []uint8{0, 0, 0, 0, 0, 0}},
	{Name: "ascending", Positions: []uint8{0, 36, 72, 98, 134, 180}},
	{Name: "descending", Positions: []uint8{180, 134, 98, 72, 36, 0}},
	{Name: "alternating", Positions: []uint8{0, 180, 0, 180, 0, 180}},
}

// DefaultPresets returns the built-in table for n channels. Other hand
// sizes get the same four shapes as generated ramps.
func DefaultPresets(n int, maxPosition uint8) Presets {
	if n == 6 && maxPosition == DefaultMaxPosition {
		out := make(Presets, len(handPresets))
		for i, p := range handPresets {
			out[i] = Preset{Name: p.Name, Positions: append([]uint8(nil), p.Positions...)}
		}
		return out
	}

	zeros := make([]uint8, n)
	asc := make([]uint8, n)
	desc := make([]uint8, n)
	alt := make([]uint8, n)
	for i := 0; i < n; i++ {
		if n > 1 {
			asc[i] = uint8(i * int(maxPosition) / (n - 1))
		}
		desc[n-1-i] = asc[i]
		if i%2 == 1 {
			alt[i] = maxPosition
		}
	}
	return Presets{
		{Name: "zeros", Positions: zeros},
		{Name: "ascending", Positions: asc},
		{Name: "descending", Positions: desc},
		{Name: "alternating", Positions: alt},
	}
}
