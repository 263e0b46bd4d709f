package core

import "handctl/protocol"

// utoa converts an unsigned integer to a string without the fmt package
func utoa(n uint32) string {
	if n == 0 {
		return "0"
	}

	var buf [10]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}

// itoa converts a signed integer to a string
func itoa(n int) string {
	if n < 0 {
		return "-" + utoa(uint32(-n))
	}
	return utoa(uint32(n))
}

// joinPositions renders positions as "0 36 72"
func joinPositions(positions []uint8) string {
	buf := make([]byte, 0, 4*len(positions))
	for i, p := range positions {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, utoa(uint32(p))...)
	}
	return string(buf)
}

// joinLimits renders limit pairs as "0,180 10,170"
func joinLimits(limits []protocol.LimitPair) string {
	buf := make([]byte, 0, 8*len(limits))
	for i, l := range limits {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, utoa(uint32(l.Min))...)
		buf = append(buf, ',')
		buf = append(buf, utoa(uint32(l.Max))...)
	}
	return string(buf)
}
