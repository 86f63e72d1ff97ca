package config

// Location is a bit field inside a packed settings word
type Location struct {
	Offset uint
	Width  uint
}

func (l Location) mask() uint64 {
	if l.Width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << l.Width) - 1
}

// Pack writes value into the field at loc, truncated to the field width,
// and returns the updated word. Other fields are untouched.
func Pack(data uint64, loc Location, value int) uint64 {
	m := loc.mask()
	data &^= m << loc.Offset
	return data | (uint64(value)&m)<<loc.Offset
}

// Unpack reads the field at loc
func Unpack(data uint64, loc Location) int {
	return int((data >> loc.Offset) & loc.mask())
}
