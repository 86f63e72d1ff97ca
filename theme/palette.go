package theme

import (
	"bufio"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type RGB [3]uint8

type Palette struct {
	Name   string
	Colors []RGB
}

// Default is the built-in gradient used when no palette file is configured
func Default() *Palette {
	return &Palette{
		Name: "panel",
		Colors: []RGB{
			{0x14, 0x12, 0x1c},
			{0x26, 0x22, 0x33},
			{0x4a, 0x45, 0x5e},
			{0x8a, 0x86, 0x9e},
			{0xd8, 0xd4, 0xe6},
			{0x3f, 0xc1, 0xc9},
			{0xf2, 0x6d, 0x5b},
			{0xf2, 0xa4, 0x5b},
			{0xf2, 0xd0, 0x5b},
			{0xff, 0xe9, 0x8a},
			{0xff, 0xf7, 0xd6},
		},
	}
}

// LoadGPL reads a GIMP palette file
func LoadGPL(path string) (*Palette, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open palette")
	}
	defer f.Close()

	p, err := ParseGPL(f)
	if err != nil {
		return nil, errors.Wrapf(err, "palette %s", path)
	}
	return p, nil
}

// ParseGPL parses GIMP palette text: a "GIMP Palette" magic line, optional
// Name:/Columns: headers and # comments, then one "R G B [label]" per line.
// A color line that doesn't parse is an error, not silently skipped.
func ParseGPL(r io.Reader) (*Palette, error) {
	p := &Palette{}
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		switch {
		case n == 1 && line == "GIMP Palette":
		case line == "", line[0] == '#':
		case strings.HasPrefix(line, "Name:"):
			p.Name = strings.TrimSpace(line[len("Name:"):])
		case strings.HasPrefix(line, "Columns:"):
		default:
			c, err := parseRGB(strings.Fields(line))
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", n)
			}
			p.Colors = append(p.Colors, c)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read palette")
	}
	if len(p.Colors) == 0 {
		return nil, errors.New("no colors found")
	}
	return p, nil
}

func parseRGB(fields []string) (RGB, error) {
	var c RGB
	if len(fields) < len(c) {
		return c, errors.Errorf("want R G B, got %q", strings.Join(fields, " "))
	}
	for i := range c {
		v, err := strconv.Atoi(fields[i])
		if err != nil || v < 0 || v > 255 {
			return c, errors.Errorf("bad component %q", fields[i])
		}
		c[i] = uint8(v)
	}
	return c, nil
}

// Lookup blends the two palette entries either side of norm (0-1, clamped)
func (p *Palette) Lookup(norm float64) RGB {
	last := len(p.Colors) - 1
	pos := math.Max(0, math.Min(1, norm)) * float64(last)
	lo := int(pos)
	if lo >= last {
		return p.Colors[last]
	}
	t := pos - float64(lo)
	var c RGB
	for i := range c {
		a, b := float64(p.Colors[lo][i]), float64(p.Colors[lo+1][i])
		c[i] = uint8(math.Round(a + (b-a)*t))
	}
	return c
}

// Level picks the palette color for value out of max, for CV level displays.
// Negative values read as their magnitude.
func (p *Palette) Level(value, max int) RGB {
	if max <= 0 {
		return p.Colors[0]
	}
	if value < 0 {
		value = -value
	}
	return p.Lookup(float64(value) / float64(max))
}
