package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Coord is one axis of a screen point: either a percentage of the window
// dimension or an absolute pixel offset.
type Coord struct {
	Value   float64
	Percent bool
}

// Resolve converts the coordinate to pixels for a window dimension of size.
func (c Coord) Resolve(size int) int {
	if c.Percent {
		return int(float64(size) * c.Value / 100)
	}
	return int(c.Value)
}

func (c Coord) String() string {
	s := strconv.FormatFloat(c.Value, 'f', -1, 64)
	if c.Percent {
		return s + "%"
	}
	return s
}

// Point is a tap target such as "50%, 40%" or "50%, 640".
type Point struct {
	X Coord
	Y Coord
}

// Percent returns a point with both axes expressed as window percentages.
func Percent(x, y float64) Point {
	return Point{X: Coord{Value: x, Percent: true}, Y: Coord{Value: y, Percent: true}}
}

// ParsePoint parses "X, Y" where each axis is "N%" or "N" pixels.
func ParsePoint(s string) (Point, error) {
	s = strings.ReplaceAll(s, " ", "")
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Point{}, fmt.Errorf("invalid point format: %q", s)
	}

	x, err := parseCoord(parts[0])
	if err != nil {
		return Point{}, fmt.Errorf("invalid x coordinate: %w", err)
	}
	y, err := parseCoord(parts[1])
	if err != nil {
		return Point{}, fmt.Errorf("invalid y coordinate: %w", err)
	}
	return Point{X: x, Y: y}, nil
}

func parseCoord(s string) (Coord, error) {
	percent := strings.HasSuffix(s, "%")
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return Coord{}, fmt.Errorf("%q is not a number", s)
	}
	if v < 0 || (percent && v > 100) {
		return Coord{}, fmt.Errorf("%q is out of range", s)
	}
	return Coord{Value: v, Percent: percent}, nil
}

// Resolve converts the point to pixel coordinates for a window of w x h.
func (p Point) Resolve(w, h int) (int, int) {
	return p.X.Resolve(w), p.Y.Resolve(h)
}

func (p Point) String() string {
	return p.X.String() + ", " + p.Y.String()
}

// MarshalText implements encoding.TextMarshaler.
func (p Point) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Point) UnmarshalText(text []byte) error {
	parsed, err := ParsePoint(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// TapAt resolves p against the session's window and taps there.
func TapAt(s Session, p Point) (int, int, error) {
	w, h, err := s.WindowSize()
	if err != nil {
		return 0, 0, err
	}
	x, y := p.Resolve(w, h)
	return x, y, s.Tap(x, y)
}
