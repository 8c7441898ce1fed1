// Package geo holds the grid geometry: keypad directions, tile stepping and distance.
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/antarena/antclient/pkg/core"
)

// ErrInvalidDirection is returned for a direction code outside 1..9.
var ErrInvalidDirection = errors.New("invalid direction code")

// Direction is a keypad-style move code. 5 means stay.
//
//	7 8 9
//	4 5 6
//	1 2 3
type Direction uint8

const (
	SouthWest Direction = iota + 1
	South
	SouthEast
	West
	Stay
	East
	NorthWest
	North
	NorthEast
)

// deltas is indexed by direction code.
var deltas = [10][2]int{
	{0, 0},
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {0, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

var names = [10]string{"invalid", "SW", "S", "SE", "W", "stay", "E", "NW", "N", "NE"}

// Valid reports whether d is one of the nine keypad codes.
func (d Direction) Valid() bool {
	return d >= SouthWest && d <= NorthEast
}

func (d Direction) String() string {
	if !d.Valid() {
		return fmt.Sprintf("invalid(%d)", uint8(d))
	}
	return names[d]
}

// Delta returns the unit step for d.
func (d Direction) Delta() (dx, dy int, err error) {
	if !d.Valid() {
		return 0, 0, fmt.Errorf("%w: %d", ErrInvalidDirection, uint8(d))
	}
	return deltas[d][0], deltas[d][1], nil
}

// DirectionTo returns the keypad code pointing from one tile toward another,
// using only the sign of each axis difference.
func DirectionTo(from, to core.Position) Direction {
	dx := sign(int(to.X) - int(from.X))
	dy := sign(int(to.Y) - int(from.Y))
	return Direction(5 + dx + 3*dy)
}

// NextTile returns the tile reached from origin by one step in d.
// Steps off the grid edge clamp to the edge instead of wrapping.
func NextTile(origin core.Position, d Direction) (core.Position, error) {
	dx, dy, err := d.Delta()
	if err != nil {
		return origin, err
	}
	return core.Position{
		X: clampStep(origin.X, dx),
		Y: clampStep(origin.Y, dy),
	}, nil
}

// Distance is the Euclidean distance between two tiles, truncated to an integer.
func Distance(a, b core.Position) uint16 {
	dx := absDiff(a.X, b.X)
	dy := absDiff(a.Y, b.Y)
	d := math.Sqrt(float64(dx*dx + dy*dy))
	if d >= math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(d)
}

func absDiff(a, b uint16) uint64 {
	if a > b {
		return uint64(a - b)
	}
	return uint64(b - a)
}

func clampStep(v uint16, delta int) uint16 {
	n := int(v) + delta
	switch {
	case n < 0:
		return 0
	case n > math.MaxUint16:
		return math.MaxUint16
	}
	return uint16(n)
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
