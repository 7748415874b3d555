package game

import (
	"github.com/nightowlcasino/redblack/bahamut"
)

const (
	WheelSlices  = 32
	wheelGroups  = 10
	sliceDegrees = 360.0 / WheelSlices
	fullTurns    = 5
)

// SliceColor is the color painted on wheel slice i, repeating red, black,
// green. Only the first 30 slices are landing targets.
func SliceColor(i int) bahamut.Color {
	switch ((i%WheelSlices + WheelSlices) % WheelSlices) % 3 {
	case 0:
		return bahamut.Red
	case 1:
		return bahamut.Black
	default:
		return bahamut.Green
	}
}

// Rotation picks a slice of the given color with intn and returns the
// degrees the wheel turns to land on it.
func Rotation(color bahamut.Color, intn func(int) int) float64 {
	group := intn(wheelGroups)

	var idx int
	switch color {
	case bahamut.Red:
		idx = group * 3
	case bahamut.Black:
		idx = group*3 + 1
	default:
		idx = group*3 + 2
	}

	return fullTurns*360 + float64(idx)*sliceDegrees
}
