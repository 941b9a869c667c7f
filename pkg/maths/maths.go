// Package maths converts the float values yt-dlp reports into integers.
package maths

import (
	"math"
)

// RoundFloat64ToInt rounds v to the nearest int. NaN and infinities become 0.
func RoundFloat64ToInt(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}

	return int(math.Round(v))
}

// RoundFloat64PtrToInt64 rounds *v to a new int64, keeping absence as nil.
func RoundFloat64PtrToInt64(v *float64) *int64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}

	n := int64(math.Round(*v))

	return &n
}
